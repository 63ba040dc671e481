// Package reporting computes read-only aggregates over companies, calls and
// users, and renders the flat-file exports.
package reporting

import (
	"callcenter-platform/internal/calls"
	"callcenter-platform/internal/company"
)

// Dashboard aggregates the landing metrics. Call metrics only count
// accepted calls.
type Dashboard struct {
	TotalCompanies int `json:"total_companies"`
	Pending        int `json:"pending"`
	InProgress     int `json:"in_progress"`
	Callback       int `json:"callback"`
	Done           int `json:"done"`

	CallsTotal    int                        `json:"calls_total"`
	CallsAnswered int                        `json:"calls_answered"`
	CallsByNumero map[calls.StatusNumero]int `json:"calls_by_numero"`

	ProductCounts []ProductCount `json:"product_counts"`

	CallsWithAudio    int `json:"calls_with_audio"`
	CallsWithoutAudio int `json:"calls_without_audio"`

	EnqueteByProduct []EnqueteBucket `json:"enquete_by_product"`
}

type ProductCount struct {
	Product string `json:"product"`
	Total   int    `json:"total"`
}

// EnqueteBucket counts survey-completeness labels for one product.
type EnqueteBucket struct {
	Product   string `json:"product"`
	Complet   int    `json:"complet"`
	Partiel   int    `json:"partiel"`
	Incomplet int    `json:"incomplet"`
}

// UserCard is one agent's scoreboard entry. Points: 2 per complete survey,
// 1 per any other call. Ratio is points relative to the best agent, in
// percent.
type UserCard struct {
	Username   string `json:"username"`
	Initial    string `json:"initial"`
	Total      int    `json:"total"`
	Complete   int    `json:"complete"`
	Incomplete int    `json:"incomplete"`
	Points     int    `json:"points"`
	Ratio      int    `json:"ratio"`
}

// CompanyStatus is the per-company status payload for live refresh.
type CompanyStatus struct {
	ID            string         `json:"id"`
	Status        company.Status `json:"status"`
	StatusDisplay string         `json:"status_display"`
	Inspector     string         `json:"inspector,omitempty"`
}

// CallRow pairs a company with its latest call outcome for the call list.
type CallRow struct {
	Company   company.Company  `json:"company"`
	Recording *calls.Recording `json:"recording,omitempty"`
	Inspector string           `json:"inspector,omitempty"`
	Enquete   string           `json:"enquete,omitempty"`
}

// CallPage is one page of the call list.
type CallPage struct {
	Rows  []CallRow `json:"rows"`
	Page  int       `json:"page"`
	Pages int       `json:"pages"`
	Total int       `json:"total"`
}

const callPageSize = 50

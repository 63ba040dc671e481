package company

import "time"

// Company is one lead in the calling base.
//
// Lifecycle invariant: Status only moves through the call workflow
// (internal/calls). The import pipeline seeds the initial value and the
// reset API may move in_progress back to pending; nothing else touches it.

type Company struct {
	ID       string `json:"id" db:"id"`
	Name     string `json:"name" db:"name"`
	Phone    string `json:"phone" db:"phone"`
	Product  string `json:"product,omitempty" db:"product"`
	Activity string `json:"activity,omitempty" db:"activity"`
	Location string `json:"location,omitempty" db:"location"`

	// LegalForm is the company's legal regime (SARL, SAS, ...).
	LegalForm string `json:"legal_form,omitempty" db:"legal_form"`

	// NIU is the tax identification number.
	NIU string `json:"niu,omitempty" db:"niu"`

	ValidityScore float64 `json:"validity_score" db:"validity_score"`

	Status Status `json:"status" db:"status"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCallback   Status = "callback"
	StatusDone       Status = "done"
)

// IsValidStatus reports whether s is one of the four lifecycle values.
func IsValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCallback, StatusDone:
		return true
	default:
		return false
	}
}

// StatusDisplay returns the operator-facing French label for a status.
func StatusDisplay(s Status) string {
	switch s {
	case StatusPending:
		return "Pas encore appelé"
	case StatusInProgress:
		return "En cours"
	case StatusCallback:
		return "Rappel"
	case StatusDone:
		return "Déjà appelé"
	default:
		return string(s)
	}
}

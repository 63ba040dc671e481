package reporting

import (
	"context"
	"sort"
	"strings"

	"callcenter-platform/internal/calls"
	"callcenter-platform/internal/company"
	"callcenter-platform/internal/identity"
)

type Service struct {
	companies company.Repository
	calls     calls.Repository
	users     identity.Repository
}

func NewService(companies company.Repository, callRepo calls.Repository, users identity.Repository) *Service {
	return &Service{companies: companies, calls: callRepo, users: users}
}

func (s *Service) Dashboard(ctx context.Context) (Dashboard, error) {
	var d Dashboard

	total, err := s.companies.Count(ctx)
	if err != nil {
		return d, err
	}
	byStatus, err := s.companies.CountByStatus(ctx)
	if err != nil {
		return d, err
	}
	d.TotalCompanies = total
	d.Pending = byStatus[company.StatusPending]
	d.InProgress = byStatus[company.StatusInProgress]
	d.Callback = byStatus[company.StatusCallback]
	d.Done = byStatus[company.StatusDone]

	records, err := s.calls.ListAll(ctx)
	if err != nil {
		return d, err
	}
	recordings, err := s.calls.LatestRecordingPerCall(ctx)
	if err != nil {
		return d, err
	}
	companies, err := s.companies.List(ctx)
	if err != nil {
		return d, err
	}
	productByCompany := make(map[string]string, len(companies))
	for _, c := range companies {
		productByCompany[c.ID] = c.Product
	}

	d.CallsByNumero = make(map[calls.StatusNumero]int)
	products := make(map[string]int)
	enquete := make(map[string]*EnqueteBucket)

	for _, rec := range records {
		if rec.CallStatus != calls.CallAccepted {
			continue
		}
		d.CallsTotal++
		d.CallsByNumero[rec.StatusNumero]++
		if rec.StatusNumero == calls.NumeroAnswered {
			d.CallsAnswered++
		}
		if _, ok := recordings[rec.ID]; ok {
			d.CallsWithAudio++
		} else {
			d.CallsWithoutAudio++
		}

		product := productByCompany[rec.CompanyID]
		if product == "" {
			product = "Non renseigné"
		}
		products[product]++
		bucket, ok := enquete[product]
		if !ok {
			bucket = &EnqueteBucket{Product: product}
			enquete[product] = bucket
		}
		switch rec.EnqueteStatus() {
		case calls.EnqueteComplet:
			bucket.Complet++
		case calls.EnquetePartiel:
			bucket.Partiel++
		default:
			bucket.Incomplet++
		}
	}

	for product, n := range products {
		d.ProductCounts = append(d.ProductCounts, ProductCount{Product: product, Total: n})
	}
	sort.Slice(d.ProductCounts, func(i, j int) bool {
		return d.ProductCounts[i].Product < d.ProductCounts[j].Product
	})

	for _, bucket := range enquete {
		d.EnqueteByProduct = append(d.EnqueteByProduct, *bucket)
	}
	sort.Slice(d.EnqueteByProduct, func(i, j int) bool {
		return strings.ToLower(d.EnqueteByProduct[i].Product) < strings.ToLower(d.EnqueteByProduct[j].Product)
	})

	return d, nil
}

// UserCards builds the agent scoreboard: every user gets a card even with
// zero calls, and the ratio is relative to the best scorer.
func (s *Service) UserCards(ctx context.Context) ([]UserCard, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	records, err := s.calls.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	type stat struct{ total, complete, incomplete, points int }
	stats := make(map[string]*stat)
	for _, rec := range records {
		if rec.UserID == "" {
			continue
		}
		st, ok := stats[rec.UserID]
		if !ok {
			st = &stat{}
			stats[rec.UserID] = st
		}
		st.total++
		if rec.IsComplete() {
			st.complete++
			st.points += 2
		} else {
			st.incomplete++
			st.points++
		}
	}

	maxPoints := 1
	for _, st := range stats {
		if st.points > maxPoints {
			maxPoints = st.points
		}
	}

	cards := make([]UserCard, 0, len(users))
	for _, u := range users {
		st := stats[u.ID]
		if st == nil {
			st = &stat{}
		}
		initial := "U"
		if r := []rune(u.Username); len(r) > 0 {
			initial = strings.ToUpper(string(r[0]))
		}
		cards = append(cards, UserCard{
			Username:   u.Username,
			Initial:    initial,
			Total:      st.total,
			Complete:   st.complete,
			Incomplete: st.incomplete,
			Points:     st.points,
			Ratio:      st.points * 100 / maxPoints,
		})
	}
	sort.Slice(cards, func(i, j int) bool {
		return strings.ToLower(cards[i].Username) < strings.ToLower(cards[j].Username)
	})
	return cards, nil
}

// Statuses returns the per-company status list with the latest inspector.
func (s *Service) Statuses(ctx context.Context) ([]CompanyStatus, error) {
	companies, err := s.companies.List(ctx)
	if err != nil {
		return nil, err
	}
	latest, err := s.calls.LatestPerCompany(ctx)
	if err != nil {
		return nil, err
	}
	usernames, err := s.usernamesByID(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]CompanyStatus, 0, len(companies))
	for _, c := range companies {
		cs := CompanyStatus{
			ID:            c.ID,
			Status:        c.Status,
			StatusDisplay: company.StatusDisplay(c.Status),
		}
		if call, ok := latest[c.ID]; ok {
			cs.Inspector = usernames[call.UserID]
		}
		out = append(out, cs)
	}
	return out, nil
}

// CallPage returns one 50-row page of companies ordered by status then name,
// each paired with its latest call. Out-of-range pages clamp to the nearest
// valid page.
func (s *Service) CallPage(ctx context.Context, page int) (CallPage, error) {
	companies, err := s.companies.ListByStatusThenName(ctx)
	if err != nil {
		return CallPage{}, err
	}
	latest, err := s.calls.LatestPerCompany(ctx)
	if err != nil {
		return CallPage{}, err
	}
	recordings, err := s.calls.LatestRecordingPerCall(ctx)
	if err != nil {
		return CallPage{}, err
	}
	usernames, err := s.usernamesByID(ctx)
	if err != nil {
		return CallPage{}, err
	}

	total := len(companies)
	pages := (total + callPageSize - 1) / callPageSize
	if pages == 0 {
		pages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > pages {
		page = pages
	}

	start := (page - 1) * callPageSize
	end := start + callPageSize
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	rows := make([]CallRow, 0, end-start)
	for _, c := range companies[start:end] {
		row := CallRow{Company: c}
		if call, ok := latest[c.ID]; ok {
			row.Inspector = usernames[call.UserID]
			row.Enquete = call.EnqueteStatus()
			if rec, ok := recordings[call.ID]; ok {
				row.Recording = &rec
			}
		}
		rows = append(rows, row)
	}
	return CallPage{Rows: rows, Page: page, Pages: pages, Total: total}, nil
}

func (s *Service) usernamesByID(ctx context.Context) (map[string]string, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(users))
	for _, u := range users {
		out[u.ID] = u.Username
	}
	return out, nil
}

package reporting

import (
	"context"
	"fmt"
	"testing"
	"time"

	"callcenter-platform/internal/calls"
	"callcenter-platform/internal/company"
	"callcenter-platform/internal/identity"
	"callcenter-platform/internal/rbac"
)

type fixture struct {
	svc       *Service
	companies *company.MemoryRepo
	calls     *calls.MemoryRepo
	users     *identity.MemoryRepo
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	companies := company.NewMemoryRepo()
	callRepo := calls.NewMemoryRepo()
	users := identity.NewMemoryRepo()
	return &fixture{
		svc:       NewService(companies, callRepo, users),
		companies: companies,
		calls:     callRepo,
		users:     users,
	}
}

var baseTime = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

func (f *fixture) addCompany(t *testing.T, id, name, product string, status company.Status) {
	t.Helper()
	err := f.companies.Insert(context.Background(), company.Company{
		ID: id, Name: name, Phone: "699000000", Product: product, Status: status,
	})
	if err != nil {
		t.Fatalf("insert company: %v", err)
	}
}

func (f *fixture) addCall(t *testing.T, rec calls.CallRecord) {
	t.Helper()
	if rec.ID == "" {
		rec.ID = fmt.Sprintf("call-%d", len(f.calls.Records())+1)
	}
	if _, err := f.calls.CreateWithCompanyStatus(context.Background(), rec, ""); err != nil {
		t.Fatalf("insert call: %v", err)
	}
}

func (f *fixture) addUser(t *testing.T, id, username string) {
	t.Helper()
	err := f.users.Insert(context.Background(), &identity.User{
		ID: id, Username: username, Role: rbac.RoleAgent, IsActive: true,
	})
	if err != nil {
		t.Fatalf("insert user: %v", err)
	}
}

func acceptedCall(companyID, userID string, levels calls.Level, at time.Time) calls.CallRecord {
	return calls.CallRecord{
		CompanyID:               companyID,
		UserID:                  userID,
		StatusNumero:            calls.NumeroAnswered,
		CallStatus:              calls.CallAccepted,
		PresentationLevel:       levels,
		QuestionsLibresLevel:    levels,
		QuestionsOrienteesLevel: levels,
		CreatedAt:               at,
	}
}

func TestDashboard(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.addCompany(t, "c1", "Tech Horizon", "SaaS", company.StatusDone)
	f.addCompany(t, "c2", "AgriNova", "AgriTech", company.StatusPending)
	f.addCompany(t, "c3", "EcoBuild", "", company.StatusCallback)

	f.addCall(t, calls.CallRecord{ID: "a1", CompanyID: "c1", StatusNumero: calls.NumeroAnswered,
		CallStatus: calls.CallAccepted, PresentationLevel: calls.LevelComplete,
		QuestionsLibresLevel: calls.LevelComplete, QuestionsOrienteesLevel: calls.LevelComplete,
		CreatedAt: baseTime})
	f.addCall(t, calls.CallRecord{ID: "a2", CompanyID: "c3", StatusNumero: calls.NumeroVoicemail,
		CallStatus: calls.CallAccepted, CreatedAt: baseTime.Add(time.Minute)})
	// Refused calls stay out of the call metrics.
	f.addCall(t, calls.CallRecord{ID: "a3", CompanyID: "c2", StatusNumero: calls.NumeroAnswered,
		CallStatus: calls.CallRefused, CreatedAt: baseTime.Add(2 * time.Minute)})

	if _, err := f.calls.InsertRecording(ctx, calls.Recording{ID: "r1", CallID: "a1", Path: "x.webm"}); err != nil {
		t.Fatalf("insert recording: %v", err)
	}

	d, err := f.svc.Dashboard(ctx)
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}

	if d.TotalCompanies != 3 || d.Pending != 1 || d.Done != 1 || d.Callback != 1 {
		t.Fatalf("company totals = %+v", d)
	}
	if d.CallsTotal != 2 || d.CallsAnswered != 1 {
		t.Fatalf("calls total/answered = %d/%d", d.CallsTotal, d.CallsAnswered)
	}
	if d.CallsWithAudio != 1 || d.CallsWithoutAudio != 1 {
		t.Fatalf("audio split = %d/%d", d.CallsWithAudio, d.CallsWithoutAudio)
	}

	if len(d.EnqueteByProduct) != 2 {
		t.Fatalf("enquete buckets = %+v", d.EnqueteByProduct)
	}
	// Empty product buckets under the placeholder label, sorted
	// case-insensitively.
	if d.EnqueteByProduct[0].Product != "Non renseigné" || d.EnqueteByProduct[0].Partiel != 1 {
		t.Fatalf("bucket 0 = %+v", d.EnqueteByProduct[0])
	}
	if d.EnqueteByProduct[1].Product != "SaaS" || d.EnqueteByProduct[1].Complet != 1 {
		t.Fatalf("bucket 1 = %+v", d.EnqueteByProduct[1])
	}
}

func TestUserCards(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.addUser(t, "u1", "Zoe")
	f.addUser(t, "u2", "alice")
	f.addUser(t, "u3", "marc")

	f.addCompany(t, "c1", "Tech Horizon", "SaaS", company.StatusDone)

	// Zoe: one complete survey (2 points) and one refused call (1 point).
	f.addCall(t, acceptedCall("c1", "u1", calls.LevelComplete, baseTime))
	f.addCall(t, calls.CallRecord{CompanyID: "c1", UserID: "u1",
		StatusNumero: calls.NumeroAnswered, CallStatus: calls.CallRefused,
		CreatedAt: baseTime.Add(time.Minute)})
	// alice: one incomplete call.
	f.addCall(t, calls.CallRecord{CompanyID: "c1", UserID: "u2",
		StatusNumero: calls.NumeroNoAnswer, CreatedAt: baseTime.Add(2 * time.Minute)})
	// Anonymous calls never score.
	f.addCall(t, acceptedCall("c1", "", calls.LevelComplete, baseTime.Add(3*time.Minute)))

	cards, err := f.svc.UserCards(ctx)
	if err != nil {
		t.Fatalf("UserCards: %v", err)
	}
	if len(cards) != 3 {
		t.Fatalf("len(cards) = %d, want 3", len(cards))
	}

	// Case-insensitive username order.
	if cards[0].Username != "alice" || cards[1].Username != "marc" || cards[2].Username != "Zoe" {
		t.Fatalf("order = %v, %v, %v", cards[0].Username, cards[1].Username, cards[2].Username)
	}

	zoe := cards[2]
	if zoe.Total != 2 || zoe.Complete != 1 || zoe.Incomplete != 1 || zoe.Points != 3 {
		t.Fatalf("zoe = %+v", zoe)
	}
	if zoe.Ratio != 100 {
		t.Fatalf("zoe ratio = %d, want 100", zoe.Ratio)
	}

	alice := cards[0]
	if alice.Points != 1 || alice.Ratio != 33 {
		t.Fatalf("alice = %+v", alice)
	}

	// marc never called: zero card, zero ratio.
	if marc := cards[1]; marc.Total != 0 || marc.Points != 0 || marc.Ratio != 0 {
		t.Fatalf("marc = %+v", marc)
	}
}

func TestStatuses(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.addUser(t, "u1", "marie")
	f.addCompany(t, "c1", "Tech Horizon", "SaaS", company.StatusDone)
	f.addCompany(t, "c2", "AgriNova", "AgriTech", company.StatusPending)

	f.addCall(t, acceptedCall("c1", "u1", calls.LevelComplete, baseTime))

	statuses, err := f.svc.Statuses(ctx)
	if err != nil {
		t.Fatalf("Statuses: %v", err)
	}
	if len(statuses) != 2 {
		t.Fatalf("len(statuses) = %d, want 2", len(statuses))
	}

	byID := make(map[string]CompanyStatus)
	for _, s := range statuses {
		byID[s.ID] = s
	}
	c1 := byID["c1"]
	if c1.Status != company.StatusDone || c1.StatusDisplay != "Déjà appelé" || c1.Inspector != "marie" {
		t.Fatalf("c1 = %+v", c1)
	}
	if c2 := byID["c2"]; c2.Inspector != "" {
		t.Fatalf("c2 inspector = %q, want empty", c2.Inspector)
	}
}

func TestCallPagePagination(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	for i := 0; i < 60; i++ {
		f.addCompany(t, fmt.Sprintf("c%02d", i), fmt.Sprintf("Entreprise %02d", i), "", company.StatusPending)
	}

	page, err := f.svc.CallPage(ctx, 1)
	if err != nil {
		t.Fatalf("CallPage: %v", err)
	}
	if len(page.Rows) != 50 || page.Pages != 2 || page.Total != 60 {
		t.Fatalf("page 1 = %d rows, %d pages, %d total", len(page.Rows), page.Pages, page.Total)
	}

	page, err = f.svc.CallPage(ctx, 2)
	if err != nil {
		t.Fatalf("CallPage: %v", err)
	}
	if len(page.Rows) != 10 || page.Page != 2 {
		t.Fatalf("page 2 = %d rows, page %d", len(page.Rows), page.Page)
	}

	// Out-of-range pages clamp instead of erroring.
	page, err = f.svc.CallPage(ctx, 99)
	if err != nil {
		t.Fatalf("CallPage: %v", err)
	}
	if page.Page != 2 {
		t.Fatalf("clamped page = %d, want 2", page.Page)
	}
	page, err = f.svc.CallPage(ctx, 0)
	if err != nil {
		t.Fatalf("CallPage: %v", err)
	}
	if page.Page != 1 {
		t.Fatalf("clamped page = %d, want 1", page.Page)
	}
}

func TestCallPageRowDetails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.addUser(t, "u1", "marie")
	f.addCompany(t, "c1", "Tech Horizon", "SaaS", company.StatusDone)

	f.addCall(t, acceptedCall("c1", "u1", calls.LevelComplete, baseTime))
	rec := f.calls.Records()[0]
	if _, err := f.calls.InsertRecording(ctx, calls.Recording{ID: "r1", CallID: rec.ID, Path: "tech-horizon_20260314.webm"}); err != nil {
		t.Fatalf("insert recording: %v", err)
	}

	page, err := f.svc.CallPage(ctx, 1)
	if err != nil {
		t.Fatalf("CallPage: %v", err)
	}
	if len(page.Rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(page.Rows))
	}
	row := page.Rows[0]
	if row.Inspector != "marie" || row.Enquete != calls.EnqueteComplet {
		t.Fatalf("row = %+v", row)
	}
	if row.Recording == nil || row.Recording.Path != "tech-horizon_20260314.webm" {
		t.Fatalf("recording = %+v", row.Recording)
	}
}

package calls

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"callcenter-platform/internal/company"
)

func newTestWorkflow(t *testing.T) (*Workflow, *company.MemoryRepo, *MemoryRepo, *MemoryBlobStore) {
	t.Helper()
	companies := company.NewMemoryRepo()
	repo := NewMemoryRepo()
	repo.Companies = companies
	blobs := NewMemoryBlobStore()
	wf := NewWorkflow(companies, repo, blobs, NewMemoryClaimer(), nil)
	wf.clock = func() time.Time { return time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC) }
	return wf, companies, repo, blobs
}

func seedCompany(t *testing.T, companies *company.MemoryRepo, status company.Status) string {
	t.Helper()
	c := company.Company{ID: "co-1", Name: "Tech Horizon", Phone: "1", Status: status}
	if err := companies.Insert(context.Background(), c); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return c.ID
}

func validSubmit(companyID string) SubmitInput {
	return SubmitInput{
		CompanyID:               companyID,
		UserID:                  "agent-1",
		StatusNumero:            NumeroAnswered,
		CallStatus:              CallAccepted,
		PresentationLevel:       LevelComplete,
		QuestionsLibresLevel:    LevelPartial,
		QuestionsOrienteesLevel: LevelComplete,
		StatusMarkedAt:          "2026-03-14T09:59:00Z",
		RecordingStarted:        true,
	}
}

func TestOpen_PendingBecomesInProgress(t *testing.T) {
	wf, companies, _, _ := newTestWorkflow(t)
	id := seedCompany(t, companies, company.StatusPending)

	c, err := wf.Open(context.Background(), id, "agent-1")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if c.Status != company.StatusInProgress {
		t.Fatalf("expected in_progress, got %s", c.Status)
	}

	// Re-opening by the same agent is idempotent.
	c, err = wf.Open(context.Background(), id, "agent-1")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if c.Status != company.StatusInProgress {
		t.Fatalf("expected in_progress after reopen, got %s", c.Status)
	}
}

func TestOpen_DoneIsTerminal(t *testing.T) {
	wf, companies, _, _ := newTestWorkflow(t)
	id := seedCompany(t, companies, company.StatusDone)

	if _, err := wf.Open(context.Background(), id, "agent-1"); !errors.Is(err, ErrAlreadyDone) {
		t.Fatalf("expected ErrAlreadyDone, got %v", err)
	}
}

func TestOpen_SecondAgentRejectedWhileClaimed(t *testing.T) {
	wf, companies, _, _ := newTestWorkflow(t)
	id := seedCompany(t, companies, company.StatusPending)

	if _, err := wf.Open(context.Background(), id, "agent-1"); err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := wf.Open(context.Background(), id, "agent-2"); !errors.Is(err, ErrClaimed) {
		t.Fatalf("expected ErrClaimed for second agent, got %v", err)
	}
}

func TestSubmit_ValidationMatrix(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*SubmitInput)
		field  string
	}{
		{"missing status numero", func(in *SubmitInput) { in.StatusNumero = "" }, "status_numero"},
		{"answered without call status", func(in *SubmitInput) { in.CallStatus = "" }, "call_status"},
		{"unknown call status", func(in *SubmitInput) { in.CallStatus = "maybe" }, "call_status"},
		{"unknown level", func(in *SubmitInput) { in.PresentationLevel = "half" }, "presentation_level"},
		{"missing marked timestamp", func(in *SubmitInput) { in.StatusMarkedAt = "" }, "status_numero"},
		{"no recording decision", func(in *SubmitInput) { in.RecordingStarted = false }, "status_numero"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			wf, companies, repo, _ := newTestWorkflow(t)
			id := seedCompany(t, companies, company.StatusInProgress)

			in := validSubmit(id)
			tc.mutate(&in)

			_, err := wf.Submit(context.Background(), in)
			var ferrs FieldErrors
			if !errors.As(err, &ferrs) {
				t.Fatalf("expected FieldErrors, got %v", err)
			}
			if _, ok := ferrs[tc.field]; !ok {
				t.Fatalf("expected error on %q, got %v", tc.field, ferrs)
			}
			if len(repo.Records()) != 0 {
				t.Fatalf("no record must be saved on validation failure")
			}
		})
	}
}

func TestSubmit_AcceptedAdvancesToDone(t *testing.T) {
	wf, companies, repo, _ := newTestWorkflow(t)
	id := seedCompany(t, companies, company.StatusInProgress)

	rec, err := wf.Submit(context.Background(), validSubmit(id))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if rec.StatusMarkedAt == nil || rec.StatusMarkedAt.IsZero() {
		t.Fatalf("status_marked_at must be set")
	}
	c, _ := companies.GetByID(context.Background(), id)
	if c.Status != company.StatusDone {
		t.Fatalf("expected done, got %s", c.Status)
	}
	if got := len(repo.Records()); got != 1 {
		t.Fatalf("expected 1 record, got %d", got)
	}
}

func TestSubmit_CallbackAdvancesToCallback(t *testing.T) {
	wf, companies, _, _ := newTestWorkflow(t)
	id := seedCompany(t, companies, company.StatusInProgress)

	in := validSubmit(id)
	in.CallStatus = CallCallback

	if _, err := wf.Submit(context.Background(), in); err != nil {
		t.Fatalf("submit: %v", err)
	}
	c, _ := companies.GetByID(context.Background(), id)
	if c.Status != company.StatusCallback {
		t.Fatalf("expected callback, got %s", c.Status)
	}
}

func TestSubmit_NonAcceptedBlanksLevels(t *testing.T) {
	wf, companies, repo, _ := newTestWorkflow(t)
	id := seedCompany(t, companies, company.StatusInProgress)

	in := validSubmit(id)
	in.CallStatus = CallRefused

	if _, err := wf.Submit(context.Background(), in); err != nil {
		t.Fatalf("submit: %v", err)
	}
	rec := repo.Records()[0]
	if rec.PresentationLevel != LevelEmpty || rec.QuestionsLibresLevel != LevelEmpty || rec.QuestionsOrienteesLevel != LevelEmpty {
		t.Fatalf("levels must be blanked for non-accepted outcomes: %+v", rec)
	}
}

func TestSubmit_DoneCompanyRejected(t *testing.T) {
	wf, companies, _, _ := newTestWorkflow(t)
	id := seedCompany(t, companies, company.StatusDone)

	if _, err := wf.Submit(context.Background(), validSubmit(id)); !errors.Is(err, ErrAlreadyDone) {
		t.Fatalf("expected ErrAlreadyDone, got %v", err)
	}
}

func TestSubmit_StoresInlineAudio(t *testing.T) {
	wf, companies, repo, blobs := newTestWorkflow(t)
	id := seedCompany(t, companies, company.StatusInProgress)

	in := validSubmit(id)
	in.RecordingData = "data:audio/webm;codecs=opus;base64," + base64.StdEncoding.EncodeToString([]byte("audio-bytes"))

	if _, err := wf.Submit(context.Background(), in); err != nil {
		t.Fatalf("submit: %v", err)
	}
	recs := repo.Recordings()
	if len(recs) != 1 {
		t.Fatalf("expected 1 recording, got %d", len(recs))
	}
	if recs[0].MimeType != "audio/webm" {
		t.Fatalf("unexpected mime: %q", recs[0].MimeType)
	}
	wantName := "tech-horizon_20260314.webm"
	if recs[0].Path != wantName {
		t.Fatalf("unexpected path: %q", recs[0].Path)
	}
	if b, ok := blobs.Get(wantName); !ok || string(b) != "audio-bytes" {
		t.Fatalf("blob not stored")
	}
}

func TestSubmit_Mp4MimePicksMp4Extension(t *testing.T) {
	wf, companies, repo, _ := newTestWorkflow(t)
	id := seedCompany(t, companies, company.StatusInProgress)

	in := validSubmit(id)
	in.RecordingData = "data:audio/mp4;base64," + base64.StdEncoding.EncodeToString([]byte("x"))
	in.RecordingMime = "audio/mp4"

	if _, err := wf.Submit(context.Background(), in); err != nil {
		t.Fatalf("submit: %v", err)
	}
	recs := repo.Recordings()
	if len(recs) != 1 || recs[0].Path != "tech-horizon_20260314.mp4" {
		t.Fatalf("unexpected recordings: %+v", recs)
	}
}

func TestSubmit_AudioFailureIsNonFatal(t *testing.T) {
	wf, companies, repo, blobs := newTestWorkflow(t)
	id := seedCompany(t, companies, company.StatusInProgress)
	blobs.FailWith = errors.New("disk full")

	in := validSubmit(id)
	in.RecordingData = "data:audio/webm;base64," + base64.StdEncoding.EncodeToString([]byte("x"))

	if _, err := wf.Submit(context.Background(), in); err != nil {
		t.Fatalf("submit must not fail on audio store error, got %v", err)
	}
	if len(repo.Records()) != 1 {
		t.Fatalf("call record must still commit")
	}
	if len(repo.Recordings()) != 0 {
		t.Fatalf("no recording row expected on store failure")
	}
	c, _ := companies.GetByID(context.Background(), id)
	if c.Status != company.StatusDone {
		t.Fatalf("company must still advance, got %s", c.Status)
	}
}

func TestSubmit_ReleasesClaim(t *testing.T) {
	wf, companies, _, _ := newTestWorkflow(t)
	id := seedCompany(t, companies, company.StatusPending)

	if _, err := wf.Open(context.Background(), id, "agent-1"); err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := wf.Submit(context.Background(), validSubmit(id)); err != nil {
		t.Fatalf("submit: %v", err)
	}

	// After submit the claim is free again (though the company is done now).
	ok, err := wf.claims.Acquire(context.Background(), id, "agent-2")
	if err != nil || !ok {
		t.Fatalf("expected claim to be released, ok=%v err=%v", ok, err)
	}
}

func TestParseMarkedAt(t *testing.T) {
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	rfc := parseMarkedAt("2026-03-14T09:30:00Z", now)
	if rfc.Hour() != 9 || rfc.Minute() != 30 {
		t.Fatalf("rfc3339 parse failed: %v", rfc)
	}
	iso := parseMarkedAt("2026-03-14T09:30:00", now)
	if iso.Hour() != 9 {
		t.Fatalf("iso parse failed: %v", iso)
	}
	ms := parseMarkedAt("1700000000000", now)
	if ms.Year() != 2023 {
		t.Fatalf("epoch-millis parse failed: %v", ms)
	}
	if got := parseMarkedAt("garbage", now); !got.Equal(now) {
		t.Fatalf("unparseable must fall back to now, got %v", got)
	}
}

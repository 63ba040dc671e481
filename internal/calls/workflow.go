package calls

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"callcenter-platform/internal/company"

	"github.com/google/uuid"
)

var (
	// ErrAlreadyDone marks a terminal company: the call form rejects it.
	ErrAlreadyDone = errors.New("calls: company already done")

	// ErrClaimed means another agent currently holds the call form.
	ErrClaimed = errors.New("calls: company claimed by another agent")
)

// FieldErrors carries per-field validation messages back to the form.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString("calls: validation failed:")
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%q", k, e[k])
	}
	return b.String()
}

// Workflow is the single path by which a company's status advances.
//
// State machine: pending|callback → in_progress (Open, idempotent)
// → callback|done (Submit). done is terminal.

type Workflow struct {
	companies company.Repository
	repo      Repository
	blobs     BlobStore
	claims    Claimer

	clock func() time.Time
	log   *slog.Logger
}

func NewWorkflow(companies company.Repository, repo Repository, blobs BlobStore, claims Claimer, log *slog.Logger) *Workflow {
	if log == nil {
		log = slog.Default()
	}
	return &Workflow{
		companies: companies,
		repo:      repo,
		blobs:     blobs,
		claims:    claims,
		clock:     time.Now,
		log:       log,
	}
}

// Open loads the company for the call form, claims it for the agent and
// advances pending/callback to in_progress. Opening an in_progress company
// the agent already holds is a no-op.
func (w *Workflow) Open(ctx context.Context, companyID, userID string) (company.Company, error) {
	c, err := w.companies.GetByID(ctx, companyID)
	if err != nil {
		return company.Company{}, err
	}
	if c.Status == company.StatusDone {
		return c, ErrAlreadyDone
	}

	if err := w.claim(ctx, companyID, userID); err != nil {
		return c, err
	}

	if c.Status != company.StatusInProgress {
		if err := w.companies.UpdateStatus(ctx, companyID, company.StatusInProgress); err != nil {
			return company.Company{}, err
		}
		c.Status = company.StatusInProgress
	}
	return c, nil
}

func (w *Workflow) claim(ctx context.Context, companyID, userID string) error {
	if w.claims == nil {
		return nil
	}
	owner := userID
	if owner == "" {
		owner = "anonymous"
	}
	ok, err := w.claims.Acquire(ctx, companyID, owner)
	if err != nil {
		// Claiming is advisory; a Redis outage must not block calling.
		w.log.Warn("call form claim unavailable", "company_id", companyID, "err", err)
		return nil
	}
	if !ok {
		return ErrClaimed
	}
	return nil
}

// SubmitInput is the raw call form payload.
type SubmitInput struct {
	CompanyID string
	UserID    string

	StatusNumero StatusNumero `json:"status_numero"`
	CallStatus   CallStatus   `json:"call_status"`

	PresentationLevel       Level `json:"presentation_level"`
	QuestionsLibresLevel    Level `json:"questions_libres_level"`
	QuestionsOrienteesLevel Level `json:"questions_orientees_level"`

	QuestionnaireData json.RawMessage `json:"questionnaire_data"`

	// StatusMarkedAt is stamped client-side when the agent clicks a status.
	StatusMarkedAt string `json:"status_marked_at"`

	// The agent must either have started the microphone or explicitly
	// chosen to continue without audio.
	RecordingStarted bool `json:"recording_started"`
	SkipWithoutRec   bool `json:"skip_without_rec"`

	// RecordingData is an inline base64 data URL; RecordingMime overrides
	// the MIME sniffed from its header.
	RecordingData string `json:"recording_data"`
	RecordingMime string `json:"recording_mime"`
}

func (in *SubmitInput) validate() FieldErrors {
	errs := FieldErrors{}

	if !IsValidStatusNumero(in.StatusNumero) {
		errs["status_numero"] = "Choisissez un statut de numéro."
	}
	if in.CallStatus != "" && !IsValidCallStatus(in.CallStatus) {
		errs["call_status"] = "Statut d'appel inconnu."
	}
	if in.StatusNumero == NumeroAnswered && in.CallStatus == "" {
		errs["call_status"] = "Choisissez un statut d'appel."
	}

	for field, l := range map[string]Level{
		"presentation_level":        in.PresentationLevel,
		"questions_libres_level":    in.QuestionsLibresLevel,
		"questions_orientees_level": in.QuestionsOrienteesLevel,
	} {
		if !IsValidLevel(l) {
			errs[field] = "Niveau inconnu."
		}
	}

	// Completion levels only make sense for accepted questionnaires.
	if in.CallStatus != CallAccepted {
		in.PresentationLevel = LevelEmpty
		in.QuestionsLibresLevel = LevelEmpty
		in.QuestionsOrienteesLevel = LevelEmpty
	}

	if strings.TrimSpace(in.StatusMarkedAt) == "" {
		errs["status_numero"] = "Cliquez d'abord sur un statut."
	}
	if !in.RecordingStarted && !in.SkipWithoutRec {
		errs["status_numero"] = "Lancez le micro ou continuez sans enregistrement avant de sélectionner un statut."
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// Submit validates the outcome, persists the call record atomically with
// the company status advance and stores the optional audio artifact.
// Audio failures are downgraded to a warning; the record still commits.
func (w *Workflow) Submit(ctx context.Context, in SubmitInput) (CallRecord, error) {
	c, err := w.companies.GetByID(ctx, in.CompanyID)
	if err != nil {
		return CallRecord{}, err
	}
	if c.Status == company.StatusDone {
		return CallRecord{}, ErrAlreadyDone
	}

	if errs := in.validate(); errs != nil {
		return CallRecord{}, errs
	}

	now := w.clock().UTC()
	marked := parseMarkedAt(in.StatusMarkedAt, now)

	rec := CallRecord{
		ID:                      uuid.NewString(),
		CompanyID:               in.CompanyID,
		UserID:                  in.UserID,
		StatusNumero:            in.StatusNumero,
		CallStatus:              in.CallStatus,
		PresentationLevel:       in.PresentationLevel,
		QuestionsLibresLevel:    in.QuestionsLibresLevel,
		QuestionsOrienteesLevel: in.QuestionsOrienteesLevel,
		QuestionnaireData:       in.QuestionnaireData,
		CreatedAt:               now,
		StatusMarkedAt:          &marked,
		RecordingStartedAt:      &now,
		RecordingStoppedAt:      &now,
	}

	next := company.StatusDone
	if in.CallStatus == CallCallback {
		next = company.StatusCallback
	}

	rec, err = w.repo.CreateWithCompanyStatus(ctx, rec, next)
	if err != nil {
		return CallRecord{}, err
	}

	if in.RecordingData != "" {
		if err := w.storeRecording(ctx, rec, c.Name, in.RecordingData, in.RecordingMime); err != nil {
			w.log.Warn("audio recording not stored", "call_id", rec.ID, "company_id", in.CompanyID, "err", err)
		}
	}

	if w.claims != nil {
		owner := in.UserID
		if owner == "" {
			owner = "anonymous"
		}
		if err := w.claims.Release(ctx, in.CompanyID, owner); err != nil {
			w.log.Warn("call form claim release failed", "company_id", in.CompanyID, "err", err)
		}
	}
	return rec, nil
}

// parseMarkedAt accepts the timestamp formats the UI has been observed to
// send; anything unparseable falls back to now.
func parseMarkedAt(raw string, now time.Time) time.Time {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC()
		}
	}
	if ms, err := strconv.ParseInt(raw, 10, 64); err == nil && ms > 0 {
		return time.UnixMilli(ms).UTC()
	}
	return now
}

func (w *Workflow) storeRecording(ctx context.Context, rec CallRecord, companyName, dataURL, mimeOverride string) error {
	if w.blobs == nil {
		return errors.New("calls: no blob store configured")
	}

	header, payload, found := strings.Cut(dataURL, ",")
	if !found {
		return errors.New("calls: malformed audio data url")
	}
	mime := mimeOverride
	if mime == "" {
		mime = strings.TrimPrefix(strings.SplitN(header, ";", 2)[0], "data:")
	}

	audio, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return fmt.Errorf("calls: decode audio: %w", err)
	}

	ext := "webm"
	if strings.Contains(mime, "mp4") {
		ext = "mp4"
	}
	slug := slugify(companyName)
	if slug == "" {
		slug = "entreprise"
	}
	name := fmt.Sprintf("%s_%s.%s", slug, w.clock().UTC().Format("20060102"), ext)

	path, err := w.blobs.Save(ctx, name, audio)
	if err != nil {
		return fmt.Errorf("calls: save audio: %w", err)
	}

	_, err = w.repo.InsertRecording(ctx, Recording{
		ID:        uuid.NewString(),
		CallID:    rec.ID,
		Path:      path,
		MimeType:  mime,
		CreatedAt: w.clock().UTC(),
	})
	if err != nil {
		return fmt.Errorf("calls: persist recording row: %w", err)
	}
	return nil
}

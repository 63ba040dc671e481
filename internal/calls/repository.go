package calls

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"callcenter-platform/internal/company"
	"callcenter-platform/pkg/utils"
)

var ErrNotFound = errors.New("calls: not found")

// Repository is the persistence contract for call records and recordings.
//
// CreateWithCompanyStatus commits the record and the company status advance
// in one transaction so a crash cannot leave a done company without its
// outcome (or the reverse).

type Repository interface {
	CreateWithCompanyStatus(ctx context.Context, rec CallRecord, status company.Status) (CallRecord, error)
	InsertRecording(ctx context.Context, r Recording) (Recording, error)

	ListAll(ctx context.Context) ([]CallRecord, error)
	LatestPerCompany(ctx context.Context) (map[string]CallRecord, error)
	LatestRecordingPerCall(ctx context.Context) (map[string]Recording, error)
}

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

const callColumns = `id, company_id, COALESCE(user_id::text, ''), status_numero, call_status,
	presentation_level, questions_libres_level, questions_orientees_level,
	questionnaire_data, created_at, status_marked_at, recording_started_at, recording_stopped_at`

func scanCall(row interface{ Scan(...any) error }) (CallRecord, error) {
	var c CallRecord
	var questionnaire []byte
	err := row.Scan(
		&c.ID,
		&c.CompanyID,
		&c.UserID,
		&c.StatusNumero,
		&c.CallStatus,
		&c.PresentationLevel,
		&c.QuestionsLibresLevel,
		&c.QuestionsOrienteesLevel,
		&questionnaire,
		&c.CreatedAt,
		&c.StatusMarkedAt,
		&c.RecordingStartedAt,
		&c.RecordingStoppedAt,
	)
	if len(questionnaire) > 0 {
		c.QuestionnaireData = questionnaire
	}
	return c, err
}

func (r *PostgresRepo) CreateWithCompanyStatus(ctx context.Context, rec CallRecord, status company.Status) (CallRecord, error) {
	err := utils.WithTx(ctx, r.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		const insert = `
INSERT INTO call_records (
  id, company_id, user_id, status_numero, call_status,
  presentation_level, questions_libres_level, questions_orientees_level,
  questionnaire_data, created_at, status_marked_at, recording_started_at, recording_stopped_at
) VALUES ($1,$2,NULLIF($3,'')::uuid,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
`
		var questionnaire any
		if len(rec.QuestionnaireData) > 0 {
			questionnaire = []byte(rec.QuestionnaireData)
		}
		if _, err := tx.ExecContext(ctx, insert,
			rec.ID, rec.CompanyID, rec.UserID, rec.StatusNumero, rec.CallStatus,
			rec.PresentationLevel, rec.QuestionsLibresLevel, rec.QuestionsOrienteesLevel,
			questionnaire, rec.CreatedAt, rec.StatusMarkedAt, rec.RecordingStartedAt, rec.RecordingStoppedAt,
		); err != nil {
			return err
		}
		const update = `UPDATE companies SET status = $2, updated_at = NOW() WHERE id = $1`
		if _, err := tx.ExecContext(ctx, update, rec.CompanyID, status); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return CallRecord{}, err
	}
	return rec, nil
}

func (r *PostgresRepo) InsertRecording(ctx context.Context, rec Recording) (Recording, error) {
	const q = `
INSERT INTO recordings (id, call_id, path, mime_type, duration_seconds, created_at)
VALUES ($1,$2,$3,$4,$5,$6)
`
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, q, rec.ID, rec.CallID, rec.Path, rec.MimeType, rec.DurationSeconds, rec.CreatedAt)
	if err != nil {
		return Recording{}, err
	}
	return rec, nil
}

func (r *PostgresRepo) ListAll(ctx context.Context) ([]CallRecord, error) {
	const q = `
SELECT ` + callColumns + `
FROM call_records
ORDER BY created_at DESC
`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CallRecord
	for rows.Next() {
		c, err := scanCall(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) LatestPerCompany(ctx context.Context) (map[string]CallRecord, error) {
	const q = `
SELECT DISTINCT ON (company_id) ` + callColumns + `
FROM call_records
ORDER BY company_id, created_at DESC
`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]CallRecord{}
	for rows.Next() {
		c, err := scanCall(rows)
		if err != nil {
			return nil, err
		}
		out[c.CompanyID] = c
	}
	return out, rows.Err()
}

func (r *PostgresRepo) LatestRecordingPerCall(ctx context.Context) (map[string]Recording, error) {
	const q = `
SELECT DISTINCT ON (call_id) id, call_id, path, mime_type, duration_seconds, created_at
FROM recordings
ORDER BY call_id, created_at DESC
`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]Recording{}
	for rows.Next() {
		var rec Recording
		if err := rows.Scan(&rec.ID, &rec.CallID, &rec.Path, &rec.MimeType, &rec.DurationSeconds, &rec.CreatedAt); err != nil {
			return nil, err
		}
		out[rec.CallID] = rec
	}
	return out, rows.Err()
}

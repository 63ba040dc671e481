package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// LogRepository is the persistence contract for audit logs. It is
// append-only; no per-row update or delete exists.
type LogRepository interface {
	Append(ctx context.Context, l Log) error
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// SessionRepository persists session snapshots with upsert semantics:
// exactly one row per session key. An existing row keeps its is_active
// value across upserts, so a logged-out session stays inactive no matter
// how many requests still carry its token.
type SessionRepository interface {
	Upsert(ctx context.Context, s Snapshot) error
	MarkInactive(ctx context.Context, sessionKey string) error
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type PostgresLogRepo struct {
	db *sql.DB
}

func NewPostgresLogRepo(db *sql.DB) *PostgresLogRepo {
	return &PostgresLogRepo{db: db}
}

func (r *PostgresLogRepo) Append(ctx context.Context, l Log) error {
	const q = `
		INSERT INTO audit_logs
			(id, user_id, session_key, ip_address, method, path, status_code,
			 user_agent, duration_ms, payload_summary, created_at)
		VALUES ($1, NULLIF($2,'')::uuid, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.db.ExecContext(ctx, q,
		l.ID, l.UserID, l.SessionKey, l.IPAddress, l.Method, l.Path,
		l.StatusCode, l.UserAgent, l.DurationMs, l.PayloadSummary, l.CreatedAt)
	if err != nil {
		return fmt.Errorf("audit: append log: %w", err)
	}
	return nil
}

func (r *PostgresLogRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	const q = `DELETE FROM audit_logs WHERE created_at < $1`
	res, err := r.db.ExecContext(ctx, q, cutoff)
	if err != nil {
		return 0, fmt.Errorf("audit: delete old logs: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

type PostgresSessionRepo struct {
	db *sql.DB
}

func NewPostgresSessionRepo(db *sql.DB) *PostgresSessionRepo {
	return &PostgresSessionRepo{db: db}
}

func (r *PostgresSessionRepo) Upsert(ctx context.Context, s Snapshot) error {
	// login_at keeps its first value; a session logs in once. is_active is
	// sticky on conflict: every login mints a fresh session key, so an
	// existing row that went inactive must never be reactivated by a
	// later request-tracking upsert.
	const q = `
		INSERT INTO session_snapshots
			(session_key, user_id, ip_address, user_agent, login_at, last_activity, is_active)
		VALUES ($1, NULLIF($2,'')::uuid, $3, $4, $5, $6, $7)
		ON CONFLICT (session_key) DO UPDATE SET
			user_id = EXCLUDED.user_id,
			ip_address = EXCLUDED.ip_address,
			user_agent = EXCLUDED.user_agent,
			login_at = COALESCE(session_snapshots.login_at, EXCLUDED.login_at),
			last_activity = EXCLUDED.last_activity,
			is_active = session_snapshots.is_active`
	_, err := r.db.ExecContext(ctx, q,
		s.SessionKey, s.UserID, s.IPAddress, s.UserAgent, s.LoginAt, s.LastActivity, s.IsActive)
	if err != nil {
		return fmt.Errorf("audit: upsert snapshot: %w", err)
	}
	return nil
}

func (r *PostgresSessionRepo) MarkInactive(ctx context.Context, sessionKey string) error {
	const q = `UPDATE session_snapshots SET is_active = FALSE WHERE session_key = $1`
	if _, err := r.db.ExecContext(ctx, q, sessionKey); err != nil {
		return fmt.Errorf("audit: mark session inactive: %w", err)
	}
	return nil
}

func (r *PostgresSessionRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	const q = `DELETE FROM session_snapshots WHERE last_activity < $1`
	res, err := r.db.ExecContext(ctx, q, cutoff)
	if err != nil {
		return 0, fmt.Errorf("audit: delete old snapshots: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

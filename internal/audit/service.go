package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Service records audit logs and session snapshots, and runs the lazy
// retention sweep.
//
// Callers must treat every method as best-effort: errors are returned for
// the caller to log, never to fail a request on.
type Service struct {
	logs     LogRepository
	sessions SessionRepository
	clock    func() time.Time
	log      *slog.Logger

	maxAge     time.Duration
	sweepEvery time.Duration

	mu        sync.Mutex
	lastPrune time.Time
}

func NewService(logs LogRepository, sessions SessionRepository, maxAge, sweepEvery time.Duration, log *slog.Logger) *Service {
	if maxAge <= 0 {
		maxAge = 90 * 24 * time.Hour
	}
	if sweepEvery <= 0 {
		sweepEvery = 6 * time.Hour
	}
	return &Service{
		logs:       logs,
		sessions:   sessions,
		clock:      time.Now,
		log:        log,
		maxAge:     maxAge,
		sweepEvery: sweepEvery,
	}
}

// Record appends one audit log row, applying the truncation limits, and
// upserts the session snapshot when a session key is present.
func (s *Service) Record(ctx context.Context, l Log) error {
	now := s.clock().UTC()
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = now
	}
	l.Method = truncate(l.Method, maxMethodLen)
	l.UserAgent = truncate(l.UserAgent, maxAgentLen)
	l.PayloadSummary = truncate(l.PayloadSummary, maxSummaryLen)

	if err := s.logs.Append(ctx, l); err != nil {
		return err
	}

	if l.SessionKey != "" {
		err := s.sessions.Upsert(ctx, Snapshot{
			SessionKey:   l.SessionKey,
			UserID:       l.UserID,
			IPAddress:    l.IPAddress,
			UserAgent:    l.UserAgent,
			LastActivity: now,
			IsActive:     true,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// RecordLogin marks a fresh session as active and appends a LOGIN row.
func (s *Service) RecordLogin(ctx context.Context, sessionKey, userID, ip, userAgent string) error {
	now := s.clock().UTC()
	err := s.sessions.Upsert(ctx, Snapshot{
		SessionKey:   sessionKey,
		UserID:       userID,
		IPAddress:    ip,
		UserAgent:    truncate(userAgent, maxAgentLen),
		LoginAt:      &now,
		LastActivity: now,
		IsActive:     true,
	})
	if err != nil {
		return err
	}
	return s.logs.Append(ctx, Log{
		ID:         uuid.NewString(),
		UserID:     userID,
		SessionKey: sessionKey,
		IPAddress:  ip,
		Method:     "LOGIN",
		Path:       "/v1/auth/login",
		UserAgent:  truncate(userAgent, maxAgentLen),
		CreatedAt:  now,
	})
}

// RecordLogout deactivates the session and appends a LOGOUT row.
func (s *Service) RecordLogout(ctx context.Context, sessionKey, userID, ip, userAgent string) error {
	if err := s.sessions.MarkInactive(ctx, sessionKey); err != nil {
		return err
	}
	return s.logs.Append(ctx, Log{
		ID:         uuid.NewString(),
		UserID:     userID,
		SessionKey: sessionKey,
		IPAddress:  ip,
		Method:     "LOGOUT",
		Path:       "/v1/auth/logout",
		UserAgent:  truncate(userAgent, maxAgentLen),
		CreatedAt:  s.clock().UTC(),
	})
}

// MaybeSweep runs the retention sweep at most once per sweep interval.
// The sweep deletes logs and snapshots older than the retention age. It is
// idempotent, so concurrent workers racing the interval boundary are
// harmless.
func (s *Service) MaybeSweep(ctx context.Context) {
	now := s.clock()

	s.mu.Lock()
	if !s.lastPrune.IsZero() && now.Sub(s.lastPrune) < s.sweepEvery {
		s.mu.Unlock()
		return
	}
	s.lastPrune = now
	s.mu.Unlock()

	cutoff := now.UTC().Add(-s.maxAge)
	logsDeleted, err := s.logs.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		s.log.Warn("audit sweep failed", "error", err)
		return
	}
	sessionsDeleted, err := s.sessions.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		s.log.Warn("session sweep failed", "error", err)
		return
	}
	if logsDeleted > 0 || sessionsDeleted > 0 {
		s.log.Info("retention sweep", "logs_deleted", logsDeleted, "sessions_deleted", sessionsDeleted)
	}
}

// truncate cuts s to at most limit bytes without splitting a rune, so a
// multibyte user agent or summary never becomes invalid UTF-8.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}

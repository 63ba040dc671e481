package audit

import "time"

// Log is an immutable, append-only record of one HTTP request.
//
// Invariants:
// - Logs are never updated; the only delete path is the retention sweep.
// - Capture is best-effort; nothing in the request path may fail on audit
//   errors.

type Log struct {
	ID         string `json:"id" db:"id"`
	UserID     string `json:"user_id,omitempty" db:"user_id"`
	SessionKey string `json:"session_key,omitempty" db:"session_key"`
	IPAddress  string `json:"ip_address,omitempty" db:"ip_address"`
	Method     string `json:"method" db:"method"`
	Path       string `json:"path" db:"path"`
	StatusCode int    `json:"status_code" db:"status_code"`
	UserAgent  string `json:"user_agent,omitempty" db:"user_agent"`
	DurationMs int64  `json:"duration_ms" db:"duration_ms"`

	// PayloadSummary lists submitted field names, never values.
	PayloadSummary string `json:"payload_summary,omitempty" db:"payload_summary"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Snapshot is the live view of one session, upserted per session key.
type Snapshot struct {
	SessionKey   string     `json:"session_key" db:"session_key"`
	UserID       string     `json:"user_id,omitempty" db:"user_id"`
	IPAddress    string     `json:"ip_address,omitempty" db:"ip_address"`
	UserAgent    string     `json:"user_agent,omitempty" db:"user_agent"`
	LoginAt      *time.Time `json:"login_at,omitempty" db:"login_at"`
	LastActivity time.Time  `json:"last_activity" db:"last_activity"`
	IsActive     bool       `json:"is_active" db:"is_active"`
}

// Field truncation limits, applied before persistence.
const (
	maxMethodLen  = 8
	maxAgentLen   = 1024
	maxSummaryLen = 4000
)

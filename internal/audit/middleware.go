package audit

import (
	"fmt"
	"net"
	"net/http"
	"sort"
	"strings"
	"time"

	"callcenter-platform/internal/auth"

	"github.com/gin-gonic/gin"
)

// Middleware observes every request/response pair exactly once. It never
// alters the response: every failure in the audit path is swallowed and
// debug-logged.
func Middleware(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/static/") || strings.HasPrefix(path, "/media/") {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		func() {
			defer func() {
				if r := recover(); r != nil {
					svc.log.Debug("audit hook panicked", "panic", r)
				}
			}()

			ctx := c.Request.Context()
			userID, _ := auth.UserID(ctx)
			sessionKey, _ := auth.SessionKey(ctx)

			entry := Log{
				UserID:         userID,
				SessionKey:     sessionKey,
				IPAddress:      clientIP(c.Request),
				Method:         c.Request.Method,
				Path:           path,
				StatusCode:     c.Writer.Status(),
				UserAgent:      c.Request.UserAgent(),
				DurationMs:     time.Since(start).Milliseconds(),
				PayloadSummary: summarizePayload(c.Request),
			}
			if err := svc.Record(ctx, entry); err != nil {
				svc.log.Debug("audit record failed", "error", err)
			}
			svc.MaybeSweep(ctx)
		}()
	}
}

// clientIP prefers the first X-Forwarded-For entry, else the direct
// connection address.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// summarizePayload records which fields were submitted, never their values.
func summarizePayload(r *http.Request) string {
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		_ = r.ParseForm()
		return fmt.Sprintf("%s keys=%v", r.Method, sortedKeys(r.PostForm))
	case http.MethodGet:
		if q := r.URL.Query(); len(q) > 0 {
			return fmt.Sprintf("GET keys=%v", sortedKeys(q))
		}
	}
	return ""
}

func sortedKeys(values map[string][]string) []string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

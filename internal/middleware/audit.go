// AngelaMos | 2026
// audit.go

package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/carterperez-dev/retail-backend/internal/audit"
)

// annotation lets handlers deeper in the chain tell AuditErrors who the
// caller was, since the principal is attached after it runs.
type annotation struct {
	mu        sync.Mutex
	userID    string
	companyID string
	recorded  bool
}

func annotate(ctx context.Context, p *Principal) {
	a, ok := ctx.Value(annotationKey).(*annotation)
	if !ok || p == nil {
		return
	}
	a.mu.Lock()
	a.userID = p.UserID
	a.companyID = p.CompanyID
	a.mu.Unlock()
}

// markRecorded stops AuditErrors from writing a second entry for a
// response that already has one.
func markRecorded(ctx context.Context) {
	if a, ok := ctx.Value(annotationKey).(*annotation); ok {
		a.mu.Lock()
		a.recorded = true
		a.mu.Unlock()
	}
}

// LevelForStatus reports the audit level for a response status, or false
// when the status is routine and not audited.
func LevelForStatus(status int) (audit.Level, bool) {
	switch {
	case status >= http.StatusInternalServerError:
		return audit.LevelError, true
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return audit.LevelSecurity, true
	case status == http.StatusGone, status == http.StatusTooManyRequests:
		return audit.LevelWarning, true
	default:
		return "", false
	}
}

// AuditErrors records an audit entry for every response whose status is
// worth auditing. Recording never blocks the response.
func AuditErrors(recorder audit.Recorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			a := &annotation{}
			ctx := context.WithValue(r.Context(), annotationKey, a)
			rw := wrapResponseWriter(w)

			next.ServeHTTP(rw, r.WithContext(ctx))

			status := rw.Status()
			level, ok := LevelForStatus(status)
			if !ok {
				return
			}

			a.mu.Lock()
			userID, companyID, recorded := a.userID, a.companyID, a.recorded
			a.mu.Unlock()
			if recorded {
				return
			}

			entry := audit.FromRequest(r).Entry(userID, level, map[string]any{
				"status_code": status,
				"error_msg":   errorMessage(rw.body.Bytes()),
				"request_id":  GetRequestID(r.Context()),
			})
			entry.CompanyID = companyID

			recorder.Record(r.Context(), entry)
		})
	}
}

func errorMessage(body []byte) string {
	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Detail != "" {
		return payload.Detail
	}
	return string(body)
}

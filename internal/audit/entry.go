// AngelaMos | 2026
// entry.go

package audit

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"
)

type Level string

const (
	LevelInfo     Level = "INFO"
	LevelWarning  Level = "WARNING"
	LevelError    Level = "ERROR"
	LevelSecurity Level = "SECURITY"
)

const (
	maxHeaderLen = 100
	maxQueryLen  = 200
)

type Entry struct {
	UserID    string         `db:"user_id"`
	CompanyID string         `db:"company_id"`
	Endpoint  string         `db:"endpoint"`
	Action    string         `db:"action"`
	Level     Level          `db:"level"`
	Details   map[string]any `db:"-"`
	CreatedAt time.Time      `db:"created_at"`
}

// Recorder accepts audit entries without blocking the caller and without
// reporting failures back to it.
type Recorder interface {
	Record(ctx context.Context, entry Entry)
}

// Request is the request metadata attached to audit entries.
type Request struct {
	Endpoint   string
	Method     string
	Headers    map[string]string
	Query      map[string]string
	ClientHost string
}

var redactedHeaders = map[string]struct{}{
	"Authorization":        {},
	"Cookie":               {},
	"X-Paystack-Signature": {},
}

func FromRequest(r *http.Request) Request {
	headers := make(map[string]string, len(r.Header))
	for name, values := range r.Header {
		if _, redact := redactedHeaders[http.CanonicalHeaderKey(name)]; redact {
			headers[name] = "[redacted]"
			continue
		}
		headers[name] = truncate(strings.Join(values, ","), maxHeaderLen)
	}

	query := make(map[string]string)
	for key, values := range r.URL.Query() {
		query[key] = truncate(strings.Join(values, ","), maxQueryLen)
	}

	return Request{
		Endpoint:   r.URL.String(),
		Method:     r.Method,
		Headers:    headers,
		Query:      query,
		ClientHost: clientHost(r),
	}
}

// Entry builds an audit entry for this request. extra is merged into the
// details payload and wins on key collisions.
func (r Request) Entry(userID string, level Level, extra map[string]any) Entry {
	details := map[string]any{
		"headers":      r.Headers,
		"query_params": r.Query,
		"client_host":  r.ClientHost,
	}
	for k, v := range extra {
		details[k] = v
	}

	return Entry{
		UserID:   userID,
		Endpoint: r.Endpoint,
		Action:   r.Method,
		Level:    level,
		Details:  details,
	}
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}

func clientHost(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		return strings.TrimSpace(ips[len(ips)-1])
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

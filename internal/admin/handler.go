// AngelaMos | 2026
// handler.go

package admin

import (
	"context"
	"database/sql"
	"net/http"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/retail-backend/internal/audit"
	"github.com/carterperez-dev/retail-backend/internal/auth"
	"github.com/carterperez-dev/retail-backend/internal/core"
	"github.com/carterperez-dev/retail-backend/internal/middleware"
)

// Sweeper removes expired blacklist entries and one-time codes.
type Sweeper interface {
	CleanupExpired(ctx context.Context, now time.Time) (auth.CleanupResult, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type HandlerConfig struct {
	DB         Pinger
	DBStats    func() sql.DBStats
	Redis      Pinger
	RedisStats func() *redis.PoolStats
	AuditStats func() audit.Stats
	Sweeper    Sweeper
}

type Handler struct {
	cfg HandlerConfig
	now func() time.Time
}

func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{cfg: cfg, now: time.Now}
}

// RegisterRoutes mounts /admin for super admins only.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	guard *middleware.Guard,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/admin", func(r chi.Router) {
		r.Use(authenticator, guard.RequireRolesOrPermissions(middleware.SuperAdmin))

		r.Get("/stats", h.SystemStats)
		r.Get("/stats/audit", h.AuditStats)
		r.Get("/stats/runtime", h.RuntimeStats)
		r.Post("/sweep", h.Sweep)
	})
}

func (h *Handler) SystemStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	resp := SystemStatsResponse{
		Database: DatabaseStatus{Healthy: healthy(ctx, h.cfg.DB)},
		Redis:    RedisStatus{Healthy: healthy(ctx, h.cfg.Redis)},
		Audit:    h.auditStats(),
		Runtime:  runtimeStats(),
	}

	if h.cfg.DBStats != nil {
		s := h.cfg.DBStats()
		resp.Database.Stats = &DBPoolStats{
			MaxOpenConnections: s.MaxOpenConnections,
			OpenConnections:    s.OpenConnections,
			InUse:              s.InUse,
			Idle:               s.Idle,
			WaitCount:          s.WaitCount,
			WaitDuration:       s.WaitDuration.String(),
		}
	}
	if h.cfg.RedisStats != nil {
		if s := h.cfg.RedisStats(); s != nil {
			resp.Redis.Stats = &RedisPoolStats{
				Hits:       s.Hits,
				Misses:     s.Misses,
				Timeouts:   s.Timeouts,
				TotalConns: s.TotalConns,
				IdleConns:  s.IdleConns,
			}
		}
	}

	core.OK(w, resp)
}

func (h *Handler) AuditStats(w http.ResponseWriter, _ *http.Request) {
	stats := h.auditStats()
	if stats == nil {
		core.NotFound(w, "Audit queue")
		return
	}
	core.OK(w, stats)
}

func (h *Handler) RuntimeStats(w http.ResponseWriter, _ *http.Request) {
	core.OK(w, runtimeStats())
}

// Sweep runs the same cleanup as the sweeper command, on demand.
func (h *Handler) Sweep(w http.ResponseWriter, r *http.Request) {
	if h.cfg.Sweeper == nil {
		core.NotFound(w, "Sweeper")
		return
	}

	result, err := h.cfg.Sweeper.CleanupExpired(r.Context(), h.now().UTC())
	if err != nil {
		core.JSONError(w, err)
		return
	}
	core.OK(w, result)
}

func (h *Handler) auditStats() *audit.Stats {
	if h.cfg.AuditStats == nil {
		return nil
	}
	s := h.cfg.AuditStats()
	return &s
}

func healthy(ctx context.Context, p Pinger) bool {
	return p != nil && p.Ping(ctx) == nil
}

func runtimeStats() RuntimeStats {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return RuntimeStats{
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
		NumCPU:       runtime.NumCPU(),
		MemAlloc:     mem.Alloc,
		MemSys:       mem.Sys,
		NumGC:        mem.NumGC,
	}
}

type SystemStatsResponse struct {
	Database DatabaseStatus `json:"database"`
	Redis    RedisStatus    `json:"redis"`
	Audit    *audit.Stats   `json:"audit,omitempty"`
	Runtime  RuntimeStats   `json:"runtime"`
}

type DatabaseStatus struct {
	Healthy bool         `json:"healthy"`
	Stats   *DBPoolStats `json:"stats,omitempty"`
}

type RedisStatus struct {
	Healthy bool            `json:"healthy"`
	Stats   *RedisPoolStats `json:"stats,omitempty"`
}

type DBPoolStats struct {
	MaxOpenConnections int    `json:"max_open_connections"`
	OpenConnections    int    `json:"open_connections"`
	InUse              int    `json:"in_use"`
	Idle               int    `json:"idle"`
	WaitCount          int64  `json:"wait_count"`
	WaitDuration       string `json:"wait_duration"`
}

type RedisPoolStats struct {
	Hits       uint32 `json:"hits"`
	Misses     uint32 `json:"misses"`
	Timeouts   uint32 `json:"timeouts"`
	TotalConns uint32 `json:"total_conns"`
	IdleConns  uint32 `json:"idle_conns"`
}

type RuntimeStats struct {
	GoVersion    string `json:"go_version"`
	NumGoroutine int    `json:"num_goroutine"`
	NumCPU       int    `json:"num_cpu"`
	MemAlloc     uint64 `json:"mem_alloc_bytes"`
	MemSys       uint64 `json:"mem_sys_bytes"`
	NumGC        uint32 `json:"num_gc"`
}

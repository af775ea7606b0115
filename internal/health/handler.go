package health

import (
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/eleven-am/realtime-client/internal/session"
	"github.com/labstack/echo/v4"
)

type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// SessionReporter is satisfied by *session.Orchestrator.
type SessionReporter interface {
	State() session.State
	Subscribers() int
}

type RuntimeStats struct {
	Goroutines         int    `json:"goroutines"`
	MemoryAllocMB      uint64 `json:"memory_alloc_mb"`
	MemoryTotalAllocMB uint64 `json:"memory_total_alloc_mb"`
	MemorySysMB        uint64 `json:"memory_sys_mb"`
	NumGC              uint32 `json:"num_gc"`
}

type SessionStats struct {
	State       string `json:"state"`
	Generation  uint64 `json:"generation"`
	Message     string `json:"message,omitempty"`
	Subscribers int    `json:"subscribers"`
}

type RequestStats struct {
	TotalRequests     uint64 `json:"total_requests"`
	ActiveConnections int64  `json:"active_connections"`
}

type Stats struct {
	Session  SessionStats `json:"session"`
	Requests RequestStats `json:"requests"`
	Runtime  RuntimeStats `json:"runtime"`
}

type HealthResponse struct {
	Status        Status    `json:"status"`
	Timestamp     time.Time `json:"timestamp"`
	Version       string    `json:"version"`
	UptimeSeconds int64     `json:"uptime_seconds"`
	Stats         Stats     `json:"stats"`
}

type Handler struct {
	sessions  SessionReporter
	version   string
	startTime time.Time

	totalRequests     uint64
	activeConnections int64
}

func NewHandler(sessions SessionReporter, version string) *Handler {
	return &Handler{
		sessions:  sessions,
		version:   version,
		startTime: time.Now(),
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Liveness)
	e.GET("/health/ready", h.Readiness)
}

func (h *Handler) IncrementRequests() {
	atomic.AddUint64(&h.totalRequests, 1)
}

func (h *Handler) IncrementConnections() {
	atomic.AddInt64(&h.activeConnections, 1)
}

func (h *Handler) DecrementConnections() {
	atomic.AddInt64(&h.activeConnections, -1)
}

func (h *Handler) Liveness(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

func (h *Handler) Readiness(c echo.Context) error {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	sessionStats, status := h.sessionStats()

	resp := HealthResponse{
		Status:        status,
		Timestamp:     time.Now().UTC(),
		Version:       h.version,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		Stats: Stats{
			Session: sessionStats,
			Requests: RequestStats{
				TotalRequests:     atomic.LoadUint64(&h.totalRequests),
				ActiveConnections: atomic.LoadInt64(&h.activeConnections),
			},
			Runtime: RuntimeStats{
				Goroutines:         runtime.NumGoroutine(),
				MemoryAllocMB:      memStats.Alloc / 1024 / 1024,
				MemoryTotalAllocMB: memStats.TotalAlloc / 1024 / 1024,
				MemorySysMB:        memStats.Sys / 1024 / 1024,
				NumGC:              memStats.NumGC,
			},
		},
	}

	statusCode := http.StatusOK
	if status == StatusUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}
	return c.JSON(statusCode, resp)
}

// sessionStats treats a failed last attempt as degraded: the service is up
// but the upstream rejected or dropped the session.
func (h *Handler) sessionStats() (SessionStats, Status) {
	if h.sessions == nil {
		return SessionStats{}, StatusUnhealthy
	}

	st := h.sessions.State()
	stats := SessionStats{
		State:       st.Kind.String(),
		Generation:  st.Generation,
		Message:     st.Message,
		Subscribers: h.sessions.Subscribers(),
	}

	switch st.Kind {
	case session.KindError:
		return stats, StatusDegraded
	case session.KindInitial, session.KindLoading, session.KindTokenReceived,
		session.KindSendingOffer, session.KindConnected, session.KindDisconnected:
		return stats, StatusHealthy
	}
	return stats, StatusDegraded
}

// Middleware feeds the request counters reported by Readiness.
func (h *Handler) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h.IncrementRequests()
			h.IncrementConnections()
			defer h.DecrementConnections()
			return next(c)
		}
	}
}

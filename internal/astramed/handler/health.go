package handler

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"
	"github.com/kart-io/version"
)

// 健康状态取值。
const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"
)

// Checker is implemented by backends that can report connectivity.
type Checker interface {
	Ping(ctx context.Context) error
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc func(ctx context.Context) error

// Ping calls f(ctx).
func (f CheckerFunc) Ping(ctx context.Context) error { return f(ctx) }

// HealthResponse is the /healthz payload.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// HealthHandler 汇总依赖组件的健康状态。
type HealthHandler struct {
	checks  map[string]Checker
	timeout time.Duration
}

// NewHealthHandler creates a HealthHandler. A nil checker is reported as ok.
func NewHealthHandler(checks map[string]Checker, timeout time.Duration) *HealthHandler {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &HealthHandler{checks: checks, timeout: timeout}
}

// Healthz handles GET /healthz.
func (h *HealthHandler) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	resp := HealthResponse{Status: StatusOK, Checks: make(map[string]string, len(names))}
	for _, name := range names {
		chk := h.checks[name]
		if chk == nil {
			resp.Checks[name] = StatusOK
			continue
		}
		if err := chk.Ping(ctx); err != nil {
			logger.Warnw("health check failed", "component", name, "error", err.Error())
			resp.Checks[name] = "error: " + err.Error()
			resp.Status = StatusDegraded
			continue
		}
		resp.Checks[name] = StatusOK
	}

	code := http.StatusOK
	if resp.Status != StatusOK {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, resp)
}

// Version handles GET /version.
func Version(c *gin.Context) {
	c.JSON(http.StatusOK, version.Get())
}

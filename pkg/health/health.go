// Package health exposes the operational HTTP surface of a run: liveness,
// readiness, dependency health and prometheus metrics.
package health

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/CihanTAYLAN/db-migration-tool/pkg/database"
)

// Checker handles health check endpoints
type Checker struct {
	source    database.DB
	target    database.DB
	version   string
	startTime time.Time
	ready     atomic.Bool
}

// NewChecker creates a new health checker
func NewChecker(source, target database.DB, version string) *Checker {
	return &Checker{
		source:    source,
		target:    target,
		version:   version,
		startTime: time.Now(),
	}
}

// SetReady sets the readiness state
func (c *Checker) SetReady(ready bool) {
	c.ready.Store(ready)
}

// RegisterRoutes registers health check and metrics endpoints
func (c *Checker) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", c.Health)
	e.GET("/health/live", c.Live)
	e.GET("/health/ready", c.Ready)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// HealthStatus represents the health check response
type HealthStatus struct {
	Status     string                  `json:"status"`
	Version    string                  `json:"version"`
	Uptime     string                  `json:"uptime"`
	Checks     map[string]*CheckResult `json:"checks"`
	ReportedAt time.Time               `json:"reported_at"`
}

// CheckResult represents an individual check result
type CheckResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// Health returns the overall health status
func (c *Checker) Health(ctx echo.Context) error {
	status := &HealthStatus{
		Status:     "healthy",
		Version:    c.version,
		Uptime:     time.Since(c.startTime).Round(time.Second).String(),
		Checks:     make(map[string]*CheckResult),
		ReportedAt: time.Now(),
	}

	status.Checks["source_database"] = c.check(ctx.Request().Context(), c.source)
	status.Checks["target_database"] = c.check(ctx.Request().Context(), c.target)

	httpStatus := http.StatusOK
	for _, result := range status.Checks {
		if result.Status != "healthy" {
			status.Status = "unhealthy"
			httpStatus = http.StatusServiceUnavailable
		}
	}

	return ctx.JSON(httpStatus, status)
}

func (c *Checker) check(ctx context.Context, db database.DB) *CheckResult {
	if db == nil {
		return &CheckResult{Status: "unhealthy", Message: "database not configured"}
	}

	start := time.Now()
	if err := db.PingContext(ctx); err != nil {
		return &CheckResult{Status: "unhealthy", Message: err.Error()}
	}
	return &CheckResult{Status: "healthy", Latency: time.Since(start).String()}
}

// Live returns the liveness status (is the process running)
func (c *Checker) Live(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, map[string]string{"status": "alive"})
}

// Ready reports whether the migration context is prepared
func (c *Checker) Ready(ctx echo.Context) error {
	if c.ready.Load() {
		return ctx.JSON(http.StatusOK, map[string]string{"status": "ready"})
	}
	return ctx.JSON(http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
}

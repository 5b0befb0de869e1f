package health

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/redis"
)

const checkTimeout = 2 * time.Second

// Checker reports liveness, readiness and dependency health.
type Checker struct {
	version   string
	startTime time.Time
	ready     atomic.Bool
	checks    []check
}

type check struct {
	name string
	ping func(ctx context.Context) error
}

// NewChecker builds a checker over the service's backing stores. A nil
// store is reported as down rather than skipped.
func NewChecker(db database.DB, rdb *redis.Client, version string) *Checker {
	c := &Checker{
		version:   version,
		startTime: time.Now(),
	}

	c.checks = append(c.checks, check{
		name: "postgres",
		ping: func(ctx context.Context) error {
			if db == nil {
				return errNotConfigured
			}
			return db.PingContext(ctx)
		},
	})
	c.checks = append(c.checks, check{
		name: "redis",
		ping: func(ctx context.Context) error {
			if rdb == nil {
				return errNotConfigured
			}
			return rdb.Ping(ctx)
		},
	})

	return c
}

var errNotConfigured = &notConfiguredError{}

type notConfiguredError struct{}

func (*notConfiguredError) Error() string { return "not configured" }

// SetReady flips the readiness state reported by /health/ready.
func (c *Checker) SetReady(ready bool) {
	c.ready.Store(ready)
}

// RegisterRoutes registers health check endpoints
func (c *Checker) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/v1/health", c.Health)
	e.GET("/api/v1/health/live", c.Live)
	e.GET("/api/v1/health/ready", c.Ready)
}

// Status is the /health response body.
type Status struct {
	Status     string                 `json:"status"`
	Version    string                 `json:"version"`
	Uptime     string                 `json:"uptime"`
	Checks     map[string]CheckResult `json:"checks"`
	ReportedAt time.Time              `json:"reported_at"`
}

// CheckResult is one dependency's probe outcome.
type CheckResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// Health probes every dependency and returns 503 when any is down.
func (c *Checker) Health(ctx echo.Context) error {
	status := Status{
		Status:     "healthy",
		Version:    c.version,
		Uptime:     time.Since(c.startTime).Round(time.Second).String(),
		Checks:     make(map[string]CheckResult, len(c.checks)),
		ReportedAt: time.Now(),
	}

	reqCtx, cancel := context.WithTimeout(ctx.Request().Context(), checkTimeout)
	defer cancel()

	for _, chk := range c.checks {
		start := time.Now()
		err := chk.ping(reqCtx)
		if err != nil {
			status.Status = "unhealthy"
			status.Checks[chk.name] = CheckResult{
				Status:  "unhealthy",
				Message: err.Error(),
			}
			continue
		}
		status.Checks[chk.name] = CheckResult{
			Status:  "healthy",
			Latency: time.Since(start).String(),
		}
	}

	httpStatus := http.StatusOK
	if status.Status == "unhealthy" {
		httpStatus = http.StatusServiceUnavailable
	}

	return ctx.JSON(httpStatus, status)
}

// Live answers 200 whenever the process is up.
func (c *Checker) Live(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, map[string]string{"status": "alive"})
}

// Ready answers 200 once startup has finished and 503 during shutdown.
func (c *Checker) Ready(ctx echo.Context) error {
	if c.ready.Load() {
		return ctx.JSON(http.StatusOK, map[string]string{"status": "ready"})
	}
	return ctx.JSON(http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
}

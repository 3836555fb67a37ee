package handlers

import (
	"context"
	"net/http"
	"time"

	"reqgather/internal/caching"
	"reqgather/internal/common"
	"reqgather/internal/repositories"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

// HealthHandlers serves liveness, readiness and diagnostic probes.
type HealthHandlers struct {
	pool        *pgxpool.Pool
	cache       caching.CacheService
	userRepo    repositories.UserRepository
	projectRepo repositories.ProjectRepository
	sessionRepo repositories.SessionRepository
	startedAt   time.Time
}

func NewHealthHandlers(pool *pgxpool.Pool, cache caching.CacheService, userRepo repositories.UserRepository,
	projectRepo repositories.ProjectRepository, sessionRepo repositories.SessionRepository) *HealthHandlers {
	return &HealthHandlers{
		pool:        pool,
		cache:       cache,
		userRepo:    userRepo,
		projectRepo: projectRepo,
		sessionRepo: sessionRepo,
		startedAt:   time.Now(),
	}
}

// Health is the basic probe: process is up and serving.
func (h *HealthHandlers) Health(c echo.Context) error {
	return common.RespondData(c, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(h.startedAt).Round(time.Second).String(),
	})
}

// Live reports process liveness only, no dependency checks.
func (h *HealthHandlers) Live(c echo.Context) error {
	return common.RespondData(c, http.StatusOK, map[string]string{"status": "alive"})
}

// Ready reports whether the service can take traffic. Fails when the database
// or Redis is unreachable.
func (h *HealthHandlers) Ready(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.pool.Ping(ctx); err != nil {
		c.Logger().Errorf("readiness: database ping failed: %v", err)
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Database unavailable")
	}
	if err := h.cache.Ping(ctx); err != nil {
		c.Logger().Errorf("readiness: redis ping failed: %v", err)
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Cache unavailable")
	}
	return common.RespondData(c, http.StatusOK, map[string]string{"status": "ready"})
}

// Detailed reports dependency status plus coarse usage counters. The probe
// stays 200 with a degraded status when a dependency is down so operators can
// still read the rest of the report.
func (h *HealthHandlers) Detailed(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	status := "ok"
	checks := map[string]string{
		"database": "ok",
		"redis":    "ok",
	}

	if err := h.pool.Ping(ctx); err != nil {
		checks["database"] = err.Error()
		status = "degraded"
	}
	if err := h.cache.Ping(ctx); err != nil {
		checks["redis"] = err.Error()
		status = "degraded"
	}

	stats := map[string]interface{}{}
	if checks["database"] == "ok" {
		if n, err := h.userRepo.Count(ctx); err == nil {
			stats["users"] = n
		}
		if n, err := h.projectRepo.Count(ctx); err == nil {
			stats["projects"] = n
		}
		if n, err := h.sessionRepo.CountActive(ctx); err == nil {
			stats["active_sessions"] = n
		}
	}

	return common.RespondData(c, http.StatusOK, map[string]interface{}{
		"status": status,
		"uptime": time.Since(h.startedAt).Round(time.Second).String(),
		"checks": checks,
		"stats":  stats,
	})
}

// internal/handler/stats.go
package handler

import (
	"budget-tracker/internal/storage"
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type StatsHandler struct {
	store storage.StatsStorage
	now   func() time.Time
}

func NewStatsHandler(store storage.StatsStorage) *StatsHandler {
	return &StatsHandler{store: store, now: time.Now}
}

// Stats godoc
// @Summary Entity counts and total balance of the current user
// @Success 200 {object} domain.Stats
// @Router /api/stats [get]
func (h *StatsHandler) Stats(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	stats, err := h.store.Stats(c.Request.Context(), userID)
	if err != nil {
		writeStoreError(c, err, "stats")
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Monthly godoc
// @Summary Per type and per category totals for a month
// @Param month query string false "Month YYYY-MM, current month by default"
// @Success 200 {object} domain.MonthlySummary
// @Router /api/stats/monthly [get]
func (h *StatsHandler) Monthly(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var q MonthlyQuery
	if !bindQuery(c, &q) {
		return
	}
	if q.Month == "" {
		q.Month = h.now().Format("2006-01")
	}

	summary, err := h.store.MonthlySummary(c.Request.Context(), userID, q.Month)
	if err != nil {
		writeStoreError(c, err, "stats")
		return
	}
	c.JSON(http.StatusOK, summary)
}

// === Health ===

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	db      Pinger
	service string
	version string
}

func NewHealthHandler(db Pinger, service, version string) *HealthHandler {
	return &HealthHandler{db: db, service: service, version: version}
}

func (h *HealthHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": h.service,
		"version": h.version,
		"docs":    "/health",
	})
}

// Health reports 503 when the database does not answer within two seconds.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		slog.Warn("health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "database": "unreachable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "database": "connected"})
}

// === DTO ===

type MonthlyQuery struct {
	Month string `form:"month" validate:"omitempty,yearmonth"`
}

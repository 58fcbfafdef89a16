package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/codyseavey/clutch-picks/backend/internal/models"
)

const (
	maxHistoryDays   = 730
	maxActivityLimit = 100
)

type DashboardReader interface {
	GetUserMetrics(ctx context.Context, userID uint) (*models.MetricsSnapshot, error)
	GetPerformanceHistory(ctx context.Context, userID uint, days int) ([]models.PerformancePoint, error)
	GetRecentActivity(ctx context.Context, userID uint, limit int) ([]models.ActivityItem, error)
}

type DashboardHandler struct {
	dashboard DashboardReader
}

func NewDashboardHandler(dashboard DashboardReader) *DashboardHandler {
	return &DashboardHandler{
		dashboard: dashboard,
	}
}

// GetMetrics returns the headline metrics for a user
func (h *DashboardHandler) GetMetrics(c *gin.Context) {
	userID, ok := parseID(c, "id")
	if !ok {
		return
	}

	snapshot, err := h.dashboard.GetUserMetrics(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	if snapshot == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

// GetPerformance returns the cumulative profit chart
func (h *DashboardHandler) GetPerformance(c *gin.Context) {
	userID, ok := parseID(c, "id")
	if !ok {
		return
	}
	days, ok := queryInt(c, "days", maxHistoryDays)
	if !ok {
		return
	}

	history, err := h.dashboard.GetPerformanceHistory(c.Request.Context(), userID, days)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, history)
}

// GetActivity returns the recent activity feed
func (h *DashboardHandler) GetActivity(c *gin.Context) {
	userID, ok := parseID(c, "id")
	if !ok {
		return
	}
	limit, ok := queryInt(c, "limit", maxActivityLimit)
	if !ok {
		return
	}

	items, err := h.dashboard.GetRecentActivity(c.Request.Context(), userID, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, items)
}

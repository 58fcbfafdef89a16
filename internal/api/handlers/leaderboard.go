package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/codyseavey/clutch-picks/backend/internal/models"
)

const maxLeaderboardLimit = 100

type Leaderboard interface {
	Top(ctx context.Context, limit int) (*models.LeaderboardResponse, error)
	TakeSnapshot(ctx context.Context) (int, error)
}

type LeaderboardHandler struct {
	leaderboard Leaderboard
}

func NewLeaderboardHandler(leaderboard Leaderboard) *LeaderboardHandler {
	return &LeaderboardHandler{
		leaderboard: leaderboard,
	}
}

func (h *LeaderboardHandler) GetLeaderboard(c *gin.Context) {
	limit, ok := queryInt(c, "limit", maxLeaderboardLimit)
	if !ok {
		return
	}

	board, err := h.leaderboard.Top(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, board)
}

// TakeSnapshot records today's leaderboard immediately
func (h *LeaderboardHandler) TakeSnapshot(c *gin.Context) {
	count, err := h.leaderboard.TakeSnapshot(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "snapshot recorded", "users": count})
}

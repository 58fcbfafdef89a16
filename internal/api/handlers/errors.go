package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/codyseavey/clutch-picks/backend/internal/database"
	"github.com/codyseavey/clutch-picks/backend/internal/services"
)

// respondError maps service errors onto HTTP statuses. Internal details of
// data access failures are not sent to clients.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, database.ErrDataAccess):
		_ = c.Error(err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "data temporarily unavailable"})
	case errors.Is(err, services.ErrInference):
		_ = c.Error(err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "prediction service unavailable"})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return uint(id), true
}

// queryInt reads an optional positive integer query parameter. A missing
// parameter yields 0 so services can apply their defaults.
func queryInt(c *gin.Context, name string, max int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 || v > max {
		c.JSON(http.StatusBadRequest, gin.H{"error": name + " must be between 1 and " + strconv.Itoa(max)})
		return 0, false
	}
	return v, true
}

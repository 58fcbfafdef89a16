package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/codyseavey/clutch-picks/backend/internal/models"
)

// UserIDHeader carries the authenticated user's id, set by the gateway
const UserIDHeader = "X-User-ID"

const maxClutchLimit = 50

type Marketplace interface {
	FeaturedPicks(ctx context.Context) ([]models.FeaturedPick, error)
	ClutchPicks(ctx context.Context, limit int) ([]models.Pick, error)
	TrendingCategories(ctx context.Context) ([]models.Category, error)
	PurchasePick(ctx context.Context, userID, pickID uint) (models.PurchaseResult, error)
}

type MarketplaceHandler struct {
	marketplace Marketplace
}

func NewMarketplaceHandler(marketplace Marketplace) *MarketplaceHandler {
	return &MarketplaceHandler{
		marketplace: marketplace,
	}
}

func (h *MarketplaceHandler) GetFeatured(c *gin.Context) {
	featured, err := h.marketplace.FeaturedPicks(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, featured)
}

func (h *MarketplaceHandler) GetClutch(c *gin.Context) {
	limit, ok := queryInt(c, "limit", maxClutchLimit)
	if !ok {
		return
	}

	picks, err := h.marketplace.ClutchPicks(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, picks)
}

func (h *MarketplaceHandler) GetCategories(c *gin.Context) {
	categories, err := h.marketplace.TrendingCategories(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

// PurchasePick buys a pick for the calling user
func (h *MarketplaceHandler) PurchasePick(c *gin.Context) {
	userID, err := strconv.ParseUint(c.GetHeader(UserIDHeader), 10, 64)
	if err != nil || userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": UserIDHeader + " header is required"})
		return
	}

	pickID, ok := parseID(c, "id")
	if !ok {
		return
	}

	result, err := h.marketplace.PurchasePick(c.Request.Context(), uint(userID), pickID)
	if err != nil {
		respondError(c, err)
		return
	}

	switch result.Status {
	case models.PurchaseCompleted:
		c.JSON(http.StatusCreated, result)
	case models.PurchaseAlreadyOwned:
		c.JSON(http.StatusConflict, result)
	default:
		c.JSON(http.StatusNotFound, result)
	}
}

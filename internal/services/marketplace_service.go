package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/codyseavey/clutch-picks/backend/internal/cache"
	"github.com/codyseavey/clutch-picks/backend/internal/database"
	"github.com/codyseavey/clutch-picks/backend/internal/metrics"
	"github.com/codyseavey/clutch-picks/backend/internal/models"
)

const (
	featuredPickLimit      = 6
	trendingCategoryLimit  = 4
	clutchPickWindow       = 30 * 24 * time.Hour
	DefaultClutchPickLimit = 8
	maxClutchPickLimit     = 50
)

// MarketplaceService lists picks for sale and records purchases
type MarketplaceService struct {
	db    *gorm.DB
	cache cache.Store
	log   *zap.Logger
	now   func() time.Time
}

// NewMarketplaceService creates a new marketplace service. Listings are
// cached in listings; pass nil to always read through to the database.
func NewMarketplaceService(db *gorm.DB, listings cache.Store, log *zap.Logger) *MarketplaceService {
	return &MarketplaceService{
		db:    db,
		cache: listings,
		log:   log,
		now:   time.Now,
	}
}

// FeaturedPicks returns the newest active featured picks
func (s *MarketplaceService) FeaturedPicks(ctx context.Context) ([]models.FeaturedPick, error) {
	var featured []models.FeaturedPick
	err := s.cached(ctx, "featured", &featured, func() error {
		return s.db.WithContext(ctx).
			Preload("Pick").
			Where("active = ?", true).
			Order("created_at DESC").
			Limit(featuredPickLimit).
			Find(&featured).Error
	})
	if err != nil {
		return nil, database.WrapDataAccess("featured picks", err)
	}
	return featured, nil
}

// ClutchPicks returns the best selling active picks listed in the last 30
// days, ties broken by rating.
func (s *MarketplaceService) ClutchPicks(ctx context.Context, limit int) ([]models.Pick, error) {
	if limit <= 0 {
		limit = DefaultClutchPickLimit
	}
	if limit > maxClutchPickLimit {
		limit = maxClutchPickLimit
	}

	since := s.now().Add(-clutchPickWindow).UTC()
	var picks []models.Pick
	err := s.cached(ctx, fmt.Sprintf("clutch:%d", limit), &picks, func() error {
		return s.db.WithContext(ctx).
			Where("active = ? AND created_at >= ?", true, since).
			Order("sales DESC").
			Order("rating DESC").
			Order("id ASC").
			Limit(limit).
			Find(&picks).Error
	})
	if err != nil {
		return nil, database.WrapDataAccess("clutch picks", err)
	}
	return picks, nil
}

// TrendingCategories returns the active categories with the most picks
func (s *MarketplaceService) TrendingCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := s.cached(ctx, "categories", &categories, func() error {
		return s.db.WithContext(ctx).
			Where("active = ?", true).
			Order("pick_count DESC").
			Order("name ASC").
			Limit(trendingCategoryLimit).
			Find(&categories).Error
	})
	if err != nil {
		return nil, database.WrapDataAccess("trending categories", err)
	}
	return categories, nil
}

// PurchasePick gives userID ownership of pickID. Missing users or picks and
// repeat purchases are reported through the result status; only database
// failures are returned as errors, after the transaction has rolled back.
func (s *MarketplaceService) PurchasePick(ctx context.Context, userID, pickID uint) (models.PurchaseResult, error) {
	var result models.PurchaseResult

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				result = models.PurchaseResult{Status: models.PurchaseNotFound, Message: "User or pick not found"}
				return nil
			}
			return err
		}

		var pick models.Pick
		if err := tx.Where("id = ? AND active = ?", pickID, true).First(&pick).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				result = models.PurchaseResult{Status: models.PurchaseNotFound, Message: "User or pick not found"}
				return nil
			}
			return err
		}

		var owned int64
		if err := tx.Model(&models.PickPurchase{}).
			Where("user_id = ? AND pick_id = ?", userID, pickID).
			Count(&owned).Error; err != nil {
			return err
		}
		if owned > 0 {
			result = models.PurchaseResult{Status: models.PurchaseAlreadyOwned, Message: "Pick already purchased", Pick: &pick}
			return nil
		}

		covered, err := s.coveredBySubscription(tx, userID, pick.RequiredTier)
		if err != nil {
			return err
		}

		purchase := models.PickPurchase{
			ReceiptID:             uuid.NewString(),
			UserID:                userID,
			PickID:                pickID,
			CoveredBySubscription: covered,
			PricePaid:             pick.Price,
			CreatedAt:             s.now().UTC(),
		}
		if covered {
			purchase.PricePaid = decimal.Zero
		}

		if err := tx.Create(&purchase).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				result = models.PurchaseResult{Status: models.PurchaseAlreadyOwned, Message: "Pick already purchased", Pick: &pick}
				return nil
			}
			return err
		}

		if err := tx.Model(&pick).UpdateColumn("sales", gorm.Expr("sales + ?", 1)).Error; err != nil {
			return err
		}
		pick.Sales++

		result = models.PurchaseResult{
			Status:   models.PurchaseCompleted,
			Message:  "Pick purchased successfully",
			Pick:     &pick,
			Purchase: &purchase,
		}
		return nil
	})
	if err != nil {
		metrics.PurchasesTotal.WithLabelValues("error").Inc()
		s.log.Error("pick purchase failed",
			zap.Uint("user_id", userID),
			zap.Uint("pick_id", pickID),
			zap.Error(err))
		return models.PurchaseResult{}, database.WrapDataAccess("purchase pick", err)
	}

	metrics.PurchasesTotal.WithLabelValues(string(result.Status)).Inc()

	if result.Status == models.PurchaseCompleted {
		s.log.Info("pick purchased",
			zap.Uint("user_id", userID),
			zap.Uint("pick_id", pickID),
			zap.String("receipt_id", result.Purchase.ReceiptID),
			zap.Bool("covered_by_subscription", result.Purchase.CoveredBySubscription))
		s.invalidate(ctx)
	}

	return result, nil
}

// coveredBySubscription reports whether the user holds a current plan at or
// above requiredTier.
func (s *MarketplaceService) coveredBySubscription(tx *gorm.DB, userID uint, requiredTier int) (bool, error) {
	var sub models.Subscription
	err := tx.Where("user_id = ? AND active = ?", userID, true).
		Where("end_date IS NULL OR end_date > ?", s.now().UTC()).
		Order("tier DESC").
		First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return sub.Tier >= requiredTier, nil
}

// cached serves key from the listing cache, falling back to load on a miss.
// Cache faults are logged and treated as misses.
func (s *MarketplaceService) cached(ctx context.Context, key string, dst any, load func() error) error {
	if s.cache == nil {
		return load()
	}

	ok, err := cache.GetJSON(ctx, s.cache, key, dst)
	if err != nil {
		s.log.Warn("listing cache read failed", zap.String("key", key), zap.Error(err))
	}
	if ok {
		metrics.PickCacheHits.Inc()
		return nil
	}
	metrics.PickCacheMisses.Inc()

	if err := load(); err != nil {
		return err
	}

	if err := cache.SetJSON(ctx, s.cache, key, dst); err != nil {
		s.log.Warn("listing cache write failed", zap.String("key", key), zap.Error(err))
	}
	return nil
}

func (s *MarketplaceService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Purge(ctx); err != nil {
		s.log.Warn("listing cache purge failed", zap.Error(err))
	}
}

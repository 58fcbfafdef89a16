package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Category struct {
	ID        uint   `json:"id" gorm:"primaryKey;autoIncrement"`
	Name      string `json:"name" gorm:"uniqueIndex;not null"`
	PickCount int    `json:"pick_count" gorm:"not null;default:0"`
	Active    bool   `json:"active" gorm:"not null;default:true"`
}

// Pick is a purchasable prediction listed on the marketplace
type Pick struct {
	ID           uint            `json:"id" gorm:"primaryKey;autoIncrement"`
	SellerID     uint            `json:"seller_id" gorm:"not null;index"`
	CategoryID   *uint           `json:"category_id" gorm:"index"`
	Title        string          `json:"title" gorm:"not null"`
	Description  string          `json:"description"`
	Sport        string          `json:"sport"`
	Price        decimal.Decimal `json:"price" gorm:"type:numeric(10,2);not null"`
	RequiredTier int             `json:"required_tier" gorm:"not null;default:0"`
	Sales        int             `json:"sales" gorm:"not null;default:0"`
	Rating       float64         `json:"rating" gorm:"not null;default:0"`
	Active       bool            `json:"active" gorm:"not null;default:true;index"`
	CreatedAt    time.Time       `json:"created_at" gorm:"index"`
}

func (p *Pick) BeforeSave(*gorm.DB) error {
	p.CreatedAt = p.CreatedAt.UTC()
	return nil
}

type FeaturedPick struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	PickID    uint      `json:"pick_id" gorm:"not null;index"`
	Pick      Pick      `json:"pick" gorm:"foreignKey:PickID"`
	Headline  string    `json:"headline"`
	Active    bool      `json:"active" gorm:"not null;default:true;index"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

// PickPurchase records that a user owns a pick. A user owns a given pick at
// most once.
type PickPurchase struct {
	ID                    uint            `json:"id" gorm:"primaryKey;autoIncrement"`
	ReceiptID             string          `json:"receipt_id" gorm:"uniqueIndex;not null"`
	UserID                uint            `json:"user_id" gorm:"not null;uniqueIndex:idx_purchase_user_pick"`
	PickID                uint            `json:"pick_id" gorm:"not null;uniqueIndex:idx_purchase_user_pick"`
	CoveredBySubscription bool            `json:"covered_by_subscription"`
	PricePaid             decimal.Decimal `json:"price_paid" gorm:"type:numeric(10,2);not null"`
	CreatedAt             time.Time       `json:"created_at"`
}

type PurchaseStatus string

const (
	PurchaseCompleted    PurchaseStatus = "purchased"
	PurchaseNotFound     PurchaseStatus = "not_found"
	PurchaseAlreadyOwned PurchaseStatus = "already_owned"
)

// PurchaseResult is returned for every purchase attempt that did not fail
// with an error.
type PurchaseResult struct {
	Status   PurchaseStatus `json:"status"`
	Message  string         `json:"message"`
	Pick     *Pick          `json:"pick,omitempty"`
	Purchase *PickPurchase  `json:"purchase,omitempty"`
}

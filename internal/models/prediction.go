package models

import (
	"time"

	"gorm.io/datatypes"
)

type PredictionRequest struct {
	Odds        float64  `json:"odds" binding:"required" validate:"required,gt=1"`
	BetType     string   `json:"bet_type" binding:"required" validate:"required,max=50"`
	Sport       string   `json:"sport" binding:"required" validate:"required,max=50"`
	RedditPosts []string `json:"reddit_posts,omitempty" validate:"max=200,dive,max=10000"`
}

type PredictionResult struct {
	RequestID             string  `json:"request_id"`
	PredictedOutcome      string  `json:"predicted_outcome"`
	PredictedEV           float64 `json:"predicted_ev"`
	Confidence            float64 `json:"confidence"`
	HedgingRecommendation string  `json:"hedging_recommendation"`
}

// SentimentScores mirrors the compound/pos/neg triple returned by the
// sentiment analyzer.
type SentimentScores struct {
	Compound float64 `json:"compound"`
	Positive float64 `json:"pos"`
	Negative float64 `json:"neg"`
}

// PredictionLog keeps every prediction served together with the features the
// model saw.
type PredictionLog struct {
	ID               uint           `json:"id" gorm:"primaryKey;autoIncrement"`
	RequestID        string         `json:"request_id" gorm:"uniqueIndex;not null"`
	Sport            string         `json:"sport" gorm:"index"`
	BetType          string         `json:"bet_type"`
	Features         datatypes.JSON `json:"features"`
	PredictedOutcome string         `json:"predicted_outcome"`
	PredictedEV      float64        `json:"predicted_ev"`
	Confidence       float64        `json:"confidence"`
	CreatedAt        time.Time      `json:"created_at"`
}

// ModelPrediction is the raw output of the outcome model
type ModelPrediction struct {
	Outcome    string  `json:"outcome"`
	EV         float64 `json:"ev"`
	Confidence float64 `json:"confidence"`
}

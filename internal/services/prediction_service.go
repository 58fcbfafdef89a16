package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/codyseavey/clutch-picks/backend/internal/models"
)

// ErrInvalidRequest marks input that failed validation
var ErrInvalidRequest = errors.New("invalid request")

const (
	hedgeEVThreshold         = -0.1
	lowConfidenceThreshold   = 0.6
	hedgeRecommendation      = "Consider hedging this bet as it has negative expected value."
	lowConfidenceRecommended = "This bet has low confidence. Consider a smaller stake or hedge."
	noHedgeRecommendation    = "This bet has positive expected value. No hedging necessary."
)

// Model produces an outcome prediction from bet features
type Model interface {
	Predict(ctx context.Context, features map[string]any) (models.ModelPrediction, error)
}

// SentimentAnalyzer scores the tone of community posts about a bet
type SentimentAnalyzer interface {
	AnalyzeSentiment(ctx context.Context, posts []string) (models.SentimentScores, error)
}

// PredictionService scores bets with the outcome model and suggests hedges
type PredictionService struct {
	model     Model
	sentiment SentimentAnalyzer
	db        *gorm.DB
	validate  *validator.Validate
	log       *zap.Logger
}

// NewPredictionService creates a new prediction service. Predictions are
// recorded in db when it is non-nil.
func NewPredictionService(model Model, sentiment SentimentAnalyzer, db *gorm.DB, log *zap.Logger) *PredictionService {
	return &PredictionService{
		model:     model,
		sentiment: sentiment,
		db:        db,
		validate:  validator.New(),
		log:       log,
	}
}

// Predict validates the request, runs the model and attaches a hedging
// recommendation.
func (s *PredictionService) Predict(ctx context.Context, req models.PredictionRequest) (*models.PredictionResult, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	features, err := s.prepareFeatures(ctx, req)
	if err != nil {
		return nil, err
	}

	prediction, err := s.model.Predict(ctx, features)
	if err != nil {
		return nil, err
	}

	result := &models.PredictionResult{
		RequestID:             uuid.NewString(),
		PredictedOutcome:      prediction.Outcome,
		PredictedEV:           prediction.EV,
		Confidence:            prediction.Confidence,
		HedgingRecommendation: HedgingRecommendation(prediction.EV, prediction.Confidence),
	}

	s.record(ctx, req, features, result)
	return result, nil
}

func (s *PredictionService) prepareFeatures(ctx context.Context, req models.PredictionRequest) (map[string]any, error) {
	features := map[string]any{
		"odds":     req.Odds,
		"bet_type": req.BetType,
		"sport":    req.Sport,
	}

	if len(req.RedditPosts) > 0 && s.sentiment != nil {
		scores, err := s.sentiment.AnalyzeSentiment(ctx, req.RedditPosts)
		if err != nil {
			return nil, err
		}
		features["sentiment_score"] = scores.Compound
		features["positive_sentiment"] = scores.Positive
		features["negative_sentiment"] = scores.Negative
	}

	return features, nil
}

// record keeps the prediction for later calibration. A failed write is
// logged and does not fail the request.
func (s *PredictionService) record(ctx context.Context, req models.PredictionRequest, features map[string]any, result *models.PredictionResult) {
	if s.db == nil {
		return
	}

	encoded, err := json.Marshal(features)
	if err != nil {
		s.log.Warn("encoding prediction features", zap.Error(err))
		return
	}

	entry := models.PredictionLog{
		RequestID:        result.RequestID,
		Sport:            req.Sport,
		BetType:          req.BetType,
		Features:         datatypes.JSON(encoded),
		PredictedOutcome: result.PredictedOutcome,
		PredictedEV:      result.PredictedEV,
		Confidence:       result.Confidence,
	}
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		s.log.Warn("recording prediction",
			zap.String("request_id", result.RequestID),
			zap.Error(err))
	}
}

// HedgingRecommendation turns a prediction into advice. Negative expected
// value wins over low confidence.
func HedgingRecommendation(ev, confidence float64) string {
	switch {
	case ev < hedgeEVThreshold:
		return hedgeRecommendation
	case confidence < lowConfidenceThreshold:
		return lowConfidenceRecommended
	default:
		return noHedgeRecommendation
	}
}

package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/codyseavey/clutch-picks/backend/internal/config"
	"github.com/codyseavey/clutch-picks/backend/internal/models"
)

type stubModel struct {
	out      models.ModelPrediction
	err      error
	features map[string]any
}

func (m *stubModel) Predict(_ context.Context, features map[string]any) (models.ModelPrediction, error) {
	m.features = features
	return m.out, m.err
}

type stubSentiment struct {
	scores models.SentimentScores
	calls  int
}

func (s *stubSentiment) AnalyzeSentiment(_ context.Context, _ []string) (models.SentimentScores, error) {
	s.calls++
	return s.scores, nil
}

func TestHedgingRecommendation(t *testing.T) {
	tests := []struct {
		name       string
		ev         float64
		confidence float64
		want       string
	}{
		{"negative ev", -0.2, 0.9, hedgeRecommendation},
		{"negative ev beats low confidence", -0.5, 0.1, hedgeRecommendation},
		{"ev at threshold is not hedged", -0.1, 0.9, noHedgeRecommendation},
		{"low confidence", 0.05, 0.59, lowConfidenceRecommended},
		{"positive", 0.2, 0.6, noHedgeRecommendation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HedgingRecommendation(tt.ev, tt.confidence))
		})
	}
}

func TestPredictBuildsFeaturesAndLogs(t *testing.T) {
	db := openTestDB(t)
	model := &stubModel{out: models.ModelPrediction{Outcome: "win", EV: 0.12, Confidence: 0.72}}
	sentiment := &stubSentiment{scores: models.SentimentScores{Compound: 0.4, Positive: 0.5, Negative: 0.1}}
	svc := NewPredictionService(model, sentiment, db, zap.NewNop())

	result, err := svc.Predict(context.Background(), models.PredictionRequest{
		Odds:        2.1,
		BetType:     "moneyline",
		Sport:       "NBA",
		RedditPosts: []string{"Lakers looking sharp"},
	})
	require.NoError(t, err)
	assert.Equal(t, "win", result.PredictedOutcome)
	assert.Equal(t, noHedgeRecommendation, result.HedgingRecommendation)
	assert.NotEmpty(t, result.RequestID)

	assert.Equal(t, 2.1, model.features["odds"])
	assert.Equal(t, 0.4, model.features["sentiment_score"])
	assert.Equal(t, 0.5, model.features["positive_sentiment"])
	assert.Equal(t, 0.1, model.features["negative_sentiment"])

	var logged models.PredictionLog
	require.NoError(t, db.Where("request_id = ?", result.RequestID).First(&logged).Error)
	assert.Equal(t, "NBA", logged.Sport)

	var features map[string]any
	require.NoError(t, json.Unmarshal(logged.Features, &features))
	assert.Equal(t, "moneyline", features["bet_type"])
}

func TestPredictSkipsSentimentWithoutPosts(t *testing.T) {
	model := &stubModel{out: models.ModelPrediction{Outcome: "loss", EV: -0.3, Confidence: 0.8}}
	sentiment := &stubSentiment{}
	svc := NewPredictionService(model, sentiment, nil, zap.NewNop())

	result, err := svc.Predict(context.Background(), models.PredictionRequest{Odds: 1.8, BetType: "spread", Sport: "NFL"})
	require.NoError(t, err)
	assert.Equal(t, hedgeRecommendation, result.HedgingRecommendation)
	assert.Zero(t, sentiment.calls)
	assert.NotContains(t, model.features, "sentiment_score")
}

func TestPredictRejectsInvalidRequest(t *testing.T) {
	svc := NewPredictionService(&stubModel{}, nil, nil, zap.NewNop())

	_, err := svc.Predict(context.Background(), models.PredictionRequest{Odds: 0.5, BetType: "spread", Sport: "NFL"})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = svc.Predict(context.Background(), models.PredictionRequest{Odds: 2})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestPredictPropagatesModelFailure(t *testing.T) {
	failure := errors.New("model offline")
	svc := NewPredictionService(&stubModel{err: failure}, nil, nil, zap.NewNop())

	_, err := svc.Predict(context.Background(), models.PredictionRequest{Odds: 2, BetType: "spread", Sport: "NFL"})
	assert.ErrorIs(t, err, failure)
}

func newTestInferenceClient(t *testing.T, url string, retries int) *InferenceClient {
	t.Helper()
	client, err := NewInferenceClient(config.InferenceConfig{
		ModelURL:     url,
		SentimentURL: url,
		Timeout:      2 * time.Second,
		RetryMax:     retries,
		CacheSize:    8,
	}, zap.NewNop())
	require.NoError(t, err)
	client.http.RetryWaitMin = time.Millisecond
	client.http.RetryWaitMax = 5 * time.Millisecond
	return client
}

func TestInferenceClientPredict(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, predictPath, r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var body struct {
			Features map[string]any `json:"features"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "NBA", body.Features["sport"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"outcome":"win","ev":0.25,"confidence":0.81}`))
	}))
	defer server.Close()

	client := newTestInferenceClient(t, server.URL, 0)
	out, err := client.Predict(context.Background(), map[string]any{"sport": "NBA"})
	require.NoError(t, err)
	assert.Equal(t, models.ModelPrediction{Outcome: "win", EV: 0.25, Confidence: 0.81}, out)
}

func TestInferenceClientRetriesServerErrors(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"outcome":"loss","ev":-0.05,"confidence":0.4}`))
	}))
	defer server.Close()

	client := newTestInferenceClient(t, server.URL, 3)
	out, err := client.Predict(context.Background(), map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, "loss", out.Outcome)
	assert.Equal(t, int32(3), attempts.Load())
}

func TestInferenceClientFailureIsInferenceError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad features", http.StatusBadRequest)
	}))
	defer server.Close()

	client := newTestInferenceClient(t, server.URL, 0)
	_, err := client.Predict(context.Background(), map[string]any{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInference)
	assert.Contains(t, err.Error(), "400")
}

func TestInferenceClientCachesSentiment(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, sentimentPath, r.URL.Path)
		calls.Add(1)
		_, _ = w.Write([]byte(`{"compound":0.6,"pos":0.7,"neg":0.05}`))
	}))
	defer server.Close()

	client := newTestInferenceClient(t, server.URL, 0)
	ctx := context.Background()

	first, err := client.AnalyzeSentiment(ctx, []string{"great matchup", "sharp money on the over"})
	require.NoError(t, err)
	assert.Equal(t, models.SentimentScores{Compound: 0.6, Positive: 0.7, Negative: 0.05}, first)

	second, err := client.AnalyzeSentiment(ctx, []string{"great matchup", "sharp money on the over"})
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), calls.Load())

	_, err = client.AnalyzeSentiment(ctx, []string{"great matchupsharp money on the over"})
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load(), "joined text must not collide with the split posts")
}

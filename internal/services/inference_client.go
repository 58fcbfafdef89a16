package services

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/codyseavey/clutch-picks/backend/internal/config"
	"github.com/codyseavey/clutch-picks/backend/internal/metrics"
	"github.com/codyseavey/clutch-picks/backend/internal/models"
)

// ErrInference marks failures of the model or sentiment services
var ErrInference = errors.New("inference failure")

const (
	predictPath   = "/predict"
	sentimentPath = "/sentiment"
	maxBodyBytes  = 1 << 20
)

// InferenceClient talks to the outcome model and the sentiment analyzer over
// HTTP. Calls share one rate limit and are retried on transient failures.
type InferenceClient struct {
	http         *retryablehttp.Client
	limiter      *rate.Limiter
	modelURL     string
	sentimentURL string
	sentiment    *lru.Cache[string, models.SentimentScores] // hash of posts -> scores
	log          *zap.Logger
}

// NewInferenceClient creates a new inference client
func NewInferenceClient(cfg config.InferenceConfig, log *zap.Logger) (*InferenceClient, error) {
	size := cfg.CacheSize
	if size <= 0 {
		size = 256
	}
	sentimentCache, err := lru.New[string, models.SentimentScores](size)
	if err != nil {
		return nil, fmt.Errorf("creating sentiment cache: %w", err)
	}

	limit := rate.Inf
	if cfg.RatePerSec > 0 {
		limit = rate.Limit(cfg.RatePerSec)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	return &InferenceClient{
		http:         newRetryClient(cfg, log),
		limiter:      rate.NewLimiter(limit, burst),
		modelURL:     strings.TrimRight(cfg.ModelURL, "/"),
		sentimentURL: strings.TrimRight(cfg.SentimentURL, "/"),
		sentiment:    sentimentCache,
		log:          log,
	}, nil
}

func newRetryClient(cfg config.InferenceConfig, log *zap.Logger) *retryablehttp.Client {
	c := retryablehttp.NewClient()
	c.RetryMax = cfg.RetryMax
	c.RetryWaitMin = 200 * time.Millisecond
	c.RetryWaitMax = 3 * time.Second
	c.HTTPClient.Timeout = cfg.Timeout
	c.Logger = retryLogger{log.Sugar()}
	return c
}

// Predict asks the model for an outcome given the prepared features
func (c *InferenceClient) Predict(ctx context.Context, features map[string]any) (models.ModelPrediction, error) {
	var out models.ModelPrediction
	if err := c.post(ctx, "model", c.modelURL+predictPath, map[string]any{"features": features}, &out); err != nil {
		return models.ModelPrediction{}, err
	}
	return out, nil
}

// AnalyzeSentiment scores a batch of posts. Identical batches are answered
// from cache.
func (c *InferenceClient) AnalyzeSentiment(ctx context.Context, posts []string) (models.SentimentScores, error) {
	key := sentimentKey(posts)
	if scores, ok := c.sentiment.Get(key); ok {
		metrics.SentimentCacheHits.Inc()
		return scores, nil
	}

	var scores models.SentimentScores
	if err := c.post(ctx, "sentiment", c.sentimentURL+sentimentPath, map[string]any{"texts": posts}, &scores); err != nil {
		return models.SentimentScores{}, err
	}

	c.sentiment.Add(key, scores)
	return scores, nil
}

func (c *InferenceClient) post(ctx context.Context, target, url string, body, dst any) (err error) {
	start := time.Now()
	defer func() {
		result := "success"
		if err != nil {
			result = "failed"
		}
		metrics.InferenceRequestsTotal.WithLabelValues(target, result).Inc()
		metrics.InferenceLatency.WithLabelValues(target).Observe(time.Since(start).Seconds())
	}()

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %s rate limit: %w", ErrInference, target, err)
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%w: encoding %s request: %w", ErrInference, target, err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: building %s request: %w", ErrInference, target, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s request failed: %w", ErrInference, target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %s returned status %d: %s", ErrInference, target, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(dst); err != nil {
		return fmt.Errorf("%w: decoding %s response: %w", ErrInference, target, err)
	}

	return nil
}

func sentimentKey(posts []string) string {
	h := sha256.New()
	for _, p := range posts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// retryLogger adapts zap to retryablehttp's leveled logger
type retryLogger struct {
	s *zap.SugaredLogger
}

func (l retryLogger) Error(msg string, keysAndValues ...interface{}) { l.s.Errorw(msg, keysAndValues...) }
func (l retryLogger) Info(msg string, keysAndValues ...interface{})  { l.s.Debugw(msg, keysAndValues...) }
func (l retryLogger) Debug(msg string, keysAndValues ...interface{}) { l.s.Debugw(msg, keysAndValues...) }
func (l retryLogger) Warn(msg string, keysAndValues ...interface{})  { l.s.Warnw(msg, keysAndValues...) }

package paperapi

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"

	"github.com/abhisek/paperz/internal/paper"
)

// RetryConfig configures retry behavior for transient failures.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// DefaultRetryConfig returns the retry settings used when none are given.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		InitialWait: 300 * time.Millisecond,
		MaxWait:     3 * time.Second,
		Multiplier:  2.0,
	}
}

// RetryService is a decorator that retries the read-only operations on
// transient errors with exponential backoff and jitter. State-changing
// operations are passed through untouched: retrying a start or complete
// whose response was lost could apply it twice.
type RetryService struct {
	Service
	config RetryConfig
}

// WithRetry wraps a Service with retry logic for reads.
func WithRetry(s Service, cfg RetryConfig) Service {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	return &RetryService{Service: s, config: cfg}
}

func (r *RetryService) GetPaperDetail(ctx context.Context, paperID string) (*paper.Paper, error) {
	return retry(ctx, r.config, func() (*paper.Paper, error) {
		return r.Service.GetPaperDetail(ctx, paperID)
	})
}

func (r *RetryService) GetUserPapersByPaper(ctx context.Context, paperID string) ([]paper.Attempt, error) {
	return retry(ctx, r.config, func() ([]paper.Attempt, error) {
		return r.Service.GetUserPapersByPaper(ctx, paperID)
	})
}

func (r *RetryService) GetUserPaperAnswers(ctx context.Context, attemptID string) ([]paper.AnswerRecord, error) {
	return retry(ctx, r.config, func() ([]paper.AnswerRecord, error) {
		return r.Service.GetUserPaperAnswers(ctx, attemptID)
	})
}

func retry[T any](ctx context.Context, cfg RetryConfig, call func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := range cfg.MaxAttempts {
		out, err := call()
		if err == nil {
			return out, nil
		}
		lastErr = err

		if !shouldRetry(err) {
			return zero, err
		}

		// No sleep after the final attempt.
		if attempt == cfg.MaxAttempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(backoff(cfg, attempt)):
		}
	}

	return zero, lastErr
}

// shouldRetry reports whether err is transient. Only unavailability is;
// missing resources, rejections and bad payloads will not change on retry.
func shouldRetry(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var unavail *ErrUnavailable
	return errors.As(err, &unavail)
}

// backoff computes the wait duration for the given attempt.
func backoff(cfg RetryConfig, attempt int) time.Duration {
	wait := float64(cfg.InitialWait) * math.Pow(cfg.Multiplier, float64(attempt))
	if wait > float64(cfg.MaxWait) {
		wait = float64(cfg.MaxWait)
	}

	// Add ±20% jitter.
	jitter := wait * 0.2 * (2*rand.Float64() - 1)
	wait += jitter

	if wait < 0 {
		wait = 0
	}
	return time.Duration(wait)
}

package llm

import (
	"context"
	"errors"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/mj1618/desktop-pilot/internal/observability"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Middleware decorates a Model.
type Middleware func(Model) Model

// Chain wraps m with mws. The first middleware is the outermost.
func Chain(m Model, mws ...Middleware) Model {
	for i := len(mws) - 1; i >= 0; i-- {
		m = mws[i](m)
	}
	return m
}

// WithTimeout bounds every call to d. A non-positive d disables it.
func WithTimeout(d time.Duration) Middleware {
	return func(next Model) Model {
		if d <= 0 {
			return next
		}
		return ModelFunc(func(ctx context.Context, prompt string, image []byte) (string, error) {
			ctx, cancel := context.WithTimeout(ctx, d)
			defer cancel()
			return next.Generate(ctx, prompt, image)
		})
	}
}

// DefaultBackOff is the retry schedule used when WithRetry gets no factory.
func DefaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Second
	b.MaxInterval = 20 * time.Second
	b.MaxElapsedTime = 2 * time.Minute
	return b
}

// WithRetry retries failed calls up to maxAttempts in total. Missing
// credentials and context cancellation are never retried.
func WithRetry(maxAttempts int, factory func() backoff.BackOff, log *zap.Logger) Middleware {
	if factory == nil {
		factory = DefaultBackOff
	}
	if log == nil {
		log = zap.NewNop()
	}
	return func(next Model) Model {
		if maxAttempts <= 1 {
			return next
		}
		return ModelFunc(func(ctx context.Context, prompt string, image []byte) (string, error) {
			var out string
			attempt := 0
			op := func() error {
				attempt++
				text, err := next.Generate(ctx, prompt, image)
				if err == nil {
					out = text
					return nil
				}
				if errors.Is(err, ErrNoAPIKey) || ctx.Err() != nil {
					return backoff.Permanent(err)
				}
				log.Warn("model call failed", zap.Int("attempt", attempt), zap.Error(err))
				return err
			}
			b := backoff.WithContext(backoff.WithMaxRetries(factory(), uint64(maxAttempts-1)), ctx)
			if err := backoff.Retry(op, b); err != nil {
				return "", err
			}
			return out, nil
		})
	}
}

// WithRateLimit blocks each call until the limiter admits it. A
// non-positive rps disables limiting.
func WithRateLimit(rps float64) Middleware {
	return func(next Model) Model {
		if rps <= 0 {
			return next
		}
		limiter := rate.NewLimiter(rate.Limit(rps), 1)
		return ModelFunc(func(ctx context.Context, prompt string, image []byte) (string, error) {
			if err := limiter.Wait(ctx); err != nil {
				return "", err
			}
			return next.Generate(ctx, prompt, image)
		})
	}
}

// WithLogging logs every call at debug level and failures at warn.
func WithLogging(log *zap.Logger) Middleware {
	return func(next Model) Model {
		if log == nil {
			return next
		}
		return ModelFunc(func(ctx context.Context, prompt string, image []byte) (string, error) {
			start := time.Now()
			text, err := next.Generate(ctx, prompt, image)
			fields := []zap.Field{
				zap.Int("prompt_bytes", len(prompt)),
				zap.Int("image_bytes", len(image)),
				zap.Duration("elapsed", time.Since(start)),
			}
			if err != nil {
				log.Warn("model call error", append(fields, zap.Error(err))...)
				return text, err
			}
			log.Debug("model call", append(fields, zap.Int("reply_bytes", len(text)))...)
			return text, nil
		})
	}
}

// WithMetrics records call durations by outcome.
func WithMetrics(m *observability.Metrics) Middleware {
	return func(next Model) Model {
		if m == nil {
			return next
		}
		return ModelFunc(func(ctx context.Context, prompt string, image []byte) (string, error) {
			start := time.Now()
			text, err := next.Generate(ctx, prompt, image)
			status := "ok"
			if err != nil {
				status = "error"
			}
			m.ObserveModelCall(status, time.Since(start))
			return text, err
		})
	}
}

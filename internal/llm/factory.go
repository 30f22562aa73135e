package llm

import (
	"context"
	"fmt"

	"github.com/mj1618/desktop-pilot/internal/config"
	"github.com/mj1618/desktop-pilot/internal/observability"
	"go.uber.org/zap"
)

// New builds the configured provider wrapped with logging, metrics,
// retry, rate limiting and a per-call timeout, in that order from the
// outside in.
func New(ctx context.Context, cfg config.LLMConfig, log *zap.Logger, metrics *observability.Metrics) (Model, error) {
	var base Model
	switch cfg.Provider {
	case config.ProviderGemini:
		m, err := NewGemini(ctx, cfg)
		if err != nil {
			return nil, err
		}
		base = m
	case config.ProviderOpenAI:
		m, err := NewOpenAI(cfg, nil)
		if err != nil {
			return nil, err
		}
		base = m
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("provider", cfg.Provider), zap.String("model", cfg.Model))
	if !Known(cfg.Provider, cfg.Model) {
		log.Debug("model not in catalog")
	}
	return Chain(base,
		WithLogging(log),
		WithMetrics(metrics),
		WithRetry(cfg.MaxAttempts, nil, log),
		WithRateLimit(cfg.RequestsPerSecond),
		WithTimeout(cfg.Timeout),
	), nil
}

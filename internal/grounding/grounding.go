// Package grounding turns screenshots into structured descriptions of the
// UI elements they show, using a vision model.
package grounding

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"

	"github.com/disintegration/imaging"
	"github.com/mj1618/desktop-pilot/internal/llm"
	"github.com/mj1618/desktop-pilot/internal/model"
	"github.com/mj1618/desktop-pilot/internal/observability"
	"github.com/mj1618/desktop-pilot/internal/platform"
	"github.com/mj1618/desktop-pilot/internal/prompts"
	"go.uber.org/zap"
)

// Adapter captures the screen and grounds screenshots.
type Adapter struct {
	screen   platform.Screenshotter
	model    llm.Model
	log      *zap.Logger
	metrics  *observability.Metrics
	cache    *Cache
	maxWidth int
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithLogger sets the logger. Raw replies are logged at debug level.
func WithLogger(log *zap.Logger) Option {
	return func(a *Adapter) { a.log = log }
}

// WithMetrics counts model faults.
func WithMetrics(m *observability.Metrics) Option {
	return func(a *Adapter) { a.metrics = m }
}

// WithCache reuses results for identical screenshots.
func WithCache(c *Cache) Option {
	return func(a *Adapter) { a.cache = c }
}

// WithMaxImageWidth downscales screenshots wider than w pixels before
// sending them. Detected boxes are mapped back to screen coordinates.
func WithMaxImageWidth(w int) Option {
	return func(a *Adapter) { a.maxWidth = w }
}

// New creates an Adapter. screen may be nil when only Ground is used.
func New(screen platform.Screenshotter, m llm.Model, opts ...Option) *Adapter {
	a := &Adapter{screen: screen, model: m, log: zap.NewNop()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Capture takes a full-screen PNG screenshot.
func (a *Adapter) Capture(ctx context.Context) ([]byte, error) {
	return a.CaptureRegion(ctx, nil)
}

// CaptureRegion takes a PNG screenshot of region (nil for full screen).
func (a *Adapter) CaptureRegion(ctx context.Context, region *platform.Bounds) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if a.screen == nil {
		return nil, fmt.Errorf("screen capture: %w", platform.ErrUnsupported)
	}
	data, err := a.screen.CaptureScreen(platform.ScreenshotOptions{Region: region})
	if err != nil {
		return nil, fmt.Errorf("screen capture: %w", err)
	}
	return data, nil
}

// Ground asks the model to describe the UI elements in a PNG screenshot.
// It never fails: a model fault, an empty reply or an undecodable reply
// all yield an empty result.
func (a *Adapter) Ground(ctx context.Context, shot []byte) model.GroundingResult {
	if len(shot) == 0 {
		return model.GroundingResult{}
	}
	key := Key(shot)
	if cached, ok := a.cache.Get(key); ok {
		a.log.Debug("grounding cache hit", zap.Int("elements", len(cached.Elements)))
		return cached
	}

	img, sx, sy, err := a.downscale(shot)
	if err != nil {
		a.log.Warn("screenshot downscale failed, sending original", zap.Error(err))
		img, sx, sy = shot, 1, 1
	}

	reply, err := llm.SafeGenerate(ctx, a.model, prompts.Grounding(), img)
	if err != nil {
		a.log.Warn("grounding model call failed", zap.Error(err))
		a.metrics.IncModelFault("grounding")
		return model.GroundingResult{}
	}
	if reply == "" {
		a.log.Warn("grounding model returned no text")
		return model.GroundingResult{}
	}
	a.log.Debug("grounding reply", zap.String("raw", reply))

	result, err := ParseReply(reply)
	if err != nil {
		a.log.Warn("grounding reply could not be decoded", zap.Error(err), zap.String("raw", reply))
		return model.GroundingResult{}
	}
	if sx != 1 || sy != 1 {
		result = result.Scale(sx, sy)
	}
	a.cache.Put(key, result)
	return result
}

// downscale returns shot resized to the configured maximum width along
// with the factors mapping image pixels back to screen pixels.
func (a *Adapter) downscale(shot []byte) ([]byte, float64, float64, error) {
	if a.maxWidth <= 0 {
		return shot, 1, 1, nil
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(shot))
	if err != nil {
		return nil, 0, 0, fmt.Errorf("decode png header: %w", err)
	}
	if cfg.Width <= a.maxWidth {
		return shot, 1, 1, nil
	}

	src, _, err := image.Decode(bytes.NewReader(shot))
	if err != nil {
		return nil, 0, 0, fmt.Errorf("decode png: %w", err)
	}
	dst := imaging.Resize(src, a.maxWidth, 0, imaging.Lanczos)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, 0, 0, fmt.Errorf("encode png: %w", err)
	}
	b := dst.Bounds()
	return buf.Bytes(),
		float64(cfg.Width) / float64(b.Dx()),
		float64(cfg.Height) / float64(b.Dy()),
		nil
}

// Package executor performs parsed plans against the platform's input and
// screen primitives, checkpointing at every screenshot.
package executor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mj1618/desktop-pilot/internal/actions"
	"github.com/mj1618/desktop-pilot/internal/observability"
	"github.com/mj1618/desktop-pilot/internal/platform"
	"go.uber.org/zap"
)

// DefaultTypeDelay is the pause between typed characters.
const DefaultTypeDelay = 30 * time.Millisecond

// pasteSettle is how long a paste is given before the previous clipboard
// contents are restored.
const pasteSettle = 150 * time.Millisecond

// Stopper exposes a cooperative stop request.
type Stopper interface {
	StopRequested() bool
}

// Capturer takes screenshots.
type Capturer interface {
	Capture(ctx context.Context) ([]byte, error)
}

// Checkpointer judges the screen at a capture_screen action. It returns a
// failure reason and true to abandon the rest of the plan.
type Checkpointer interface {
	Checkpoint(ctx context.Context, screenshot []byte) (reason string, failed bool)
}

// CheckpointFunc adapts a function to Checkpointer.
type CheckpointFunc func(ctx context.Context, screenshot []byte) (string, bool)

func (f CheckpointFunc) Checkpoint(ctx context.Context, screenshot []byte) (string, bool) {
	return f(ctx, screenshot)
}

// Executor runs plans. It is not safe for concurrent use; the platform
// input devices it drives are a single shared resource.
type Executor struct {
	input      platform.Inputter
	capturer   Capturer
	checkpoint Checkpointer
	clipboard  platform.ClipboardManager
	pasteMod   platform.Key
	typeDelay  time.Duration
	log        *zap.Logger
	metrics    *observability.Metrics
	sleep      func(ctx context.Context, d time.Duration) error
}

// Option configures an Executor.
type Option func(*Executor)

// WithCheckpointer verifies the screen at every capture_screen. Without
// one, checkpoints always pass.
func WithCheckpointer(c Checkpointer) Option {
	return func(e *Executor) { e.checkpoint = c }
}

// WithTypeDelay sets the pause between typed characters.
func WithTypeDelay(d time.Duration) Option {
	return func(e *Executor) { e.typeDelay = d }
}

// WithPaste types text by placing it on the clipboard and pressing
// modifier+V. A nil clipboard keeps per-character typing.
func WithPaste(clipboard platform.ClipboardManager, modifier platform.Key) Option {
	return func(e *Executor) {
		e.clipboard = clipboard
		e.pasteMod = modifier
	}
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(e *Executor) { e.log = log }
}

// WithMetrics counts performed actions.
func WithMetrics(m *observability.Metrics) Option {
	return func(e *Executor) { e.metrics = m }
}

// WithSleep replaces the context-aware sleep used by wait and typing.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(e *Executor) { e.sleep = sleep }
}

// New creates an Executor.
func New(input platform.Inputter, capturer Capturer, opts ...Option) *Executor {
	e := &Executor{
		input:     input,
		capturer:  capturer,
		pasteMod:  platform.KeyCmd,
		typeDelay: DefaultTypeDelay,
		log:       zap.NewNop(),
		sleep:     Sleep,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs plan in order. The stop flag and ctx are checked before
// every action. A checkpoint failure abandons the remaining actions.
// Collaborator errors and panics become a failed outcome carrying a
// fresh screenshot; they are never returned.
func (e *Executor) Execute(ctx context.Context, plan actions.Plan, stop Stopper) Outcome {
	out := Outcome{FailedAt: -1}
	lastCheckpoint := -1

	for i, act := range plan {
		if stop.StopRequested() || ctx.Err() != nil {
			e.log.Info("execution interrupted", zap.Int("performed", out.Performed), zap.Int("remaining", len(plan)-i))
			out.Status = StatusInterrupted
			return out
		}

		e.log.Info("executing action", zap.Int("step", i+1), zap.String("action", act.String()))
		shot, err := e.perform(ctx, act)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
				out.Status = StatusInterrupted
				return out
			}
			out.Status = StatusFailed
			out.Reason = fmt.Sprintf("unexpected error while executing %s: %v", act, err)
			e.log.Error("action failed", zap.String("action", act.String()), zap.Error(err))
			if fresh, err := e.capture(ctx); err == nil {
				out.Screenshot = fresh
			} else {
				e.log.Warn("screenshot after failure also failed", zap.Error(err))
			}
			return out
		}
		out.Performed++
		e.metrics.IncAction(string(act.Kind()))

		if act.Kind() != actions.KindCaptureScreen {
			continue
		}
		out.Screenshot = shot
		out.Checkpoints++
		lastCheckpoint = i
		if e.checkpoint == nil {
			continue
		}
		if reason, failed := e.checkpoint.Checkpoint(ctx, shot); failed {
			e.log.Info("checkpoint failed", zap.Int("step", i+1), zap.String("reason", reason))
			out.Status = StatusFailed
			out.Reason = reason
			out.FailedAt = i
			return out
		}
	}

	if lastCheckpoint < 0 {
		out.Status = StatusNoFurtherActions
		return out
	}
	out.Status = StatusSuccess
	if trailing := len(plan) - 1 - lastCheckpoint; trailing > 0 {
		out.Unverified = true
		e.log.Warn("actions after the last checkpoint were not verified", zap.Int("count", trailing))
	}
	return out
}

// perform runs one action, converting a panic into an error. It returns
// the screenshot taken by a capture_screen action.
func (e *Executor) perform(ctx context.Context, act actions.Action) (shot []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	switch a := act.(type) {
	case actions.MouseMove:
		return nil, e.input.MoveMouse(a.X, a.Y)
	case actions.MouseClick:
		return nil, e.input.Click(a.Resolve())
	case actions.KeyPress:
		return nil, e.press(a.Key)
	case actions.TypeText:
		if e.clipboard != nil {
			return nil, e.paste(ctx, a.Text)
		}
		return nil, e.typeText(ctx, a.Text)
	case actions.Wait:
		return nil, e.sleep(ctx, time.Duration(a.Seconds*float64(time.Second)))
	case actions.CaptureScreen:
		return e.capturer.Capture(ctx)
	}
	return nil, fmt.Errorf("unsupported action %T", act)
}

func (e *Executor) capture(ctx context.Context) (shot []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return e.capturer.Capture(ctx)
}

func (e *Executor) press(key platform.Key) error {
	if err := e.input.KeyDown(key); err != nil {
		return err
	}
	return e.input.KeyUp(key)
}

func (e *Executor) typeText(ctx context.Context, text string) error {
	first := true
	for _, r := range text {
		if !first && e.typeDelay > 0 {
			if err := e.sleep(ctx, e.typeDelay); err != nil {
				return err
			}
		}
		first = false
		if err := e.input.TypeChar(r); err != nil {
			return err
		}
	}
	return nil
}

// paste puts text on the clipboard, presses modifier+V and then restores
// the previous clipboard text.
func (e *Executor) paste(ctx context.Context, text string) error {
	previous, getErr := e.clipboard.GetText()
	if err := e.clipboard.SetText(text); err != nil {
		return fmt.Errorf("set clipboard: %w", err)
	}
	if err := e.input.KeyDown(e.pasteMod); err != nil {
		return err
	}
	pressErr := e.press("v")
	if err := e.input.KeyUp(e.pasteMod); err != nil && pressErr == nil {
		pressErr = err
	}
	if pressErr != nil {
		return pressErr
	}
	if getErr != nil {
		return nil
	}
	if err := e.sleep(ctx, pasteSettle); err != nil {
		return err
	}
	if err := e.clipboard.SetText(previous); err != nil {
		e.log.Warn("restore clipboard", zap.Error(err))
	}
	return nil
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

package agent

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gate is a planning model that blocks until released or ctx ends.
type gate struct {
	entered chan struct{}
	release chan struct{}
	plan    string
}

func newGate(plan string) *gate {
	return &gate{entered: make(chan struct{}, 8), release: make(chan struct{}), plan: plan}
}

func (g *gate) Generate(ctx context.Context, _ string, _ []byte) (string, error) {
	g.entered <- struct{}{}
	select {
	case <-g.release:
		return g.plan, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func newGatedHarness(t *testing.T, g *gate, opts Options) *harness {
	t.Helper()
	h := newHarness(t, &planner{}, opts)
	h.runner.deps.Model = g
	return h
}

func waitEntered(t *testing.T, g *gate) {
	t.Helper()
	select {
	case <-g.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("model was never called")
	}
}

func TestTask_StopBeforeFirstActionHasNoSideEffects(t *testing.T) {
	g := newGate("press_key enter\ncapture_screen")
	h := newGatedHarness(t, g, Options{})

	task, err := h.runner.Start(context.Background(), "open notepad")
	require.NoError(t, err)
	waitEntered(t, g)
	assert.Equal(t, StatePlanning, task.Status())

	task.Stop()
	close(g.release)

	res, err := task.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateInterrupted, res.State)
	assert.Equal(t, "stopped by request", res.Reason)
	assert.Zero(t, res.Actions)
	assert.Empty(t, h.input.all())
	assert.Equal(t, StateInterrupted, task.Status())
}

func TestTask_RunInProgress(t *testing.T) {
	g := newGate("press_key enter")
	h := newGatedHarness(t, g, Options{})

	first, err := h.runner.Start(context.Background(), "first")
	require.NoError(t, err)
	waitEntered(t, g)
	assert.Same(t, first, h.runner.Active())

	_, err = h.runner.Start(context.Background(), "second")
	assert.ErrorIs(t, err, ErrRunInProgress)

	close(g.release)
	<-first.Done()
	assert.Nil(t, h.runner.Active())

	second, err := h.runner.Start(context.Background(), "second")
	require.NoError(t, err)
	res, err := second.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateSuccess, res.State)
	assert.NotEqual(t, first.ID(), second.ID())
}

func TestTask_CancelInterrupts(t *testing.T) {
	g := newGate("press_key enter")
	h := newGatedHarness(t, g, Options{})

	task, err := h.runner.Start(context.Background(), "open notepad")
	require.NoError(t, err)
	waitEntered(t, g)
	task.Cancel()

	res, err := task.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateInterrupted, res.State)
	assert.Equal(t, "run cancelled", res.Reason)
	assert.Empty(t, h.input.all())
}

func TestTask_RunTimeout(t *testing.T) {
	g := newGate("press_key enter")
	h := newGatedHarness(t, g, Options{RunTimeout: 20 * time.Millisecond})

	res, err := h.runner.Run(context.Background(), "open notepad")
	require.NoError(t, err)
	assert.Equal(t, StateInterrupted, res.State)
	assert.Equal(t, "run timed out", res.Reason)
}

func TestTask_WaitHonoursContext(t *testing.T) {
	g := newGate("press_key enter")
	h := newGatedHarness(t, g, Options{})

	task, err := h.runner.Start(context.Background(), "open notepad")
	require.NoError(t, err)
	waitEntered(t, g)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = task.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	_, done := task.Result()
	assert.False(t, done)
	assert.Equal(t, "open notepad", task.Instruction())

	close(g.release)
	<-task.Done()
	res, done := task.Result()
	assert.True(t, done)
	assert.Equal(t, StateSuccess, res.State)
	assert.Len(t, task.History(), 1)
}

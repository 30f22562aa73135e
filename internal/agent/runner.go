// Package agent runs the plan-act-verify loop that turns one
// natural-language instruction into executed input events.
package agent

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mj1618/desktop-pilot/internal/actions"
	"github.com/mj1618/desktop-pilot/internal/executor"
	"github.com/mj1618/desktop-pilot/internal/llm"
	"github.com/mj1618/desktop-pilot/internal/model"
	"github.com/mj1618/desktop-pilot/internal/observability"
	"github.com/mj1618/desktop-pilot/internal/platform"
	"github.com/mj1618/desktop-pilot/internal/prompts"
	"go.uber.org/zap"
)

var (
	// ErrRunInProgress is returned by Start while another run is active.
	ErrRunInProgress = errors.New("a run is already in progress")
	// ErrEmptyInstruction is returned for a blank instruction.
	ErrEmptyInstruction = errors.New("instruction is empty")
)

// Grounder captures and describes the screen.
type Grounder interface {
	Capture(ctx context.Context) ([]byte, error)
	Ground(ctx context.Context, png []byte) model.GroundingResult
}

// Verifier judges whether the instruction succeeded.
type Verifier interface {
	Verify(ctx context.Context, instruction string, grounding model.GroundingResult) (reason string, failed bool)
}

// PlanExecutor executes a parsed plan.
type PlanExecutor interface {
	Execute(ctx context.Context, plan actions.Plan, stop executor.Stopper) executor.Outcome
}

// ExecutorFactory builds the executor for one run around the run's
// checkpointer.
type ExecutorFactory func(cp executor.Checkpointer) PlanExecutor

// NewExecutorFactory returns a factory producing executors that drive
// input and capture screenshots with capturer.
func NewExecutorFactory(input platform.Inputter, capturer executor.Capturer, opts ...executor.Option) ExecutorFactory {
	return func(cp executor.Checkpointer) PlanExecutor {
		all := append(append([]executor.Option(nil), opts...), executor.WithCheckpointer(cp))
		return executor.New(input, capturer, all...)
	}
}

// Deps are the collaborators of a Runner.
type Deps struct {
	Model    llm.Model
	Grounder Grounder
	Verifier Verifier
	Executor ExecutorFactory
}

// DefaultMaxCycles bounds the cycles of one run when Options.MaxCycles
// is not set.
const DefaultMaxCycles = 10

// Options tune a Runner.
type Options struct {
	MaxRetries int
	// MaxCycles bounds planning cycles per run. Runs whose last plan left
	// actions unchecked replan until they reach it.
	MaxCycles int
	// RunTimeout bounds a whole run; 0 means no limit.
	RunTimeout time.Duration
	Logger     *zap.Logger
	Metrics    *observability.Metrics
	// NewID generates run IDs; defaults to random UUIDs.
	NewID func() string
}

// Runner owns the platform for the duration of a run and serializes runs.
type Runner struct {
	deps Deps
	opts Options
	log  *zap.Logger

	mu     sync.Mutex
	active *Task
}

// NewRunner creates a Runner.
func NewRunner(deps Deps, opts Options) *Runner {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if opts.MaxCycles <= 0 {
		opts.MaxCycles = DefaultMaxCycles
	}
	return &Runner{deps: deps, opts: opts, log: opts.Logger}
}

// Active returns the running task, or nil.
func (r *Runner) Active() *Task {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// Start begins a run on its own goroutine and returns its Task. The run
// lives until it finishes, ctx ends, or the task is stopped or
// cancelled. It returns ErrRunInProgress while another run is active.
func (r *Runner) Start(ctx context.Context, instruction string) (*Task, error) {
	instruction = strings.TrimSpace(instruction)
	if instruction == "" {
		return nil, ErrEmptyInstruction
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active != nil {
		return nil, fmt.Errorf("start %q: %w (run %s)", instruction, ErrRunInProgress, r.active.ID())
	}

	var runCtx context.Context
	var cancel context.CancelFunc
	if r.opts.RunTimeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, r.opts.RunTimeout)
	} else {
		runCtx, cancel = context.WithCancel(ctx)
	}

	rs := newRunState(r.opts.NewID(), instruction, r.opts.MaxRetries)
	t := &Task{rs: rs, cancel: cancel, done: make(chan struct{})}
	r.active = t

	go func() {
		defer cancel()
		res := r.run(runCtx, rs)

		r.mu.Lock()
		t.result = res
		if r.active == t {
			r.active = nil
		}
		r.mu.Unlock()
		close(t.done)
	}()
	return t, nil
}

// Run executes one instruction to completion.
func (r *Runner) Run(ctx context.Context, instruction string) (Result, error) {
	t, err := r.Start(ctx, instruction)
	if err != nil {
		return Result{}, err
	}
	<-t.Done()
	res, _ := t.Result()
	return res, nil
}

func (r *Runner) run(ctx context.Context, rs *RunState) Result {
	m := r.opts.Metrics
	m.RunStarted()
	defer m.RunFinished()

	log := r.log.With(zap.String("run_id", rs.ID))
	log.Info("run started", zap.String("instruction", rs.Instruction), zap.Int("max_retries", rs.Retry.MaxRetries))

	res := Result{ID: rs.ID, Instruction: rs.Instruction, StartedAt: time.Now()}
	exec := r.deps.Executor(r.checkpointer(rs, log))

	var (
		screenshot []byte
		hint       string
		followUp   bool
		unchecked  int
	)
	for {
		cycle := Cycle{Index: len(rs.History()) + 1, RetryHint: hint}
		checking := followUp
		followUp = false
		started := time.Now()
		clog := log.With(zap.Int("cycle", cycle.Index))

		if reason, stopped := r.stopped(ctx, rs); stopped {
			return r.finish(rs, res, StateInterrupted, reason, screenshot, log)
		}

		rs.setState(StatePlanning)
		if screenshot == nil {
			shot, err := r.deps.Grounder.Capture(ctx)
			if err != nil {
				if reason, stopped := r.stopped(ctx, rs); stopped {
					return r.finish(rs, res, StateInterrupted, reason, nil, log)
				}
				clog.Error("screen capture failed", zap.Error(err))
				return r.finish(rs, res, StateGivingUp, fmt.Sprintf("screen capture failed: %v", err), nil, log)
			}
			screenshot = shot
		}

		grounding := r.groundingFor(ctx, rs, screenshot)
		rs.seen = grounding
		cycle.Elements = len(grounding.Elements)

		data := prompts.PlanData{Instruction: rs.Instruction, Grounding: grounding, RetryHint: hint}
		if checking {
			data.Unchecked = unchecked
		}
		planText := r.plan(ctx, data, screenshot, clog)
		plan, diags := actions.Parse(planText, grounding)
		for _, d := range diags {
			clog.Warn("dropped plan line", zap.Int("line", d.Line), zap.String("text", d.Text), zap.String("reason", d.Message))
		}
		m.AddDiagnostics(len(diags))
		cycle.PlanText = planText
		cycle.Plan = plan
		cycle.Steps = plan.Steps()
		cycle.Diagnostics = diags

		if len(plan) == 0 {
			cycle.Duration = time.Since(started)
			rs.addCycle(cycle)
			if reason, stopped := r.stopped(ctx, rs); stopped {
				return r.finish(rs, res, StateInterrupted, reason, screenshot, log)
			}
			if checking {
				clog.Info("nothing left to do after the unchecked actions")
				return r.finish(rs, res, StateSuccess, "", screenshot, log)
			}
			reason := "the model returned no actions"
			if hint != "" {
				reason += " after: " + hint
			}
			return r.finish(rs, res, StateGivingUp, reason, screenshot, log)
		}

		rs.setState(StateExecuting)
		clog.Info("executing plan", zap.Int("actions", len(plan)), zap.Int("checkpoints", plan.Checkpoints()))
		out := exec.Execute(ctx, plan, rs.Retry)
		cycle.Outcome = &out
		cycle.Duration = time.Since(started)
		rs.addCycle(cycle)
		res.Actions += out.Performed
		if out.Screenshot != nil {
			screenshot = out.Screenshot
		}

		switch out.Status {
		case executor.StatusInterrupted:
			reason, _ := r.stopped(ctx, rs)
			return r.finish(rs, res, StateInterrupted, reason, screenshot, log)
		case executor.StatusSuccess, executor.StatusNoFurtherActions:
			res.Unverified = out.Unverified
			if !out.Unverified {
				return r.finish(rs, res, StateSuccess, "", screenshot, log)
			}
			if cycle.Index >= r.opts.MaxCycles {
				clog.Warn("cycle limit reached with unchecked actions", zap.Int("max_cycles", r.opts.MaxCycles))
				return r.finish(rs, res, StateSuccess, "", screenshot, log)
			}
			// Replan from the last checkpoint screenshot so the model can
			// judge what the unchecked actions did.
			unchecked = plan.Trailing()
			hint = fmt.Sprintf("%d actions ran after the last screenshot and were not checked", unchecked)
			followUp = true
			clog.Info("replanning to check trailing actions", zap.Int("actions", unchecked))
			continue
		}

		rs.Retry.RetryCount++
		rs.Retry.LastError = out.Reason
		if rs.Retry.RetryCount > rs.Retry.MaxRetries {
			clog.Info("retry budget exhausted", zap.Int("retries", rs.Retry.RetryCount-1), zap.String("reason", out.Reason))
			return r.finish(rs, res, StateGivingUp, out.Reason, screenshot, log)
		}

		rs.setState(StateRetrying)
		res.Retries++
		m.IncRetry()
		clog.Info("replanning", zap.Int("attempt", rs.Retry.RetryCount), zap.String("reason", out.Reason), zap.Int("failed_at", out.FailedAt))
		hint = out.Reason
		if out.Screenshot == nil {
			clog.Warn("no screenshot after the failure, capturing a new one")
			screenshot = nil
		}
	}
}

// checkpointer grounds each checkpoint screenshot and asks the verifier
// about it. The grounding is kept so replanning from the same
// screenshot does not ground it again.
func (r *Runner) checkpointer(rs *RunState, log *zap.Logger) executor.Checkpointer {
	return executor.CheckpointFunc(func(ctx context.Context, shot []byte) (string, bool) {
		g := r.deps.Grounder.Ground(ctx, shot)
		if g.Empty() {
			log.Warn("checkpoint grounding is empty")
		}
		if changes := model.DiffGrounding(rs.seen, g); len(changes) > 0 {
			log.Debug("screen changed", zap.Int("changes", len(changes)), zap.Any("first", changes[0]))
		} else {
			log.Debug("screen unchanged since last grounding")
		}
		rs.lastShot, rs.lastGrounding, rs.seen = shot, g, g
		reason, failed := r.deps.Verifier.Verify(ctx, rs.Instruction, g)
		if failed {
			log.Info("verification failed", zap.String("reason", reason))
		} else {
			log.Info("verification passed")
		}
		return reason, failed
	})
}

func (r *Runner) groundingFor(ctx context.Context, rs *RunState, shot []byte) model.GroundingResult {
	if rs.lastShot != nil && bytes.Equal(rs.lastShot, shot) {
		return rs.lastGrounding
	}
	return r.deps.Grounder.Ground(ctx, shot)
}

// plan asks the model for plan text. A model fault yields an empty plan.
func (r *Runner) plan(ctx context.Context, data prompts.PlanData, shot []byte, log *zap.Logger) string {
	prompt, err := prompts.Plan(data)
	if err != nil {
		log.Error("render planning prompt", zap.Error(err))
		return ""
	}
	text, err := llm.SafeGenerate(ctx, r.deps.Model, prompt, shot)
	if err != nil {
		log.Warn("planning model call failed", zap.Error(err))
		r.opts.Metrics.IncModelFault("planning")
		return ""
	}
	log.Info("model plan", zap.String("raw", text))
	return text
}

// stopped reports whether the run must end as interrupted, and why.
func (r *Runner) stopped(ctx context.Context, rs *RunState) (string, bool) {
	if rs.Retry.StopRequested() {
		return "stopped by request", true
	}
	switch err := ctx.Err(); {
	case errors.Is(err, context.DeadlineExceeded):
		return "run timed out", true
	case err != nil:
		return "run cancelled", true
	}
	return "", false
}

func (r *Runner) finish(rs *RunState, res Result, state State, reason string, shot []byte, log *zap.Logger) Result {
	rs.setState(state)
	res.State = state
	res.Reason = reason
	res.History = rs.History()
	res.Cycles = len(res.History)
	res.Screenshot = shot
	res.FinishedAt = time.Now()
	r.opts.Metrics.ObserveRun(string(state))

	fields := []zap.Field{
		zap.String("state", string(state)),
		zap.Int("cycles", res.Cycles),
		zap.Int("retries", res.Retries),
		zap.Int("actions", res.Actions),
		zap.Duration("elapsed", res.FinishedAt.Sub(res.StartedAt)),
	}
	if reason != "" {
		fields = append(fields, zap.String("reason", reason))
	}
	if res.Unverified {
		fields = append(fields, zap.Bool("unverified", true))
	}
	log.Info("run finished", fields...)
	return res
}

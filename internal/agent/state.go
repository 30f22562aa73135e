package agent

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/mj1618/desktop-pilot/internal/actions"
	"github.com/mj1618/desktop-pilot/internal/executor"
	"github.com/mj1618/desktop-pilot/internal/model"
)

// State is a step of the plan-act-verify loop.
type State string

const (
	StateIdle        State = "idle"
	StatePlanning    State = "planning"
	StateExecuting   State = "executing"
	StateRetrying    State = "retrying"
	StateSuccess     State = "success"
	StateGivingUp    State = "giving_up"
	StateInterrupted State = "interrupted"
)

// Terminal reports whether a run in state s has finished.
func (s State) Terminal() bool {
	switch s {
	case StateSuccess, StateGivingUp, StateInterrupted:
		return true
	}
	return false
}

// RetryContext is the mutable retry state of one run.
type RetryContext struct {
	// RetryCount counts failed executions so far.
	RetryCount int
	// MaxRetries bounds RetryCount; 0 ends the run at the first failure.
	MaxRetries int
	// LastError is the most recent failure reason.
	LastError string

	stop atomic.Bool
}

// RequestStop asks the run to stop before its next action.
func (rc *RetryContext) RequestStop() { rc.stop.Store(true) }

// StopRequested reports whether RequestStop was called.
func (rc *RetryContext) StopRequested() bool { return rc.stop.Load() }

// Cycle records one planning and execution round.
type Cycle struct {
	Index       int                  `json:"index" yaml:"index"`
	RetryHint   string               `json:"retry_hint,omitempty" yaml:"retry_hint,omitempty"`
	Elements    int                  `json:"elements" yaml:"elements"`
	PlanText    string               `json:"plan_text" yaml:"plan_text"`
	Plan        actions.Plan         `json:"-" yaml:"-"`
	Steps       []actions.Step       `json:"steps,omitempty" yaml:"steps,omitempty"`
	Diagnostics []actions.Diagnostic `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
	Outcome     *executor.Outcome    `json:"outcome,omitempty" yaml:"outcome,omitempty"`
	Duration    time.Duration        `json:"duration" yaml:"duration"`
}

// Result summarizes a finished run. A run that gives up is a normal
// result, not an error.
type Result struct {
	ID          string    `json:"id" yaml:"id"`
	Instruction string    `json:"instruction" yaml:"instruction"`
	State       State     `json:"state" yaml:"state"`
	Reason      string    `json:"reason,omitempty" yaml:"reason,omitempty"`
	Cycles      int       `json:"cycles" yaml:"cycles"`
	Retries     int       `json:"retries" yaml:"retries"`
	Actions     int       `json:"actions" yaml:"actions"`
	Unverified  bool      `json:"unverified,omitempty" yaml:"unverified,omitempty"`
	History     []Cycle   `json:"history" yaml:"history"`
	StartedAt   time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt  time.Time `json:"finished_at" yaml:"finished_at"`
	// Screenshot is the last screenshot of the run.
	Screenshot []byte `json:"-" yaml:"-"`
}

// Succeeded reports whether the run ended in StateSuccess.
func (r Result) Succeeded() bool { return r.State == StateSuccess }

// RunState is everything one run owns. It is created per run and passed
// explicitly through the loop.
type RunState struct {
	ID          string
	Instruction string
	Retry       *RetryContext

	mu      sync.Mutex
	state   State
	history []Cycle

	// The last checkpoint's screenshot and grounding, reused when the
	// next cycle plans from the same screenshot.
	lastShot      []byte
	lastGrounding model.GroundingResult

	// The most recent grounding of any kind, for logging screen changes.
	seen model.GroundingResult
}

func newRunState(id, instruction string, maxRetries int) *RunState {
	return &RunState{
		ID:          id,
		Instruction: instruction,
		Retry:       &RetryContext{MaxRetries: maxRetries},
		state:       StateIdle,
	}
}

// State returns the current state.
func (rs *RunState) State() State {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return rs.state
}

func (rs *RunState) setState(s State) {
	rs.mu.Lock()
	rs.state = s
	rs.mu.Unlock()
}

// History returns a copy of the cycles recorded so far.
func (rs *RunState) History() []Cycle {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return append([]Cycle(nil), rs.history...)
}

func (rs *RunState) addCycle(c Cycle) {
	rs.mu.Lock()
	rs.history = append(rs.history, c)
	rs.mu.Unlock()
}

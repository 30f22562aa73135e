package agent

import "context"

// Task is a handle on a run started by Runner.Start.
type Task struct {
	rs     *RunState
	cancel context.CancelFunc
	done   chan struct{}
	result Result
}

// ID returns the run ID.
func (t *Task) ID() string { return t.rs.ID }

// Instruction returns the instruction being run.
func (t *Task) Instruction() string { return t.rs.Instruction }

// Done is closed when the run has finished.
func (t *Task) Done() <-chan struct{} { return t.done }

// Wait blocks until the run finishes or ctx ends.
func (t *Task) Wait(ctx context.Context) (Result, error) {
	select {
	case <-t.done:
		return t.result, nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// Result returns the run's result once it has finished.
func (t *Task) Result() (Result, bool) {
	select {
	case <-t.done:
		return t.result, true
	default:
		return Result{}, false
	}
}

// Stop asks the run to stop before its next action. An action already
// under way, including a wait, completes first.
func (t *Task) Stop() { t.rs.Retry.RequestStop() }

// Cancel cancels the run's context, which also ends a wait in progress.
func (t *Task) Cancel() { t.cancel() }

// Status returns the run's current state.
func (t *Task) Status() State { return t.rs.State() }

// History returns the cycles completed so far.
func (t *Task) History() []Cycle { return t.rs.History() }

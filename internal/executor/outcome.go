package executor

// Status is the result class of executing a plan.
type Status int

const (
	// StatusSuccess means the last checkpoint reported no failure.
	StatusSuccess Status = iota
	// StatusFailed means a checkpoint reported a failure or a
	// collaborator faulted.
	StatusFailed
	// StatusInterrupted means a stop was requested or the context ended.
	StatusInterrupted
	// StatusNoFurtherActions means the plan ran without any checkpoint.
	StatusNoFurtherActions
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusFailed:
		return "failed"
	case StatusInterrupted:
		return "interrupted"
	case StatusNoFurtherActions:
		return "no_further_actions"
	}
	return "unknown"
}

// MarshalText renders the status by name.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Outcome reports how a plan execution ended.
type Outcome struct {
	Status Status `json:"status" yaml:"status"`
	// Reason explains a StatusFailed outcome.
	Reason string `json:"reason,omitempty" yaml:"reason,omitempty"`
	// Screenshot is the most recent capture, kept for replanning.
	Screenshot []byte `json:"-" yaml:"-"`
	// Performed counts the actions that completed.
	Performed int `json:"performed" yaml:"performed"`
	// Checkpoints counts the screenshots taken by capture_screen actions.
	Checkpoints int `json:"checkpoints" yaml:"checkpoints"`
	// FailedAt is the plan index of the failing checkpoint, or -1 when
	// the failure (if any) did not come from a checkpoint.
	FailedAt int `json:"failed_at" yaml:"failed_at"`
	// Unverified is set on success when actions ran after the last
	// checkpoint.
	Unverified bool `json:"unverified,omitempty" yaml:"unverified,omitempty"`
}

// Terminal reports whether the outcome ends a run without replanning.
func (o Outcome) Terminal() bool {
	return o.Status != StatusFailed
}

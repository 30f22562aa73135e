// Package actions defines the action language the planner speaks and
// parses it into executable plans.
//
// The language is line oriented: one action per line, a keyword followed
// by whitespace-separated arguments.
//
//	move_mouse 120 340
//	click_mouse Save
//	press_key enter
//	type_text hello world
//	wait 1.5
//	capture_screen
package actions

import (
	"strconv"
	"strings"

	"github.com/mj1618/desktop-pilot/internal/platform"
)

// Kind names an action. The value is the keyword used in plan text.
type Kind string

const (
	KindMouseMove     Kind = "move_mouse"
	KindMouseClick    Kind = "click_mouse"
	KindKeyPress      Kind = "press_key"
	KindTypeText      Kind = "type_text"
	KindWait          Kind = "wait"
	KindCaptureScreen Kind = "capture_screen"
)

// Action is one parsed step of a plan. Implementations are immutable
// value types; String renders the action back into plan text.
type Action interface {
	Kind() Kind
	String() string
}

// MouseMove moves the pointer to an absolute screen position.
type MouseMove struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

// MouseClick clicks at the current pointer position. Button holds the
// token given in the plan; see MouseClick.Resolve.
type MouseClick struct {
	Button string `json:"button" yaml:"button"`
}

// KeyPress presses and releases a single key.
type KeyPress struct {
	Key platform.Key `json:"key" yaml:"key"`
}

// TypeText types Text one character at a time.
type TypeText struct {
	Text string `json:"text" yaml:"text"`
}

// Wait pauses for Seconds (never negative).
type Wait struct {
	Seconds float64 `json:"seconds" yaml:"seconds"`
}

// CaptureScreen takes a screenshot and checkpoints the plan.
type CaptureScreen struct{}

func (MouseMove) Kind() Kind     { return KindMouseMove }
func (MouseClick) Kind() Kind    { return KindMouseClick }
func (KeyPress) Kind() Kind      { return KindKeyPress }
func (TypeText) Kind() Kind      { return KindTypeText }
func (Wait) Kind() Kind          { return KindWait }
func (CaptureScreen) Kind() Kind { return KindCaptureScreen }

func (a MouseMove) String() string {
	return string(KindMouseMove) + " " + strconv.Itoa(a.X) + " " + strconv.Itoa(a.Y)
}

func (a MouseClick) String() string { return string(KindMouseClick) + " " + a.Button }

func (a KeyPress) String() string { return string(KindKeyPress) + " " + string(a.Key) }

func (a TypeText) String() string { return string(KindTypeText) + " " + a.Text }

func (a Wait) String() string {
	return string(KindWait) + " " + strconv.FormatFloat(a.Seconds, 'g', -1, 64)
}

func (CaptureScreen) String() string { return string(KindCaptureScreen) }

// Resolve maps the button token to a physical button: "left" is the left
// button and anything else is the right button.
func (a MouseClick) Resolve() platform.MouseButton {
	if a.Button == "left" {
		return platform.MouseLeft
	}
	return platform.MouseRight
}

// Plan is an ordered sequence of actions.
type Plan []Action

// String renders the plan as action-language text, one action per line.
func (p Plan) String() string {
	lines := make([]string, len(p))
	for i, a := range p {
		lines[i] = a.String()
	}
	return strings.Join(lines, "\n")
}

// Checkpoints returns the number of CaptureScreen actions in the plan.
func (p Plan) Checkpoints() int {
	n := 0
	for _, a := range p {
		if a.Kind() == KindCaptureScreen {
			n++
		}
	}
	return n
}

// Trailing returns the number of actions after the last CaptureScreen,
// or 0 when the plan has none.
func (p Plan) Trailing() int {
	for i := len(p) - 1; i >= 0; i-- {
		if p[i].Kind() == KindCaptureScreen {
			return len(p) - 1 - i
		}
	}
	return 0
}

// Step is the serializable form of an action used by front-ends.
type Step struct {
	Kind   Kind   `json:"kind" yaml:"kind"`
	Line   string `json:"line" yaml:"line"`
	Action Action `json:"args,omitempty" yaml:"args,omitempty"`
}

// Steps returns the plan in its serializable form.
func (p Plan) Steps() []Step {
	steps := make([]Step, len(p))
	for i, a := range p {
		steps[i] = Step{Kind: a.Kind(), Line: a.String(), Action: a}
	}
	return steps
}

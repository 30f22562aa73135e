package output

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mj1618/desktop-pilot/internal/actions"
	"github.com/mj1618/desktop-pilot/internal/agent"
	"github.com/mj1618/desktop-pilot/internal/executor"
	"github.com/mj1618/desktop-pilot/internal/llm"
	"github.com/mj1618/desktop-pilot/internal/model"
)

// Format represents the output format.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// OutputFormat is the current output format, set by the root command's --format flag.
var OutputFormat Format = FormatYAML

// PrettyOutput enables pretty-printing for JSON output.
var PrettyOutput bool

// RunReport is the output of the `run` command.
type RunReport struct {
	agent.Result `yaml:",inline"`
	Elapsed      string `yaml:"elapsed" json:"elapsed"`
	Screenshot   string `yaml:"screenshot,omitempty" json:"screenshot,omitempty"` // Path the last screenshot was saved to
}

// NewRunReport builds a RunReport from a finished run.
func NewRunReport(res agent.Result) RunReport {
	return RunReport{
		Result:  res,
		Elapsed: res.FinishedAt.Sub(res.StartedAt).Round(time.Millisecond).String(),
	}
}

// PlanReport is the output of the `parse` and `do` commands.
type PlanReport struct {
	Actions     []actions.Step       `yaml:"actions"               json:"actions"`
	Diagnostics []actions.Diagnostic `yaml:"diagnostics,omitempty" json:"diagnostics,omitempty"`
	Outcome     *executor.Outcome    `yaml:"outcome,omitempty"     json:"outcome,omitempty"`
}

// NewPlanReport builds a PlanReport. Actions is never null.
func NewPlanReport(plan actions.Plan, diags []actions.Diagnostic) PlanReport {
	steps := plan.Steps()
	if steps == nil {
		steps = []actions.Step{}
	}
	return PlanReport{Actions: steps, Diagnostics: diags}
}

// GroundResult is the output of the `ground` command.
type GroundResult struct {
	TS         int64           `yaml:"ts"                   json:"ts"`
	Screenshot string          `yaml:"screenshot,omitempty" json:"screenshot,omitempty"` // Path of the annotated image, if any
	Elements   []model.Element `yaml:"elements"             json:"elements"`
}

// ModelList is the output of the `models` command.
type ModelList struct {
	Provider string     `yaml:"provider" json:"provider"`
	Current  string     `yaml:"current"  json:"current"`
	Models   []llm.Info `yaml:"models"   json:"models"`
}

// Print serializes v to stdout in the current output format.
func Print(v interface{}) error {
	return Fprint(os.Stdout, v)
}

// Fprint serializes v to w in the current output format.
func Fprint(w io.Writer, v interface{}) error {
	switch OutputFormat {
	case FormatJSON:
		return WriteJSON(w, v, PrettyOutput)
	case FormatYAML:
		return WriteYAML(w, v)
	default:
		return fmt.Errorf("unsupported output format: %s", OutputFormat)
	}
}

// ParseFormat validates a --format flag value.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatYAML, FormatJSON:
		return Format(s), nil
	}
	return "", fmt.Errorf("unsupported output format %q (expected yaml or json)", s)
}

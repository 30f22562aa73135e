package output

import (
	"bytes"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/mj1618/desktop-pilot/internal/actions"
	"github.com/mj1618/desktop-pilot/internal/agent"
	"github.com/mj1618/desktop-pilot/internal/executor"
	"github.com/mj1618/desktop-pilot/internal/model"
	"github.com/mj1618/desktop-pilot/internal/platform"
	"gopkg.in/yaml.v3"
)

func sampleResult() agent.Result {
	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	plan := actions.Plan{actions.KeyPress{Key: platform.KeyCmd}, actions.CaptureScreen{}}
	out := executor.Outcome{Status: executor.StatusSuccess, Performed: 2, Checkpoints: 1, FailedAt: -1}
	return agent.Result{
		ID:          "run-1",
		Instruction: "open notepad",
		State:       agent.StateSuccess,
		Cycles:      1,
		Actions:     2,
		History: []agent.Cycle{{
			Index:    1,
			PlanText: plan.String(),
			Plan:     plan,
			Steps:    plan.Steps(),
			Outcome:  &out,
		}},
		StartedAt:  start,
		FinishedAt: start.Add(1500 * time.Millisecond),
		Screenshot: []byte("png"),
	}
}

func TestPrintYAML(t *testing.T) {
	report := NewRunReport(sampleResult())

	// Capture stdout
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	err := PrintYAML(report)
	w.Close()
	os.Stdout = old

	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	buf.ReadFrom(r)
	output := buf.String()

	// YAML output should be multi-line
	if bytes.Count([]byte(output), []byte("\n")) <= 1 {
		t.Errorf("YAML output should be multi-line, got:\n%s", output)
	}

	var decoded map[string]interface{}
	if err := yaml.Unmarshal([]byte(output), &decoded); err != nil {
		t.Fatalf("output is not valid YAML: %v", err)
	}
	if decoded["state"] != "success" {
		t.Errorf("state: got %v, want success", decoded["state"])
	}
	if decoded["elapsed"] != "1.5s" {
		t.Errorf("elapsed: got %v, want 1.5s", decoded["elapsed"])
	}
	if decoded["id"] != "run-1" {
		t.Errorf("id: got %v, want run-1", decoded["id"])
	}
	if strings.Contains(output, "cG5n") {
		t.Error("screenshot bytes should not be serialized")
	}
	if !strings.Contains(output, "line: press_key cmd") {
		t.Errorf("plan steps missing from output:\n%s", output)
	}
	if !strings.Contains(output, "status: success") {
		t.Errorf("outcome status should be rendered by name:\n%s", output)
	}
}

func TestRunReport_OmitEmpty(t *testing.T) {
	data, err := yaml.Marshal(NewRunReport(agent.Result{State: agent.StateGivingUp}))
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]interface{}
	if err := yaml.Unmarshal(data, &m); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"reason", "unverified", "screenshot"} {
		if _, ok := m[key]; ok {
			t.Errorf("empty %s should be omitted", key)
		}
	}
	// State and counters should always be present
	for _, key := range []string{"state", "cycles", "retries", "actions"} {
		if _, ok := m[key]; !ok {
			t.Errorf("%s should always be present", key)
		}
	}
}

func TestNewPlanReport(t *testing.T) {
	report := NewPlanReport(nil, []actions.Diagnostic{{Line: 1, Text: "bogus", Message: "unknown action"}})
	if report.Actions == nil {
		t.Fatal("actions should be an empty list, not nil")
	}
	data, err := yaml.Marshal(report)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "actions: []") {
		t.Errorf("empty actions should serialize as a list, got:\n%s", data)
	}
	if !strings.Contains(string(data), "message: unknown action") {
		t.Errorf("diagnostics missing, got:\n%s", data)
	}
}

func TestFprint_Formats(t *testing.T) {
	defer func(f Format, p bool) { OutputFormat, PrettyOutput = f, p }(OutputFormat, PrettyOutput)

	result := GroundResult{TS: 1, Elements: []model.Element{{Text: "OK"}}}

	tests := []struct {
		name   string
		format Format
		want   []string
	}{
		{"yaml", FormatYAML, []string{"ts: 1\n", "- text: OK\n"}},
		{"json", FormatJSON, []string{`{"ts":1,"elements":[{"text":"OK"}]}` + "\n"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			OutputFormat, PrettyOutput = tt.format, false
			var buf bytes.Buffer
			if err := Fprint(&buf, result); err != nil {
				t.Fatal(err)
			}
			for _, want := range tt.want {
				if !strings.Contains(buf.String(), want) {
					t.Errorf("output %q does not contain %q", buf.String(), want)
				}
			}
		})
	}

	OutputFormat = "xml"
	if err := Fprint(&bytes.Buffer{}, result); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat("json"); err != nil || f != FormatJSON {
		t.Errorf("ParseFormat(json) = %q, %v", f, err)
	}
	if _, err := ParseFormat("toml"); err == nil {
		t.Error("expected error for toml")
	}
}

package server

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mj1618/desktop-pilot/internal/actions"
	"github.com/mj1618/desktop-pilot/internal/agent"
	"github.com/mj1618/desktop-pilot/internal/executor"
	"github.com/mj1618/desktop-pilot/internal/model"
	"github.com/mj1618/desktop-pilot/internal/output"
	"github.com/mj1618/desktop-pilot/internal/platform"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const (
	defaultStatusLines = 20
	defaultWait        = 60 * time.Second
	defaultRunWait     = 300 * time.Second
)

// runStatus is the body of run_status, stop_run and wait_run replies.
type runStatus struct {
	ID          string            `yaml:"id"`
	Instruction string            `yaml:"instruction"`
	State       agent.State       `yaml:"state"`
	Cycles      int               `yaml:"cycles"`
	Transcript  []string          `yaml:"transcript,omitempty"`
	Result      *output.RunReport `yaml:"result,omitempty"`
}

// toText serializes v to YAML for an MCP response.
func toText(v interface{}) *mcp.CallToolResult {
	b, err := yaml.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode result: %v", err))
	}
	return mcp.NewToolResultText(string(b))
}

func (s *Server) status(e taskEntry, lines int) runStatus {
	t := e.task
	st := runStatus{
		ID:          t.ID(),
		Instruction: t.Instruction(),
		State:       t.Status(),
		Cycles:      len(t.History()),
		Transcript:  s.transcriptFor(e, lines),
	}
	if res, done := t.Result(); done {
		report := output.NewRunReport(res)
		st.Result = &report
	}
	return st
}

// transcriptFor returns the last n transcript lines logged since the run
// started, leaving out lines that belong to other runs.
func (s *Server) transcriptFor(e taskEntry, n int) []string {
	if s.deps.Transcript == nil || n <= 0 {
		return nil
	}
	since, _ := s.deps.Transcript.Since(e.offset)
	var lines []string
	for _, line := range since {
		if strings.Contains(line, e.task.ID()) || !strings.Contains(line, "run_id") {
			lines = append(lines, line)
		}
	}
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines
}

func (s *Server) lookup(id string) (taskEntry, *mcp.CallToolResult) {
	e, ok := s.tasks.get(id)
	if !ok {
		if id == "" {
			return e, mcp.NewToolResultError("no runs yet")
		}
		return e, mcp.NewToolResultError(fmt.Sprintf("unknown run %q", id))
	}
	return e, nil
}

func (s *Server) transcriptLen() int {
	if s.deps.Transcript == nil {
		return 0
	}
	return s.deps.Transcript.Len()
}

func (s *Server) handleRunInstruction(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	instruction := stringParam(params, "instruction", "")
	wait := boolParam(params, "wait", false)
	timeout := secondsParam(params, "timeout", defaultRunWait)

	if !s.providerMu.TryLock() {
		return mcp.NewToolResultError("a plan is being executed; try again when it finishes"), nil
	}
	offset := s.transcriptLen()
	// The run belongs to the server, not to this request.
	t, err := s.deps.Runner.Start(s.ctx, instruction)
	s.providerMu.Unlock()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	e := taskEntry{task: t, offset: offset}
	s.tasks.add(t, offset)
	s.log.Info("run started", zap.String("run_id", t.ID()))

	if wait {
		return s.waitFor(ctx, e, timeout), nil
	}
	return toText(s.status(e, 0)), nil
}

func (s *Server) handleRunStatus(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	e, errResult := s.lookup(stringParam(params, "id", ""))
	if errResult != nil {
		return errResult, nil
	}
	return toText(s.status(e, intParam(params, "lines", defaultStatusLines))), nil
}

func (s *Server) handleStopRun(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	id := stringParam(params, "id", "")

	if id == "" {
		active := s.deps.Runner.Active()
		if active == nil {
			return mcp.NewToolResultError("no run is active"), nil
		}
		id = active.ID()
	}
	e, errResult := s.lookup(id)
	if errResult != nil {
		return errResult, nil
	}

	e.task.Stop()
	if boolParam(params, "cancel", false) {
		e.task.Cancel()
	}
	s.log.Info("stop requested", zap.String("run_id", id))
	return toText(s.status(e, 0)), nil
}

func (s *Server) handleWaitRun(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	e, errResult := s.lookup(stringParam(params, "id", ""))
	if errResult != nil {
		return errResult, nil
	}
	return s.waitFor(ctx, e, secondsParam(params, "timeout", defaultWait)), nil
}

// waitFor waits up to timeout for the run. Timing out is not an error; the
// reply shows the run still in progress.
func (s *Server) waitFor(ctx context.Context, e taskEntry, timeout time.Duration) *mcp.CallToolResult {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if _, err := e.task.Wait(waitCtx); err != nil && ctx.Err() != nil {
		return mcp.NewToolResultError(fmt.Sprintf("wait for run %s: %v", e.task.ID(), ctx.Err()))
	}
	return toText(s.status(e, defaultStatusLines))
}

// region parses the optional bbox argument.
func region(params map[string]interface{}) (*platform.Bounds, error) {
	bbox := stringParam(params, "bbox", "")
	if bbox == "" {
		return nil, nil
	}
	b, err := platform.ParseBBox(bbox)
	if err != nil {
		return nil, err
	}
	if b.Width <= 0 || b.Height <= 0 {
		return nil, fmt.Errorf("invalid bbox %q: width and height must be positive", bbox)
	}
	return b, nil
}

func (s *Server) handleScreenshot(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	r, err := region(request.GetArguments())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	shot, err := s.deps.Grounder.CaptureRegion(ctx, r)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultImage("screenshot", base64.StdEncoding.EncodeToString(shot), "image/png"), nil
}

func (s *Server) handleGround(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	r, err := region(params)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	shot, err := s.deps.Grounder.Capture(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	elements := s.deps.Grounder.Ground(ctx, shot).Elements
	elements = model.FilterByText(elements, stringParam(params, "text", ""))
	if r != nil {
		elements = model.FilterInRegion(elements, model.BoundingBox{X1: r.X, Y1: r.Y, X2: r.X + r.Width, Y2: r.Y + r.Height})
	}
	if elements == nil {
		elements = []model.Element{}
	}
	return toText(output.GroundResult{TS: time.Now().Unix(), Elements: elements}), nil
}

// parse parses the plan argument, grounding the screen first if asked.
func (s *Server) parse(ctx context.Context, params map[string]interface{}) (actions.Plan, []actions.Diagnostic, error) {
	text := stringParam(params, "plan", "")
	if strings.TrimSpace(text) == "" {
		return nil, nil, errors.New("plan is empty")
	}
	var g model.GroundingResult
	if boolParam(params, "ground", false) {
		shot, err := s.deps.Grounder.Capture(ctx)
		if err != nil {
			return nil, nil, err
		}
		g = s.deps.Grounder.Ground(ctx, shot)
	}
	plan, diags := actions.Parse(text, g)
	return plan, diags, nil
}

func (s *Server) handleParsePlan(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	plan, diags, err := s.parse(ctx, request.GetArguments())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return toText(output.NewPlanReport(plan, diags)), nil
}

func (s *Server) handleExecutePlan(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.deps.Executor == nil {
		return mcp.NewToolResultError("plan execution is not available"), nil
	}
	params := request.GetArguments()
	instruction := strings.TrimSpace(stringParam(params, "instruction", ""))

	s.providerMu.Lock()
	defer s.providerMu.Unlock()
	if t := s.deps.Runner.Active(); t != nil {
		return mcp.NewToolResultError(fmt.Sprintf("%v (run %s)", agent.ErrRunInProgress, t.ID())), nil
	}

	plan, diags, err := s.parse(ctx, params)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var cp executor.Checkpointer
	if instruction != "" && s.deps.Verifier != nil {
		cp = executor.CheckpointFunc(func(ctx context.Context, shot []byte) (string, bool) {
			return s.deps.Verifier.Verify(ctx, instruction, s.deps.Grounder.Ground(ctx, shot))
		})
	}

	out := s.deps.Executor(cp).Execute(ctx, plan, &agent.RetryContext{})
	s.log.Info("plan executed", zap.Int("actions", len(plan)), zap.Stringer("status", out.Status))

	report := output.NewPlanReport(plan, diags)
	report.Outcome = &out
	res := toText(report)
	res.IsError = out.Status == executor.StatusFailed
	return res, nil
}

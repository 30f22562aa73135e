package server

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mj1618/desktop-pilot/internal/agent"
	"github.com/mj1618/desktop-pilot/internal/executor"
	"github.com/mj1618/desktop-pilot/internal/llm"
	"github.com/mj1618/desktop-pilot/internal/model"
	"github.com/mj1618/desktop-pilot/internal/observability"
	"github.com/mj1618/desktop-pilot/internal/platform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type fakeGrounder struct{}

func (fakeGrounder) Capture(context.Context) ([]byte, error) { return []byte("full"), nil }

func (fakeGrounder) CaptureRegion(_ context.Context, r *platform.Bounds) ([]byte, error) {
	if r == nil {
		return []byte("full"), nil
	}
	return []byte(fmt.Sprintf("region %d,%d,%d,%d", r.X, r.Y, r.Width, r.Height)), nil
}

func (fakeGrounder) Ground(context.Context, []byte) model.GroundingResult {
	return model.GroundingResult{Elements: []model.Element{
		{Text: "Search", BoundingBox: &model.BoundingBox{X1: 10, Y1: 10, X2: 50, Y2: 30}},
		{Text: "Settings", BoundingBox: &model.BoundingBox{X1: 300, Y1: 10, X2: 360, Y2: 30}},
		{Text: "Status bar"},
	}}
}

type fixedVerdict struct{ reason string }

func (v fixedVerdict) Verify(context.Context, string, model.GroundingResult) (string, bool) {
	return v.reason, v.reason != ""
}

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(s string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, s)
	return nil
}

func (r *recorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func (r *recorder) MoveMouse(x, y int) error            { return r.add(fmt.Sprintf("move %d %d", x, y)) }
func (r *recorder) Click(b platform.MouseButton) error { return r.add("click " + b.String()) }
func (r *recorder) KeyDown(k platform.Key) error       { return r.add("down " + string(k)) }
func (r *recorder) KeyUp(k platform.Key) error         { return r.add("up " + string(k)) }
func (r *recorder) TypeChar(ch rune) error             { return r.add("type " + string(ch)) }

type fixture struct {
	srv        *Server
	input      *recorder
	transcript *observability.Transcript
}

func newFixture(t *testing.T, m llm.Model, verdict string) *fixture {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	tr := observability.NewTranscript(0)
	log := zap.New(tr.Core(zapcore.DebugLevel))
	input := &recorder{}
	noSleep := executor.WithSleep(func(ctx context.Context, _ time.Duration) error { return ctx.Err() })
	factory := agent.NewExecutorFactory(input, fakeGrounder{}, noSleep, executor.WithLogger(log))

	n := 0
	runner := agent.NewRunner(agent.Deps{
		Model:    m,
		Grounder: fakeGrounder{},
		Verifier: fixedVerdict{reason: verdict},
		Executor: factory,
	}, agent.Options{
		Logger: log,
		NewID:  func() string { n++; return fmt.Sprintf("run-%d", n) },
	})

	srv, err := New(ctx, Deps{
		Runner:     runner,
		Grounder:   fakeGrounder{},
		Executor:   factory,
		Verifier:   fixedVerdict{reason: verdict},
		Transcript: tr,
		Logger:     log,
	}, Config{})
	require.NoError(t, err)
	return &fixture{srv: srv, input: input, transcript: tr}
}

// planModel always answers with plan.
func planModel(plan string) llm.Model {
	return llm.ModelFunc(func(context.Context, string, []byte) (string, error) {
		return plan, nil
	})
}

// gateModel blocks planning until release is closed or ctx ends.
func gateModel(release <-chan struct{}, plan string) llm.Model {
	return llm.ModelFunc(func(ctx context.Context, _ string, _ []byte) (string, error) {
		select {
		case <-release:
			return plan, nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	})
}

type handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)

func call(t *testing.T, h handler, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	res, err := h(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, res)
	return res
}

func textOf(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "first content should be text, got %T", res.Content[0])
	return tc.Text
}

func TestNew_RequiresRunnerAndGrounder(t *testing.T) {
	_, err := New(context.Background(), Deps{}, Config{})
	assert.Error(t, err)
}

func TestRunInstruction_WaitReturnsResult(t *testing.T) {
	f := newFixture(t, planModel("press_key enter\ncapture_screen"), "")

	res := call(t, f.srv.handleRunInstruction, map[string]interface{}{"instruction": "submit the form", "wait": true})
	assert.False(t, res.IsError)
	body := textOf(t, res)
	assert.Contains(t, body, "id: run-1")
	assert.Contains(t, body, "state: success")
	assert.Contains(t, body, "instruction: submit the form")
	assert.Equal(t, []string{"down enter", "up enter"}, f.input.all())
	assert.Equal(t, 1, f.srv.tasks.len())
}

func TestRunInstruction_Empty(t *testing.T) {
	f := newFixture(t, planModel(""), "")

	res := call(t, f.srv.handleRunInstruction, map[string]interface{}{"instruction": "   "})
	assert.True(t, res.IsError)
	assert.Contains(t, textOf(t, res), "instruction is empty")
}

func TestRunInstruction_OneAtATime(t *testing.T) {
	release := make(chan struct{})
	f := newFixture(t, gateModel(release, "press_key enter"), "")

	first := call(t, f.srv.handleRunInstruction, map[string]interface{}{"instruction": "first"})
	require.False(t, first.IsError)
	assert.Contains(t, textOf(t, first), "id: run-1")

	second := call(t, f.srv.handleRunInstruction, map[string]interface{}{"instruction": "second"})
	assert.True(t, second.IsError)
	assert.Contains(t, textOf(t, second), "already in progress")

	// execute_plan must not drive the platform under an active run.
	exec := call(t, f.srv.handleExecutePlan, map[string]interface{}{"plan": "press_key tab"})
	assert.True(t, exec.IsError)
	assert.Contains(t, textOf(t, exec), "already in progress")

	close(release)
	done := call(t, f.srv.handleWaitRun, map[string]interface{}{"id": "run-1", "timeout": 5})
	assert.Contains(t, textOf(t, done), "state: success")
	assert.Equal(t, []string{"down enter", "up enter"}, f.input.all())
}

func TestStopRun_CancelInterruptsActiveRun(t *testing.T) {
	f := newFixture(t, gateModel(make(chan struct{}), "press_key enter"), "")

	res := call(t, f.srv.handleStopRun, map[string]interface{}{})
	assert.True(t, res.IsError, "nothing to stop yet")

	call(t, f.srv.handleRunInstruction, map[string]interface{}{"instruction": "hang"})
	stopped := call(t, f.srv.handleStopRun, map[string]interface{}{"cancel": true})
	assert.False(t, stopped.IsError)
	assert.Contains(t, textOf(t, stopped), "id: run-1")

	done := call(t, f.srv.handleWaitRun, map[string]interface{}{"timeout": 5})
	body := textOf(t, done)
	assert.Contains(t, body, "state: interrupted")
	assert.Contains(t, body, "reason: ")
	assert.Empty(t, f.input.all())
}

func TestWaitRun_TimeoutShowsRunInProgress(t *testing.T) {
	f := newFixture(t, gateModel(make(chan struct{}), "press_key enter"), "")
	call(t, f.srv.handleRunInstruction, map[string]interface{}{"instruction": "hang"})

	res := call(t, f.srv.handleWaitRun, map[string]interface{}{"id": "run-1", "timeout": 0.05})
	assert.False(t, res.IsError)
	body := textOf(t, res)
	assert.Contains(t, body, "state: planning")
	assert.NotContains(t, body, "\nresult:")
}

func TestRunStatus(t *testing.T) {
	f := newFixture(t, planModel("press_key enter\ncapture_screen"), "")

	res := call(t, f.srv.handleRunStatus, map[string]interface{}{})
	assert.True(t, res.IsError)
	assert.Contains(t, textOf(t, res), "no runs yet")

	call(t, f.srv.handleRunInstruction, map[string]interface{}{"instruction": "submit", "wait": true})

	res = call(t, f.srv.handleRunStatus, map[string]interface{}{"id": "run-1", "lines": 100})
	require.False(t, res.IsError)
	body := textOf(t, res)
	assert.Contains(t, body, "state: success")
	assert.Contains(t, body, "transcript:")
	assert.Contains(t, body, "run started")
	assert.Contains(t, body, "executing action")

	res = call(t, f.srv.handleRunStatus, map[string]interface{}{"id": "run-1", "lines": 0})
	assert.NotContains(t, textOf(t, res), "transcript:")

	res = call(t, f.srv.handleRunStatus, map[string]interface{}{"id": "nope"})
	assert.True(t, res.IsError)
	assert.Contains(t, textOf(t, res), `unknown run "nope"`)
}

func TestTranscriptFor_SkipsOtherRuns(t *testing.T) {
	f := newFixture(t, planModel(""), "")
	tr := f.transcript
	tr.Append(`12:00:00 INFO run started {"run_id": "run-0"}`)
	offset := tr.Len()
	tr.Append(`12:00:01 INFO run started {"run_id": "run-1"}`)
	tr.Append(`12:00:02 INFO executing action {"step": 1}`)
	tr.Append(`12:00:03 INFO run started {"run_id": "run-2"}`)

	var e taskEntry
	e.offset = offset
	e.task = startTask(t, f, "anything")
	lines := f.srv.transcriptFor(e, 10)
	for _, line := range lines {
		assert.NotContains(t, line, "run-0")
		assert.NotContains(t, line, "run-2")
	}
	assert.Contains(t, lines, `12:00:02 INFO executing action {"step": 1}`)
}

// startTask starts a run directly on the runner and waits for it.
func startTask(t *testing.T, f *fixture, instruction string) *agent.Task {
	t.Helper()
	task, err := f.srv.deps.Runner.Start(context.Background(), instruction)
	require.NoError(t, err)
	<-task.Done()
	return task
}

func TestScreenshot(t *testing.T) {
	f := newFixture(t, planModel(""), "")

	res := call(t, f.srv.handleScreenshot, map[string]interface{}{"bbox": "1,2,30,40"})
	require.False(t, res.IsError)
	require.Len(t, res.Content, 2)
	img, ok := res.Content[1].(mcp.ImageContent)
	require.True(t, ok, "second content should be an image, got %T", res.Content[1])
	assert.Equal(t, "image/png", img.MIMEType)
	data, err := base64.StdEncoding.DecodeString(img.Data)
	require.NoError(t, err)
	assert.Equal(t, "region 1,2,30,40", string(data))

	bad := call(t, f.srv.handleScreenshot, map[string]interface{}{"bbox": "1,2,0,40"})
	assert.True(t, bad.IsError)
}

func TestGround_Filters(t *testing.T) {
	f := newFixture(t, planModel(""), "")

	body := textOf(t, call(t, f.srv.handleGround, map[string]interface{}{}))
	assert.Contains(t, body, "text: Search")
	assert.Contains(t, body, "text: Status bar")

	body = textOf(t, call(t, f.srv.handleGround, map[string]interface{}{"text": "SET"}))
	assert.Contains(t, body, "text: Settings")
	assert.NotContains(t, body, "text: Search")

	body = textOf(t, call(t, f.srv.handleGround, map[string]interface{}{"bbox": "0,0,100,100"}))
	assert.Contains(t, body, "text: Search")
	assert.NotContains(t, body, "Settings")
	assert.NotContains(t, body, "Status bar")

	body = textOf(t, call(t, f.srv.handleGround, map[string]interface{}{"text": "nothing like this"}))
	assert.Contains(t, body, "elements: []")
}

func TestParsePlan(t *testing.T) {
	f := newFixture(t, planModel(""), "")

	res := call(t, f.srv.handleParsePlan, map[string]interface{}{"plan": "click_mouse Settings\nfly_away\nwait 2", "ground": true})
	require.False(t, res.IsError)
	body := textOf(t, res)
	// Settings resolves to its center on the grounded screen.
	assert.Contains(t, body, "move_mouse 330 20")
	assert.Contains(t, body, "message: unknown action")
	assert.Contains(t, body, "wait 2")
	assert.Empty(t, f.input.all(), "parsing has no side effects")

	empty := call(t, f.srv.handleParsePlan, map[string]interface{}{"plan": "  "})
	assert.True(t, empty.IsError)
}

func TestExecutePlan(t *testing.T) {
	f := newFixture(t, planModel(""), "")

	res := call(t, f.srv.handleExecutePlan, map[string]interface{}{"plan": "type_text hi\ncapture_screen"})
	require.False(t, res.IsError)
	body := textOf(t, res)
	assert.Contains(t, body, "status: success")
	assert.Contains(t, body, "performed: 2")
	assert.Equal(t, []string{"type h", "type i"}, f.input.all())
}

func TestExecutePlan_VerifiesCheckpoints(t *testing.T) {
	f := newFixture(t, planModel(""), "the dialog is still open")

	res := call(t, f.srv.handleExecutePlan, map[string]interface{}{
		"plan":        "press_key esc\ncapture_screen\npress_key enter",
		"instruction": "close the dialog",
	})
	assert.True(t, res.IsError)
	body := textOf(t, res)
	assert.Contains(t, body, "status: failed")
	assert.Contains(t, body, "reason: the dialog is still open")
	assert.Contains(t, body, "failed_at: 1")
	// The enter after the failed checkpoint never ran.
	assert.Equal(t, []string{"down esc", "up esc"}, f.input.all())

	// Without an instruction the checkpoint is not judged.
	res = call(t, f.srv.handleExecutePlan, map[string]interface{}{"plan": "press_key esc\ncapture_screen"})
	assert.False(t, res.IsError)
}

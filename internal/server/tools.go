package server

import "github.com/mark3labs/mcp-go/mcp"

func (s *Server) registerTools() {
	// run_instruction
	s.mcp.AddTool(
		mcp.NewTool("run_instruction",
			mcp.WithDescription("Carry out a natural-language instruction on the screen. Plans actions with the vision model, executes them and verifies the result. Returns the run ID; poll run_status or call wait_run for the outcome. Only one run is active at a time."),
			mcp.WithString("instruction", mcp.Description("What to do, e.g. 'open notepad and type hello'"), mcp.Required()),
			mcp.WithBoolean("wait", mcp.Description("Block until the run finishes (default: false)")),
			mcp.WithNumber("timeout", mcp.Description("Seconds to wait when wait is set (default: 300)")),
		),
		s.handleRunInstruction,
	)

	// run_status
	s.mcp.AddTool(
		mcp.NewTool("run_status",
			mcp.WithDescription("Report a run's state, the tail of its transcript, and its result once finished"),
			mcp.WithString("id", mcp.Description("Run ID (default: the most recent run)")),
			mcp.WithNumber("lines", mcp.Description("Transcript lines to include (default: 20, 0 = none)")),
		),
		s.handleRunStatus,
	)

	// stop_run
	s.mcp.AddTool(
		mcp.NewTool("stop_run",
			mcp.WithDescription("Stop a run before its next action. The current action, including a wait, completes first unless cancel is set."),
			mcp.WithString("id", mcp.Description("Run ID (default: the active run)")),
			mcp.WithBoolean("cancel", mcp.Description("Also cancel an action in progress")),
		),
		s.handleStopRun,
	)

	// wait_run
	s.mcp.AddTool(
		mcp.NewTool("wait_run",
			mcp.WithDescription("Wait for a run to finish and return its result"),
			mcp.WithString("id", mcp.Description("Run ID (default: the most recent run)")),
			mcp.WithNumber("timeout", mcp.Description("Seconds to wait (default: 60)")),
		),
		s.handleWaitRun,
	)

	// screenshot
	s.mcp.AddTool(
		mcp.NewTool("screenshot",
			mcp.WithDescription("Capture the screen as PNG. Image pixels match click coordinates."),
			mcp.WithString("bbox", mcp.Description("Capture only this region: x,y,w,h")),
		),
		s.handleScreenshot,
	)

	// ground
	s.mcp.AddTool(
		mcp.NewTool("ground",
			mcp.WithDescription("Capture the screen and list the UI elements the vision model detects, with their bounding boxes"),
			mcp.WithString("text", mcp.Description("Only elements whose text contains this (case-insensitive)")),
			mcp.WithString("bbox", mcp.Description("Only elements intersecting this region: x,y,w,h")),
		),
		s.handleGround,
	)

	// parse_plan
	s.mcp.AddTool(
		mcp.NewTool("parse_plan",
			mcp.WithDescription("Parse action-language text (one action per line, e.g. 'press_key cmd', 'type_text notepad', 'click_mouse left', 'capture_screen') without executing it. Returns the actions and the diagnostics for dropped lines."),
			mcp.WithString("plan", mcp.Description("Action-language text"), mcp.Required()),
			mcp.WithBoolean("ground", mcp.Description("Ground the current screen so click_mouse text targets resolve")),
		),
		s.handleParsePlan,
	)

	// execute_plan
	s.mcp.AddTool(
		mcp.NewTool("execute_plan",
			mcp.WithDescription("Execute action-language text directly, without planning. With an instruction, every capture_screen is verified against it."),
			mcp.WithString("plan", mcp.Description("Action-language text"), mcp.Required()),
			mcp.WithString("instruction", mcp.Description("Verify checkpoints against this instruction")),
			mcp.WithBoolean("ground", mcp.Description("Ground the current screen so click_mouse text targets resolve")),
		),
		s.handleExecutePlan,
	)
}

package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mj1618/desktop-pilot/internal/actions"
	"github.com/mj1618/desktop-pilot/internal/agent"
	"github.com/mj1618/desktop-pilot/internal/executor"
	"github.com/mj1618/desktop-pilot/internal/model"
	"github.com/mj1618/desktop-pilot/internal/output"
	"github.com/spf13/cobra"
)

var doCmd = &cobra.Command{
	Use:   "do",
	Short: "Execute action-language text without planning",
	Long: `Execute a plan written in the action language, read from stdin, one action
per line:

  move_mouse X Y       move the pointer
  click_mouse BUTTON   click "left" or "right", or click an element by its text
  press_key KEY        press a key, e.g. enter, tab, cmd, a
  type_text TEXT       type the rest of the line
  wait SECONDS         pause
  capture_screen       take a screenshot (a checkpoint)

Malformed lines are skipped and reported. With --instruction, every
capture_screen is verified against the instruction and a failed check
stops the plan. --ground describes the screen first so click_mouse can
target elements by text.

Example:
  desktop-pilot do --instruction "open notepad" <<'EOF'
  press_key cmd
  type_text notepad
  press_key enter
  wait 1
  capture_screen
  EOF`,
	RunE: runDo,
}

func init() {
	rootCmd.AddCommand(doCmd)
	doCmd.Flags().String("instruction", "", "Verify each capture_screen against this instruction")
	doCmd.Flags().Bool("ground", false, "Ground the screen first so click_mouse text targets resolve")
}

func runDo(cmd *cobra.Command, args []string) error {
	text, err := readInput(nil, cmd.InOrStdin())
	if err != nil {
		return err
	}
	instruction, _ := cmd.Flags().GetString("instruction")
	ground, _ := cmd.Flags().GetBool("ground")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := newRuntime(ctx, appConfig, runtimeOptions{model: instruction != "" || ground})
	if err != nil {
		return err
	}
	defer rt.Close()

	var g model.GroundingResult
	if ground {
		shot, err := rt.grounder.Capture(ctx)
		if err != nil {
			return err
		}
		g = rt.grounder.Ground(ctx, shot)
	}
	plan, diags := actions.Parse(text, g)

	var cp executor.Checkpointer
	if instruction != "" {
		cp = rt.checkpointer(instruction)
	}
	out := rt.executor(cp).Execute(ctx, plan, &agent.RetryContext{})

	report := output.NewPlanReport(plan, diags)
	report.Outcome = &out
	if err := output.Fprint(cmd.OutOrStdout(), report); err != nil {
		return err
	}
	if out.Status == executor.StatusFailed {
		cmd.SilenceUsage = true
		return fmt.Errorf("plan failed: %s", out.Reason)
	}
	return nil
}

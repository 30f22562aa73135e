package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mj1618/desktop-pilot/internal/agent"
	"github.com/mj1618/desktop-pilot/internal/output"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run [instruction]",
	Short: "Carry out one instruction",
	Long: `Carry out one natural-language instruction and print the run report.

The instruction is taken from the arguments, or from stdin when there are
none. The command exits non-zero when the agent gives up.

Examples:
  desktop-pilot run "open notepad and type hello"
  echo "open the settings app" | desktop-pilot run --max-retries 2`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().String("save-screenshot", "", "Save the last screenshot of the run to this PNG file")
}

func runRun(cmd *cobra.Command, args []string) error {
	instruction, err := readInput(args, cmd.InOrStdin())
	if err != nil {
		return err
	}
	if instruction == "" {
		return agent.ErrEmptyInstruction
	}
	shotPath, _ := cmd.Flags().GetString("save-screenshot")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := newRuntime(ctx, appConfig, runtimeOptions{model: true})
	if err != nil {
		return err
	}
	defer rt.Close()

	res, err := rt.runner().Run(ctx, instruction)
	if err != nil {
		return err
	}

	report := output.NewRunReport(res)
	if shotPath != "" && res.Screenshot != nil {
		if err := writeFile(shotPath, res.Screenshot); err != nil {
			return err
		}
		report.Screenshot = shotPath
	}
	if err := output.Fprint(cmd.OutOrStdout(), report); err != nil {
		return err
	}

	if res.State == agent.StateGivingUp {
		cmd.SilenceUsage = true
		return fmt.Errorf("gave up: %s", res.Reason)
	}
	return nil
}

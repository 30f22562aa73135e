package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mj1618/desktop-pilot/internal/agent"
	"github.com/mj1618/desktop-pilot/internal/observability"
	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"
)

var interactiveCmd = &cobra.Command{
	Use:     "interactive",
	Aliases: []string{"repl"},
	Short:   "Type instructions one per line and watch them run",
	Long: `Read instructions line by line and run each one, streaming the agent's
transcript as it works.

Press Ctrl-C while a run is active to stop it before its next action;
press Ctrl-C again to abandon it and quit. Ctrl-C at the prompt, "exit",
"quit" or end of input leaves.`,
	RunE: runInteractive,
}

func init() {
	rootCmd.AddCommand(interactiveCmd)
}

func runInteractive(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM)
	defer stop()

	// The transcript is printed instead of the console log.
	rt, err := newRuntime(ctx, appConfig, runtimeOptions{model: true, console: zapcore.AddSync(io.Discard)})
	if err != nil {
		return err
	}
	defer rt.Close()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)
	defer signal.Stop(sigs)

	s := &session{
		start:      rt.runner().Start,
		transcript: rt.transcript,
		out:        cmd.OutOrStdout(),
		poll:       200 * time.Millisecond,
	}
	return s.loop(ctx, cmd.InOrStdin(), sigs)
}

// session runs instructions read from a prompt, one at a time.
type session struct {
	start      func(ctx context.Context, instruction string) (*agent.Task, error)
	transcript *observability.Transcript
	out        io.Writer
	poll       time.Duration

	offset int
}

const prompt = "> "

func (s *session) loop(ctx context.Context, in io.Reader, sigs <-chan os.Signal) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- sc.Err()
	}()

	s.offset = s.transcript.Len()
	fmt.Fprint(s.out, prompt)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-sigs:
			fmt.Fprintln(s.out)
			return nil
		case line, ok := <-lines:
			if !ok {
				fmt.Fprintln(s.out)
				select {
				case err := <-readErr:
					return err
				default:
					return nil
				}
			}
			line = strings.TrimSpace(line)
			switch line {
			case "":
			case "exit", "quit":
				return nil
			default:
				if quit := s.runOne(ctx, line, sigs); quit {
					return nil
				}
			}
			fmt.Fprint(s.out, prompt)
		}
	}
}

// runOne runs instruction to completion and reports whether the user
// asked to quit.
func (s *session) runOne(ctx context.Context, instruction string, sigs <-chan os.Signal) bool {
	task, err := s.start(ctx, instruction)
	if err != nil {
		fmt.Fprintf(s.out, "error: %v\n", err)
		return false
	}
	fmt.Fprintln(s.out, "thinking...")

	ticker := time.NewTicker(s.poll)
	defer ticker.Stop()
	stopping := false
	for {
		select {
		case <-task.Done():
			s.flush()
			res, _ := task.Result()
			fmt.Fprintln(s.out, summarize(res))
			fmt.Fprintln(s.out, "ready")
			return false
		case <-ticker.C:
			s.flush()
		case <-sigs:
			if stopping {
				task.Cancel()
				<-task.Done()
				s.flush()
				fmt.Fprintln(s.out, "quitting")
				return true
			}
			stopping = true
			task.Stop()
			fmt.Fprintln(s.out, "stopping after the current action; press Ctrl-C again to quit")
		}
	}
}

// flush prints transcript lines not yet shown.
func (s *session) flush() {
	lines, next := s.transcript.Since(s.offset)
	s.offset = next
	for _, line := range lines {
		fmt.Fprintln(s.out, line)
	}
}

func summarize(res agent.Result) string {
	switch res.State {
	case agent.StateSuccess:
		msg := fmt.Sprintf("done: %d actions in %d cycles", res.Actions, res.Cycles)
		if res.Unverified {
			msg += " (the last actions were not verified)"
		}
		return msg
	case agent.StateInterrupted:
		return "interrupted: " + res.Reason
	default:
		return "gave up: " + res.Reason
	}
}

package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mj1618/desktop-pilot/internal/server"
	"github.com/mj1618/desktop-pilot/internal/version"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start an MCP server exposing desktop-pilot tools",
	Long: `Start a Model Context Protocol (MCP) server so other agents can hand
desktop-pilot instructions and follow the runs.

Tools: run_instruction, run_status, stop_run, wait_run, screenshot, ground,
parse_plan, execute_plan.

Supported transports:
  stdio             Standard I/O (default, for MCP clients)
  streamable-http   Streamable HTTP transport (for remote agents)

Examples:
  desktop-pilot serve
  desktop-pilot serve --transport streamable-http --port 8080 --metrics-addr :9090`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("transport", "stdio", "Transport: stdio, streamable-http")
	serveCmd.Flags().Int("port", 8080, "HTTP port for streamable-http transport")
	serveCmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9090")
	serveCmd.Flags().Int("recent-runs", server.DefaultRecentRuns, "Finished runs kept queryable")

	for key, flag := range map[string]string{
		"server.transport":    "transport",
		"server.port":         "port",
		"server.metrics_addr": "metrics-addr",
	} {
		if err := v.BindPFlag(key, serveCmd.Flags().Lookup(flag)); err != nil {
			panic(fmt.Sprintf("bind --%s: %v", flag, err))
		}
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	recent, _ := cmd.Flags().GetInt("recent-runs")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := newRuntime(ctx, appConfig, runtimeOptions{model: true})
	if err != nil {
		return err
	}
	defer rt.Close()

	srv, err := server.New(ctx, server.Deps{
		Runner:     rt.runner(),
		Grounder:   rt.grounder,
		Executor:   rt.executor,
		Verifier:   rt.verifier,
		Transcript: rt.transcript,
		Gatherer:   rt.registry,
		Logger:     rt.log,
	}, server.Config{
		Name:        "desktop-pilot",
		Version:     version.Version,
		Transport:   appConfig.Server.Transport,
		Port:        appConfig.Server.Port,
		MetricsAddr: appConfig.Server.MetricsAddr,
		RecentRuns:  recent,
	})
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}
	return srv.Serve(ctx)
}

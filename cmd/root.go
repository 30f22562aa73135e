package cmd

import (
	"fmt"
	"os"

	"github.com/mj1618/desktop-pilot/internal/config"
	"github.com/mj1618/desktop-pilot/internal/output"
	"github.com/mj1618/desktop-pilot/internal/version"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	// Backends register themselves with the platform package.
	_ "github.com/mj1618/desktop-pilot/internal/platform/browser"
	_ "github.com/mj1618/desktop-pilot/internal/platform/darwin"
)

var rootCmd = &cobra.Command{
	Use:   "desktop-pilot",
	Short: "Operate the desktop from natural-language instructions",
	Long: `desktop-pilot turns an instruction such as "open notepad and type hello" into
mouse and keyboard input. A vision model describes the screen, plans the
actions, and checks the result after each screenshot; failed attempts are
replanned with the failure as a hint.`,
}

// v holds the configuration; flags bound in init override file and
// environment values.
var v = viper.New()

// appConfig is loaded before every command runs.
var appConfig *config.Config

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version.Version, version.Commit, version.BuildDate)

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Config file (default: ./desktop-pilot.yaml or ~/.config/desktop-pilot/desktop-pilot.yaml)")
	flags.String("format", "yaml", "Output format: yaml, json")
	flags.Bool("pretty", false, "Pretty-print JSON output")
	flags.String("log-level", "", "Log level: debug, info, warn, error")
	flags.String("provider", "", "Model provider: gemini, openai")
	flags.String("model", "", "Model name (see `desktop-pilot models`)")
	flags.String("backend", "", "Input backend: desktop, browser")
	flags.Int("max-retries", 0, "Replanning attempts after a failed execution")

	bindFlag("logger.level", "log-level")
	bindFlag("llm.provider", "provider")
	bindFlag("llm.model", "model")
	bindFlag("backend.kind", "backend")
	bindFlag("agent.max_retries", "max-retries")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		format, _ := rootCmd.PersistentFlags().GetString("format")
		f, err := output.ParseFormat(format)
		if err != nil {
			return err
		}
		output.OutputFormat = f
		output.PrettyOutput, _ = rootCmd.PersistentFlags().GetBool("pretty")

		configFile, _ := rootCmd.PersistentFlags().GetString("config")
		cfg, err := config.Load(v, configFile)
		if err != nil {
			return err
		}
		appConfig = cfg
		return nil
	}
}

func bindFlag(key, flag string) {
	if err := v.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(fmt.Sprintf("bind --%s: %v", flag, err))
	}
}

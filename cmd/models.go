package cmd

import (
	"github.com/mj1618/desktop-pilot/internal/llm"
	"github.com/mj1618/desktop-pilot/internal/output"
	"github.com/spf13/cobra"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the selectable models",
	Long: `List the models known for the configured provider. Select one with --model
or llm.model in the config file; names outside the list are passed through
to the provider as-is.`,
	RunE: runModels,
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}

func runModels(cmd *cobra.Command, args []string) error {
	provider := appConfig.LLM.Provider
	list := output.ModelList{
		Provider: provider,
		Current:  appConfig.LLM.Model,
		Models:   llm.Catalog(provider),
	}
	if list.Models == nil {
		list.Models = []llm.Info{}
	}
	return output.Fprint(cmd.OutOrStdout(), list)
}

package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mj1618/desktop-pilot/internal/actions"
	"github.com/mj1618/desktop-pilot/internal/model"
	"github.com/mj1618/desktop-pilot/internal/output"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var parseCmd = &cobra.Command{
	Use:   "parse",
	Short: "Parse action-language text without executing it",
	Long: `Parse a plan from stdin and print the resulting actions and the diagnostics
for any dropped lines. Nothing is executed.

click_mouse text targets are resolved against the elements in --grounding,
a YAML or JSON file shaped like the output of ` + "`desktop-pilot ground`" + `.

Example:
  desktop-pilot parse --grounding screen.yaml <<'EOF'
  click_mouse Save
  wait -1
  EOF`,
	RunE: runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)
	parseCmd.Flags().String("grounding", "", "YAML or JSON file with the screen's elements")
}

func runParse(cmd *cobra.Command, args []string) error {
	text, err := readInput(nil, cmd.InOrStdin())
	if err != nil {
		return err
	}
	var g model.GroundingResult
	if path, _ := cmd.Flags().GetString("grounding"); path != "" {
		if g, err = loadGrounding(path); err != nil {
			return err
		}
	}
	plan, diags := actions.Parse(text, g)
	return output.Fprint(cmd.OutOrStdout(), output.NewPlanReport(plan, diags))
}

// loadGrounding reads a grounding result from a .json file, or from YAML
// for any other extension.
func loadGrounding(path string) (model.GroundingResult, error) {
	var g model.GroundingResult
	data, err := os.ReadFile(path)
	if err != nil {
		return g, fmt.Errorf("read grounding: %w", err)
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &g)
	} else {
		err = yaml.Unmarshal(data, &g)
	}
	if err != nil {
		return g, fmt.Errorf("decode grounding %s: %w", path, err)
	}
	for i, el := range g.Elements {
		if el.BoundingBox != nil && !el.BoundingBox.Valid() {
			return g, fmt.Errorf("decode grounding %s: element %d has an inverted bounding box", path, i)
		}
	}
	return g, nil
}

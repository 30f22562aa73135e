package cmd

import (
	"encoding/base64"
	"fmt"

	"github.com/mj1618/desktop-pilot/internal/platform"
	"github.com/spf13/cobra"
)

var screenshotCmd = &cobra.Command{
	Use:   "screenshot",
	Short: "Capture a screenshot",
	Long:  "Capture the screen, or a region of it, as PNG. Image pixels match click coordinates.",
	RunE:  runScreenshot,
}

func init() {
	rootCmd.AddCommand(screenshotCmd)
	screenshotCmd.Flags().String("output", "", "Output file path (default: stdout as base64)")
	screenshotCmd.Flags().String("bbox", "", "Capture only this region: x,y,w,h")
}

func runScreenshot(cmd *cobra.Command, args []string) error {
	outputPath, _ := cmd.Flags().GetString("output")
	bbox, _ := cmd.Flags().GetString("bbox")

	var region *platform.Bounds
	if bbox != "" {
		var err error
		if region, err = platform.ParseBBox(bbox); err != nil {
			return err
		}
	}

	rt, err := newRuntime(cmd.Context(), appConfig, runtimeOptions{})
	if err != nil {
		return err
	}
	defer rt.Close()

	data, err := rt.grounder.CaptureRegion(cmd.Context(), region)
	if err != nil {
		return err
	}

	if outputPath != "" {
		return writeFile(outputPath, data)
	}

	// Default: write to stdout as base64 for easy agent consumption
	w := cmd.OutOrStdout()
	encoder := base64.NewEncoder(base64.StdEncoding, w)
	if _, err := encoder.Write(data); err != nil {
		return err
	}
	if err := encoder.Close(); err != nil {
		return err
	}
	fmt.Fprintln(w) // newline after base64
	return nil
}

package cmd

import (
	"image"
	"time"

	"github.com/mj1618/desktop-pilot/internal/model"
	"github.com/mj1618/desktop-pilot/internal/output"
	"github.com/mj1618/desktop-pilot/internal/platform"
	"github.com/spf13/cobra"
)

var groundCmd = &cobra.Command{
	Use:   "ground",
	Short: "Describe the UI elements on screen",
	Long: `Capture the screen, ask the vision model which UI elements it shows, and
print them with their bounding boxes in screen points.

Examples:
  desktop-pilot ground
  desktop-pilot ground --text save
  desktop-pilot ground --bbox 0,0,800,600 --annotate elements.png`,
	RunE: runGround,
}

func init() {
	rootCmd.AddCommand(groundCmd)
	groundCmd.Flags().String("text", "", "Only elements whose text contains this (case-insensitive)")
	groundCmd.Flags().String("bbox", "", "Capture and ground only this region: x,y,w,h")
	groundCmd.Flags().Bool("boxed", false, "Only elements with a bounding box")
	groundCmd.Flags().String("annotate", "", "Also save the screenshot with the elements drawn on it to this PNG file")
	groundCmd.Flags().String("labels", "text", "Annotation labels: text, coords")
}

func runGround(cmd *cobra.Command, args []string) error {
	text, _ := cmd.Flags().GetString("text")
	bbox, _ := cmd.Flags().GetString("bbox")
	boxed, _ := cmd.Flags().GetBool("boxed")
	annotate, _ := cmd.Flags().GetString("annotate")
	labels, _ := cmd.Flags().GetString("labels")

	mode, err := ParseLabelMode(labels)
	if err != nil {
		return err
	}
	var region *platform.Bounds
	if bbox != "" {
		if region, err = platform.ParseBBox(bbox); err != nil {
			return err
		}
	}

	ctx := cmd.Context()
	rt, err := newRuntime(ctx, appConfig, runtimeOptions{model: true})
	if err != nil {
		return err
	}
	defer rt.Close()

	shot, err := rt.grounder.CaptureRegion(ctx, region)
	if err != nil {
		return err
	}
	g := rt.grounder.Ground(ctx, shot)
	origin := image.Point{}
	if region != nil {
		g = g.Translate(region.X, region.Y)
		origin = image.Pt(region.X, region.Y)
	}

	elements := model.FilterByText(g.Elements, text)
	if boxed {
		elements = model.FilterWithBounds(elements)
	}
	if elements == nil {
		elements = []model.Element{}
	}

	result := output.GroundResult{TS: time.Now().Unix(), Elements: elements}
	if annotate != "" {
		data, err := AnnotatePNG(shot, elements, origin, mode)
		if err != nil {
			return err
		}
		if err := writeFile(annotate, data); err != nil {
			return err
		}
		result.Screenshot = annotate
	}
	return output.Fprint(cmd.OutOrStdout(), result)
}

package cmd

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"unicode/utf8"

	"github.com/mj1618/desktop-pilot/internal/model"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// LabelMode controls what text is drawn on each annotated element.
type LabelMode int

const (
	// LabelText draws the element's text label.
	LabelText LabelMode = iota
	// LabelCoords draws "(x,y)", the point a click on the element targets.
	LabelCoords
)

// ParseLabelMode converts a --labels flag value.
func ParseLabelMode(s string) (LabelMode, error) {
	switch s {
	case "text", "":
		return LabelText, nil
	case "coords":
		return LabelCoords, nil
	}
	return LabelText, fmt.Errorf("unknown label mode %q (expected text or coords)", s)
}

// maxLabelRunes truncates long element labels.
const maxLabelRunes = 24

// AnnotateScreenshot draws each element's bounding box and label on img.
// Boxes are in screen points; origin is the screen point at the image's
// top-left corner. Screenshots are taken at point resolution, so no
// scaling is applied.
func AnnotateScreenshot(img image.Image, elements []model.Element, origin image.Point, mode LabelMode) *image.RGBA {
	rgba := ImageToRGBA(img)

	boxColor := color.RGBA{R: 255, G: 0, B: 0, A: 255}
	textColor := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	outlineColor := color.RGBA{R: 0, G: 0, B: 0, A: 200}

	for _, el := range elements {
		b := el.BoundingBox
		if b == nil || !b.Valid() {
			continue
		}
		x1, y1 := b.X1-origin.X, b.Y1-origin.Y
		x2, y2 := b.X2-origin.X, b.Y2-origin.Y
		drawRectangle(rgba, x1, y1, x2, y2, boxColor)

		cx, cy := b.Center()
		label := fmt.Sprintf("(%d,%d)", cx, cy)
		if mode == LabelText {
			label = truncateLabel(el.Text)
		}
		if label != "" {
			drawTextWithOutline(rgba, label, cx-origin.X, cy-origin.Y, textColor, outlineColor)
		}
	}
	return rgba
}

// AnnotatePNG decodes a PNG screenshot, annotates it and encodes the result.
func AnnotatePNG(shot []byte, elements []model.Element, origin image.Point, mode LabelMode) ([]byte, error) {
	img, err := png.Decode(bytes.NewReader(shot))
	if err != nil {
		return nil, fmt.Errorf("decode screenshot: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, AnnotateScreenshot(img, elements, origin, mode)); err != nil {
		return nil, fmt.Errorf("encode annotated screenshot: %w", err)
	}
	return buf.Bytes(), nil
}

func truncateLabel(s string) string {
	if utf8.RuneCountInString(s) <= maxLabelRunes {
		return s
	}
	return string([]rune(s)[:maxLabelRunes-3]) + "..."
}

// ImageToRGBA converts any image to RGBA
func ImageToRGBA(img image.Image) *image.RGBA {
	bounds := img.Bounds()
	rgba := image.NewRGBA(bounds)
	draw.Draw(rgba, bounds, img, bounds.Min, draw.Src)
	return rgba
}

// isWithinBounds checks if a point is within the image bounds
func isWithinBounds(bounds image.Rectangle, x, y int) bool {
	return x >= bounds.Min.X && x < bounds.Max.X && y >= bounds.Min.Y && y < bounds.Max.Y
}

// drawRectangle draws a rectangle outline on the image, clipped to it.
// Edges outside the image are not drawn.
func drawRectangle(img *image.RGBA, x1, y1, x2, y2 int, c color.Color) {
	bounds := img.Bounds()
	if x2 <= x1 || y2 <= y1 {
		return // Empty rectangle
	}

	for x := x1; x < x2; x++ {
		if isWithinBounds(bounds, x, y1) {
			img.Set(x, y1, c)
		}
		if isWithinBounds(bounds, x, y2-1) {
			img.Set(x, y2-1, c)
		}
	}
	for y := y1; y < y2; y++ {
		if isWithinBounds(bounds, x1, y) {
			img.Set(x1, y, c)
		}
		if isWithinBounds(bounds, x2-1, y) {
			img.Set(x2-1, y, c)
		}
	}
}

// drawTextWithOutline draws text centered on (x, y) with a one-pixel
// outline.
func drawTextWithOutline(img *image.RGBA, text string, x, y int, textColor, outlineColor color.Color) {
	// basicfont.Face7x13 glyphs are 7 pixels wide and 13 high.
	textWidth := utf8.RuneCountInString(text) * 7
	textHeight := 13

	offsetX := x - textWidth/2
	offsetY := y + textHeight/2

	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			if dx == 0 && dy == 0 {
				continue
			}
			d := &font.Drawer{
				Dst:  img,
				Src:  image.NewUniform(outlineColor),
				Face: basicfont.Face7x13,
				Dot:  fixed.P(offsetX+dx, offsetY+dy),
			}
			d.DrawString(text)
		}
	}

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(textColor),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(offsetX, offsetY),
	}
	d.DrawString(text)
}

package cmd

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/mj1618/desktop-pilot/internal/model"
)

func blankPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestAnnotateScreenshot_DrawsBoxes(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 100, 100))
	elements := []model.Element{
		{Text: "OK", BoundingBox: &model.BoundingBox{X1: 10, Y1: 10, X2: 60, Y2: 40}},
		{Text: "no box"},
	}

	out := AnnotateScreenshot(img, elements, image.Point{}, LabelText)
	if got := out.RGBAAt(10, 10); got != (color.RGBA{R: 255, A: 255}) {
		t.Errorf("top-left corner = %v, want red", got)
	}
	if got := out.RGBAAt(59, 39); got != (color.RGBA{R: 255, A: 255}) {
		t.Errorf("bottom-right corner = %v, want red", got)
	}
	if got := out.RGBAAt(90, 90); got != (color.RGBA{}) {
		t.Errorf("pixel outside boxes changed: %v", got)
	}
}

func TestAnnotateScreenshot_Origin(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 50, 50))
	elements := []model.Element{{BoundingBox: &model.BoundingBox{X1: 110, Y1: 210, X2: 130, Y2: 230}}}

	out := AnnotateScreenshot(img, elements, image.Pt(100, 200), LabelCoords)
	if got := out.RGBAAt(10, 10); got != (color.RGBA{R: 255, A: 255}) {
		t.Errorf("box should be drawn relative to the origin, got %v", got)
	}
}

func TestAnnotatePNG(t *testing.T) {
	data, err := AnnotatePNG(blankPNG(t, 40, 30), nil, image.Point{}, LabelText)
	if err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 40 || b.Dy() != 30 {
		t.Errorf("annotated size = %v, want 40x30", b)
	}

	if _, err := AnnotatePNG([]byte("not a png"), nil, image.Point{}, LabelText); err == nil {
		t.Error("expected decode error")
	}
}

func TestParseLabelMode(t *testing.T) {
	if m, err := ParseLabelMode("coords"); err != nil || m != LabelCoords {
		t.Errorf("ParseLabelMode(coords) = %v, %v", m, err)
	}
	if m, err := ParseLabelMode(""); err != nil || m != LabelText {
		t.Errorf("ParseLabelMode(\"\") = %v, %v", m, err)
	}
	if _, err := ParseLabelMode("ids"); err == nil {
		t.Error("expected error for ids")
	}
}

func TestTruncateLabel(t *testing.T) {
	long := strings.Repeat("x", 40)
	got := truncateLabel(long)
	if len(got) != maxLabelRunes || !strings.HasSuffix(got, "...") {
		t.Errorf("truncateLabel = %q", got)
	}
	if truncateLabel("Save") != "Save" {
		t.Error("short labels should be unchanged")
	}
}

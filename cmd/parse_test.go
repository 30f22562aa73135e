package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadGrounding(t *testing.T) {
	yamlPath := writeTemp(t, "screen.yaml", `
ts: 1700000000
elements:
  - text: Save
    bounding_box: {x1: 10, y1: 20, x2: 50, y2: 40}
  - text: Untitled
`)
	jsonPath := writeTemp(t, "screen.json", `{"elements":[{"text":"Save","bounding_box":{"x1":10,"y1":20,"x2":50,"y2":40}}]}`)

	for _, path := range []string{yamlPath, jsonPath} {
		g, err := loadGrounding(path)
		if err != nil {
			t.Fatalf("%s: %v", path, err)
		}
		if len(g.Elements) == 0 || g.Elements[0].Text != "Save" {
			t.Fatalf("%s: unexpected elements %+v", path, g.Elements)
		}
		if x, y := g.Elements[0].BoundingBox.Center(); x != 30 || y != 30 {
			t.Errorf("%s: center = (%d,%d), want (30,30)", path, x, y)
		}
	}
}

func TestLoadGrounding_Errors(t *testing.T) {
	if _, err := loadGrounding(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := loadGrounding(writeTemp(t, "bad.json", "{")); err == nil {
		t.Error("expected error for malformed JSON")
	}
	_, err := loadGrounding(writeTemp(t, "inverted.yaml", "elements:\n  - text: x\n    bounding_box: {x1: 50, y1: 0, x2: 10, y2: 10}\n"))
	if err == nil || !strings.Contains(err.Error(), "inverted") {
		t.Errorf("expected inverted box error, got %v", err)
	}
}

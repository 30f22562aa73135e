package output

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"

	"github.com/mj1618/desktop-pilot/internal/model"
)

func TestPrintJSON_Compact(t *testing.T) {
	result := GroundResult{
		TS: 1707500000,
		Elements: []model.Element{
			{Text: "OK", BoundingBox: &model.BoundingBox{X1: 10, Y1: 20, X2: 110, Y2: 50}},
		},
	}

	// Capture stdout
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	err := PrintJSON(result, false)
	w.Close()
	os.Stdout = old

	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	buf.ReadFrom(r)
	output := buf.String()

	// Compact output should be a single line (plus newline from Encode)
	if bytes.Count([]byte(output), []byte("\n")) > 1 {
		t.Errorf("compact output should be single line, got:\n%s", output)
	}

	// Verify it's valid JSON
	var decoded GroundResult
	if err := json.Unmarshal([]byte(output), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.TS != 1707500000 {
		t.Errorf("ts: got %d, want 1707500000", decoded.TS)
	}
	if len(decoded.Elements) != 1 || decoded.Elements[0].BoundingBox.X2 != 110 {
		t.Errorf("elements: got %+v", decoded.Elements)
	}
}

func TestPrintJSON_Pretty(t *testing.T) {
	result := GroundResult{
		TS:       123,
		Elements: []model.Element{{Text: "<Cancel>"}},
	}

	var buf bytes.Buffer
	if err := WriteJSON(&buf, result, true); err != nil {
		t.Fatal(err)
	}
	output := buf.String()

	if bytes.Count([]byte(output), []byte("\n")) <= 1 {
		t.Errorf("pretty output should be multi-line, got:\n%s", output)
	}
	// HTML escaping is disabled
	if !bytes.Contains([]byte(output), []byte("<Cancel>")) {
		t.Errorf("expected unescaped text, got:\n%s", output)
	}
}

package model

import (
	"encoding/json"
	"testing"
)

func TestBoundingBox_Center(t *testing.T) {
	tests := []struct {
		box          BoundingBox
		wantX, wantY int
	}{
		{BoundingBox{10, 10, 30, 30}, 20, 20},
		{BoundingBox{0, 0, 5, 5}, 2, 2},
		{BoundingBox{100, 200, 101, 203}, 100, 201},
		{BoundingBox{-5, -5, 0, 0}, -3, -3},
	}
	for _, tt := range tests {
		x, y := tt.box.Center()
		if x != tt.wantX || y != tt.wantY {
			t.Errorf("%+v.Center() = (%d,%d), want (%d,%d)", tt.box, x, y, tt.wantX, tt.wantY)
		}
	}
}

func TestBoundingBox_Valid(t *testing.T) {
	if !(BoundingBox{1, 1, 1, 1}).Valid() {
		t.Error("degenerate box should be valid")
	}
	if (BoundingBox{10, 0, 5, 5}).Valid() {
		t.Error("x2 < x1 should be invalid")
	}
}

func TestGroundingResult_JSONShape(t *testing.T) {
	raw := `{"elements":[{"text":"Ouvrir","bounding_box":{"x1":1,"y1":2,"x2":3,"y2":4}},{"text":"no box"}]}`
	var g GroundingResult
	if err := json.Unmarshal([]byte(raw), &g); err != nil {
		t.Fatal(err)
	}
	if len(g.Elements) != 2 {
		t.Fatalf("expected 2 elements, got %d", len(g.Elements))
	}
	if g.Elements[0].BoundingBox == nil || g.Elements[0].BoundingBox.X2 != 3 {
		t.Errorf("first element box not decoded: %+v", g.Elements[0].BoundingBox)
	}
	if g.Elements[1].BoundingBox != nil {
		t.Error("second element should have no box")
	}

	data, err := json.Marshal(Element{Text: "x"})
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"text":"x"}` {
		t.Errorf("nil box should be omitted, got %s", data)
	}
}

func TestGroundingResult_EmptyMarshalsElementsKey(t *testing.T) {
	data, err := json.Marshal(GroundingResult{})
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatal(err)
	}
	if _, ok := m["elements"]; !ok {
		t.Error("elements key should always be present")
	}
}

func TestGroundingResult_Scale(t *testing.T) {
	g := GroundingResult{Elements: []Element{
		{Text: "a", BoundingBox: &BoundingBox{10, 20, 30, 40}},
		{Text: "b"},
	}}
	scaled := g.Scale(2, 0.5)
	b := scaled.Elements[0].BoundingBox
	if b.X1 != 20 || b.Y1 != 10 || b.X2 != 60 || b.Y2 != 20 {
		t.Errorf("unexpected scaled box %+v", b)
	}
	if g.Elements[0].BoundingBox.X1 != 10 {
		t.Error("Scale must not mutate the receiver")
	}
	if scaled.Elements[1].BoundingBox != nil {
		t.Error("element without box should stay without box")
	}
}

func TestGroundingResult_Translate(t *testing.T) {
	g := GroundingResult{Elements: []Element{
		{Text: "a", BoundingBox: &BoundingBox{10, 20, 30, 40}},
		{Text: "b"},
	}}
	moved := g.Translate(100, -5)
	b := moved.Elements[0].BoundingBox
	if b.X1 != 110 || b.Y1 != 15 || b.X2 != 130 || b.Y2 != 35 {
		t.Errorf("unexpected translated box %+v", b)
	}
	if g.Elements[0].BoundingBox.X1 != 10 {
		t.Error("Translate must not mutate the receiver")
	}
	if moved.Elements[1].BoundingBox != nil {
		t.Error("element without box should stay without box")
	}
}

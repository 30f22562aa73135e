package model

// BoundingBox is a screen rectangle given by its top-left (X1,Y1) and
// bottom-right (X2,Y2) corners, in screen points.
type BoundingBox struct {
	X1 int `yaml:"x1" json:"x1"`
	Y1 int `yaml:"y1" json:"y1"`
	X2 int `yaml:"x2" json:"x2"`
	Y2 int `yaml:"y2" json:"y2"`
}

// Center returns the integer midpoint of the box (floor division).
func (b BoundingBox) Center() (int, int) {
	return floorDiv(b.X1+b.X2, 2), floorDiv(b.Y1+b.Y2, 2)
}

// Width returns X2-X1.
func (b BoundingBox) Width() int { return b.X2 - b.X1 }

// Height returns Y2-Y1.
func (b BoundingBox) Height() int { return b.Y2 - b.Y1 }

// Valid reports whether the corners are ordered.
func (b BoundingBox) Valid() bool {
	return b.X2 >= b.X1 && b.Y2 >= b.Y1
}

// Element is one UI element detected on a screenshot.
type Element struct {
	Text        string       `yaml:"text,omitempty"         json:"text,omitempty"`         // Visible label
	BoundingBox *BoundingBox `yaml:"bounding_box,omitempty" json:"bounding_box,omitempty"` // Location on screen
}

// GroundingResult is the structured description of one screenshot.
// A zero value (no elements) is a valid, empty result.
type GroundingResult struct {
	Elements []Element `yaml:"elements" json:"elements"`
}

// Empty reports whether no elements were detected.
func (g GroundingResult) Empty() bool {
	return len(g.Elements) == 0
}

// Scale returns a copy with every bounding box multiplied by (sx, sy).
// Used to map boxes detected on a downscaled image back to screen points.
func (g GroundingResult) Scale(sx, sy float64) GroundingResult {
	out := GroundingResult{Elements: make([]Element, len(g.Elements))}
	for i, el := range g.Elements {
		out.Elements[i] = el
		if el.BoundingBox == nil {
			continue
		}
		b := *el.BoundingBox
		b.X1 = int(float64(b.X1) * sx)
		b.Y1 = int(float64(b.Y1) * sy)
		b.X2 = int(float64(b.X2) * sx)
		b.Y2 = int(float64(b.Y2) * sy)
		out.Elements[i].BoundingBox = &b
	}
	return out
}

// Translate returns a copy with every bounding box shifted by (dx, dy).
// Used to map boxes detected on a region capture to screen points.
func (g GroundingResult) Translate(dx, dy int) GroundingResult {
	out := GroundingResult{Elements: make([]Element, len(g.Elements))}
	for i, el := range g.Elements {
		out.Elements[i] = el
		if el.BoundingBox == nil {
			continue
		}
		b := BoundingBox{X1: el.BoundingBox.X1 + dx, Y1: el.BoundingBox.Y1 + dy, X2: el.BoundingBox.X2 + dx, Y2: el.BoundingBox.Y2 + dy}
		out.Elements[i].BoundingBox = &b
	}
	return out
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

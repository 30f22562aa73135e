package model

import "strings"

// FindByText returns the first element, in order, whose text contains
// query as a case-sensitive substring and that has a bounding box.
// Returns nil when nothing matches.
func FindByText(elements []Element, query string) *Element {
	for i := range elements {
		el := &elements[i]
		if el.BoundingBox == nil {
			continue
		}
		if strings.Contains(el.Text, query) {
			return el
		}
	}
	return nil
}

// FilterByText filters elements to those whose text contains the given
// text (case-insensitive). An empty text returns elements unchanged.
func FilterByText(elements []Element, text string) []Element {
	if text == "" {
		return elements
	}
	textLower := strings.ToLower(text)
	var result []Element
	for _, el := range elements {
		if strings.Contains(strings.ToLower(el.Text), textLower) {
			result = append(result, el)
		}
	}
	return result
}

// FilterWithBounds drops elements that carry no bounding box or whose
// box corners are out of order.
func FilterWithBounds(elements []Element) []Element {
	var result []Element
	for _, el := range elements {
		if el.BoundingBox != nil && el.BoundingBox.Valid() {
			result = append(result, el)
		}
	}
	return result
}

// boundsIntersect checks if two boxes overlap.
func boundsIntersect(a, b BoundingBox) bool {
	return a.X1 < b.X2 && a.X2 > b.X1 && a.Y1 < b.Y2 && a.Y2 > b.Y1
}

// FilterInRegion returns elements whose box intersects region.
func FilterInRegion(elements []Element, region BoundingBox) []Element {
	var result []Element
	for _, el := range elements {
		if el.BoundingBox != nil && boundsIntersect(*el.BoundingBox, region) {
			result = append(result, el)
		}
	}
	return result
}

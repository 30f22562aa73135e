package model

import (
	"fmt"
	"time"
)

// ChangeType represents the kind of screen change detected.
type ChangeType string

const (
	ChangeAdded   ChangeType = "added"
	ChangeRemoved ChangeType = "removed"
	ChangeMoved   ChangeType = "moved"
)

// UIChange represents a single change between two groundings.
type UIChange struct {
	Type ChangeType `yaml:"type"           json:"type"`
	TS   int64      `yaml:"ts"             json:"ts"`
	Text string     `yaml:"text"           json:"text"`
	From string     `yaml:"from,omitempty" json:"from,omitempty"` // For moved: previous box
	To   string     `yaml:"to,omitempty"   json:"to,omitempty"`   // For moved/added: current box
}

// DiffGrounding compares two grounding results and returns the changes.
// Elements are matched by their text label; unlabeled elements are ignored.
// When a label appears more than once, occurrences are paired in order.
func DiffGrounding(prev, curr GroundingResult) []UIChange {
	prevByText := groupByText(prev.Elements)
	currByText := groupByText(curr.Elements)

	var changes []UIChange
	now := time.Now().Unix()

	seen := make(map[string]int)
	for _, el := range curr.Elements {
		if el.Text == "" {
			continue
		}
		idx := seen[el.Text]
		seen[el.Text]++
		olds := prevByText[el.Text]
		if idx >= len(olds) {
			changes = append(changes, UIChange{
				Type: ChangeAdded,
				TS:   now,
				Text: el.Text,
				To:   formatBox(el.BoundingBox),
			})
			continue
		}
		if from, to := formatBox(olds[idx].BoundingBox), formatBox(el.BoundingBox); from != to {
			changes = append(changes, UIChange{
				Type: ChangeMoved,
				TS:   now,
				Text: el.Text,
				From: from,
				To:   to,
			})
		}
	}

	seen = make(map[string]int)
	for _, el := range prev.Elements {
		if el.Text == "" {
			continue
		}
		idx := seen[el.Text]
		seen[el.Text]++
		if idx >= len(currByText[el.Text]) {
			changes = append(changes, UIChange{
				Type: ChangeRemoved,
				TS:   now,
				Text: el.Text,
				From: formatBox(el.BoundingBox),
			})
		}
	}

	return changes
}

func groupByText(elements []Element) map[string][]Element {
	m := make(map[string][]Element, len(elements))
	for _, el := range elements {
		if el.Text == "" {
			continue
		}
		m[el.Text] = append(m[el.Text], el)
	}
	return m
}

func formatBox(b *BoundingBox) string {
	if b == nil {
		return ""
	}
	return fmt.Sprintf("%d,%d,%d,%d", b.X1, b.Y1, b.X2, b.Y2)
}

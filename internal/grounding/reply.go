package grounding

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"
	"github.com/mj1618/desktop-pilot/internal/model"
)

var errNoJSON = errors.New("reply contains no JSON object")

// ParseReply decodes a model reply into a grounding result. Markdown code
// fences and surrounding prose are stripped and slightly malformed JSON is
// repaired before decoding. Boxes with swapped corners are normalized.
func ParseReply(text string) (model.GroundingResult, error) {
	body := stripFences(text)
	if body == "" {
		return model.GroundingResult{}, errNoJSON
	}
	repaired, err := jsonrepair.JSONRepair(body)
	if err != nil {
		return model.GroundingResult{}, fmt.Errorf("repair grounding JSON: %w", err)
	}

	var result model.GroundingResult
	if err := json.Unmarshal([]byte(repaired), &result); err != nil {
		return model.GroundingResult{}, fmt.Errorf("decode grounding JSON: %w", err)
	}
	for i := range result.Elements {
		if b := result.Elements[i].BoundingBox; b != nil && !b.Valid() {
			fixed := normalize(*b)
			result.Elements[i].BoundingBox = &fixed
		}
	}
	return result, nil
}

// stripFences returns the JSON object inside text: a fenced block's body
// if there is one, then everything from the first '{' to the last '}'.
func stripFences(text string) string {
	s := strings.TrimSpace(text)
	if start := strings.Index(s, "```"); start >= 0 {
		rest := s[start+3:]
		if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
			rest = rest[nl+1:]
		}
		if end := strings.Index(rest, "```"); end >= 0 {
			rest = rest[:end]
		}
		s = rest
	}
	first := strings.IndexByte(s, '{')
	last := strings.LastIndexByte(s, '}')
	if first < 0 {
		return ""
	}
	if last < first {
		// Truncated reply; let the repairer close it.
		return strings.TrimSpace(s[first:])
	}
	return strings.TrimSpace(s[first : last+1])
}

func normalize(b model.BoundingBox) model.BoundingBox {
	if b.X2 < b.X1 {
		b.X1, b.X2 = b.X2, b.X1
	}
	if b.Y2 < b.Y1 {
		b.Y1, b.Y2 = b.Y2, b.Y1
	}
	return b
}

package actions

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mj1618/desktop-pilot/internal/model"
	"github.com/mj1618/desktop-pilot/internal/platform"
)

// Diagnostic describes a plan line that was dropped.
type Diagnostic struct {
	Line    int    `json:"line" yaml:"line"` // 1-based line number in the plan text
	Text    string `json:"text" yaml:"text"` // the offending line, trimmed
	Message string `json:"message" yaml:"message"`
}

func (d Diagnostic) Error() string {
	return fmt.Sprintf("line %d: %s: %q", d.Line, d.Message, d.Text)
}

// Parse turns plan text into a Plan. click_mouse text queries are
// resolved against grounding. Malformed lines are dropped and reported as
// diagnostics; they never stop later lines from parsing. Parse has no
// side effects.
func Parse(text string, grounding model.GroundingResult) (Plan, []Diagnostic) {
	var (
		plan  Plan
		diags []Diagnostic
	)
	for i, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		parsed, msg := parseLine(Kind(fields[0]), fields[1:], grounding)
		if msg != "" {
			diags = append(diags, Diagnostic{Line: i + 1, Text: line, Message: msg})
			continue
		}
		plan = append(plan, parsed...)
	}
	return plan, diags
}

func parseLine(kind Kind, args []string, grounding model.GroundingResult) ([]Action, string) {
	switch kind {
	case KindMouseMove:
		if len(args) != 2 {
			return nil, "move_mouse takes exactly two arguments"
		}
		x, errX := strconv.Atoi(args[0])
		y, errY := strconv.Atoi(args[1])
		if errX != nil || errY != nil {
			return nil, "move_mouse coordinates must be integers"
		}
		return []Action{MouseMove{X: x, Y: y}}, ""

	case KindMouseClick:
		if len(args) != 1 {
			return nil, "click_mouse takes exactly one argument"
		}
		return parseClick(args[0], grounding), ""

	case KindKeyPress:
		if len(args) != 1 {
			return nil, "press_key takes exactly one argument"
		}
		name := args[0]
		if utf8.RuneCountInString(name) == 1 {
			r, _ := utf8.DecodeRuneInString(name)
			if !unicode.IsPrint(r) {
				return nil, "unprintable key"
			}
		}
		key, err := platform.ParseKey(name)
		if err != nil {
			return nil, "unknown key"
		}
		return []Action{KeyPress{Key: key}}, ""

	case KindTypeText:
		if len(args) == 0 {
			return nil, "type_text needs text"
		}
		return []Action{TypeText{Text: strings.Join(args, " ")}}, ""

	case KindWait:
		if len(args) != 1 {
			return nil, "wait takes exactly one argument"
		}
		secs, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return nil, "wait duration is not a number"
		}
		if math.IsNaN(secs) || math.IsInf(secs, 0) || secs < 0 {
			return nil, "wait duration must be a finite, non-negative number"
		}
		return []Action{Wait{Seconds: secs}}, ""

	case KindCaptureScreen:
		return []Action{CaptureScreen{}}, ""
	}
	return nil, "unknown action"
}

// parseClick resolves a click_mouse token. Anything other than "left" or
// "right" is a text query: the first element whose label contains it
// becomes a move to its center followed by a left click. An unmatched
// query is kept as the button token.
func parseClick(token string, grounding model.GroundingResult) []Action {
	if token != "left" && token != "right" {
		if el := model.FindByText(grounding.Elements, token); el != nil {
			x, y := el.BoundingBox.Center()
			return []Action{MouseMove{X: x, Y: y}, MouseClick{Button: "left"}}
		}
	}
	return []Action{MouseClick{Button: token}}
}

// Package prompts renders the model prompts used for grounding, planning
// and verification.
package prompts

import (
	"bytes"
	"embed"
	"encoding/json"
	"text/template"

	"github.com/mj1618/desktop-pilot/internal/model"
)

//go:embed *.tmpl
var templateFS embed.FS

var templates = template.Must(template.New("prompts").Funcs(template.FuncMap{
	"json": toJSON,
}).ParseFS(templateFS, "*.tmpl"))

// PlanData fills the planning prompt.
type PlanData struct {
	Instruction string
	Grounding   model.GroundingResult
	// RetryHint is the failure reason from the previous cycle, if any.
	RetryHint string
	// Unchecked counts the actions the previous plan ran after its last
	// capture_screen. It is set only when that plan otherwise succeeded.
	Unchecked int
}

// VerifyData fills the verification prompt.
type VerifyData struct {
	Instruction string
	Grounding   model.GroundingResult
}

// Grounding returns the fixed element-detection prompt.
func Grounding() string {
	s, err := render("grounding.tmpl", nil)
	if err != nil {
		panic(err)
	}
	return s
}

// Plan renders the planning prompt.
func Plan(data PlanData) (string, error) {
	return render("plan.tmpl", data)
}

// Verify renders the verification prompt.
func Verify(data VerifyData) (string, error) {
	return render("verify.tmpl", data)
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func toJSON(g model.GroundingResult) (string, error) {
	if g.Elements == nil {
		g.Elements = []model.Element{}
	}
	b, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

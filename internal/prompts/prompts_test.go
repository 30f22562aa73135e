package prompts

import (
	"testing"

	"github.com/mj1618/desktop-pilot/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var screen = model.GroundingResult{Elements: []model.Element{
	{Text: "Start", BoundingBox: &model.BoundingBox{X1: 0, Y1: 1040, X2: 48, Y2: 1080}},
}}

func TestPlan_IncludesInstructionAndGrounding(t *testing.T) {
	out, err := Plan(PlanData{Instruction: "open notepad", Grounding: screen})
	require.NoError(t, err)

	assert.Contains(t, out, "Instruction: open notepad")
	assert.Contains(t, out, `"text": "Start"`)
	assert.Contains(t, out, `"x2": 48`)
	assert.Contains(t, out, "capture_screen")
	assert.NotContains(t, out, "previous attempt failed")
}

func TestPlan_RetryHint(t *testing.T) {
	out, err := Plan(PlanData{Instruction: "open notepad", RetryHint: "notepad is not open"})
	require.NoError(t, err)
	assert.Contains(t, out, "The previous attempt failed, error: notepad is not open. Try again.")
	assert.Contains(t, out, `"elements": []`)
}

func TestPlan_Unchecked(t *testing.T) {
	out, err := Plan(PlanData{Instruction: "press enter", RetryHint: "1 actions ran after the last screenshot", Unchecked: 1})
	require.NoError(t, err)
	assert.Contains(t, out, "The previous plan ran 1 actions after its last capture_screen")
	assert.NotContains(t, out, "previous attempt failed")
}

func TestVerify(t *testing.T) {
	out, err := Verify(VerifyData{Instruction: "open notepad", Grounding: screen})
	require.NoError(t, err)
	assert.Contains(t, out, "This instruction was just executed: open notepad")
	assert.Contains(t, out, "single word OK")
	assert.Contains(t, out, `"text": "Start"`)
}

func TestGrounding(t *testing.T) {
	out := Grounding()
	assert.Contains(t, out, `"bounding_box"`)
	assert.Contains(t, out, "JSON only")
}

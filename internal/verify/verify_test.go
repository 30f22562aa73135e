package verify

import (
	"context"
	"errors"
	"testing"

	"github.com/mj1618/desktop-pilot/internal/llm"
	"github.com/mj1618/desktop-pilot/internal/model"
	"github.com/mj1618/desktop-pilot/internal/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reply(text string, err error) llm.Model {
	return llm.ModelFunc(func(context.Context, string, []byte) (string, error) { return text, err })
}

func TestOracle_Verify(t *testing.T) {
	tests := []struct {
		name       string
		model      llm.Model
		wantReason string
		wantFailed bool
	}{
		{"ok", reply("OK", nil), "", false},
		{"ok lower with period", reply(" ok.\n", nil), "", false},
		{"ok exclaimed", reply("Ok!", nil), "", false},
		{"empty", reply("", nil), "", false},
		{"whitespace only", reply("  \n\t", nil), "", false},
		{"fault", reply("", errors.New("deadline exceeded")), "", false},
		{"panic", llm.ModelFunc(func(context.Context, string, []byte) (string, error) { panic("nil map") }), "", false},
		{"failure reason", reply("  Notepad did not open.\n", nil), "Notepad did not open.", true},
		{"ok inside a sentence", reply("OK so it failed", nil), "OK so it failed", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reason, failed := New(tt.model, nil, nil).Verify(context.Background(), "open notepad", model.GroundingResult{})
			assert.Equal(t, tt.wantReason, reason)
			assert.Equal(t, tt.wantFailed, failed)
		})
	}
}

func TestOracle_SendsTextOnly(t *testing.T) {
	var gotPrompt string
	var gotImage []byte
	m := llm.ModelFunc(func(_ context.Context, prompt string, image []byte) (string, error) {
		gotPrompt, gotImage = prompt, image
		return "OK", nil
	})
	g := model.GroundingResult{Elements: []model.Element{{Text: "Untitled - Notepad"}}}

	_, failed := New(m, nil, nil).Verify(context.Background(), "open notepad", g)
	require.False(t, failed)
	assert.Nil(t, gotImage)
	assert.Contains(t, gotPrompt, "open notepad")
	assert.Contains(t, gotPrompt, "Untitled - Notepad")
}

func TestOracle_CountsFaults(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := observability.MustNewMetrics(reg)

	_, _ = New(reply("", errors.New("boom")), nil, metrics).Verify(context.Background(), "x", model.GroundingResult{})

	families, err := reg.Gather()
	require.NoError(t, err)
	var found bool
	for _, f := range families {
		if f.GetName() == "desktop_pilot_llm_faults_total" {
			found = true
			assert.Equal(t, 1.0, f.GetMetric()[0].GetCounter().GetValue())
		}
	}
	assert.True(t, found)
}

func TestIsSuccess(t *testing.T) {
	assert.True(t, IsSuccess("OK"))
	assert.True(t, IsSuccess(" Ok "))
	assert.True(t, IsSuccess("ok..."))
	assert.False(t, IsSuccess("okay"))
	assert.False(t, IsSuccess("not ok"))
}

// Package verify asks the model whether an instruction succeeded, given
// the state of the screen after execution.
package verify

import (
	"context"
	"strings"
	"unicode"

	"github.com/mj1618/desktop-pilot/internal/llm"
	"github.com/mj1618/desktop-pilot/internal/model"
	"github.com/mj1618/desktop-pilot/internal/observability"
	"github.com/mj1618/desktop-pilot/internal/prompts"
	"go.uber.org/zap"
)

// SuccessToken is the reply that means the instruction succeeded.
const SuccessToken = "OK"

// Oracle judges execution results.
type Oracle struct {
	model   llm.Model
	log     *zap.Logger
	metrics *observability.Metrics
}

// New creates an Oracle. log and metrics may be nil.
func New(m llm.Model, log *zap.Logger, metrics *observability.Metrics) *Oracle {
	if log == nil {
		log = zap.NewNop()
	}
	return &Oracle{model: m, log: log, metrics: metrics}
}

// Verify returns the model's failure reason and true when it judged the
// instruction failed. A success verdict, an empty reply and a model fault
// all return "", false. The grounding is sent as text; no image is sent.
func (o *Oracle) Verify(ctx context.Context, instruction string, grounding model.GroundingResult) (string, bool) {
	prompt, err := prompts.Verify(prompts.VerifyData{Instruction: instruction, Grounding: grounding})
	if err != nil {
		o.log.Error("render verification prompt", zap.Error(err))
		return "", false
	}
	reply, err := llm.SafeGenerate(ctx, o.model, prompt, nil)
	if err != nil {
		o.log.Warn("verification model call failed", zap.Error(err))
		o.metrics.IncModelFault("verify")
		return "", false
	}
	reason := strings.TrimSpace(reply)
	o.log.Info("verification verdict", zap.String("reply", reason))
	if reason == "" || IsSuccess(reason) {
		return "", false
	}
	return reason, true
}

// IsSuccess reports whether reply is the success token, ignoring case,
// surrounding whitespace and trailing punctuation.
func IsSuccess(reply string) bool {
	s := strings.TrimRightFunc(strings.TrimSpace(reply), unicode.IsPunct)
	return strings.EqualFold(strings.TrimSpace(s), SuccessToken)
}

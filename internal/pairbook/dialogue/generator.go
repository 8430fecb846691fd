package dialogue

import (
	"context"
	"log/slog"
	"strings"

	"github.com/soyj/pairbook/internal/pairbook/model"
)

// FallbackDialogue is returned whenever generation fails for any reason.
// Callers never see an error and must not try to tell fallback text from
// generated text.
const FallbackDialogue = "Hang in there today too!"

// FallbackAnalysis is the degraded result of a profile analysis.
const FallbackAnalysis = "The analysis could not be completed."

// Generator produces character dialogue through a Provider.
//
// Every call is at-most-once: there is no retry and no backoff, and provider
// errors degrade silently to the fallback constants.
type Generator struct {
	provider Provider
}

// NewGenerator creates a Generator on top of the given provider.
func NewGenerator(p Provider) *Generator {
	return &Generator{provider: p}
}

// CharacterDialogue generates an in-character line for the given context.
// The result is trimmed of surrounding whitespace. On any provider failure
// (network, quota, malformed response) the fixed fallback phrase is returned
// instead; the failure is logged and never propagated.
func (g *Generator) CharacterDialogue(ctx context.Context, char model.Character, tag Context, data Data) string {
	resp, err := g.provider.Complete(ctx, CompletionRequest{
		Messages: []Message{
			{Role: RoleSystem, Content: systemPrompt},
			{Role: RoleUser, Content: buildPrompt(char, tag, data)},
		},
	})
	if err != nil {
		slog.Warn("dialogue generation failed; using fallback",
			"char", char.Name, "context", string(tag), "err", err)
		return FallbackDialogue
	}
	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return FallbackDialogue
	}
	return text
}

// AnalyzeProfile returns a short natural-language analysis of the speech
// patterns a character with the given profile would use. Same degradation
// contract as CharacterDialogue.
func (g *Generator) AnalyzeProfile(ctx context.Context, name, personality, setting string) string {
	resp, err := g.provider.Complete(ctx, CompletionRequest{
		Messages: []Message{
			{Role: RoleUser, Content: buildAnalysisPrompt(name, personality, setting)},
		},
	})
	if err != nil {
		slog.Warn("profile analysis failed; using fallback", "char", name, "err", err)
		return FallbackAnalysis
	}
	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return FallbackAnalysis
	}
	return text
}

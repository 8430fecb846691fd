package dialogue

import (
	"fmt"
	"strings"

	"github.com/soyj/pairbook/internal/pairbook/model"
)

// Context selects the situational instruction embedded in the prompt.
type Context string

const (
	// ContextPraise: the user completed a task; the character celebrates.
	ContextPraise Context = "praise"
	// ContextNag: a task is due or overdue; the character nags.
	ContextNag Context = "nag"
	// ContextFortune: the character interprets a drawn fortune tier.
	ContextFortune Context = "fortune"
)

// Data carries the context-specific detail for a generation call.
type Data struct {
	// TaskName is set for praise and nag contexts.
	TaskName string
	// FortuneLevel is set for the fortune context.
	FortuneLevel string
}

const systemPrompt = "You are roleplaying a fictional character for a personal " +
	"todo companion app. Stay fully in character. Reply with the character's " +
	"dialogue only: 2-3 sentences, casual messenger tone, no narration, no quotes."

// buildPrompt assembles the user prompt from the character profile, the
// accumulated feedback reports, and the situational instruction.
func buildPrompt(char model.Character, tag Context, data Data) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Character name: %s\n", char.Name)
	fmt.Fprintf(&sb, "Personality keywords: %s\n", char.Personality)
	fmt.Fprintf(&sb, "Detailed setting: %s\n", char.DetailedSetting)
	fmt.Fprintf(&sb, "Typical speech sample: %s\n", char.SampleDialogue)
	fmt.Fprintf(&sb, "Past feedback (corrections to apply): %s\n", strings.Join(char.Reports, ", "))
	sb.WriteString("\n")

	switch tag {
	case ContextPraise:
		fmt.Fprintf(&sb, "Situation: the user just completed the task %q. Praise them.\n", data.TaskName)
	case ContextNag:
		fmt.Fprintf(&sb, "Situation: the user is putting off the task %q. Nag them about it.\n", data.TaskName)
	case ContextFortune:
		fmt.Fprintf(&sb, "Situation: the user drew a daily fortune with the result %q. "+
			"Interpret the fortune and react in character.\n", data.FortuneLevel)
	}

	sb.WriteString("\nWrite the character's line, keeping the tone and sentence " +
		"endings of the speech sample as closely as possible.")
	return sb.String()
}

// buildAnalysisPrompt asks for a short speech-pattern analysis of a profile.
func buildAnalysisPrompt(name, personality, setting string) string {
	return fmt.Sprintf("Analyze the character %q (personality: %s, setting: %s) "+
		"and describe three traits of the speech style and sentence endings this "+
		"character would most likely use. Keep it to a short summary.",
		name, personality, setting)
}

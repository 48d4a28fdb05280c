package chat

import (
	"strings"
)

// DefaultInstruction is the fixed preamble describing the assistant's role,
// tuned for Phi-2's instruction format.
const DefaultInstruction = "Instruction: Provide a helpful, concise response to the human's request."

// PromptBuilder assembles a model-ready prompt from a history window and the
// new user message. The window is a turn-count heuristic, not a token
// budget: prompt size is bounded by turn count alone, so a window of long
// turns can still overrun the engine's context.
type PromptBuilder struct {
	instruction string
}

// NewPromptBuilder returns a builder using the given instruction preamble,
// or DefaultInstruction when empty.
func NewPromptBuilder(instruction string) *PromptBuilder {
	if instruction == "" {
		instruction = DefaultInstruction
	}
	return &PromptBuilder{instruction: instruction}
}

// Build emits the instruction preamble, each prior turn as a labeled
// human/assistant line pair (oldest first), then the new message under an
// open assistant label for the model to complete. Always produces a string;
// no failure modes.
func (b *PromptBuilder) Build(snippet []Turn, userMessage string) string {
	var sb strings.Builder
	sb.WriteString(b.instruction)
	sb.WriteString("\n\n")
	for _, turn := range snippet {
		sb.WriteString("Human: ")
		sb.WriteString(turn.User)
		sb.WriteString("\nAssistant: ")
		sb.WriteString(turn.Assistant)
		sb.WriteString("\n")
	}
	sb.WriteString("Human: ")
	sb.WriteString(userMessage)
	sb.WriteString("\nAssistant:")
	return sb.String()
}

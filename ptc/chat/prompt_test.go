package chat

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestPromptBuilder_Build checks the exact transcript layout the model is
// conditioned on: instruction header, one Human/Assistant pair per line
// group, and a bare "Assistant:" tail for the pending turn.
func TestPromptBuilder_Build(t *testing.T) {
	builder := NewPromptBuilder("")

	turns := []Turn{
		{User: "What is Go?", Assistant: "A programming language."},
		{User: "Who designed it?", Assistant: "A team at Google."},
	}

	got := builder.Build(turns, "When was it released?")

	want := DefaultInstruction + "\n\n" +
		"Human: What is Go?\nAssistant: A programming language.\n" +
		"Human: Who designed it?\nAssistant: A team at Google.\n" +
		"Human: When was it released?\nAssistant:"
	assert.Equal(t, want, got)

	// The continuation cue must end without trailing whitespace.
	assert.True(t, strings.HasSuffix(got, "\nAssistant:"))
	assert.False(t, strings.HasSuffix(got, " "))
}

func TestPromptBuilder_BuildEmptyHistory(t *testing.T) {
	builder := NewPromptBuilder("")

	got := builder.Build(nil, "Hi")

	want := DefaultInstruction + "\n\nHuman: Hi\nAssistant:"
	assert.Equal(t, want, got)
}

func TestPromptBuilder_CustomInstruction(t *testing.T) {
	builder := NewPromptBuilder("Answer tersely.")

	got := builder.Build(nil, "Hi")

	assert.True(t, strings.HasPrefix(got, "Answer tersely.\n\n"))
	assert.NotContains(t, got, DefaultInstruction)
}

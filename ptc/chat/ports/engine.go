package chatports

import (
	"context"
)

// GenerationRequest aggregates everything the engine needs for one completion.
// Built per turn from the prompt and the fixed sampling parameters; transient,
// never stored.
type GenerationRequest struct {
	Prompt            string
	MaxTokens         int
	Temperature       float32
	TopP              float32
	TopK              int
	RepetitionPenalty float32
	// Stop sequences terminate generation early so the model cannot run on
	// into a fabricated next turn.
	Stop []string
}

// Completion is the engine's raw response, consumed immediately by the
// sanitizer.
type Completion struct {
	Text string
}

// Engine is the abstraction for the local inference backend (tokenization,
// sampling, and weight loading hidden behind this port). A call blocks for
// the duration of the generation; the caller owns threading discipline.
type Engine interface {
	Complete(ctx context.Context, req GenerationRequest) (Completion, error)
}

//go:build !llama || no_llama

package engine

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	ports "github.com/asterozoa/phi-terminal-chat/ptc/chat/ports"
)

// LocalEngine is the placeholder for builds without llama.cpp. Construction
// succeeds so the interface can come up; every completion reports the engine
// as unavailable.
type LocalEngine struct {
	cfg    Config
	logger zerolog.Logger
}

// New validates the configuration without loading anything.
func New(cfg Config, logger zerolog.Logger) (*LocalEngine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid engine config: %w", err)
	}

	logger.Warn().
		Str("model_path", cfg.ModelPath).
		Msg("llama.cpp not compiled in, completions will fail")

	return &LocalEngine{cfg: cfg, logger: logger}, nil
}

// Complete always fails with ErrEngineUnavailable.
func (e *LocalEngine) Complete(ctx context.Context, req ports.GenerationRequest) (ports.Completion, error) {
	if err := ctx.Err(); err != nil {
		return ports.Completion{}, err
	}
	return ports.Completion{}, ErrEngineUnavailable
}

// Close is a no-op in this build.
func (e *LocalEngine) Close() error { return nil }

var _ ports.Engine = (*LocalEngine)(nil)

//go:build llama && !no_llama

package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	llama "github.com/go-skynet/go-llama.cpp"
	"github.com/rs/zerolog"

	ports "github.com/asterozoa/phi-terminal-chat/ptc/chat/ports"
)

// LocalEngine runs completions against an in-process llama.cpp model.
type LocalEngine struct {
	cfg    Config
	model  *llama.LLama
	mu     sync.Mutex
	logger zerolog.Logger
}

// New loads the GGUF model at cfg.ModelPath into memory. Loading a quantized
// model takes seconds, so call this off the interactive path.
func New(cfg Config, logger zerolog.Logger) (*LocalEngine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid engine config: %w", err)
	}

	start := time.Now()
	model, err := llama.New(cfg.ModelPath,
		llama.SetContext(cfg.ContextSize),
		llama.SetNBatch(cfg.BatchSize),
		llama.SetGPULayers(cfg.GPULayers),
	)
	if err != nil {
		return nil, fmt.Errorf("llama.New failed for %s: %w", cfg.ModelPath, err)
	}

	logger.Info().
		Str("model_path", cfg.ModelPath).
		Int("context_size", cfg.ContextSize).
		Int("threads", cfg.Threads).
		Dur("load_time", time.Since(start)).
		Msg("model loaded")

	return &LocalEngine{cfg: cfg, model: model, logger: logger}, nil
}

// Complete runs a single blocking prediction. The native llama state cannot
// serve two predictions at once, so calls are serialized on a mutex.
func (e *LocalEngine) Complete(ctx context.Context, req ports.GenerationRequest) (ports.Completion, error) {
	if err := ctx.Err(); err != nil {
		return ports.Completion{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.model == nil {
		return ports.Completion{}, fmt.Errorf("engine closed")
	}

	start := time.Now()
	text, err := e.model.Predict(req.Prompt,
		llama.SetTokens(req.MaxTokens),
		llama.SetTemperature(req.Temperature),
		llama.SetTopP(req.TopP),
		llama.SetTopK(req.TopK),
		llama.SetPenalty(req.RepetitionPenalty),
		llama.SetThreads(e.cfg.Threads),
		llama.SetStopWords(req.Stop...),
	)
	if err != nil {
		return ports.Completion{}, fmt.Errorf("prediction failed: %w", err)
	}

	e.logger.Debug().
		Int("prompt_length", len(req.Prompt)).
		Int("output_length", len(text)).
		Dur("duration", time.Since(start)).
		Msg("prediction completed")

	return ports.Completion{Text: text}, nil
}

// Close frees the native model. The engine is unusable afterwards.
func (e *LocalEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.model != nil {
		e.model.Free()
		e.model = nil
		e.logger.Info().Msg("model freed")
	}
	return nil
}

var _ ports.Engine = (*LocalEngine)(nil)

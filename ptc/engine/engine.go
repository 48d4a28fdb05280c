// Package engine loads a local GGUF model with llama.cpp and serves
// completions for the chat pipeline. Binaries built without the llama tag
// get a stub that reports the engine as unavailable instead.
package engine

import (
	"errors"
	"fmt"
)

// Defaults sized for small quantized models such as phi-2 on CPU.
const (
	DefaultContextSize = 2048
	DefaultThreads     = 8
	DefaultBatchSize   = 256
)

// ErrEngineUnavailable is returned by completions when llama.cpp support is
// not compiled into the binary.
var ErrEngineUnavailable = errors.New("llama.cpp support not compiled into this binary")

// Config holds model loading parameters.
type Config struct {
	ModelPath   string
	ContextSize int
	Threads     int
	BatchSize   int
	GPULayers   int
}

// DefaultConfig returns CPU-only defaults for the given model path.
func DefaultConfig(modelPath string) Config {
	return Config{
		ModelPath:   modelPath,
		ContextSize: DefaultContextSize,
		Threads:     DefaultThreads,
		BatchSize:   DefaultBatchSize,
		GPULayers:   0,
	}
}

// Validate checks the configuration before a model load is attempted.
func (c Config) Validate() error {
	if c.ModelPath == "" {
		return fmt.Errorf("model path cannot be empty")
	}
	if c.ContextSize <= 0 {
		return fmt.Errorf("context size must be positive, got %d", c.ContextSize)
	}
	if c.Threads <= 0 {
		return fmt.Errorf("threads must be positive, got %d", c.Threads)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive, got %d", c.BatchSize)
	}
	if c.GPULayers < 0 {
		return fmt.Errorf("gpu layers cannot be negative, got %d", c.GPULayers)
	}
	return nil
}

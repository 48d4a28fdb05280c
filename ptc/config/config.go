package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	internal "github.com/asterozoa/phi-terminal-chat/ptc"
)

// Config stores all configuration of the application.
// The values are read by viper from a config file or environment variables.
type Config struct {
	Model      ModelConfig      `mapstructure:"model"`
	Generation GenerationConfig `mapstructure:"generation"`
	Chat       ChatConfig       `mapstructure:"chat"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// ModelConfig stores model discovery and loading settings.
type ModelConfig struct {
	Path        string `mapstructure:"path"`         // Explicit model path, skips discovery
	Dir         string `mapstructure:"dir"`          // Directory scanned for .gguf files
	File        string `mapstructure:"file"`         // Preferred file name within dir
	ContextSize int    `mapstructure:"context_size"` // Context window in tokens
	Threads     int    `mapstructure:"threads"`      // CPU threads for inference
	BatchSize   int    `mapstructure:"batch_size"`   // Prompt evaluation batch size
	GPULayers   int    `mapstructure:"gpu_layers"`   // Layers offloaded to GPU
}

// GenerationConfig stores sampling settings applied to every turn.
type GenerationConfig struct {
	MaxTokens         int      `mapstructure:"max_tokens"`         // Completion length cap
	Temperature       float32  `mapstructure:"temperature"`        // Sampling temperature
	TopP              float32  `mapstructure:"top_p"`              // Nucleus sampling
	TopK              int      `mapstructure:"top_k"`              // Top-k sampling
	RepetitionPenalty float32  `mapstructure:"repetition_penalty"` // Repetition penalty
	Stop              []string `mapstructure:"stop"`               // Stop sequences
}

// ChatConfig stores conversation shaping settings.
type ChatConfig struct {
	HistoryWindow int    `mapstructure:"history_window"` // Turns included in each prompt
	Instruction   string `mapstructure:"instruction"`    // Instruction header, empty means built-in
}

// LoggingConfig stores log output settings.
type LoggingConfig struct {
	Level string `mapstructure:"level"` // zerolog level name
	File  string `mapstructure:"file"`  // Log file path, empty disables file logging
}

var AppConfig Config

// LoadConfig reads configuration from file or environment variables.
// Environment variables use the PTC_ prefix with underscores, for example
// PTC_GENERATION_MAX_TOKENS.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath(internal.DefaultConfigPath)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	// Model defaults
	v.SetDefault("model.path", "")
	v.SetDefault("model.dir", internal.DefaultModelsDir)
	v.SetDefault("model.file", internal.DefaultModelFile)
	v.SetDefault("model.context_size", 2048)
	v.SetDefault("model.threads", 8)
	v.SetDefault("model.batch_size", 256)
	v.SetDefault("model.gpu_layers", 0)

	// Generation defaults tuned for short factual answers
	v.SetDefault("generation.max_tokens", 100)
	v.SetDefault("generation.temperature", 0.2)
	v.SetDefault("generation.top_p", 0.8)
	v.SetDefault("generation.top_k", 30)
	v.SetDefault("generation.repetition_penalty", 1.2)
	v.SetDefault("generation.stop", []string{"Human:", "###", "\n\n", "<|endoftext|>"})

	// Chat defaults
	v.SetDefault("chat.history_window", 3)
	v.SetDefault("chat.instruction", "")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.file", "")

	v.SetEnvPrefix("PTC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// An absent config file on the search path is fine, defaults apply.
		// An explicit path must exist.
		if configPath != "" || !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := v.Unmarshal(&AppConfig); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if err := AppConfig.Validate(); err != nil {
		return nil, err
	}

	return &AppConfig, nil
}

// Validate rejects values the engine or the chat loop cannot work with.
func (c *Config) Validate() error {
	if c.Model.ContextSize <= 0 {
		return fmt.Errorf("model.context_size must be positive, got %d", c.Model.ContextSize)
	}
	if c.Model.Threads <= 0 {
		return fmt.Errorf("model.threads must be positive, got %d", c.Model.Threads)
	}
	if c.Model.BatchSize <= 0 {
		return fmt.Errorf("model.batch_size must be positive, got %d", c.Model.BatchSize)
	}
	if c.Model.GPULayers < 0 {
		return fmt.Errorf("model.gpu_layers cannot be negative, got %d", c.Model.GPULayers)
	}
	if c.Generation.MaxTokens <= 0 {
		return fmt.Errorf("generation.max_tokens must be positive, got %d", c.Generation.MaxTokens)
	}
	if c.Generation.Temperature < 0 || c.Generation.Temperature > 2 {
		return fmt.Errorf("generation.temperature must be between 0 and 2, got %f", c.Generation.Temperature)
	}
	if c.Generation.TopP < 0 || c.Generation.TopP > 1 {
		return fmt.Errorf("generation.top_p must be between 0 and 1, got %f", c.Generation.TopP)
	}
	if c.Generation.TopK < 0 {
		return fmt.Errorf("generation.top_k cannot be negative, got %d", c.Generation.TopK)
	}
	if c.Generation.RepetitionPenalty < 0 {
		return fmt.Errorf("generation.repetition_penalty cannot be negative, got %f", c.Generation.RepetitionPenalty)
	}
	if c.Chat.HistoryWindow < 0 {
		return fmt.Errorf("chat.history_window cannot be negative, got %d", c.Chat.HistoryWindow)
	}
	return nil
}

// Command ptc is a terminal chat for a local GGUF language model.
package main

import (
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	internal "github.com/asterozoa/phi-terminal-chat/ptc"
	"github.com/asterozoa/phi-terminal-chat/ptc/chat/adapters"
	"github.com/asterozoa/phi-terminal-chat/ptc/config"
	"github.com/asterozoa/phi-terminal-chat/ptc/tui"
)

// Version is set at build time.
var Version = "0.1.0"

const rootLongDesc = `ptc runs a Phi-2 chat session in your terminal, with inference running
in-process through llama.cpp.

Drop a .gguf model file into the working directory (or point --models-dir
at one) and start chatting. Generation settings come from an optional
config file, PTC_* environment variables, and --preset JSON overrides.`

type rootCommander struct {
	configPath string
	modelPath  string
	modelsDir  string
	presetPath string
	logFile    string
	debug      bool
}

// NewRootCmd builds the root command.
func NewRootCmd() *cobra.Command {
	cmder := &rootCommander{}

	cmd := &cobra.Command{
		Use:     internal.DefaultAppName,
		Short:   "Terminal chat for a local Phi-2 model",
		Long:    rootLongDesc,
		Version: Version,
		Args:    cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return cmder.run()
		},
	}

	cmd.Flags().StringVarP(&cmder.configPath, "config", "c", "", "Path to a config file")
	cmd.Flags().StringVarP(&cmder.modelPath, "model", "m", "", "Explicit .gguf model path, skips discovery")
	cmd.Flags().StringVar(&cmder.modelsDir, "models-dir", "", "Directory scanned for .gguf models")
	cmd.Flags().StringVar(&cmder.presetPath, "preset", "", "Sampling preset JSON file")
	cmd.Flags().StringVar(&cmder.logFile, "log-file", "", "Write logs to this file")
	cmd.Flags().BoolVarP(&cmder.debug, "debug", "d", false, "Enable debug logging")

	return cmd
}

func (c *rootCommander) run() error {
	cfg, err := config.LoadConfig(c.configPath)
	if err != nil {
		return err
	}
	if c.modelPath != "" {
		cfg.Model.Path = c.modelPath
	}
	if c.modelsDir != "" {
		cfg.Model.Dir = c.modelsDir
	}
	if c.logFile != "" {
		cfg.Logging.File = c.logFile
	}
	if c.debug {
		cfg.Logging.Level = "debug"
		if cfg.Logging.File == "" {
			cfg.Logging.File = internal.DefaultAppName + ".log"
		}
	}
	if c.presetPath != "" {
		preset, err := config.LoadPreset(c.presetPath)
		if err != nil {
			return err
		}
		preset.Apply(&cfg.Generation)
	}

	logger, closeLog, err := newLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer closeLog()
	logger.Info().Str("version", Version).Msg("starting")

	model := tui.New(tui.Options{
		Config: cfg,
		Logger: logger,
		Tracer: adapters.NewZerologTracer(logger),
	})

	program := tea.NewProgram(model, tea.WithAltScreen())
	final, err := program.Run()
	if err != nil {
		return fmt.Errorf("running ui: %w", err)
	}
	if m, ok := final.(tui.Model); ok {
		if err := m.Close(); err != nil {
			logger.Warn().Err(err).Msg("closing engine")
		}
	}
	return nil
}

// newLogger builds the app logger. The terminal UI owns the screen, so log
// output goes to a file or nowhere.
func newLogger(cfg config.LoggingConfig) (zerolog.Logger, func(), error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return zerolog.Logger{}, nil, fmt.Errorf("log level %q: %w", cfg.Level, err)
	}

	var w io.Writer = io.Discard
	closeLog := func() {}
	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return zerolog.Logger{}, nil, fmt.Errorf("opening log file: %w", err)
		}
		w = f
		closeLog = func() { f.Close() }
	}

	logger := zerolog.New(w).Level(level).With().Timestamp().Logger()
	return logger, closeLog, nil
}

func main() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

package tui

import (
	"context"
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/asterozoa/phi-terminal-chat/ptc/chat"
	"github.com/asterozoa/phi-terminal-chat/ptc/engine"
	"github.com/asterozoa/phi-terminal-chat/ptc/transcript"
)

// setupEngineCmd resolves a model file and loads it. An explicit path skips
// discovery entirely. Runs off the interactive context; loading a model can
// take a minute on CPU.
func setupEngineCmd(dir, forced, explicit string, cfg engine.Config, logger zerolog.Logger) tea.Cmd {
	return func() tea.Msg {
		if explicit != "" {
			if _, err := os.Stat(explicit); err != nil {
				return engineFailedMsg{err: fmt.Errorf("model %s: %w", explicit, err)}
			}
			return loadEngine(cfg, explicit, logger)
		}
		path, err := engine.FindModel(dir, forced, logger)
		if err != nil {
			if errors.Is(err, engine.ErrNoModel) {
				return noModelMsg{dir: dir}
			}
			return engineFailedMsg{err: err}
		}
		return loadEngine(cfg, path, logger)
	}
}

// loadEngineCmd loads the model at a known path.
func loadEngineCmd(cfg engine.Config, path string, logger zerolog.Logger) tea.Cmd {
	return func() tea.Msg {
		return loadEngine(cfg, path, logger)
	}
}

func loadEngine(cfg engine.Config, path string, logger zerolog.Logger) tea.Msg {
	cfg.ModelPath = path
	eng, err := engine.New(cfg, logger)
	if err != nil {
		return engineFailedMsg{err: err}
	}
	return engineReadyMsg{engine: eng, modelPath: path}
}

// waitForModelCmd blocks until the watcher reports a created .gguf file.
func waitForModelCmd(w *engine.ModelWatcher) tea.Cmd {
	return func() tea.Msg {
		path, ok := <-w.Models()
		if !ok {
			return nil
		}
		return modelArrivedMsg{path: path}
	}
}

// runTurnCmd executes the pending generation on the worker context. The
// result message hands the computed reply back to Update, the only place
// controller and history state change.
func runTurnCmd(pending *chat.PendingTurn) tea.Cmd {
	return func() tea.Msg {
		return turnDoneMsg{result: pending.Run(context.Background())}
	}
}

// saveTranscriptCmd writes the transcript snapshot to a timestamped file.
func saveTranscriptCmd(dir string, entries []transcript.Entry) tea.Cmd {
	return func() tea.Msg {
		path, err := transcript.Save(dir, entries)
		return transcriptSavedMsg{path: path, err: err}
	}
}

package tui

import (
	"github.com/asterozoa/phi-terminal-chat/ptc/chat"
	ports "github.com/asterozoa/phi-terminal-chat/ptc/chat/ports"
)

// Messages delivered into Update by commands running off the interactive
// context. Every state mutation they trigger happens inside Update.

// engineReadyMsg reports a loaded inference engine.
type engineReadyMsg struct {
	engine    ports.Engine
	modelPath string
}

// engineFailedMsg reports that the engine could not be constructed.
type engineFailedMsg struct {
	err error
}

// noModelMsg reports that discovery found no .gguf file under dir.
type noModelMsg struct {
	dir string
}

// modelArrivedMsg reports a model file created in the watched directory.
type modelArrivedMsg struct {
	path string
}

// turnDoneMsg carries a finished generation back from the worker context.
type turnDoneMsg struct {
	result chat.TurnResult
}

// transcriptSavedMsg reports the outcome of a transcript export.
type transcriptSavedMsg struct {
	path string
	err  error
}

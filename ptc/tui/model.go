// Package tui implements the terminal chat screen as a Bubble Tea program
// wrapped around the turn pipeline. The Update loop is the interactive
// context; generation and model loading run in command goroutines and report
// back through messages.
package tui

import (
	"io"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	internal "github.com/asterozoa/phi-terminal-chat/ptc"
	"github.com/asterozoa/phi-terminal-chat/ptc/chat"
	ports "github.com/asterozoa/phi-terminal-chat/ptc/chat/ports"
	"github.com/asterozoa/phi-terminal-chat/ptc/config"
	"github.com/asterozoa/phi-terminal-chat/ptc/engine"
	"github.com/asterozoa/phi-terminal-chat/ptc/transcript"
)

const (
	welcomeText = "Hello! I'm Phi-2, ready to assist you. How can I help you today?"
	clearedText = "Chat history cleared. How can I help you?"

	statusReady      = "Ready"
	statusGenerating = "Generating response..."
	loadingText      = "Loading model (this can take a minute)..."
)

// engineState tracks the inference backend lifecycle.
type engineState int

const (
	engineLoading engineState = iota // discovery or model load in flight
	engineWaiting                    // no model file yet, watcher running
	engineReady
	engineFailed
)

// entryLog collects the rendered conversation, one entry per chat line. It
// implements chat.Notifier so the controller publishes turn lines into it.
// Interactive context only; commands receive snapshots.
type entryLog struct {
	entries []transcript.Entry
}

func (l *entryLog) Notify(role chat.Role, text string, at time.Time) {
	l.entries = append(l.entries, transcript.Entry{At: at, Role: role, Text: text})
}

func (l *entryLog) NotifyReset() {
	l.entries = nil
}

func (l *entryLog) snapshot() []transcript.Entry {
	out := make([]transcript.Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

var _ chat.Notifier = (*entryLog)(nil)

// Options configures the chat program.
type Options struct {
	// Config supplies model, generation, and chat settings. Nil falls back
	// to the built-in Phi-2 defaults.
	Config *config.Config

	Logger zerolog.Logger
	Tracer ports.Tracer // nil disables tracing

	// Engine bypasses discovery and model loading when set.
	Engine ports.Engine

	// SaveDir receives transcript exports. Empty means the working directory.
	SaveDir string
}

// Model is the Bubble Tea model for the chat screen.
type Model struct {
	logger  zerolog.Logger
	tracer  ports.Tracer
	saveDir string

	modelsDir   string
	forcedFile  string
	forcedPath  string
	engCfg      engine.Config
	params      chat.Params
	window      int
	instruction string

	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model
	help     help.Model
	keys     KeyMap

	ctrl    *chat.Controller
	log     *entryLog
	eng     ports.Engine
	watcher *engine.ModelWatcher

	engState  engineState
	modelName string
	failMsg   string
	statusMsg string

	width  int
	height int
	sized  bool
}

// New builds the chat screen from the options.
func New(opts Options) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Type your message here..."
	ti.CharLimit = 2048
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Line

	m := Model{
		logger:     opts.Logger,
		tracer:     opts.Tracer,
		saveDir:    opts.SaveDir,
		modelsDir:  internal.DefaultModelsDir,
		forcedFile: internal.DefaultModelFile,
		engCfg:     engine.DefaultConfig(""),
		params:     chat.DefaultParams(),
		window:     chat.DefaultHistoryWindow,
		viewport:   viewport.New(80, 20),
		input:      ti,
		spinner:    sp,
		help:       help.New(),
		keys:       DefaultKeyMap(),
		log:        &entryLog{},
		eng:        opts.Engine,
		engState:   engineLoading,
	}
	if m.saveDir == "" {
		m.saveDir = "."
	}
	if cfg := opts.Config; cfg != nil {
		m.modelsDir = cfg.Model.Dir
		m.forcedFile = cfg.Model.File
		m.forcedPath = cfg.Model.Path
		m.engCfg = engine.Config{
			ContextSize: cfg.Model.ContextSize,
			Threads:     cfg.Model.Threads,
			BatchSize:   cfg.Model.BatchSize,
			GPULayers:   cfg.Model.GPULayers,
		}
		m.params = chat.Params{
			MaxTokens:         cfg.Generation.MaxTokens,
			Temperature:       cfg.Generation.Temperature,
			TopP:              cfg.Generation.TopP,
			TopK:              cfg.Generation.TopK,
			RepetitionPenalty: cfg.Generation.RepetitionPenalty,
			Stop:              cfg.Generation.Stop,
		}
		m.window = cfg.Chat.HistoryWindow
		m.instruction = cfg.Chat.Instruction
	}
	return m
}

// Close releases the directory watcher and the loaded engine. Call it on the
// final model after the program exits; closing waits for an in-flight
// generation to finish.
func (m Model) Close() error {
	if m.watcher != nil {
		m.watcher.Close()
	}
	if closer, ok := m.eng.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// Init starts the cursor blink, the spinner, and engine setup.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, m.spinner.Tick}
	if m.eng != nil {
		eng := m.eng
		cmds = append(cmds, func() tea.Msg {
			return engineReadyMsg{engine: eng}
		})
	} else {
		cmds = append(cmds, setupEngineCmd(m.modelsDir, m.forcedFile, m.forcedPath, m.engCfg, m.logger))
	}
	return tea.Batch(cmds...)
}

// Update handles messages and advances the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg), nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case engineReadyMsg:
		return m.handleEngineReady(msg)

	case engineFailedMsg:
		m.engState = engineFailed
		m.failMsg = msg.err.Error()
		m.logger.Error().Err(msg.err).Msg("engine init failed")
		m.refreshViewport()
		return m, nil

	case noModelMsg:
		return m.handleNoModel(msg)

	case modelArrivedMsg:
		return m.handleModelArrived(msg)

	case turnDoneMsg:
		return m.handleTurnDone(msg)

	case transcriptSavedMsg:
		if msg.err != nil {
			m.statusMsg = "Failed to save chat: " + msg.err.Error()
		} else {
			m.statusMsg = "Chat saved to " + msg.path
		}
		return m, nil

	case spinner.TickMsg:
		if !m.busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
}

func (m Model) handleResize(msg tea.WindowSizeMsg) Model {
	m.width = msg.Width
	m.height = msg.Height
	m.sized = true

	inputWidth := msg.Width - len(m.input.Prompt) - 2
	if inputWidth < 10 {
		inputWidth = 10
	}
	m.input.Width = inputWidth
	m.help.Width = msg.Width

	chrome := 3 // header + input + status, one line each
	vpHeight := msg.Height - chrome
	if vpHeight < 1 {
		vpHeight = 1
	}
	m.viewport.Width = msg.Width
	m.viewport.Height = vpHeight
	m.refreshViewport()
	return m
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Submit):
		return m.submit()

	case key.Matches(msg, m.keys.Clear):
		return m.clear()

	case key.Matches(msg, m.keys.Save):
		return m.save()

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return m, nil

	case key.Matches(msg, m.keys.Top):
		m.viewport.GotoTop()
		return m, nil

	case key.Matches(msg, m.keys.Bottom):
		m.viewport.GotoBottom()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit hands the typed message to the controller. Blank input and
// submissions while a turn is in flight are dropped.
func (m Model) submit() (tea.Model, tea.Cmd) {
	if m.engState != engineReady || m.ctrl == nil {
		return m, nil
	}
	pending, err := m.ctrl.Submit(m.input.Value())
	if err != nil {
		return m, nil
	}
	m.input.Reset()
	m.statusMsg = ""
	m.refreshViewport()
	m.viewport.GotoBottom()
	return m, tea.Batch(runTurnCmd(pending), m.spinner.Tick)
}

func (m Model) clear() (tea.Model, tea.Cmd) {
	if m.ctrl == nil || !m.ctrl.Clear() {
		return m, nil
	}
	m.log.Notify(chat.RoleAssistant, clearedText, time.Now())
	m.refreshViewport()
	m.viewport.GotoTop()
	return m, nil
}

func (m Model) save() (tea.Model, tea.Cmd) {
	if len(m.log.entries) == 0 {
		m.statusMsg = "No chat content to save!"
		return m, nil
	}
	return m, saveTranscriptCmd(m.saveDir, m.log.snapshot())
}

func (m Model) handleEngineReady(msg engineReadyMsg) (tea.Model, tea.Cmd) {
	m.eng = msg.engine
	m.engState = engineReady
	if msg.modelPath != "" {
		m.modelName = filepath.Base(msg.modelPath)
	}
	m.ctrl = chat.NewController(
		msg.engine,
		chat.NewPromptBuilder(m.instruction),
		chat.NewSanitizer(),
		chat.NewHistory(),
		m.log,
		m.tracer,
		m.params,
		m.window,
	)
	m.log.Notify(chat.RoleAssistant, welcomeText, time.Now())
	m.refreshViewport()
	m.viewport.GotoBottom()
	m.logger.Info().Str("model", m.modelName).Msg("model loaded")
	return m, nil
}

func (m Model) handleNoModel(msg noModelMsg) (tea.Model, tea.Cmd) {
	w, err := engine.WatchForModels(msg.dir, m.logger)
	if err != nil {
		m.engState = engineFailed
		m.failMsg = err.Error()
		m.logger.Error().Err(err).Msg("model watch failed")
		m.refreshViewport()
		return m, nil
	}
	m.watcher = w
	m.engState = engineWaiting
	m.refreshViewport()
	return m, waitForModelCmd(w)
}

func (m Model) handleModelArrived(msg modelArrivedMsg) (tea.Model, tea.Cmd) {
	if m.watcher != nil {
		m.watcher.Close()
		m.watcher = nil
	}
	m.engState = engineLoading
	m.modelName = filepath.Base(msg.path)
	m.refreshViewport()
	return m, tea.Batch(loadEngineCmd(m.engCfg, msg.path, m.logger), m.spinner.Tick)
}

func (m Model) handleTurnDone(msg turnDoneMsg) (tea.Model, tea.Cmd) {
	if m.ctrl == nil {
		return m, nil
	}
	turn := m.ctrl.Resolve(msg.result)
	if msg.result.Err != nil {
		m.logger.Error().Err(msg.result.Err).Str("turn_id", turn.ID).Msg("generation failed")
	} else {
		m.logger.Debug().Str("turn_id", turn.ID).Dur("elapsed", msg.result.Elapsed).Msg("turn complete")
	}
	m.refreshViewport()
	m.viewport.GotoBottom()
	return m, nil
}

func (m Model) busy() bool {
	if m.engState == engineLoading {
		return true
	}
	return m.ctrl != nil && m.ctrl.Generating()
}

func (m *Model) refreshViewport() {
	m.viewport.SetContent(m.renderEntries())
}

package tui

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asterozoa/phi-terminal-chat/ptc/chat"
	ports "github.com/asterozoa/phi-terminal-chat/ptc/chat/ports"
	"github.com/asterozoa/phi-terminal-chat/ptc/transcript"
)

type stubEngine struct {
	reply string
}

func (e *stubEngine) Complete(_ context.Context, _ ports.GenerationRequest) (ports.Completion, error) {
	return ports.Completion{Text: e.reply}, nil
}

var _ ports.Engine = (*stubEngine)(nil)

// recordingTracer captures span and event names for assertions.
type recordingTracer struct {
	mu    sync.Mutex
	names []string
}

func (tr *recordingTracer) StartSpan(ctx context.Context, name string, _ map[string]any) (context.Context, func(error)) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.names = append(tr.names, name)
	return ctx, func(error) {}
}

func (tr *recordingTracer) Event(_ context.Context, name string, _ map[string]any) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.names = append(tr.names, name)
}

func (tr *recordingTracer) snapshot() []string {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return append([]string(nil), tr.names...)
}

var _ ports.Tracer = (*recordingTracer)(nil)

// newReadyModel returns a sized model with a loaded stub engine.
func newReadyModel(t *testing.T, eng ports.Engine, opts Options) Model {
	t.Helper()
	opts.Engine = eng
	opts.Logger = zerolog.Nop()
	m := New(opts)
	m = m.handleResize(tea.WindowSizeMsg{Width: 100, Height: 30})
	updated, _ := m.Update(engineReadyMsg{engine: eng, modelPath: "phi-2.Q4_K_M.gguf"})
	return updated.(Model)
}

func TestEngineReadyShowsWelcome(t *testing.T) {
	m := newReadyModel(t, &stubEngine{reply: "hi"}, Options{})

	require.NotNil(t, m.ctrl)
	assert.Equal(t, engineReady, m.engState)
	assert.Equal(t, "phi-2.Q4_K_M.gguf", m.modelName)
	require.Len(t, m.log.entries, 1)
	assert.Equal(t, chat.RoleAssistant, m.log.entries[0].Role)
	assert.Equal(t, welcomeText, m.log.entries[0].Text)
	assert.Contains(t, m.View(), statusReady)
}

func TestSubmitStartsGeneration(t *testing.T) {
	m := newReadyModel(t, &stubEngine{reply: "hi"}, Options{})
	m.input.SetValue("hello there")

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)

	require.NotNil(t, cmd)
	assert.True(t, m.ctrl.Generating())
	assert.Empty(t, m.input.Value()) // input cleared on accept
	last := m.log.entries[len(m.log.entries)-1]
	assert.Equal(t, chat.RoleUser, last.Role)
	assert.Equal(t, "hello there", last.Text)
	assert.Contains(t, m.View(), statusGenerating)
}

func TestSubmitBlankIsDropped(t *testing.T) {
	m := newReadyModel(t, &stubEngine{reply: "hi"}, Options{})
	m.input.SetValue("   ")

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)

	assert.Nil(t, cmd)
	assert.False(t, m.ctrl.Generating())
	assert.Len(t, m.log.entries, 1) // welcome only
}

func TestTurnDoneResolvesTurn(t *testing.T) {
	m := newReadyModel(t, &stubEngine{reply: "hi"}, Options{})
	m.input.SetValue("hello")
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)

	updated, _ = m.Update(turnDoneMsg{result: chat.TurnResult{
		TurnID:    "turn-1",
		User:      "hello",
		Assistant: "hi there",
	}})
	m = updated.(Model)

	assert.False(t, m.ctrl.Generating())
	last := m.log.entries[len(m.log.entries)-1]
	assert.Equal(t, chat.RoleAssistant, last.Role)
	assert.Equal(t, "hi there", last.Text)
	assert.Contains(t, m.View(), statusReady)
}

func TestClearIgnoredWhileGenerating(t *testing.T) {
	m := newReadyModel(t, &stubEngine{reply: "hi"}, Options{})
	m.input.SetValue("hello")
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)
	before := len(m.log.entries)

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlL})
	m = updated.(Model)

	assert.Len(t, m.log.entries, before) // untouched mid-flight
	assert.True(t, m.ctrl.Generating())

	updated, _ = m.Update(turnDoneMsg{result: chat.TurnResult{User: "hello", Assistant: "hi"}})
	m = updated.(Model)
	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlL})
	m = updated.(Model)

	require.Len(t, m.log.entries, 1)
	assert.Equal(t, clearedText, m.log.entries[0].Text)
}

func TestSaveWithNoEntries(t *testing.T) {
	m := New(Options{Logger: zerolog.Nop()})
	m = m.handleResize(tea.WindowSizeMsg{Width: 80, Height: 24})

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	m = updated.(Model)

	assert.Nil(t, cmd)
	assert.Equal(t, "No chat content to save!", m.statusMsg)
}

func TestSaveWritesTranscript(t *testing.T) {
	dir := t.TempDir()
	m := newReadyModel(t, &stubEngine{reply: "hi"}, Options{SaveDir: dir})

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	m = updated.(Model)
	require.NotNil(t, cmd)

	msg := cmd()
	saved, ok := msg.(transcriptSavedMsg)
	require.True(t, ok)
	require.NoError(t, saved.err)
	assert.Contains(t, saved.path, "chat_")

	updated, _ = m.Update(saved)
	m = updated.(Model)
	assert.Contains(t, m.statusMsg, "Chat saved to")
}

func TestNoModelStartsWatcher(t *testing.T) {
	dir := t.TempDir()
	m := New(Options{Logger: zerolog.Nop()})
	m.modelsDir = dir
	m = m.handleResize(tea.WindowSizeMsg{Width: 80, Height: 24})

	updated, cmd := m.Update(noModelMsg{dir: dir})
	m = updated.(Model)

	require.NotNil(t, m.watcher)
	require.NotNil(t, cmd)
	assert.Equal(t, engineWaiting, m.engState)
	assert.Contains(t, m.renderEntries(), "Put a .gguf model file under:")

	// Closing the watcher ends the pending wait without a model.
	require.NoError(t, m.Close())
	assert.Nil(t, cmd())
}

func TestModelArrivedStartsLoad(t *testing.T) {
	m := New(Options{Logger: zerolog.Nop()})
	m = m.handleResize(tea.WindowSizeMsg{Width: 80, Height: 24})
	m.engState = engineWaiting

	updated, cmd := m.Update(modelArrivedMsg{path: "models/phi-2.Q4_K_M.gguf"})
	m = updated.(Model)

	require.NotNil(t, cmd)
	assert.Equal(t, engineLoading, m.engState)
	assert.Equal(t, "phi-2.Q4_K_M.gguf", m.modelName)
	assert.Contains(t, m.renderEntries(), "Loading model")
}

func TestEngineFailedShowsError(t *testing.T) {
	m := New(Options{Logger: zerolog.Nop()})
	m = m.handleResize(tea.WindowSizeMsg{Width: 80, Height: 24})

	updated, _ := m.Update(engineFailedMsg{err: context.DeadlineExceeded})
	m = updated.(Model)

	assert.Equal(t, engineFailed, m.engState)
	assert.Contains(t, m.renderEntries(), "Failed to initialize model:")
	assert.Contains(t, m.View(), "Engine unavailable")
}

func TestRunTurnCmdProducesResult(t *testing.T) {
	ctrl := chat.NewController(
		&stubEngine{reply: "All good."},
		chat.NewPromptBuilder(""),
		chat.NewSanitizer(),
		chat.NewHistory(),
		nil, nil,
		chat.Params{}, 0,
	)
	pending, err := ctrl.Submit("how are you")
	require.NoError(t, err)

	msg := runTurnCmd(pending)()
	done, ok := msg.(turnDoneMsg)
	require.True(t, ok)
	assert.Equal(t, "All good.", done.result.Assistant)
	assert.NoError(t, done.result.Err)
}

// TestTracerWiredThroughOptions verifies the tracer handed in via Options
// reaches the controller and sees turn lifecycle events.
func TestTracerWiredThroughOptions(t *testing.T) {
	tracer := &recordingTracer{}
	m := newReadyModel(t, &stubEngine{reply: "hi"}, Options{Tracer: tracer})
	m.input.SetValue("hello")

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)

	require.NotNil(t, cmd)
	require.True(t, m.ctrl.Generating())
	assert.Contains(t, tracer.snapshot(), "turn_accepted")
}

func TestRenderEntryFormat(t *testing.T) {
	m := New(Options{Logger: zerolog.Nop()})
	m = m.handleResize(tea.WindowSizeMsg{Width: 100, Height: 30})

	at := time.Date(2024, 3, 14, 15, 9, 26, 0, time.UTC)
	m.log.entries = []transcript.Entry{
		{At: at, Role: chat.RoleUser, Text: "Hello"},
		{At: at.Add(5 * time.Second), Role: chat.RoleAssistant, Text: "Hi!"},
	}

	out := m.renderEntries()
	assert.Contains(t, out, "[15:09:26]")
	assert.Contains(t, out, "You:")
	assert.Contains(t, out, "[15:09:31]")
	assert.Contains(t, out, "AI:")
	assert.True(t, strings.Contains(out, "\n\n"), "entries separated by a blank line")
}

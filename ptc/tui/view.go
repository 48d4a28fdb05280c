package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/asterozoa/phi-terminal-chat/ptc/chat"
	"github.com/asterozoa/phi-terminal-chat/ptc/transcript"
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#81c784"))
	modelInfoStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#aaaaaa"))
	stampStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#aaaaaa"))
	userLabelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#4fc3f7"))
	aiLabelStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#81c784"))
	readyStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#81c784"))
	workingStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffb74d"))
	failedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#e57373"))
	noteStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#aaaaaa")).Italic(true)
)

// View renders the chat screen: header, transcript viewport, input line,
// status bar.
func (m Model) View() string {
	if !m.sized {
		return "Loading..."
	}
	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.renderHeader(),
		m.viewport.View(),
		m.input.View(),
		m.renderStatus(),
	)
}

func (m Model) renderHeader() string {
	title := titleStyle.Render("Phi-2 Chatbot")
	if m.modelName != "" {
		title += modelInfoStyle.Render(" | " + m.modelName)
	}
	return title
}

func (m Model) renderStatus() string {
	var state string
	switch {
	case m.engState == engineFailed:
		state = failedStyle.Render("Engine unavailable")
	case m.engState == engineWaiting:
		state = workingStyle.Render("Waiting for model")
	case m.engState == engineLoading:
		state = workingStyle.Render(m.spinner.View() + " Loading model")
	case m.ctrl != nil && m.ctrl.Generating():
		state = workingStyle.Render(m.spinner.View() + " " + statusGenerating)
	default:
		state = readyStyle.Render(statusReady)
	}

	note := m.help.ShortHelpView(m.keys.ShortHelp())
	if m.statusMsg != "" {
		note = noteStyle.Render(m.statusMsg)
	}

	gap := m.width - lipgloss.Width(state) - lipgloss.Width(note)
	if gap < 1 {
		gap = 1
	}
	return state + strings.Repeat(" ", gap) + note
}

// renderEntries renders the transcript, one timestamped line per entry with
// a blank line between entries. Empty transcripts show the engine lifecycle
// hint instead.
func (m Model) renderEntries() string {
	if len(m.log.entries) == 0 {
		switch m.engState {
		case engineWaiting:
			return noteStyle.Render("Put a .gguf model file under: " + m.modelsDir)
		case engineFailed:
			return failedStyle.Render("Failed to initialize model: " + m.failMsg)
		default:
			return noteStyle.Render(loadingText)
		}
	}

	var b strings.Builder
	for i, e := range m.log.entries {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(m.renderEntry(e))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderEntry(e transcript.Entry) string {
	label := userLabelStyle
	if e.Role != chat.RoleUser {
		label = aiLabelStyle
	}
	head := stampStyle.Render("["+e.At.Format("15:04:05")+"] ") + label.Render(e.Label()+":")

	width := m.viewport.Width
	if width <= 0 {
		width = 80
	}
	return lipgloss.NewStyle().Width(width).Render(head + " " + e.Text)
}

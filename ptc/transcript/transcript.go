// Package transcript renders conversations as plain text files.
package transcript

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/asterozoa/phi-terminal-chat/ptc/chat"
)

const header = "Phi-2 Chat Conversation\n"

// ErrEmptyTranscript is returned when there is nothing to save.
var ErrEmptyTranscript = errors.New("transcript is empty")

// Entry is one displayed line of conversation.
type Entry struct {
	At   time.Time
	Role chat.Role
	Text string
}

// Label returns the display name used in the transcript.
func (e Entry) Label() string {
	switch e.Role {
	case chat.RoleUser:
		return "You"
	case chat.RoleAssistant:
		return "AI"
	default:
		return string(e.Role)
	}
}

// Write renders entries to w with the standard header.
func Write(w io.Writer, entries []Entry) error {
	if len(entries) == 0 {
		return ErrEmptyTranscript
	}

	var b strings.Builder
	b.WriteString(header)
	b.WriteString(strings.Repeat("=", 50))
	b.WriteString("\n\n")

	for _, e := range entries {
		fmt.Fprintf(&b, "[%s] %s: %s\n\n", e.At.Format("15:04:05"), e.Label(), e.Text)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// Save writes entries to a timestamped file under dir and returns its path.
// An empty dir means the working directory.
func Save(dir string, entries []Entry) (string, error) {
	if len(entries) == 0 {
		return "", ErrEmptyTranscript
	}
	if dir == "" {
		dir = "."
	}

	name := fmt.Sprintf("chat_%s.txt", time.Now().Format("20060102_150405"))
	path := filepath.Join(dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating transcript %s: %w", path, err)
	}

	if err := Write(f, entries); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing transcript %s: %w", path, err)
	}
	return path, nil
}

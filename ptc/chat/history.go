package chat

import (
	"time"
)

// Role identifies the author of a chat line.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one completed user/assistant exchange. Immutable once created;
// error-placeholder replies produce a Turn like any other so the
// conversation log stays contiguous.
type Turn struct {
	ID        string
	User      string
	Assistant string
	CreatedAt time.Time
}

// History is the ordered record of completed turns, oldest first. Storage is
// unbounded; prompt building only ever reads the most recent window. Not
// safe for concurrent use: the turn controller mutates it exclusively from
// the interactive context.
type History struct {
	turns []Turn
}

// NewHistory returns an empty history.
func NewHistory() *History {
	return &History{}
}

// Append adds a completed turn to the end of the history.
func (h *History) Append(turn Turn) {
	h.turns = append(h.turns, turn)
}

// Recent returns the last n turns in chronological order. Returns fewer when
// the history is shorter, and nothing for n <= 0. The slice is a fresh copy;
// callers may hold it across the worker handoff.
func (h *History) Recent(n int) []Turn {
	if n <= 0 || len(h.turns) == 0 {
		return nil
	}
	if n > len(h.turns) {
		n = len(h.turns)
	}
	out := make([]Turn, n)
	copy(out, h.turns[len(h.turns)-n:])
	return out
}

// Clear empties the history wholesale.
func (h *History) Clear() {
	h.turns = nil
}

// Len reports the number of stored turns.
func (h *History) Len() int {
	return len(h.turns)
}

package chat

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHistory_RecentWindow(t *testing.T) {
	h := NewHistory()
	for i := 1; i <= 5; i++ {
		h.Append(Turn{User: fmt.Sprintf("question %d", i), Assistant: fmt.Sprintf("answer %d", i)})
	}

	// Window smaller than stored turns: newest three, oldest first.
	recent := h.Recent(3)
	assert.Len(t, recent, 3)
	assert.Equal(t, "question 3", recent[0].User)
	assert.Equal(t, "question 4", recent[1].User)
	assert.Equal(t, "question 5", recent[2].User)

	// Window larger than stored turns: everything, still oldest first.
	all := h.Recent(10)
	assert.Len(t, all, 5)
	assert.Equal(t, "question 1", all[0].User)
	assert.Equal(t, "question 5", all[4].User)

	assert.Equal(t, 5, h.Len())
}

func TestHistory_RecentEmptyAndZero(t *testing.T) {
	h := NewHistory()
	assert.Nil(t, h.Recent(3))

	h.Append(Turn{User: "hello", Assistant: "hi"})
	assert.Nil(t, h.Recent(0))
	assert.Nil(t, h.Recent(-1))
}

// TestHistory_RecentReturnsCopy verifies callers cannot mutate stored turns
// through the returned slice.
func TestHistory_RecentReturnsCopy(t *testing.T) {
	h := NewHistory()
	h.Append(Turn{User: "one", Assistant: "first"})
	h.Append(Turn{User: "two", Assistant: "second"})

	window := h.Recent(2)
	window[0].User = "mutated"
	window[1].Assistant = "also mutated"

	fresh := h.Recent(2)
	assert.Equal(t, "one", fresh[0].User)
	assert.Equal(t, "second", fresh[1].Assistant)
}

func TestHistory_Clear(t *testing.T) {
	h := NewHistory()
	h.Append(Turn{User: "hello", Assistant: "hi"})
	h.Append(Turn{User: "bye", Assistant: "goodbye"})

	h.Clear()

	assert.Equal(t, 0, h.Len())
	assert.Nil(t, h.Recent(3))

	// Appending after a clear starts a fresh conversation.
	h.Append(Turn{User: "again", Assistant: "welcome back"})
	assert.Equal(t, 1, h.Len())
	assert.Equal(t, "again", h.Recent(1)[0].User)
}

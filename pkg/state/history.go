package state

import (
	"slices"
	"time"
)

const (
	// HistoryCapacity is how many recent entries are kept in play.
	HistoryCapacity = 50
	// PersistedHistoryLimit is how many entries a save carries.
	PersistedHistoryLimit = 100
)

// Entry is one handled command.
type Entry struct {
	Action    string    `json:"action"`
	Response  string    `json:"response"`
	GameTime  string    `json:"game_time"`
	Timestamp time.Time `json:"timestamp"`
}

// History is a bounded log of recent commands. It keeps up to
// PersistedHistoryLimit entries so a save can carry them, while Recent
// exposes the last HistoryCapacity.
type History struct {
	entries []Entry
}

func NewHistory(entries ...Entry) *History {
	h := &History{}
	for _, e := range entries {
		h.Add(e)
	}
	return h
}

// Add appends an entry, dropping the oldest when full.
func (h *History) Add(e Entry) {
	h.entries = append(h.entries, e)
	if over := len(h.entries) - PersistedHistoryLimit; over > 0 {
		h.entries = slices.Delete(h.entries, 0, over)
	}
}

// Recent returns up to the last HistoryCapacity entries, oldest first.
func (h *History) Recent() []Entry {
	return h.Last(HistoryCapacity)
}

// Last returns up to the last n entries, oldest first.
func (h *History) Last(n int) []Entry {
	n = min(max(n, 0), len(h.entries))
	return slices.Clone(h.entries[len(h.entries)-n:])
}

// All returns every retained entry, oldest first.
func (h *History) All() []Entry {
	return slices.Clone(h.entries)
}

func (h *History) Len() int {
	return len(h.entries)
}

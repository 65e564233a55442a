package memory

import (
	"strings"
	"sync"
)

// Memory is the conversation log consumed by the generation loop: an
// append-only, ordered sequence of text fragments keyed by an opaque session
// identifier. Implementations must guarantee that concurrent appends under
// different session keys never interleave within a single key's sequence and
// that reads observe all prior appends for that key.
type Memory interface {
	// Add appends a text fragment to the session's history.
	Add(text string, sessionID string)

	// History returns the session's fragments joined into a single prompt
	// section, or the empty string for an unknown session.
	History(sessionID string) string

	// Entries returns a copy of the session's fragments in append order.
	Entries(sessionID string) []string
}

// InMemoryStore is a process-local Memory keeping per-session fragment slices.
//
// Concurrency: protected by RWMutex. Appends under one key are serialized by
// the write lock, which provides the per-key happens-before ordering the
// generation loop relies on.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]string // sessionID -> ordered fragments
}

// NewInMemoryStore creates a new in-memory conversation store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[string][]string)}
}

// Add appends a fragment to the session's ordered history.
func (m *InMemoryStore) Add(text string, sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sessionID] = append(m.sessions[sessionID], text)
}

// History joins the session's fragments with newlines.
func (m *InMemoryStore) History(sessionID string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return strings.Join(m.sessions[sessionID], "\n")
}

// Entries returns a defensive copy of the session's fragments.
func (m *InMemoryStore) Entries(sessionID string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entries := make([]string, len(m.sessions[sessionID]))
	copy(entries, m.sessions[sessionID])
	return entries
}

// Reset discards the history of a single session.
func (m *InMemoryStore) Reset(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
}

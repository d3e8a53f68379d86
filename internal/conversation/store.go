// Package conversation persists per-session chat history.
package conversation

import (
	"context"
	"sync"
	"time"
)

const clientPingTimeout = 5 * time.Second

// Role identifies who produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message in a session. MessageID is set on assistant turns
// only.
type Turn struct {
	Role      Role   `json:"role"`
	Text      string `json:"text"`
	MessageID string `json:"message_id,omitempty"`
}

// Store persists session history. Implementations truncate each session to
// a configured maximum, dropping the oldest turns first.
type Store interface {
	Append(ctx context.Context, sessionID string, turns ...Turn) error
	Read(ctx context.Context, sessionID string) ([]Turn, error)
}

// MemoryStore keeps sessions in a mutex-guarded map for the process
// lifetime. Concurrent appends to the same session are last-writer-wins.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]Turn
	maxTurns int
}

// NewMemoryStore creates an in-memory session store.
func NewMemoryStore(maxTurns int) *MemoryStore {
	if maxTurns <= 0 {
		maxTurns = 20
	}
	return &MemoryStore{
		sessions: make(map[string][]Turn),
		maxTurns: maxTurns,
	}
}

// Append adds turns to a session, truncating to maxTurns oldest-first.
func (s *MemoryStore) Append(ctx context.Context, sessionID string, turns ...Turn) error {
	if len(turns) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	history := append(s.sessions[sessionID], turns...)
	if len(history) > s.maxTurns {
		history = history[len(history)-s.maxTurns:]
	}
	s.sessions[sessionID] = history
	return nil
}

// Read returns a copy of the session history, oldest first.
func (s *MemoryStore) Read(ctx context.Context, sessionID string) ([]Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.sessions[sessionID]
	out := make([]Turn, len(history))
	copy(out, history)
	return out, nil
}

var _ Store = (*MemoryStore)(nil)

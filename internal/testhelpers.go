package internal

import (
	"context"
	"fmt"
	"sync"
)

// CreateTestSession creates a test session with sample data
func CreateTestSession(id string) *Session {
	return &Session{
		ID:    id,
		Title: "Test Conversation",
		Messages: []Message{
			UserMessage("Hello, how are you?"),
			AssistantMessage("I'm doing well, thank you!"),
		},
	}
}

// CreateTestSessionWithMessages creates a test session with custom messages
func CreateTestSessionWithMessages(id string, messages []Message) *Session {
	return &Session{
		ID:       id,
		Title:    "Test Conversation",
		Messages: messages,
	}
}

// MemoryKV is an in-memory KVStore for tests
type MemoryKV struct {
	mu     sync.Mutex
	values map[string]string
	writes int
	// FailWrites makes Set return an error
	FailWrites bool
}

// NewMemoryKV creates an empty MemoryKV
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{values: make(map[string]string)}
}

// Get implements KVStore
func (m *MemoryKV) Get(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}

// Set implements KVStore
func (m *MemoryKV) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites {
		return &PersistenceError{Op: "write", Key: key, Err: fmt.Errorf("quota exceeded")}
	}
	m.values[key] = value
	m.writes++
	return nil
}

// Writes returns how many successful Set calls were made
func (m *MemoryKV) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

// RecordingPurger records purge requests
type RecordingPurger struct {
	mu  sync.Mutex
	ids []string
	Err error
}

// Purge implements Purger
func (p *RecordingPurger) Purge(_ context.Context, sessionID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ids = append(p.ids, sessionID)
	return p.Err
}

// IDs returns the purged session ids in call order
func (p *RecordingPurger) IDs() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.ids))
	copy(out, p.ids)
	return out
}

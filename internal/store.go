package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
)

// StateKey is the storage key holding the persisted session collection
const StateKey = "chats_state"

const (
	defaultPersistDelay = 500 * time.Millisecond
	defaultPurgeTimeout = 30 * time.Second
)

var defaultTitlePattern = regexp.MustCompile(`^Chat\s+(\d+)$`)

// Purger forgets backend-side memory for a session
type Purger interface {
	Purge(ctx context.Context, sessionID string) error
}

// StoreOptions configures a Store
type StoreOptions struct {
	PersistDelay time.Duration
	Purger       Purger
	PurgeTimeout time.Duration
	NewID        func() string
}

// Store exclusively owns the session collection. Mutations are serialized and
// persisted through a debounced write; reads return copies.
type Store struct {
	mu       sync.Mutex
	kv       KVStore
	sessions *SessionCollection
	opts     StoreOptions
	persist  *Debouncer
	purges   sync.WaitGroup
	closed   bool

	// writeMu orders snapshot+write pairs so an older snapshot never lands last
	writeMu sync.Mutex
}

// NewStore creates an empty store over kv. Call Restore or RestoreOrCreate to load prior state.
func NewStore(kv KVStore, opts StoreOptions) *Store {
	if opts.PersistDelay <= 0 {
		opts.PersistDelay = defaultPersistDelay
	}
	if opts.PurgeTimeout <= 0 {
		opts.PurgeTimeout = defaultPurgeTimeout
	}
	if opts.NewID == nil {
		opts.NewID = NewSessionID
	}
	s := &Store{
		kv:       kv,
		sessions: NewSessionCollection(),
		opts:     opts,
	}
	s.persist = NewDebouncer(opts.PersistDelay, func() {
		if err := s.Persist(); err != nil {
			LogWarn("Failed to persist sessions: %v", err)
		}
	})
	return s
}

// NewSessionID generates a globally unique session id
func NewSessionID() string {
	return "chat_" + uuid.NewString()
}

// NextDefaultTitle returns "Chat N" for the smallest N >= 1 not already used by a title
func NextDefaultTitle(titles []string) string {
	used := make(map[int]bool, len(titles))
	for _, t := range titles {
		m := defaultTitlePattern.FindStringSubmatch(t)
		if m == nil {
			continue
		}
		if n, err := strconv.Atoi(m[1]); err == nil {
			used[n] = true
		}
	}
	n := 1
	for used[n] {
		n++
	}
	return fmt.Sprintf("Chat %d", n)
}

// CreateSession inserts an empty session, makes it active and returns its id.
// A blank title gets the next free default title.
func (s *Store) CreateSession(title string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.createLocked(title)
	s.persist.Schedule()
	return id
}

func (s *Store) createLocked(title string) string {
	if title == "" {
		titles := make([]string, 0, s.sessions.Len())
		for _, id := range s.sessions.IDs() {
			sess, _ := s.sessions.Get(id)
			titles = append(titles, sess.Title)
		}
		title = NextDefaultTitle(titles)
	}

	id := s.opts.NewID()
	for s.sessions.Has(id) {
		id = s.opts.NewID()
	}
	// id is fresh and non-empty, so neither call can fail
	_ = s.sessions.Add(Session{ID: id, Title: title, Messages: []Message{}})
	_ = s.sessions.SetActive(id)
	LogDebug("Created session %s (%s)", id, title)
	return id
}

// DeleteSession removes a session. Deleting the active session selects the first remaining
// one, or creates a fresh session when none remain. The backend purge runs in the background.
func (s *Store) DeleteSession(id string) error {
	s.mu.Lock()
	if !s.sessions.Remove(id) {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if s.sessions.ActiveID() == id {
		if first, ok := s.sessions.First(); ok {
			_ = s.sessions.SetActive(first)
		} else {
			_ = s.sessions.SetActive("")
			s.createLocked("")
		}
	}
	s.persist.Schedule()
	s.mu.Unlock()

	LogDebug("Deleted session %s", id)
	s.purge(id)
	return nil
}

func (s *Store) purge(id string) {
	if s.opts.Purger == nil {
		return
	}
	s.purges.Add(1)
	go func() {
		defer s.purges.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.opts.PurgeTimeout)
		defer cancel()
		if err := s.opts.Purger.Purge(ctx, id); err != nil {
			LogWarn("Backend purge failed: %v", err)
		}
	}()
}

// AppendMessage appends to the given session whether or not it is active
func (s *Store) AppendMessage(sessionID string, msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions.Get(sessionID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	sess.Messages = append(sess.Messages, msg)
	s.persist.Schedule()
	return nil
}

// SwitchActive moves the active pointer to an existing session
func (s *Store) SwitchActive(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.sessions.SetActive(id); err != nil {
		return err
	}
	s.persist.Schedule()
	return nil
}

// ActiveID returns the active session id
func (s *Store) ActiveID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions.ActiveID()
}

// IsActive reports whether id is the active session
func (s *Store) IsActive(id string) bool {
	return s.ActiveID() == id
}

// Session returns a copy of the session with the given id
func (s *Store) Session(id string) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions.Get(id)
	if !ok {
		return Session{}, false
	}
	return sess.clone(), true
}

// List returns session summaries in display order
func (s *Store) List() []SessionSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	active := s.sessions.ActiveID()
	out := make([]SessionSummary, 0, s.sessions.Len())
	for _, id := range s.sessions.IDs() {
		sess, _ := s.sessions.Get(id)
		out = append(out, SessionSummary{
			ID:           id,
			Title:        sess.Title,
			MessageCount: len(sess.Messages),
			Active:       id == active,
		})
	}
	return out
}

// Len returns the number of sessions
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions.Len()
}

// Persist writes the collection to storage now. Failures never roll back memory.
func (s *Store) Persist() error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	data, err := json.Marshal(s.sessions)
	s.mu.Unlock()
	if err != nil {
		return &PersistenceError{Op: "encode", Key: StateKey, Err: err}
	}
	if err := s.kv.Set(StateKey, string(data)); err != nil {
		return err
	}
	LogDebug("Persisted %d bytes under %s", len(data), StateKey)
	return nil
}

// Restore replaces the in-memory collection with the persisted one. Missing or
// malformed data is treated as no prior state.
func (s *Store) Restore() error {
	raw, ok, err := s.kv.Get(StateKey)
	if err != nil {
		return err
	}

	restored := NewSessionCollection()
	if ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), restored); err != nil {
			LogWarn("Ignoring malformed saved state: %v", err)
			restored = NewSessionCollection()
		}
	}

	s.mu.Lock()
	s.sessions = restored
	s.mu.Unlock()
	LogDebug("Restored %d sessions", restored.Len())
	return nil
}

// RestoreOrCreate restores saved state and guarantees an active session: the restored
// active id if valid, else the first session, else a new one. It returns the active id.
func (s *Store) RestoreOrCreate() (string, error) {
	if err := s.Restore(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sessions.ActiveID() == "" {
		if first, ok := s.sessions.First(); ok {
			_ = s.sessions.SetActive(first)
		} else {
			s.createLocked("")
		}
		s.persist.Schedule()
	}
	return s.sessions.ActiveID(), nil
}

// Close forces a final persist and waits for in-flight purges
func (s *Store) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.persist.Close()
	s.purges.Wait()
}

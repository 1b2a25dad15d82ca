package internal

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// SessionCollection maps session ids to sessions in display order and tracks the active id.
// An empty active id is only valid while the collection is empty.
type SessionCollection struct {
	order    []string
	sessions map[string]*Session
	activeID string
}

// NewSessionCollection creates an empty collection
func NewSessionCollection() *SessionCollection {
	return &SessionCollection{sessions: make(map[string]*Session)}
}

// Len returns the number of sessions
func (c *SessionCollection) Len() int {
	return len(c.order)
}

// Has reports whether id keys a session
func (c *SessionCollection) Has(id string) bool {
	_, ok := c.sessions[id]
	return ok
}

// Get returns the live session for id
func (c *SessionCollection) Get(id string) (*Session, bool) {
	s, ok := c.sessions[id]
	return s, ok
}

// IDs returns session ids in display order
func (c *SessionCollection) IDs() []string {
	ids := make([]string, len(c.order))
	copy(ids, c.order)
	return ids
}

// ActiveID returns the active session id, or "" when none is active
func (c *SessionCollection) ActiveID() string {
	return c.activeID
}

// Add appends a session at the end of the display order
func (c *SessionCollection) Add(s Session) error {
	if s.ID == "" {
		return fmt.Errorf("session id must not be empty")
	}
	if c.Has(s.ID) {
		return fmt.Errorf("duplicate session id %q", s.ID)
	}
	if s.Messages == nil {
		s.Messages = []Message{}
	}
	c.sessions[s.ID] = &s
	c.order = append(c.order, s.ID)
	return nil
}

// Remove deletes a session. The active id is left untouched; callers repair it.
func (c *SessionCollection) Remove(id string) bool {
	if !c.Has(id) {
		return false
	}
	delete(c.sessions, id)
	for i, oid := range c.order {
		if oid == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return true
}

// SetActive points the active id at an existing session, or clears it with ""
func (c *SessionCollection) SetActive(id string) error {
	if id != "" && !c.Has(id) {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	c.activeID = id
	return nil
}

// First returns the first session id in display order
func (c *SessionCollection) First() (string, bool) {
	if len(c.order) == 0 {
		return "", false
	}
	return c.order[0], true
}

// persistedSession is the stored shape of one session; the id is the map key
type persistedSession struct {
	Title    string    `json:"title"`
	Messages []Message `json:"messages"`
}

// MarshalJSON writes {"chats": {id: {title, messages}}, "currentChatId": id|null}
// with chats in display order.
func (c *SessionCollection) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"chats":{`)
	for i, id := range c.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		s := c.sessions[id]
		kb, err := json.Marshal(id)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(persistedSession{Title: s.Title, Messages: s.Messages})
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteString(`},"currentChatId":`)
	if c.activeID == "" {
		buf.WriteString("null")
	} else {
		ab, err := json.Marshal(c.activeID)
		if err != nil {
			return nil, err
		}
		buf.Write(ab)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON restores a collection written by MarshalJSON. Entries that are not
// objects are skipped; an unknown active id is cleared.
func (c *SessionCollection) UnmarshalJSON(data []byte) error {
	v, err := DecodeOrdered(data)
	if err != nil {
		return err
	}
	root, ok := v.(*Object)
	if !ok {
		return fmt.Errorf("state must be an object, got %s", kindOf(v))
	}

	fresh := NewSessionCollection()
	if rawChats, ok := root.Get("chats"); ok && rawChats != nil {
		chats, ok := rawChats.(*Object)
		if !ok {
			return fmt.Errorf("chats must be an object, got %s", kindOf(rawChats))
		}
		for _, id := range chats.Keys {
			entry, ok := chats.Values[id].(*Object)
			if !ok {
				LogWarn("Skipping malformed chat entry %s", id)
				continue
			}
			if err := fresh.Add(decodeSession(id, entry)); err != nil {
				LogWarn("Skipping chat entry %s: %v", id, err)
			}
		}
	}

	if rawActive, ok := root.Get("currentChatId"); ok {
		if active, ok := rawActive.(string); ok && fresh.Has(active) {
			fresh.activeID = active
		}
	}

	*c = *fresh
	return nil
}

func decodeSession(id string, entry *Object) Session {
	s := Session{ID: id, Messages: []Message{}}
	if title, ok := entry.Get("title"); ok {
		s.Title = coerceString(title)
	}
	rawMsgs, _ := entry.Get("messages")
	msgs, _ := rawMsgs.([]any)
	for _, raw := range msgs {
		m, ok := raw.(*Object)
		if !ok {
			continue
		}
		text, _ := m.Get("text")
		sender, _ := m.Get("sender")
		msg := Message{Text: coerceString(text), Sender: Sender(coerceString(sender))}
		// anything that is not the user renders as the assistant
		if msg.Sender != SenderUser {
			msg.Sender = SenderAssistant
		}
		s.Messages = append(s.Messages, msg)
	}
	return s
}

package internal

import "strings"

// Sender identifies who authored a message
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// Valid reports whether s is a known sender
func (s Sender) Valid() bool {
	return s == SenderUser || s == SenderAssistant
}

// Message is one entry of a chat history. Messages are never edited once appended.
type Message struct {
	Text   string `json:"text" yaml:"text"`
	Sender Sender `json:"sender" yaml:"sender"`
}

// UserMessage builds a message authored by the user
func UserMessage(text string) Message {
	return Message{Text: text, Sender: SenderUser}
}

// AssistantMessage builds a message authored by the backend
func AssistantMessage(text string) Message {
	return Message{Text: text, Sender: SenderAssistant}
}

// Session is one independent chat conversation
type Session struct {
	ID       string    `json:"id" yaml:"id"`
	Title    string    `json:"title" yaml:"title"`
	Messages []Message `json:"messages" yaml:"messages"`
}

// DisplayTitle returns the title used by front ends, falling back for blank titles
func (s Session) DisplayTitle() string {
	if t := strings.TrimSpace(s.Title); t != "" {
		return t
	}
	return "(untitled)"
}

// clone returns a deep copy so callers never share the store's backing arrays
func (s Session) clone() Session {
	msgs := make([]Message, len(s.Messages))
	copy(msgs, s.Messages)
	s.Messages = msgs
	return s
}

// SessionSummary is the list view of a session
type SessionSummary struct {
	ID           string `json:"id" yaml:"id"`
	Title        string `json:"title" yaml:"title"`
	MessageCount int    `json:"message_count" yaml:"message_count"`
	Active       bool   `json:"active" yaml:"active"`
}

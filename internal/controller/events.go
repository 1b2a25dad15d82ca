package controller

import "github.com/iksnae/wakechat/internal"

// EventKind identifies a render event
type EventKind string

const (
	// EventSessionSwitched carries the full history of the newly active session
	EventSessionSwitched EventKind = "session-switched"
	// EventMessageAppended carries one message appended to the active session
	EventMessageAppended EventKind = "message-appended"
	// EventPendingStarted shows a transient loader; it is never stored
	EventPendingStarted EventKind = "pending-started"
	// EventPendingCleared removes the loader
	EventPendingCleared EventKind = "pending-cleared"
	// EventSessionsChanged carries the session list
	EventSessionsChanged EventKind = "sessions-changed"
	// EventBusyChanged reports guard transitions
	EventBusyChanged EventKind = "busy-changed"
)

// Fixed labels shown by front ends
const (
	ThinkingLabel    = "Thinking"
	EmptyPlaceholder = "Start a conversation"
)

// Event is one instruction to the front end
type Event struct {
	Kind      EventKind
	SessionID string

	Title       string
	Message     internal.Message
	Messages    []internal.Message
	Placeholder string
	Label       string
	Sessions    []internal.SessionSummary
	Busy        bool
}

// Renderer draws events. It may be called from any goroutine.
type Renderer interface {
	Render(Event)
}

// RendererFunc adapts a function to Renderer
type RendererFunc func(Event)

// Render calls f(e)
func (f RendererFunc) Render(e Event) {
	f(e)
}

type nopRenderer struct{}

func (nopRenderer) Render(Event) {}

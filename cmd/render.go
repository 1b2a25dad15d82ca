package cmd

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/wakechat/internal"
	"github.com/iksnae/wakechat/internal/controller"
)

var (
	sessionHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("212")).
				Padding(0, 1)

	userMessageStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("39")).
				Bold(true).
				Padding(0, 1)

	assistantMessageStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("135")).
				Bold(true).
				Padding(0, 1)

	messageContentStyle = lipgloss.NewStyle().
				Padding(0, 2)

	placeholderStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240")).
				Italic(true).
				Padding(0, 2)
)

// terminalRenderer prints controller events as styled text
type terminalRenderer struct {
	mu      sync.Mutex
	out     io.Writer
	spinner *internal.Spinner

	// history prints the full conversation on session switches
	history bool
	// echoUser prints user messages, which an interactive prompt has already shown
	echoUser bool
}

func newTerminalRenderer(out, status io.Writer) *terminalRenderer {
	return &terminalRenderer{out: out, spinner: internal.NewSpinner(status)}
}

func (r *terminalRenderer) Render(e controller.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch e.Kind {
	case controller.EventSessionSwitched:
		if !r.history {
			return
		}
		r.spinner.Stop()
		_, _ = fmt.Fprintln(r.out, renderHistory(e.Title, e.Messages, e.Placeholder))
	case controller.EventMessageAppended:
		if e.Message.Sender == internal.SenderUser && !r.echoUser {
			return
		}
		r.spinner.Stop()
		_, _ = fmt.Fprintln(r.out, renderMessage(e.Message))
	case controller.EventPendingStarted:
		r.spinner.Start(e.Label)
	case controller.EventPendingCleared:
		r.spinner.Stop()
	}
}

// renderMessage formats one message with a speaker line
func renderMessage(msg internal.Message) string {
	var speaker string
	if msg.Sender == internal.SenderUser {
		speaker = userMessageStyle.Render("You")
	} else {
		speaker = assistantMessageStyle.Render("Assistant")
	}
	return speaker + "\n" + messageContentStyle.Render(msg.Text) + "\n"
}

// renderHistory formats a whole session, or the placeholder when it is empty
func renderHistory(title string, msgs []internal.Message, placeholder string) string {
	var b strings.Builder
	b.WriteString(sessionHeaderStyle.Render("💬 " + title))
	b.WriteString("\n\n")
	if len(msgs) == 0 {
		if placeholder == "" {
			placeholder = controller.EmptyPlaceholder
		}
		b.WriteString(placeholderStyle.Render(placeholder))
		b.WriteString("\n")
		return b.String()
	}
	for _, msg := range msgs {
		b.WriteString(renderMessage(msg))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

// lockedWriter serializes writes from the prompt and from background operations
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

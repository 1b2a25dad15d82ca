package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/wakechat/internal"
	"github.com/iksnae/wakechat/internal/controller"
	"github.com/spf13/cobra"
)

var (
	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true)

	noticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243")).
			Italic(true)
)

const chatHelp = `Commands:
  /new               start a new session
  /list              list sessions
  /switch <session>  switch by position, id or id prefix
  /delete [session]  delete a session (default: the active one)
  /attach <file>...  upload documents or import .json fragments
  /show              print the active conversation
  /help              show this help
  /quit              leave (also Ctrl-D or Ctrl-C)
Anything else is sent as a question to the active session.`

// chatCmd represents the chat command
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive chat with session commands",
	Long: `Start an interactive chat. Questions are answered in the session they were
asked in, even if you switch to another session while waiting. Only one
question or upload runs at a time; input sent meanwhile is ignored.

` + chatHelp,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

type repl struct {
	ctrl     *controller.Controller
	out      io.Writer
	mu       sync.Mutex
	inflight sync.WaitGroup
}

// maxLineSize bounds one line of chat input, enough for a pasted document excerpt
const maxLineSize = 1 << 20

func runChat(ctx context.Context, in io.Reader, out io.Writer) error {
	out = &lockedWriter{w: out}
	renderer := newTerminalRenderer(out, os.Stderr)
	renderer.history = true

	// keep console logs off the prompt when they are already going to a file
	if cfg.LogFile != "" {
		internal.SetLogOutput(io.Discard)
		defer internal.SetLogOutput(nil)
	}

	a, err := openApp(renderer)
	if err != nil {
		return err
	}
	defer a.Close()

	r := &repl{ctrl: a.ctrl, out: out}
	r.notice("Type /help for commands.")

	done := make(chan struct{})
	defer close(done)
	lines, readErr := readLines(in, done)

	r.prompt()
loop:
	for {
		select {
		case <-ctx.Done():
			r.print("\n")
			break loop
		case line, ok := <-lines:
			if !ok {
				err = <-readErr
				break loop
			}
			if quit := r.handle(ctx, line); quit {
				break loop
			}
			r.prompt()
		}
	}

	// let an in-flight answer land before state is flushed
	r.inflight.Wait()
	return err
}

// readLines scans in on its own goroutine so the prompt can also watch for cancellation.
// The error channel receives the scanner's error before lines is closed.
func readLines(in io.Reader, done <-chan struct{}) (<-chan string, <-chan error) {
	lines := make(chan string)
	errc := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(in)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-done:
				return
			}
		}
		errc <- scanner.Err()
		close(lines)
	}()
	return lines, errc
}

func (r *repl) prompt() {
	marker := "›"
	if r.ctrl.Busy() {
		marker = "…"
	}
	r.print(promptStyle.Render(marker) + " ")
}

func (r *repl) print(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, _ = fmt.Fprint(r.out, s)
}

func (r *repl) notice(s string) {
	r.print(noticeStyle.Render(s) + "\n")
}

// handle runs one input line and reports whether the user asked to quit
func (r *repl) handle(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	if !strings.HasPrefix(line, "/") {
		r.background(func() error { return r.ctrl.Send(ctx, line) })
		return false
	}

	fields := strings.Fields(line)
	store := r.ctrl.Store()
	switch fields[0] {
	case "/quit", "/exit", "/q":
		return true
	case "/help", "/?":
		r.print(chatHelp + "\n")
	case "/new":
		r.ctrl.NewChat()
	case "/list", "/ls":
		var buf strings.Builder
		displaySessions(&buf, store.List())
		r.print(buf.String())
	case "/switch", "/sw":
		if len(fields) != 2 {
			r.notice("usage: /switch <session>")
			return false
		}
		id, err := resolveSession(store, fields[1])
		if err == nil {
			err = r.ctrl.SwitchChat(id)
		}
		if err != nil {
			r.notice(err.Error())
		}
	case "/delete", "/rm":
		id := store.ActiveID()
		if len(fields) > 1 {
			var err error
			if id, err = resolveSession(store, fields[1]); err != nil {
				r.notice(err.Error())
				return false
			}
		}
		if err := r.ctrl.DeleteChat(id); err != nil {
			r.notice(err.Error())
		}
	case "/attach":
		if len(fields) < 2 {
			r.notice("usage: /attach <file>...")
			return false
		}
		paths := fields[1:]
		r.background(func() error { return r.ctrl.AttachFiles(ctx, paths...) })
	case "/show":
		sess, _ := store.Session(store.ActiveID())
		r.print(renderHistory(sess.DisplayTitle(), sess.Messages, controller.EmptyPlaceholder))
	default:
		r.notice(fmt.Sprintf("unknown command %s, try /help", fields[0]))
	}
	return false
}

// background runs a guarded operation without blocking the prompt
func (r *repl) background(op func() error) {
	if r.ctrl.Busy() {
		r.notice("Still working on the previous request.")
		return
	}
	r.inflight.Add(1)
	go func() {
		defer r.inflight.Done()
		err := op()
		switch {
		case err == nil:
		case errors.Is(err, internal.ErrBusy):
			r.notice("Still working on the previous request.")
		default:
			// the failure is already shown as a chat message
			internal.LogDebug("Operation failed: %v", err)
		}
	}()
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

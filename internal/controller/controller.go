// Package controller turns user commands into store mutations, backend calls and render events.
package controller

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/iksnae/wakechat/internal"
	"github.com/iksnae/wakechat/internal/backend"
)

// Backend is the subset of the backend client the controller needs
type Backend interface {
	Ask(ctx context.Context, question, sessionID string) (backend.AskResponse, error)
	Upload(ctx context.Context, file backend.FileUpload, sessionID string) (backend.UploadResponse, error)
	ImportItems(ctx context.Context, items []internal.NormalizedItem, sessionID string) (backend.ImportResponse, error)
	BaseURL() string
}

// Controller owns the session store and the operation guard for one front end
type Controller struct {
	store      *internal.Store
	guard      *internal.Guard
	backend    Backend
	renderer   Renderer
	normalizer *internal.Normalizer
}

// New creates a controller. A nil renderer discards events.
func New(store *internal.Store, guard *internal.Guard, be Backend, renderer Renderer) *Controller {
	if renderer == nil {
		renderer = nopRenderer{}
	}
	if guard == nil {
		guard = internal.NewGuard()
	}
	c := &Controller{
		store:      store,
		guard:      guard,
		backend:    be,
		renderer:   renderer,
		normalizer: internal.NewNormalizer(),
	}
	guard.OnChange(func(busy bool) {
		c.renderer.Render(Event{Kind: EventBusyChanged, Busy: busy})
	})
	return c
}

// Store exposes the session store for read-only views
func (c *Controller) Store() *internal.Store {
	return c.store
}

// Busy reports whether an operation is in flight
func (c *Controller) Busy() bool {
	return c.guard.Busy()
}

// Start restores saved sessions and renders the active one
func (c *Controller) Start() error {
	active, err := c.store.RestoreOrCreate()
	if err != nil {
		return err
	}
	internal.LogDebug("Started with active session %s", active)
	c.renderSessions()
	c.renderSwitched(active)
	return nil
}

// NewChat creates an empty session and makes it active
func (c *Controller) NewChat() string {
	id := c.store.CreateSession("")
	c.renderSessions()
	c.renderSwitched(id)
	return id
}

// SwitchChat makes an existing session active
func (c *Controller) SwitchChat(id string) error {
	if err := c.store.SwitchActive(id); err != nil {
		return err
	}
	c.renderSessions()
	c.renderSwitched(id)
	return nil
}

// DeleteChat removes a session; the store picks or creates the next active session
func (c *Controller) DeleteChat(id string) error {
	before := c.store.ActiveID()
	if err := c.store.DeleteSession(id); err != nil {
		return err
	}
	c.renderSessions()
	if after := c.store.ActiveID(); after != before {
		c.renderSwitched(after)
	}
	return nil
}

// Send asks the backend a question in the active session. The answer is appended to the
// session the question came from even if the user switched away meanwhile.
func (c *Controller) Send(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return internal.ErrEmptyMessage
	}
	ran, err := c.guard.Run(func() error { return c.ask(ctx, text) })
	if !ran {
		return internal.ErrBusy
	}
	return err
}

func (c *Controller) ask(ctx context.Context, text string) error {
	origin := c.store.ActiveID()
	c.append(origin, internal.UserMessage(text))
	c.pending(origin, ThinkingLabel)

	resp, err := c.backend.Ask(ctx, text, origin)
	c.clearPending(origin)
	if err != nil {
		internal.LogError("Ask failed: %v", err)
		c.append(origin, internal.AssistantMessage(
			fmt.Sprintf("API error. Is the backend running at %s?", c.backend.BaseURL())))
		return err
	}

	answer := resp.Answer
	if answer == "" {
		answer = "No answer"
	}
	c.append(origin, internal.AssistantMessage(answer))
	if len(resp.Sources) > 0 {
		c.append(origin, internal.AssistantMessage("Sources:\n- "+strings.Join(resp.Sources, "\n- ")))
	}
	return nil
}

// AttachFiles uploads or imports each file in turn, each under its own guard acquisition.
// Files ending in .json are normalized and imported as fragments; others are uploaded.
func (c *Controller) AttachFiles(ctx context.Context, paths ...string) error {
	var errs []error
	for _, path := range paths {
		if err := c.attach(ctx, path); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", filepath.Base(path), err))
		}
	}
	return errors.Join(errs...)
}

func (c *Controller) attach(ctx context.Context, path string) error {
	ran, err := c.guard.Run(func() error { return c.attachFile(ctx, path) })
	if !ran {
		return internal.ErrBusy
	}
	return err
}

func (c *Controller) attachFile(ctx context.Context, path string) error {
	origin := c.store.ActiveID()
	name := filepath.Base(path)
	c.pending(origin, fmt.Sprintf("Uploading: %s…", name))

	var (
		msg string
		err error
	)
	if strings.HasSuffix(strings.ToLower(name), ".json") {
		msg, err = c.importJSON(ctx, path, name, origin)
	} else {
		msg, err = c.upload(ctx, path, origin)
	}

	c.clearPending(origin)
	if err != nil {
		internal.LogError("Attach %s failed: %v", name, err)
		c.append(origin, internal.AssistantMessage("Upload/import error: "+err.Error()))
		return err
	}
	c.append(origin, internal.AssistantMessage(msg))
	return nil
}

func (c *Controller) importJSON(ctx context.Context, path, name, origin string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	items, err := c.normalizer.NormalizePayload(data)
	if err != nil {
		return "", err
	}
	resp, err := c.backend.ImportItems(ctx, items, origin)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Imported %d fragments from %s", resp.Count, name), nil
}

func (c *Controller) upload(ctx context.Context, path, origin string) (string, error) {
	file, err := backend.ReadFileUpload(path)
	if err != nil {
		return "", err
	}
	resp, err := c.backend.Upload(ctx, file, origin)
	if err != nil {
		return "", err
	}
	size := "—"
	if resp.SizeBytes != nil && *resp.SizeBytes >= 0 {
		size = humanize.Bytes(uint64(*resp.SizeBytes))
	}
	return fmt.Sprintf("Uploaded: %s (%s)", resp.Filename, size), nil
}

// Shutdown persists pending state and waits for background purges
func (c *Controller) Shutdown() {
	c.store.Close()
}

// append stores msg in sessionID and renders it when that session is on screen.
// A session deleted mid-flight silently drops the message.
func (c *Controller) append(sessionID string, msg internal.Message) {
	if err := c.store.AppendMessage(sessionID, msg); err != nil {
		internal.LogDebug("Dropping message for %s: %v", sessionID, err)
		return
	}
	if c.store.IsActive(sessionID) {
		c.renderer.Render(Event{Kind: EventMessageAppended, SessionID: sessionID, Message: msg})
	}
}

func (c *Controller) pending(sessionID, label string) {
	if c.store.IsActive(sessionID) {
		c.renderer.Render(Event{Kind: EventPendingStarted, SessionID: sessionID, Label: label})
	}
}

func (c *Controller) clearPending(sessionID string) {
	if c.store.IsActive(sessionID) {
		c.renderer.Render(Event{Kind: EventPendingCleared, SessionID: sessionID})
	}
}

func (c *Controller) renderSessions() {
	c.renderer.Render(Event{Kind: EventSessionsChanged, Sessions: c.store.List()})
}

func (c *Controller) renderSwitched(id string) {
	sess, ok := c.store.Session(id)
	if !ok {
		return
	}
	e := Event{Kind: EventSessionSwitched, SessionID: id, Title: sess.DisplayTitle(), Messages: sess.Messages}
	if len(sess.Messages) == 0 {
		e.Placeholder = EmptyPlaceholder
	}
	c.renderer.Render(e)
}

package cmd

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/iksnae/wakechat/internal"
	"github.com/iksnae/wakechat/internal/backend"
	"github.com/iksnae/wakechat/internal/controller"
)

// app bundles the state database, backend client and controller for one command run
type app struct {
	db     *sql.DB
	client *backend.Client
	ctrl   *controller.Controller
}

// openApp wires the components from cfg and restores saved sessions
func openApp(renderer controller.Renderer) (*app, error) {
	db, err := internal.OpenDatabase(cfg.DBPath)
	if err != nil {
		return nil, &internal.PersistenceError{Op: "open", Key: cfg.DBPath, Err: err}
	}

	client, err := backend.NewClient(backend.OptionsFromConfig(cfg))
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	store := internal.NewStore(internal.NewStorage(db), internal.StoreOptions{
		PersistDelay: cfg.PersistDelay,
		Purger:       client,
	})
	ctrl := controller.New(store, internal.NewGuard(), client, renderer)
	if err := ctrl.Start(); err != nil {
		store.Close()
		_ = db.Close()
		return nil, err
	}

	return &app{db: db, client: client, ctrl: ctrl}, nil
}

// Close flushes state, waits for background purges and closes the database
func (a *app) Close() {
	a.ctrl.Shutdown()
	if err := a.db.Close(); err != nil {
		internal.LogWarn("Failed to close database: %v", err)
	}
}

// resolveSession accepts a full id, a 1-based list position or a unique id prefix
func resolveSession(store *internal.Store, arg string) (string, error) {
	list := store.List()
	for _, s := range list {
		if s.ID == arg {
			return s.ID, nil
		}
	}

	if n, err := strconv.Atoi(arg); err == nil {
		if n >= 1 && n <= len(list) {
			return list[n-1].ID, nil
		}
		return "", fmt.Errorf("%w: no session at position %d", internal.ErrSessionNotFound, n)
	}

	var matches []string
	for _, s := range list {
		if strings.HasPrefix(s.ID, arg) {
			matches = append(matches, s.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%w: %s", internal.ErrSessionNotFound, arg)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("ambiguous session id %q matches %d sessions", arg, len(matches))
	}
}

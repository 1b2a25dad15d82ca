package internal

import "sync"

// Guard is the process-wide busy flag: at most one user-initiated operation
// (ask, upload, import) runs at a time.
type Guard struct {
	mu       sync.Mutex
	busy     bool
	onChange func(busy bool)
}

// NewGuard creates an idle guard
func NewGuard() *Guard {
	return &Guard{}
}

// OnChange registers a listener for busy transitions, e.g. to disable inputs
func (g *Guard) OnChange(fn func(busy bool)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.onChange = fn
}

// Busy reports whether an operation is in flight
func (g *Guard) Busy() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.busy
}

// TryAcquire marks the guard busy. It returns false, changing nothing, if already busy.
func (g *Guard) TryAcquire() bool {
	g.mu.Lock()
	if g.busy {
		g.mu.Unlock()
		return false
	}
	g.busy = true
	fn := g.onChange
	g.mu.Unlock()

	if fn != nil {
		fn(true)
	}
	return true
}

// Release clears the busy flag
func (g *Guard) Release() {
	g.mu.Lock()
	if !g.busy {
		g.mu.Unlock()
		return
	}
	g.busy = false
	fn := g.onChange
	g.mu.Unlock()

	if fn != nil {
		fn(false)
	}
}

// Run executes fn while holding the guard. ran is false when the guard was busy.
// The guard is released even if fn panics.
func (g *Guard) Run(fn func() error) (ran bool, err error) {
	if !g.TryAcquire() {
		return false, nil
	}
	defer g.Release()
	return true, fn()
}

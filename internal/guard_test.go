package internal

import (
	"errors"
	"reflect"
	"testing"
)

func TestGuard_TryAcquire(t *testing.T) {
	g := NewGuard()
	var changes []bool
	g.OnChange(func(busy bool) { changes = append(changes, busy) })

	if !g.TryAcquire() {
		t.Fatal("TryAcquire() = false on an idle guard")
	}
	if g.TryAcquire() {
		t.Error("TryAcquire() = true while busy")
	}
	if !g.Busy() {
		t.Error("Busy() = false after TryAcquire()")
	}
	g.Release()
	g.Release()

	if want := []bool{true, false}; !reflect.DeepEqual(changes, want) {
		t.Errorf("changes = %v, want %v", changes, want)
	}
}

func TestGuard_Run(t *testing.T) {
	g := NewGuard()
	boom := errors.New("boom")

	ran, err := g.Run(func() error { return boom })
	if !ran || !errors.Is(err, boom) {
		t.Errorf("Run() = (%v, %v), want (true, boom)", ran, err)
	}
	if g.Busy() {
		t.Error("guard still busy after Run()")
	}

	g.TryAcquire()
	called := false
	ran, err = g.Run(func() error { called = true; return nil })
	if ran || err != nil || called {
		t.Errorf("Run() while busy = (%v, %v), called = %v", ran, err, called)
	}
}

func TestGuard_RunReleasesOnPanic(t *testing.T) {
	g := NewGuard()
	func() {
		defer func() { _ = recover() }()
		_, _ = g.Run(func() error { panic("oops") })
	}()
	if g.Busy() {
		t.Error("guard still busy after a panicking Run()")
	}
}

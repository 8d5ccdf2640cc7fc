package native

import (
	"errors"
	"testing"

	"github.com/bryanchriswhite/surfacecap/internal/surface"
)

func TestScopeReleasesInReverseOrder(t *testing.T) {
	var order []string
	var s Scope

	for _, name := range []string{"dc", "bitmap", "select"} {
		name := name
		s.Defer(name, func() error {
			order = append(order, name)
			return nil
		})
	}

	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	want := []string{"select", "bitmap", "dc"}
	if len(order) != len(want) {
		t.Fatalf("expected %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, order)
		}
	}

	if err := s.Close(); err != nil || len(order) != 3 {
		t.Fatalf("second close should be a no-op")
	}
}

func TestScopeRunsAllReleasesOnFailure(t *testing.T) {
	var s Scope
	ran := 0
	boom := errors.New("boom")

	s.Defer("first", func() error { ran++; return nil })
	s.Defer("second", func() error { ran++; return boom })
	s.Defer("third", func() error { ran++; return nil })

	err := s.Close()
	if ran != 3 {
		t.Fatalf("expected 3 releases, got %d", ran)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("expected joined error to contain cause, got %v", err)
	}
	if s.Len() != 0 {
		t.Fatalf("expected scope to be empty after close")
	}
}

func TestScopeAcquireNullHandle(t *testing.T) {
	var s Scope
	called := false

	err := s.Acquire("CreateCompatibleDC", false, func() error { called = true; return nil })
	if !errors.Is(err, surface.ErrResourceAcquisitionFailed) {
		t.Fatalf("expected ErrResourceAcquisitionFailed, got %v", err)
	}
	if s.Len() != 0 {
		t.Fatalf("failed acquisition must not register a release")
	}

	if err := s.Acquire("CreateCompatibleBitmap", true, func() error { called = true; return nil }); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	s.Close()
	if !called {
		t.Fatalf("expected release to run")
	}
}

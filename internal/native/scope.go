package native

import (
	"errors"
	"fmt"

	"github.com/bryanchriswhite/surfacecap/internal/logger"
	"github.com/bryanchriswhite/surfacecap/internal/surface"
)

type release struct {
	name string
	fn   func() error
}

// Scope collects native resources acquired during one operation and releases
// them in reverse order of acquisition. A zero Scope is ready to use.
//
//	var scope native.Scope
//	defer scope.Close()
type Scope struct {
	releases []release
	closed   bool
}

// Defer registers fn to run when the scope closes.
func (s *Scope) Defer(name string, fn func() error) {
	s.releases = append(s.releases, release{name: name, fn: fn})
}

// Acquire registers fn if ok, otherwise returns a
// ErrResourceAcquisitionFailed error naming the resource.
func (s *Scope) Acquire(name string, ok bool, fn func() error) error {
	if !ok {
		return surface.Wrap(surface.ErrResourceAcquisitionFailed, name, 0,
			fmt.Errorf("%s returned a null handle", name))
	}
	s.Defer(name, fn)
	return nil
}

// Len returns the number of resources still held
func (s *Scope) Len() int {
	return len(s.releases)
}

// Close releases every registered resource, newest first. All releases run
// even when some fail; failures are logged and joined into the result.
// Closing twice is a no-op.
func (s *Scope) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	var errs []error
	for i := len(s.releases) - 1; i >= 0; i-- {
		r := s.releases[i]
		if err := r.fn(); err != nil {
			logger.WithComponent("native").Warn().
				Err(err).
				Str("resource", r.name).
				Msg("Failed to release native resource")
			errs = append(errs, fmt.Errorf("release %s: %w", r.name, err))
		}
	}
	s.releases = nil
	return errors.Join(errs...)
}

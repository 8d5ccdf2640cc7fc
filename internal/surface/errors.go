package surface

import (
	"errors"
	"fmt"
)

// Error kinds. Match them with errors.Is.
var (
	// ErrQueryFailed indicates a native info, geometry or DPI query failed.
	ErrQueryFailed = errors.New("native query failed")

	// ErrNotFound indicates no surface matches the requested point or handle.
	ErrNotFound = errors.New("surface not found")

	// ErrCaptureFailed indicates the native capture primitive produced no image.
	ErrCaptureFailed = errors.New("capture failed")

	// ErrDecodeFailed indicates raw buffer geometry is inconsistent with its length.
	ErrDecodeFailed = errors.New("decode failed")

	// ErrResourceAcquisitionFailed indicates a native drawing resource could not be created.
	ErrResourceAcquisitionFailed = errors.New("native resource acquisition failed")
)

// Error carries the kind of a failure together with the operation and
// surface it happened on.
type Error struct {
	Kind error
	Op   string
	ID   uint32
	Err  error
}

func (e *Error) Error() string {
	msg := e.Kind.Error()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.ID != 0 {
		msg = fmt.Sprintf("%s (surface %d)", msg, e.ID)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Wrap classifies err under kind. An err that already carries any kind is
// returned unchanged so the first classification wins.
func Wrap(kind error, op string, id uint32, err error) error {
	if err != nil && KindOf(err) != nil {
		return err
	}
	return &Error{Kind: kind, Op: op, ID: id, Err: err}
}

// KindOf returns the kind sentinel carried by err, or nil.
func KindOf(err error) error {
	for _, kind := range []error{
		ErrQueryFailed,
		ErrNotFound,
		ErrCaptureFailed,
		ErrDecodeFailed,
		ErrResourceAcquisitionFailed,
	} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

package ivfstore

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned in strict mode when a list has neither an id
	// nor a code array in the backend and nothing cached.
	ErrNotFound = errors.New("ivfstore: list not found")

	// ErrCorrupted is matched by every *CorruptionError.
	ErrCorrupted = errors.New("ivfstore: corrupted list")

	// ErrOutOfRange is matched by every *OutOfRangeError.
	ErrOutOfRange = errors.New("ivfstore: out of range")

	// ErrBackend is matched by every *BackendError.
	ErrBackend = errors.New("ivfstore: backend failure")

	// ErrClosed is returned by operations on a closed store.
	ErrClosed = errors.New("ivfstore: store is closed")

	// ErrIncompatibleStore is returned by MergeFrom when the stores differ in
	// nlist or code size, or when a store is merged into itself.
	ErrIncompatibleStore = errors.New("ivfstore: incompatible store")
)

// BackendError reports a failed backend get or put.
//
// The original backend error can be accessed via errors.Unwrap.
type BackendError struct {
	Op  string // "get", "put" or "list"
	Key string
	Err error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("ivfstore: backend %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }

// Is reports whether target is ErrBackend.
func (e *BackendError) Is(target error) bool { return target == ErrBackend }

// CorruptionError reports a persisted array whose length does not match the
// element size, or an id array and code array that disagree on the number
// of entries.
type CorruptionError struct {
	ListNo   int
	Key      string
	Length   int // byte length of the offending value
	ElemSize int // expected element size in bytes
	Reason   string
}

func (e *CorruptionError) Error() string {
	return fmt.Sprintf("ivfstore: list %d: %s: %q has %d bytes (element size %d)",
		e.ListNo, e.Reason, e.Key, e.Length, e.ElemSize)
}

// Is reports whether target is ErrCorrupted.
func (e *CorruptionError) Is(target error) bool { return target == ErrCorrupted }

// OutOfRangeError reports a caller precondition violation: a list number
// outside [0, nlist), a negative count, short input slices, or an entry
// range that does not fit in the list.
type OutOfRangeError struct {
	Op     string
	ListNo int
	Offset int
	Count  int
	Size   int
	what   string
}

func (e *OutOfRangeError) Error() string {
	switch e.what {
	case "list":
		return fmt.Sprintf("ivfstore: %s: list %d out of range [0, %d)", e.Op, e.ListNo, e.Size)
	case "input":
		return fmt.Sprintf("ivfstore: %s list %d: input holds fewer than %d entries", e.Op, e.ListNo, e.Count)
	default:
		return fmt.Sprintf("ivfstore: %s list %d: entries [%d, %d) out of range for size %d",
			e.Op, e.ListNo, e.Offset, e.Offset+e.Count, e.Size)
	}
}

// Is reports whether target is ErrOutOfRange.
func (e *OutOfRangeError) Is(target error) bool { return target == ErrOutOfRange }

// ErrInvalidConfig indicates an invalid store configuration.
type ErrInvalidConfig struct {
	Field string
	Value any
}

func (e *ErrInvalidConfig) Error() string {
	return fmt.Sprintf("ivfstore: invalid %s: %v", e.Field, e.Value)
}

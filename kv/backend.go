package kv

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when no value is stored under the key.
var ErrNotFound = errors.New("kv: key not found")

// ErrListUnsupported is returned by decorators whose wrapped backend cannot list keys.
var ErrListUnsupported = errors.New("kv: backend does not support listing")

// Backend is a synchronous byte-blob store addressed by string key.
// Implementations must be safe for concurrent use.
type Backend interface {
	// Get returns the full value stored under key, or ErrNotFound.
	// The caller owns the returned slice.
	Get(ctx context.Context, key string) ([]byte, error)
	// Put replaces the value stored under key. The backend must not retain value.
	Put(ctx context.Context, key string, value []byte) error
}

// Lister is implemented by backends that can enumerate their keys.
type Lister interface {
	// List returns every key starting with prefix in ascending order.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Funcs adapts a pair of callbacks to Backend.
type Funcs struct {
	GetFunc func(ctx context.Context, key string) ([]byte, error)
	PutFunc func(ctx context.Context, key string, value []byte) error
}

// Get implements Backend.
func (f Funcs) Get(ctx context.Context, key string) ([]byte, error) {
	return f.GetFunc(ctx, key)
}

// Put implements Backend.
func (f Funcs) Put(ctx context.Context, key string, value []byte) error {
	return f.PutFunc(ctx, key, value)
}

// List enumerates keys of b when it implements Lister.
// ok is false if b cannot enumerate.
func List(ctx context.Context, b Backend, prefix string) (keys []string, ok bool, err error) {
	l, ok := b.(Lister)
	if !ok {
		return nil, false, nil
	}
	keys, err = l.List(ctx, prefix)
	return keys, true, err
}

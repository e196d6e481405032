// Package pebble provides a kv.Backend on an embedded Pebble database.
//
// Pebble keeps list arrays on local disk with LSM write amplification
// instead of one file per key, which suits indexes with many small lists.
//
//	b, err := pebble.Open("/var/lib/ivf", nil)
//	defer b.Close()
//	lists, err := ivfstore.New(b, nlist, codeSize)
package pebble

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/hupe1980/ivfstore/kv"
)

// Options configures Open.
type Options struct {
	// NoSync skips syncing the WAL on every Put. Faster, but the last
	// writes may be lost on a crash.
	NoSync bool
	// InMemory keeps the database in memory (tests).
	InMemory bool
}

// Backend implements kv.Backend and kv.Lister on a Pebble database.
type Backend struct {
	db    *pebble.DB
	wopts *pebble.WriteOptions
	owned bool
}

// Open opens (or creates) a Pebble database in dir.
func Open(dir string, opts *Options) (*Backend, error) {
	if opts == nil {
		opts = &Options{}
	}
	po := &pebble.Options{}
	if opts.InMemory {
		po.FS = vfs.NewMem()
	}
	db, err := pebble.Open(dir, po)
	if err != nil {
		return nil, fmt.Errorf("open pebble %s: %w", dir, err)
	}
	b := New(db, !opts.NoSync)
	b.owned = true
	return b, nil
}

// New wraps an already open database. Close does not close db.
func New(db *pebble.DB, sync bool) *Backend {
	wopts := pebble.NoSync
	if sync {
		wopts = pebble.Sync
	}
	return &Backend{db: db, wopts: wopts}
}

// Get implements kv.Backend.
func (b *Backend) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v, closer, err := b.db.Get([]byte(key))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, kv.ErrNotFound
		}
		return nil, err
	}
	defer func() { _ = closer.Close() }()

	// The returned slice is only valid until closer is closed.
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

// Put implements kv.Backend.
func (b *Backend) Put(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.db.Set([]byte(key), value, b.wopts)
}

// List implements kv.Lister.
func (b *Backend) List(ctx context.Context, prefix string) ([]string, error) {
	iopts := &pebble.IterOptions{}
	if prefix != "" {
		iopts.LowerBound = []byte(prefix)
		iopts.UpperBound = prefixUpperBound([]byte(prefix))
	}
	iter, err := b.db.NewIter(iopts)
	if err != nil {
		return nil, err
	}

	var keys []string
	for valid := iter.First(); valid; valid = iter.Next() {
		if err := ctx.Err(); err != nil {
			_ = iter.Close()
			return nil, err
		}
		if !bytes.HasPrefix(iter.Key(), []byte(prefix)) {
			break
		}
		keys = append(keys, string(iter.Key()))
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return keys, nil
}

// Close closes the database if Open created it.
func (b *Backend) Close() error {
	if !b.owned {
		return nil
	}
	return b.db.Close()
}

// prefixUpperBound returns the smallest key greater than every key with the
// given prefix, or nil if no such key exists.
func prefixUpperBound(prefix []byte) []byte {
	end := bytes.Clone(prefix)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}

var _ kv.Backend = (*Backend)(nil)
var _ kv.Lister = (*Backend)(nil)

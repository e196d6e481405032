package kv

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// ErrInjected is the default error returned by FaultyBackend rules.
var ErrInjected = errors.New("kv: injected fault")

// Fault defines the failure behavior for keys matching a rule.
type Fault struct {
	FailGet bool
	FailPut bool
	// Remaining limits how many calls fail before the rule disarms. 0 means unlimited.
	Remaining int
	Err       error
}

// FaultyBackend wraps a Backend and injects errors for keys containing a
// rule's pattern.
type FaultyBackend struct {
	inner Backend

	mu    sync.Mutex
	rules map[string]*Fault
}

// NewFaultyBackend wraps inner.
func NewFaultyBackend(inner Backend) *FaultyBackend {
	return &FaultyBackend{inner: inner, rules: make(map[string]*Fault)}
}

// AddRule installs a fault for keys containing pattern.
func (f *FaultyBackend) AddRule(pattern string, fault Fault) {
	if fault.Err == nil {
		fault.Err = ErrInjected
	}
	f.mu.Lock()
	f.rules[pattern] = &fault
	f.mu.Unlock()
}

// ClearRules removes all faults.
func (f *FaultyBackend) ClearRules() {
	f.mu.Lock()
	f.rules = make(map[string]*Fault)
	f.mu.Unlock()
}

func (f *FaultyBackend) fault(key string, put bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for pattern, rule := range f.rules {
		if !strings.Contains(key, pattern) {
			continue
		}
		if (put && !rule.FailPut) || (!put && !rule.FailGet) {
			continue
		}
		err := rule.Err
		if rule.Remaining > 0 {
			rule.Remaining--
			if rule.Remaining == 0 {
				delete(f.rules, pattern)
			}
		}
		return err
	}
	return nil
}

// Get implements Backend.
func (f *FaultyBackend) Get(ctx context.Context, key string) ([]byte, error) {
	if err := f.fault(key, false); err != nil {
		return nil, err
	}
	return f.inner.Get(ctx, key)
}

// Put implements Backend.
func (f *FaultyBackend) Put(ctx context.Context, key string, value []byte) error {
	if err := f.fault(key, true); err != nil {
		return err
	}
	return f.inner.Put(ctx, key, value)
}

// List implements Lister if the wrapped backend does.
func (f *FaultyBackend) List(ctx context.Context, prefix string) ([]string, error) {
	keys, ok, err := List(ctx, f.inner, prefix)
	if !ok {
		return nil, ErrListUnsupported
	}
	return keys, err
}

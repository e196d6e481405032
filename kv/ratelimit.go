package kv

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimited throttles calls to a wrapped Backend with a token bucket.
// Each Get, Put and List consumes one token. Waiting honors ctx.
type RateLimited struct {
	inner   Backend
	limiter *rate.Limiter
}

// NewRateLimited wraps inner with a limit of rps calls per second and the
// given burst. A non-positive rps disables limiting; a non-positive burst
// defaults to rps.
func NewRateLimited(inner Backend, rps float64, burst int) *RateLimited {
	r := &RateLimited{inner: inner}
	if rps > 0 {
		if burst <= 0 {
			burst = max(int(rps), 1)
		}
		r.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
	return r
}

func (r *RateLimited) wait(ctx context.Context) error {
	if r.limiter == nil {
		return nil
	}
	return r.limiter.Wait(ctx)
}

// Get implements Backend.
func (r *RateLimited) Get(ctx context.Context, key string) ([]byte, error) {
	if err := r.wait(ctx); err != nil {
		return nil, err
	}
	return r.inner.Get(ctx, key)
}

// Put implements Backend.
func (r *RateLimited) Put(ctx context.Context, key string, value []byte) error {
	if err := r.wait(ctx); err != nil {
		return err
	}
	return r.inner.Put(ctx, key, value)
}

// List implements Lister if the wrapped backend does.
func (r *RateLimited) List(ctx context.Context, prefix string) ([]string, error) {
	if _, ok := r.inner.(Lister); !ok {
		return nil, ErrListUnsupported
	}
	if err := r.wait(ctx); err != nil {
		return nil, err
	}
	keys, _, err := List(ctx, r.inner, prefix)
	return keys, err
}

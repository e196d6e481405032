package ivfstore

import (
	"context"
	"fmt"
	"time"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/ivfstore/kv"
	"github.com/hupe1980/ivfstore/listkey"
)

// MergeFrom appends every list of other to the same list of s, adding
// idOffset to each id. Lists are visited in increasing order and each list
// of other is read exactly once: its cached snapshot if it has one,
// otherwise a direct backend read that is not cached in other.
//
// Both stores must have the same nlist and code size. On error the lists
// already merged stay merged.
func (s *Store) MergeFrom(ctx context.Context, other *Store, idOffset int64) (err error) {
	if other == nil || other == s {
		return fmt.Errorf("%w: cannot merge a store into itself or from nil", ErrIncompatibleStore)
	}
	if other.nlist != s.nlist || other.codeSize != s.codeSize {
		return fmt.Errorf("%w: nlist %d/%d, code size %d/%d",
			ErrIncompatibleStore, s.nlist, other.nlist, s.codeSize, other.codeSize)
	}
	if s.closed.Load() || other.closed.Load() {
		return ErrClosed
	}

	start := time.Now()
	lists, entries := 0, 0
	defer func() {
		s.metrics.RecordMerge(lists, entries, time.Since(start), err)
		s.logger.LogMerge(ctx, lists, entries, err)
	}()

	for listNo := 0; listNo < s.nlist; listNo++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		src, err := other.peek(ctx, listNo)
		if err != nil {
			return fmt.Errorf("merge list %d: %w", listNo, err)
		}
		n := src.size()
		if n == 0 {
			continue
		}

		ids := make([]int64, n)
		for i, id := range src.ids {
			ids[i] = id + idOffset
		}
		if _, err := s.AddEntries(ctx, listNo, n, ids, src.codes); err != nil {
			return fmt.Errorf("merge list %d: %w", listNo, err)
		}
		lists++
		entries += n
	}
	return nil
}

// peek returns the list's cached snapshot, or reads it from the backend
// without caching it. An absent list is empty.
func (s *Store) peek(ctx context.Context, listNo int) (*snapshot, error) {
	sl := &s.slots[listNo]
	sl.mu.Lock()
	defer sl.mu.Unlock()
	if sl.snap != nil {
		s.metrics.RecordCacheHit()
		return sl.snap, nil
	}
	snap, _, err := s.fetch(ctx, listNo)
	return snap, err
}

// ComputeNTotal returns the total number of entries across all lists,
// loading one list at a time. Absent lists count as empty.
func (s *Store) ComputeNTotal(ctx context.Context) (int, error) {
	if s.closed.Load() {
		return 0, ErrClosed
	}
	total := 0
	for listNo := range s.slots {
		n, err := s.sizeOf(ctx, listNo)
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

func (s *Store) sizeOf(ctx context.Context, listNo int) (int, error) {
	sl := &s.slots[listNo]
	sl.mu.Lock()
	defer sl.mu.Unlock()
	defer s.settle(sl)

	snap, err := s.load(ctx, listNo, sl, false)
	if err != nil {
		return 0, err
	}
	return snap.size(), nil
}

// Inventory reports which lists have a persisted id array and which have a
// persisted code array. Keys outside the store's namespace, malformed keys
// and list numbers >= NList are ignored. The backend must implement
// kv.Lister.
func (s *Store) Inventory(ctx context.Context) (ids, codes *roaring.Bitmap, err error) {
	if s.closed.Load() {
		return nil, nil, ErrClosed
	}
	keys, ok, err := kv.List(ctx, s.backend, s.keys.ListPrefix())
	if !ok {
		return nil, nil, fmt.Errorf("inventory: %w", kv.ErrListUnsupported)
	}
	if err != nil {
		return nil, nil, &BackendError{Op: "list", Key: s.keys.ListPrefix(), Err: err}
	}

	ids, codes = roaring.New(), roaring.New()
	for _, key := range keys {
		kind, listNo := s.keys.Decode(key)
		if listNo >= s.nlist {
			continue
		}
		switch kind {
		case listkey.IDs:
			ids.Add(uint32(listNo))
		case listkey.Codes:
			codes.Add(uint32(listNo))
		}
	}
	return ids, codes, nil
}

package ivfstore

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/hupe1980/ivfstore/listkey"
)

// AddEntries appends nEntry entries to a list and returns the offset of the
// first new entry. ids must hold at least nEntry values and codes at least
// nEntry*CodeSize bytes.
//
// Appending zero entries returns the current size and writes nothing.
// Otherwise the id array is written first, then the code array; the cached
// snapshot is replaced only after both writes succeed.
func (s *Store) AddEntries(ctx context.Context, listNo, nEntry int, ids []int64, codes []byte) (int, error) {
	const op = "add entries"
	sl, err := s.slot(op, listNo)
	if err != nil {
		return 0, err
	}
	if err := s.checkInput(op, listNo, nEntry, ids, codes); err != nil {
		return 0, err
	}
	sl.mu.Lock()
	defer sl.mu.Unlock()
	defer s.settle(sl)

	cur, err := s.load(ctx, listNo, sl, false)
	if err != nil {
		return 0, err
	}
	offset := cur.size()
	if nEntry == 0 {
		return offset, nil
	}

	n := offset + nEntry
	next := &snapshot{
		ids:   make([]int64, n),
		codes: make([]byte, n*s.codeSize),
	}
	copy(next.ids, cur.ids)
	copy(next.ids[offset:], ids[:nEntry])
	copy(next.codes, cur.codes)
	copy(next.codes[offset*s.codeSize:], codes[:nEntry*s.codeSize])

	if err := s.commit(ctx, listNo, sl, next); err != nil {
		return 0, err
	}
	return offset, nil
}

// UpdateEntries overwrites nEntry entries of a list starting at offset.
// offset+nEntry must not exceed the list size; entries outside the range
// are left untouched.
func (s *Store) UpdateEntries(ctx context.Context, listNo, offset, nEntry int, ids []int64, codes []byte) error {
	const op = "update entries"
	sl, err := s.slot(op, listNo)
	if err != nil {
		return err
	}
	if err := s.checkInput(op, listNo, nEntry, ids, codes); err != nil {
		return err
	}
	sl.mu.Lock()
	defer sl.mu.Unlock()
	defer s.settle(sl)

	cur, err := s.load(ctx, listNo, sl, false)
	if err != nil {
		return err
	}
	if offset < 0 || nEntry > cur.size()-offset {
		return &OutOfRangeError{Op: op, ListNo: listNo, Offset: offset, Count: nEntry, Size: cur.size()}
	}
	if nEntry == 0 {
		return nil
	}

	next := &snapshot{
		ids:   append([]int64(nil), cur.ids...),
		codes: append([]byte(nil), cur.codes...),
	}
	copy(next.ids[offset:], ids[:nEntry])
	copy(next.codes[offset*s.codeSize:], codes[:nEntry*s.codeSize])

	return s.commit(ctx, listNo, sl, next)
}

// Resize truncates or grows a list to newSize entries. The first
// min(old, newSize) entries are kept; grown entries have id 0 and an
// all-zero code. The result is always written back.
func (s *Store) Resize(ctx context.Context, listNo, newSize int) error {
	const op = "resize"
	sl, err := s.slot(op, listNo)
	if err != nil {
		return err
	}
	if newSize < 0 || newSize > math.MaxInt/s.codeSize {
		return &OutOfRangeError{Op: op, ListNo: listNo, Count: newSize, what: "input"}
	}
	sl.mu.Lock()
	defer sl.mu.Unlock()
	defer s.settle(sl)

	cur, err := s.load(ctx, listNo, sl, false)
	if err != nil {
		return err
	}

	keep := min(cur.size(), newSize)
	next := &snapshot{
		ids:   make([]int64, newSize),
		codes: make([]byte, newSize*s.codeSize),
	}
	copy(next.ids, cur.ids[:keep])
	copy(next.codes, cur.codes[:keep*s.codeSize])

	return s.commit(ctx, listNo, sl, next)
}

func (s *Store) checkInput(op string, listNo, nEntry int, ids []int64, codes []byte) error {
	if nEntry < 0 || len(ids) < nEntry || len(codes)/s.codeSize < nEntry {
		return &OutOfRangeError{Op: op, ListNo: listNo, Count: nEntry, what: "input"}
	}
	return nil
}

// commit writes next to the backend and swaps it into the slot.
// Only the growth over the cached snapshot is charged against the memory
// limit. If the code write fails after the id write succeeded, the previous
// id array is written back and the original failure is returned; a list that
// was absent comes back as a present, empty list.
// sl.mu must be held and sl.snap must be the snapshot next was built from.
func (s *Store) commit(ctx context.Context, listNo int, sl *slot, next *snapshot) (err error) {
	start := time.Now()
	size := next.bytes()
	defer func() {
		s.metrics.RecordFlush(int(size), time.Since(start), err)
		s.logger.LogFlush(ctx, listNo, next.size(), err)
	}()

	grow := size - sl.snap.bytes()
	if grow > 0 {
		if err := s.mem.AcquireMemory(grow); err != nil {
			return fmt.Errorf("list %d: %w", listNo, err)
		}
	}
	unwind := func() {
		if grow > 0 {
			s.mem.ReleaseMemory(grow)
		}
	}

	idsKey := s.keys.Encode(listNo, listkey.IDs)
	if err := s.put(ctx, idsKey, encodeIDs(next.ids)); err != nil {
		unwind()
		return err
	}

	codesKey := s.keys.Encode(listNo, listkey.Codes)
	if err := s.put(ctx, codesKey, next.codes); err != nil {
		unwind()
		var prev []int64
		if sl.snap != nil {
			prev = sl.snap.ids
		}
		rerr := s.put(context.WithoutCancel(ctx), idsKey, encodeIDs(prev))
		s.logger.LogRollback(ctx, listNo, idsKey, rerr)
		return err
	}

	if grow < 0 {
		s.mem.ReleaseMemory(-grow)
	}
	sl.snap = next
	return nil
}

package ivfstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/ivfstore/internal/resource"
	"github.com/hupe1980/ivfstore/kv"
	"github.com/hupe1980/ivfstore/listkey"
)

// idSize is the persisted width of one id.
const idSize = 8

// snapshot is an immutable decoded list. len(ids) == len(codes)/codeSize.
type snapshot struct {
	ids   []int64
	codes []byte
}

func (s *snapshot) size() int {
	if s == nil {
		return 0
	}
	return len(s.ids)
}

func (s *snapshot) bytes() int64 {
	if s == nil {
		return 0
	}
	return int64(len(s.ids)*idSize + len(s.codes))
}

type slot struct {
	mu   sync.Mutex
	snap *snapshot
	refs int
}

// Store is a KV-backed inverted-list store.
// It is safe for concurrent use.
type Store struct {
	backend  kv.Backend
	nlist    int
	codeSize int
	mode     CacheMode
	strict   bool
	keys     listkey.Codec

	slots []slot

	mem     *resource.Controller
	logger  *Logger
	metrics MetricsCollector
	closed  atomic.Bool
}

// New creates a Store over backend with nlist lists of codeSize-byte codes.
// Nothing is read from the backend until a list is first accessed.
func New(backend kv.Backend, nlist, codeSize int, optFns ...Option) (*Store, error) {
	if backend == nil {
		return nil, &ErrInvalidConfig{Field: "backend", Value: nil}
	}
	if nlist <= 0 {
		return nil, &ErrInvalidConfig{Field: "nlist", Value: nlist}
	}
	if codeSize <= 0 {
		return nil, &ErrInvalidConfig{Field: "code size", Value: codeSize}
	}

	o := applyOptions(optFns)
	if o.mode != AlwaysCached && o.mode != OwnershipTransfer {
		return nil, &ErrInvalidConfig{Field: "cache mode", Value: o.mode}
	}
	if o.memoryLimit < 0 {
		return nil, &ErrInvalidConfig{Field: "memory limit", Value: o.memoryLimit}
	}

	return &Store{
		backend:  backend,
		nlist:    nlist,
		codeSize: codeSize,
		mode:     o.mode,
		strict:   o.strictMissing,
		keys:     listkey.NewCodec(o.keyPrefix),
		slots:    make([]slot, nlist),
		mem:      o.resourceController(),
		logger:   o.logger,
		metrics:  o.metricsCollector,
	}, nil
}

// NList returns the number of lists.
func (s *Store) NList() int { return s.nlist }

// CodeSize returns the size of one code in bytes.
func (s *Store) CodeSize() int { return s.codeSize }

// Mode returns the cache mode.
func (s *Store) Mode() CacheMode { return s.mode }

// MemoryUsage returns the bytes held by cached snapshots.
func (s *Store) MemoryUsage() int64 { return s.mem.MemoryUsage() }

// ListSize returns the number of entries in a list, loading it if needed.
func (s *Store) ListSize(ctx context.Context, listNo int) (int, error) {
	sl, err := s.slot("list size", listNo)
	if err != nil {
		return 0, err
	}
	sl.mu.Lock()
	defer sl.mu.Unlock()
	defer s.settle(sl)

	snap, err := s.load(ctx, listNo, sl, true)
	if err != nil {
		return 0, err
	}
	return snap.size(), nil
}

// GetIDs borrows the id array of a list. The returned slice must not be
// modified. Every successful call must be paired with ReleaseIDs.
func (s *Store) GetIDs(ctx context.Context, listNo int) ([]int64, error) {
	snap, err := s.borrow(ctx, "get ids", listNo)
	if err != nil {
		return nil, err
	}
	return snap.ids, nil
}

// ReleaseIDs returns a borrow obtained from GetIDs.
func (s *Store) ReleaseIDs(listNo int) { s.release(listNo) }

// GetCodes borrows the code array of a list: ListSize*CodeSize bytes. The
// returned slice must not be modified. Every successful call must be paired
// with ReleaseCodes.
func (s *Store) GetCodes(ctx context.Context, listNo int) ([]byte, error) {
	snap, err := s.borrow(ctx, "get codes", listNo)
	if err != nil {
		return nil, err
	}
	return snap.codes, nil
}

// ReleaseCodes returns a borrow obtained from GetCodes.
func (s *Store) ReleaseCodes(listNo int) { s.release(listNo) }

// GetSingleID returns the id at offset in a list.
func (s *Store) GetSingleID(ctx context.Context, listNo, offset int) (int64, error) {
	sl, err := s.slot("get single id", listNo)
	if err != nil {
		return 0, err
	}
	sl.mu.Lock()
	defer sl.mu.Unlock()
	defer s.settle(sl)

	snap, err := s.load(ctx, listNo, sl, true)
	if err != nil {
		return 0, err
	}
	if offset < 0 || offset >= snap.size() {
		return 0, &OutOfRangeError{Op: "get single id", ListNo: listNo, Offset: offset, Count: 1, Size: snap.size()}
	}
	return snap.ids[offset], nil
}

// GetSingleCode returns a copy of the code at offset in a list.
func (s *Store) GetSingleCode(ctx context.Context, listNo, offset int) ([]byte, error) {
	sl, err := s.slot("get single code", listNo)
	if err != nil {
		return nil, err
	}
	sl.mu.Lock()
	defer sl.mu.Unlock()
	defer s.settle(sl)

	snap, err := s.load(ctx, listNo, sl, true)
	if err != nil {
		return nil, err
	}
	if offset < 0 || offset >= snap.size() {
		return nil, &OutOfRangeError{Op: "get single code", ListNo: listNo, Offset: offset, Count: 1, Size: snap.size()}
	}
	code := make([]byte, s.codeSize)
	copy(code, snap.codes[offset*s.codeSize:])
	return code, nil
}

// RefCount returns the number of outstanding borrows of a list.
func (s *Store) RefCount(listNo int) int {
	if listNo < 0 || listNo >= s.nlist {
		return 0
	}
	sl := &s.slots[listNo]
	sl.mu.Lock()
	defer sl.mu.Unlock()
	return sl.refs
}

// Cached reports whether a snapshot of the list is held in memory.
func (s *Store) Cached(listNo int) bool {
	if listNo < 0 || listNo >= s.nlist {
		return false
	}
	sl := &s.slots[listNo]
	sl.mu.Lock()
	defer sl.mu.Unlock()
	return sl.snap != nil
}

// CachedLists returns the set of lists currently held in memory.
func (s *Store) CachedLists() *roaring.Bitmap {
	bm := roaring.New()
	for i := range s.slots {
		sl := &s.slots[i]
		sl.mu.Lock()
		if sl.snap != nil {
			bm.Add(uint32(i))
		}
		sl.mu.Unlock()
	}
	return bm
}

// Evict drops the cached snapshot of a list. It refuses while the list is
// borrowed and reports whether a snapshot was dropped.
func (s *Store) Evict(listNo int) bool {
	if listNo < 0 || listNo >= s.nlist {
		return false
	}
	sl := &s.slots[listNo]
	sl.mu.Lock()
	defer sl.mu.Unlock()
	if sl.refs > 0 || sl.snap == nil {
		return false
	}
	s.drop(sl)
	return true
}

// Reset drops every cached snapshot without writing anything to the backend.
// Borrow counts are kept; views already handed out stay readable.
func (s *Store) Reset() {
	dropped, borrowed := s.dropAll()
	s.logger.LogReset(context.Background(), dropped, borrowed)
}

// Close drops every cached snapshot and rejects further operations.
// The backend is not closed.
func (s *Store) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	s.dropAll()
	return nil
}

func (s *Store) dropAll() (dropped, borrowed int) {
	for i := range s.slots {
		sl := &s.slots[i]
		sl.mu.Lock()
		if sl.snap != nil {
			s.drop(sl)
			dropped++
		}
		if sl.refs > 0 {
			borrowed++
		}
		sl.mu.Unlock()
	}
	return dropped, borrowed
}

func (s *Store) slot(op string, listNo int) (*slot, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	if listNo < 0 || listNo >= s.nlist {
		return nil, &OutOfRangeError{Op: op, ListNo: listNo, Size: s.nlist, what: "list"}
	}
	return &s.slots[listNo], nil
}

func (s *Store) borrow(ctx context.Context, op string, listNo int) (*snapshot, error) {
	sl, err := s.slot(op, listNo)
	if err != nil {
		return nil, err
	}
	sl.mu.Lock()
	defer sl.mu.Unlock()

	snap, err := s.load(ctx, listNo, sl, true)
	if err != nil {
		s.settle(sl)
		return nil, err
	}
	sl.refs++
	return snap, nil
}

func (s *Store) release(listNo int) {
	if listNo < 0 || listNo >= s.nlist {
		return
	}
	sl := &s.slots[listNo]
	sl.mu.Lock()
	defer sl.mu.Unlock()
	if sl.refs > 0 {
		sl.refs--
	}
	s.settle(sl)
}

// settle drops an unborrowed snapshot in OwnershipTransfer mode.
// sl.mu must be held.
func (s *Store) settle(sl *slot) {
	if s.mode == OwnershipTransfer && sl.refs == 0 && sl.snap != nil {
		s.drop(sl)
	}
}

// drop removes the cached snapshot. sl.mu must be held.
func (s *Store) drop(sl *slot) {
	s.mem.ReleaseMemory(sl.snap.bytes())
	sl.snap = nil
	s.metrics.RecordEviction()
}

// load returns the cached snapshot of a list, fetching and caching it on a
// miss. An absent list loads as empty, unless read is set and the store is
// strict. sl.mu must be held.
func (s *Store) load(ctx context.Context, listNo int, sl *slot, read bool) (*snapshot, error) {
	if sl.snap != nil {
		s.metrics.RecordCacheHit()
		return sl.snap, nil
	}
	s.metrics.RecordCacheMiss()

	snap, present, err := s.fetch(ctx, listNo)
	if err != nil {
		return nil, err
	}
	if !present && read && s.strict {
		return nil, fmt.Errorf("list %d: %w", listNo, ErrNotFound)
	}
	if err := s.mem.AcquireMemory(snap.bytes()); err != nil {
		return nil, fmt.Errorf("list %d: %w", listNo, err)
	}
	sl.snap = snap
	return snap, nil
}

// fetch reads and decodes both arrays of a list without touching the cache.
// present is false when neither key exists.
func (s *Store) fetch(ctx context.Context, listNo int) (snap *snapshot, present bool, err error) {
	start := time.Now()
	defer func() {
		s.metrics.RecordLoad(int(snap.bytes()), time.Since(start), err)
		s.logger.LogLoad(ctx, listNo, snap.size(), err)
	}()

	idsKey := s.keys.Encode(listNo, listkey.IDs)
	codesKey := s.keys.Encode(listNo, listkey.Codes)

	var (
		rawIDs, rawCodes   []byte
		haveIDs, haveCodes bool
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rawIDs, haveIDs, err = s.get(gctx, idsKey)
		return err
	})
	g.Go(func() error {
		var err error
		rawCodes, haveCodes, err = s.get(gctx, codesKey)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, false, err
	}

	if len(rawIDs)%idSize != 0 {
		return nil, false, &CorruptionError{ListNo: listNo, Key: idsKey, Length: len(rawIDs), ElemSize: idSize, Reason: "id array not a multiple of the id size"}
	}
	if len(rawCodes)%s.codeSize != 0 {
		return nil, false, &CorruptionError{ListNo: listNo, Key: codesKey, Length: len(rawCodes), ElemSize: s.codeSize, Reason: "code array not a multiple of the code size"}
	}
	n := len(rawIDs) / idSize
	if len(rawCodes)/s.codeSize != n {
		return nil, false, &CorruptionError{ListNo: listNo, Key: codesKey, Length: len(rawCodes), ElemSize: s.codeSize, Reason: fmt.Sprintf("code array does not hold the %d entries of the id array", n)}
	}

	snap = &snapshot{ids: decodeIDs(rawIDs), codes: rawCodes}
	if snap.codes == nil {
		snap.codes = []byte{}
	}
	return snap, haveIDs || haveCodes, nil
}

func (s *Store) get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := s.backend.Get(ctx, key)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, &BackendError{Op: "get", Key: key, Err: err}
	}
	return b, true, nil
}

func (s *Store) put(ctx context.Context, key string, value []byte) error {
	if err := s.backend.Put(ctx, key, value); err != nil {
		return &BackendError{Op: "put", Key: key, Err: err}
	}
	return nil
}

package testutil

import (
	"math/rand"
	"sync"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// IDs returns n pseudo-random non-negative ids.
func (r *RNG) IDs(n int) []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]int64, n)
	for i := range ids {
		ids[i] = r.rand.Int63()
	}
	return ids
}

// Codes returns n pseudo-random codes of codeSize bytes each, concatenated.
func (r *RNG) Codes(n, codeSize int) []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	codes := make([]byte, n*codeSize)
	_, _ = r.rand.Read(codes)
	return codes
}

// MapLists is an in-memory reference implementation of inverted lists.
// It is not safe for concurrent use.
type MapLists struct {
	codeSize int
	ids      map[int][]int64
	codes    map[int][]byte
}

// NewMapLists creates empty reference lists.
func NewMapLists(codeSize int) *MapLists {
	return &MapLists{
		codeSize: codeSize,
		ids:      make(map[int][]int64),
		codes:    make(map[int][]byte),
	}
}

// Size returns the number of entries of a list.
func (m *MapLists) Size(listNo int) int {
	return len(m.ids[listNo])
}

// IDs returns the ids of a list.
func (m *MapLists) IDs(listNo int) []int64 {
	return append([]int64{}, m.ids[listNo]...)
}

// Codes returns the codes of a list.
func (m *MapLists) Codes(listNo int) []byte {
	return append([]byte{}, m.codes[listNo]...)
}

// Add appends n entries and returns the previous size.
func (m *MapLists) Add(listNo, n int, ids []int64, codes []byte) int {
	off := m.Size(listNo)
	m.ids[listNo] = append(m.ids[listNo], ids[:n]...)
	m.codes[listNo] = append(m.codes[listNo], codes[:n*m.codeSize]...)
	return off
}

// Update overwrites n entries at offset. It reports false if the range
// does not fit.
func (m *MapLists) Update(listNo, offset, n int, ids []int64, codes []byte) bool {
	if offset < 0 || n < 0 || offset+n > m.Size(listNo) {
		return false
	}
	copy(m.ids[listNo][offset:], ids[:n])
	copy(m.codes[listNo][offset*m.codeSize:], codes[:n*m.codeSize])
	return true
}

// Resize truncates or zero-extends a list.
func (m *MapLists) Resize(listNo, size int) {
	ids := make([]int64, size)
	codes := make([]byte, size*m.codeSize)
	copy(ids, m.ids[listNo])
	copy(codes, m.codes[listNo])
	m.ids[listNo] = ids
	m.codes[listNo] = codes
}

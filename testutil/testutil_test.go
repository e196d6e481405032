package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRNG_Deterministic(t *testing.T) {
	rng := NewRNG(4711)
	ids := rng.IDs(8)
	codes := rng.Codes(8, 4)

	assert.Len(t, ids, 8)
	assert.Len(t, codes, 32)
	for _, id := range ids {
		assert.GreaterOrEqual(t, id, int64(0))
	}

	rng.Reset()
	assert.Equal(t, ids, rng.IDs(8))
	assert.Equal(t, codes, rng.Codes(8, 4))
	assert.Equal(t, int64(4711), rng.Seed())
}

func TestMapLists(t *testing.T) {
	m := NewMapLists(2)

	assert.Equal(t, 0, m.Add(1, 2, []int64{1, 2}, []byte{1, 1, 2, 2}))
	assert.Equal(t, 2, m.Add(1, 1, []int64{3}, []byte{3, 3}))
	assert.Equal(t, []int64{1, 2, 3}, m.IDs(1))

	assert.True(t, m.Update(1, 1, 1, []int64{20}, []byte{9, 9}))
	assert.False(t, m.Update(1, 2, 2, []int64{0, 0}, []byte{0, 0, 0, 0}))
	assert.Equal(t, []byte{1, 1, 9, 9, 3, 3}, m.Codes(1))

	m.Resize(1, 4)
	assert.Equal(t, []int64{1, 20, 3, 0}, m.IDs(1))
	assert.Equal(t, []byte{1, 1, 9, 9, 3, 3, 0, 0}, m.Codes(1))

	m.Resize(1, 1)
	assert.Equal(t, 1, m.Size(1))
	assert.Empty(t, m.IDs(7))
}

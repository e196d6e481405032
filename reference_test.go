package ivfstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/ivfstore/kv"
	"github.com/hupe1980/ivfstore/testutil"
)

func TestRandomOperationsMatchReference(t *testing.T) {
	ctx := context.Background()
	for _, mode := range []CacheMode{AlwaysCached, OwnershipTransfer} {
		t.Run(mode.String(), func(t *testing.T) {
			rng := testutil.NewRNG(4711)
			ref := testutil.NewMapLists(testCodeSize)
			backend := kv.NewMemoryBackend()
			st := newTestStore(t, backend, WithCacheMode(mode))

			for range 500 {
				listNo := rng.Intn(testNList)
				switch rng.Intn(5) {
				case 0, 1:
					n := rng.Intn(4)
					ids, codes := rng.IDs(n), rng.Codes(n, testCodeSize)
					off, err := st.AddEntries(ctx, listNo, n, ids, codes)
					require.NoError(t, err)
					assert.Equal(t, ref.Add(listNo, n, ids, codes), off)
				case 2:
					size := ref.Size(listNo)
					offset := rng.Intn(size + 2)
					n := rng.Intn(3)
					ids, codes := rng.IDs(n), rng.Codes(n, testCodeSize)
					err := st.UpdateEntries(ctx, listNo, offset, n, ids, codes)
					if ref.Update(listNo, offset, n, ids, codes) {
						require.NoError(t, err)
					} else {
						require.ErrorIs(t, err, ErrOutOfRange)
					}
				case 3:
					size := rng.Intn(ref.Size(listNo) + 3)
					require.NoError(t, st.Resize(ctx, listNo, size))
					ref.Resize(listNo, size)
				case 4:
					st.Reset()
				}
			}

			// A fresh store over the same backend sees exactly the reference.
			fresh := newTestStore(t, backend)
			for listNo := range testNList {
				ids, err := fresh.GetIDs(ctx, listNo)
				require.NoError(t, err)
				codes, err := fresh.GetCodes(ctx, listNo)
				require.NoError(t, err)

				assert.Equal(t, ref.IDs(listNo), ids, "list %d", listNo)
				assert.Equal(t, ref.Codes(listNo), codes, "list %d", listNo)
				fresh.ReleaseIDs(listNo)
				fresh.ReleaseCodes(listNo)
			}
		})
	}
}

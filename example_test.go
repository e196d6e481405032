package ivfstore_test

import (
	"context"
	"fmt"
	"log"

	"github.com/hupe1980/ivfstore"
	"github.com/hupe1980/ivfstore/kv"
)

// Example_appendAndRead demonstrates appending entries and borrowing them.
func Example_appendAndRead() {
	ctx := context.Background()

	st, err := ivfstore.New(kv.NewMemoryBackend(), 4, 2)
	if err != nil {
		log.Fatal(err)
	}
	defer st.Close()

	off, err := st.AddEntries(ctx, 1, 3, []int64{10, 20, 30}, []byte{1, 1, 2, 2, 3, 3})
	if err != nil {
		log.Fatal(err)
	}
	off2, err := st.AddEntries(ctx, 1, 2, []int64{40, 50}, []byte{4, 4, 5, 5})
	if err != nil {
		log.Fatal(err)
	}

	ids, err := st.GetIDs(ctx, 1)
	if err != nil {
		log.Fatal(err)
	}
	defer st.ReleaseIDs(1)

	fmt.Println(off, off2, ids)
	// Output: 0 3 [10 20 30 40 50]
}

// Example_resize demonstrates truncating and zero-filled growth.
func Example_resize() {
	ctx := context.Background()

	st, err := ivfstore.New(kv.NewMemoryBackend(), 1, 1)
	if err != nil {
		log.Fatal(err)
	}
	defer st.Close()

	if _, err := st.AddEntries(ctx, 0, 3, []int64{7, 8, 9}, []byte{7, 8, 9}); err != nil {
		log.Fatal(err)
	}
	if err := st.Resize(ctx, 0, 2); err != nil {
		log.Fatal(err)
	}
	if err := st.Resize(ctx, 0, 4); err != nil {
		log.Fatal(err)
	}

	codes, err := st.GetCodes(ctx, 0)
	if err != nil {
		log.Fatal(err)
	}
	defer st.ReleaseCodes(0)

	fmt.Println(codes)
	// Output: [7 8 0 0]
}

// Example_mergeFrom demonstrates combining two shards.
func Example_mergeFrom() {
	ctx := context.Background()

	a, _ := ivfstore.New(kv.NewMemoryBackend(), 2, 1)
	b, _ := ivfstore.New(kv.NewMemoryBackend(), 2, 1)
	defer a.Close()
	defer b.Close()

	_, _ = a.AddEntries(ctx, 0, 2, []int64{0, 1}, []byte{0, 1})
	_, _ = b.AddEntries(ctx, 0, 1, []int64{0}, []byte{2})
	_, _ = b.AddEntries(ctx, 1, 1, []int64{1}, []byte{3})

	if err := a.MergeFrom(ctx, b, 1000); err != nil {
		log.Fatal(err)
	}

	total, _ := a.ComputeNTotal(ctx)
	id, _ := a.GetSingleID(ctx, 0, 2)
	fmt.Println(total, id)
	// Output: 4 1000
}

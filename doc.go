// Package ivfstore stores the inverted lists of an IVF index in a key-value
// backend.
//
// Each list holds two parallel arrays: int64 ids and fixed-width codes of
// codeSize bytes per entry. They are persisted under two keys:
//
//	list-<n>/ids     little-endian int64 values
//	list-<n>/codes   raw code bytes
//
// A Store fetches lists on demand, keeps decoded snapshots in memory and
// writes both arrays back on every mutation.
//
// # Quick Start
//
//	backend := kv.NewMemoryBackend()
//	st, _ := ivfstore.New(backend, 1024, 16)
//	off, _ := st.AddEntries(ctx, 3, 2, []int64{10, 20}, codes)
//
//	ids, _ := st.GetIDs(ctx, 3)
//	defer st.ReleaseIDs(3)
//
// # Borrowed Views
//
// GetIDs and GetCodes return views into the cached snapshot without copying.
// Callers must not modify them and must call the matching release once done.
// Snapshots are never written in place: a mutation builds a new snapshot and
// swaps it in after both backend writes succeed, so a view obtained earlier
// keeps showing the contents it was borrowed with.
//
// # Cache Modes
//
// AlwaysCached keeps loaded lists until Reset, Evict or Close. In
// OwnershipTransfer mode a list is only cached while borrowed.
//
// # Concurrency
//
// Every list has its own mutex guarding its snapshot and borrow count.
// Operations on different lists never contend; operations on the same list
// are serialized.
package ivfstore

// Package testutil provides testing utilities for ivfstore.
//
// This package is intended for use in tests and benchmarks only.
//
// # Random Entries
//
//	rng := testutil.NewRNG(seed)
//	ids := rng.IDs(16)
//	codes := rng.Codes(16, codeSize)
//
// # Reference Lists
//
// MapLists is a plain in-memory implementation of the inverted list
// operations. Tests replay the same operations against a store and a
// MapLists and compare the results.
package testutil

// Package listkey maps inverted-list arrays to storage keys and back.
//
// Every list owns two keys, one for its identifier array and one for its
// code array:
//
//	list-<n>/ids
//	list-<n>/codes
//
// where <n> is the decimal list number without leading zeros. The format is
// persisted and must stay stable across releases.
//
// Decode is total: keys that do not follow the format classify as Other, so a
// backend that also holds unrelated keys can be enumerated safely.
package listkey

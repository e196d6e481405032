// Package resource accounts memory held by cached inverted-list snapshots.
//
// The list store reserves the byte size of every snapshot it caches and
// releases it when the snapshot is evicted or replaced. With a configured
// limit, a reservation that would exceed it fails instead of blocking.
package resource

// Package cmap provides a concurrent map for request-scoped lookups.
//
// Keys are spread over a fixed number of shards, each guarded by its own
// RWMutex, so reads on one shard never wait on writes to another.
//
// Usage:
//
//	m := cmap.New[string, any]()
//	m.SetIfAbsent("token", value)
//	v, ok := m.Get("token")
//	m.Pop("token")
//
// All methods are safe for concurrent use. Whole entries are inserted and
// removed; values are never mutated in place by the map.
package cmap

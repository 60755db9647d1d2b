// Package kv abstracts the key-value store that backs credential, session,
// and access-token records.
//
// The store is the single source of truth: request handlers keep no state of
// their own, and record expiry is entirely the store's job (TTL on Put).
// Individual calls are atomic; sequences of calls are not transactional.
package kv

import (
	"context"
	"errors"
	"time"
)

// ErrStore wraps backend failures so callers can map them to a generic
// 500-class response without inspecting driver errors.
var ErrStore = errors.New("kv: store failure")

// Store is the minimal contract the hosting platform's KV capability
// provides, plus two conditional operations both shipped backends support.
//
// A ttl <= 0 on Put means the entry does not expire.
type Store interface {
	// Get returns the value for key, or ok=false if the key is absent
	// or its TTL has elapsed.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)

	// Put stores value under key, replacing any previous entry.
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// GetDelete atomically reads and removes key. At most one concurrent
	// caller observes ok=true for a given entry; this is what makes
	// access tokens single-use.
	GetDelete(ctx context.Context, key string) (value []byte, ok bool, err error)

	// CompareAndDelete removes key only if its current value equals expect.
	// Returns whether a deletion happened.
	CompareAndDelete(ctx context.Context, key string, expect []byte) (bool, error)
}

// Namespace is a prefixed view over a Store. It mirrors the platform's
// notion of separate KV namespaces (users, sessions, session index, access
// tokens) on top of a single backend.
type Namespace struct {
	store  Store
	prefix string
}

// NewNamespace returns a view of store where every key is prefixed with
// "<name>:".
func NewNamespace(store Store, name string) Namespace {
	return Namespace{store: store, prefix: name + ":"}
}

func (n Namespace) key(k string) string { return n.prefix + k }

// Get reads a namespaced key.
func (n Namespace) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return n.store.Get(ctx, n.key(key))
}

// Put writes a namespaced key.
func (n Namespace) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return n.store.Put(ctx, n.key(key), value, ttl)
}

// Delete removes a namespaced key.
func (n Namespace) Delete(ctx context.Context, key string) error {
	return n.store.Delete(ctx, n.key(key))
}

// GetDelete atomically reads and removes a namespaced key.
func (n Namespace) GetDelete(ctx context.Context, key string) ([]byte, bool, error) {
	return n.store.GetDelete(ctx, n.key(key))
}

// CompareAndDelete conditionally removes a namespaced key.
func (n Namespace) CompareAndDelete(ctx context.Context, key string, expect []byte) (bool, error) {
	return n.store.CompareAndDelete(ctx, n.key(key), expect)
}

// Package kv is the small key-value capability the chat view persists its selection mirror
// and navigation markers through. Backends: go-cache (process memory) and Redis.
package kv

import "context"

type Store interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// Prefixed scopes every key of store under prefix, e.g. one namespace per user.
func Prefixed(store Store, prefix string) Store {
	return &prefixedStore{inner: store, prefix: prefix}
}

type prefixedStore struct {
	inner  Store
	prefix string
}

func (p *prefixedStore) Get(ctx context.Context, key string) (string, bool, error) {
	return p.inner.Get(ctx, p.prefix+key)
}

func (p *prefixedStore) Set(ctx context.Context, key, value string) error {
	return p.inner.Set(ctx, p.prefix+key, value)
}

func (p *prefixedStore) Remove(ctx context.Context, key string) error {
	return p.inner.Remove(ctx, p.prefix+key)
}

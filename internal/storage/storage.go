package storage

import (
	"context"
	"errors"
)

// ErrValueTooLarge is returned by backends that cap value size
var ErrValueTooLarge = errors.New("value too large")

// Storage is client-held key/value state: the draft text and the coin
// balance. Values are plain strings, like browser local storage.
type Storage interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// WithPrefix scopes every key of s under prefix, so many clients can share
// one backend.
func WithPrefix(s Storage, prefix string) Storage {
	return &prefixed{inner: s, prefix: prefix}
}

type prefixed struct {
	inner  Storage
	prefix string
}

func (p *prefixed) Get(ctx context.Context, key string) (string, bool, error) {
	return p.inner.Get(ctx, p.prefix+key)
}

func (p *prefixed) Set(ctx context.Context, key, value string) error {
	return p.inner.Set(ctx, p.prefix+key, value)
}

func (p *prefixed) Remove(ctx context.Context, key string) error {
	return p.inner.Remove(ctx, p.prefix+key)
}

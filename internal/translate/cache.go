// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package translate

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Cache stores translations keyed by backend name, language pair and text.
type Cache interface {
	Lookup(ctx context.Context, backend, src, dest, text string) (string, bool, error)
	Put(ctx context.Context, backend, src, dest, text, translated string) error
}

// CachedBackend serves repeated translations from a Cache and records new
// ones. Cache failures are logged and fall through to the wrapped backend.
type CachedBackend struct {
	backend Backend
	name    string
	cache   Cache
	log     logrus.FieldLogger
}

// NewCachedBackend wraps b. name keys the cache so that different backends
// do not share entries.
func NewCachedBackend(b Backend, name string, c Cache, log logrus.FieldLogger) *CachedBackend {
	return &CachedBackend{backend: b, name: name, cache: c, log: log}
}

// Translate returns the cached translation of text or asks the backend.
func (c *CachedBackend) Translate(ctx context.Context, text, src, dest string) (string, error) {
	got, ok, err := c.cache.Lookup(ctx, c.name, src, dest, text)
	if err != nil {
		c.log.WithError(err).Warn("translation cache lookup failed")
	} else if ok {
		return got, nil
	}

	out, err := c.backend.Translate(ctx, text, src, dest)
	if err != nil {
		return "", err
	}

	if out != "" {
		if err := c.cache.Put(ctx, c.name, src, dest, text, out); err != nil {
			c.log.WithError(err).Warn("translation cache write failed")
		}
	}
	return out, nil
}

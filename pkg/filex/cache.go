package filex

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"streamfile/pkg/fserr"
	"streamfile/pkg/logger"
)

// Cache keeps the most recently opened handle open so that reopening the
// same address is free. It holds at most one handle; opening a different
// address closes the previous one first. A Cache is not safe for
// concurrent use.
type Cache struct {
	opts Options
	lru  *lru.Cache[string, Handle]
}

// NewCache returns an empty cache opening files with opts.
func NewCache(opts Options) *Cache {
	l, err := lru.NewWithEvict[string, Handle](1, func(name string, h Handle) {
		logger.Debug("Closing cached file", "name", name)
		if err := h.Close(); err != nil {
			logger.Warn("Failed to close cached file", "name", name, "err", err)
		}
	})
	if err != nil {
		// Only reachable with a non-positive size.
		panic(err)
	}
	return &Cache{opts: opts, lru: l}
}

// Open returns the cached handle when name matches the cached address,
// at whatever position it was left. Otherwise the cached handle is closed
// and name is opened. The returned handle stays owned by the cache: its
// Close does nothing.
func (c *Cache) Open(name, mode string) (Handle, error) {
	if err := fserr.CheckMode(mode); err != nil {
		return nil, err
	}
	if h, ok := c.lru.Get(name); ok {
		return cachedHandle{h}, nil
	}

	c.lru.Purge()
	h, err := Open(name, mode, c.opts)
	if err != nil {
		return nil, err
	}
	c.lru.Add(name, h)
	return cachedHandle{h}, nil
}

// Release gives back a handle obtained from Open. The cache keeps it open.
func (c *Cache) Release(Handle) {}

// Cached returns the address of the cached handle, if any.
func (c *Cache) Cached() (string, bool) {
	keys := c.lru.Keys()
	if len(keys) == 0 {
		return "", false
	}
	return keys[0], true
}

// Close closes the cached handle.
func (c *Cache) Close() {
	c.lru.Purge()
}

// cachedHandle hides Close from callers that do not own the handle.
type cachedHandle struct {
	Handle
}

func (cachedHandle) Close() error { return nil }

package spritegrid

import (
	"sync"

	"golang.org/x/sync/singleflight"
)

// ZoneCache memoizes zone maps by palette key. Entries are immutable and are
// never evicted except through Forget. Concurrent requests for the same key
// share a single build.
type ZoneCache struct {
	opts   PartitionOptions
	maps   sync.Map // palette key -> *ZoneMap
	flight singleflight.Group
}

// NewZoneCache returns an empty cache that builds maps with opts.
func NewZoneCache(opts PartitionOptions) *ZoneCache {
	return &ZoneCache{opts: opts.withDefaults()}
}

// Get returns the zone map for p, building it on first use.
func (c *ZoneCache) Get(p *Palette) (*ZoneMap, error) {
	if p == nil {
		return nil, ErrEmptyPalette
	}

	key := p.Key()
	if zm, ok := c.maps.Load(key); ok {
		return zm.(*ZoneMap), nil
	}

	v, err, _ := c.flight.Do(key, func() (interface{}, error) {
		zm, err := BuildZoneMap(p, c.opts)
		if err != nil {
			return nil, err
		}
		actual, loaded := c.maps.LoadOrStore(key, zm)
		if !loaded {
			Logger().Debug("spritegrid: zone map cached", "palette", key)
		}
		return actual, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*ZoneMap), nil
}

// Warm builds and caches the zone maps of the given palettes ahead of use.
func (c *ZoneCache) Warm(palettes ...*Palette) error {
	for _, p := range palettes {
		if _, err := c.Get(p); err != nil {
			return err
		}
	}
	return nil
}

// Forget drops the cached map for p, if any.
func (c *ZoneCache) Forget(p *Palette) {
	if p == nil {
		return
	}
	c.maps.Delete(p.Key())
}

// Options returns the partition options maps are built with.
func (c *ZoneCache) Options() PartitionOptions {
	return c.opts
}

// Len returns the number of cached zone maps.
func (c *ZoneCache) Len() int {
	n := 0
	c.maps.Range(func(_, _ interface{}) bool {
		n++
		return true
	})
	return n
}

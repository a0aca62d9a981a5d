package cache

import (
	"context"
	"time"
)

// Flusher periodically persists a ProjectCache to disk while it has
// unpersisted changes, running as a single background goroutine per cache
// instance.
type Flusher struct {
	cache    *ProjectCache
	path     string
	interval time.Duration
	stop     chan struct{}
	done     chan struct{}
}

// NewFlusher creates a flusher for cache, writing snapshots to path every
// interval.
func NewFlusher(cache *ProjectCache, path string, interval time.Duration) *Flusher {
	return &Flusher{
		cache:    cache,
		path:     path,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Run blocks, flushing on the configured interval until ctx is canceled or
// Stop is called. It's meant to be launched with `go f.Run(ctx)`.
func (f *Flusher) Run(ctx context.Context) {
	defer close(f.done)
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			f.flushIfDirty()
			return
		case <-f.stop:
			f.flushIfDirty()
			return
		case <-ticker.C:
			f.flushIfDirty()
		}
	}
}

// Stop signals Run to flush once more and exit, then blocks until it has.
func (f *Flusher) Stop() {
	close(f.stop)
	<-f.done
}

func (f *Flusher) flushIfDirty() {
	if !f.cache.Dirty() {
		return
	}
	f.cache.mu.Lock()
	dirty := f.cache.dirty
	f.cache.dirty = false
	f.cache.mu.Unlock()
	if !dirty {
		return
	}
	if err := f.cache.Save(f.path); err != nil {
		f.cache.mu.Lock()
		f.cache.dirty = true
		f.cache.mu.Unlock()
		f.cache.log.Errorf("cache: flush to %s failed: %v", f.path, err)
		return
	}
	f.cache.log.Debugf("cache: flushed to %s", f.path)
}

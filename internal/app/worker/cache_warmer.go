package worker

import (
	"context"
	"log"
	"time"
)

// Warmer refreshes a cache; ReferenceService satisfies it.
type Warmer interface {
	Warm(ctx context.Context) error
}

// CacheWarmer periodically preloads reference data so list reads rarely hit
// Postgres.
type CacheWarmer struct {
	warmer   Warmer
	interval time.Duration
	done     chan struct{}
}

func NewCacheWarmer(warmer Warmer, interval time.Duration) *CacheWarmer {
	return &CacheWarmer{warmer: warmer, interval: interval, done: make(chan struct{})}
}

// Start warms once immediately and then on every tick until ctx is cancelled.
// It blocks; run it in its own goroutine.
func (w *CacheWarmer) Start(ctx context.Context) {
	defer close(w.done)
	log.Printf("Cache warmer started, interval %s", w.interval)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.warm(ctx)
	for {
		select {
		case <-ctx.Done():
			log.Println("Cache warmer stopping...")
			return
		case <-ticker.C:
			w.warm(ctx)
		}
	}
}

// Done is closed once Start has returned.
func (w *CacheWarmer) Done() <-chan struct{} {
	return w.done
}

func (w *CacheWarmer) warm(ctx context.Context) {
	warmCtx, cancel := context.WithTimeout(ctx, w.interval)
	defer cancel()
	if err := w.warmer.Warm(warmCtx); err != nil && ctx.Err() == nil {
		log.Printf("ERROR: cache warm failed: %v", err)
	}
}

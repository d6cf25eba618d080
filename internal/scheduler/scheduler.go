// Package scheduler runs thumbnail generation over a walk's media objects
// with content-hash deduplication and a bounded worker pool.
package scheduler

import (
	"context"
	"sync"

	"media-scanner/internal/logging"
	"media-scanner/internal/media"
	"media-scanner/internal/metrics"
	"media-scanner/internal/workers"
)

// Scheduler fans thumbnail work out to a fixed pool. Thumbnails are keyed
// by content hash, so only the first object seen per hash is rendered;
// every other copy shares its output.
type Scheduler struct {
	CacheRoot string
	// Workers overrides the pool size when positive.
	Workers int
}

// Run generates thumbnails for every distinct content hash in objs.
// Failures are logged per object and do not stop the run; the error
// returned reflects only cancellation.
func (s *Scheduler) Run(ctx context.Context, objs []*media.Object) error {
	seen := make(map[string]bool, len(objs))
	unique := make([]*media.Object, 0, len(objs))
	for _, obj := range objs {
		if seen[obj.Hash()] {
			metrics.ThumbnailDeduplicated.Inc()
			logging.Debug("sharing thumbnails of %s (duplicate content)", obj.Name())
			continue
		}
		seen[obj.Hash()] = true
		unique = append(unique, obj)
	}

	count := s.Workers
	if count <= 0 {
		count = workers.ForCPU(0)
	}
	metrics.ThumbnailWorkers.Set(float64(count))
	logging.Info("generating thumbnails for %d objects (%d duplicates shared) with %d workers",
		len(unique), len(objs)-len(unique), count)

	jobs := make(chan *media.Object)
	var wg sync.WaitGroup
	for i := 0; i < count; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for obj := range jobs {
				if ctx.Err() != nil {
					continue
				}
				if err := obj.GenerateThumbs(ctx, s.CacheRoot); err != nil && ctx.Err() == nil {
					logging.Warn("thumbnails for %s: %v", obj.Name(), err)
				}
			}
		}()
	}

	for _, obj := range unique {
		select {
		case jobs <- obj:
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}
	}
	close(jobs)
	wg.Wait()

	return ctx.Err()
}

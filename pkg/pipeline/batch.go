package pipeline

import (
	"context"
	"sync"
)

// BatchItem is the outcome of converting one manifest in a batch.
type BatchItem struct {
	Path   string
	Result *Result
	Err    error
}

// ExecuteBatch converts many independent manifests concurrently, fanning out
// across at most workers goroutines. Results come back indexed like the
// input paths; one failing manifest never affects its siblings.
//
// Each conversion runs with a copy of opts pointed at its own manifest, so
// the pipeline's pure core needs no locking.
func (r *Runner) ExecuteBatch(ctx context.Context, paths []string, opts Options, workers int) []BatchItem {
	if workers <= 0 {
		workers = 4
	}
	if workers > len(paths) {
		workers = len(paths)
	}

	items := make([]BatchItem, len(paths))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				itemOpts := opts
				itemOpts.ManifestPath = paths[i]
				itemOpts.ManifestData = nil
				itemOpts.Filename = ""

				res, err := r.Execute(ctx, itemOpts)
				items[i] = BatchItem{Path: paths[i], Result: res, Err: err}
			}
		}()
	}

	for i := range paths {
		select {
		case <-ctx.Done():
			items[i] = BatchItem{Path: paths[i], Err: ctx.Err()}
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	return items
}

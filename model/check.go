package model

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/fumola-dev/fumola/cas"
	"github.com/rs/zerolog/log"
)

// Outcome is the result of checking one spec file. Err is set when the spec
// could not be loaded, compiled or run; Result otherwise.
type Outcome struct {
	Path   string
	Result *RunResult
	Err    error
}

type CheckOptions struct {
	Workers   int // 0 means runtime.NumCPU()
	MaxRounds int // overrides the spec's budget when positive
	CacheSize int // per-run LRU cache entries; 0 means the default
	FailFast  bool
}

type checkJob struct {
	index int
	path  string
}

// CheckAll runs every spec in paths concurrently. Each run owns its system
// and its CAS. Outcomes are returned in the order of paths.
func CheckAll(ctx context.Context, paths []string, opts CheckOptions) []*Outcome {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(paths) {
		workers = len(paths)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	outcomes := make([]*Outcome, len(paths))
	jobs := make(chan checkJob)
	var failed int64
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for job := range jobs {
				log.Debug().Int("worker", id).Str("spec", job.path).Msg("checking spec")
				o := checkOne(job.path, opts)
				outcomes[job.index] = o
				if o.Err != nil || !o.Result.Success {
					atomic.AddInt64(&failed, 1)
					if opts.FailFast {
						cancel()
					}
				}
			}
		}(w)
	}

feed:
	for i, p := range paths {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- checkJob{index: i, path: p}:
		}
	}
	close(jobs)
	wg.Wait()

	for i, o := range outcomes {
		if o == nil {
			outcomes[i] = &Outcome{Path: paths[i], Err: context.Canceled}
		}
	}
	log.Debug().Int("specs", len(paths)).Int64("failed", atomic.LoadInt64(&failed)).Msg("check complete")
	return outcomes
}

func checkOne(path string, opts CheckOptions) *Outcome {
	out := &Outcome{Path: path}
	spec, err := LoadSpecFromFile(path)
	if err != nil {
		out.Err = err
		return out
	}
	if opts.MaxRounds > 0 {
		spec.Spec.MaxRounds = opts.MaxRounds
	}
	exec, err := spec.BuildExecutor(cas.NewLRUCache(cas.NewMemoryCAS(), opts.CacheSize))
	if err != nil {
		out.Err = err
		return out
	}
	if err := exec.Initialize(); err != nil {
		out.Err = err
		return out
	}
	out.Result, out.Err = exec.Run()
	return out
}

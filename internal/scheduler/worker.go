package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tastythames/ssh-probe/internal/cache"
	"github.com/tastythames/ssh-probe/internal/collector"
	"github.com/tastythames/ssh-probe/internal/sshclient"
)

// Collector is what a worker runs per job.
type Collector interface {
	Collect(ctx context.Context, t sshclient.Target) (*collector.Report, error)
}

type WorkerDeps struct {
	Remote Collector
	Local  Collector
	Cache  cache.Cache
	// Timeout bounds one whole collection run.
	Timeout time.Duration
	Log     *zap.Logger
}

// StartWorker collects jobs until the channel is closed. Each job gets its
// own session and report; nothing is shared between jobs except the cache.
func StartWorker(id int, jobs <-chan Job, deps WorkerDeps) {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.Int("worker", id))
	log.Debug("worker started")

	for job := range jobs {
		deps.Cache.Set(job.Name, runJob(job, deps, log))
	}
	log.Debug("worker stopped")
}

// StartPool starts n workers and returns a WaitGroup that is done once jobs
// is closed and drained.
func StartPool(n int, jobs <-chan Job, deps WorkerDeps) *sync.WaitGroup {
	if n <= 0 {
		n = 1
	}
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			StartWorker(id, jobs, deps)
		}(i)
	}
	return &wg
}

func runJob(job Job, deps WorkerDeps, log *zap.Logger) cache.Result {
	res := cache.Result{
		At:     time.Now(),
		Labels: job.Labels,
	}

	col := deps.Remote
	target := sshclient.Target{Host: job.Name}
	if job.Local {
		col = deps.Local
	} else {
		var err error
		target, err = job.SSHTarget()
		if err != nil {
			log.Warn("credential", zap.String("target", job.Name), zap.Error(err))
			res.Err = err
			return res
		}
	}

	if col == nil {
		res.Err = fmt.Errorf("no collector for target %s (local=%v)", job.Name, job.Local)
		return res
	}

	ctx := context.Background()
	if deps.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, deps.Timeout)
		defer cancel()
	}

	rep, err := col.Collect(ctx, target)
	res.Report = rep
	if err != nil {
		res.Err = err
		return res
	}
	res.Err = rep.Err()
	return res
}

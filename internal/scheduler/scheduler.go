package scheduler

import (
	"context"
	"math/rand"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

type Scheduler struct {
	interval time.Duration
	jitter   time.Duration

	jobCh chan<- Job
	log   *zap.Logger

	enqueued uint64
	dropped  uint64
}

type Options struct {
	Interval time.Duration
	Jitter   time.Duration
	JobCh    chan<- Job
	Log      *zap.Logger
}

// NewScheduler creates a scheduler that feeds jobs into JobCh.
// - Interval: base schedule interval
// - Jitter: random delay added each cycle (0..Jitter) to reduce herd effects
func NewScheduler(opts Options) *Scheduler {
	if opts.Interval <= 0 {
		opts.Interval = 10 * time.Second
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	return &Scheduler{
		interval: opts.Interval,
		jitter:   opts.Jitter,
		jobCh:    opts.JobCh,
		log:      opts.Log,
	}
}

// Once enqueues every job exactly once, waiting for queue space, and returns
// when all of them are queued or ctx is done.
func (s *Scheduler) Once(ctx context.Context, jobs []Job) {
	for _, j := range jobs {
		select {
		case <-ctx.Done():
			return
		case s.jobCh <- j:
			atomic.AddUint64(&s.enqueued, 1)
		}
	}
}

// Run enqueues all jobs immediately and then every interval until ctx is done.
func (s *Scheduler) Run(ctx context.Context, jobs []Job) {
	s.enqueueAll(ctx, jobs)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.jitter > 0 {
				delay := time.Duration(rand.Int63n(int64(s.jitter)))
				timer := time.NewTimer(delay)
				select {
				case <-ctx.Done():
					timer.Stop()
					return
				case <-timer.C:
				}
			}
			s.enqueueAll(ctx, jobs)
		}
	}
}

// enqueueAll never blocks: when the queue is full the job is dropped and
// counted, so a slow host cannot stall the schedule.
func (s *Scheduler) enqueueAll(ctx context.Context, jobs []Job) {
	var dropped int
	for _, j := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		select {
		case s.jobCh <- j:
			atomic.AddUint64(&s.enqueued, 1)
		default:
			atomic.AddUint64(&s.dropped, 1)
			dropped++
		}
	}

	if dropped > 0 {
		s.log.Warn("job queue full",
			zap.Int("dropped", dropped),
			zap.Uint64("dropped_total", atomic.LoadUint64(&s.dropped)))
	}
}

func (s *Scheduler) Stats() (enqueued uint64, dropped uint64) {
	return atomic.LoadUint64(&s.enqueued), atomic.LoadUint64(&s.dropped)
}

package pipeline

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/deepakdhakad/stickerbot/internal/config"
)

// JobRunner executes one job; satisfied by *Runner.
type JobRunner interface {
	Run(ctx context.Context, job Job)
}

// Pool runs jobs on a fixed number of workers draining a bounded queue.
// Burst traffic beyond the queue capacity is dropped rather than buffered
// without limit; dropped jobs are lost, matching the pipeline's no-retry
// semantics. Jobs for the same sender may complete out of order.
type Pool struct {
	runner  JobRunner
	jobs    chan Job
	workers int
	log     zerolog.Logger
	stop    chan struct{}
	wg      sync.WaitGroup
}

func NewPool(cfg config.PipelineConfig, runner JobRunner, log zerolog.Logger) *Pool {
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	queueSize := cfg.QueueSize
	if queueSize < 1 {
		queueSize = workers
	}

	return &Pool{
		runner:  runner,
		jobs:    make(chan Job, queueSize),
		workers: workers,
		log:     log,
		stop:    make(chan struct{}),
	}
}

func (p *Pool) Start(ctx context.Context) {
	p.log.Info().Int("workers", p.workers).Int("queue_size", cap(p.jobs)).Msg("starting job workers")

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			p.workLoop(ctx)
		}()
	}
}

// Stop waits for in-flight jobs to finish. Queued but unstarted jobs are
// discarded; once dispatched there is no cancellation, so workers complete
// their current job before exiting.
func (p *Pool) Stop() {
	p.log.Info().Msg("stopping job workers")
	close(p.stop)
	p.wg.Wait()
	p.log.Info().Msg("job workers stopped")
}

// Submit enqueues a job without blocking the webhook response. It reports
// false when the queue is full and the job was dropped.
func (p *Pool) Submit(job Job) bool {
	select {
	case p.jobs <- job:
		return true
	default:
		p.log.Warn().Str("job_id", job.ID).Msg("job queue full, dropping job")
		return false
	}
}

func (p *Pool) workLoop(ctx context.Context) {
	for {
		select {
		case <-p.stop:
			return
		case <-ctx.Done():
			return
		case job := <-p.jobs:
			p.runner.Run(ctx, job)
		}
	}
}

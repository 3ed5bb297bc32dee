package worker

import (
	"context"
	"sync"
)

// Job represents a unit of work to be executed
type Job interface {
	Execute(ctx context.Context) Result
}

// Result represents the result of a job execution
type Result interface {
	GetError() error
}

type task struct {
	seq int
	job Job
}

type outcome struct {
	seq    int
	result Result
}

// Pool manages a pool of workers that execute jobs concurrently. Results are
// returned in submission order regardless of completion order.
type Pool struct {
	workers    int
	jobQueue   chan task
	results    chan outcome
	wg         sync.WaitGroup
	ctx        context.Context
	cancelFunc context.CancelFunc
	closeOnce  sync.Once

	submitted int
	collected []Result
	done      chan struct{}
}

// NewPool creates a new worker pool with the specified number of workers.
// Cancelling ctx stops queued jobs from starting and is passed to running jobs.
func NewPool(ctx context.Context, workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}

	ctx, cancel := context.WithCancel(ctx)

	return &Pool{
		workers:    workers,
		jobQueue:   make(chan task, workers*2),
		results:    make(chan outcome, workers*2),
		ctx:        ctx,
		cancelFunc: cancel,
		done:       make(chan struct{}),
	}
}

// Start starts the workers and the result collector
func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	go p.collect()
}

// worker is the worker goroutine that processes jobs
func (p *Pool) worker() {
	defer p.wg.Done()

	for t := range p.jobQueue {
		// Drain without executing once cancelled
		if p.ctx.Err() != nil {
			continue
		}
		p.results <- outcome{seq: t.seq, result: t.job.Execute(p.ctx)}
	}
}

// collect drains results as they arrive so workers never block on a full channel
func (p *Pool) collect() {
	defer close(p.done)
	for o := range p.results {
		for len(p.collected) <= o.seq {
			p.collected = append(p.collected, nil)
		}
		p.collected[o.seq] = o.result
	}
}

// Submit submits a job to the pool for execution. It must not be called
// concurrently with Wait. Jobs submitted after cancellation are skipped.
func (p *Pool) Submit(job Job) {
	t := task{seq: p.submitted, job: job}
	p.submitted++

	if p.ctx.Err() != nil {
		return
	}

	select {
	case <-p.ctx.Done():
	case p.jobQueue <- t:
	}
}

// Wait waits for all jobs to complete and returns one entry per submitted
// job in submission order. Jobs skipped because of cancellation are nil.
func (p *Pool) Wait() []Result {
	close(p.jobQueue)
	p.wg.Wait()
	p.closeResults()
	<-p.done
	p.cancelFunc()

	for len(p.collected) < p.submitted {
		p.collected = append(p.collected, nil)
	}
	return p.collected
}

func (p *Pool) closeResults() {
	p.closeOnce.Do(func() {
		close(p.results)
	})
}

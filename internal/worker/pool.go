package worker

import (
	"context"
	"fmt"
	"sync"
)

// Pool runs translation jobs on a fixed number of workers. Results are
// drained as they arrive, so any number of jobs may be queued before Wait.
type Pool struct {
	workers   int
	jobs      chan *TranslateJob
	results   chan *TranslateResult
	collected chan struct{}
	out       []*TranslateResult
	onResult  func(*TranslateResult)
	started   bool

	wg        sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// NewPool creates a pool with the given number of workers
func NewPool(workers int) *Pool {
	return NewPoolContext(context.Background(), workers)
}

// NewPoolContext creates a pool whose jobs are cancelled with parent
func NewPoolContext(parent context.Context, workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}

	ctx, cancel := context.WithCancel(parent)

	return &Pool{
		workers:   workers,
		jobs:      make(chan *TranslateJob, workers*2),
		results:   make(chan *TranslateResult, workers*2),
		collected: make(chan struct{}),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// OnResult registers fn to see every result as it is collected. Calls
// are serialized. Must be set before Start.
func (p *Pool) OnResult(fn func(*TranslateResult)) *Pool {
	p.onResult = fn
	return p
}

// Start starts the workers and the result collector
func (p *Pool) Start() {
	p.started = true
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	go p.collect()
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case job, ok := <-p.jobs:
			if !ok {
				return
			}
			result := p.run(job)
			select {
			case p.results <- result:
			case <-p.ctx.Done():
				return
			}
		}
	}
}

// run executes job and turns a panicking translator or sink into a
// failed result for that pair only
func (p *Pool) run(job *TranslateJob) (result *TranslateResult) {
	defer func() {
		if r := recover(); r != nil {
			result = &TranslateResult{
				StoryID: job.Request.StoryID,
				Country: job.Request.Country,
				Error:   fmt.Errorf("translate %s/%s panicked: %v", job.Request.Country, job.Request.StoryID, r),
			}
		}
	}()
	return job.Execute(p.ctx)
}

func (p *Pool) collect() {
	defer close(p.collected)
	for result := range p.results {
		p.out = append(p.out, result)
		if p.onResult != nil {
			p.onResult(result)
		}
	}
}

// Submit queues a job. It returns without queueing once the pool is shut
// down or its context is cancelled.
func (p *Pool) Submit(job *TranslateJob) {
	select {
	case <-p.ctx.Done():
		return
	case p.jobs <- job:
	}
}

// Wait waits for every queued job and returns the results in completion
// order. Jobs dropped by cancellation have no result.
func (p *Pool) Wait() []*TranslateResult {
	close(p.jobs)
	p.wg.Wait()
	p.closeResults()
	<-p.collected
	p.cancel()
	return p.out
}

// Shutdown stops the workers without waiting for queued jobs
func (p *Pool) Shutdown() {
	p.cancel()
	p.wg.Wait()
	p.closeResults()
	if p.started {
		<-p.collected
	}
}

func (p *Pool) closeResults() {
	p.closeOnce.Do(func() {
		close(p.results)
	})
}

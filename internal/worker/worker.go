package worker

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/akolanti/rulebook-rag/internal/domain/commonModels"
	"github.com/akolanti/rulebook-rag/internal/metrics"
	"github.com/akolanti/rulebook-rag/internal/rag/ingest"
	"github.com/akolanti/rulebook-rag/pkg/logger_i"
)

var errNotStarted = errors.New("job not started")

// Runner ingests one book.
type Runner func(ctx context.Context, job ingest.Job) (commonModels.IngestReport, error)

type Result struct {
	Job    ingest.Job
	Report commonModels.IngestReport
	Err    error
}

// Pool runs ingestion jobs on a fixed number of workers. Jobs that share a
// (filename, campaign) pair always go to the same worker, one after the
// other, so concurrent writers only ever touch disjoint pairs. A job without
// a Filename is keyed by its cleaned path.
type Pool struct {
	workers            int
	currentWorkerCount int64
	logger             *logger_i.Logger
}

func NewPool(workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{workers: workers, logger: logger_i.NewLogger("WorkerPool")}
}

func (p *Pool) ActiveWorkers() int64 {
	return atomic.LoadInt64(&p.currentWorkerCount)
}

// Run blocks until every job has run or ctx is cancelled. Results keep the
// order of jobs; a job that never started carries ctx.Err().
func (p *Pool) Run(ctx context.Context, jobs []ingest.Job, run Runner) []Result {
	results := make([]Result, len(jobs))
	for i, job := range jobs {
		results[i] = Result{Job: job, Err: errNotStarted}
	}

	groups := groupByPair(jobs)
	jobChannel := make(chan []int)
	var wg sync.WaitGroup

	workers := min(p.workers, len(groups))
	p.logger.Info("Initializing worker pool", "workers", workers, "jobs", len(jobs))
	for w := 0; w < workers; w++ {
		p.createWorker(ctx, &wg, jobChannel, results, run)
	}

dispatch:
	for _, group := range groups {
		select {
		case jobChannel <- group:
		case <-ctx.Done():
			break dispatch
		}
	}
	close(jobChannel)
	wg.Wait()

	for i := range results {
		if results[i].Err == errNotStarted {
			results[i].Err = ctx.Err()
		}
	}
	return results
}

func (p *Pool) createWorker(ctx context.Context, wg *sync.WaitGroup, jobChannel <-chan []int, results []Result, run Runner) {
	wg.Add(1)
	atomic.AddInt64(&p.currentWorkerCount, 1)
	metrics.IncrementActiveWorkerCount()

	go func() {
		defer p.removeWorker(wg)
		for group := range jobChannel {
			for _, i := range group {
				if ctx.Err() != nil {
					break
				}
				report, err := run(ctx, results[i].Job)
				results[i].Report = report
				results[i].Err = err
			}
		}
	}()
}

func (p *Pool) removeWorker(wg *sync.WaitGroup) {
	atomic.AddInt64(&p.currentWorkerCount, -1)
	metrics.DecrementActiveWorkerCount()
	wg.Done()
}

// groupByPair returns job indexes grouped by (filename, campaign) in
// first-seen order.
func groupByPair(jobs []ingest.Job) [][]int {
	type pair struct {
		filename string
		campaign int64
	}
	seen := make(map[pair]int)
	var groups [][]int
	for i, job := range jobs {
		name := job.Filename
		if name == "" {
			name = "path:" + filepath.Clean(job.Path)
		}
		key := pair{name, job.CampaignID}
		g, ok := seen[key]
		if !ok {
			g = len(groups)
			seen[key] = g
			groups = append(groups, nil)
		}
		groups[g] = append(groups[g], i)
	}
	return groups
}

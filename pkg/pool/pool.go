// Package pool implements the fixed-size worker-thread pool that runs a
// task.Group under one of its three scheduling disciplines (spec §4.8).
//
// Two barriers gate every submission: the "wake" barrier (receiving a job
// handoff) and the "end-of-tasks" barrier (signalling a WaitGroup). No
// condition variables sit on the hot path — per the design notes, the
// source's polling condition-variable workaround is not carried over.
package pool

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/hyperifyio/nnrt/pkg/errs"
	"github.com/hyperifyio/nnrt/pkg/task"
)

// Pool is a fixed number of worker goroutines that run task groups handed
// to them by PushJob.
type Pool struct {
	n        int
	jobs     chan *job
	wg       sync.WaitGroup
	closed   int32
}

type job struct {
	tasks     []task.Task
	batchSize int32
	cursor    int32
	total     int32
	done      sync.WaitGroup
}

// New spawns n worker goroutines. n<=0 means hardware concurrency.
func New(n int) *Pool {
	if n <= 0 {
		n = runtime.GOMAXPROCS(0)
		if n < 1 {
			n = 1
		}
	}
	p := &Pool{n: n, jobs: make(chan *job)}
	p.wg.Add(n)
	for i := 0; i < n; i++ {
		go p.loop()
	}
	return p
}

// Size returns the number of worker threads.
func (p *Pool) Size() int { return p.n }

func (p *Pool) loop() {
	defer p.wg.Done()
	for j := range p.jobs {
		runAssignedChunks(j)
		j.done.Done()
	}
}

// runAssignedChunks is the fetch-add loop shared by all three disciplines:
// the only thing that differs between single/unordered/split is batchSize.
func runAssignedChunks(j *job) {
	for {
		start := atomic.AddInt32(&j.cursor, j.batchSize) - j.batchSize
		if start >= j.total {
			return
		}
		end := start + j.batchSize
		if end > j.total {
			end = j.total
		}
		for _, t := range j.tasks[start:end] {
			t.Run()
		}
	}
}

func batchSizeFor(d task.Discipline, total, n int) int32 {
	switch d {
	case task.Single:
		return int32(total)
	case task.Unordered:
		return 1
	case task.Split:
		if n == 0 {
			return int32(total)
		}
		return int32((total + n - 1) / n)
	default:
		return int32(total)
	}
}

// PushJob runs g to completion: it rendezvouses every worker at the wake
// barrier, then blocks at the end-of-tasks barrier until every task has
// executed. Between submissions no worker holds task-vector memory.
func (p *Pool) PushJob(g task.Group) error {
	if atomic.LoadInt32(&p.closed) != 0 {
		return errs.Invariant("pool: PushJob called after Shutdown")
	}
	total := len(g.Tasks)
	if total == 0 {
		return nil
	}
	j := &job{
		tasks:     g.Tasks,
		batchSize: batchSizeFor(g.Discipline, total, p.n),
		total:     int32(total),
	}
	j.done.Add(p.n)
	for i := 0; i < p.n; i++ {
		p.jobs <- j
	}
	j.done.Wait()
	return nil
}

// Shutdown runs after the current submission completes: no in-flight
// PushJob is cancelled. Task-level cancellation is never supported.
func (p *Pool) Shutdown() {
	if !atomic.CompareAndSwapInt32(&p.closed, 0, 1) {
		return
	}
	close(p.jobs)
	p.wg.Wait()
}

// Package async implements the non-blocking submission wrapper tying graph
// construction to execution (spec §4.10): execute hands a primitive
// sequence to a worker sequence and returns a handle that completes in the
// background (eager engines) or only once Wait is called (lazy engines).
package async

import (
	"sync"
	"sync/atomic"

	"github.com/hyperifyio/nnrt/pkg/errs"
	"github.com/hyperifyio/nnrt/pkg/graph"
	"github.com/hyperifyio/nnrt/pkg/worker"
)

// Result is the handle returned by Execute: a primitives sequence, a
// worker sequence, and a remaining-tasks counter (spec §3's async object).
type Result struct {
	remaining int64
	done      chan struct{}

	once   sync.Once
	submit func()

	mu  sync.Mutex
	err error
}

// Execute validates that every worker shares the same lazy/eager mode,
// then either starts a background submission goroutine (eager) or defers
// submission to the first Wait call (lazy). Primitives are assigned to
// workers round-robin over the worker sequence, in submission order.
func Execute(nodes []*graph.Node, workers []worker.Worker) (*Result, error) {
	if len(workers) == 0 {
		return nil, errs.InvalidArg("workers", "execute requires at least one worker")
	}
	lazy := workers[0].Engine().IsLazy()
	for i, w := range workers {
		if w.Engine().IsLazy() != lazy {
			return nil, errs.InvalidArg("workers", "worker %d's lazy bit disagrees with worker 0's; all workers passed to one execute call must agree", i)
		}
	}

	r := &Result{remaining: int64(len(nodes)), done: make(chan struct{})}
	r.submit = func() {
		for i, n := range nodes {
			w := workers[i%len(workers)]
			if err := w.Execute(n.Work()); err != nil {
				r.mu.Lock()
				if r.err == nil {
					r.err = err
				}
				r.mu.Unlock()
			}
			atomic.AddInt64(&r.remaining, -1)
		}
		close(r.done)
	}

	if lazy {
		return r, nil
	}
	go r.once.Do(r.submit)
	return r, nil
}

// Wait blocks until every primitive has been submitted to its worker and
// completed. In lazy mode this is what triggers submission in the first
// place, giving a caller the chance to rewrite the primitive sequence
// between Execute and Wait.
func (r *Result) Wait() error {
	r.once.Do(r.submit)
	<-r.done
	return r.err
}

// TasksLeft is a non-blocking read of the remaining-tasks counter. In lazy
// mode, before Wait is called, it reports the full primitive count since
// nothing has run yet.
func (r *Result) TasksLeft() int {
	return int(atomic.LoadInt64(&r.remaining))
}

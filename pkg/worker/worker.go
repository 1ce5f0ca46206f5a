// Package worker implements the engine-typed executor façade: a CPU worker
// wrapping a pool.Pool, and a GPU worker wrapping a (stubbed) device queue
// (spec §4.9).
package worker

import (
	"sync"
	"time"

	"github.com/hyperifyio/nnrt/pkg/pool"
	"github.com/hyperifyio/nnrt/pkg/task"
)

// Engine identifies an execution target. Lazy may be OR-ed onto Engine to
// defer execution until async.Result.Wait (spec glossary, §4.10).
type Engine int

const (
	EngineReference Engine = 1 << iota
	EngineCPU
	EngineGPU
	EngineLazy
)

// Name returns the base engine name with any Lazy bit stripped, for
// dispatch-key building.
func (e Engine) Name() string {
	switch e &^ EngineLazy {
	case EngineReference:
		return "reference"
	case EngineCPU:
		return "cpu"
	case EngineGPU:
		return "gpu"
	default:
		return "unknown"
	}
}

// IsLazy reports whether the Lazy bit is set.
func (e Engine) IsLazy() bool { return e&EngineLazy != 0 }

// Worker is the common capability set both concrete workers satisfy.
type Worker interface {
	Execute(g task.Group) error
	Engine() Engine
}

// CPU is a worker façade that delegates every group to a pool.Pool.
type CPU struct {
	p      *pool.Pool
	engine Engine
}

// NewCPU creates a CPU worker with threadPoolSize workers (0 = hardware
// concurrency). Set lazy to defer execution via async.Result.
func NewCPU(threadPoolSize int, lazy bool) *CPU {
	e := EngineCPU
	if lazy {
		e |= EngineLazy
	}
	return &CPU{p: pool.New(threadPoolSize), engine: e}
}

// Execute delegates g to the underlying pool, blocking until every task in
// g has run.
func (w *CPU) Execute(g task.Group) error { return w.p.PushJob(g) }

// Engine reports this worker's engine flags.
func (w *CPU) Engine() Engine { return w.engine }

// Shutdown stops the underlying pool after any in-flight submission drains.
func (w *CPU) Shutdown() { w.p.Shutdown() }

// ProfileInterval is one per-primitive timing sample collected by a GPU
// worker when profiling is enabled.
type ProfileInterval struct {
	Label    string
	Duration time.Duration
}

// GPU is a worker façade standing in for a device command queue. Kernels
// registered under the "gpu" engine still run as CPU goroutines underneath
// (there is no real device backend in this module), but the façade
// preserves the engine identity primitives dispatch on, and the optional
// per-primitive profiling surface real GPU workers expose.
type GPU struct {
	p                *pool.Pool
	engine           Engine
	profilingEnabled bool

	mu        sync.Mutex
	intervals []ProfileInterval
}

// NewGPU creates a GPU worker. profilingEnabled turns on per-Execute timing
// collection retrievable via Profile().
func NewGPU(profilingEnabled bool, lazy bool) *GPU {
	e := EngineGPU
	if lazy {
		e |= EngineLazy
	}
	return &GPU{p: pool.New(1), engine: e, profilingEnabled: profilingEnabled}
}

// Execute enqueues g's tasks on the device queue (here: a single-worker
// pool), optionally recording a profiling interval.
func (w *GPU) Execute(g task.Group) error {
	if !w.profilingEnabled {
		return w.p.PushJob(g)
	}
	start := time.Now()
	err := w.p.PushJob(g)
	w.mu.Lock()
	w.intervals = append(w.intervals, ProfileInterval{Duration: time.Since(start)})
	w.mu.Unlock()
	return err
}

// Engine reports this worker's engine flags.
func (w *GPU) Engine() Engine { return w.engine }

// Profile returns the profiling intervals collected so far, if profiling
// was enabled.
func (w *GPU) Profile() []ProfileInterval {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]ProfileInterval, len(w.intervals))
	copy(out, w.intervals)
	return out
}

// Shutdown stops the underlying device queue after any in-flight
// submission drains.
func (w *GPU) Shutdown() { w.p.Shutdown() }

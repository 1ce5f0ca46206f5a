package pool_test

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperifyio/nnrt/pkg/pool"
	"github.com/hyperifyio/nnrt/pkg/task"
)

// countingGroup builds a task group of n tasks, each atomically incrementing
// its own distinct counter exactly once.
func countingGroup(d task.Discipline, n int) (task.Group, []int32) {
	counters := make([]int32, n)
	tasks := make([]task.Task, n)
	for i := 0; i < n; i++ {
		i := i
		tasks[i] = task.New("incr", func() { atomic.AddInt32(&counters[i], 1) })
	}
	return task.NewGroup(d, tasks...), counters
}

func TestPool_Disciplines_EachCounterIncrementedExactlyOnce(t *testing.T) {
	for _, d := range []task.Discipline{task.Single, task.Unordered, task.Split} {
		d := d
		t.Run(disciplineName(d), func(t *testing.T) {
			p := pool.New(4)
			defer p.Shutdown()

			g, counters := countingGroup(d, 200)
			require.NoError(t, p.PushJob(g))

			for i, c := range counters {
				assert.EqualValues(t, 1, c, "counter %d", i)
			}
		})
	}
}

// TestPool_Split_10000Tasks_30Threads mirrors the spec's thread-pool
// scenario directly: 10 000 distinct counters, split discipline, 30 worker
// threads, each counter left at exactly 1 once PushJob returns.
func TestPool_Split_10000Tasks_30Threads(t *testing.T) {
	p := pool.New(30)
	defer p.Shutdown()

	g, counters := countingGroup(task.Split, 10000)
	require.NoError(t, p.PushJob(g))

	for i, c := range counters {
		assert.EqualValues(t, 1, c, "counter %d", i)
	}
}

func TestPool_PushJob_EmptyGroupIsNoop(t *testing.T) {
	p := pool.New(2)
	defer p.Shutdown()

	assert.NoError(t, p.PushJob(task.NewGroup(task.Single)))
}

func TestPool_PushJob_AfterShutdown_Errors(t *testing.T) {
	p := pool.New(1)
	p.Shutdown()

	g, _ := countingGroup(task.Single, 1)
	assert.Error(t, p.PushJob(g))
}

func disciplineName(d task.Discipline) string {
	switch d {
	case task.Single:
		return "single"
	case task.Unordered:
		return "unordered"
	case task.Split:
		return "split"
	default:
		return "unknown"
	}
}

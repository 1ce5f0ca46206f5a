// Package task implements the unit of scheduled work and the task group
// that the worker pool runs (spec §3, §4.7).
package task

// Func is a unit of work: a function paired with opaque data it closes
// over. Data ownership belongs to whoever created the Task (usually a
// kernel implementation instance) and must outlive any in-flight execution
// of the group containing it.
type Func func()

// Task pairs a function with an informational label used in logging and
// profiling; it carries no other state.
type Task struct {
	Label string
	Run   Func
}

// New builds a Task.
func New(label string, run Func) Task {
	return Task{Label: label, Run: run}
}

// Discipline selects how a worker pool distributes a Group's tasks across
// its workers (spec §4.7, §4.8).
type Discipline int

const (
	// Single runs every task in the group on exactly one worker thread, in
	// order. Other workers pass the submission's barriers without running
	// any task.
	Single Discipline = iota
	// Unordered lets any worker run any task; tasks may run concurrently
	// and in any order relative to each other.
	Unordered
	// Split partitions the task sequence into equal contiguous chunks, one
	// chunk per worker, preserving within-chunk order.
	Split
)

// Group is an ordered sequence of tasks plus the discipline the worker pool
// should apply when running them.
type Group struct {
	Tasks     []Task
	Discipline Discipline
}

// NewGroup builds a Group.
func NewGroup(discipline Discipline, tasks ...Task) Group {
	return Group{Tasks: tasks, Discipline: discipline}
}

// Len is the number of tasks in the group.
func (g Group) Len() int { return len(g.Tasks) }

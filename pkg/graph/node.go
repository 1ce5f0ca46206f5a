// Package graph implements the primitive graph node (spec §3, §4.5): a
// uniform handle over every kind of node (memory buffers, file loads, and
// compute primitives), carrying inputs, outputs, attributes, and a
// precomputed task group.
package graph

import (
	"fmt"
	"sync"

	"github.com/hyperifyio/nnrt/pkg/memory"
	"github.com/hyperifyio/nnrt/pkg/registry"
	"github.com/hyperifyio/nnrt/pkg/task"
	"github.com/hyperifyio/nnrt/pkg/typeid"
	"github.com/hyperifyio/nnrt/pkg/worker"
)

// At is a primitive-at reference: the i-th output of a producer node. A
// node consumes its inputs by naming (producer, output index) pairs, so a
// multi-output primitive (e.g. batch_training_forward) can be fed
// selectively into downstream nodes.
type At struct {
	Producer    *Node
	OutputIndex int
}

// Output returns the memory.Buffer this reference names.
func (a At) Output() *memory.Buffer {
	if a.Producer == nil || a.OutputIndex >= len(a.Producer.outputs) {
		return nil
	}
	return a.Producer.outputs[a.OutputIndex]
}

// Node is a tagged record identifying its kind and carrying everything the
// runtime needs to execute it. Node handles are ordinary Go pointers:
// because Go is garbage collected, sharing a *Node across multiple
// consumers already gives the reference-counted-handle semantics the
// source relies on — there is no separate retain/release step, and a
// node's owned output buffers become collectible once nothing reaches them.
type Node struct {
	kind     *typeid.Descriptor
	argument interface{}
	inputs   []At
	outputs  []*memory.Buffer
	work     task.Group
	impl     registry.Impl

	mu    sync.RWMutex
	attrs map[string]interface{}
}

// Kind returns the node's registered type id.
func (n *Node) Kind() *typeid.Descriptor { return n.kind }

// Argument returns the kind-specific, immutable-after-creation parameter
// block this node was created with.
func (n *Node) Argument() interface{} { return n.argument }

// Inputs returns the node's ordered primitive-at references.
func (n *Node) Inputs() []At { return n.inputs }

// Outputs returns the node's ordered output buffers.
func (n *Node) Outputs() []*memory.Buffer { return n.outputs }

// Output returns the i-th output buffer.
func (n *Node) Output(i int) *memory.Buffer { return n.outputs[i] }

// Work returns the precomputed task group. It is empty if the node was
// created under a lazy engine, where task-group instantiation is deferred.
func (n *Node) Work() task.Group { return n.work }

// Impl returns the selected implementation instance, or nil under a lazy
// engine.
func (n *Node) Impl() registry.Impl { return n.impl }

// Attr returns a typed attribute value by key, coerced to T. ok is false if
// the key is absent or holds a different type.
func Attr[T any](n *Node, key string) (T, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	var zero T
	v, ok := n.attrs[key]
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}

// SetAttr installs an attribute, overwriting any previous value for key.
func (n *Node) SetAttr(key string, value interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.attrs[key] = value
}

// newNode assembles the common fields every CreateX constructor in this
// package shares, then — unless engine is lazy — looks up and instantiates
// an implementation and copies its task group onto the node (spec §4.5
// steps 2-3).
func newNode(reg *registry.Registry, kind *typeid.Descriptor, kindName string, engine worker.Engine, key registry.Key, argument interface{}, inputs []At, outputs []*memory.Buffer) (*Node, error) {
	n := &Node{
		kind:     kind,
		argument: argument,
		inputs:   inputs,
		outputs:  outputs,
		attrs:    make(map[string]interface{}),
	}
	n.attrs["engine"] = engine.Name()
	n.attrs["inputs"] = uint32(len(inputs))
	for i := range inputs {
		n.attrs[fmt.Sprintf("input%d", i)] = fmt.Sprintf("%s@%d", kindName, i)
	}
	n.attrs["name"] = kindName

	if engine.IsLazy() {
		return n, nil
	}

	factory, err := reg.Lookup(kindName, key)
	if err != nil {
		return nil, err
	}
	inBufs := make([]*memory.Buffer, len(inputs))
	for i, at := range inputs {
		inBufs[i] = at.Output()
	}
	impl, err := factory(registry.Invocation{Args: argument, Inputs: inBufs, Outputs: outputs})
	if err != nil {
		return nil, err
	}
	n.impl = impl
	n.work = impl.TaskGroup()
	return n, nil
}

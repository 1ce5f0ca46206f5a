// Package registry implements the implementation registry (spec §4.6): a
// process-wide, kind-specialized mapping from a dispatch key to a factory
// that produces a runnable kernel instance.
package registry

import (
	"sync"

	"github.com/hyperifyio/nnrt/pkg/errs"
	"github.com/hyperifyio/nnrt/pkg/format"
	"github.com/hyperifyio/nnrt/pkg/memory"
	"github.com/hyperifyio/nnrt/pkg/task"
)

// Key is the default dispatch key: (engine, input-format, output-format).
// Kinds may override key construction; Registry itself is key-shape
// agnostic beyond using Key as the map key type.
type Key struct {
	Engine    string
	InFormat  format.Format
	OutFormat format.Format
}

// engineSearchOrder is the fixed order Lookup enumerates when Engine=="any".
var engineSearchOrder = []string{"reference", "cpu", "gpu"}

// Impl is a runnable kernel instance: it owns whatever state the kernel
// needs and exposes the task group that performs the computation.
type Impl interface {
	TaskGroup() task.Group
}

// Invocation bundles everything a Factory needs to instantiate a kernel:
// the node's immutable argument block plus its resolved input and output
// buffers. Args is an interface{} because the argument type varies per
// kind; each kind's factory type-asserts it back to its own Args struct.
type Invocation struct {
	Args    interface{}
	Inputs  []*memory.Buffer
	Outputs []*memory.Buffer
}

// Factory instantiates an Impl from one invocation.
type Factory func(inv Invocation) (Impl, error)

// Attrs are the per-entry attributes Query reports alongside a candidate
// factory: informational only, never consulted by Lookup.
type Attrs struct {
	EstimatedTimeNanos int64
	EstimatedEnergy    float64
}

type entry struct {
	factory Factory
	attrs   Attrs
}

// Registry holds one keyed table per primitive kind.
type Registry struct {
	mu    sync.RWMutex
	table map[string]map[Key]entry
}

// New creates an empty Registry. The type registry and implementation
// registry are initialized once at process/engine startup and never
// mutated afterwards at steady state (spec §5); Register is still safe to
// call concurrently since kernel packages may register from independent
// RegisterDefaultKernels/RegisterOptimizedKernels calls.
func New() *Registry {
	return &Registry{table: make(map[string]map[Key]entry)}
}

// Register installs factory under (kind, key). Duplicate keys replace: the
// last registration wins.
func (r *Registry) Register(kind string, key Key, factory Factory, attrs Attrs) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.table[kind]
	if !ok {
		m = make(map[Key]entry)
		r.table[kind] = m
	}
	m[key] = entry{factory: factory, attrs: attrs}
}

// Lookup returns the factory registered for (kind, key). If key.Engine is
// "any", Lookup enumerates engines in the fixed order reference, cpu, gpu
// and returns the first match.
func (r *Registry) Lookup(kind string, key Key) (Factory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.table[kind]
	if !ok {
		return nil, errs.NotImpl(keyString(kind, key), "no kernels registered for kind %q", kind)
	}
	if key.Engine != "any" {
		if e, ok := m[key]; ok {
			return e.factory, nil
		}
		return nil, errs.NotImpl(keyString(kind, key), "no implementation registered")
	}
	for _, eng := range engineSearchOrder {
		k2 := key
		k2.Engine = eng
		if e, ok := m[k2]; ok {
			return e.factory, nil
		}
	}
	return nil, errs.NotImpl(keyString(kind, key), "no implementation registered for any engine")
}

// QueryResult pairs a matching key with its reported attributes, so a
// caller can pick among candidates.
type QueryResult struct {
	Key   Key
	Attrs Attrs
}

// Query returns every entry for kind whose key equals key exactly or, if
// key.Engine is "any", every entry under any engine whose input and output
// formats equal key's, letting the caller choose among candidates by their
// reported attributes.
func (r *Registry) Query(kind string, key Key) []QueryResult {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.table[kind]
	if !ok {
		return nil
	}
	var out []QueryResult
	for k, e := range m {
		if key.Engine != "any" && k != key {
			continue
		}
		if key.Engine == "any" && (k.InFormat != key.InFormat || k.OutFormat != key.OutFormat) {
			continue
		}
		out = append(out, QueryResult{Key: k, Attrs: e.attrs})
	}
	return out
}

func keyString(kind string, key Key) string {
	return kind + "/" + key.Engine + "/" + key.InFormat.String() + "->" + key.OutFormat.String()
}

package graph

import (
	"github.com/hyperifyio/nnrt/pkg/errs"
	"github.com/hyperifyio/nnrt/pkg/memory"
	"github.com/hyperifyio/nnrt/pkg/registry"
	"github.com/hyperifyio/nnrt/pkg/shape"
	"github.com/hyperifyio/nnrt/pkg/worker"
)

// ReorderArgs carries no kind-specific parameters: the conversion is fully
// determined by the input and output buffers' formats.
type ReorderArgs struct{}

// CreateReorder converts input from its format to output's format. Input
// and output must agree in semantic shape; their formats need not differ —
// a same-format reorder is a no-op and still succeeds (spec §4.5).
func CreateReorder(reg *registry.Registry, engine worker.Engine, input At, output *memory.Buffer) (*Node, error) {
	in := input.Output()
	if in == nil {
		return nil, errs.InvalidArg("input", "reorder requires a bound input")
	}
	if !shape.Equal(in.Args().Shape, output.Args().Shape) {
		return nil, errs.InvalidArg("output.shape", "reorder input/output shapes must be equal")
	}
	key := registry.Key{Engine: engine.Name(), InFormat: in.Args().Format, OutFormat: output.Args().Format}
	return newNode(reg, KindReorder, kindName(KindReorder), engine, key, ReorderArgs{}, []At{input}, []*memory.Buffer{output})
}

package graph

import (
	"github.com/hyperifyio/nnrt/pkg/errs"
	"github.com/hyperifyio/nnrt/pkg/memory"
	"github.com/hyperifyio/nnrt/pkg/registry"
	"github.com/hyperifyio/nnrt/pkg/worker"
)

// SoftmaxArgs carries no kind-specific parameters: softmax normalizes along
// the x-axis of a 2-D (batch, x) input.
type SoftmaxArgs struct{}

// optimizedSoftmaxBatches are the batch sizes the AVX2-equivalent optimized
// path supports (spec §4.5). CreateSoftmax itself accepts any batch size;
// under the cpu engine a batch outside this set fails at dispatch with
// NotImplemented, while the reference engine accepts any batch size.
var optimizedSoftmaxBatches = map[int]bool{1: true, 8: true, 48: true}

// CreateSoftmax validates that input is a 2-D (batch, x) layout and wires a
// softmax node.
func CreateSoftmax(reg *registry.Registry, engine worker.Engine, input At, output *memory.Buffer) (*Node, error) {
	in := input.Output()
	if in == nil {
		return nil, errs.InvalidArg("input", "softmax requires a bound input")
	}
	if in.Args().Shape.Len() != 2 {
		return nil, errs.InvalidArg("input.shape", "softmax input must be 2-D (batch, x)")
	}

	key := registry.Key{Engine: engine.Name(), InFormat: in.Args().Format, OutFormat: output.Args().Format}
	return newNode(reg, KindSoftmax, kindName(KindSoftmax), engine, key, SoftmaxArgs{}, []At{input}, []*memory.Buffer{output})
}

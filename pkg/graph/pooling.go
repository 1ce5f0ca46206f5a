package graph

import (
	"github.com/hyperifyio/nnrt/pkg/errs"
	"github.com/hyperifyio/nnrt/pkg/memory"
	"github.com/hyperifyio/nnrt/pkg/registry"
	"github.com/hyperifyio/nnrt/pkg/worker"
)

// PoolingMode selects the pooling reduction.
type PoolingMode int

const (
	PoolingMax PoolingMode = iota
	PoolingAverage
)

// PoolingArgs parametrizes a pooling window. InputOffset lets the window
// start before the first valid input coordinate (zero padding); positions
// outside the input contribute 0 per spec §4.11.
type PoolingArgs struct {
	Mode        PoolingMode
	Window      [2]int // (y, x)
	Stride      [2]int // (y, x)
	InputOffset [2]int // (y, x), typically <= 0
}

// CreatePooling validates args and wires a pooling node.
func CreatePooling(reg *registry.Registry, engine worker.Engine, args PoolingArgs, input At, output *memory.Buffer) (*Node, error) {
	in := input.Output()
	if in == nil {
		return nil, errs.InvalidArg("input", "pooling requires a bound input")
	}
	if args.Window[0] <= 0 || args.Window[1] <= 0 {
		return nil, errs.InvalidArg("window", "pooling window must be positive, got %v", args.Window)
	}
	if args.Stride[0] <= 0 || args.Stride[1] <= 0 {
		return nil, errs.InvalidArg("stride", "pooling stride must be positive, got %v", args.Stride)
	}
	if in.Args().Shape.FeatureSize() != output.Args().Shape.FeatureSize() {
		return nil, errs.InvalidArg("output.shape", "pooling preserves feature count")
	}
	if in.Args().Shape.BatchSize() != output.Args().Shape.BatchSize() {
		return nil, errs.InvalidArg("output.shape", "pooling preserves batch size")
	}

	key := registry.Key{Engine: engine.Name(), InFormat: in.Args().Format, OutFormat: output.Args().Format}
	return newNode(reg, KindPooling, kindName(KindPooling), engine, key, args, []At{input}, []*memory.Buffer{output})
}

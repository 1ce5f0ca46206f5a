package graph

import (
	"github.com/hyperifyio/nnrt/pkg/errs"
	"github.com/hyperifyio/nnrt/pkg/memory"
	"github.com/hyperifyio/nnrt/pkg/registry"
	"github.com/hyperifyio/nnrt/pkg/shape"
	"github.com/hyperifyio/nnrt/pkg/worker"
)

// ReluArgs parametrizes leaky ReLU: y = max(x,0) + Slope*min(x,0).
type ReluArgs struct {
	Slope float32
}

// CreateRelu applies ReLU to input, writing to output.
func CreateRelu(reg *registry.Registry, engine worker.Engine, args ReluArgs, input At, output *memory.Buffer) (*Node, error) {
	in := input.Output()
	if in == nil {
		return nil, errs.InvalidArg("input", "relu requires a bound input")
	}
	if !shape.Equal(in.Args().Shape, output.Args().Shape) {
		return nil, errs.InvalidArg("output.shape", "relu input/output shapes must be equal")
	}
	key := registry.Key{Engine: engine.Name(), InFormat: in.Args().Format, OutFormat: output.Args().Format}
	return newNode(reg, KindRelu, kindName(KindRelu), engine, key, args, []At{input}, []*memory.Buffer{output})
}

// ReluBackwardArgs mirrors ReluArgs for the backward pass.
type ReluBackwardArgs struct {
	Slope float32
}

// CreateReluBackward computes dx = (x_fwd>0 ? dy : Slope*dy). Inputs are
// {x_fwd, dy}; output is {dx}.
func CreateReluBackward(reg *registry.Registry, engine worker.Engine, args ReluBackwardArgs, xFwd, dy At, dx *memory.Buffer) (*Node, error) {
	xb := xFwd.Output()
	db := dy.Output()
	if xb == nil || db == nil {
		return nil, errs.InvalidArg("inputs", "relu_backward requires bound inputs")
	}
	if !shape.Equal(xb.Args().Shape, dx.Args().Shape) || !shape.Equal(db.Args().Shape, dx.Args().Shape) {
		return nil, errs.InvalidArg("dx.shape", "relu_backward input/output shapes must be equal")
	}
	key := registry.Key{Engine: engine.Name(), InFormat: xb.Args().Format, OutFormat: dx.Args().Format}
	return newNode(reg, KindReluBackward, kindName(KindReluBackward), engine, key, args, []At{xFwd, dy}, []*memory.Buffer{dx})
}

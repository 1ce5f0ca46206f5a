package graph

import (
	"math"

	"github.com/hyperifyio/nnrt/pkg/errs"
	"github.com/hyperifyio/nnrt/pkg/memory"
	"github.com/hyperifyio/nnrt/pkg/registry"
	"github.com/hyperifyio/nnrt/pkg/shape"
	"github.com/hyperifyio/nnrt/pkg/worker"
)

// ResponseArgs parametrizes local response normalization (LRN).
type ResponseArgs struct {
	Size  int // window size across features; must be odd
	K     float32
	Alpha float32
	Beta  float32
}

// CreateResponse validates and wires an LRN node. Only beta==0.75 is
// guaranteed to have an optimized path registered (spec §4.5); the
// reference kernel supports any finite beta.
func CreateResponse(reg *registry.Registry, engine worker.Engine, args ResponseArgs, input At, output *memory.Buffer) (*Node, error) {
	in := input.Output()
	if in == nil {
		return nil, errs.InvalidArg("input", "response requires a bound input")
	}
	if args.Size%2 == 0 {
		return nil, errs.InvalidArg("size", "lrn window size must be odd, got %d", args.Size)
	}
	if args.K <= 0 {
		return nil, errs.InvalidArg("k", "lrn k must be positive, got %v", args.K)
	}
	if math.IsNaN(float64(args.Beta)) || math.IsInf(float64(args.Beta), 0) {
		return nil, errs.InvalidArg("beta", "lrn beta must be finite")
	}
	if !shape.Equal(in.Args().Shape, output.Args().Shape) {
		return nil, errs.InvalidArg("output.shape", "response input/output shapes must be equal")
	}

	key := registry.Key{Engine: engine.Name(), InFormat: in.Args().Format, OutFormat: output.Args().Format}
	return newNode(reg, KindResponse, kindName(KindResponse), engine, key, args, []At{input}, []*memory.Buffer{output})
}

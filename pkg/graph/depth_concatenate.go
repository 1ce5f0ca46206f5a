package graph

import (
	"github.com/hyperifyio/nnrt/pkg/errs"
	"github.com/hyperifyio/nnrt/pkg/memory"
	"github.com/hyperifyio/nnrt/pkg/registry"
	"github.com/hyperifyio/nnrt/pkg/worker"
)

// DepthConcatenateArgs carries no kind-specific parameters: output feature
// count is derived as the sum of the inputs' feature counts.
type DepthConcatenateArgs struct{}

// CreateDepthConcatenate concatenates inputs along the feature axis. All
// inputs must share batch size, spatial sizes, and format; output feature
// must equal the sum of input features (spec §4.5).
func CreateDepthConcatenate(reg *registry.Registry, engine worker.Engine, inputs []At, output *memory.Buffer) (*Node, error) {
	if len(inputs) == 0 {
		return nil, errs.InvalidArg("inputs", "depth_concatenate requires at least one input")
	}
	first := inputs[0].Output()
	if first == nil {
		return nil, errs.InvalidArg("inputs[0]", "depth_concatenate requires bound inputs")
	}
	featureSum := 0
	for i, in := range inputs {
		b := in.Output()
		if b == nil {
			return nil, errs.InvalidArg("inputs", "input %d is unbound", i)
		}
		if b.Args().Shape.BatchSize() != first.Args().Shape.BatchSize() {
			return nil, errs.InvalidArg("inputs", "input %d batch size mismatch", i)
		}
		if !equalInts(b.Args().Shape.SpatialSizes(), first.Args().Shape.SpatialSizes()) {
			return nil, errs.InvalidArg("inputs", "input %d spatial size mismatch", i)
		}
		if b.Args().Format != first.Args().Format {
			return nil, errs.InvalidArg("inputs", "input %d format mismatch", i)
		}
		featureSum += b.Args().Shape.FeatureSize()
	}
	if output.Args().Shape.FeatureSize() != featureSum {
		return nil, errs.InvalidArg("output.shape", "output feature %d must equal sum of input features %d", output.Args().Shape.FeatureSize(), featureSum)
	}

	key := registry.Key{Engine: engine.Name(), InFormat: first.Args().Format, OutFormat: output.Args().Format}
	return newNode(reg, KindDepthConcatenate, kindName(KindDepthConcatenate), engine, key, DepthConcatenateArgs{}, inputs, []*memory.Buffer{output})
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

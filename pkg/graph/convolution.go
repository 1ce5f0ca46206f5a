package graph

import (
	"github.com/hyperifyio/nnrt/pkg/errs"
	"github.com/hyperifyio/nnrt/pkg/memory"
	"github.com/hyperifyio/nnrt/pkg/registry"
	"github.com/hyperifyio/nnrt/pkg/worker"
)

// Padding is the only padding mode the engine supports: implicit zeros
// outside the input (spec §4.5 "padding in {zero}").
type Padding int

const (
	PaddingZero Padding = iota
)

// ConvolutionArgs parametrizes forward convolution and convolution_relu.
type ConvolutionArgs struct {
	Stride      [2]int // (y, x)
	InputOffset [2]int // (y, x)
	Padding     Padding
	Split       int
	ReluSlope   float32 // only consulted by convolution_relu
}

// conv inputs are {input, weights, bias}; output is {y}.
func validateConvolution(args ConvolutionArgs, input, weights, bias At, output *memory.Buffer) error {
	in := input.Output()
	w := weights.Output()
	b := bias.Output()
	if in == nil || w == nil || b == nil {
		return errs.InvalidArg("inputs", "convolution requires three bound inputs: input, weights, bias")
	}
	if args.Stride[0] <= 0 || args.Stride[1] <= 0 {
		return errs.InvalidArg("stride", "convolution stride must be positive, got %v", args.Stride)
	}
	if args.Split < 1 {
		return errs.InvalidArg("split", "split must be >= 1, got %d", args.Split)
	}
	outFeature := output.Args().Shape.FeatureSize()
	weightOutFeature := w.Args().Shape.Batch()[0] // weight layouts: (output_feature, input_feature, y, x)
	if outFeature != weightOutFeature {
		return errs.InvalidArg("output.shape", "output feature %d must equal weight output-feature %d", outFeature, weightOutFeature)
	}
	if outFeature%args.Split != 0 {
		return errs.InvalidArg("split", "split %d must partition output feature %d evenly", args.Split, outFeature)
	}
	if b.Args().Shape.Count() != outFeature {
		return errs.InvalidArg("bias", "bias length %d must equal output feature %d", b.Args().Shape.Count(), outFeature)
	}
	// weightInFeature is the per-group input-feature slice a weight buffer
	// carries; split partitions the full input feature axis into that many
	// equal groups (spec §4.11's "corresponding weight and input-feature
	// slice"), so the full input feature count is weightInFeature*Split.
	weightInFeature := w.Args().Shape.Feature()[0]
	if in.Args().Shape.FeatureSize() != weightInFeature*args.Split {
		return errs.InvalidArg("input", "input feature %d must equal weight input-feature %d times split %d", in.Args().Shape.FeatureSize(), weightInFeature, args.Split)
	}
	return nil
}

// CreateConvolution wires a forward convolution node.
func CreateConvolution(reg *registry.Registry, engine worker.Engine, args ConvolutionArgs, input, weights, bias At, output *memory.Buffer) (*Node, error) {
	if err := validateConvolution(args, input, weights, bias, output); err != nil {
		return nil, err
	}
	in := input.Output()
	key := registry.Key{Engine: engine.Name(), InFormat: in.Args().Format, OutFormat: output.Args().Format}
	return newNode(reg, KindConvolution, kindName(KindConvolution), engine, key, args, []At{input, weights, bias}, []*memory.Buffer{output})
}

// CreateConvolutionRelu wires a fused convolution + ReLU node.
func CreateConvolutionRelu(reg *registry.Registry, engine worker.Engine, args ConvolutionArgs, input, weights, bias At, output *memory.Buffer) (*Node, error) {
	if err := validateConvolution(args, input, weights, bias, output); err != nil {
		return nil, err
	}
	in := input.Output()
	key := registry.Key{Engine: engine.Name(), InFormat: in.Args().Format, OutFormat: output.Args().Format}
	return newNode(reg, KindConvolutionRelu, kindName(KindConvolutionRelu), engine, key, args, []At{input, weights, bias}, []*memory.Buffer{output})
}

// CreateConvolutionBackward wires the backward pass: inputs are
// {dOutput, inputFwd, weights, bias}; outputs are {dInput, dWeight, dBias}.
// Unlike the source's query_entry (flagged in spec §9 as a likely
// copy-paste bug embedding forward arguments), this dispatch key is built
// the same way every other primitive's is — from this node's own formats.
func CreateConvolutionBackward(reg *registry.Registry, engine worker.Engine, args ConvolutionArgs, dOutput, inputFwd, weights, bias At, dInput, dWeight, dBias *memory.Buffer) (*Node, error) {
	if dOutput.Output() == nil || inputFwd.Output() == nil || weights.Output() == nil || bias.Output() == nil {
		return nil, errs.InvalidArg("inputs", "convolution_backward requires four bound inputs")
	}
	if dInput == nil || dWeight == nil || dBias == nil {
		return nil, errs.InvalidArg("outputs", "convolution_backward requires three outputs")
	}
	key := registry.Key{Engine: engine.Name(), InFormat: dOutput.Output().Args().Format, OutFormat: dInput.Args().Format}
	inputs := []At{dOutput, inputFwd, weights, bias}
	outputs := []*memory.Buffer{dInput, dWeight, dBias}
	return newNode(reg, KindConvolutionBackward, kindName(KindConvolutionBackward), engine, key, args, inputs, outputs)
}

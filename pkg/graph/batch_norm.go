package graph

import (
	"github.com/hyperifyio/nnrt/pkg/errs"
	"github.com/hyperifyio/nnrt/pkg/memory"
	"github.com/hyperifyio/nnrt/pkg/registry"
	"github.com/hyperifyio/nnrt/pkg/worker"
)

// BatchTrainingForwardArgs parametrizes the training-mode forward pass.
type BatchTrainingForwardArgs struct {
	ExpAvgFactor float32 // 0 <= f <= 1
	Epsilon      float32 // > 0
	Spatial      bool    // true: reduce over batch+spatial; false: batch only
}

// CreateBatchTrainingForward wires the node producing
// {y, current_mean, current_inv_std_dev, moving_mean, moving_inv_std_dev}
// from inputs {x, scale, bias} (spec §4.5).
func CreateBatchTrainingForward(reg *registry.Registry, engine worker.Engine, args BatchTrainingForwardArgs, x, scale, bias At, outputs [5]*memory.Buffer) (*Node, error) {
	if x.Output() == nil || scale.Output() == nil || bias.Output() == nil {
		return nil, errs.InvalidArg("inputs", "batch_training_forward requires three bound inputs: x, scale, bias")
	}
	if args.ExpAvgFactor < 0 || args.ExpAvgFactor > 1 {
		return nil, errs.InvalidArg("exp_avg_factor", "must be in [0,1], got %v", args.ExpAvgFactor)
	}
	if args.Epsilon <= 0 {
		return nil, errs.InvalidArg("epsilon", "must be > 0, got %v", args.Epsilon)
	}
	for i, o := range outputs {
		if o == nil {
			return nil, errs.InvalidArg("outputs", "batch_training_forward requires 5 outputs, missing index %d", i)
		}
	}

	key := registry.Key{Engine: engine.Name(), InFormat: x.Output().Args().Format, OutFormat: outputs[0].Args().Format}
	return newNode(reg, KindBatchTrainingForward, kindName(KindBatchTrainingForward), engine, key, args, []At{x, scale, bias}, outputs[:])
}

// BatchTrainingBackwardArgs mirrors the forward pass's normalization mode.
type BatchTrainingBackwardArgs struct {
	Spatial bool
}

// CreateBatchTrainingBackward wires the node producing {dx, dscale, dbias}
// from inputs {x_fwd, scale_fwd, bias_fwd, dy, current_mean, current_inv_std_dev}.
func CreateBatchTrainingBackward(reg *registry.Registry, engine worker.Engine, args BatchTrainingBackwardArgs, xFwd, scaleFwd, biasFwd, dy, currentMean, currentInvStdDev At, outputs [3]*memory.Buffer) (*Node, error) {
	inputs := []At{xFwd, scaleFwd, biasFwd, dy, currentMean, currentInvStdDev}
	for i, in := range inputs {
		if in.Output() == nil {
			return nil, errs.InvalidArg("inputs", "batch_training_backward requires 6 bound inputs, missing index %d", i)
		}
	}
	for i, o := range outputs {
		if o == nil {
			return nil, errs.InvalidArg("outputs", "batch_training_backward requires 3 outputs, missing index %d", i)
		}
	}

	key := registry.Key{Engine: engine.Name(), InFormat: xFwd.Output().Args().Format, OutFormat: outputs[0].Args().Format}
	return newNode(reg, KindBatchTrainingBackward, kindName(KindBatchTrainingBackward), engine, key, args, inputs, outputs[:])
}

// BatchInferenceArgs parametrizes the fused-stats inference pass.
type BatchInferenceArgs struct{}

// CreateBatchInference wires the node producing {y} from inputs
// {x, scale, bias, mean, inv_std_dev}.
func CreateBatchInference(reg *registry.Registry, engine worker.Engine, x, scale, bias, mean, invStdDev At, y *memory.Buffer) (*Node, error) {
	inputs := []At{x, scale, bias, mean, invStdDev}
	for i, in := range inputs {
		if in.Output() == nil {
			return nil, errs.InvalidArg("inputs", "batch_inference requires 5 bound inputs, missing index %d", i)
		}
	}

	key := registry.Key{Engine: engine.Name(), InFormat: x.Output().Args().Format, OutFormat: y.Args().Format}
	return newNode(reg, KindBatchInference, kindName(KindBatchInference), engine, key, BatchInferenceArgs{}, inputs, []*memory.Buffer{y})
}

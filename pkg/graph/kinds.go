package graph

import "github.com/hyperifyio/nnrt/pkg/typeid"

// Kind descriptors give every primitive kind a stable runtime identity via
// the type registry (spec §4.5: "a tagged record identifying its kind (a
// registered type id, C1)").
var (
	KindMemory               = typeid.Register("primitive.memory", 0, false)
	KindFile                 = typeid.Register("primitive.file", 0, false)
	KindReorder              = typeid.Register("primitive.reorder", 0, false)
	KindDepthConcatenate     = typeid.Register("primitive.depth_concatenate", 0, false)
	KindRelu                 = typeid.Register("primitive.relu", 0, false)
	KindReluBackward         = typeid.Register("primitive.relu_backward", 0, false)
	KindPooling              = typeid.Register("primitive.pooling", 0, false)
	KindConvolution          = typeid.Register("primitive.convolution", 0, false)
	KindConvolutionRelu      = typeid.Register("primitive.convolution_relu", 0, false)
	KindConvolutionBackward  = typeid.Register("primitive.convolution_backward", 0, false)
	KindResponse             = typeid.Register("primitive.response", 0, false)
	KindSoftmax              = typeid.Register("primitive.softmax", 0, false)
	KindBatchTrainingForward = typeid.Register("primitive.batch_training_forward", 0, false)
	KindBatchTrainingBackward = typeid.Register("primitive.batch_training_backward", 0, false)
	KindBatchInference       = typeid.Register("primitive.batch_inference", 0, false)
)

// kindName is the dispatch-table key used to select this node's registry
// table; it is the descriptor name itself, "primitive." prefix included.
func kindName(d *typeid.Descriptor) string { return d.Name }

package reference

import (
	"github.com/hyperifyio/nnrt/pkg/graph"
	"github.com/hyperifyio/nnrt/pkg/registry"
)

// RegisterDefaultKernels installs every reference kernel this package
// implements into r. It is called explicitly from engine.New rather than
// from a package init(), so an embedder can build a registry containing
// only the kernels it wants (spec §4.6's anti-static-initialization design
// note).
func RegisterDefaultKernels(r *registry.Registry) {
	registerRelu(r)
	registerPooling(r)
	registerResponse(r)
	registerSoftmax(r)
	registerConvolution(r)
	registerBatchNorm(r)
	registerReorder(r, graph.KindReorder.Name)
	registerDepthConcatenate(r, graph.KindDepthConcatenate.Name)
}

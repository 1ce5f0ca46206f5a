package optimized

import "github.com/hyperifyio/nnrt/pkg/registry"

// RegisterOptimizedKernels installs every optimized kernel this package
// implements into r, under the "cpu" engine. An entry already registered
// under the same key is replaced (last registration wins); the reference
// kernels use the "reference" engine, so they are left in place.
func RegisterOptimizedKernels(r *registry.Registry) {
	registerLRN(r)
	registerSoftmax(r)
}

package reference

import (
	"github.com/hyperifyio/nnrt/pkg/format"
	"github.com/hyperifyio/nnrt/pkg/graph"
	"github.com/hyperifyio/nnrt/pkg/registry"
	"github.com/hyperifyio/nnrt/pkg/task"
)

type simpleImpl struct {
	group task.Group
}

func (s *simpleImpl) TaskGroup() task.Group { return s.group }

// reluFactory builds the forward leaky-ReLU kernel: y = max(x,0) + slope*min(x,0).
func reluFactory(inv registry.Invocation) (registry.Impl, error) {
	in, out := inv.Inputs[0], inv.Outputs[0]
	slope := inv.Args.(graph.ReluArgs).Slope
	sz := activationSizes(in.Args().Shape)
	inFmt, outFmt := in.Args().Format, out.Args().Format

	fn := func() {
		xv, err := lockF32(in)
		if err != nil {
			panic(err)
		}
		defer in.Release()
		ov, err := lockF32(out)
		if err != nil {
			panic(err)
		}
		defer out.Release()

		iterate4D(sz, func(c format.Coords) {
			ii, err := format.Index(inFmt, sz, c)
			if err != nil {
				panic(err)
			}
			oi, err := format.Index(outFmt, sz, c)
			if err != nil {
				panic(err)
			}
			x := xv.at(ii)
			if x > 0 {
				ov.set(oi, x)
			} else {
				ov.set(oi, slope*x)
			}
		})
	}
	return &simpleImpl{group: single("relu", fn)}, nil
}

// reluBackwardFactory builds the backward pass: dx = (x_fwd>0) ? dy : slope*dy.
// Inputs are {x_fwd, dy}; output is {dx}.
func reluBackwardFactory(inv registry.Invocation) (registry.Impl, error) {
	xFwd, dy, dx := inv.Inputs[0], inv.Inputs[1], inv.Outputs[0]
	slope := inv.Args.(graph.ReluBackwardArgs).Slope
	sz := activationSizes(xFwd.Args().Shape)
	xFmt, dyFmt, dxFmt := xFwd.Args().Format, dy.Args().Format, dx.Args().Format

	fn := func() {
		xv, err := lockF32(xFwd)
		if err != nil {
			panic(err)
		}
		defer xFwd.Release()
		dyv, err := lockF32(dy)
		if err != nil {
			panic(err)
		}
		defer dy.Release()
		dxv, err := lockF32(dx)
		if err != nil {
			panic(err)
		}
		defer dx.Release()

		iterate4D(sz, func(c format.Coords) {
			xi, err := format.Index(xFmt, sz, c)
			if err != nil {
				panic(err)
			}
			dyi, err := format.Index(dyFmt, sz, c)
			if err != nil {
				panic(err)
			}
			dxi, err := format.Index(dxFmt, sz, c)
			if err != nil {
				panic(err)
			}
			g := dyv.at(dyi)
			if xv.at(xi) > 0 {
				dxv.set(dxi, g)
			} else {
				dxv.set(dxi, slope*g)
			}
		})
	}
	return &simpleImpl{group: single("relu_backward", fn)}, nil
}

// registerRelu installs the forward and backward ReLU reference kernels
// under every activation format pairing with itself; relu never changes
// physical layout.
func registerRelu(r *registry.Registry) {
	registerOverAllFormats(r, graph.KindRelu.Name, reluFactory)
	registerOverAllFormats(r, graph.KindReluBackward.Name, reluBackwardFactory)
}

var activationFormats = []format.Format{format.Yxfb, format.Byxf, format.Bfyx, format.Fyxb}

// registerOverAllFormats registers factory for every same-format pairing in
// activationFormats, the common case for element-wise kernels whose
// dispatch key only needs to vary by input/output format equality.
func registerOverAllFormats(r *registry.Registry, kind string, factory registry.Factory) {
	for _, f := range activationFormats {
		r.Register(kind, registry.Key{Engine: "reference", InFormat: f, OutFormat: f}, factory, registry.Attrs{})
	}
}

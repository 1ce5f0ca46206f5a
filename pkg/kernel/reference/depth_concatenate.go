package reference

import (
	"github.com/hyperifyio/nnrt/pkg/format"
	"github.com/hyperifyio/nnrt/pkg/registry"
)

// depthConcatenateFactory copies each input into its slice of the output's
// feature axis, in input order (spec §4.11).
func depthConcatenateFactory(inv registry.Invocation) (registry.Impl, error) {
	out := inv.Outputs[0]
	outFmt := out.Args().Format
	outSz := activationSizes(out.Args().Shape)

	type plan struct {
		sz        format.Sizes
		fmtIn     format.Format
		featBase  int
	}
	plans := make([]plan, len(inv.Inputs))
	base := 0
	for i, in := range inv.Inputs {
		sz := activationSizes(in.Args().Shape)
		plans[i] = plan{sz: sz, fmtIn: in.Args().Format, featBase: base}
		base += sz.F
	}

	fn := func() {
		ov, err := lockF32(out)
		if err != nil {
			panic(err)
		}
		defer out.Release()

		for idx, in := range inv.Inputs {
			p := plans[idx]
			xv, err := lockF32(in)
			if err != nil {
				panic(err)
			}
			iterate4D(p.sz, func(c format.Coords) {
				ii, err := format.Index(p.fmtIn, p.sz, c)
				if err != nil {
					panic(err)
				}
				oc := format.Coords{B: c.B, F: p.featBase + c.F, Y: c.Y, X: c.X}
				oi, err := format.Index(outFmt, outSz, oc)
				if err != nil {
					panic(err)
				}
				ov.set(oi, xv.at(ii))
			})
			in.Release()
		}
	}
	return &simpleImpl{group: single("depth_concatenate", fn)}, nil
}

func registerDepthConcatenate(r *registry.Registry, kind string) {
	for _, f := range activationFormats {
		r.Register(kind, registry.Key{Engine: "reference", InFormat: f, OutFormat: f}, depthConcatenateFactory, registry.Attrs{})
	}
}

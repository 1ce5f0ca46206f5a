package reference

import (
	"github.com/hyperifyio/nnrt/pkg/format"
	"github.com/hyperifyio/nnrt/pkg/registry"
)

// reorderFactory converts input from its physical format to output's,
// walking the same logical (b,f,y,x) or (o,i,y,x) coordinate space either
// way — a same-format reorder degenerates into a plain copy (spec §4.5).
func reorderFactory(inv registry.Invocation) (registry.Impl, error) {
	in, out := inv.Inputs[0], inv.Outputs[0]
	inFmt, outFmt := in.Args().Format, out.Args().Format

	var sz format.Sizes
	if weightFormats[inFmt] {
		sz = weightSizes(in.Args().Shape)
	} else {
		sz = activationSizes(in.Args().Shape)
	}

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

		walk := func(c format.Coords) {
			ii, err := format.Index(inFmt, sz, c)
			if err != nil {
				panic(err)
			}
			oi, err := format.Index(outFmt, sz, c)
			if err != nil {
				panic(err)
			}
			ov.set(oi, xv.at(ii))
		}
		if weightFormats[inFmt] {
			for o := 0; o < sz.F; o++ {
				for i := 0; i < sz.I; i++ {
					for y := 0; y < sz.Y; y++ {
						for x := 0; x < sz.X; x++ {
							walk(format.Coords{F: o, I: i, Y: y, X: x})
						}
					}
				}
			}
		} else {
			iterate4D(sz, walk)
		}
	}
	return &simpleImpl{group: single("reorder", fn)}, nil
}

var weightFormatList = []format.Format{
	format.Oiyx, format.Yxoi, format.Oyxi, format.Yxio,
	format.OsIyxOsv16, format.YxoiO4, format.OsYxiSv16, format.OyxiO16,
	format.IoI13, format.IoI2,
}

// registerReorder installs the reorder kernel across every same-family
// format pairing: activation-to-activation and weight-to-weight. A
// cross-family reorder is not a meaningful conversion and is left
// unregistered, so Lookup reports NotImplemented for it.
func registerReorder(r *registry.Registry, kind string) {
	for _, a := range activationFormats {
		for _, b := range activationFormats {
			r.Register(kind, registry.Key{Engine: "reference", InFormat: a, OutFormat: b}, reorderFactory, registry.Attrs{})
		}
	}
	for _, a := range weightFormatList {
		for _, b := range weightFormatList {
			r.Register(kind, registry.Key{Engine: "reference", InFormat: a, OutFormat: b}, reorderFactory, registry.Attrs{})
		}
	}
}

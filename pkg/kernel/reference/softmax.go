package reference

import (
	"math"

	"github.com/hyperifyio/nnrt/pkg/format"
	"github.com/hyperifyio/nnrt/pkg/graph"
	"github.com/hyperifyio/nnrt/pkg/registry"
)

// softmax2DSizes adapts a 2-D (batch, x) shape to format.Sizes, reusing the
// feature sub-range as the x axis (spec §4.2's convention for rank-2
// tensors).
func softmax2DSizes(sh interface {
	BatchSize() int
	FeatureSize() int
}) format.Sizes {
	return format.Sizes{B: sh.BatchSize(), X: sh.FeatureSize()}
}

// softmaxFactory builds the subtract-max, exponentiate, normalize-by-sum
// softmax kernel (spec §4.11), numerically stable against large logits.
func softmaxFactory(inv registry.Invocation) (registry.Impl, error) {
	in, out := inv.Inputs[0], inv.Outputs[0]
	sz := softmax2DSizes(in.Args().Shape)
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

		for b := 0; b < sz.B; b++ {
			max := float32(-math.MaxFloat32)
			for x := 0; x < sz.X; x++ {
				ii, err := format.Index(inFmt, sz, format.Coords{B: b, X: x})
				if err != nil {
					panic(err)
				}
				if v := xv.at(ii); v > max {
					max = v
				}
			}
			var sum float32
			for x := 0; x < sz.X; x++ {
				ii, err := format.Index(inFmt, sz, format.Coords{B: b, X: x})
				if err != nil {
					panic(err)
				}
				oi, err := format.Index(outFmt, sz, format.Coords{B: b, X: x})
				if err != nil {
					panic(err)
				}
				e := float32(math.Exp(float64(xv.at(ii) - max)))
				ov.set(oi, e)
				sum += e
			}
			for x := 0; x < sz.X; x++ {
				oi, err := format.Index(outFmt, sz, format.Coords{B: b, X: x})
				if err != nil {
					panic(err)
				}
				ov.set(oi, ov.at(oi)/sum)
			}
		}
	}
	return &simpleImpl{group: single("softmax", fn)}, nil
}

var softmaxFormats = []format.Format{format.Xb, format.Bx}

func registerSoftmax(r *registry.Registry) {
	for _, f := range softmaxFormats {
		r.Register(graph.KindSoftmax.Name, registry.Key{Engine: "reference", InFormat: f, OutFormat: f}, softmaxFactory, registry.Attrs{})
	}
}

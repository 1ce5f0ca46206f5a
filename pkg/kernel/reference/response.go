package reference

import (
	"math"

	"github.com/hyperifyio/nnrt/pkg/format"
	"github.com/hyperifyio/nnrt/pkg/graph"
	"github.com/hyperifyio/nnrt/pkg/registry"
)

// responseFactory builds local response normalization across the feature
// axis: scale = k + alpha*sum(x(f')^2) for f' in the size-wide window
// centered on f, y = x * scale^-beta. The source's reference body was left
// stubbed (commented out); this fills in the formula it names but never
// executes.
func responseFactory(inv registry.Invocation) (registry.Impl, error) {
	in, out := inv.Inputs[0], inv.Outputs[0]
	args := inv.Args.(graph.ResponseArgs)
	sz := activationSizes(in.Args().Shape)
	inFmt, outFmt := in.Args().Format, out.Args().Format
	half := args.Size / 2

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
			var sumSq float32
			for df := -half; df <= half; df++ {
				f2 := c.F + df
				if f2 < 0 || f2 >= sz.F {
					continue
				}
				ni, err := format.Index(inFmt, sz, format.Coords{B: c.B, F: f2, Y: c.Y, X: c.X})
				if err != nil {
					panic(err)
				}
				v := xv.at(ni)
				sumSq += v * v
			}
			scale := float64(args.K) + float64(args.Alpha)*float64(sumSq)

			ii, err := format.Index(inFmt, sz, c)
			if err != nil {
				panic(err)
			}
			oi, err := format.Index(outFmt, sz, c)
			if err != nil {
				panic(err)
			}
			y := float64(xv.at(ii)) * math.Pow(scale, -float64(args.Beta))
			ov.set(oi, float32(y))
		})
	}
	return &simpleImpl{group: single("response", fn)}, nil
}

func registerResponse(r *registry.Registry) {
	registerOverAllFormats(r, graph.KindResponse.Name, responseFactory)
}

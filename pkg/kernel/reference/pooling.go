package reference

import (
	"math"

	"github.com/hyperifyio/nnrt/pkg/format"
	"github.com/hyperifyio/nnrt/pkg/graph"
	"github.com/hyperifyio/nnrt/pkg/registry"
)

// poolingFactory builds max/average pooling (spec §4.11): windows that
// extend past the input boundary contribute 0, and average pooling divides
// by the full window size regardless of how many positions were in range.
func poolingFactory(inv registry.Invocation) (registry.Impl, error) {
	in, out := inv.Inputs[0], inv.Outputs[0]
	args := inv.Args.(graph.PoolingArgs)
	inSz := activationSizes(in.Args().Shape)
	outSz := activationSizes(out.Args().Shape)
	inFmt, outFmt := in.Args().Format, out.Args().Format
	windowElems := args.Window[0] * args.Window[1]

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

		iterate4D(outSz, func(oc format.Coords) {
			oi, err := format.Index(outFmt, outSz, oc)
			if err != nil {
				panic(err)
			}

			var acc float32
			if args.Mode == graph.PoolingMax {
				acc = -math.MaxFloat32
			}
			for wy := 0; wy < args.Window[0]; wy++ {
				for wx := 0; wx < args.Window[1]; wx++ {
					iy := oc.Y*args.Stride[0] + args.InputOffset[0] + wy
					ix := oc.X*args.Stride[1] + args.InputOffset[1] + wx
					if iy < 0 || iy >= inSz.Y || ix < 0 || ix >= inSz.X {
						if args.Mode == graph.PoolingMax && 0 > acc {
							acc = 0
						}
						continue
					}
					ic := format.Coords{B: oc.B, F: oc.F, Y: iy, X: ix}
					ii, err := format.Index(inFmt, inSz, ic)
					if err != nil {
						panic(err)
					}
					v := xv.at(ii)
					switch args.Mode {
					case graph.PoolingMax:
						if v > acc {
							acc = v
						}
					case graph.PoolingAverage:
						acc += v
					}
				}
			}
			if args.Mode == graph.PoolingAverage {
				acc /= float32(windowElems)
			}
			ov.set(oi, acc)
		})
	}
	return &simpleImpl{group: single("pooling", fn)}, nil
}

func registerPooling(r *registry.Registry) {
	registerOverAllFormats(r, graph.KindPooling.Name, poolingFactory)
}

package optimized

import (
	"github.com/hyperifyio/nnrt/pkg/errs"
	"github.com/hyperifyio/nnrt/pkg/format"
	"github.com/hyperifyio/nnrt/pkg/graph"
	"github.com/hyperifyio/nnrt/pkg/registry"
	"github.com/hyperifyio/nnrt/pkg/task"
)

type simpleImpl struct {
	group task.Group
}

func (s *simpleImpl) TaskGroup() task.Group { return s.group }

// lrnBatch24Factory only covers size=5, beta=0.75, byxf_b24 layout — the
// one configuration the source's AVX2 variant supports — and returns
// NotImplemented for anything else, which fails the Create call rather than
// silently producing a wrong answer; no other kernel is tried.
func lrnBatch24Factory(inv registry.Invocation) (registry.Impl, error) {
	args := inv.Args.(graph.ResponseArgs)
	if args.Size != 5 || args.Beta != 0.75 {
		return nil, errs.NotImpl("response/cpu/byxf_b24", "optimized lrn only supports size=5, beta=0.75, got size=%d beta=%v", args.Size, args.Beta)
	}
	in, out := inv.Inputs[0], inv.Outputs[0]
	if in.Args().Shape.BatchSize()%24 != 0 {
		return nil, errs.NotImpl("response/cpu/byxf_b24", "optimized lrn requires batch divisible by 24")
	}
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

		for b := 0; b < sz.B; b++ {
			for f := 0; f < sz.F; f++ {
				for y := 0; y < sz.Y; y++ {
					for x := 0; x < sz.X; x++ {
						var sumSq float32
						for df := -half; df <= half; df++ {
							f2 := f + df
							if f2 < 0 || f2 >= sz.F {
								continue
							}
							ni, err := format.Index(inFmt, sz, format.Coords{B: b, F: f2, Y: y, X: x})
							if err != nil {
								panic(err)
							}
							v := xv.at(ni)
							sumSq += v * v
						}
						scale := args.K + args.Alpha*sumSq

						ii, err := format.Index(inFmt, sz, format.Coords{B: b, F: f, Y: y, X: x})
						if err != nil {
							panic(err)
						}
						oi, err := format.Index(outFmt, sz, format.Coords{B: b, F: f, Y: y, X: x})
						if err != nil {
							panic(err)
						}
						ov.set(oi, xv.at(ii)*invPow075(scale))
					}
				}
			}
		}
	}
	return &simpleImpl{group: task.NewGroup(task.Single, task.New("lrn_batch24", fn))}, nil
}

func registerLRN(r *registry.Registry) {
	r.Register(graph.KindResponse.Name, registry.Key{Engine: "cpu", InFormat: format.ByxfB24, OutFormat: format.ByxfB24}, lrnBatch24Factory, registry.Attrs{})
}

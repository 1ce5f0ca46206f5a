package optimized

import (
	"math"

	"github.com/hyperifyio/nnrt/pkg/errs"
	"github.com/hyperifyio/nnrt/pkg/format"
	"github.com/hyperifyio/nnrt/pkg/graph"
	"github.com/hyperifyio/nnrt/pkg/registry"
	"github.com/hyperifyio/nnrt/pkg/task"
)

// fastSoftmaxBatches is the set of batch sizes this kernel accepts (1, 8,
// 48), the same set graph's optimizedSoftmaxBatches lists: the sizes
// AlexNet/GoogLeNet-style networks exercise in practice. Any other batch
// size makes the factory return NotImplemented.
var fastSoftmaxBatches = map[int]bool{1: true, 8: true, 48: true}

func softmaxFastFactory(inv registry.Invocation) (registry.Impl, error) {
	in, out := inv.Inputs[0], inv.Outputs[0]
	b := in.Args().Shape.BatchSize()
	x := in.Args().Shape.FeatureSize()
	if !fastSoftmaxBatches[b] {
		return nil, errs.NotImpl("softmax/cpu", "optimized softmax only supports batch in {1,8,48}, got %d", b)
	}
	inFmt, outFmt := in.Args().Format, out.Args().Format
	sz := format.Sizes{B: b, X: x}

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

		for bi := 0; bi < sz.B; bi++ {
			max := float32(-math.MaxFloat32)
			for xi := 0; xi < sz.X; xi++ {
				ii, err := format.Index(inFmt, sz, format.Coords{B: bi, X: xi})
				if err != nil {
					panic(err)
				}
				if v := xv.at(ii); v > max {
					max = v
				}
			}
			var sum float32
			for xi := 0; xi < sz.X; xi++ {
				ii, err := format.Index(inFmt, sz, format.Coords{B: bi, X: xi})
				if err != nil {
					panic(err)
				}
				oi, err := format.Index(outFmt, sz, format.Coords{B: bi, X: xi})
				if err != nil {
					panic(err)
				}
				e := float32(math.Exp(float64(xv.at(ii) - max)))
				ov.set(oi, e)
				sum += e
			}
			recip := 1 / sum
			for xi := 0; xi < sz.X; xi++ {
				oi, err := format.Index(outFmt, sz, format.Coords{B: bi, X: xi})
				if err != nil {
					panic(err)
				}
				ov.set(oi, ov.at(oi)*recip)
			}
		}
	}
	return &simpleImpl{group: task.NewGroup(task.Single, task.New("softmax_fast", fn))}, nil
}

func registerSoftmax(r *registry.Registry) {
	for _, f := range []format.Format{format.Xb, format.Bx} {
		r.Register(graph.KindSoftmax.Name, registry.Key{Engine: "cpu", InFormat: f, OutFormat: f}, softmaxFastFactory, registry.Attrs{})
	}
}

package reference

import (
	"math"

	"github.com/hyperifyio/nnrt/pkg/format"
	"github.com/hyperifyio/nnrt/pkg/graph"
	"github.com/hyperifyio/nnrt/pkg/registry"
)

// batchReduceCount is the number of elements a training pass reduces over
// per feature channel: batch size alone, or batch*spatial when Spatial is
// set (spec §4.5's per-kind Spatial flag).
func batchReduceCount(sz format.Sizes, spatial bool) int {
	if !spatial {
		return sz.B
	}
	return sz.B * imax(sz.Y, 1) * imax(sz.X, 1)
}

func forEachInChannel(sz format.Sizes, f int, spatial bool, fn func(c format.Coords)) {
	for b := 0; b < sz.B; b++ {
		if !spatial {
			fn(format.Coords{B: b, F: f})
			continue
		}
		for y := 0; y < imax(sz.Y, 1); y++ {
			for x := 0; x < imax(sz.X, 1); x++ {
				fn(format.Coords{B: b, F: f, Y: y, X: x})
			}
		}
	}
}

// batchTrainingForwardFactory computes per-channel mean/variance over the
// current batch, normalizes x, and folds the result into the moving
// statistics via exponential averaging (spec §4.5).
func batchTrainingForwardFactory(inv registry.Invocation) (registry.Impl, error) {
	xBuf, scaleBuf, biasBuf := inv.Inputs[0], inv.Inputs[1], inv.Inputs[2]
	yBuf, meanBuf, invStdBuf, movMeanBuf, movInvStdBuf := inv.Outputs[0], inv.Outputs[1], inv.Outputs[2], inv.Outputs[3], inv.Outputs[4]
	args := inv.Args.(graph.BatchTrainingForwardArgs)

	sz := activationSizes(xBuf.Args().Shape)
	xFmt, yFmt := xBuf.Args().Format, yBuf.Args().Format
	scaleFmt := scaleBuf.Args().Format
	n := batchReduceCount(sz, args.Spatial)

	fn := func() {
		xv, err := lockF32(xBuf)
		if err != nil {
			panic(err)
		}
		defer xBuf.Release()
		scaleV, err := lockF32(scaleBuf)
		if err != nil {
			panic(err)
		}
		defer scaleBuf.Release()
		biasV, err := lockF32(biasBuf)
		if err != nil {
			panic(err)
		}
		defer biasBuf.Release()
		yv, err := lockF32(yBuf)
		if err != nil {
			panic(err)
		}
		defer yBuf.Release()
		meanV, err := lockF32(meanBuf)
		if err != nil {
			panic(err)
		}
		defer meanBuf.Release()
		invStdV, err := lockF32(invStdBuf)
		if err != nil {
			panic(err)
		}
		defer invStdBuf.Release()
		movMeanV, err := lockF32(movMeanBuf)
		if err != nil {
			panic(err)
		}
		defer movMeanBuf.Release()
		movInvStdV, err := lockF32(movInvStdBuf)
		if err != nil {
			panic(err)
		}
		defer movInvStdBuf.Release()

		for f := 0; f < sz.F; f++ {
			var sum float64
			forEachInChannel(sz, f, args.Spatial, func(c format.Coords) {
				xi, err := format.Index(xFmt, sz, c)
				if err != nil {
					panic(err)
				}
				sum += float64(xv.at(xi))
			})
			mean := sum / float64(n)

			var sumSq float64
			forEachInChannel(sz, f, args.Spatial, func(c format.Coords) {
				xi, err := format.Index(xFmt, sz, c)
				if err != nil {
					panic(err)
				}
				d := float64(xv.at(xi)) - mean
				sumSq += d * d
			})
			variance := sumSq / float64(n)
			invStd := 1 / math.Sqrt(variance+float64(args.Epsilon))

			fi, err := format.Index(format.X, format.Sizes{X: sz.F}, format.Coords{X: f})
			if err != nil {
				panic(err)
			}
			meanV.set(fi, float32(mean))
			invStdV.set(fi, float32(invStd))
			movMeanV.set(fi, movMeanV.at(fi)*(1-args.ExpAvgFactor)+float32(mean)*args.ExpAvgFactor)
			movInvStdV.set(fi, movInvStdV.at(fi)*(1-args.ExpAvgFactor)+float32(invStd)*args.ExpAvgFactor)

			scaleI, err := format.Index(scaleFmt, format.Sizes{X: sz.F}, format.Coords{X: f})
			if err != nil {
				panic(err)
			}
			scale := scaleV.at(scaleI)
			bias := biasV.at(scaleI)

			forEachInChannel(sz, f, args.Spatial, func(c format.Coords) {
				xi, err := format.Index(xFmt, sz, c)
				if err != nil {
					panic(err)
				}
				yi, err := format.Index(yFmt, sz, c)
				if err != nil {
					panic(err)
				}
				xhat := (float64(xv.at(xi)) - mean) * invStd
				yv.set(yi, float32(xhat)*scale+bias)
			})
		}
	}
	return &simpleImpl{group: single("batch_training_forward", fn)}, nil
}

// batchTrainingBackwardFactory implements the standard batch-norm backward
// formula, reducing dbias and dscale per channel and distributing dx across
// every element of the channel.
func batchTrainingBackwardFactory(inv registry.Invocation) (registry.Impl, error) {
	xFwdBuf, scaleFwdBuf := inv.Inputs[0], inv.Inputs[1]
	dyBuf, meanBuf, invStdBuf := inv.Inputs[3], inv.Inputs[4], inv.Inputs[5]
	dxBuf, dscaleBuf, dbiasBuf := inv.Outputs[0], inv.Outputs[1], inv.Outputs[2]
	args := inv.Args.(graph.BatchTrainingBackwardArgs)

	sz := activationSizes(xFwdBuf.Args().Shape)
	xFmt, dyFmt, dxFmt := xFwdBuf.Args().Format, dyBuf.Args().Format, dxBuf.Args().Format
	scaleFmt := scaleFwdBuf.Args().Format
	n := batchReduceCount(sz, args.Spatial)

	fn := func() {
		xv, err := lockF32(xFwdBuf)
		if err != nil {
			panic(err)
		}
		defer xFwdBuf.Release()
		scaleV, err := lockF32(scaleFwdBuf)
		if err != nil {
			panic(err)
		}
		defer scaleFwdBuf.Release()
		dyv, err := lockF32(dyBuf)
		if err != nil {
			panic(err)
		}
		defer dyBuf.Release()
		meanV, err := lockF32(meanBuf)
		if err != nil {
			panic(err)
		}
		defer meanBuf.Release()
		invStdV, err := lockF32(invStdBuf)
		if err != nil {
			panic(err)
		}
		defer invStdBuf.Release()
		dxV, err := lockF32(dxBuf)
		if err != nil {
			panic(err)
		}
		defer dxBuf.Release()
		dscaleV, err := lockF32(dscaleBuf)
		if err != nil {
			panic(err)
		}
		defer dscaleBuf.Release()
		dbiasV, err := lockF32(dbiasBuf)
		if err != nil {
			panic(err)
		}
		defer dbiasBuf.Release()

		chanSz := format.Sizes{X: sz.F}
		for f := 0; f < sz.F; f++ {
			fi, err := format.Index(format.X, chanSz, format.Coords{X: f})
			if err != nil {
				panic(err)
			}
			mean := float64(meanV.at(fi))
			invStd := float64(invStdV.at(fi))
			scaleI, err := format.Index(scaleFmt, chanSz, format.Coords{X: f})
			if err != nil {
				panic(err)
			}
			scale := float64(scaleV.at(scaleI))

			var sumDy, sumDyXhat float64
			forEachInChannel(sz, f, args.Spatial, func(c format.Coords) {
				xi, err := format.Index(xFmt, sz, c)
				if err != nil {
					panic(err)
				}
				dyi, err := format.Index(dyFmt, sz, c)
				if err != nil {
					panic(err)
				}
				xhat := (float64(xv.at(xi)) - mean) * invStd
				g := float64(dyv.at(dyi))
				sumDy += g
				sumDyXhat += g * xhat
			})
			dbiasV.set(fi, float32(sumDy))
			dscaleV.set(fi, float32(sumDyXhat))

			nf := float64(n)
			forEachInChannel(sz, f, args.Spatial, func(c format.Coords) {
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
				xhat := (float64(xv.at(xi)) - mean) * invStd
				g := float64(dyv.at(dyi))
				dx := invStd * scale / nf * (nf*g - sumDy - xhat*sumDyXhat)
				dxV.set(dxi, float32(dx))
			})
		}
	}
	return &simpleImpl{group: single("batch_training_backward", fn)}, nil
}

// batchInferenceFactory applies the affine normalization using caller-
// supplied mean/inv_std_dev rather than computing them, the fused-stats
// inference path (spec §4.5).
func batchInferenceFactory(inv registry.Invocation) (registry.Impl, error) {
	xBuf, scaleBuf, biasBuf, meanBuf, invStdBuf := inv.Inputs[0], inv.Inputs[1], inv.Inputs[2], inv.Inputs[3], inv.Inputs[4]
	yBuf := inv.Outputs[0]

	sz := activationSizes(xBuf.Args().Shape)
	xFmt, yFmt := xBuf.Args().Format, yBuf.Args().Format
	scaleFmt := scaleBuf.Args().Format
	chanSz := format.Sizes{X: sz.F}

	fn := func() {
		xv, err := lockF32(xBuf)
		if err != nil {
			panic(err)
		}
		defer xBuf.Release()
		scaleV, err := lockF32(scaleBuf)
		if err != nil {
			panic(err)
		}
		defer scaleBuf.Release()
		biasV, err := lockF32(biasBuf)
		if err != nil {
			panic(err)
		}
		defer biasBuf.Release()
		meanV, err := lockF32(meanBuf)
		if err != nil {
			panic(err)
		}
		defer meanBuf.Release()
		invStdV, err := lockF32(invStdBuf)
		if err != nil {
			panic(err)
		}
		defer invStdBuf.Release()
		yv, err := lockF32(yBuf)
		if err != nil {
			panic(err)
		}
		defer yBuf.Release()

		iterate4D(sz, func(c format.Coords) {
			fi, err := format.Index(scaleFmt, chanSz, format.Coords{X: c.F})
			if err != nil {
				panic(err)
			}
			xi, err := format.Index(xFmt, sz, c)
			if err != nil {
				panic(err)
			}
			yi, err := format.Index(yFmt, sz, c)
			if err != nil {
				panic(err)
			}
			xhat := (xv.at(xi) - meanV.at(fi)) * invStdV.at(fi)
			yv.set(yi, xhat*scaleV.at(fi)+biasV.at(fi))
		})
	}
	return &simpleImpl{group: single("batch_inference", fn)}, nil
}

func registerBatchNorm(r *registry.Registry) {
	for _, f := range activationFormats {
		key := registry.Key{Engine: "reference", InFormat: f, OutFormat: f}
		r.Register(graph.KindBatchTrainingForward.Name, key, batchTrainingForwardFactory, registry.Attrs{})
		r.Register(graph.KindBatchTrainingBackward.Name, key, batchTrainingBackwardFactory, registry.Attrs{})
		r.Register(graph.KindBatchInference.Name, key, batchInferenceFactory, registry.Attrs{})
	}
}

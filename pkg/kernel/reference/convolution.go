package reference

import (
	"github.com/hyperifyio/nnrt/pkg/format"
	"github.com/hyperifyio/nnrt/pkg/graph"
	"github.com/hyperifyio/nnrt/pkg/registry"
)

// convParams collects the buffer geometry every forward convolution variant
// needs, independent of whether a ReLU is fused on afterward.
type convParams struct {
	in, w, bias, out format.Sizes
	inFmt, wFmt, biasFmt, outFmt format.Format
	args graph.ConvolutionArgs
}

func newConvParams(inv registry.Invocation) convParams {
	in, w, bias, out := inv.Inputs[0], inv.Inputs[1], inv.Inputs[2], inv.Outputs[0]
	return convParams{
		in: activationSizes(in.Args().Shape), w: weightSizes(w.Args().Shape),
		bias: format.Sizes{X: bias.Args().Shape.Count()}, out: activationSizes(out.Args().Shape),
		inFmt: in.Args().Format, wFmt: w.Args().Format, biasFmt: format.X, outFmt: out.Args().Format,
		args: inv.Args.(graph.ConvolutionArgs),
	}
}

// convolutionForward evaluates every output position. split > 1 partitions
// the output-feature axis into p.args.Split contiguous groups; group g's
// output features only ever read input features [g*p.w.I, (g+1)*p.w.I) —
// the slice its weight's I dimension was sized for (spec §4.11: "each using
// the corresponding weight and input-feature slice").
func convolutionForward(p convParams, xv, wv, bv, ov f32view, applyRelu bool, reluSlope float32) {
	groupOutSize := p.out.F / p.args.Split
	iterate4D(p.out, func(oc format.Coords) {
		biasI, err := format.Index(p.biasFmt, p.bias, format.Coords{X: oc.F})
		if err != nil {
			panic(err)
		}
		acc := bv.at(biasI)
		inFeatureOffset := (oc.F / groupOutSize) * p.w.I
		for i := 0; i < p.w.I; i++ {
			for wy := 0; wy < p.w.Y; wy++ {
				for wx := 0; wx < p.w.X; wx++ {
					iy := oc.Y*p.args.Stride[0] + p.args.InputOffset[0] + wy
					ix := oc.X*p.args.Stride[1] + p.args.InputOffset[1] + wx
					if iy < 0 || iy >= p.in.Y || ix < 0 || ix >= p.in.X {
						continue
					}
					wi, err := format.Index(p.wFmt, p.w, format.Coords{F: oc.F, I: i, Y: wy, X: wx})
					if err != nil {
						panic(err)
					}
					xi, err := format.Index(p.inFmt, p.in, format.Coords{B: oc.B, F: inFeatureOffset + i, Y: iy, X: ix})
					if err != nil {
						panic(err)
					}
					acc += wv.at(wi) * xv.at(xi)
				}
			}
		}
		if applyRelu && acc < 0 {
			acc *= reluSlope
		}
		oi, err := format.Index(p.outFmt, p.out, oc)
		if err != nil {
			panic(err)
		}
		ov.set(oi, acc)
	})
}

func convolutionFactoryWith(applyRelu bool) registry.Factory {
	return func(inv registry.Invocation) (registry.Impl, error) {
		p := newConvParams(inv)
		xBuf, wBuf, bBuf, oBuf := inv.Inputs[0], inv.Inputs[1], inv.Inputs[2], inv.Outputs[0]

		fn := func() {
			xv, err := lockF32(xBuf)
			if err != nil {
				panic(err)
			}
			defer xBuf.Release()
			wv, err := lockF32(wBuf)
			if err != nil {
				panic(err)
			}
			defer wBuf.Release()
			bv, err := lockF32(bBuf)
			if err != nil {
				panic(err)
			}
			defer bBuf.Release()
			ov, err := lockF32(oBuf)
			if err != nil {
				panic(err)
			}
			defer oBuf.Release()

			convolutionForward(p, xv, wv, bv, ov, applyRelu, p.args.ReluSlope)
		}
		label := "convolution"
		if applyRelu {
			label = "convolution_relu"
		}
		return &simpleImpl{group: single(label, fn)}, nil
	}
}

// convolutionBackwardFactory computes dInput, dWeight, dBias from
// {dOutput, inputFwd, weights, bias}, accumulating the transpose-convolution
// contribution of every output position that read a given input/weight
// element during the forward pass.
func convolutionBackwardFactory(inv registry.Invocation) (registry.Impl, error) {
	dOutBuf, xFwdBuf, wBuf := inv.Inputs[0], inv.Inputs[1], inv.Inputs[2]
	dxBuf, dwBuf, dbBuf := inv.Outputs[0], inv.Outputs[1], inv.Outputs[2]
	args := inv.Args.(graph.ConvolutionArgs)

	dOutSz := activationSizes(dOutBuf.Args().Shape)
	inSz := activationSizes(xFwdBuf.Args().Shape)
	wSz := weightSizes(wBuf.Args().Shape)
	dOutFmt, xFwdFmt, wFmt := dOutBuf.Args().Format, xFwdBuf.Args().Format, wBuf.Args().Format
	dxFmt, dwFmt := dxBuf.Args().Format, dwBuf.Args().Format
	dbSz := format.Sizes{X: dbBuf.Args().Shape.Count()}
	groupOutSize := dOutSz.F
	if args.Split > 1 && dOutSz.F%args.Split == 0 {
		groupOutSize = dOutSz.F / args.Split
	}

	fn := func() {
		dOutV, err := lockF32(dOutBuf)
		if err != nil {
			panic(err)
		}
		defer dOutBuf.Release()
		xFwdV, err := lockF32(xFwdBuf)
		if err != nil {
			panic(err)
		}
		defer xFwdBuf.Release()
		wV, err := lockF32(wBuf)
		if err != nil {
			panic(err)
		}
		defer wBuf.Release()
		dxV, err := lockF32(dxBuf)
		if err != nil {
			panic(err)
		}
		defer dxBuf.Release()
		dwV, err := lockF32(dwBuf)
		if err != nil {
			panic(err)
		}
		defer dwBuf.Release()
		dbV, err := lockF32(dbBuf)
		if err != nil {
			panic(err)
		}
		defer dbBuf.Release()

		for i := 0; i < dxBuf.Count(); i++ {
			dxV.set(i, 0)
		}
		for i := 0; i < dwBuf.Count(); i++ {
			dwV.set(i, 0)
		}
		for i := 0; i < dbBuf.Count(); i++ {
			dbV.set(i, 0)
		}

		iterate4D(dOutSz, func(oc format.Coords) {
			doi, err := format.Index(dOutFmt, dOutSz, oc)
			if err != nil {
				panic(err)
			}
			g := dOutV.at(doi)

			dbi, err := format.Index(format.X, dbSz, format.Coords{X: oc.F})
			if err != nil {
				panic(err)
			}
			dbV.set(dbi, dbV.at(dbi)+g)

			inFeatureOffset := (oc.F / groupOutSize) * wSz.I
			for i := 0; i < wSz.I; i++ {
				for wy := 0; wy < wSz.Y; wy++ {
					for wx := 0; wx < wSz.X; wx++ {
						iy := oc.Y*args.Stride[0] + args.InputOffset[0] + wy
						ix := oc.X*args.Stride[1] + args.InputOffset[1] + wx
						if iy < 0 || iy >= inSz.Y || ix < 0 || ix >= inSz.X {
							continue
						}
						wc := format.Coords{F: oc.F, I: i, Y: wy, X: wx}
						wi, err := format.Index(wFmt, wSz, wc)
						if err != nil {
							panic(err)
						}
						xc := format.Coords{B: oc.B, F: inFeatureOffset + i, Y: iy, X: ix}
						xi, err := format.Index(xFwdFmt, inSz, xc)
						if err != nil {
							panic(err)
						}
						dwi, err := format.Index(dwFmt, wSz, wc)
						if err != nil {
							panic(err)
						}
						dwV.set(dwi, dwV.at(dwi)+g*xFwdV.at(xi))

						dxi, err := format.Index(dxFmt, inSz, xc)
						if err != nil {
							panic(err)
						}
						dxV.set(dxi, dxV.at(dxi)+g*wV.at(wi))
					}
				}
			}
		})
	}
	return &simpleImpl{group: single("convolution_backward", fn)}, nil
}

func registerConvolution(r *registry.Registry) {
	fwd := convolutionFactoryWith(false)
	fwdRelu := convolutionFactoryWith(true)
	for _, f := range activationFormats {
		r.Register(graph.KindConvolution.Name, registry.Key{Engine: "reference", InFormat: f, OutFormat: f}, fwd, registry.Attrs{})
		r.Register(graph.KindConvolutionRelu.Name, registry.Key{Engine: "reference", InFormat: f, OutFormat: f}, fwdRelu, registry.Attrs{})
		r.Register(graph.KindConvolutionBackward.Name, registry.Key{Engine: "reference", InFormat: f, OutFormat: f}, convolutionBackwardFactory, registry.Attrs{})
	}
}

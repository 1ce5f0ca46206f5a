// Package optimized implements the tightly-scoped, format/parameter-specific
// kernel variants the source ships alongside its general reference kernels
// (spec §4.12): each one only covers a narrow slice of the parameter space
// its reference counterpart handles in full, trading generality for speed.
// Kernels here are registered under the "cpu" engine, while kernel/reference
// registers under "reference"; the two sets share no dispatch key, so no
// reference kernel is overridden, and a reference kernel is reached only by
// dispatching on the reference engine.
package optimized

import (
	"encoding/binary"
	"math"

	"github.com/hyperifyio/nnrt/pkg/format"
	"github.com/hyperifyio/nnrt/pkg/memory"
	"github.com/hyperifyio/nnrt/pkg/shape"
)

// activationSizes adapts a (batch, feature, y, x) shape to format.Sizes.
func activationSizes(sh shape.Shape) format.Sizes {
	sp := sh.SpatialSizes()
	y, x := 0, 0
	if len(sp) > 0 {
		y = sp[0]
	}
	if len(sp) > 1 {
		x = sp[1]
	}
	return format.Sizes{B: sh.BatchSize(), F: sh.FeatureSize(), Y: y, X: x}
}

type f32view struct {
	raw []byte
}

func lockF32(buf *memory.Buffer) (f32view, error) {
	raw, err := buf.Lock()
	if err != nil {
		return f32view{}, err
	}
	return f32view{raw: raw}, nil
}

func (v f32view) at(i int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(v.raw[i*4:]))
}

func (v f32view) set(i int, x float32) {
	binary.LittleEndian.PutUint32(v.raw[i*4:], math.Float32bits(x))
}

// fastInvSqrt is the classic bit-trick approximate reciprocal square root,
// refined by one Newton-Raphson step.
func fastInvSqrt(x float32) float32 {
	i := math.Float32bits(x)
	i = 0x5f3759df - (i >> 1)
	y := math.Float32frombits(i)
	y = y * (1.5 - 0.5*x*y*y)
	return y
}

// invPow075 approximates x^-0.75 as x^-0.5 * x^-0.25, composing fastInvSqrt
// with one further square root — the scalar-Go analogue of the AVX2
// polynomial approximation the optimized LRN path uses for beta=0.75.
func invPow075(x float32) float32 {
	y := fastInvSqrt(x)
	return y * float32(math.Sqrt(float64(y)))
}

// Package reference implements the correct-but-slow kernels specified at
// contract level in spec §4.11: they are both the spec for optimized
// variants and the fallback when no optimized kernel matches a dispatch
// key.
package reference

import (
	"encoding/binary"
	"math"

	"github.com/hyperifyio/nnrt/pkg/format"
	"github.com/hyperifyio/nnrt/pkg/memory"
	"github.com/hyperifyio/nnrt/pkg/shape"
	"github.com/hyperifyio/nnrt/pkg/task"
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

// f32view locks buf and exposes it as a float32 slice, matching the
// element type every reference kernel body in spec §4.11 is specified
// against.
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

// single builds a task.Group running fn once on the pool's first
// participating worker (spec §4.8's "single" discipline).
func single(label string, fn func()) task.Group {
	return task.NewGroup(task.Single, task.New(label, fn))
}

func imax(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// weightSizes adapts a (output_feature, input_feature, y, x) shape — the
// convention graph.CreateConvolution's weight buffers use — to format.Sizes,
// reusing the batch slot for output-feature and the feature slot for
// input-feature.
func weightSizes(sh shape.Shape) format.Sizes {
	sp := sh.SpatialSizes()
	y, x := 0, 0
	if len(sp) > 0 {
		y = sp[0]
	}
	if len(sp) > 1 {
		x = sp[1]
	}
	return format.Sizes{B: 1, F: sh.BatchSize(), I: sh.FeatureSize(), Y: y, X: x}
}

// weightFormats enumerates the formats whose Index implementation addresses
// an (output_feature, input_feature, y, x) tensor rather than an
// (batch, feature, y, x) one.
var weightFormats = map[format.Format]bool{
	format.Oiyx: true, format.Yxoi: true, format.Oyxi: true, format.Yxio: true,
	format.OsIyxOsv16: true, format.YxoiO4: true, format.OsYxiSv16: true, format.OyxiO16: true,
	format.IoI13: true, format.IoI2: true,
}

// iterate4D walks every (b, f, y, x) coordinate in sz in row-major order,
// the logical iteration order every activation kernel in this package
// shares regardless of physical format.
func iterate4D(sz format.Sizes, fn func(c format.Coords)) {
	for b := 0; b < sz.B; b++ {
		for f := 0; f < sz.F; f++ {
			for y := 0; y < sz.Y; y++ {
				for x := 0; x < sz.X; x++ {
					fn(format.Coords{B: b, F: f, Y: y, X: x})
				}
			}
		}
	}
}

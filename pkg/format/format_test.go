package format_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperifyio/nnrt/pkg/format"
)

// sizesFor builds a plausible Sizes value for fmt, picking dimension values
// that satisfy every tiling divisibility constraint Index enforces.
func sizesFor(f format.Format) format.Sizes {
	switch f {
	case format.ByxfB24:
		return format.Sizes{B: 24, F: 3, Y: 2, X: 2}
	case format.YxoiO4:
		return format.Sizes{F: 4, I: 3, Y: 2, X: 2}
	case format.OyxiO16, format.OsIyxOsv16, format.OsYxiSv16:
		return format.Sizes{B: 1, F: 16, I: 2, Y: 2, X: 2}
	case format.IoI13:
		return format.Sizes{F: 13, I: 26}
	case format.IoI2:
		return format.Sizes{F: 2, I: 4}
	case format.Oiyx, format.Yxoi, format.Oyxi, format.Yxio:
		return format.Sizes{B: 1, F: 3, I: 2, Y: 2, X: 2}
	case format.X:
		return format.Sizes{X: 5}
	case format.Xb, format.Bx:
		return format.Sizes{B: 3, X: 5}
	case format.BsXsXsv8Bsv8:
		return format.Sizes{B: 16, X: 16}
	case format.BsXBsv16:
		return format.Sizes{B: 16, X: 5}
	default:
		return format.Sizes{B: 2, F: 3, Y: 2, X: 2}
	}
}

// coordsFor enumerates every coordinate in sz's domain for fmt's dimension
// arity, as (b,f,y,x,i) tuples bounded by the relevant sizes.
func coordsFor(f format.Format, sz format.Sizes) []format.Coords {
	bN, fN, yN, xN, iN := 1, 1, 1, 1, 1
	switch f {
	case format.X:
		xN = sz.X
	case format.Xb, format.Bx:
		bN, xN = sz.B, sz.X
	case format.IoI13, format.IoI2:
		fN, iN = sz.F, sz.I
	case format.Oiyx, format.Yxoi, format.Oyxi, format.Yxio,
		format.OsIyxOsv16, format.OsYxiSv16, format.YxoiO4, format.OyxiO16:
		fN, iN, yN, xN = sz.F, sz.I, sz.Y, sz.X
	case format.BsXsXsv8Bsv8, format.BsXBsv16:
		bN, xN = sz.B, sz.X
	default:
		bN, fN, yN, xN = sz.B, sz.F, sz.Y, sz.X
	}

	var out []format.Coords
	for b := 0; b < bN; b++ {
		for f2 := 0; f2 < fN; f2++ {
			for y := 0; y < yN; y++ {
				for x := 0; x < xN; x++ {
					for i := 0; i < iN; i++ {
						out = append(out, format.Coords{B: b, F: f2, Y: y, X: x, I: i})
					}
				}
			}
		}
	}
	return out
}

func domainSize(f format.Format, sz format.Sizes) int {
	switch f {
	case format.X:
		return sz.X
	case format.Xb, format.Bx:
		return sz.B * sz.X
	case format.IoI13, format.IoI2:
		return sz.F * sz.I
	case format.Oiyx, format.Yxoi, format.Oyxi, format.Yxio,
		format.OsIyxOsv16, format.OsYxiSv16, format.YxoiO4, format.OyxiO16:
		return sz.F * sz.I * sz.Y * sz.X
	case format.BsXsXsv8Bsv8, format.BsXBsv16:
		return sz.B * sz.X
	default:
		return sz.B * sz.F * sz.Y * sz.X
	}
}

// allFormats lists every registered format this test enumerates; kept
// explicit rather than ranging 0..FormatNum so a newly added format without
// a sizesFor/coordsFor case fails loudly instead of silently mis-sizing.
var allFormats = []format.Format{
	format.Yxfb, format.Byxf, format.Bfyx, format.Fyxb,
	format.YxfbF16, format.ByxfF16, format.BfyxF16, format.FyxbF16,
	format.ByxfB24,
	format.Oiyx, format.Yxoi, format.Oyxi, format.Yxio,
	format.OsIyxOsv16, format.YxoiO4, format.OsYxiSv16, format.OyxiO16,
	format.IoI13, format.IoI2,
	format.X, format.Xb, format.Bx,
	format.BsXsXsv8Bsv8, format.BsXBsv16,
}

// TestIndex_IsBijective verifies, for every registered format, that Index
// maps the format's coordinate domain injectively onto [0, domainSize).
func TestIndex_IsBijective(t *testing.T) {
	for _, f := range allFormats {
		f := f
		t.Run(f.String(), func(t *testing.T) {
			sz := sizesFor(f)
			want := domainSize(f, sz)
			seen := make(map[int]format.Coords, want)
			for _, c := range coordsFor(f, sz) {
				off, err := format.Index(f, sz, c)
				require.NoError(t, err)
				assert.GreaterOrEqual(t, off, 0)
				assert.Less(t, off, want)
				if prior, dup := seen[off]; dup {
					t.Fatalf("offset %d produced by both %+v and %+v", off, prior, c)
				}
				seen[off] = c
			}
			assert.Len(t, seen, want, "every offset in [0, %d) must be hit exactly once", want)
		})
	}
}

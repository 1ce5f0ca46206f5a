// Package format implements the memory-format catalog (spec §3, §4.3): a
// closed enumeration of physical tensor layouts, each with a coordinate ->
// offset indexer.
package format

import (
	"github.com/hyperifyio/nnrt/pkg/errs"
	"github.com/hyperifyio/nnrt/pkg/typeid"
)

// Format is a physical memory layout identifier.
type Format int

const (
	// Activation layouts over (batch, feature, y, x).
	Yxfb Format = iota
	Byxf
	Bfyx
	Fyxb
	YxfbF16
	ByxfF16
	BfyxF16
	FyxbF16
	ByxfB24
	BsYxfBv24

	// Weight layouts over (output_feature, input_feature, y, x).
	Oiyx
	Yxoi
	Oyxi
	Yxio
	OsIyxOsv16
	YxoiO4
	OsYxiSv16
	OyxiO16
	IoI13
	IoI2

	// Bias / 1-D layouts.
	X
	Xb
	Bx

	// Fully-connected weight tilings.
	BsXsXsv8Bsv8
	BsXBsv16

	// Sentinels.
	Any
	FormatNum
)

// Traits describes the static properties of one format.
type Traits struct {
	ElementType *typeid.Descriptor
	Dimensions  int // logical coordinate arity accepted by Index
}

var traits = map[Format]Traits{
	Yxfb:        {typeid.F32, 4},
	Byxf:        {typeid.F32, 4},
	Bfyx:        {typeid.F32, 4},
	Fyxb:        {typeid.F32, 4},
	YxfbF16:     {typeid.F16, 4},
	ByxfF16:     {typeid.F16, 4},
	BfyxF16:     {typeid.F16, 4},
	FyxbF16:     {typeid.F16, 4},
	ByxfB24:     {typeid.F32, 4},
	BsYxfBv24:   {typeid.F32, 4},
	Oiyx:        {typeid.F32, 4},
	Yxoi:        {typeid.F32, 4},
	Oyxi:        {typeid.F32, 4},
	Yxio:        {typeid.F32, 4},
	OsIyxOsv16:  {typeid.F32, 4},
	YxoiO4:      {typeid.F32, 4},
	OsYxiSv16:   {typeid.F32, 4},
	OyxiO16:     {typeid.F32, 4},
	IoI13:       {typeid.F32, 2},
	IoI2:        {typeid.F32, 2},
	X:           {typeid.F32, 1},
	Xb:          {typeid.F32, 2},
	Bx:          {typeid.F32, 2},
	BsXsXsv8Bsv8: {typeid.F32, 2},
	BsXBsv16:    {typeid.F32, 2},
}

// TraitsOf returns the static traits of f.
func TraitsOf(f Format) (Traits, bool) {
	t, ok := traits[f]
	return t, ok
}

// Sizes is a named accessor over the dimension sizes an indexer needs:
// B (batch), F (feature/output-feature), Y, X (spatial), and I
// (input-feature, for weight layouts). Unused fields are left zero.
type Sizes struct {
	B, F, Y, X, I int
}

// Coords mirrors Sizes: the coordinate being addressed.
type Coords struct {
	B, F, Y, X, I int
}

// Index computes the element offset for coords within a tensor of the given
// sizes stored in format f. Every registered format satisfies: the image of
// Index over the valid coordinate domain is exactly [0, product(sizes)).
func Index(f Format, sz Sizes, c Coords) (int, error) {
	switch f {
	case Yxfb:
		return c.B + sz.B*(c.F+sz.F*(c.X+sz.X*c.Y)), nil
	case Bfyx:
		return c.X + sz.X*(c.Y+sz.Y*(c.F+sz.F*c.B)), nil
	case Byxf:
		return c.F + sz.F*(c.X+sz.X*(c.Y+sz.Y*c.B)), nil
	case Fyxb:
		return c.B + sz.B*(c.X+sz.X*(c.Y+sz.Y*c.F)), nil
	case YxfbF16:
		return c.B + sz.B*(c.F+sz.F*(c.X+sz.X*c.Y)), nil
	case BfyxF16:
		return c.X + sz.X*(c.Y+sz.Y*(c.F+sz.F*c.B)), nil
	case ByxfF16:
		return c.F + sz.F*(c.X+sz.X*(c.Y+sz.Y*c.B)), nil
	case FyxbF16:
		return c.B + sz.B*(c.X+sz.X*(c.Y+sz.Y*c.F)), nil
	case Xb:
		return c.B + sz.B*c.X, nil
	case Bx:
		return c.X + sz.X*c.B, nil
	case X:
		return c.X, nil
	case ByxfB24:
		if sz.B%24 != 0 {
			return 0, errs.InvalidArg("sizes.B", "byxf_b24 requires batch divisible by 24, got %d", sz.B)
		}
		bTile, bIn := c.B/24, c.B%24
		return bIn + 24*(c.F+sz.F*(c.X+sz.X*(c.Y+sz.Y*bTile))), nil
	case YxoiO4:
		if sz.F%4 != 0 {
			return 0, errs.InvalidArg("sizes.F", "yxoi_o4 requires output-feature divisible by 4, got %d", sz.F)
		}
		oTile, oIn := c.F/4, c.F%4
		return oIn + 4*(c.I+sz.I*(c.X+sz.X*(c.Y+sz.Y*oTile))), nil
	case OyxiO16:
		if sz.F%16 != 0 {
			return 0, errs.InvalidArg("sizes.F", "oyxi_o16 requires output-feature divisible by 16, got %d", sz.F)
		}
		oTile, oIn := c.F/16, c.F%16
		return oIn + 16*(c.I+sz.I*(c.X+sz.X*(c.Y+sz.Y*oTile))), nil
	case Oiyx:
		if sz.B != 1 {
			return 0, errs.InvalidArg("sizes.B", "oiyx is weight-only, batch must be 1")
		}
		return c.X + sz.X*(c.Y+sz.Y*(c.I+sz.I*c.F)), nil
	case Yxoi:
		if sz.B != 1 {
			return 0, errs.InvalidArg("sizes.B", "yxoi is weight-only, batch must be 1")
		}
		return c.I + sz.I*(c.F+sz.F*(c.X+sz.X*c.Y)), nil
	case Oyxi:
		if sz.B != 1 {
			return 0, errs.InvalidArg("sizes.B", "oyxi is weight-only, batch must be 1")
		}
		return c.I + sz.I*(c.X+sz.X*(c.Y+sz.Y*c.F)), nil
	case Yxio:
		if sz.B != 1 {
			return 0, errs.InvalidArg("sizes.B", "yxio is weight-only, batch must be 1")
		}
		return c.F + sz.F*(c.I+sz.I*(c.X+sz.X*c.Y)), nil
	case OsIyxOsv16:
		if sz.B != 1 {
			return 0, errs.InvalidArg("sizes.B", "os_iyx_osv16 is weight-only, batch must be 1")
		}
		if sz.F%16 != 0 {
			return 0, errs.InvalidArg("sizes.F", "os_iyx_osv16 requires output-feature divisible by 16, got %d", sz.F)
		}
		oTile, oIn := c.F/16, c.F%16
		return oIn + 16*(c.X+sz.X*(c.Y+sz.Y*(c.I+sz.I*oTile))), nil
	case OsYxiSv16:
		if sz.B != 1 {
			return 0, errs.InvalidArg("sizes.B", "os_yxi_sv16 is weight-only, batch must be 1")
		}
		if sz.F%16 != 0 {
			return 0, errs.InvalidArg("sizes.F", "os_yxi_sv16 requires output-feature divisible by 16, got %d", sz.F)
		}
		oTile, oIn := c.F/16, c.F%16
		return oIn + 16*(c.I+sz.I*(c.X+sz.X*(c.Y+sz.Y*oTile))), nil
	case IoI13:
		return indexIoStride(sz, c, 13)
	case IoI2:
		return indexIoStride(sz, c, 2)
	case BsXsXsv8Bsv8:
		return indexFCTile(sz, c, 8, 8)
	case BsXBsv16:
		return indexFCTile(sz, c, 1, 16)
	default:
		return 0, errs.Invariant("format: no indexer registered for %v", f)
	}
}

// indexIoStride implements the io_iN interleaved-input-feature weight
// layouts: input-feature is tiled by stride, requiring output-feature to
// divide evenly by stride.
func indexIoStride(sz Sizes, c Coords, stride int) (int, error) {
	if sz.F%stride != 0 {
		return 0, errs.InvalidArg("sizes.F", "io interleave requires output-feature divisible by %d, got %d", stride, sz.F)
	}
	iTile, iIn := c.I/stride, c.I%stride
	return iIn + stride*(c.F+sz.F*iTile), nil
}

// indexFCTile implements the fully-connected weight tilings: batch tiled by
// bsv, x tiled by xsv (xsv=1 for bs_x_bsv16). Tiles are laid out
// contiguously in (bTile, xTile) order, each tile holding bsv*xsv elements
// in (bIn, xIn) order.
func indexFCTile(sz Sizes, c Coords, xsv, bsv int) (int, error) {
	if sz.B%bsv != 0 {
		return 0, errs.InvalidArg("sizes.B", "fc tiling requires batch divisible by %d, got %d", bsv, sz.B)
	}
	if sz.X%xsv != 0 {
		return 0, errs.InvalidArg("sizes.X", "fc tiling requires x divisible by %d, got %d", xsv, sz.X)
	}
	numBTiles := sz.B / bsv
	bTile, bIn := c.B/bsv, c.B%bsv
	xTile, xIn := c.X/xsv, c.X%xsv
	tileIndex := bTile + numBTiles*xTile
	return bIn + bsv*xIn + bsv*xsv*tileIndex, nil
}

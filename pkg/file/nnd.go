// Package file parses the .nnd weight-file format consumed by the `file`
// primitive (spec §6).
package file

import (
	"encoding/binary"
	"io"

	"github.com/hyperifyio/nnrt/pkg/errs"
	"github.com/hyperifyio/nnrt/pkg/format"
	"github.com/hyperifyio/nnrt/pkg/shape"
	"github.com/hyperifyio/nnrt/pkg/typeid"
)

const (
	magic          = "nnd"
	supportedVersion = 3
)

// DataType is the .nnd header's one-byte element-type code.
type DataType byte

const (
	DataTypeF32 DataType = 'F'
	DataTypeF16 DataType = 'H'
	DataTypeI8  DataType = 'b'
	DataTypeU8  DataType = 'B'
)

func (d DataType) descriptor() (*typeid.Descriptor, bool) {
	switch d {
	case DataTypeF32:
		return typeid.F32, true
	case DataTypeF16:
		return typeid.F16, true
	case DataTypeI8:
		return typeid.I8, true
	case DataTypeU8:
		return typeid.U8, true
	default:
		return nil, false
	}
}

// Header is the parsed fixed + extended .nnd header.
type Header struct {
	DataType   DataType
	Version    byte
	Dimension  byte
	SizeofValue byte
	Layout     byte
	Sizes      []uint64
}

// Weights is a fully parsed .nnd file: its header, the shape it implies,
// and the raw element bytes.
type Weights struct {
	Header Header
	Shape  shape.Shape
	Format format.Format
	Data   []byte
}

// Parse reads one .nnd file from r (spec §6's wire layout).
func Parse(r io.Reader) (*Weights, error) {
	var fixed [8]byte
	if _, err := io.ReadFull(r, fixed[:]); err != nil {
		return nil, errs.IO("reading .nnd header: %v", err)
	}
	if string(fixed[0:3]) != magic {
		return nil, errs.IO("bad .nnd magic %q", fixed[0:3])
	}
	dt := DataType(fixed[3])
	desc, ok := dt.descriptor()
	if !ok {
		return nil, errs.IO(".nnd: unknown data_type %q", fixed[3])
	}
	version := fixed[4]
	if version != supportedVersion {
		return nil, errs.IO(".nnd: unsupported version %d", version)
	}
	dimension := fixed[5]
	if dimension < 1 || dimension > 4 {
		return nil, errs.IO(".nnd: unsupported dimension %d", dimension)
	}
	sizeofValue := fixed[6]
	if int(sizeofValue) != desc.ByteSize {
		return nil, errs.IO(".nnd: sizeof_value %d does not match data_type %q", sizeofValue, fixed[3])
	}
	layout := fixed[7]

	sizes := make([]uint64, dimension)
	for i := range sizes {
		var buf [8]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return nil, errs.IO(".nnd: truncated size table: %v", err)
		}
		sizes[i] = binary.LittleEndian.Uint64(buf[:])
	}

	elementCount := uint64(1)
	for _, s := range sizes {
		elementCount *= s
	}
	data := make([]byte, elementCount*uint64(desc.ByteSize))
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, errs.IO(".nnd: truncated payload: %v", err)
	}

	h := Header{DataType: dt, Version: version, Dimension: dimension, SizeofValue: sizeofValue, Layout: layout, Sizes: sizes}

	var sh shape.Shape
	var f format.Format
	switch dimension {
	case 3:
		sh = shape.New(1, int(sizes[2]), int(sizes[0]), int(sizes[1]))
		f = format.Bfyx
	case 4:
		sh = shape.New(int(sizes[0]), int(sizes[1]), int(sizes[2]), int(sizes[3]))
		f = format.Bfyx
	case 2:
		sh = shape.New(1, 1, int(sizes[0]), int(sizes[1]))
		f = format.Bx
	default: // 1
		sh = shape.New(1, 1, int(sizes[0]))
		f = format.X
	}
	// The layout byte round-trips whatever format SerializeTrain wrote; a
	// recognized layout overrides the dimension-implied default so writing
	// and reading the same buffer reproduces its physical format exactly.
	if _, ok := format.TraitsOf(format.Format(layout)); ok {
		f = format.Format(layout)
	}

	return &Weights{Header: h, Shape: sh, Format: f, Data: data}, nil
}

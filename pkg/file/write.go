package file

import (
	"encoding/binary"
	"io"

	"github.com/hyperifyio/nnrt/pkg/errs"
	"github.com/hyperifyio/nnrt/pkg/format"
	"github.com/hyperifyio/nnrt/pkg/memory"
)

// SerializeTrain writes buf out in .nnd format. The layout byte comes from
// buf's actual format (spec §9 flags the source's hard-coded-layout bug;
// this port takes the layout from the buffer it is actually serializing).
func SerializeTrain(w io.Writer, buf *memory.Buffer, dt DataType) error {
	desc, ok := dt.descriptor()
	if !ok {
		return errs.InvalidArg("dt", "unknown data_type %q", byte(dt))
	}
	sizes := buf.Args().Shape.Flat()
	if len(sizes) < 1 || len(sizes) > 4 {
		return errs.InvalidArg("buf", "unsupported dimension %d", len(sizes))
	}

	header := []byte{
		'n', 'n', 'd',
		byte(dt),
		supportedVersion,
		byte(len(sizes)),
		byte(desc.ByteSize),
		layoutCode(buf.Args().Format),
	}
	if _, err := w.Write(header); err != nil {
		return errs.IO("writing .nnd header: %v", err)
	}
	for _, s := range sizes {
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], uint64(s))
		if _, err := w.Write(b[:]); err != nil {
			return errs.IO("writing .nnd size table: %v", err)
		}
	}

	data, err := buf.Lock()
	if err != nil {
		return err
	}
	defer buf.Release()
	if _, err := w.Write(data); err != nil {
		return errs.IO("writing .nnd payload: %v", err)
	}
	return nil
}

func layoutCode(f format.Format) byte { return byte(f) }

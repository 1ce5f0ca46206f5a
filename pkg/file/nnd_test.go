package file_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperifyio/nnrt/pkg/file"
	"github.com/hyperifyio/nnrt/pkg/format"
	"github.com/hyperifyio/nnrt/pkg/memory"
	"github.com/hyperifyio/nnrt/pkg/shape"
)

func TestSerializeTrain_Parse_RoundTrip(t *testing.T) {
	sh := shape.New(1, 2, 2, 2)
	buf, err := memory.Allocate(memory.Args{Shape: sh, Format: format.Byxf, Engine: "cpu"})
	require.NoError(t, err)

	raw, err := buf.Lock()
	require.NoError(t, err)
	for i := range raw {
		raw[i] = byte(i)
	}
	require.NoError(t, buf.Release())

	var out bytes.Buffer
	require.NoError(t, file.SerializeTrain(&out, buf, file.DataTypeF32))

	w, err := file.Parse(&out)
	require.NoError(t, err)

	assert.Equal(t, format.Byxf, w.Format)
	assert.True(t, shape.Equal(sh, w.Shape))
	orig, err := buf.Lock()
	require.NoError(t, err)
	defer buf.Release()
	assert.Equal(t, orig, w.Data)
}

func TestParse_RejectsBadMagic(t *testing.T) {
	_, err := file.Parse(bytes.NewReader([]byte("not-an-nnd-file-at-all")))
	assert.Error(t, err)
}

func TestParse_RejectsUnsupportedVersion(t *testing.T) {
	header := []byte{'n', 'n', 'd', byte(file.DataTypeF32), 99, 1, 4, 0}
	_, err := file.Parse(bytes.NewReader(header))
	assert.Error(t, err)
}

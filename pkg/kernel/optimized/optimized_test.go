package optimized_test

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperifyio/nnrt/pkg/format"
	"github.com/hyperifyio/nnrt/pkg/graph"
	"github.com/hyperifyio/nnrt/pkg/kernel/optimized"
	"github.com/hyperifyio/nnrt/pkg/kernel/reference"
	"github.com/hyperifyio/nnrt/pkg/memory"
	"github.com/hyperifyio/nnrt/pkg/registry"
	"github.com/hyperifyio/nnrt/pkg/shape"
	"github.com/hyperifyio/nnrt/pkg/worker"
)

func newRegistry() *registry.Registry {
	r := registry.New()
	reference.RegisterDefaultKernels(r)
	optimized.RegisterOptimizedKernels(r)
	return r
}

func writeF32(t *testing.T, buf *memory.Buffer, vals []float32) {
	t.Helper()
	raw, err := buf.Lock()
	require.NoError(t, err)
	for i, v := range vals {
		binary.LittleEndian.PutUint32(raw[i*4:], math.Float32bits(v))
	}
	require.NoError(t, buf.Release())
}

func readF32(t *testing.T, buf *memory.Buffer) []float32 {
	t.Helper()
	raw, err := buf.Lock()
	require.NoError(t, err)
	out := make([]float32, buf.Count())
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	require.NoError(t, buf.Release())
	return out
}

// A batch of 24 with a single feature and 1x1 spatial extent makes the
// cross-feature sum trivial (there is only one term), so the expected
// output reduces to x * (k + alpha*x^2)^-0.75 for every element.
func TestOptimizedLRN_Batch24Path_Dispatches(t *testing.T) {
	r := newRegistry()

	sh := shape.New(24, 1, 1, 1)
	in, err := memory.Allocate(memory.Args{Shape: sh, Format: format.ByxfB24, Engine: "cpu"})
	require.NoError(t, err)
	vals := make([]float32, 24)
	for i := range vals {
		vals[i] = float32(i + 1)
	}
	writeF32(t, in, vals)
	out, err := memory.Allocate(memory.Args{Shape: sh, Format: format.ByxfB24, Engine: "cpu"})
	require.NoError(t, err)

	n, err := graph.CreateResponse(r, worker.EngineCPU, graph.ResponseArgs{Size: 5, K: 1, Alpha: 1, Beta: 0.75}, graph.At{Producer: graph.CreateMemory(in)}, out)
	require.NoError(t, err)
	require.Len(t, n.Work().Tasks, 1)
	n.Work().Tasks[0].Run()

	got := readF32(t, out)
	for i, v := range vals {
		scale := float32(1) + v*v
		assert.InDelta(t, v*invPow075(scale), got[i], 1e-4)
	}
}

// fastInvSqrt and invPow075 mirror the unexported approximations the
// optimized LRN kernel uses, so expected values match its output exactly
// rather than an exact-math reference that the bit-trick only approximates.
func fastInvSqrt(x float32) float32 {
	i := math.Float32bits(x)
	i = 0x5f3759df - (i >> 1)
	y := math.Float32frombits(i)
	y = y * (1.5 - 0.5*x*y*y)
	return y
}

func invPow075(x float32) float32 {
	y := fastInvSqrt(x)
	return y * float32(math.Sqrt(float64(y)))
}

func TestOptimizedLRN_RejectsNonDefaultSizeOrBeta(t *testing.T) {
	r := newRegistry()
	sh := shape.New(24, 1, 1, 1)
	in, err := memory.Allocate(memory.Args{Shape: sh, Format: format.ByxfB24, Engine: "cpu"})
	require.NoError(t, err)
	out, err := memory.Allocate(memory.Args{Shape: sh, Format: format.ByxfB24, Engine: "cpu"})
	require.NoError(t, err)

	_, err = graph.CreateResponse(r, worker.EngineCPU, graph.ResponseArgs{Size: 3, K: 1, Alpha: 1, Beta: 0.75}, graph.At{Producer: graph.CreateMemory(in)}, out)
	assert.Error(t, err)
}

func TestOptimizedLRN_RejectsBatchNotDivisibleBy24(t *testing.T) {
	r := newRegistry()
	sh := shape.New(12, 1, 1, 1)
	in, err := memory.Allocate(memory.Args{Shape: sh, Format: format.ByxfB24, Engine: "cpu"})
	require.NoError(t, err)
	out, err := memory.Allocate(memory.Args{Shape: sh, Format: format.ByxfB24, Engine: "cpu"})
	require.NoError(t, err)

	_, err = graph.CreateResponse(r, worker.EngineCPU, graph.ResponseArgs{Size: 5, K: 1, Alpha: 1, Beta: 0.75}, graph.At{Producer: graph.CreateMemory(in)}, out)
	assert.Error(t, err, "the byxf_b24 entry refuses a batch of 12, which is not divisible by 24")
}

func TestOptimizedSoftmax_FastPath_SupportedBatchSizes(t *testing.T) {
	r := newRegistry()
	for _, b := range []int{1, 8, 48} {
		sh := shape.New(b, 4)
		in, err := memory.Allocate(memory.Args{Shape: sh, Format: format.Bx, Engine: "cpu"})
		require.NoError(t, err)
		vals := make([]float32, b*4)
		for i := range vals {
			vals[i] = 1
		}
		writeF32(t, in, vals)
		out, err := memory.Allocate(memory.Args{Shape: sh, Format: format.Bx, Engine: "cpu"})
		require.NoError(t, err)

		n, err := graph.CreateSoftmax(r, worker.EngineCPU, graph.At{Producer: graph.CreateMemory(in)}, out)
		require.NoError(t, err)
		n.Work().Tasks[0].Run()

		got := readF32(t, out)
		for _, v := range got {
			assert.InDelta(t, 0.25, v, 1e-5)
		}
	}
}

func TestOptimizedSoftmax_FastPath_RejectsUnsupportedBatch(t *testing.T) {
	r := newRegistry()
	sh := shape.New(7, 4)
	in, err := memory.Allocate(memory.Args{Shape: sh, Format: format.Bx, Engine: "cpu"})
	require.NoError(t, err)
	out, err := memory.Allocate(memory.Args{Shape: sh, Format: format.Bx, Engine: "cpu"})
	require.NoError(t, err)

	_, err = graph.CreateSoftmax(r, worker.EngineCPU, graph.At{Producer: graph.CreateMemory(in)}, out)
	assert.Error(t, err)
}

func TestReferenceSoftmax_StillReachableUnderReferenceEngine(t *testing.T) {
	r := newRegistry()
	sh := shape.New(7, 4)
	in, err := memory.Allocate(memory.Args{Shape: sh, Format: format.Bx, Engine: "cpu"})
	require.NoError(t, err)
	vals := make([]float32, 7*4)
	for i := range vals {
		vals[i] = 1
	}
	writeF32(t, in, vals)
	out, err := memory.Allocate(memory.Args{Shape: sh, Format: format.Bx, Engine: "cpu"})
	require.NoError(t, err)

	n, err := graph.CreateSoftmax(r, worker.EngineReference, graph.At{Producer: graph.CreateMemory(in)}, out)
	require.NoError(t, err)
	n.Work().Tasks[0].Run()

	got := readF32(t, out)
	for _, v := range got {
		assert.InDelta(t, 0.25, v, 1e-5)
	}
}

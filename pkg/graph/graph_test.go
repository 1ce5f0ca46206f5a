package graph_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperifyio/nnrt/pkg/format"
	"github.com/hyperifyio/nnrt/pkg/graph"
	"github.com/hyperifyio/nnrt/pkg/kernel/reference"
	"github.com/hyperifyio/nnrt/pkg/memory"
	"github.com/hyperifyio/nnrt/pkg/registry"
	"github.com/hyperifyio/nnrt/pkg/shape"
	"github.com/hyperifyio/nnrt/pkg/worker"
)

func newRegistry() *registry.Registry {
	r := registry.New()
	reference.RegisterDefaultKernels(r)
	return r
}

func allocBfyx(t *testing.T, sh shape.Shape) *memory.Buffer {
	t.Helper()
	buf, err := memory.Allocate(memory.Args{Shape: sh, Format: format.Bfyx, Engine: "cpu"})
	require.NoError(t, err)
	return buf
}

func TestCreateRelu_RequiresBoundInput(t *testing.T) {
	r := newRegistry()
	out := allocBfyx(t, shape.New(1, 1, 1, 2))
	_, err := graph.CreateRelu(r, worker.EngineReference, graph.ReluArgs{}, graph.At{}, out)
	assert.Error(t, err)
}

func TestCreateRelu_RejectsShapeMismatch(t *testing.T) {
	r := newRegistry()
	in := allocBfyx(t, shape.New(1, 1, 1, 2))
	out := allocBfyx(t, shape.New(1, 1, 1, 3))
	mem := graph.CreateMemory(in)

	_, err := graph.CreateRelu(r, worker.EngineReference, graph.ReluArgs{}, graph.At{Producer: mem}, out)
	assert.Error(t, err)
}

func TestCreateRelu_EagerEngineInstantiatesWork(t *testing.T) {
	r := newRegistry()
	in := allocBfyx(t, shape.New(1, 1, 1, 2))
	out := allocBfyx(t, shape.New(1, 1, 1, 2))
	mem := graph.CreateMemory(in)

	n, err := graph.CreateRelu(r, worker.EngineReference, graph.ReluArgs{}, graph.At{Producer: mem}, out)
	require.NoError(t, err)
	assert.NotEmpty(t, n.Work().Tasks)
	assert.NotNil(t, n.Impl())

	name, ok := graph.Attr[string](n, "name")
	assert.True(t, ok)
	assert.Equal(t, "primitive.relu", name)
}

func TestCreateRelu_LazyEngineDefersWork(t *testing.T) {
	r := newRegistry()
	in := allocBfyx(t, shape.New(1, 1, 1, 2))
	out := allocBfyx(t, shape.New(1, 1, 1, 2))
	mem := graph.CreateMemory(in)

	n, err := graph.CreateRelu(r, worker.EngineReference|worker.EngineLazy, graph.ReluArgs{}, graph.At{Producer: mem}, out)
	require.NoError(t, err)
	assert.Empty(t, n.Work().Tasks)
	assert.Nil(t, n.Impl())
}

func TestCreatePooling_RejectsNonPositiveWindow(t *testing.T) {
	r := newRegistry()
	in := allocBfyx(t, shape.New(1, 1, 3, 3))
	out := allocBfyx(t, shape.New(1, 1, 1, 1))
	mem := graph.CreateMemory(in)

	_, err := graph.CreatePooling(r, worker.EngineReference, graph.PoolingArgs{
		Window: [2]int{0, 3},
		Stride: [2]int{1, 1},
	}, graph.At{Producer: mem}, out)
	assert.Error(t, err)
}

func TestCreatePooling_RejectsFeatureMismatch(t *testing.T) {
	r := newRegistry()
	in := allocBfyx(t, shape.New(1, 2, 3, 3))
	out := allocBfyx(t, shape.New(1, 1, 1, 1))
	mem := graph.CreateMemory(in)

	_, err := graph.CreatePooling(r, worker.EngineReference, graph.PoolingArgs{
		Window: [2]int{3, 3},
		Stride: [2]int{1, 1},
	}, graph.At{Producer: mem}, out)
	assert.Error(t, err)
}

func TestCreateDepthConcatenate_RequiresAtLeastOneInput(t *testing.T) {
	r := newRegistry()
	out := allocBfyx(t, shape.New(1, 1, 1, 1))
	_, err := graph.CreateDepthConcatenate(r, worker.EngineReference, nil, out)
	assert.Error(t, err)
}

func TestCreateDepthConcatenate_RejectsFormatMismatch(t *testing.T) {
	r := newRegistry()
	a, err := memory.Allocate(memory.Args{Shape: shape.New(1, 1, 1, 2), Format: format.Bfyx, Engine: "cpu"})
	require.NoError(t, err)
	b, err := memory.Allocate(memory.Args{Shape: shape.New(1, 1, 1, 2), Format: format.Byxf, Engine: "cpu"})
	require.NoError(t, err)
	out := allocBfyx(t, shape.New(1, 2, 1, 2))

	_, err = graph.CreateDepthConcatenate(r, worker.EngineReference, []graph.At{
		{Producer: graph.CreateMemory(a)},
		{Producer: graph.CreateMemory(b)},
	}, out)
	assert.Error(t, err)
}

func TestCreateDepthConcatenate_RejectsOutputFeatureMismatch(t *testing.T) {
	r := newRegistry()
	a := allocBfyx(t, shape.New(1, 1, 1, 2))
	b := allocBfyx(t, shape.New(1, 1, 1, 2))
	out := allocBfyx(t, shape.New(1, 3, 1, 2))

	_, err := graph.CreateDepthConcatenate(r, worker.EngineReference, []graph.At{
		{Producer: graph.CreateMemory(a)},
		{Producer: graph.CreateMemory(b)},
	}, out)
	assert.Error(t, err)
}

func TestCreateDepthConcatenate_SucceedsOnMatchingInputs(t *testing.T) {
	r := newRegistry()
	a := allocBfyx(t, shape.New(1, 1, 1, 2))
	b := allocBfyx(t, shape.New(1, 1, 1, 2))
	out := allocBfyx(t, shape.New(1, 2, 1, 2))

	n, err := graph.CreateDepthConcatenate(r, worker.EngineReference, []graph.At{
		{Producer: graph.CreateMemory(a)},
		{Producer: graph.CreateMemory(b)},
	}, out)
	require.NoError(t, err)
	assert.NotEmpty(t, n.Work().Tasks)
}

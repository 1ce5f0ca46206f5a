package registry_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperifyio/nnrt/pkg/format"
	"github.com/hyperifyio/nnrt/pkg/registry"
	"github.com/hyperifyio/nnrt/pkg/task"
)

type stubImpl struct{ label string }

func (s stubImpl) TaskGroup() task.Group {
	return task.NewGroup(task.Single, task.New(s.label, func() {}))
}

func factoryFor(label string) registry.Factory {
	return func(registry.Invocation) (registry.Impl, error) { return stubImpl{label: label}, nil }
}

func TestRegistry_LookupExactKey(t *testing.T) {
	r := registry.New()
	key := registry.Key{Engine: "reference", InFormat: format.Bfyx, OutFormat: format.Bfyx}
	r.Register("relu", key, factoryFor("relu-ref"), registry.Attrs{})

	f, err := r.Lookup("relu", key)
	require.NoError(t, err)
	impl, err := f(registry.Invocation{})
	require.NoError(t, err)
	assert.Equal(t, "relu-ref", impl.(stubImpl).label)
}

func TestRegistry_LookupUnknownKind_Errors(t *testing.T) {
	r := registry.New()
	_, err := r.Lookup("relu", registry.Key{Engine: "reference"})
	assert.Error(t, err)
}

func TestRegistry_LookupUnknownKey_Errors(t *testing.T) {
	r := registry.New()
	r.Register("relu", registry.Key{Engine: "reference"}, factoryFor("relu-ref"), registry.Attrs{})
	_, err := r.Lookup("relu", registry.Key{Engine: "cpu"})
	assert.Error(t, err)
}

func TestRegistry_Register_LastRegistrationWins(t *testing.T) {
	r := registry.New()
	key := registry.Key{Engine: "cpu", InFormat: format.Bfyx, OutFormat: format.Bfyx}
	r.Register("relu", key, factoryFor("first"), registry.Attrs{})
	r.Register("relu", key, factoryFor("second"), registry.Attrs{})

	f, err := r.Lookup("relu", key)
	require.NoError(t, err)
	impl, err := f(registry.Invocation{})
	require.NoError(t, err)
	assert.Equal(t, "second", impl.(stubImpl).label)
}

func TestRegistry_Lookup_AnyEngine_SearchesReferenceThenCpuThenGpu(t *testing.T) {
	r := registry.New()
	cpuKey := registry.Key{Engine: "cpu", InFormat: format.Bfyx, OutFormat: format.Bfyx}
	gpuKey := registry.Key{Engine: "gpu", InFormat: format.Bfyx, OutFormat: format.Bfyx}
	r.Register("relu", gpuKey, factoryFor("gpu"), registry.Attrs{})
	r.Register("relu", cpuKey, factoryFor("cpu"), registry.Attrs{})

	f, err := r.Lookup("relu", registry.Key{Engine: "any", InFormat: format.Bfyx, OutFormat: format.Bfyx})
	require.NoError(t, err)
	impl, err := f(registry.Invocation{})
	require.NoError(t, err)
	assert.Equal(t, "cpu", impl.(stubImpl).label, "cpu registered but no reference entry: any-engine search should pick cpu before gpu")

	refKey := registry.Key{Engine: "reference", InFormat: format.Bfyx, OutFormat: format.Bfyx}
	r.Register("relu", refKey, factoryFor("reference"), registry.Attrs{})
	f, err = r.Lookup("relu", registry.Key{Engine: "any", InFormat: format.Bfyx, OutFormat: format.Bfyx})
	require.NoError(t, err)
	impl, err = f(registry.Invocation{})
	require.NoError(t, err)
	assert.Equal(t, "reference", impl.(stubImpl).label, "once a reference entry exists, any-engine search prefers it")
}

func TestRegistry_Query_FiltersByEngineAndFormats(t *testing.T) {
	r := registry.New()
	k1 := registry.Key{Engine: "reference", InFormat: format.Bfyx, OutFormat: format.Bfyx}
	k2 := registry.Key{Engine: "cpu", InFormat: format.Bfyx, OutFormat: format.Bfyx}
	k3 := registry.Key{Engine: "reference", InFormat: format.Byxf, OutFormat: format.Byxf}
	r.Register("relu", k1, factoryFor("a"), registry.Attrs{EstimatedTimeNanos: 10})
	r.Register("relu", k2, factoryFor("b"), registry.Attrs{EstimatedTimeNanos: 20})
	r.Register("relu", k3, factoryFor("c"), registry.Attrs{EstimatedTimeNanos: 30})

	exact := r.Query("relu", k1)
	require.Len(t, exact, 1)
	assert.Equal(t, k1, exact[0].Key)

	any := r.Query("relu", registry.Key{Engine: "any", InFormat: format.Bfyx, OutFormat: format.Bfyx})
	assert.Len(t, any, 2)

	assert.Nil(t, r.Query("pooling", k1))
}

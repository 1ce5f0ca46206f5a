package typeid_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hyperifyio/nnrt/pkg/typeid"
)

func TestRegister_InternsByName(t *testing.T) {
	a := typeid.Register("typeid_test.widget", 4, true)
	b := typeid.Register("typeid_test.widget", 8, false)

	assert.Same(t, a, b, "a second Register call for the same name must return the identical pointer")
	assert.Equal(t, 4, a.ByteSize, "the first registration's fields win over a later call's")
	assert.True(t, a.IsFloat)
}

func TestRegister_DistinctNamesGetDistinctDescriptors(t *testing.T) {
	a := typeid.Register("typeid_test.alpha", 4, true)
	b := typeid.Register("typeid_test.beta", 4, true)

	assert.NotSame(t, a, b)
	assert.NotEqual(t, a.ID(), b.ID())
}

func TestRegister_IDsAreStableAcrossLookups(t *testing.T) {
	first := typeid.Register("typeid_test.gamma", 2, false)
	id := first.ID()
	second := typeid.Register("typeid_test.gamma", 2, false)
	assert.Equal(t, id, second.ID())
}

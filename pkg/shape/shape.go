// Package shape implements the tensor shape ("vector" in spec terms): a flat
// sequence of non-negative integers partitioned into batch/feature/spatial
// sub-ranges (spec §3, §4.2).
package shape

// Shape is a value type, but sizes is a slice header: copying a Shape
// shares the same backing array, so SetAt on one copy is visible through
// every other copy. Callers that need an independent sequence should copy
// Flat()'s result, not the Shape itself.
type Shape struct {
	sizes []int
	// [batchBegin, batchEnd), [featureBegin, featureEnd), [spatialBegin, spatialEnd)
	batchBegin, batchEnd     int
	featureBegin, featureEnd int
	spatialBegin, spatialEnd int
}

// New builds a Shape from a scalar batch, a scalar feature, and zero or
// more spatial sizes, laid out flat as [batch, feature, spatial...].
func New(batch, feature int, spatial ...int) Shape {
	sizes := make([]int, 0, 2+len(spatial))
	sizes = append(sizes, batch, feature)
	sizes = append(sizes, spatial...)
	return Shape{
		sizes:        sizes,
		batchBegin:   0,
		batchEnd:     1,
		featureBegin: 1,
		featureEnd:   2,
		spatialBegin: 2,
		spatialEnd:   2 + len(spatial),
	}
}

// Flat returns a copy of the flattened size sequence.
func (s Shape) Flat() []int {
	out := make([]int, len(s.sizes))
	copy(out, s.sizes)
	return out
}

// Batch returns the batch sub-range values.
func (s Shape) Batch() []int { return s.sizes[s.batchBegin:s.batchEnd] }

// Feature returns the feature sub-range values.
func (s Shape) Feature() []int { return s.sizes[s.featureBegin:s.featureEnd] }

// Spatial returns the spatial sub-range values.
func (s Shape) Spatial() []int { return s.sizes[s.spatialBegin:s.spatialEnd] }

// BatchSize is the scalar batch size (product of the batch sub-range; in
// practice always length 1).
func (s Shape) BatchSize() int { return product(s.Batch()) }

// FeatureSize is the scalar feature count.
func (s Shape) FeatureSize() int { return product(s.Feature()) }

// SpatialSizes returns the 1-3 spatial dimension sizes, in order (y, x, ...).
func (s Shape) SpatialSizes() []int { return s.Spatial() }

// Count is the total element count: product of the whole flat sequence.
func (s Shape) Count() int { return product(s.sizes) }

// SetAt mutates the flat sequence in place at index i. Mutating the flat
// sequence mutates whichever sub-range contains i.
func (s *Shape) SetAt(i, v int) { s.sizes[i] = v }

// At returns the flat sequence value at index i.
func (s Shape) At(i int) int { return s.sizes[i] }

// Len is the flat sequence length.
func (s Shape) Len() int { return len(s.sizes) }

// Equal compares two shapes position-wise on the flattened sequence only;
// sub-range partition boundaries are not part of equality.
func Equal(a, b Shape) bool {
	if len(a.sizes) != len(b.sizes) {
		return false
	}
	for i := range a.sizes {
		if a.sizes[i] != b.sizes[i] {
			return false
		}
	}
	return true
}

func product(vs []int) int {
	p := 1
	for _, v := range vs {
		p *= v
	}
	return p
}

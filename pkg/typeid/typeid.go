// Package typeid gives tensor element types a stable runtime identity
// without language RTTI (spec §4.1). The first lookup for a given name
// allocates a Descriptor and interns it; every later lookup for the same
// name returns the identical pointer.
package typeid

import "sync"

// Descriptor is a process-wide record for one element type. Two descriptors
// compare equal iff their Name is equal; callers should compare the pointer
// (interning guarantees identity) rather than the struct value.
type Descriptor struct {
	id       uint64
	Name     string
	ByteSize int
	IsFloat  bool
}

// ID returns the descriptor's stable id. IDs are assigned in registration
// order and are never reused within a process.
func (d *Descriptor) ID() uint64 { return d.id }

var (
	mu      sync.Mutex
	byName  = make(map[string]*Descriptor)
	nextID  uint64
)

// Register interns a Descriptor for name, returning the existing one if
// name was already registered (ByteSize/IsFloat from the first call win).
func Register(name string, byteSize int, isFloat bool) *Descriptor {
	mu.Lock()
	defer mu.Unlock()
	if d, ok := byName[name]; ok {
		return d
	}
	d := &Descriptor{id: nextID, Name: name, ByteSize: byteSize, IsFloat: isFloat}
	nextID++
	byName[name] = d
	return d
}

// Lookup returns the descriptor registered under name, if any.
func Lookup(name string) (*Descriptor, bool) {
	mu.Lock()
	defer mu.Unlock()
	d, ok := byName[name]
	return d, ok
}

// Well-known element types. Registered eagerly so the .nnd loader (spec §6)
// never has to special-case a missing descriptor for any of its four
// data_type codes.
var (
	F32 = Register("f32", 4, true)
	F16 = Register("f16", 2, true)
	I8  = Register("i8", 1, false)
	U8  = Register("u8", 1, false)
)

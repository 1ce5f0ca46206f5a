// Package memory implements the owned-or-externally-bound contiguous
// storage buffer described in spec §4.4, with lock/release reference
// counting.
package memory

import (
	"sync"
	"sync/atomic"

	"github.com/hyperifyio/nnrt/pkg/errs"
	"github.com/hyperifyio/nnrt/pkg/format"
	"github.com/hyperifyio/nnrt/pkg/shape"
)

// Allocator obtains raw storage for one engine. CPU allocation
// is the default; a GPU worker may register a device-specific allocator
// under its own engine name.
type Allocator interface {
	Alloc(size int) ([]byte, error)
}

type hostAllocator struct{}

func (hostAllocator) Alloc(size int) ([]byte, error) {
	if size < 0 {
		return nil, errs.InvalidArg("size", "negative allocation size %d", size)
	}
	return make([]byte, size), nil
}

var (
	allocMu    sync.Mutex
	allocators = map[string]Allocator{"cpu": hostAllocator{}, "reference": hostAllocator{}}
)

// RegisterAllocator installs the allocator used for engine. Last
// registration for a given engine name wins, mirroring the implementation
// registry's override rule (spec §4.6).
func RegisterAllocator(engine string, a Allocator) {
	allocMu.Lock()
	defer allocMu.Unlock()
	allocators[engine] = a
}

func allocatorFor(engine string) Allocator {
	allocMu.Lock()
	defer allocMu.Unlock()
	if a, ok := allocators[engine]; ok {
		return a
	}
	return hostAllocator{}
}

// Args describes the tensor a Buffer stores: its logical shape, physical
// format, and the engine whose allocator owns the storage.
type Args struct {
	Shape  shape.Shape
	Format format.Format
	Engine string
}

// SizeOf returns the byte size implied by args: the element count times the
// format's element byte size.
func SizeOf(args Args) (int, error) {
	t, ok := format.TraitsOf(args.Format)
	if !ok {
		return 0, errs.InvalidArg("format", "unknown format %v", args.Format)
	}
	return args.Shape.Count() * t.ElementType.ByteSize, nil
}

// Buffer is a value object wrapping reference-counted or externally bound
// storage. The zero value is not usable; construct with Describe or
// Allocate.
type Buffer struct {
	args Args
	size int

	mu       sync.Mutex
	storage  []byte // nil until allocated/bound
	external bool
	locks    int32
}

// Describe creates a buffer with no storage; it must be Reset with an
// external pointer before any primitive reads or writes it.
func Describe(args Args) (*Buffer, error) {
	size, err := SizeOf(args)
	if err != nil {
		return nil, err
	}
	return &Buffer{args: args, size: size}, nil
}

// Allocate creates a buffer with storage obtained from args.Engine's
// allocator.
func Allocate(args Args) (*Buffer, error) {
	size, err := SizeOf(args)
	if err != nil {
		return nil, err
	}
	data, err := allocatorFor(args.Engine).Alloc(size)
	if err != nil {
		return nil, errs.OOM("allocate %d bytes for engine %q: %v", size, args.Engine, err)
	}
	return &Buffer{args: args, size: size, storage: data}, nil
}

// Args returns the buffer's construction arguments.
func (b *Buffer) Args() Args { return b.args }

// Size is the storage size in bytes.
func (b *Buffer) Size() int { return b.size }

// Count is the element count (product of shape sizes, never including
// padding).
func (b *Buffer) Count() int { return b.args.Shape.Count() }

// Reset replaces the storage with an externally owned byte slice. The
// caller is responsible for the slice's lifetime: it must outlive any
// in-flight task touching this buffer, across execute calls.
func (b *Buffer) Reset(p []byte) error {
	if len(p) < b.size {
		return errs.InvalidArg("p", "external buffer too small: have %d need %d", len(p), b.size)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.storage = p
	b.external = true
	return nil
}

// Lock increments the lock count and returns a writable view over the
// storage, on every call. Buffers with no storage cannot be locked.
func (b *Buffer) Lock() ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.storage == nil {
		return nil, errs.InvalidArg("storage", "buffer has no storage bound; call Reset or use Allocate")
	}
	atomic.AddInt32(&b.locks, 1)
	return b.storage[:b.size], nil
}

// Release decrements the lock count; on a 1->0 transition the returned view
// from Lock must no longer be used.
func (b *Buffer) Release() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.locks == 0 {
		return errs.Invariant("memory: Release called with no outstanding lock")
	}
	atomic.AddInt32(&b.locks, -1)
	return nil
}

// LockCount reports the current lock count, mostly for tests.
func (b *Buffer) LockCount() int32 { return atomic.LoadInt32(&b.locks) }

// IsExternal reports whether storage came from Reset rather than Allocate.
func (b *Buffer) IsExternal() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.external
}

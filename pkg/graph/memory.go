package graph

import "github.com/hyperifyio/nnrt/pkg/memory"

// MemoryArgs wraps a pre-built buffer as a leaf graph node.
type MemoryArgs struct {
	Buffer *memory.Buffer
}

// CreateMemory wraps buf as a zero-input, single-output leaf node. Memory
// nodes never dispatch through the implementation registry — they carry no
// computation, only storage.
func CreateMemory(buf *memory.Buffer) *Node {
	return &Node{
		kind:     KindMemory,
		argument: MemoryArgs{Buffer: buf},
		outputs:  []*memory.Buffer{buf},
		attrs: map[string]interface{}{
			"name":   "memory",
			"inputs": uint32(0),
		},
	}
}

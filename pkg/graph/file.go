package graph

import (
	"os"

	nnd "github.com/hyperifyio/nnrt/pkg/file"
	"github.com/hyperifyio/nnrt/pkg/memory"
)

// FileArgs names the .nnd weight file a `file` primitive loads.
type FileArgs struct {
	Path string
}

// CreateFile loads path eagerly (construction-time, like every other
// validation in §4.5: failures surface synchronously from Create) and
// wraps the result as a zero-input, single-output leaf node.
func CreateFile(args FileArgs) (*Node, error) {
	f, err := os.Open(args.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	w, err := nnd.Parse(f)
	if err != nil {
		return nil, err
	}

	buf, err := memory.Allocate(memory.Args{Shape: w.Shape, Format: w.Format, Engine: "cpu"})
	if err != nil {
		return nil, err
	}
	dst, err := buf.Lock()
	if err != nil {
		return nil, err
	}
	copy(dst, w.Data)
	_ = buf.Release()

	return &Node{
		kind:     KindFile,
		argument: args,
		outputs:  []*memory.Buffer{buf},
		attrs: map[string]interface{}{
			"name":   "file",
			"inputs": uint32(0),
		},
	}, nil
}

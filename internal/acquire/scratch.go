package acquire

import (
	"fmt"
	"os"

	"github.com/google/uuid"

	"papersum/internal/util"
)

// Scratch is a per-request working directory. Every file a request writes
// (uploads, downloads) lives under Dir, and Close removes all of it.
type Scratch struct {
	ID  string
	Dir string
}

func NewScratch(root string) (*Scratch, error) {
	if root == "" {
		root = os.TempDir()
	}
	if err := util.EnsureDir(root); err != nil {
		return nil, err
	}
	id := uuid.NewString()
	dir, err := os.MkdirTemp(root, "req-"+id+"-*")
	if err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	return &Scratch{ID: id, Dir: dir}, nil
}

// Path returns a file path inside the scratch dir; name is reduced to its
// base component.
func (s *Scratch) Path(name string) string {
	return util.SafeJoin(s.Dir, name)
}

func (s *Scratch) Close() error {
	if s == nil || s.Dir == "" {
		return nil
	}
	return os.RemoveAll(s.Dir)
}

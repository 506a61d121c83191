package runtime

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/sergev/sag/lang"
)

// FSProvider serves module source from a file system. Paths are the
// slash-separated canonical module paths produced by lang.ResolvePath.
type FSProvider struct {
	fsys fs.FS
}

// NewFSProvider wraps fsys.
func NewFSProvider(fsys fs.FS) *FSProvider {
	return &FSProvider{fsys: fsys}
}

func (p *FSProvider) Resolve(name string) (string, error) {
	if !fs.ValidPath(name) {
		return "", fmt.Errorf("%s: invalid module path: %w", name, lang.ErrNotFound)
	}
	data, err := fs.ReadFile(p.fsys, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%s: %w", name, lang.ErrNotFound)
		}
		return "", err
	}
	return string(skipShebang(data)), nil
}

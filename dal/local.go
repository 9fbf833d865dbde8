package dal

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Local is a DataAccessor rooted at a directory. Writes land in a temp file
// and rename into place on Close, so a crashed writer never leaves a
// half-visible object.
type Local struct {
	root string
}

func NewLocal(root string) (*Local, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("%w: creating root %s: %v", ErrStorageIO, root, err)
	}
	return &Local{root: root}, nil
}

func (l *Local) GetWriter(location string) (io.WriteCloser, error) {
	full := filepath.Join(l.root, filepath.FromSlash(location))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return nil, fmt.Errorf("%w: creating parent of %s: %v", ErrStorageIO, location, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(full), ".tmp-*")
	if err != nil {
		return nil, fmt.Errorf("%w: allocating writer for %s: %v", ErrStorageIO, location, err)
	}
	return &renameOnClose{f: tmp, dest: full, location: location}, nil
}

func (l *Local) Read(ctx context.Context, location string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	full := filepath.Join(l.root, filepath.FromSlash(location))
	data, err := os.ReadFile(full)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrStorageIO, location, err)
	}
	return data, nil
}

type renameOnClose struct {
	f        *os.File
	dest     string
	location string
}

func (r *renameOnClose) Write(p []byte) (int, error) {
	n, err := r.f.Write(p)
	if err != nil {
		return n, fmt.Errorf("%w: writing %s: %v", ErrStorageIO, r.location, err)
	}
	return n, nil
}

func (r *renameOnClose) Close() error {
	if err := r.f.Sync(); err != nil {
		r.f.Close()
		return fmt.Errorf("%w: syncing %s: %v", ErrStorageIO, r.location, err)
	}
	if err := r.f.Close(); err != nil {
		return fmt.Errorf("%w: closing %s: %v", ErrStorageIO, r.location, err)
	}
	if err := os.Rename(r.f.Name(), r.dest); err != nil {
		return fmt.Errorf("%w: publishing %s: %v", ErrStorageIO, r.location, err)
	}
	return nil
}

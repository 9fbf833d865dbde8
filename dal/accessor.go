package dal

import (
	"context"
	"errors"
	"io"
)

// ErrStorageIO reports a read or write failure against the storage backend.
var ErrStorageIO = errors.New("dal: storage io failure")

// DataAccessor is the storage backend seam. Locations are opaque string
// paths within a storage namespace; objects are written once and never
// overwritten.
type DataAccessor interface {
	// GetWriter allocates a byte sink for a new object. The object becomes
	// visible once the returned writer is closed.
	GetWriter(location string) (io.WriteCloser, error)
	// Read returns the full contents of an object.
	Read(ctx context.Context, location string) ([]byte, error)
}

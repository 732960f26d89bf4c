// Package datasource abstracts where raw record files come from.
//
// A Source enumerates the objects of one record set (catalog or usage) and
// opens them one at a time. Implementations exist for the local filesystem
// and S3; the extractor only sees this interface.
package datasource

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned by List/Open when the configured location does not
// exist. Callers can branch on it with errors.Is.
var ErrNotFound = errors.New("datasource: location does not exist")

// Source is one logical record set: a collection of JSON objects/files.
type Source interface {
	// List returns the names of all objects in the set, in a stable order.
	List(ctx context.Context) ([]string, error)

	// Open opens a single object by the name List returned.
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

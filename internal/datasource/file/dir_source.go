// Package file implements a local filesystem-backed data source.
package file

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"starlake/internal/datasource"
)

// Dir is a filesystem data source that walks a directory tree for JSON files.
// The catalog and usage sets each get their own Dir rooted at their base
// directory (mirroring the nested year/month layout the raw exports use).
type Dir struct{ root string }

// NewDir returns a new Dir data source rooted at the provided path. The
// returned value is safe for concurrent use by multiple goroutines as long as
// the underlying tree is valid for concurrent reads.
func NewDir(root string) *Dir { return &Dir{root: root} }

// List walks the tree and returns all *.json file paths, sorted. Sorting makes
// the enumeration order stable, which in turn makes keep-first deduplication
// deterministic across runs over the same tree.
func (d *Dir) List(ctx context.Context) ([]string, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	var names []string
	err := filepath.WalkDir(d.root, func(path string, de fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if de.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".json") {
			names = append(names, path)
		}
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("list %s: %w", d.root, datasource.ErrNotFound)
		}
		return nil, fmt.Errorf("list %s: %w", d.root, err)
	}
	sort.Strings(names)
	return names, nil
}

// Open opens one listed file for reading.
//
// Behavior:
//   - If the context is already canceled or its deadline exceeded at the time
//     of the call, Open returns the context error immediately without touching
//     the filesystem.
//   - Any filesystem error is wrapped with the path for context, while still
//     permitting errors.Is/As checks by callers.
func (d *Dir) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	f, err := os.Open(name)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("open %s: %w", name, datasource.ErrNotFound)
		}
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	return f, nil
}

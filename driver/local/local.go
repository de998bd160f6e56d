package local

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobeaver/datasetkit"
)

// Adapter reads dataset files from a directory on the local filesystem.
// Paths are slash-separated and relative to the root; nothing outside the
// root is reachable.
type Adapter struct {
	root string
}

// New creates a new local filesystem adapter rooted at root, which must be
// an existing directory
func New(root string) (*Adapter, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(absRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, datasetkit.NewPathError("open", root, datasetkit.ErrNotExist)
		}
		return nil, datasetkit.NewPathError("open", root, err)
	}
	if !info.IsDir() {
		return nil, datasetkit.NewPathError("open", root, datasetkit.ErrNotDir)
	}

	return &Adapter{
		root: absRoot,
	}, nil
}

// Root returns the absolute root directory
func (a *Adapter) Root() string {
	return a.root
}

// resolve maps a source path to an absolute path under the root
func (a *Adapter) resolve(op, path string) (string, error) {
	fullPath := filepath.Join(a.root, filepath.Clean("/"+filepath.FromSlash(path)))

	// Check if the path is under the root
	if !isPathUnderRoot(a.root, fullPath) {
		return "", datasetkit.NewPathError(op, path, datasetkit.ErrNotAllowed)
	}
	return fullPath, nil
}

// Read implements datasetkit.FileReader
func (a *Adapter) Read(ctx context.Context, path string) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
		// Continue
	}

	fullPath, err := a.resolve("read", path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(fullPath)
	if err != nil {
		return nil, mapError("read", path, err)
	}

	return f, nil
}

// FileExists implements datasetkit.FileReader
func (a *Adapter) FileExists(ctx context.Context, path string) (bool, error) {
	select {
	case <-ctx.Done():
		return false, ctx.Err()
	default:
		// Continue
	}

	fullPath, err := a.resolve("fileexists", path)
	if err != nil {
		return false, err
	}

	info, err := os.Stat(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, mapError("fileexists", path, err)
	}

	// Return true only if it's a file (not a directory)
	return !info.IsDir(), nil
}

// Stat implements datasetkit.FileReader
func (a *Adapter) Stat(ctx context.Context, path string) (*datasetkit.FileInfo, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
		// Continue
	}

	fullPath, err := a.resolve("stat", path)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(fullPath)
	if err != nil {
		return nil, mapError("stat", path, err)
	}

	return &datasetkit.FileInfo{
		Name:    filepath.Base(fullPath),
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
		IsDir:   info.IsDir(),
	}, nil
}

// ListContents implements datasetkit.FileReader
func (a *Adapter) ListContents(ctx context.Context, path string, recursive bool) ([]datasetkit.FileInfo, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
		// Continue
	}

	fullPath, err := a.resolve("listcontents", path)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(fullPath)
	if err != nil {
		return nil, mapError("listcontents", path, err)
	}
	if !info.IsDir() {
		return nil, datasetkit.NewPathError("listcontents", path, datasetkit.ErrNotDir)
	}

	var files []datasetkit.FileInfo

	if recursive {
		err = filepath.Walk(fullPath, func(walkPath string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}

			// Skip the root directory itself
			if walkPath == fullPath {
				return nil
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			relPath, err := filepath.Rel(a.root, walkPath)
			if err != nil {
				return err
			}

			files = append(files, datasetkit.FileInfo{
				Name:    info.Name(),
				Path:    filepath.ToSlash(relPath),
				Size:    info.Size(),
				ModTime: info.ModTime(),
				IsDir:   info.IsDir(),
			})

			return nil
		})
		if err != nil {
			return nil, datasetkit.NewPathError("listcontents", path, err)
		}
		return files, nil
	}

	// Read only the immediate directory contents
	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, datasetkit.NewPathError("listcontents", path, err)
	}

	files = make([]datasetkit.FileInfo, 0, len(entries))
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			continue
		}

		relPath, err := filepath.Rel(a.root, filepath.Join(fullPath, entry.Name()))
		if err != nil {
			continue
		}

		files = append(files, datasetkit.FileInfo{
			Name:    entry.Name(),
			Path:    filepath.ToSlash(relPath),
			Size:    info.Size(),
			ModTime: info.ModTime(),
			IsDir:   info.IsDir(),
		})
	}

	return files, nil
}

// isPathUnderRoot checks if a path is under a given root directory
func isPathUnderRoot(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}

	return !filepath.IsAbs(rel) && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func mapError(op, path string, err error) error {
	switch {
	case os.IsNotExist(err):
		return datasetkit.NewPathError(op, path, datasetkit.ErrNotExist)
	case os.IsPermission(err):
		return datasetkit.NewPathError(op, path, datasetkit.ErrPermission)
	default:
		return datasetkit.NewPathError(op, path, err)
	}
}

// Ensure Adapter implements the source interfaces
var (
	_ datasetkit.FileReader = (*Adapter)(nil)
	_ datasetkit.CanWatch   = (*Adapter)(nil)
)

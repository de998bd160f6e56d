package zip

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gobeaver/datasetkit"
)

// Adapter reads dataset files from a ZIP archive, as datasets are often
// shipped. The archive is opened once and never modified.
type Adapter struct {
	mu     sync.RWMutex
	path   string
	reader *zip.ReadCloser
	files  map[string]*zipEntry
}

// zipEntry represents a file or directory in the archive
type zipEntry struct {
	file  *zip.File
	isDir bool
}

func (e *zipEntry) size() int64 {
	if e.file == nil {
		return 0
	}
	return int64(e.file.UncompressedSize64)
}

func (e *zipEntry) modTime() time.Time {
	if e.file == nil {
		return time.Time{}
	}
	return e.file.Modified
}

// Open opens an existing ZIP file for reading
func Open(zipPath string) (*Adapter, error) {
	reader, err := zip.OpenReader(zipPath)
	if errors.Is(err, zip.ErrInsecurePath) && reader != nil {
		// non-local entries are skipped while indexing
		err = nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open zip: %w", err)
	}

	a := &Adapter{
		path:   zipPath,
		reader: reader,
		files:  make(map[string]*zipEntry),
	}

	// Build file index
	for _, f := range reader.File {
		name := normalizePath(f.Name)
		if name == "" || !isValidPath(name) {
			continue
		}
		isDir := f.FileInfo().IsDir()
		entry := &zipEntry{isDir: isDir}
		if !isDir {
			entry.file = f
		}
		a.files[name] = entry

		// Also add parent directories
		a.ensureParentDirs(name)
	}

	return a, nil
}

// Close releases the archive
func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.reader == nil {
		return nil
	}
	err := a.reader.Close()
	a.reader = nil
	a.files = make(map[string]*zipEntry)
	return err
}

// Read implements datasetkit.FileReader
func (a *Adapter) Read(ctx context.Context, filePath string) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	a.mu.RLock()
	defer a.mu.RUnlock()

	filePath = normalizePath(filePath)

	entry, exists := a.files[filePath]
	if !exists {
		return nil, datasetkit.NewPathError("read", filePath, datasetkit.ErrNotExist)
	}
	if entry.isDir {
		return nil, datasetkit.NewPathError("read", filePath, datasetkit.ErrIsDir)
	}

	rc, err := entry.file.Open()
	if err != nil {
		return nil, datasetkit.NewPathError("read", filePath, err)
	}
	return rc, nil
}

// FileExists implements datasetkit.FileReader
func (a *Adapter) FileExists(ctx context.Context, filePath string) (bool, error) {
	select {
	case <-ctx.Done():
		return false, ctx.Err()
	default:
	}

	a.mu.RLock()
	defer a.mu.RUnlock()

	entry, exists := a.files[normalizePath(filePath)]
	return exists && !entry.isDir, nil
}

// Stat implements datasetkit.FileReader
func (a *Adapter) Stat(ctx context.Context, filePath string) (*datasetkit.FileInfo, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	a.mu.RLock()
	defer a.mu.RUnlock()

	filePath = normalizePath(filePath)

	if filePath == "" {
		return &datasetkit.FileInfo{Name: path.Base(a.path), IsDir: true}, nil
	}

	entry, exists := a.files[filePath]
	if !exists {
		return nil, datasetkit.NewPathError("stat", filePath, datasetkit.ErrNotExist)
	}

	return &datasetkit.FileInfo{
		Name:    path.Base(filePath),
		Path:    filePath,
		Size:    entry.size(),
		ModTime: entry.modTime(),
		IsDir:   entry.isDir,
	}, nil
}

// ListContents implements datasetkit.FileReader. Entries are sorted by path.
func (a *Adapter) ListContents(ctx context.Context, prefix string, recursive bool) ([]datasetkit.FileInfo, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	a.mu.RLock()
	defer a.mu.RUnlock()

	prefix = normalizePath(prefix)

	// Check if prefix is a directory
	if prefix != "" {
		entry, exists := a.files[prefix]
		if !exists {
			return nil, datasetkit.NewPathError("listcontents", prefix, datasetkit.ErrNotExist)
		}
		if !entry.isDir {
			return nil, datasetkit.NewPathError("listcontents", prefix, datasetkit.ErrNotDir)
		}
	}

	var files []datasetkit.FileInfo
	for entryPath, entry := range a.files {
		relPath := entryPath
		if prefix != "" {
			if !strings.HasPrefix(entryPath, prefix+"/") {
				continue
			}
			relPath = strings.TrimPrefix(entryPath, prefix+"/")
		}

		// Non-recursive: only immediate children. Parents are indexed as
		// their own entries, so nested paths can be skipped.
		if !recursive && strings.Contains(relPath, "/") {
			continue
		}

		files = append(files, datasetkit.FileInfo{
			Name:    path.Base(entryPath),
			Path:    entryPath,
			Size:    entry.size(),
			ModTime: entry.modTime(),
			IsDir:   entry.isDir,
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Path < files[j].Path
	})

	return files, nil
}

// ensureParentDirs creates directory entries for every parent of filePath
func (a *Adapter) ensureParentDirs(filePath string) {
	dir := path.Dir(filePath)
	for dir != "" && dir != "." && dir != "/" {
		if _, exists := a.files[dir]; !exists {
			a.files[dir] = &zipEntry{isDir: true}
		}
		dir = path.Dir(dir)
	}
}

// normalizePath normalizes a file path
func normalizePath(p string) string {
	p = strings.TrimPrefix(p, "/")
	p = strings.TrimSuffix(p, "/")
	if p == "" || p == "." {
		return ""
	}
	return path.Clean(p)
}

// isValidPath rejects entries that would escape the archive root
func isValidPath(p string) bool {
	return p != ".." && !strings.HasPrefix(p, "../")
}

// Ensure Adapter implements interfaces
var _ datasetkit.FileReader = (*Adapter)(nil)

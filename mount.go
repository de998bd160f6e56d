package datasetkit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"sync"
)

var (
	// ErrMountNotFound is returned when no mount point matches the path
	ErrMountNotFound = errors.New("no mount point found for path")
	// ErrMountExists is returned when trying to mount at an existing path
	ErrMountExists = errors.New("mount point already exists")
	// ErrEmptyMountPath is returned when the mount path is empty
	ErrEmptyMountPath = errors.New("mount path cannot be empty")
	// ErrNilSource is returned when trying to mount a nil source
	ErrNilSource = errors.New("source cannot be nil")
)

// MountManager presents several sources as one tree, each under its own
// virtual path. A dataset whose manifest lives in a bucket and whose
// annotations sit on local disk can then be checked by a single Service.
type MountManager struct {
	mu     sync.RWMutex
	mounts map[string]FileReader
	// sorted mount paths for longest-prefix matching
	sortedPaths []string
}

// NewMountManager creates a new mount manager instance.
func NewMountManager() *MountManager {
	return &MountManager{
		mounts: make(map[string]FileReader),
	}
}

// Mount attaches a source at the specified virtual path.
//
// Example:
//
//	mounts.Mount("/annotations", localSource)
//	mounts.Mount("/manifests", s3Source)
//	mounts.Mount("/manifests/archive", zipSource) // nested mounts supported
func (m *MountManager) Mount(mountPath string, src FileReader) error {
	if src == nil {
		return ErrNilSource
	}

	mountPath = normalizeMountPath(mountPath)
	if mountPath == "" || mountPath == "/" {
		return ErrEmptyMountPath
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.mounts[mountPath]; exists {
		return fmt.Errorf("%w: %s", ErrMountExists, mountPath)
	}

	m.mounts[mountPath] = src
	m.updateSortedPaths()

	return nil
}

// Unmount removes the source at the specified path.
func (m *MountManager) Unmount(mountPath string) error {
	mountPath = normalizeMountPath(mountPath)

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.mounts[mountPath]; !exists {
		return fmt.Errorf("%w: %s", ErrMountNotFound, mountPath)
	}

	delete(m.mounts, mountPath)
	m.updateSortedPaths()

	return nil
}

// MountPaths returns all mount paths in sorted order (longest first).
func (m *MountManager) MountPaths() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]string, len(m.sortedPaths))
	copy(result, m.sortedPaths)
	return result
}

// GetMount returns the source mounted at the exact path.
func (m *MountManager) GetMount(mountPath string) (FileReader, error) {
	mountPath = normalizeMountPath(mountPath)

	m.mu.RLock()
	defer m.mu.RUnlock()

	src, exists := m.mounts[mountPath]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrMountNotFound, mountPath)
	}
	return src, nil
}

// resolve finds the mount and relative path for an absolute path using
// longest-prefix matching.
func (m *MountManager) resolve(absPath string) (FileReader, string, string, error) {
	absPath = normalizeMountPath(absPath)

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, mountPath := range m.sortedPaths {
		if absPath == mountPath || strings.HasPrefix(absPath, mountPath+"/") {
			relativePath := strings.TrimPrefix(absPath, mountPath)
			relativePath = strings.TrimPrefix(relativePath, "/")
			return m.mounts[mountPath], mountPath, relativePath, nil
		}
	}

	return nil, "", "", fmt.Errorf("%w: %s", ErrMountNotFound, absPath)
}

// updateSortedPaths must be called with the lock held.
func (m *MountManager) updateSortedPaths() {
	paths := make([]string, 0, len(m.mounts))
	for p := range m.mounts {
		paths = append(paths, p)
	}
	sort.Slice(paths, func(i, j int) bool {
		if len(paths[i]) != len(paths[j]) {
			return len(paths[i]) > len(paths[j])
		}
		return paths[i] < paths[j]
	})
	m.sortedPaths = paths
}

// normalizeMountPath returns a cleaned absolute path; the empty path is the root.
func normalizeMountPath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}

// Read implements FileReader
func (m *MountManager) Read(ctx context.Context, filePath string) (io.ReadCloser, error) {
	src, _, relativePath, err := m.resolve(filePath)
	if err != nil {
		return nil, NewPathError("read", filePath, err)
	}
	return src.Read(ctx, relativePath)
}

// FileExists implements FileReader
func (m *MountManager) FileExists(ctx context.Context, filePath string) (bool, error) {
	src, _, relativePath, err := m.resolve(filePath)
	if err != nil {
		return false, nil
	}
	return src.FileExists(ctx, relativePath)
}

// Stat implements FileReader. Mount points and their parents are
// directories.
func (m *MountManager) Stat(ctx context.Context, filePath string) (*FileInfo, error) {
	abs := normalizeMountPath(filePath)

	src, mountPath, relativePath, err := m.resolve(abs)
	if err != nil {
		if m.isVirtualDir(abs) {
			return &FileInfo{Name: path.Base(abs), Path: abs, IsDir: true}, nil
		}
		return nil, NewPathError("stat", filePath, err)
	}
	if relativePath == "" {
		return &FileInfo{Name: path.Base(abs), Path: abs, IsDir: true}, nil
	}

	info, err := src.Stat(ctx, relativePath)
	if err != nil {
		return nil, err
	}
	out := *info
	out.Path = path.Join(mountPath, relativePath)
	return &out, nil
}

// ListContents implements FileReader. Paths are absolute within the mount
// tree. Listing the root or a parent of mount points yields virtual
// directories for the mounts below it.
func (m *MountManager) ListContents(ctx context.Context, prefix string, recursive bool) ([]FileInfo, error) {
	prefix = normalizeMountPath(prefix)

	src, mountPath, relativePath, err := m.resolve(prefix)
	if err != nil {
		return m.listVirtualDir(ctx, prefix, recursive)
	}

	files, err := src.ListContents(ctx, relativePath, recursive)
	if err != nil {
		return nil, err
	}

	for i := range files {
		files[i].Path = path.Join(mountPath, strings.TrimPrefix(files[i].Path, "/"))
	}

	return files, nil
}

// isVirtualDir reports whether dir is the root or a parent of a mount point
func (m *MountManager) isVirtualDir(dir string) bool {
	if dir == "/" {
		return true
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for mountPath := range m.mounts {
		if strings.HasPrefix(mountPath, dir+"/") {
			return true
		}
	}
	return false
}

// listVirtualDir lists the next path component of each mount below prefix
func (m *MountManager) listVirtualDir(ctx context.Context, prefix string, recursive bool) ([]FileInfo, error) {
	base := strings.TrimSuffix(prefix, "/")

	m.mu.RLock()
	seen := make(map[string]bool)
	var files []FileInfo
	for mountPath := range m.mounts {
		if !strings.HasPrefix(mountPath, base+"/") {
			continue
		}
		remaining := strings.TrimPrefix(mountPath, base+"/")
		name := strings.SplitN(remaining, "/", 2)[0]
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		files = append(files, FileInfo{
			Name:  name,
			Path:  base + "/" + name,
			IsDir: true,
		})
	}
	m.mu.RUnlock()

	if len(files) == 0 {
		if prefix == "/" {
			return nil, nil
		}
		return nil, NewPathError("listcontents", prefix, ErrMountNotFound)
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Name < files[j].Name
	})

	if !recursive {
		return files, nil
	}

	all := files
	for _, dir := range files {
		children, err := m.ListContents(ctx, dir.Path, true)
		if err != nil {
			return nil, err
		}
		all = append(all, children...)
	}
	return all, nil
}

// Watch implements CanWatch. A pattern under a mount point is handed to that
// mount with the mount prefix removed; any other pattern is given unchanged
// to every mount that can watch, and the returned token fires on the first
// change from any of them.
func (m *MountManager) Watch(ctx context.Context, pattern string) (ChangeToken, error) {
	if strings.HasPrefix(pattern, "/") {
		if src, _, relativePattern, err := m.resolve(pattern); err == nil {
			watcher, ok := src.(CanWatch)
			if !ok {
				return nil, NewPathError("watch", pattern, ErrNotSupported)
			}
			return watcher.Watch(ctx, relativePattern)
		}
	}

	m.mu.RLock()
	var watchers []CanWatch
	for _, mountPath := range m.sortedPaths {
		if watcher, ok := m.mounts[mountPath].(CanWatch); ok {
			watchers = append(watchers, watcher)
		}
	}
	m.mu.RUnlock()

	if len(watchers) == 0 {
		return nil, NewPathError("watch", pattern, ErrNotSupported)
	}

	combined := NewCallbackChangeToken()
	var lastErr error
	watching := 0
	for _, watcher := range watchers {
		token, err := watcher.Watch(ctx, pattern)
		if err != nil {
			Logf("datasetkit: mount watch %s: %v", pattern, err)
			lastErr = err
			continue
		}
		token.RegisterChangeCallback(combined.SignalChange)
		watching++
	}
	if watching == 0 {
		return nil, lastErr
	}

	return combined, nil
}

var (
	_ FileReader = (*MountManager)(nil)
	_ CanWatch   = (*MountManager)(nil)
)

package memory

import (
	"bytes"
	"context"
	"io"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gobeaver/datasetkit"
	"github.com/gobwas/glob"
)

// memoryFile represents a file stored in memory
type memoryFile struct {
	content []byte
	modTime time.Time
}

// watchEntry represents a single watch subscription
type watchEntry struct {
	selector datasetkit.FileSelector
	token    *datasetkit.CallbackChangeToken
}

// Adapter is an in-memory dataset source.
// Useful for tests and for validating content that never touches disk.
type Adapter struct {
	mu    sync.RWMutex
	files map[string]*memoryFile
	dirs  map[string]time.Time
	now   func() time.Time

	// Watch support
	watchMu sync.Mutex
	watches []*watchEntry
}

// New creates an empty in-memory source
func New() *Adapter {
	a := &Adapter{
		files: make(map[string]*memoryFile),
		dirs:  make(map[string]time.Time),
		now:   time.Now,
	}

	// Create root directory
	a.dirs[""] = a.now()

	return a
}

// Write stores content at p, creating parent directories and replacing any
// existing file. Matching watchers are signalled.
func (a *Adapter) Write(p string, content []byte) error {
	p = normalizePath(p)
	if !isValidPath(p) {
		return datasetkit.NewPathError("write", p, datasetkit.ErrNotAllowed)
	}

	a.mu.Lock()
	if _, isDir := a.dirs[p]; isDir {
		a.mu.Unlock()
		return datasetkit.NewPathError("write", p, datasetkit.ErrIsDir)
	}
	a.files[p] = &memoryFile{
		content: bytes.Clone(content),
		modTime: a.now(),
	}
	a.ensureParentDirs(p)
	a.mu.Unlock()

	a.notifyWatchers(p)
	return nil
}

// WriteString is Write for string content
func (a *Adapter) WriteString(p, content string) error {
	return a.Write(p, []byte(content))
}

// Delete removes the file at p and signals matching watchers
func (a *Adapter) Delete(p string) error {
	p = normalizePath(p)

	a.mu.Lock()
	if _, exists := a.files[p]; !exists {
		a.mu.Unlock()
		return datasetkit.NewPathError("delete", p, datasetkit.ErrNotExist)
	}
	delete(a.files, p)
	a.mu.Unlock()

	a.notifyWatchers(p)
	return nil
}

// Read implements datasetkit.FileReader
func (a *Adapter) Read(ctx context.Context, p string) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	p = normalizePath(p)

	a.mu.RLock()
	defer a.mu.RUnlock()

	file, exists := a.files[p]
	if !exists {
		if _, isDir := a.dirs[p]; isDir {
			return nil, datasetkit.NewPathError("read", p, datasetkit.ErrIsDir)
		}
		return nil, datasetkit.NewPathError("read", p, datasetkit.ErrNotExist)
	}

	// Stored content is never mutated in place, so the slice can be shared
	return io.NopCloser(bytes.NewReader(file.content)), nil
}

// FileExists implements datasetkit.FileReader
func (a *Adapter) FileExists(ctx context.Context, p string) (bool, error) {
	select {
	case <-ctx.Done():
		return false, ctx.Err()
	default:
	}

	p = normalizePath(p)

	a.mu.RLock()
	defer a.mu.RUnlock()

	_, fileExists := a.files[p]
	return fileExists, nil
}

// Stat implements datasetkit.FileReader
func (a *Adapter) Stat(ctx context.Context, p string) (*datasetkit.FileInfo, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	p = normalizePath(p)

	a.mu.RLock()
	defer a.mu.RUnlock()

	if file, exists := a.files[p]; exists {
		return &datasetkit.FileInfo{
			Name:    path.Base(p),
			Path:    p,
			Size:    int64(len(file.content)),
			ModTime: file.modTime,
		}, nil
	}

	if modTime, exists := a.dirs[p]; exists {
		return &datasetkit.FileInfo{
			Name:    path.Base(p),
			Path:    p,
			ModTime: modTime,
			IsDir:   true,
		}, nil
	}

	return nil, datasetkit.NewPathError("stat", p, datasetkit.ErrNotExist)
}

// ListContents implements datasetkit.FileReader. Entries are sorted by path.
func (a *Adapter) ListContents(ctx context.Context, p string, recursive bool) ([]datasetkit.FileInfo, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	p = normalizePath(p)

	a.mu.RLock()
	defer a.mu.RUnlock()

	if _, exists := a.dirs[p]; !exists {
		if _, isFile := a.files[p]; isFile {
			return nil, datasetkit.NewPathError("listcontents", p, datasetkit.ErrNotDir)
		}
		return nil, datasetkit.NewPathError("listcontents", p, datasetkit.ErrNotExist)
	}

	var result []datasetkit.FileInfo

	for filePath, file := range a.files {
		if !isChild(p, filePath, recursive) {
			continue
		}
		result = append(result, datasetkit.FileInfo{
			Name:    path.Base(filePath),
			Path:    filePath,
			Size:    int64(len(file.content)),
			ModTime: file.modTime,
		})
	}

	for dirPath, modTime := range a.dirs {
		if dirPath == "" || !isChild(p, dirPath, recursive) {
			continue
		}
		result = append(result, datasetkit.FileInfo{
			Name:    path.Base(dirPath),
			Path:    dirPath,
			ModTime: modTime,
			IsDir:   true,
		})
	}

	sort.Slice(result, func(i, j int) bool { return result[i].Path < result[j].Path })
	return result, nil
}

// FileCount returns the number of files stored
func (a *Adapter) FileCount() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.files)
}

// Clear removes every file and directory
func (a *Adapter) Clear() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.files = make(map[string]*memoryFile)
	a.dirs = map[string]time.Time{"": a.now()}
}

// ensureParentDirs creates all parent directories for a given path.
// Must be called with lock held
func (a *Adapter) ensureParentDirs(p string) {
	dir := path.Dir(p)
	for dir != "" && dir != "." && dir != "/" {
		if _, exists := a.dirs[dir]; !exists {
			a.dirs[dir] = a.now()
		}
		dir = path.Dir(dir)
	}
}

// isChild reports whether entry lies in dir, directly unless recursive
func isChild(dir, entry string, recursive bool) bool {
	if entry == dir {
		return false
	}
	rel := entry
	if dir != "" {
		if !strings.HasPrefix(entry, dir+"/") {
			return false
		}
		rel = strings.TrimPrefix(entry, dir+"/")
	}
	return recursive || !strings.Contains(rel, "/")
}

// normalizePath normalizes a file path
func normalizePath(p string) string {
	p = strings.TrimPrefix(strings.ReplaceAll(p, "\\", "/"), "/")
	if p == "" || p == "." {
		return ""
	}
	return path.Clean(p)
}

// isValidPath checks if a path is valid (no directory traversal)
func isValidPath(p string) bool {
	return p != "" && p != ".." && !strings.HasPrefix(p, "../")
}

// Watch implements datasetkit.CanWatch for in-memory change detection.
// The pattern is matched like datasetkit.Glob.
func (a *Adapter) Watch(ctx context.Context, pattern string) (datasetkit.ChangeToken, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	// Validate the glob pattern
	if _, err := glob.Compile(pattern, '/'); err != nil {
		return nil, datasetkit.NewPathError("watch", pattern, err)
	}

	token := datasetkit.NewCallbackChangeToken()

	a.watchMu.Lock()
	a.watches = append(a.watches, &watchEntry{
		selector: datasetkit.Glob(pattern),
		token:    token,
	})
	a.watchMu.Unlock()

	// Clean up when context is cancelled
	go func() {
		select {
		case <-ctx.Done():
		case <-token.Done():
		}
		a.removeWatch(token)
	}()

	return token, nil
}

// notifyWatchers signals all watchers whose pattern matches p
func (a *Adapter) notifyWatchers(p string) {
	file := &datasetkit.FileInfo{Name: path.Base(p), Path: p}

	a.watchMu.Lock()
	var matched []*datasetkit.CallbackChangeToken
	for _, entry := range a.watches {
		if entry.selector.Match(file) {
			matched = append(matched, entry.token)
		}
	}
	a.watchMu.Unlock()

	for _, token := range matched {
		token.SignalChange()
	}
}

// removeWatch removes a watch entry by token
func (a *Adapter) removeWatch(token *datasetkit.CallbackChangeToken) {
	a.watchMu.Lock()
	defer a.watchMu.Unlock()

	for i, entry := range a.watches {
		if entry.token == token {
			// Remove by swapping with last element
			a.watches[i] = a.watches[len(a.watches)-1]
			a.watches = a.watches[:len(a.watches)-1]
			return
		}
	}
}

// WatchCount returns the number of live watch subscriptions
func (a *Adapter) WatchCount() int {
	a.watchMu.Lock()
	defer a.watchMu.Unlock()
	return len(a.watches)
}

// Ensure Adapter implements interfaces
var (
	_ datasetkit.FileReader = (*Adapter)(nil)
	_ datasetkit.CanWatch   = (*Adapter)(nil)
)

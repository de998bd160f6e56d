package datasetkit

import (
	"context"
	"io"
	"path"
	"sort"
	"strings"
)

// stubSource is a minimal FileReader over a fixed set of files
type stubSource struct {
	files   map[string]string
	readErr error
	reads   int
}

func newStubSource(files map[string]string) *stubSource {
	return &stubSource{files: files}
}

func (s *stubSource) isDir(p string) bool {
	if p == "" {
		return true
	}
	for name := range s.files {
		if strings.HasPrefix(name, p+"/") {
			return true
		}
	}
	return false
}

func (s *stubSource) Read(ctx context.Context, p string) (io.ReadCloser, error) {
	s.reads++
	if s.readErr != nil {
		return nil, NewPathError("read", p, s.readErr)
	}
	content, ok := s.files[strings.TrimPrefix(p, "/")]
	if !ok {
		return nil, NewPathError("read", p, ErrNotExist)
	}
	return io.NopCloser(strings.NewReader(content)), nil
}

func (s *stubSource) FileExists(ctx context.Context, p string) (bool, error) {
	_, ok := s.files[strings.TrimPrefix(p, "/")]
	return ok, nil
}

func (s *stubSource) Stat(ctx context.Context, p string) (*FileInfo, error) {
	p = strings.TrimPrefix(p, "/")
	if content, ok := s.files[p]; ok {
		return &FileInfo{Name: path.Base(p), Path: p, Size: int64(len(content))}, nil
	}
	if s.isDir(p) {
		return &FileInfo{Name: path.Base(p), Path: p, IsDir: true}, nil
	}
	return nil, NewPathError("stat", p, ErrNotExist)
}

func (s *stubSource) ListContents(ctx context.Context, p string, recursive bool) ([]FileInfo, error) {
	p = strings.Trim(p, "/")
	if !s.isDir(p) {
		return nil, NewPathError("listcontents", p, ErrNotExist)
	}

	prefix := ""
	if p != "" {
		prefix = p + "/"
	}

	seen := map[string]bool{}
	var out []FileInfo
	for name, content := range s.files {
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		rest := strings.TrimPrefix(name, prefix)
		if idx := strings.Index(rest, "/"); idx >= 0 && !recursive {
			dir := prefix + rest[:idx]
			if !seen[dir] {
				seen[dir] = true
				out = append(out, FileInfo{Name: path.Base(dir), Path: dir, IsDir: true})
			}
			continue
		}
		out = append(out, FileInfo{Name: path.Base(name), Path: name, Size: int64(len(content))})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

package gcs

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/gobeaver/datasetkit"
	"google.golang.org/api/iterator"
)

// Bucket is the subset of a GCS bucket handle used by the adapter
type Bucket interface {
	NewReader(ctx context.Context, key string) (io.ReadCloser, error)
	Attrs(ctx context.Context, key string) (*storage.ObjectAttrs, error)
	Objects(ctx context.Context, q *storage.Query) ObjectIterator
}

// ObjectIterator yields object attributes until iterator.Done
type ObjectIterator interface {
	Next() (*storage.ObjectAttrs, error)
}

// bucketHandle adapts *storage.BucketHandle to Bucket
type bucketHandle struct {
	h *storage.BucketHandle
}

func (b bucketHandle) NewReader(ctx context.Context, key string) (io.ReadCloser, error) {
	return b.h.Object(key).NewReader(ctx)
}

func (b bucketHandle) Attrs(ctx context.Context, key string) (*storage.ObjectAttrs, error) {
	return b.h.Object(key).Attrs(ctx)
}

func (b bucketHandle) Objects(ctx context.Context, q *storage.Query) ObjectIterator {
	return b.h.Objects(ctx, q)
}

// Adapter reads dataset files from a Google Cloud Storage bucket
type Adapter struct {
	bucket       Bucket
	prefix       string
	pollInterval time.Duration
}

// AdapterOption is a function that configures GCS Adapter
type AdapterOption func(*Adapter)

// WithPrefix sets the prefix for GCS objects
func WithPrefix(prefix string) AdapterOption {
	return func(a *Adapter) {
		// Ensure prefix ends with a slash if it's not empty
		prefix = strings.TrimPrefix(prefix, "/")
		if prefix != "" && !strings.HasSuffix(prefix, "/") {
			prefix += "/"
		}
		a.prefix = prefix
	}
}

// WithPollInterval sets how often Watch lists the bucket
func WithPollInterval(interval time.Duration) AdapterOption {
	return func(a *Adapter) {
		a.pollInterval = interval
	}
}

// New creates a new GCS source adapter for the named bucket
func New(client *storage.Client, bucket string, options ...AdapterOption) *Adapter {
	return NewWithBucket(bucketHandle{h: client.Bucket(bucket)}, options...)
}

// NewWithBucket creates an adapter over any Bucket implementation
func NewWithBucket(bucket Bucket, options ...AdapterOption) *Adapter {
	adapter := &Adapter{
		bucket:       bucket,
		pollInterval: 30 * time.Second,
	}

	// Apply options
	for _, option := range options {
		option(adapter)
	}

	return adapter
}

// key maps a source path to an object name
func (a *Adapter) key(filePath string) string {
	return a.prefix + strings.TrimPrefix(path.Clean("/"+filePath), "/")
}

// Read implements datasetkit.FileReader
func (a *Adapter) Read(ctx context.Context, filePath string) (io.ReadCloser, error) {
	reader, err := a.bucket.NewReader(ctx, a.key(filePath))
	if err != nil {
		return nil, mapGCSError("read", filePath, err)
	}

	return reader, nil
}

// FileExists checks if a file exists (not a directory)
func (a *Adapter) FileExists(ctx context.Context, filePath string) (bool, error) {
	attrs, err := a.bucket.Attrs(ctx, a.key(filePath))
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return false, nil
		}
		return false, mapGCSError("fileexists", filePath, err)
	}

	return !isDirObject(attrs), nil
}

// Stat implements datasetkit.FileReader. A path with no object of its own
// but with objects below it is reported as a directory.
func (a *Adapter) Stat(ctx context.Context, filePath string) (*datasetkit.FileInfo, error) {
	key := a.key(filePath)

	attrs, err := a.bucket.Attrs(ctx, key)
	if err == nil {
		return &datasetkit.FileInfo{
			Name:    path.Base(key),
			Path:    filePath,
			Size:    attrs.Size,
			ModTime: attrs.Updated,
			IsDir:   isDirObject(attrs),
		}, nil
	}
	if !errors.Is(err, storage.ErrObjectNotExist) {
		return nil, mapGCSError("stat", filePath, err)
	}

	// If the object doesn't exist, check if any objects with this prefix exist
	it := a.bucket.Objects(ctx, &storage.Query{Prefix: strings.TrimSuffix(key, "/") + "/"})
	if _, nextErr := it.Next(); nextErr != nil {
		if errors.Is(nextErr, iterator.Done) {
			return nil, mapGCSError("stat", filePath, err)
		}
		return nil, mapGCSError("stat", filePath, nextErr)
	}

	return &datasetkit.FileInfo{
		Name:  path.Base(key),
		Path:  filePath,
		IsDir: true,
	}, nil
}

// ListContents lists files and directories at the specified path
func (a *Adapter) ListContents(ctx context.Context, dir string, recursive bool) ([]datasetkit.FileInfo, error) {
	listPrefix := a.prefix
	if rel := strings.TrimPrefix(path.Clean("/"+dir), "/"); rel != "" {
		listPrefix += rel + "/"
	}

	// Create query with or without delimiter based on recursive flag
	query := &storage.Query{
		Prefix: listPrefix,
	}
	if !recursive {
		query.Delimiter = "/"
	}

	var files []datasetkit.FileInfo
	it := a.bucket.Objects(ctx, query)

	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, mapGCSError("listcontents", dir, err)
		}

		// Handle "directory" prefixes (only when not recursive)
		if attrs.Prefix != "" {
			relPath := strings.TrimSuffix(strings.TrimPrefix(attrs.Prefix, a.prefix), "/")
			if relPath == "" {
				continue
			}
			files = append(files, datasetkit.FileInfo{
				Name:  path.Base(relPath),
				Path:  relPath,
				IsDir: true,
			})
			continue
		}

		// Skip the directory marker itself
		if attrs.Name == listPrefix {
			continue
		}

		relPath := strings.TrimPrefix(attrs.Name, a.prefix)
		isDir := isDirObject(attrs)
		relPath = strings.TrimSuffix(relPath, "/")

		files = append(files, datasetkit.FileInfo{
			Name:    path.Base(relPath),
			Path:    relPath,
			Size:    attrs.Size,
			ModTime: attrs.Updated,
			IsDir:   isDir,
		})
	}

	return files, nil
}

// isDirObject reports whether attrs describe a directory marker
func isDirObject(attrs *storage.ObjectAttrs) bool {
	return strings.HasSuffix(attrs.Name, "/") || attrs.ContentType == "application/x-directory"
}

// mapGCSError maps GCS errors to datasetkit errors
func mapGCSError(op, filePath string, err error) error {
	if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) {
		return datasetkit.NewPathError(op, filePath, datasetkit.ErrNotExist)
	}
	return datasetkit.NewPathError(op, filePath, err)
}

// Watch implements datasetkit.CanWatch by polling the bucket, since GCS has
// no native change events. The pattern is matched like datasetkit.Glob.
func (a *Adapter) Watch(ctx context.Context, pattern string) (datasetkit.ChangeToken, error) {
	selector := datasetkit.Glob(pattern)

	initialState, err := a.matchingState(ctx, selector)
	if err != nil {
		return nil, datasetkit.NewPathError("watch", pattern, err)
	}

	token := datasetkit.NewPollingChangeToken(ctx, datasetkit.PollingConfig{
		Interval: a.pollInterval,
		CheckFunc: func() bool {
			currentState, err := a.matchingState(ctx, selector)
			if err != nil {
				datasetkit.Logf("gcs: watch %s: %v", pattern, err)
				return false
			}
			return !statesEqual(initialState, currentState)
		},
	})

	return token, nil
}

// fileState represents the state of a file for change detection
type fileState struct {
	modTime time.Time
	size    int64
}

// matchingState returns the current state of files accepted by selector
func (a *Adapter) matchingState(ctx context.Context, selector datasetkit.FileSelector) (map[string]fileState, error) {
	files, err := a.ListContents(ctx, "", true)
	if err != nil {
		return nil, err
	}

	state := make(map[string]fileState)
	for i := range files {
		file := &files[i]
		if file.IsDir || !selector.Match(file) {
			continue
		}
		state[file.Path] = fileState{modTime: file.ModTime, size: file.Size}
	}

	return state, nil
}

// statesEqual checks if two file states are equal
func statesEqual(a, b map[string]fileState) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		bv, ok := b[k]
		if !ok {
			return false
		}
		if !v.modTime.Equal(bv.modTime) || v.size != bv.size {
			return false
		}
	}
	return true
}

// Ensure Adapter implements interfaces
var (
	_ datasetkit.FileReader = (*Adapter)(nil)
	_ datasetkit.CanWatch   = (*Adapter)(nil)
)

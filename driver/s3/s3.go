package s3

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/gobeaver/datasetkit"
)

// API is the subset of the S3 client used by the adapter
type API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// Adapter reads dataset files from an S3 bucket. Keys are treated as
// slash-separated paths below an optional prefix.
type Adapter struct {
	client       API
	bucket       string
	prefix       string
	pollInterval time.Duration
}

// AdapterOption is a function that configures Adapter
type AdapterOption func(*Adapter)

// WithPrefix sets the prefix for S3 objects
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

// New creates a new S3 source adapter
func New(client API, bucket string, options ...AdapterOption) *Adapter {
	adapter := &Adapter{
		client:       client,
		bucket:       bucket,
		pollInterval: 30 * time.Second,
	}

	// Apply options
	for _, option := range options {
		option(adapter)
	}

	return adapter
}

// key maps a source path to an object key
func (a *Adapter) key(filePath string) string {
	return a.prefix + strings.TrimPrefix(path.Clean("/"+filePath), "/")
}

// Read implements datasetkit.FileReader
func (a *Adapter) Read(ctx context.Context, filePath string) (io.ReadCloser, error) {
	resp, err := a.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(a.key(filePath)),
	})
	if err != nil {
		return nil, mapS3Error("read", filePath, err)
	}

	return resp.Body, nil
}

// FileExists implements datasetkit.FileReader
func (a *Adapter) FileExists(ctx context.Context, filePath string) (bool, error) {
	key := a.key(filePath)

	_, err := a.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, mapS3Error("fileexists", filePath, err)
	}

	// Check if it's not a directory marker (doesn't end with /)
	return !strings.HasSuffix(key, "/"), nil
}

// Stat implements datasetkit.FileReader. A path with no object of its own
// but with objects below it is reported as a directory.
func (a *Adapter) Stat(ctx context.Context, filePath string) (*datasetkit.FileInfo, error) {
	key := a.key(filePath)

	resp, err := a.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		return &datasetkit.FileInfo{
			Name:    path.Base(key),
			Path:    filePath,
			Size:    aws.ToInt64(resp.ContentLength),
			ModTime: aws.ToTime(resp.LastModified),
			IsDir:   strings.HasSuffix(key, "/"),
		}, nil
	}
	if !isNotFound(err) {
		return nil, mapS3Error("stat", filePath, err)
	}

	isDir, dirErr := a.dirExists(ctx, key)
	if dirErr != nil {
		return nil, mapS3Error("stat", filePath, dirErr)
	}
	if !isDir {
		return nil, mapS3Error("stat", filePath, err)
	}

	return &datasetkit.FileInfo{
		Name:  path.Base(key),
		Path:  filePath,
		IsDir: true,
	}, nil
}

func (a *Adapter) dirExists(ctx context.Context, key string) (bool, error) {
	if !strings.HasSuffix(key, "/") {
		key += "/"
	}

	resp, err := a.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(a.bucket),
		Prefix:  aws.String(key),
		MaxKeys: aws.Int32(1),
	})
	if err != nil {
		return false, err
	}

	return len(resp.Contents) > 0 || len(resp.CommonPrefixes) > 0, nil
}

// ListContents implements datasetkit.FileReader
func (a *Adapter) ListContents(ctx context.Context, dir string, recursive bool) ([]datasetkit.FileInfo, error) {
	listPrefix := a.prefix
	if rel := strings.TrimPrefix(path.Clean("/"+dir), "/"); rel != "" {
		listPrefix += rel + "/"
	}

	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(a.bucket),
		Prefix: aws.String(listPrefix),
	}
	if !recursive {
		// Delimiter groups deeper keys into common prefixes
		input.Delimiter = aws.String("/")
	}

	var files []datasetkit.FileInfo
	paginator := s3.NewListObjectsV2Paginator(a.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, mapS3Error("listcontents", dir, err)
		}

		for _, p := range page.CommonPrefixes {
			relPath := strings.TrimSuffix(strings.TrimPrefix(aws.ToString(p.Prefix), a.prefix), "/")
			if relPath == "" {
				continue
			}
			files = append(files, datasetkit.FileInfo{
				Name:  path.Base(relPath),
				Path:  relPath,
				IsDir: true,
			})
		}

		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			// Skip the directory marker itself
			if key == listPrefix {
				continue
			}

			relPath := strings.TrimPrefix(key, a.prefix)
			isDir := strings.HasSuffix(relPath, "/")
			relPath = strings.TrimSuffix(relPath, "/")

			files = append(files, datasetkit.FileInfo{
				Name:    path.Base(relPath),
				Path:    relPath,
				Size:    aws.ToInt64(obj.Size),
				ModTime: aws.ToTime(obj.LastModified),
				IsDir:   isDir,
			})
		}
	}

	return files, nil
}

func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	var notFound *types.NotFound
	return errors.As(err, &nsk) || errors.As(err, &notFound)
}

// mapS3Error maps S3 errors to datasetkit errors
func mapS3Error(op, filePath string, err error) error {
	if isNotFound(err) {
		return datasetkit.NewPathError(op, filePath, datasetkit.ErrNotExist)
	}
	return datasetkit.NewPathError(op, filePath, err)
}

// ============================================================================
// Watcher Implementation (Polling-based)
// ============================================================================

// Watch implements datasetkit.CanWatch by polling the bucket, since S3 has
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
				datasetkit.Logf("s3: watch %s: %v", pattern, err)
				return false // Can't determine change, don't signal
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
			return false // File was deleted
		}
		if !v.modTime.Equal(bv.modTime) || v.size != bv.size {
			return false // File was modified
		}
	}
	return true
}

// Ensure Adapter implements interfaces
var (
	_ datasetkit.FileReader = (*Adapter)(nil)
	_ datasetkit.CanWatch   = (*Adapter)(nil)
	_ API                   = (*s3.Client)(nil)
)

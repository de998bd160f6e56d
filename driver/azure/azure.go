package azure

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/container"
	"github.com/gobeaver/datasetkit"
)

// Blob describes a blob or, when IsPrefix is set, a virtual directory
type Blob struct {
	Name        string
	IsPrefix    bool
	Size        int64
	ModTime     time.Time
	ContentType string
}

// Container is the subset of an Azure container used by the adapter
type Container interface {
	Download(ctx context.Context, blobName string) (io.ReadCloser, error)
	Properties(ctx context.Context, blobName string) (Blob, error)
	// List returns blobs under prefix. With a delimiter, deeper blobs are
	// grouped into prefix entries.
	List(ctx context.Context, prefix, delimiter string) ([]Blob, error)
}

// containerClient adapts the azblob client to Container
type containerClient struct {
	client *azblob.Client
	name   string
}

func (c containerClient) Download(ctx context.Context, blobName string) (io.ReadCloser, error) {
	resp, err := c.client.DownloadStream(ctx, c.name, blobName, nil)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func (c containerClient) Properties(ctx context.Context, blobName string) (Blob, error) {
	blobClient := c.client.ServiceClient().NewContainerClient(c.name).NewBlobClient(blobName)
	props, err := blobClient.GetProperties(ctx, nil)
	if err != nil {
		return Blob{}, err
	}

	b := Blob{Name: blobName}
	if props.ContentLength != nil {
		b.Size = *props.ContentLength
	}
	if props.LastModified != nil {
		b.ModTime = *props.LastModified
	}
	if props.ContentType != nil {
		b.ContentType = *props.ContentType
	}
	return b, nil
}

func (c containerClient) List(ctx context.Context, prefix, delimiter string) ([]Blob, error) {
	cc := c.client.ServiceClient().NewContainerClient(c.name)
	var blobs []Blob

	if delimiter == "" {
		pager := cc.NewListBlobsFlatPager(&container.ListBlobsFlatOptions{
			Prefix: &prefix,
		})
		for pager.More() {
			resp, err := pager.NextPage(ctx)
			if err != nil {
				return nil, err
			}
			for _, item := range resp.Segment.BlobItems {
				if b, ok := blobFromItem(item); ok {
					blobs = append(blobs, b)
				}
			}
		}
		return blobs, nil
	}

	pager := cc.NewListBlobsHierarchyPager(delimiter, &container.ListBlobsHierarchyOptions{
		Prefix: &prefix,
	})
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, p := range resp.Segment.BlobPrefixes {
			if p.Name != nil {
				blobs = append(blobs, Blob{Name: *p.Name, IsPrefix: true})
			}
		}
		for _, item := range resp.Segment.BlobItems {
			if b, ok := blobFromItem(item); ok {
				blobs = append(blobs, b)
			}
		}
	}
	return blobs, nil
}

func blobFromItem(item *container.BlobItem) (Blob, bool) {
	if item == nil || item.Name == nil {
		return Blob{}, false
	}

	b := Blob{Name: *item.Name}
	if item.Properties != nil {
		if item.Properties.ContentLength != nil {
			b.Size = *item.Properties.ContentLength
		}
		if item.Properties.LastModified != nil {
			b.ModTime = *item.Properties.LastModified
		}
		if item.Properties.ContentType != nil {
			b.ContentType = *item.Properties.ContentType
		}
	}
	return b, true
}

// Adapter reads dataset files from an Azure Blob Storage container
type Adapter struct {
	container    Container
	prefix       string
	pollInterval time.Duration
}

// AdapterOption is a function that configures Azure Adapter
type AdapterOption func(*Adapter)

// WithPrefix sets the prefix for Azure blobs
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

// WithPollInterval sets how often Watch lists the container
func WithPollInterval(interval time.Duration) AdapterOption {
	return func(a *Adapter) {
		a.pollInterval = interval
	}
}

// New creates a new Azure Blob Storage source adapter
func New(client *azblob.Client, containerName string, options ...AdapterOption) *Adapter {
	return NewWithContainer(containerClient{client: client, name: containerName}, options...)
}

// NewWithContainer creates an adapter over any Container implementation
func NewWithContainer(c Container, options ...AdapterOption) *Adapter {
	adapter := &Adapter{
		container:    c,
		pollInterval: 30 * time.Second,
	}

	// Apply options
	for _, option := range options {
		option(adapter)
	}

	return adapter
}

// blobName maps a source path to a blob name
func (a *Adapter) blobName(filePath string) string {
	return a.prefix + strings.TrimPrefix(path.Clean("/"+filePath), "/")
}

// Read implements datasetkit.FileReader
func (a *Adapter) Read(ctx context.Context, filePath string) (io.ReadCloser, error) {
	body, err := a.container.Download(ctx, a.blobName(filePath))
	if err != nil {
		return nil, mapAzureError("read", filePath, err)
	}

	return body, nil
}

// FileExists checks if a file exists (not a directory)
func (a *Adapter) FileExists(ctx context.Context, filePath string) (bool, error) {
	props, err := a.container.Properties(ctx, a.blobName(filePath))
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, mapAzureError("fileexists", filePath, err)
	}

	return !isDirBlob(props), nil
}

// Stat implements datasetkit.FileReader. A path with no blob of its own but
// with blobs below it is reported as a directory.
func (a *Adapter) Stat(ctx context.Context, filePath string) (*datasetkit.FileInfo, error) {
	name := a.blobName(filePath)

	props, err := a.container.Properties(ctx, name)
	if err == nil {
		return &datasetkit.FileInfo{
			Name:    path.Base(name),
			Path:    filePath,
			Size:    props.Size,
			ModTime: props.ModTime,
			IsDir:   isDirBlob(props),
		}, nil
	}
	if !isNotFound(err) {
		return nil, mapAzureError("stat", filePath, err)
	}

	below, listErr := a.container.List(ctx, strings.TrimSuffix(name, "/")+"/", "/")
	if listErr != nil {
		return nil, mapAzureError("stat", filePath, listErr)
	}
	if len(below) == 0 {
		return nil, mapAzureError("stat", filePath, err)
	}

	return &datasetkit.FileInfo{
		Name:  path.Base(name),
		Path:  filePath,
		IsDir: true,
	}, nil
}

// ListContents lists files and directories at the given path with optional recursion
func (a *Adapter) ListContents(ctx context.Context, dirPath string, recursive bool) ([]datasetkit.FileInfo, error) {
	listPrefix := a.prefix
	if rel := strings.TrimPrefix(path.Clean("/"+dirPath), "/"); rel != "" {
		listPrefix += rel + "/"
	}

	delimiter := "/"
	if recursive {
		delimiter = ""
	}

	blobs, err := a.container.List(ctx, listPrefix, delimiter)
	if err != nil {
		return nil, mapAzureError("listcontents", dirPath, err)
	}

	var files []datasetkit.FileInfo
	for _, b := range blobs {
		// Skip the directory marker itself
		if b.Name == listPrefix {
			continue
		}

		relPath := strings.TrimPrefix(b.Name, a.prefix)
		isDir := b.IsPrefix || isDirBlob(b)
		relPath = strings.TrimSuffix(relPath, "/")
		if relPath == "" {
			continue
		}

		files = append(files, datasetkit.FileInfo{
			Name:    path.Base(relPath),
			Path:    relPath,
			Size:    b.Size,
			ModTime: b.ModTime,
			IsDir:   isDir,
		})
	}

	return files, nil
}

// isDirBlob reports whether b is a directory marker
func isDirBlob(b Blob) bool {
	return strings.HasSuffix(b.Name, "/") || b.ContentType == "application/x-directory"
}

func isNotFound(err error) bool {
	if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) {
		return true
	}
	var respErr *azcore.ResponseError
	return errors.As(err, &respErr) && respErr.StatusCode == http.StatusNotFound
}

// mapAzureError maps Azure errors to datasetkit errors
func mapAzureError(op, filePath string, err error) error {
	if isNotFound(err) {
		return datasetkit.NewPathError(op, filePath, datasetkit.ErrNotExist)
	}

	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) && respErr.StatusCode == http.StatusForbidden {
		return datasetkit.NewPathError(op, filePath, datasetkit.ErrPermission)
	}

	return datasetkit.NewPathError(op, filePath, err)
}

// Watch implements datasetkit.CanWatch by polling the container, since Blob
// Storage has no native change events here. The pattern is matched like
// datasetkit.Glob.
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
				datasetkit.Logf("azure: watch %s: %v", pattern, err)
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

package datasetkit

import (
	"context"
	"io"
	"time"
)

// FileInfo represents file/directory metadata
type FileInfo struct {
	Name    string
	Path    string
	Size    int64
	ModTime time.Time
	IsDir   bool
}

// FileReader provides read-only access to a source of dataset files.
// Drivers under driver/ implement it.
type FileReader interface {
	// Read returns a stream for reading file content.
	Read(ctx context.Context, path string) (io.ReadCloser, error)

	// FileExists checks if a file exists at path.
	FileExists(ctx context.Context, path string) (bool, error)

	// Stat returns file/directory metadata.
	Stat(ctx context.Context, path string) (*FileInfo, error)

	// ListContents lists directory contents.
	// If recursive is true, includes all descendants.
	ListContents(ctx context.Context, path string, recursive bool) ([]FileInfo, error)
}

// ============================================================================
// Watch Interface
// ============================================================================

// ChangeToken signals that watched files changed.
// Tokens are single-use: once changed, a new token must be requested.
type ChangeToken interface {
	// HasChanged returns true if a change has occurred.
	// Once true, it remains true.
	HasChanged() bool

	// RegisterChangeCallback registers a callback to be invoked when change occurs.
	// If the token has already changed the callback runs immediately.
	// Returns a function to unregister the callback.
	RegisterChangeCallback(callback func()) (unregister func())
}

// CanWatch indicates the source supports file change notifications.
// Not all sources support watching - check with type assertion.
//
// Example:
//
//	if watcher, ok := src.(CanWatch); ok {
//	    token, err := watcher.Watch(ctx, "**/*.json")
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    token.RegisterChangeCallback(func() {
//	        revalidate()
//	    })
//	}
type CanWatch interface {
	// Watch creates a change token for the specified filter pattern.
	// Supports glob patterns: "**/*.json", "annotations/*", "*.csv", etc.
	// The token signals when any matching file is created, modified, or deleted.
	Watch(ctx context.Context, pattern string) (ChangeToken, error)
}

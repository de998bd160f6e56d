package sftp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/gobeaver/datasetkit"
	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

// Adapter reads dataset files from an SFTP server. The connection is
// re-established on the next call once it is found dead.
type Adapter struct {
	mu           sync.Mutex
	client       *sftp.Client
	conn         io.Closer
	dial         func() (*sftp.Client, io.Closer, error)
	basePath     string
	pollInterval time.Duration
}

// Config holds SFTP connection configuration
type Config struct {
	Host       string
	Port       int
	Username   string
	Password   string
	PrivateKey []byte // PEM encoded private key
	BasePath   string
}

// AdapterOption is a function that configures SFTP Adapter
type AdapterOption func(*Adapter)

// WithBasePath sets the base path for SFTP operations
func WithBasePath(basePath string) AdapterOption {
	return func(a *Adapter) {
		a.basePath = basePath
	}
}

// WithPollInterval sets how often Watch walks the tree
func WithPollInterval(interval time.Duration) AdapterOption {
	return func(a *Adapter) {
		a.pollInterval = interval
	}
}

// New connects to the server described by cfg
func New(cfg Config, options ...AdapterOption) (*Adapter, error) {
	adapter := &Adapter{
		dial:         sshDialer(cfg),
		basePath:     cfg.BasePath,
		pollInterval: 30 * time.Second,
	}

	// Apply options
	for _, option := range options {
		option(adapter)
	}

	if err := adapter.ensureConnected(); err != nil {
		return nil, err
	}

	return adapter, nil
}

// NewWithClient creates an adapter over an established SFTP session. The
// adapter does not reconnect it.
func NewWithClient(client *sftp.Client, options ...AdapterOption) *Adapter {
	adapter := &Adapter{
		client:       client,
		pollInterval: 30 * time.Second,
	}

	for _, option := range options {
		option(adapter)
	}

	return adapter
}

// sshDialer returns a function that opens SSH and SFTP connections
func sshDialer(cfg Config) func() (*sftp.Client, io.Closer, error) {
	return func() (*sftp.Client, io.Closer, error) {
		sshConfig := &ssh.ClientConfig{
			User:            cfg.Username,
			HostKeyCallback: ssh.InsecureIgnoreHostKey(), // TODO: verify against known_hosts
		}

		// Add authentication method
		if len(cfg.PrivateKey) > 0 {
			signer, err := ssh.ParsePrivateKey(cfg.PrivateKey)
			if err != nil {
				return nil, nil, fmt.Errorf("failed to parse private key: %w", err)
			}
			sshConfig.Auth = append(sshConfig.Auth, ssh.PublicKeys(signer))
		}

		if cfg.Password != "" {
			sshConfig.Auth = append(sshConfig.Auth, ssh.Password(cfg.Password))
		}

		if len(sshConfig.Auth) == 0 {
			return nil, nil, fmt.Errorf("no authentication method provided")
		}

		port := cfg.Port
		if port == 0 {
			port = 22
		}

		sshConn, err := ssh.Dial("tcp", fmt.Sprintf("%s:%d", cfg.Host, port), sshConfig)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to SSH: %w", err)
		}

		client, err := sftp.NewClient(sshConn)
		if err != nil {
			sshConn.Close()
			return nil, nil, fmt.Errorf("failed to create SFTP client: %w", err)
		}

		return client, sshConn, nil
	}
}

// Close closes the SFTP and SSH connections
func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	var errs []error

	if a.client != nil {
		if err := a.client.Close(); err != nil {
			errs = append(errs, err)
		}
		a.client = nil
	}

	if a.conn != nil {
		if err := a.conn.Close(); err != nil {
			errs = append(errs, err)
		}
		a.conn = nil
	}

	return errors.Join(errs...)
}

// ensureConnected returns a live client, reconnecting when possible
func (a *Adapter) ensureConnected() error {
	_, err := a.session()
	return err
}

func (a *Adapter) session() (*sftp.Client, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.client != nil {
		// Test connection with a simple operation
		if _, err := a.client.Getwd(); err == nil {
			return a.client, nil
		}
		if a.dial == nil {
			return nil, errors.New("sftp connection lost")
		}
		a.client.Close()
		if a.conn != nil {
			a.conn.Close()
		}
		a.client, a.conn = nil, nil
	}

	if a.dial == nil {
		return nil, errors.New("sftp adapter is closed")
	}

	client, conn, err := a.dial()
	if err != nil {
		return nil, err
	}
	a.client, a.conn = client, conn
	return client, nil
}

// fullPath maps a source path below the base path; ".." cannot climb out
func (a *Adapter) fullPath(relativePath string) string {
	cleanPath := path.Clean("/" + strings.ReplaceAll(relativePath, "\\", "/"))
	if a.basePath == "" {
		if cleanPath == "/" {
			return "."
		}
		return strings.TrimPrefix(cleanPath, "/")
	}
	return path.Join(a.basePath, cleanPath)
}

// relPath returns the source path for p, slash-separated and without a leading slash
func relPath(p string) string {
	return strings.TrimPrefix(path.Clean("/"+strings.ReplaceAll(p, "\\", "/")), "/")
}

// Read implements datasetkit.FileReader
func (a *Adapter) Read(ctx context.Context, filePath string) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	client, err := a.session()
	if err != nil {
		return nil, datasetkit.NewPathError("read", filePath, err)
	}

	file, err := client.Open(a.fullPath(filePath))
	if err != nil {
		return nil, mapSFTPError("read", filePath, err)
	}

	return file, nil
}

// FileExists implements datasetkit.FileReader
func (a *Adapter) FileExists(ctx context.Context, filePath string) (bool, error) {
	select {
	case <-ctx.Done():
		return false, ctx.Err()
	default:
	}

	client, err := a.session()
	if err != nil {
		return false, datasetkit.NewPathError("fileexists", filePath, err)
	}

	info, err := client.Stat(a.fullPath(filePath))
	if err != nil {
		if isNotExist(err) {
			return false, nil
		}
		return false, mapSFTPError("fileexists", filePath, err)
	}

	// Check if it's a file, not a directory
	return !info.IsDir(), nil
}

// Stat implements datasetkit.FileReader
func (a *Adapter) Stat(ctx context.Context, filePath string) (*datasetkit.FileInfo, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	client, err := a.session()
	if err != nil {
		return nil, datasetkit.NewPathError("stat", filePath, err)
	}

	info, err := client.Stat(a.fullPath(filePath))
	if err != nil {
		return nil, mapSFTPError("stat", filePath, err)
	}

	rel := relPath(filePath)
	return &datasetkit.FileInfo{
		Name:    path.Base("/" + rel),
		Path:    rel,
		Size:    info.Size(),
		ModTime: info.ModTime(),
		IsDir:   info.IsDir(),
	}, nil
}

// ListContents implements datasetkit.FileReader
func (a *Adapter) ListContents(ctx context.Context, dir string, recursive bool) ([]datasetkit.FileInfo, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	client, err := a.session()
	if err != nil {
		return nil, datasetkit.NewPathError("listcontents", dir, err)
	}

	fullPath := a.fullPath(dir)

	// Check if path exists and is a directory
	info, err := client.Stat(fullPath)
	if err != nil {
		return nil, mapSFTPError("listcontents", dir, err)
	}
	if !info.IsDir() {
		return nil, datasetkit.NewPathError("listcontents", dir, datasetkit.ErrNotDir)
	}

	var files []datasetkit.FileInfo
	if err := a.list(ctx, client, fullPath, relPath(dir), recursive, &files); err != nil {
		return nil, mapSFTPError("listcontents", dir, err)
	}

	return files, nil
}

// list appends the entries of fullPath, descending into subdirectories when
// recursive is set
func (a *Adapter) list(ctx context.Context, client *sftp.Client, fullPath, rel string, recursive bool, results *[]datasetkit.FileInfo) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	entries, err := client.ReadDir(fullPath)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		entryRel := path.Join(rel, entry.Name())
		*results = append(*results, datasetkit.FileInfo{
			Name:    entry.Name(),
			Path:    entryRel,
			Size:    entry.Size(),
			ModTime: entry.ModTime(),
			IsDir:   entry.IsDir(),
		})

		if recursive && entry.IsDir() {
			if err := a.list(ctx, client, path.Join(fullPath, entry.Name()), entryRel, true, results); err != nil {
				return err
			}
		}
	}

	return nil
}

// isNotExist reports a missing path; the client normalises status codes to os errors
func isNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}

// mapSFTPError maps SFTP errors to datasetkit errors
func mapSFTPError(op, filePath string, err error) error {
	if isNotExist(err) {
		return datasetkit.NewPathError(op, filePath, datasetkit.ErrNotExist)
	}

	if errors.Is(err, os.ErrPermission) {
		return datasetkit.NewPathError(op, filePath, datasetkit.ErrPermission)
	}

	return datasetkit.NewPathError(op, filePath, err)
}

// Watch implements datasetkit.CanWatch by polling, since SFTP has no change
// notifications. The pattern is matched like datasetkit.Glob.
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
				datasetkit.Logf("sftp: watch %s: %v", pattern, err)
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

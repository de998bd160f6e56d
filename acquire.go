package datasetkit

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"unicode/utf8"
)

// utf8BOM is stripped from the start of decoded text
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Document is a dataset file read as text
type Document struct {
	// Name is the base name used for format dispatch and messages
	Name string

	// Path is the path within the source
	Path string

	// Text is the decoded UTF-8 content
	Text string

	// Size is the raw size in bytes
	Size int64

	// Fingerprint identifies (Name, Text); see Fingerprint
	Fingerprint string
}

// Acquirer reads dataset files from a source and decodes them as text
type Acquirer struct {
	// MaxFileSize limits the bytes read (0 = unlimited)
	MaxFileSize int64

	// RequireUTF8 rejects files with invalid UTF-8 instead of replacing
	// the bad sequences with U+FFFD
	RequireUTF8 bool
}

// NewAcquirer creates an Acquirer with limits taken from cfg
func NewAcquirer(cfg *Config) *Acquirer {
	return &Acquirer{
		MaxFileSize: cfg.MaxFileSize,
		RequireUTF8: cfg.RequireUTF8,
	}
}

// Acquire reads the file at p from src. Every failure is returned as an
// *AcquisitionError; an empty path yields ErrNoFile unwrapped.
func (a *Acquirer) Acquire(ctx context.Context, src FileReader, p string) (Document, error) {
	if strings.TrimSpace(p) == "" {
		return Document{}, ErrNoFile
	}

	data, err := a.read(ctx, src, p)
	if err != nil {
		return Document{}, &AcquisitionError{Path: p, Err: err}
	}

	text, err := a.decode(data)
	if err != nil {
		return Document{}, &AcquisitionError{Path: p, Err: NewPathError("decode", p, err)}
	}

	name := path.Base(strings.ReplaceAll(p, "\\", "/"))
	return Document{
		Name:        name,
		Path:        p,
		Text:        text,
		Size:        int64(len(data)),
		Fingerprint: Fingerprint(name, text),
	}, nil
}

func (a *Acquirer) read(ctx context.Context, src FileReader, p string) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if src == nil {
		return nil, NewPathError("read", p, ErrNotSupported)
	}

	info, err := src.Stat(ctx, p)
	if err != nil {
		return nil, err
	}
	if info.IsDir {
		return nil, NewPathError("read", p, ErrIsDir)
	}
	if a.MaxFileSize > 0 && info.Size > a.MaxFileSize {
		return nil, NewPathError("read", p, fmt.Errorf("%w: %d bytes (max: %d bytes)", ErrTooLarge, info.Size, a.MaxFileSize))
	}

	rc, err := src.Read(ctx, p)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var r io.Reader = rc
	if a.MaxFileSize > 0 {
		// the size can change between Stat and Read
		r = io.LimitReader(rc, a.MaxFileSize+1)
	}

	data, err := io.ReadAll(&contextReader{ctx: ctx, r: r})
	if err != nil {
		return nil, NewPathError("read", p, err)
	}
	if a.MaxFileSize > 0 && int64(len(data)) > a.MaxFileSize {
		return nil, NewPathError("read", p, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, a.MaxFileSize))
	}

	return data, nil
}

func (a *Acquirer) decode(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return string(data), nil
	}
	if a.RequireUTF8 {
		return "", ErrNotText
	}
	return strings.ToValidUTF8(string(data), "�"), nil
}

// contextReader stops a read loop once ctx is done
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

// IsNoFile reports whether err means no file was chosen
func IsNoFile(err error) bool {
	return errors.Is(err, ErrNoFile)
}

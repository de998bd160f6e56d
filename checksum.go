package datasetkit

import (
	"encoding/hex"
	"fmt"
	"io"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint identifies a (filename, text) pair. Validation only depends on
// these two inputs, so equal fingerprints imply equal verdicts.
func Fingerprint(filename, text string) string {
	h := xxhash.New()
	_, _ = h.WriteString(filename)
	_, _ = h.Write([]byte{0})
	_, _ = h.WriteString(text)
	return hex.EncodeToString(h.Sum(nil))
}

// CalculateChecksum reads from the reader and returns its hex-encoded xxHash
func CalculateChecksum(r io.Reader) (string, error) {
	h := xxhash.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("failed to calculate checksum: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

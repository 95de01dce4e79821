package pipeline

import (
	"bytes"
	"strings"

	"github.com/nerrad567/knxgraph-core/internal/commissioning/etsimport"
)

// Default upload limits.
const (
	DefaultMaxArchiveBytes      = 200 << 20
	DefaultMaxUncompressedBytes = 600 << 20
)

// Limits bounds accepted uploads. Zero fields use the defaults.
type Limits struct {
	MaxArchiveBytes      int64
	MaxUncompressedBytes int64
}

func (l Limits) withDefaults() Limits {
	if l.MaxArchiveBytes <= 0 {
		l.MaxArchiveBytes = DefaultMaxArchiveBytes
	}
	if l.MaxUncompressedBytes <= 0 {
		l.MaxUncompressedBytes = DefaultMaxUncompressedBytes
	}
	return l
}

var zipSignatures = [][]byte{
	[]byte("PK\x03\x04"),
	[]byte("PK\x05\x06"),
	[]byte("PK\x07\x08"),
}

// ValidateUpload checks, in order, the archive size, the .knxproj
// extension, the ZIP signature and the declared uncompressed size of
// the top-level entries.
func ValidateUpload(filename string, data []byte, limits Limits) error {
	limits = limits.withDefaults()

	if int64(len(data)) > limits.MaxArchiveBytes {
		return &ValidationError{
			Kind: ErrArchiveTooLarge,
			Size: uint64(len(data)),
			Max:  uint64(limits.MaxArchiveBytes), //nolint:gosec // Positive after withDefaults
		}
	}
	if !strings.HasSuffix(strings.ToLower(filename), ".knxproj") {
		return &ValidationError{Kind: ErrInvalidFileFormat, Filename: filename}
	}
	if !hasZipSignature(data) {
		return &ValidationError{Kind: ErrInvalidArchive}
	}

	archive, err := etsimport.OpenArchive(data, "")
	if err != nil {
		return &ValidationError{Kind: ErrInvalidArchive, Detail: err.Error()}
	}
	if size, limit := archive.UncompressedSize(), uint64(limits.MaxUncompressedBytes); size > limit { //nolint:gosec // Positive after withDefaults
		return &ValidationError{Kind: ErrUncompressedTooLarge, Size: size, Max: limit}
	}
	return nil
}

func hasZipSignature(data []byte) bool {
	if len(data) < 4 {
		return false
	}
	for _, sig := range zipSignatures {
		if bytes.Equal(data[:4], sig) {
			return true
		}
	}
	return false
}

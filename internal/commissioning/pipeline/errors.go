package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/nerrad567/knxgraph-core/internal/commissioning/etsimport"
)

// Upload validation failures. ValidationError wraps one of these.
var (
	ErrArchiveTooLarge      = errors.New("pipeline: file too large")
	ErrInvalidFileFormat    = errors.New("pipeline: invalid file format")
	ErrInvalidArchive       = errors.New("pipeline: invalid or corrupted ZIP archive")
	ErrUncompressedTooLarge = errors.New("pipeline: uncompressed data too large")
)

// ValidationError describes a rejected upload.
type ValidationError struct {
	Kind     error
	Filename string
	Size     uint64
	Max      uint64
	Detail   string
}

func (e *ValidationError) Error() string {
	switch {
	case e.Max > 0:
		return fmt.Sprintf("%v (%d bytes, max %d bytes)", e.Kind, e.Size, e.Max)
	case e.Detail != "":
		return fmt.Sprintf("%v: %s", e.Kind, e.Detail)
	case e.Filename != "":
		return fmt.Sprintf("%v (expected *.knxproj, got %q)", e.Kind, e.Filename)
	default:
		return e.Kind.Error()
	}
}

func (e *ValidationError) Unwrap() error {
	return e.Kind
}

// Error codes carried in history runs, events and metrics.
const (
	CodeFileTooLarge         = "FILE_TOO_LARGE"
	CodeInvalidFileFormat    = "INVALID_FILE_FORMAT"
	CodeInvalidArchive       = "INVALID_ARCHIVE"
	CodeUncompressedTooLarge = "UNCOMPRESSED_TOO_LARGE"
	CodePasswordRequired     = "PASSWORD_REQUIRED"
	CodeInvalidPassword      = "INVALID_PASSWORD"
	CodeMissingDocument      = "MISSING_DOCUMENT"
	CodeInvalidXML           = "INVALID_XML"
	CodeCancelled            = "CANCELLED"
	CodeImportFailed         = "IMPORT_FAILED"
)

// ErrorCode classifies an import error into one of the Code* constants.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrArchiveTooLarge):
		return CodeFileTooLarge
	case errors.Is(err, ErrInvalidFileFormat):
		return CodeInvalidFileFormat
	case errors.Is(err, ErrInvalidArchive), errors.Is(err, etsimport.ErrCorruptArchive):
		return CodeInvalidArchive
	case errors.Is(err, ErrUncompressedTooLarge):
		return CodeUncompressedTooLarge
	case errors.Is(err, etsimport.ErrPasswordRequired):
		return CodePasswordRequired
	case errors.Is(err, etsimport.ErrInvalidPassword):
		return CodeInvalidPassword
	case errors.Is(err, etsimport.ErrMissingDocument):
		return CodeMissingDocument
	case errors.Is(err, etsimport.ErrInvalidXML):
		return CodeInvalidXML
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return CodeCancelled
	default:
		return CodeImportFailed
	}
}

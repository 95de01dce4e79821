package topograph

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fxamacker/cbor/v2"
)

// Format selects the wire encoding used by Encode.
type Format string

// Supported formats.
const (
	FormatJSON Format = "json"
	FormatCBOR Format = "cbor"
)

// ErrUnknownFormat is returned for a format name Encode does not support.
var ErrUnknownFormat = errors.New("unknown output format")

// encMode is the deterministic CBOR encoding mode used for graph output.
var encMode cbor.EncMode

func init() {
	var err error
	encMode, err = cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeRFC3339Nano,
	}.EncMode()
	if err != nil {
		panic("topograph: failed to create CBOR encoder: " + err.Error())
	}
}

// ParseFormat maps a case-insensitive name to a Format. An empty name
// selects JSON.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", string(FormatJSON):
		return FormatJSON, nil
	case string(FormatCBOR):
		return FormatCBOR, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}
}

// Encode writes v to w in the given format. JSON output is indented.
func Encode(w io.Writer, v any, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encoding json: %w", err)
		}
		return nil
	case FormatCBOR:
		if err := encMode.NewEncoder(w).Encode(v); err != nil {
			return fmt.Errorf("encoding cbor: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

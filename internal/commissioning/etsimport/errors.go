package etsimport

import (
	"errors"
	"fmt"
)

// Sentinel errors for ETS import operations.
//
// Archive-level errors abort the import:
//
//	project, err := etsimport.Parse(data, etsimport.Options{})
//	if errors.Is(err, etsimport.ErrPasswordRequired) {
//	    // ask the user for the project password
//	}
var (
	// ErrPasswordRequired indicates the archive is encrypted and no password was supplied.
	ErrPasswordRequired = errors.New("etsimport: encrypted project, password required")

	// ErrInvalidPassword indicates the supplied password does not decrypt the archive.
	ErrInvalidPassword = errors.New("etsimport: invalid project password")

	// ErrCorruptArchive indicates the ZIP container cannot be read.
	ErrCorruptArchive = errors.New("etsimport: corrupt archive")

	// ErrEntryNotFound indicates a named archive entry does not exist.
	ErrEntryNotFound = errors.New("etsimport: archive entry not found")

	// ErrMissingDocument indicates the project or installation document could not be located.
	ErrMissingDocument = errors.New("etsimport: project documents not found")

	// ErrInvalidXML indicates a required document is not well-formed XML.
	ErrInvalidXML = errors.New("etsimport: invalid XML")
)

// Element-level error kinds. These never abort an import; the affected
// element is skipped and an ElementError is recorded as a warning.
var (
	// ErrMissingAttribute indicates a mandatory attribute is absent or empty.
	ErrMissingAttribute = errors.New("missing required attribute")

	// ErrInvalidAttribute indicates an attribute value cannot be parsed.
	ErrInvalidAttribute = errors.New("invalid attribute value")

	// ErrMissingAncestor indicates a mandatory enclosing element is absent.
	ErrMissingAncestor = errors.New("missing ancestor")
)

// Warning codes for non-fatal parse issues.
const (
	WarnMissingAttribute = "MISSING_ATTRIBUTE"
	WarnInvalidAttribute = "INVALID_ATTRIBUTE"
	WarnMissingAncestor  = "MISSING_ANCESTOR"
	WarnMissingCatalog   = "MISSING_CATALOG"
	WarnUnreadableEntry  = "UNREADABLE_ENTRY"
)

// ElementError describes a problem with a single XML element.
type ElementError struct {
	// Kind is one of ErrMissingAttribute, ErrInvalidAttribute or ErrMissingAncestor.
	Kind error

	// Element is the XML tag name.
	Element string

	// ID is the element's Id attribute, if any.
	ID string

	// Attribute is the offending attribute (or the ancestor tag for ErrMissingAncestor).
	Attribute string

	// Value is the rejected raw value for ErrInvalidAttribute.
	Value string

	// Expected describes the accepted format for ErrInvalidAttribute.
	Expected string
}

func (e *ElementError) Error() string {
	switch {
	case errors.Is(e.Kind, ErrInvalidAttribute):
		return fmt.Sprintf("%s: %s %q on %s (expected %s)%s", e.Kind, e.Attribute, e.Value, e.Element, e.Expected, e.idSuffix())
	case errors.Is(e.Kind, ErrMissingAncestor):
		return fmt.Sprintf("%s: %s for %s%s", e.Kind, e.Attribute, e.Element, e.idSuffix())
	default:
		return fmt.Sprintf("%s: %s on %s%s", e.Kind, e.Attribute, e.Element, e.idSuffix())
	}
}

func (e *ElementError) Unwrap() error {
	return e.Kind
}

// code maps the error kind to a warning code.
func (e *ElementError) code() string {
	switch {
	case errors.Is(e.Kind, ErrInvalidAttribute):
		return WarnInvalidAttribute
	case errors.Is(e.Kind, ErrMissingAncestor):
		return WarnMissingAncestor
	default:
		return WarnMissingAttribute
	}
}

func (e *ElementError) idSuffix() string {
	if e.ID == "" {
		return ""
	}
	return " (" + e.ID + ")"
}

// IsPasswordError reports whether err means the project password is missing or wrong.
func IsPasswordError(err error) bool {
	return errors.Is(err, ErrPasswordRequired) || errors.Is(err, ErrInvalidPassword)
}

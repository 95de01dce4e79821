package etsimport

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/yeka/zip"
)

// maxEntryBytes caps the size of a single decompressed entry.
const maxEntryBytes = 512 << 20

// Archive is a read-only view of a ZIP container, optionally protected
// with an ETS project password.
//
// Nested archives opened through OpenNested share the derived password.
type Archive struct {
	reader   *zip.Reader
	files    map[string]*zip.File
	names    []string
	password string // derived ZIP password, empty when none was supplied
}

// OpenArchive opens archive bytes. password is the plaintext project
// password as typed by the user; it may be empty.
func OpenArchive(data []byte, password string) (*Archive, error) {
	derived := ""
	if password != "" {
		derived = DerivePassword(password)
	}
	return openArchive(data, derived)
}

func openArchive(data []byte, derived string) (*Archive, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptArchive, err)
	}

	a := &Archive{
		reader:   reader,
		files:    make(map[string]*zip.File, len(reader.File)),
		names:    make([]string, 0, len(reader.File)),
		password: derived,
	}
	for _, f := range reader.File {
		if strings.HasSuffix(f.Name, "/") {
			continue
		}
		if _, dup := a.files[f.Name]; dup {
			continue
		}
		a.files[f.Name] = f
		a.names = append(a.names, f.Name)
	}
	return a, nil
}

// Names returns entry names in archive order. Directory entries are omitted.
func (a *Archive) Names() []string {
	out := make([]string, len(a.names))
	copy(out, a.names)
	return out
}

// Has reports whether the archive contains the named entry.
func (a *Archive) Has(name string) bool {
	_, ok := a.files[name]
	return ok
}

// Encrypted reports whether any entry in the archive is encrypted.
func (a *Archive) Encrypted() bool {
	for _, f := range a.files {
		if f.IsEncrypted() {
			return true
		}
	}
	return false
}

// UncompressedSize sums the declared uncompressed sizes of all entries,
// saturating at the maximum uint64. Nested archives are not expanded.
func (a *Archive) UncompressedSize() uint64 {
	var total uint64
	for _, f := range a.reader.File {
		if total+f.UncompressedSize64 < total {
			return math.MaxUint64
		}
		total += f.UncompressedSize64
	}
	return total
}

// ReadEntry returns the decompressed (and decrypted) contents of an entry.
//
// An encrypted entry read without a password yields ErrPasswordRequired.
// An encrypted entry whose password check, authentication code or checksum
// fails yields ErrInvalidPassword. Any other failure is ErrCorruptArchive.
func (a *Archive) ReadEntry(name string) ([]byte, error) {
	f, ok := a.files[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, name)
	}

	encrypted := f.IsEncrypted()
	if encrypted {
		if a.password == "" {
			return nil, fmt.Errorf("%w: %s", ErrPasswordRequired, name)
		}
		f.SetPassword(a.password)
	}

	rc, err := f.Open()
	if err != nil {
		if encrypted && isWrongKey(err) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidPassword, name)
		}
		return nil, fmt.Errorf("%w: opening %s: %w", ErrCorruptArchive, name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxEntryBytes+1))
	if err != nil {
		if encrypted && isWrongKey(err) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidPassword, name)
		}
		return nil, fmt.Errorf("%w: reading %s: %w", ErrCorruptArchive, name, err)
	}
	if len(data) > maxEntryBytes {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrCorruptArchive, name, maxEntryBytes)
	}
	return data, nil
}

// isWrongKey reports whether err is how the ZIP reader signals a wrong
// key: AES verifier or HMAC mismatch, or a ZipCrypto CRC mismatch.
func isWrongKey(err error) bool {
	return errors.Is(err, zip.ErrPassword) ||
		errors.Is(err, zip.ErrAuthentication) ||
		errors.Is(err, zip.ErrChecksum)
}

// ReadText reads an entry as text with any leading byte-order mark removed.
func (a *Archive) ReadText(name string) (string, error) {
	data, err := a.ReadEntry(name)
	if err != nil {
		return "", err
	}
	return string(stripBOM(data)), nil
}

// OpenNested opens an entry that is itself a ZIP archive.
func (a *Archive) OpenNested(name string) (*Archive, error) {
	data, err := a.ReadEntry(name)
	if err != nil {
		return nil, err
	}
	nested, err := openArchive(data, a.password)
	if err != nil {
		return nil, fmt.Errorf("nested archive %s: %w", name, err)
	}
	return nested, nil
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func stripBOM(data []byte) []byte {
	return bytes.TrimPrefix(data, utf8BOM)
}

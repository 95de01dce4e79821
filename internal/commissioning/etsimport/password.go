package etsimport

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"unicode/utf16"

	"golang.org/x/crypto/pbkdf2"
)

// ZIP password derivation parameters used by ETS for protected projects.
const (
	passwordSalt       = "21.project.ets.knx.org"
	passwordIterations = 65536
	passwordKeyLength  = 32
)

// DerivePassword turns a user-supplied project password into the password
// that protects the archive entries.
//
// The password is encoded as UTF-16LE, stretched with PBKDF2-HMAC-SHA256
// and base64-encoded (standard alphabet, padded).
func DerivePassword(password string) string {
	units := utf16.Encode([]rune(password))
	encoded := make([]byte, 2*len(units))
	for i, u := range units {
		binary.LittleEndian.PutUint16(encoded[2*i:], u)
	}

	key := pbkdf2.Key(encoded, []byte(passwordSalt), passwordIterations, passwordKeyLength, sha256.New)
	return base64.StdEncoding.EncodeToString(key)
}

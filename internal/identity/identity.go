package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/sha3"
)

// ErrEmptyAppID is returned when a protected ID is requested without an
// application identifier. An empty scope would make protected IDs linkable
// across consumers, defeating their purpose.
var ErrEmptyAppID = errors.New("app id must not be empty")

// protectedIDLen is the byte length of a protected ID before hex encoding.
const protectedIDLen = 32

// Digest returns the SHA3-256 hex digest of a canonical payload.
//
// The 32-bit fingerprint fold is deliberately small and will alias distinct
// payloads eventually; the digest is stored beside it so history comparison
// can detect content drift that the fold misses. It is a content checksum,
// not an authenticator.
func Digest(payload string) string {
	sum := sha3.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// ProtectedID derives a 64-hex-character identifier scoped to appID from a
// fingerprint hash via HKDF-SHA256. Distinct applications obtain unlinkable
// IDs from the same fingerprint, and the derivation is deterministic: the
// same (appID, hash) pair always yields the same ID.
func ProtectedID(appID, hash string) (string, error) {
	if appID == "" {
		return "", ErrEmptyAppID
	}

	kdf := hkdf.New(sha256.New, []byte(hash), nil, []byte(appID))
	out := make([]byte, protectedIDLen)
	if _, err := io.ReadFull(kdf, out); err != nil {
		return "", fmt.Errorf("derive protected id: %w", err)
	}

	return hex.EncodeToString(out), nil
}

package blockcrypt

import (
	"crypto/rand"
	"fmt"
)

const (
	// KeySize is the size of master and session keys in bytes (AES-256).
	KeySize = 32

	// IDSize is the size of a per-file identifier in bytes.
	IDSize = 32

	// TagSize is the authentication tag size in bytes. Every supported
	// cipher suite produces a 16-byte tag, so the on-disk layout is the
	// same regardless of suite.
	TagSize = 16

	// HeaderSize is the size of the masked session-key header that
	// prefixes every encrypted stream.
	HeaderSize = KeySize

	// MinIVSize and MaxIVSize bound the per-block nonce length.
	MinIVSize = 12
	MaxIVSize = 32

	// MinBlockSize is the smallest allowed plaintext block size.
	MinBlockSize = 32
)

// Key is a 256-bit symmetric key. Keys are passed by value so callers
// retain ownership of their copy.
type Key [KeySize]byte

// FileID identifies a file. It is mixed into every block's additional
// authenticated data, so ciphertext copied between files with different
// IDs fails authentication.
type FileID [IDSize]byte

// NewRandomKey returns a key sampled from crypto/rand.
func NewRandomKey() (Key, error) {
	var k Key
	if _, err := rand.Read(k[:]); err != nil {
		return Key{}, fmt.Errorf("failed to generate key: %w", err)
	}
	return k, nil
}

// NewFileID returns a random file identifier.
func NewFileID() (FileID, error) {
	var id FileID
	if _, err := rand.Read(id[:]); err != nil {
		return FileID{}, fmt.Errorf("failed to generate file id: %w", err)
	}
	return id, nil
}

// String returns a short hex prefix of the id for diagnostics.
func (id FileID) String() string {
	return fmt.Sprintf("%x", id[:8])
}

// xorBytes writes a XOR b into dst. All three slices must have the same
// length.
func xorBytes(dst, a, b []byte) {
	for i := range dst {
		dst[i] = a[i] ^ b[i]
	}
}

// isAllZeros reports whether every byte of p is zero. It scans
// ciphertext and IVs, never secrets, so it need not be constant time.
func isAllZeros(p []byte) bool {
	for _, b := range p {
		if b != 0 {
			return false
		}
	}
	return true
}

// zeroize overwrites p with zeros.
func zeroize(p []byte) {
	for i := range p {
		p[i] = 0
	}
}

package blockcrypt

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// newAEAD creates the AEAD for the given suite, key, and nonce size.
//
// AES-GCM accepts any nonce size from MinIVSize to MaxIVSize.
// ChaCha20-Poly1305 accepts 12 bytes, or 24 to select XChaCha20.
// Every returned AEAD has a 16-byte tag, so the block framing is the
// same for all suites.
func newAEAD(suite CipherSuite, key []byte, ivSize int) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, &ValidationError{
			Field:   "key",
			Value:   len(key),
			Message: fmt.Sprintf("key must be %d bytes, got %d", KeySize, len(key)),
		}
	}

	switch suite {
	case CipherAuto, CipherAES256GCM:
		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, fmt.Errorf("failed to create AES cipher: %w", err)
		}
		aead, err := cipher.NewGCMWithNonceSize(block, ivSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create GCM: %w", err)
		}
		return aead, nil

	case CipherChaCha20Poly1305:
		switch ivSize {
		case chacha20poly1305.NonceSize:
			aead, err := chacha20poly1305.New(key)
			if err != nil {
				return nil, fmt.Errorf("failed to create ChaCha20-Poly1305 cipher: %w", err)
			}
			return aead, nil
		case chacha20poly1305.NonceSizeX:
			aead, err := chacha20poly1305.NewX(key)
			if err != nil {
				return nil, fmt.Errorf("failed to create XChaCha20-Poly1305 cipher: %w", err)
			}
			return aead, nil
		default:
			return nil, &ValidationError{
				Field: "IVSize",
				Value: ivSize,
				Message: fmt.Sprintf("chacha20-poly1305 requires a %d or %d byte IV, got %d",
					chacha20poly1305.NonceSize, chacha20poly1305.NonceSizeX, ivSize),
			}
		}

	default:
		return nil, ErrUnsupportedCipher
	}
}

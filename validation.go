package blockcrypt

import (
	"fmt"
)

// Input validation helpers shared by Config.Validate and the stream
// constructors.

// ValidateBuffer checks if a buffer is valid (non-nil and has expected size)
func ValidateBuffer(buf []byte, name string, minSize int) error {
	if buf == nil {
		return &ValidationError{
			Field:   name,
			Message: "buffer cannot be nil",
		}
	}
	if minSize > 0 && len(buf) < minSize {
		return &ValidationError{
			Field:   name,
			Value:   len(buf),
			Message: fmt.Sprintf("buffer too small: got %d bytes, need at least %d bytes", len(buf), minSize),
		}
	}
	return nil
}

// ValidateOffset checks if a stream offset is valid
func ValidateOffset(offset int64, name string) error {
	if offset < 0 {
		return &ValidationError{
			Field:   name,
			Value:   offset,
			Message: "offset cannot be negative",
		}
	}
	return nil
}

// ValidateBlockSize checks if a plaintext block size is valid
func ValidateBlockSize(size int) error {
	if size < MinBlockSize {
		return &ValidationError{
			Field:   "BlockSize",
			Value:   size,
			Message: fmt.Sprintf("block size too small: got %d, minimum is %d", size, MinBlockSize),
		}
	}
	return nil
}

// ValidateIVSize checks if a per-block IV size is valid for a cipher suite
func ValidateIVSize(size int, cipher CipherSuite) error {
	if size < MinIVSize || size > MaxIVSize {
		return &ValidationError{
			Field:   "IVSize",
			Value:   size,
			Message: fmt.Sprintf("IV size too small or too large: got %d, allowed range is %d to %d", size, MinIVSize, MaxIVSize),
		}
	}
	if cipher == CipherChaCha20Poly1305 && size != 12 && size != 24 {
		return &ValidationError{
			Field:   "IVSize",
			Value:   size,
			Message: fmt.Sprintf("IV size %d not supported by %s", size, cipher),
		}
	}
	return nil
}

// ValidateKey checks if a key has the correct size
func ValidateKey(key []byte) error {
	if key == nil {
		return &ValidationError{
			Field:   "key",
			Message: "key cannot be nil",
		}
	}
	if len(key) != KeySize {
		return &ValidationError{
			Field:   "key",
			Value:   len(key),
			Message: fmt.Sprintf("invalid key size: got %d bytes, expected %d bytes", len(key), KeySize),
		}
	}
	return nil
}

package blockcrypt

// CipherSuite represents the AEAD algorithm used for block encryption
type CipherSuite uint8

const (
	// CipherAuto selects the default suite, AES-256-GCM
	CipherAuto CipherSuite = iota
	// CipherAES256GCM uses AES-256 with Galois/Counter Mode
	CipherAES256GCM
	// CipherChaCha20Poly1305 uses ChaCha20 stream cipher with Poly1305 MAC
	CipherChaCha20Poly1305
)

// String returns the string representation of the cipher suite
func (c CipherSuite) String() string {
	switch c {
	case CipherAuto:
		return "auto"
	case CipherAES256GCM:
		return "aes-256-gcm"
	case CipherChaCha20Poly1305:
		return "chacha20-poly1305"
	default:
		return "unknown"
	}
}

const (
	// DefaultBlockSize is the plaintext bytes per block when Config.BlockSize is zero
	DefaultBlockSize = 4096

	// DefaultIVSize is the per-block nonce length when Config.IVSize is zero
	DefaultIVSize = 12
)

// Config controls how a CryptStream frames and encrypts blocks.
// The zero value selects AES-256-GCM with a 4096-byte block, a 12-byte
// IV, and authentication enforced.
type Config struct {
	// Cipher suite to use for block encryption
	Cipher CipherSuite

	// BlockSize is the number of plaintext bytes per block. Minimum 32.
	BlockSize int

	// IVSize is the per-block nonce length in bytes, 12 to 32.
	// ChaCha20-Poly1305 accepts only 12 (or 24 for the X variant).
	IVSize int

	// SkipVerify disables authentication-failure errors on read.
	// Unverified block contents are unspecified. Intended only for
	// forensic recovery of damaged streams.
	SkipVerify bool
}

// withDefaults returns a copy of the config with zero fields filled in.
func (c Config) withDefaults() Config {
	if c.Cipher == CipherAuto {
		c.Cipher = CipherAES256GCM
	}
	if c.BlockSize == 0 {
		c.BlockSize = DefaultBlockSize
	}
	if c.IVSize == 0 {
		c.IVSize = DefaultIVSize
	}
	return c
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if err := ValidateBlockSize(c.BlockSize); err != nil {
		return err
	}
	if err := ValidateIVSize(c.IVSize, c.Cipher); err != nil {
		return err
	}
	switch c.Cipher {
	case CipherAuto, CipherAES256GCM, CipherChaCha20Poly1305:
		return nil
	default:
		return ErrUnsupportedCipher
	}
}

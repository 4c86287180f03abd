// Package blockcrypt provides a block-based authenticated encryption
// layer over any byte-addressable storage stream, presenting a
// plaintext view with random-access read, write, and truncate
// semantics.
//
// # Overview
//
// A CryptStream wraps a Stream (a regular file via FileStream, a
// memory buffer via MemStream, or any custom store) and encrypts each
// fixed-size plaintext block independently with an AEAD cipher. Reads
// and writes at arbitrary offsets are translated into whole-block
// operations, so random access stays O(1) in the stream length.
//
// # Ciphertext Layout
//
// Encrypted streams use the following format:
//   - Header (32 bytes): per-file session key XORed with the master key
//   - Block 0: IV (12-32 bytes) + ciphertext (up to block size) + tag (16 bytes)
//   - Block 1, 2, ... at fixed offsets; only the final block may be short
//
// Each block's additional authenticated data is the 32-byte file id
// followed by the little-endian block number, so ciphertext moved
// between files or between positions fails authentication.
//
// A block region consisting entirely of zero bytes is a sparse hole
// and reads as a full block of plaintext zeros without authentication.
// Real records always carry a non-zero IV.
//
// # Supported Cipher Suites
//
//   - AES-256-GCM (default): hardware accelerated where AES-NI is
//     available, IV sizes 12 to 32 bytes
//   - ChaCha20-Poly1305: 12-byte IV, or 24 bytes for XChaCha20
//
// # Basic Usage
//
//	key, _ := blockcrypt.NewRandomKey()
//	id, _ := blockcrypt.NewFileID()
//
//	f, _ := fs.OpenFile("/data.enc", os.O_RDWR|os.O_CREATE, 0600)
//	stream, err := blockcrypt.New(blockcrypt.NewFileStream(f, false), key, id, blockcrypt.Config{})
//	if err != nil {
//	    panic(err)
//	}
//
//	stream.WriteAt([]byte("secret"), 0)
//	stream.Flush()
//
// # Security Considerations
//
// Protected against:
//   - Disclosure of block contents at rest
//   - Tampering with any block's IV, ciphertext, or tag
//   - Swapping ciphertext blocks between files or positions
//
// Not protected against:
//   - Rollback of individual blocks to earlier authenticated versions
//   - Metadata leakage (stream length, write patterns)
//   - Memory disclosure while a stream is open
//
// Sparse holes decode to zeros without authentication; an attacker who
// can zero a whole block region forces that block to read as zeros.
package blockcrypt

package blockcrypt

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
)

// CryptStream presents a plaintext byte-addressable view over an
// encrypted underlying Stream. Each plaintext block is stored as
// IV + ciphertext + tag after a 32-byte header holding the session key
// masked with the master key.
//
// A CryptStream exclusively owns its underlying stream and must be the
// only open handle on it; callers serialize all operations. Close
// wipes key material but does not flush; call Flush first.
type CryptStream struct {
	*BlockStream

	stream     Stream
	aead       cipher.AEAD
	id         FileID
	sessionKey []byte
	blockSize  int
	ivSize     int
	skipVerify bool

	// Scratch buffers sized at construction; no per-call churn.
	scratch []byte // one underlying block: IV + ciphertext + tag
	aux     []byte // AAD: id + little-endian block number
}

// New opens a CryptStream over underlying. If underlying is empty a
// fresh session key is generated and its masked form is written as the
// header; otherwise the existing header is unmasked with masterKey to
// recover the session key.
//
// Opening an existing stream with the wrong master key succeeds, but
// every subsequent block read fails authentication.
func New(underlying Stream, masterKey Key, id FileID, config Config) (*CryptStream, error) {
	if underlying == nil {
		return nil, &ValidationError{Field: "underlying", Message: ErrNilStream.Error(), Err: ErrNilStream}
	}
	config = config.withDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}

	s := &CryptStream{
		stream:     underlying,
		id:         id,
		blockSize:  config.BlockSize,
		ivSize:     config.IVSize,
		skipVerify: config.SkipVerify,
	}

	var header [HeaderSize]byte
	rc, err := underlying.ReadAt(header[:], 0)
	if err != nil && err != io.EOF {
		return nil, &IOError{Operation: "read", Offset: 0, Err: err}
	}
	switch rc {
	case 0:
		s.sessionKey = make([]byte, KeySize)
		if _, err := rand.Read(s.sessionKey); err != nil {
			return nil, fmt.Errorf("failed to generate session key: %w", err)
		}
		xorBytes(header[:], s.sessionKey, masterKey[:])
		if _, err := underlying.WriteAt(header[:], 0); err != nil {
			return nil, &IOError{Operation: "write", Offset: 0, Err: err}
		}
	case HeaderSize:
		s.sessionKey = make([]byte, KeySize)
		xorBytes(s.sessionKey, header[:], masterKey[:])
	default:
		return nil, &ValidationError{
			Field:   "underlying",
			Value:   rc,
			Message: fmt.Sprintf("invalid header size: got %d bytes, expected %d", rc, HeaderSize),
		}
	}

	s.aead, err = newAEAD(config.Cipher, s.sessionKey, s.ivSize)
	if err != nil {
		return nil, err
	}

	s.scratch = make([]byte, s.underlyingBlockSize())
	s.aux = make([]byte, IDSize+8)

	s.BlockStream, err = NewBlockStream(s, s.blockSize)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// ID returns the file identifier bound into every block's AAD.
func (s *CryptStream) ID() FileID {
	return s.id
}

// underlyingBlockSize is the ciphertext bytes per block.
func (s *CryptStream) underlyingBlockSize() int {
	return s.ivSize + s.blockSize + TagSize
}

// blockAAD fills the scratch AAD buffer for blockNum.
func (s *CryptStream) blockAAD(blockNum int64) []byte {
	copy(s.aux, s.id[:])
	binary.LittleEndian.PutUint64(s.aux[IDSize:], uint64(blockNum))
	return s.aux
}

// ReadBlock decrypts block blockNum into out. An absent or truncated
// record reads as 0 bytes. An all-zero record is a sparse hole and
// decodes to a full block of zeros without authentication.
func (s *CryptStream) ReadBlock(blockNum int64, out []byte) (int, error) {
	ubs := s.underlyingBlockSize()
	off := int64(HeaderSize) + blockNum*int64(ubs)

	rc, err := s.stream.ReadAt(s.scratch, off)
	if err != nil && err != io.EOF {
		return 0, &IOError{Operation: "read", Offset: off, Err: err}
	}
	if rc <= s.ivSize+TagSize {
		return 0, nil
	}
	if rc > ubs {
		return 0, &ValidationError{
			Field:   "underlying",
			Value:   rc,
			Message: "invalid read: underlying stream returned more bytes than requested",
		}
	}

	outSize := rc - s.ivSize - TagSize

	if isAllZeros(s.scratch[:rc]) {
		zeroize(out[:s.blockSize])
		return outSize, nil
	}

	aad := s.blockAAD(blockNum)
	if _, err := s.aead.Open(out[:0], s.scratch[:s.ivSize], s.scratch[s.ivSize:rc], aad); err != nil {
		if !s.skipVerify {
			return 0, &VerificationError{ID: s.id, Offset: blockNum * int64(s.blockSize)}
		}
		// Unverified contents are unspecified; return the record
		// length with the buffer wiped.
		zeroize(out[:outSize])
	}
	return outSize, nil
}

// WriteBlock encrypts in as block blockNum. The IV is resampled until
// non-zero so a real record is never mistaken for a sparse hole.
func (s *CryptStream) WriteBlock(blockNum int64, in []byte) error {
	if len(in) < 1 || len(in) > s.blockSize {
		return &ValidationError{
			Field:   "block",
			Value:   len(in),
			Message: fmt.Sprintf("block payload must be 1 to %d bytes, got %d", s.blockSize, len(in)),
		}
	}

	aad := s.blockAAD(blockNum)
	for {
		if _, err := rand.Read(s.scratch[:s.ivSize]); err != nil {
			return fmt.Errorf("failed to generate IV: %w", err)
		}
		if !isAllZeros(s.scratch[:s.ivSize]) {
			break
		}
	}

	s.aead.Seal(s.scratch[s.ivSize:s.ivSize], s.scratch[:s.ivSize], in, aad)

	n := s.ivSize + len(in) + TagSize
	off := int64(HeaderSize) + blockNum*int64(s.underlyingBlockSize())
	if _, err := s.stream.WriteAt(s.scratch[:n], off); err != nil {
		return &IOError{Operation: "write", Offset: off, Err: err}
	}
	return nil
}

// Size returns the logical plaintext length, derived purely from the
// underlying stream size.
func (s *CryptStream) Size() (int64, error) {
	underlyingSize, err := s.stream.Size()
	if err != nil {
		return 0, err
	}
	if underlyingSize <= HeaderSize {
		return 0, nil
	}
	underlyingSize -= HeaderSize

	ubs := int64(s.underlyingBlockSize())
	numBlocks := underlyingSize / ubs
	residue := underlyingSize % ubs

	size := numBlocks * int64(s.blockSize)
	if residue > int64(s.ivSize+TagSize) {
		size += residue - int64(s.ivSize+TagSize)
	}
	return size, nil
}

// AdjustLogicalSize resizes the underlying stream so that Size returns
// exactly size. A partial final block keeps its IV and tag overhead.
func (s *CryptStream) AdjustLogicalSize(size int64) error {
	bs := int64(s.blockSize)
	numBlocks := size / bs
	residue := size % bs

	target := int64(HeaderSize) + numBlocks*int64(s.underlyingBlockSize())
	if residue > 0 {
		target += residue + int64(s.ivSize+TagSize)
	}
	if err := s.stream.Resize(target); err != nil {
		return &IOError{Operation: "resize", Offset: target, Err: err}
	}
	return nil
}

// Flush forwards to the underlying stream.
func (s *CryptStream) Flush() error {
	return s.stream.Flush()
}

// IsSparse reports the underlying stream's sparseness.
func (s *CryptStream) IsSparse() bool {
	return s.stream.IsSparse()
}

// Close wipes the session key and scratch buffers. It does not flush
// the underlying stream and does not close it; the caller owns both
// concerns. The stream must not be used after Close.
func (s *CryptStream) Close() error {
	zeroize(s.sessionKey)
	zeroize(s.scratch)
	zeroize(s.aux)
	return nil
}

// RotateMasterKey re-masks the session-key header of an existing
// encrypted stream from oldKey to newKey. Block ciphertext is bound to
// the session key, not the master key, so no data is re-encrypted and
// the operation is constant-time in the stream length.
func RotateMasterKey(underlying Stream, oldKey, newKey Key) error {
	if underlying == nil {
		return &ValidationError{Field: "underlying", Message: ErrNilStream.Error(), Err: ErrNilStream}
	}

	var header [HeaderSize]byte
	rc, err := underlying.ReadAt(header[:], 0)
	if err != nil && err != io.EOF {
		return &IOError{Operation: "read", Offset: 0, Err: err}
	}
	if rc != HeaderSize {
		return &ValidationError{
			Field:   "underlying",
			Value:   rc,
			Message: fmt.Sprintf("invalid header size: got %d bytes, expected %d", rc, HeaderSize),
		}
	}

	sessionKey := make([]byte, KeySize)
	defer zeroize(sessionKey)
	xorBytes(sessionKey, header[:], oldKey[:])
	xorBytes(header[:], sessionKey, newKey[:])

	if _, err := underlying.WriteAt(header[:], 0); err != nil {
		return &IOError{Operation: "write", Offset: 0, Err: err}
	}
	return underlying.Flush()
}

package blockcrypt

import (
	"io"
)

// BlockStore supplies whole-block storage to a BlockStream. Block
// numbers start at zero and each block holds BlockStream.blockSize
// plaintext bytes, except the final block which may be short.
type BlockStore interface {
	// ReadBlock reads block blockNum into out, which has room for a
	// full block. It returns the number of bytes in the block: 0 for
	// blocks past the end of the stream, a short count only for the
	// final partial block.
	ReadBlock(blockNum int64, out []byte) (int, error)

	// WriteBlock stores in as the contents of block blockNum.
	// 1 <= len(in) <= block size.
	WriteBlock(blockNum int64, in []byte) error

	// AdjustLogicalSize updates the underlying storage so that a
	// subsequent Size returns exactly size.
	AdjustLogicalSize(size int64) error

	// Size returns the logical length of the stream in bytes.
	Size() (int64, error)

	// Flush commits buffered state to stable storage.
	Flush() error
}

// BlockStream converts arbitrary byte-level reads and writes into
// whole-block operations against a BlockStore. Leading and trailing
// partial blocks are handled by read-modify-write through a scratch
// buffer owned by the stream.
//
// BlockStream is not safe for concurrent use; callers serialize.
type BlockStream struct {
	store     BlockStore
	blockSize int
	scratch   []byte
}

// NewBlockStream creates a byte-level view over store. The store is
// typically the same value that embeds the returned stream.
func NewBlockStream(store BlockStore, blockSize int) (*BlockStream, error) {
	if store == nil {
		return nil, &ValidationError{Field: "store", Message: "block store cannot be nil"}
	}
	if err := ValidateBlockSize(blockSize); err != nil {
		return nil, err
	}
	return &BlockStream{
		store:     store,
		blockSize: blockSize,
		scratch:   make([]byte, blockSize),
	}, nil
}

// BlockSize returns the plaintext bytes per block.
func (s *BlockStream) BlockSize() int {
	return s.blockSize
}

// ReadAt reads len(p) bytes at offset off from the plaintext view.
// It issues at most one ReadBlock per covered block. A read that
// reaches the end of the stream returns the bytes available and io.EOF.
func (s *BlockStream) ReadAt(p []byte, off int64) (int, error) {
	if err := ValidateOffset(off, "offset"); err != nil {
		return 0, err
	}
	if len(p) == 0 {
		return 0, nil
	}

	bs := int64(s.blockSize)
	total := 0
	for len(p) > 0 {
		blockNum := off / bs
		inner := int(off - blockNum*bs)
		want := s.blockSize - inner
		if want > len(p) {
			want = len(p)
		}

		var n int
		var err error
		if inner == 0 && want == s.blockSize {
			n, err = s.store.ReadBlock(blockNum, p[:s.blockSize])
		} else {
			var rc int
			rc, err = s.store.ReadBlock(blockNum, s.scratch)
			if err == nil {
				if rc > inner {
					n = rc - inner
					if n > want {
						n = want
					}
					copy(p, s.scratch[inner:inner+n])
				}
			}
		}
		if err != nil {
			return total, err
		}
		if n == 0 {
			break
		}

		total += n
		p = p[n:]
		off += int64(n)
		if n < want {
			break
		}
	}

	if len(p) > 0 {
		return total, io.EOF
	}
	return total, nil
}

// WriteAt writes len(p) bytes at offset off into the plaintext view,
// extending the stream as needed. A write past the current end
// zero-fills the gap.
func (s *BlockStream) WriteAt(p []byte, off int64) (int, error) {
	if err := ValidateOffset(off, "offset"); err != nil {
		return 0, err
	}
	if len(p) == 0 {
		return 0, nil
	}

	current, err := s.store.Size()
	if err != nil {
		return 0, err
	}
	if off > current {
		if err := s.extend(current, off); err != nil {
			return 0, err
		}
	}
	return s.writeBlocks(p, off)
}

// writeBlocks performs the aligned block writes for WriteAt. Partial
// blocks are read, overlaid, and written back; unread tails of a
// partial block are zero-filled first.
func (s *BlockStream) writeBlocks(p []byte, off int64) (int, error) {
	bs := int64(s.blockSize)
	total := 0
	for len(p) > 0 {
		blockNum := off / bs
		inner := int(off - blockNum*bs)
		cnt := s.blockSize - inner
		if cnt > len(p) {
			cnt = len(p)
		}

		if inner == 0 && cnt == s.blockSize {
			if err := s.store.WriteBlock(blockNum, p[:s.blockSize]); err != nil {
				return total, err
			}
		} else {
			rc, err := s.store.ReadBlock(blockNum, s.scratch)
			if err != nil {
				return total, err
			}
			zeroize(s.scratch[rc:])
			copy(s.scratch[inner:], p[:cnt])
			size := inner + cnt
			if rc > size {
				size = rc
			}
			if err := s.store.WriteBlock(blockNum, s.scratch[:size]); err != nil {
				return total, err
			}
		}

		total += cnt
		p = p[cnt:]
		off += int64(cnt)
	}
	return total, nil
}

// Resize grows or shrinks the plaintext view to exactly size bytes.
// Growth zero-extends; the final partial block, if any, is rewritten so
// its stored record covers the new length.
func (s *BlockStream) Resize(size int64) error {
	if err := ValidateOffset(size, "size"); err != nil {
		return err
	}
	current, err := s.store.Size()
	if err != nil {
		return err
	}
	switch {
	case size == current:
		return nil
	case size < current:
		return s.shrink(size)
	default:
		return s.extend(current, size)
	}
}

// shrink truncates to size. A partial final block is re-stored with
// only the surviving bytes before the underlying storage is cut.
func (s *BlockStream) shrink(size int64) error {
	bs := int64(s.blockSize)
	residue := int(size % bs)
	if residue > 0 {
		blockNum := size / bs
		rc, err := s.store.ReadBlock(blockNum, s.scratch)
		if err != nil {
			return err
		}
		if rc > residue {
			if err := s.store.WriteBlock(blockNum, s.scratch[:residue]); err != nil {
				return err
			}
		}
	}
	return s.store.AdjustLogicalSize(size)
}

// extend grows from current to size. Only the old final partial block
// needs rewriting; whole blocks in the gap are left to the store's
// sparse representation.
func (s *BlockStream) extend(current, size int64) error {
	bs := int64(s.blockSize)
	oldBlock := current / bs
	oldResidue := int(current % bs)
	if oldResidue > 0 {
		rc, err := s.store.ReadBlock(oldBlock, s.scratch)
		if err != nil {
			return err
		}
		zeroize(s.scratch[rc:])
		fillTo := size - oldBlock*bs
		if fillTo > bs {
			fillTo = bs
		}
		if int(fillTo) > rc {
			if err := s.store.WriteBlock(oldBlock, s.scratch[:fillTo]); err != nil {
				return err
			}
		}
	}
	return s.store.AdjustLogicalSize(size)
}

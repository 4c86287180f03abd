package blockcrypt

import (
	"io"

	"github.com/absfs/absfs"
)

// Stream is a byte-addressable store: the ciphertext side of a
// CryptStream, or the plaintext view it presents.
//
// ReadAt and WriteAt follow the io.ReaderAt and io.WriterAt contracts:
// a read that ends at end-of-stream returns the bytes available and
// io.EOF. WriteAt past the current size extends the stream, with the
// gap reading as zeros.
type Stream interface {
	io.ReaderAt
	io.WriterAt

	// Size returns the current length of the stream in bytes.
	Size() (int64, error)

	// Resize grows or shrinks the stream to exactly size bytes.
	// Grown regions read as zeros.
	Resize(size int64) error

	// Flush commits buffered state to stable storage.
	Flush() error

	// IsSparse reports whether zero regions are stored without
	// occupying space.
	IsSparse() bool
}

// FileStream adapts an absfs.File to the Stream interface. The file
// handle is owned by the caller; closing it invalidates the stream.
type FileStream struct {
	file   absfs.File
	sparse bool
}

// NewFileStream wraps an open absfs.File. Set sparse if the backing
// filesystem stores zero ranges as holes.
func NewFileStream(file absfs.File, sparse bool) *FileStream {
	return &FileStream{file: file, sparse: sparse}
}

// ReadAt reads len(p) bytes at offset off, returning io.EOF on a short read.
func (s *FileStream) ReadAt(p []byte, off int64) (int, error) {
	return s.file.ReadAt(p, off)
}

// WriteAt writes len(p) bytes at offset off, extending the file if needed.
func (s *FileStream) WriteAt(p []byte, off int64) (int, error) {
	return s.file.WriteAt(p, off)
}

// Size returns the file size in bytes.
func (s *FileStream) Size() (int64, error) {
	info, err := s.file.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// Resize truncates or extends the file to size bytes.
func (s *FileStream) Resize(size int64) error {
	return s.file.Truncate(size)
}

// Flush syncs the file to stable storage.
func (s *FileStream) Flush() error {
	return s.file.Sync()
}

// IsSparse reports whether the backing filesystem stores holes sparsely.
func (s *FileStream) IsSparse() bool {
	return s.sparse
}

// MemStream is an in-memory Stream backed by a byte slice. It is not
// safe for concurrent use.
type MemStream struct {
	data []byte
}

// NewMemStream returns an empty in-memory stream.
func NewMemStream() *MemStream {
	return &MemStream{}
}

// Bytes returns the backing slice. The slice is only valid until the
// next mutating call.
func (s *MemStream) Bytes() []byte {
	return s.data
}

// ReadAt reads len(p) bytes at offset off, returning io.EOF on a short read.
func (s *MemStream) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, ErrNegativeOffset
	}
	if off >= int64(len(s.data)) {
		return 0, io.EOF
	}
	n := copy(p, s.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// WriteAt writes len(p) bytes at offset off, extending the buffer if needed.
func (s *MemStream) WriteAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, ErrNegativeOffset
	}
	if end := off + int64(len(p)); end > int64(len(s.data)) {
		grown := make([]byte, end)
		copy(grown, s.data)
		s.data = grown
	}
	return copy(s.data[off:], p), nil
}

// Size returns the buffer length in bytes.
func (s *MemStream) Size() (int64, error) {
	return int64(len(s.data)), nil
}

// Resize truncates or zero-extends the buffer to size bytes.
func (s *MemStream) Resize(size int64) error {
	if size < 0 {
		return &ValidationError{Field: "size", Value: size, Message: "size cannot be negative"}
	}
	if size <= int64(len(s.data)) {
		s.data = s.data[:size]
		return nil
	}
	grown := make([]byte, size)
	copy(grown, s.data)
	s.data = grown
	return nil
}

// Flush is a no-op for memory streams.
func (s *MemStream) Flush() error {
	return nil
}

// IsSparse always reports false; zeros occupy memory.
func (s *MemStream) IsSparse() bool {
	return false
}

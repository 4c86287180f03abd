package blockcrypt

import (
	"bytes"
	"io"
	"testing"
)

// memBlockStore is a plaintext BlockStore over a byte slice, used to
// exercise the engine without any cryptography.
type memBlockStore struct {
	blockSize int
	data      []byte
}

func (m *memBlockStore) ReadBlock(blockNum int64, out []byte) (int, error) {
	start := blockNum * int64(m.blockSize)
	if start >= int64(len(m.data)) {
		return 0, nil
	}
	end := start + int64(m.blockSize)
	if end > int64(len(m.data)) {
		end = int64(len(m.data))
	}
	return copy(out, m.data[start:end]), nil
}

func (m *memBlockStore) WriteBlock(blockNum int64, in []byte) error {
	start := blockNum * int64(m.blockSize)
	end := start + int64(len(in))
	if end > int64(len(m.data)) {
		grown := make([]byte, end)
		copy(grown, m.data)
		m.data = grown
	}
	copy(m.data[start:], in)
	return nil
}

func (m *memBlockStore) AdjustLogicalSize(size int64) error {
	if size <= int64(len(m.data)) {
		m.data = m.data[:size]
		return nil
	}
	grown := make([]byte, size)
	copy(grown, m.data)
	m.data = grown
	return nil
}

func (m *memBlockStore) Size() (int64, error) {
	return int64(len(m.data)), nil
}

func (m *memBlockStore) Flush() error {
	return nil
}

func newTestEngine(t *testing.T, blockSize int) (*BlockStream, *memBlockStore) {
	t.Helper()
	store := &memBlockStore{blockSize: blockSize}
	engine, err := NewBlockStream(store, blockSize)
	if err != nil {
		t.Fatalf("NewBlockStream failed: %v", err)
	}
	return engine, store
}

func TestBlockStream_WriteReadAligned(t *testing.T) {
	engine, _ := newTestEngine(t, 64)

	data := bytes.Repeat([]byte{0xAB}, 128)
	if n, err := engine.WriteAt(data, 0); err != nil || n != len(data) {
		t.Fatalf("WriteAt = (%d, %v), want (%d, nil)", n, err, len(data))
	}

	got := make([]byte, 128)
	if n, err := engine.ReadAt(got, 0); err != nil || n != 128 {
		t.Fatalf("ReadAt = (%d, %v), want (128, nil)", n, err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("read data mismatch")
	}
}

func TestBlockStream_PartialBlockOverlay(t *testing.T) {
	engine, _ := newTestEngine(t, 64)

	base := bytes.Repeat([]byte{0x11}, 200)
	if _, err := engine.WriteAt(base, 0); err != nil {
		t.Fatalf("WriteAt failed: %v", err)
	}

	// Overlay a range straddling blocks 0 and 1.
	patch := bytes.Repeat([]byte{0x22}, 50)
	if _, err := engine.WriteAt(patch, 40); err != nil {
		t.Fatalf("WriteAt failed: %v", err)
	}

	want := append([]byte{}, base...)
	copy(want[40:], patch)

	got := make([]byte, 200)
	if _, err := engine.ReadAt(got, 0); err != nil {
		t.Fatalf("ReadAt failed: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("overlay mismatch")
	}
}

func TestBlockStream_GapIsZeroFilled(t *testing.T) {
	engine, _ := newTestEngine(t, 64)

	if _, err := engine.WriteAt([]byte("head"), 0); err != nil {
		t.Fatalf("WriteAt failed: %v", err)
	}
	// Leaves a gap from 4 to 100 spanning into block 1.
	if _, err := engine.WriteAt([]byte("tail"), 100); err != nil {
		t.Fatalf("WriteAt failed: %v", err)
	}

	got := make([]byte, 104)
	if n, err := engine.ReadAt(got, 0); err != nil || n != 104 {
		t.Fatalf("ReadAt = (%d, %v), want (104, nil)", n, err)
	}
	if string(got[:4]) != "head" || string(got[100:]) != "tail" {
		t.Errorf("endpoints corrupted: %q %q", got[:4], got[100:])
	}
	if !isAllZeros(got[4:100]) {
		t.Errorf("gap not zero-filled")
	}
}

func TestBlockStream_ShortReadAtEOF(t *testing.T) {
	engine, _ := newTestEngine(t, 64)

	if _, err := engine.WriteAt([]byte("abc"), 0); err != nil {
		t.Fatalf("WriteAt failed: %v", err)
	}

	got := make([]byte, 10)
	n, err := engine.ReadAt(got, 0)
	if n != 3 || err != io.EOF {
		t.Errorf("ReadAt = (%d, %v), want (3, io.EOF)", n, err)
	}

	n, err = engine.ReadAt(got, 100)
	if n != 0 || err != io.EOF {
		t.Errorf("ReadAt past EOF = (%d, %v), want (0, io.EOF)", n, err)
	}
}

func TestBlockStream_Resize(t *testing.T) {
	tests := []struct {
		name     string
		initial  int
		resizeTo int64
	}{
		{"shrink to mid block", 200, 50},
		{"shrink to block boundary", 200, 128},
		{"grow within block", 50, 60},
		{"grow across blocks", 50, 300},
		{"grow from empty", 0, 100},
		{"shrink to zero", 200, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, _ := newTestEngine(t, 64)

			initial := bytes.Repeat([]byte{0x33}, tt.initial)
			if tt.initial > 0 {
				if _, err := engine.WriteAt(initial, 0); err != nil {
					t.Fatalf("WriteAt failed: %v", err)
				}
			}

			if err := engine.Resize(tt.resizeTo); err != nil {
				t.Fatalf("Resize(%d) failed: %v", tt.resizeTo, err)
			}

			size, err := engine.store.Size()
			if err != nil {
				t.Fatalf("Size failed: %v", err)
			}
			if size != tt.resizeTo {
				t.Fatalf("Size = %d, want %d", size, tt.resizeTo)
			}

			if tt.resizeTo == 0 {
				return
			}
			got := make([]byte, tt.resizeTo)
			if n, err := engine.ReadAt(got, 0); int64(n) != tt.resizeTo || (err != nil && err != io.EOF) {
				t.Fatalf("ReadAt = (%d, %v), want %d bytes", n, err, tt.resizeTo)
			}

			keep := int64(tt.initial)
			if keep > tt.resizeTo {
				keep = tt.resizeTo
			}
			if !bytes.Equal(got[:keep], initial[:keep]) {
				t.Errorf("surviving bytes corrupted")
			}
			if !isAllZeros(got[keep:]) {
				t.Errorf("grown region not zero")
			}
		})
	}
}

func TestBlockStream_NegativeOffset(t *testing.T) {
	engine, _ := newTestEngine(t, 64)

	if _, err := engine.ReadAt(make([]byte, 1), -1); !IsValidationError(err) {
		t.Errorf("ReadAt(-1) = %v, want validation error", err)
	}
	if _, err := engine.WriteAt([]byte("x"), -1); !IsValidationError(err) {
		t.Errorf("WriteAt(-1) = %v, want validation error", err)
	}
	if err := engine.Resize(-1); !IsValidationError(err) {
		t.Errorf("Resize(-1) = %v, want validation error", err)
	}
}

package blockcrypt

import (
	"fmt"
	"io"
	"os"

	"github.com/absfs/absfs"
	"github.com/google/uuid"
)

// LockFileName is the conventional name of the lock file guarding a
// directory of encrypted streams.
const LockFileName = ".blockcrypt.lock"

// Lockfile is an advisory single-opener guard. The block layer assumes
// one CryptStream per underlying stream; a Lockfile lets cooperating
// processes enforce that across a shared backing filesystem.
type Lockfile struct {
	fs    absfs.FileSystem
	path  string
	token string
}

// AcquireLock creates path exclusively and records a fresh ownership
// token in it. It returns ErrLockHeld (wrapped) if the file already
// exists.
func AcquireLock(fs absfs.FileSystem, path string) (*Lockfile, error) {
	f, err := fs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrLockHeld, path, err)
	}

	token := uuid.NewString()
	if _, err := f.WriteString(token); err != nil {
		f.Close()
		fs.Remove(path)
		return nil, fmt.Errorf("failed to write lock token: %w", err)
	}
	if err := f.Close(); err != nil {
		fs.Remove(path)
		return nil, fmt.Errorf("failed to close lock file: %w", err)
	}

	return &Lockfile{fs: fs, path: path, token: token}, nil
}

// Token returns the ownership token stored in the lock file.
func (l *Lockfile) Token() string {
	return l.token
}

// Release removes the lock file. It refuses if the stored token no
// longer matches, which means another process replaced the lock.
func (l *Lockfile) Release() error {
	f, err := l.fs.OpenFile(l.path, os.O_RDONLY, 0)
	if err != nil {
		return fmt.Errorf("failed to open lock file: %w", err)
	}
	stored, err := io.ReadAll(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("failed to read lock file: %w", err)
	}
	if string(stored) != l.token {
		return fmt.Errorf("%w: %s: token mismatch", ErrLockHeld, l.path)
	}
	return l.fs.Remove(l.path)
}

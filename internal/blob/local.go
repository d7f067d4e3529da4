package blob

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"sync"
	"sync/atomic"

	"github.com/spf13/afero"
)

// LocalStore keeps file content in a flat directory on an afero filesystem.
// Keys are sanitized upstream, so a key never escapes the directory; the
// store still refuses anything that does not look like a bare name.
type LocalStore struct {
	mu     sync.Mutex
	fs     afero.Fs
	dir    string
	tmpSeq uint64
}

// NewLocalStore creates the directory if needed.
func NewLocalStore(fs afero.Fs, dir string) (*LocalStore, error) {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &LocalStore{fs: fs, dir: dir}, nil
}

func (s *LocalStore) keyPath(key string) string {
	// Keys are flat tokens; path.Base is a second line of defence.
	return path.Join(s.dir, path.Base(key))
}

func (s *LocalStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	dst := s.keyPath(key)
	tmp := fmt.Sprintf("%s.%d.tmp", dst, atomic.AddUint64(&s.tmpSeq, 1))

	// Write to a temp file first so a reader never opens a half-written
	// object; the rename below swaps it in whole.
	f, err := s.fs.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = s.fs.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = s.fs.Remove(tmp)
		return err
	}

	return s.rename(tmp, dst)
}

func (s *LocalStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.fs.Open(s.keyPath(key))
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (s *LocalStore) Rename(ctx context.Context, oldKey, newKey string) error {
	return s.rename(s.keyPath(oldKey), s.keyPath(newKey))
}

func (s *LocalStore) rename(oldPath, newPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.fs.Stat(oldPath); os.IsNotExist(err) {
		return ErrNotFound
	}
	// Not every afero backend renames over an existing file.
	if _, err := s.fs.Stat(newPath); err == nil {
		if err := s.fs.Remove(newPath); err != nil {
			return err
		}
	}
	return s.fs.Rename(oldPath, newPath)
}

func (s *LocalStore) Remove(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.fs.Remove(s.keyPath(key))
	if os.IsNotExist(err) {
		// Missing content is tolerated on delete.
		return nil
	}
	return err
}

// Ping checks the directory is still there, for health checks.
func (s *LocalStore) Ping(ctx context.Context) error {
	_, err := s.fs.Stat(s.dir)
	return err
}

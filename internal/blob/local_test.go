package blob

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/spf13/afero"
)

func newTestStore(t *testing.T) *LocalStore {
	t.Helper()
	s, err := NewLocalStore(afero.NewMemMapFs(), "data")
	if err != nil {
		t.Fatalf("NewLocalStore error: %v", err)
	}
	return s
}

func TestLocalStorePutGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, "a.txt", strings.NewReader("hello"), 5, "text/plain"); err != nil {
		t.Fatalf("Put error: %v", err)
	}

	rc, err := s.Get(ctx, "a.txt")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	defer func() { _ = rc.Close() }()

	b, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read error: %v", err)
	}
	if string(b) != "hello" {
		t.Fatalf("unexpected content: %q", b)
	}
}

func TestLocalStorePutReplaces(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_ = s.Put(ctx, "a.txt", strings.NewReader("first"), -1, "text/plain")
	if err := s.Put(ctx, "a.txt", strings.NewReader("second"), -1, "text/plain"); err != nil {
		t.Fatalf("Put error: %v", err)
	}

	rc, err := s.Get(ctx, "a.txt")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	b, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(b) != "second" {
		t.Fatalf("expected replaced content, got %q", b)
	}
}

func TestLocalStoreRename(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_ = s.Put(ctx, "staged", strings.NewReader("new"), -1, "text/plain")
	_ = s.Put(ctx, "a.txt", strings.NewReader("old"), -1, "text/plain")

	if err := s.Rename(ctx, "staged", "a.txt"); err != nil {
		t.Fatalf("Rename error: %v", err)
	}

	rc, err := s.Get(ctx, "a.txt")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	b, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(b) != "new" {
		t.Fatalf("expected promoted content, got %q", b)
	}

	// The source key is gone after promotion.
	if _, err := s.Get(ctx, "staged"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound for source key, got %v", err)
	}
}

func TestLocalStoreRenameMissingSource(t *testing.T) {
	s := newTestStore(t)
	if err := s.Rename(context.Background(), "nope", "a.txt"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLocalStorePutLeavesNoTempFile(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, "a.txt", strings.NewReader("hello"), -1, "text/plain"); err != nil {
		t.Fatalf("Put error: %v", err)
	}
	infos, err := afero.ReadDir(s.fs, "data")
	if err != nil {
		t.Fatalf("ReadDir error: %v", err)
	}
	if len(infos) != 1 || infos[0].Name() != "a.txt" {
		t.Fatalf("temp file survived a completed Put: %v", infos)
	}
}

func TestLocalStoreGetMissing(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Get(context.Background(), "nope.txt"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLocalStoreRemoveMissing(t *testing.T) {
	s := newTestStore(t)
	if err := s.Remove(context.Background(), "nope.txt"); err != nil {
		t.Fatalf("expected nil for missing object, got %v", err)
	}
}

func TestLocalStoreKeyCannotEscapeDir(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, "../../etc/passwd", strings.NewReader("x"), -1, ""); err != nil {
		t.Fatalf("Put error: %v", err)
	}
	// The content must land under the store dir, keyed by the base name.
	if _, err := s.Get(ctx, "passwd"); err != nil {
		t.Fatalf("expected object stored under base name, got %v", err)
	}
}

package server

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"

	"fileshare/internal/blob"
	"fileshare/internal/store"
)

// In-memory store fakes for handler tests. Same contracts as the Postgres
// implementations, including idempotent share/revoke and Put clearing shares.

type memUserStore struct {
	mu    sync.Mutex
	users map[string]store.User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: make(map[string]store.User)}
}

func (s *memUserStore) Create(ctx context.Context, u store.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.Username]; ok {
		return store.ErrDuplicateUser
	}
	u.CreatedAt = time.Now()
	s.users[u.Username] = u
	return nil
}

func (s *memUserStore) Get(ctx context.Context, username string) (store.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[username]
	if !ok {
		return store.User{}, store.ErrUserNotFound
	}
	return u, nil
}

func (s *memUserStore) Exists(ctx context.Context, username string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.users[username]
	return ok, nil
}

type memFileStore struct {
	mu    sync.Mutex
	files map[string]store.File
}

func newMemFileStore() *memFileStore {
	return &memFileStore{files: make(map[string]store.File)}
}

func (s *memFileStore) Get(ctx context.Context, name string) (store.File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.files[name]
	if !ok {
		return store.File{}, store.ErrFileNotFound
	}
	out := f
	out.SharedWith = append([]string(nil), f.SharedWith...)
	return out, nil
}

func (s *memFileStore) Put(ctx context.Context, f store.File) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.files[f.Name]; ok && prev.Owner != f.Owner {
		return store.ErrNameTaken
	}
	f.SharedWith = nil // replacing clears shares
	s.files[f.Name] = f
	return nil
}

func (s *memFileStore) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.files[name]; !ok {
		return store.ErrFileNotFound
	}
	delete(s.files, name)
	return nil
}

func (s *memFileStore) ListOwned(ctx context.Context, username string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := []string{}
	for n, f := range s.files {
		if f.Owner == username {
			names = append(names, n)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (s *memFileStore) ListSharedWith(ctx context.Context, username string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := []string{}
	for n, f := range s.files {
		if f.SharedWithContains(username) {
			names = append(names, n)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (s *memFileStore) AddShare(ctx context.Context, name, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.files[name]
	if !ok {
		return store.ErrFileNotFound
	}
	if !f.SharedWithContains(username) {
		f.SharedWith = append(f.SharedWith, username)
		s.files[name] = f
	}
	return nil
}

func (s *memFileStore) RemoveShare(ctx context.Context, name, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.files[name]
	if !ok {
		return nil
	}
	kept := f.SharedWith[:0]
	for _, u := range f.SharedWith {
		if u != username {
			kept = append(kept, u)
		}
	}
	f.SharedWith = kept
	s.files[name] = f
	return nil
}

// testEnv bundles a fully wired handler with direct access to its fakes.
type testEnv struct {
	cfg     Config
	handler http.Handler
	users   *memUserStore
	files   *memFileStore
	blobs   *blob.LocalStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	blobs, err := blob.NewLocalStore(afero.NewMemMapFs(), "data")
	if err != nil {
		t.Fatalf("blob store: %v", err)
	}

	users := newMemUserStore()
	files := newMemFileStore()

	cfg := Config{
		Addr: ":0",
		Auth: AuthConfig{
			SessionSecret: "test-secret-test-secret-test-secret",
			SessionTTL:    1 * time.Hour,
		},
		Users: users,
		Files: files,
		Blobs: blobs,
	}

	return &testEnv{
		cfg:     cfg,
		handler: New(cfg).Handler(),
		users:   users,
		files:   files,
		blobs:   blobs,
	}
}

// token issues a session token for username without going through /api/login.
func (e *testEnv) token(t *testing.T, username string) string {
	t.Helper()
	tok, _, err := e.cfg.Auth.makeToken(username)
	if err != nil {
		t.Fatalf("makeToken: %v", err)
	}
	return tok
}

// register creates a user directly in the store with the given password.
func (e *testEnv) register(t *testing.T, username, password string) {
	t.Helper()
	hash, err := hashPassword(password)
	if err != nil {
		t.Fatalf("hashPassword: %v", err)
	}
	if err := e.users.Create(context.Background(), store.User{Username: username, PasswordHash: hash}); err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
}

// do runs a request through the full middleware-wrapped handler.
func (e *testEnv) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	e.handler.ServeHTTP(rr, req)
	return rr
}

// upload performs a multipart upload as username and returns the recorder.
func (e *testEnv) upload(t *testing.T, username, filename, content string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := fw.Write([]byte(content)); err != nil {
		t.Fatalf("write part: %v", err)
	}
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/files/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+e.token(t, username))
	return e.do(t, req)
}

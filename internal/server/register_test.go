package server

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
)

func postRegister(t *testing.T, e *testEnv, username, password string) int {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"username": username, "password": password})
	return e.do(t, jsonRequest(http.MethodPost, "/api/register", body)).Code
}

func TestRegister(t *testing.T) {
	e := newTestEnv(t)

	if code := postRegister(t, e, "alice", "pw1"); code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", code)
	}
	if code := postRegister(t, e, "", "pw"); code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty username, got %d", code)
	}
	if code := postRegister(t, e, "bob", ""); code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty password, got %d", code)
	}
	if code := postRegister(t, e, "bad/name", "pw"); code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unsafe username, got %d", code)
	}
}

func TestRegisterDuplicateKeepsFirstCredential(t *testing.T) {
	e := newTestEnv(t)

	if code := postRegister(t, e, "alice", "first-password"); code != http.StatusCreated {
		t.Fatalf("first register: expected 201, got %d", code)
	}
	if code := postRegister(t, e, "alice", "second-password"); code != http.StatusBadRequest {
		t.Fatalf("second register: expected 400, got %d", code)
	}

	// The stored credential must still be the first one's.
	u, err := e.users.Get(context.Background(), "alice")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if !verifyPassword("first-password", u.PasswordHash) {
		t.Fatalf("first password no longer verifies")
	}
	if verifyPassword("second-password", u.PasswordHash) {
		t.Fatalf("second password must not verify")
	}
}

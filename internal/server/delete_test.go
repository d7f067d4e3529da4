package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func doDelete(t *testing.T, e *testEnv, username, filename string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodDelete, "/api/files/delete/"+filename, nil)
	req.Header.Set("Authorization", "Bearer "+e.token(t, username))
	return e.do(t, req)
}

func TestDeleteOwnerOnly(t *testing.T) {
	e := newTestEnv(t)
	setupSharedFile(t, e)

	if rr := doDelete(t, e, "carol", "a.txt"); rr.Code != http.StatusForbidden {
		t.Fatalf("non-owner delete: expected 403, got %d", rr.Code)
	}
	if rr := doDelete(t, e, "alice", "a.txt"); rr.Code != http.StatusOK {
		t.Fatalf("owner delete: expected 200, got %d (%s)", rr.Code, rr.Body.String())
	}
}

func TestDeleteRemovesRecordAndContent(t *testing.T) {
	e := newTestEnv(t)
	setupSharedFile(t, e)

	if rr := doDelete(t, e, "alice", "a.txt"); rr.Code != http.StatusOK {
		t.Fatalf("delete: %d", rr.Code)
	}
	if rr := getDownload(t, e, "alice", "a.txt"); rr.Code != http.StatusNotFound {
		t.Fatalf("download after delete: expected 404, got %d", rr.Code)
	}
	// Repeated delete is NotFound, not idempotent success.
	if rr := doDelete(t, e, "alice", "a.txt"); rr.Code != http.StatusNotFound {
		t.Fatalf("second delete: expected 404, got %d", rr.Code)
	}
}

func TestDeleteUnknownFile(t *testing.T) {
	e := newTestEnv(t)
	e.register(t, "alice", "pw")

	if rr := doDelete(t, e, "alice", "missing.txt"); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

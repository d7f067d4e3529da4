package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHomeBanner(t *testing.T) {
	e := newTestEnv(t)

	rr := e.do(t, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["status"] != "running" {
		t.Fatalf("expected running status, got %v", resp["status"])
	}
}

func TestUnknownPath(t *testing.T) {
	e := newTestEnv(t)
	if rr := e.do(t, httptest.NewRequest(http.MethodGet, "/nope", nil)); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestHealth(t *testing.T) {
	e := newTestEnv(t)

	rr := e.do(t, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rr.Code, rr.Body.String())
	}

	var h Health
	if err := json.Unmarshal(rr.Body.Bytes(), &h); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if h.Status != "healthy" {
		t.Fatalf("expected healthy, got %s", h.Status)
	}
	if c, ok := h.Components["storage"]; !ok || c.Status != "up" {
		t.Fatalf("expected storage up, got %+v", h.Components)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	e := newTestEnv(t)

	rr := e.do(t, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var m map[string]int64
	if err := json.Unmarshal(rr.Body.Bytes(), &m); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := m["requests_total"]; !ok {
		t.Fatalf("expected requests_total counter, got %v", m)
	}
}

func TestRequestIDHeader(t *testing.T) {
	e := newTestEnv(t)

	rr := e.do(t, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Header().Get("X-Request-Id") == "" {
		t.Fatalf("expected generated request id header")
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", "my-rid")
	rr = e.do(t, req)
	if rr.Header().Get("X-Request-Id") != "my-rid" {
		t.Fatalf("expected client request id echoed, got %q", rr.Header().Get("X-Request-Id"))
	}
}

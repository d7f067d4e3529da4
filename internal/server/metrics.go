package server

import (
	"net/http"
	"sync"
)

// Metrics holds in-process application counters. Exposed as JSON at
// /metrics; no external metrics backend.
type Metrics struct {
	mu sync.Mutex

	requestsTotal    int64
	requestErrors4xx int64
	requestErrors5xx int64

	registrationsTotal int64
	loginSuccessTotal  int64
	loginFailureTotal  int64

	uploadsTotal       int64
	uploadBytesTotal   int64
	downloadsTotal     int64
	downloadBytesTotal int64
}

var globalMetrics = &Metrics{}

// GetMetrics returns the global metrics instance.
func GetMetrics() *Metrics {
	return globalMetrics
}

func (m *Metrics) RecordRequest(status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestsTotal++
	switch {
	case status >= 500:
		m.requestErrors5xx++
	case status >= 400:
		m.requestErrors4xx++
	}
}

func (m *Metrics) RecordRegistration() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registrationsTotal++
}

func (m *Metrics) RecordLogin(success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if success {
		m.loginSuccessTotal++
	} else {
		m.loginFailureTotal++
	}
}

func (m *Metrics) RecordUpload(bytes int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploadsTotal++
	m.uploadBytesTotal += bytes
}

func (m *Metrics) RecordDownload(bytes int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.downloadsTotal++
	m.downloadBytesTotal += bytes
}

func (m *Metrics) snapshot() map[string]int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return map[string]int64{
		"requests_total":       m.requestsTotal,
		"request_errors_4xx":   m.requestErrors4xx,
		"request_errors_5xx":   m.requestErrors5xx,
		"registrations_total":  m.registrationsTotal,
		"login_success_total":  m.loginSuccessTotal,
		"login_failure_total":  m.loginFailureTotal,
		"uploads_total":        m.uploadsTotal,
		"upload_bytes_total":   m.uploadBytesTotal,
		"downloads_total":      m.downloadsTotal,
		"download_bytes_total": m.downloadBytesTotal,
	}
}

func metricsHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		writeJSON(w, http.StatusOK, GetMetrics().snapshot())
	})
}

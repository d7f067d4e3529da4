// errors.go - JSON error responses and the error-kind to status mapping.
//
// Every failure surfaces to the caller as {"error": "<message>"} with a
// stable status: 400 invalid input / duplicate user, 401 authentication,
// 403 access denied, 404 not found, 429 rate limited, 500 internal,
// 502 storage backend.
package server

import (
	"encoding/json"
	"log"
	"net/http"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeInternalError logs the underlying cause with the request id and hides
// it from the caller. Storage and DB faults are never part of the client
// error taxonomy.
func writeInternalError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	rid := RequestIDFromContext(r.Context())
	log.Printf("rid=%s msg=%q err=%v", rid, msg, err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

func writeStorageError(w http.ResponseWriter, r *http.Request, err error) {
	rid := RequestIDFromContext(r.Context())
	log.Printf("rid=%s msg=%q err=%v", rid, "storage_error", err)
	writeError(w, http.StatusBadGateway, "storage error")
}

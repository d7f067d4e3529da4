package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"fileshare/internal/store"
)

// deleteHandler handles DELETE /api/files/delete/{name}. Only the owner may
// delete. The stored content goes first (a missing object is tolerated),
// then the metadata record with its shares.
func (cfg Config) deleteHandler() http.Handler {
	return cfg.Auth.requireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		name := strings.TrimPrefix(r.URL.Path, "/api/files/delete/")
		if name == "" || strings.Contains(name, "/") {
			writeError(w, http.StatusBadRequest, "missing file name")
			return
		}

		caller := callerFromContext(r.Context())

		f, err := cfg.Files.Get(r.Context(), name)
		if errors.Is(err, store.ErrFileNotFound) {
			writeError(w, http.StatusNotFound, "file not found")
			return
		}
		if err != nil {
			writeInternalError(w, r, "delete_lookup", err)
			return
		}

		if f.Owner != caller {
			writeError(w, http.StatusForbidden, "you can only delete files you own")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 1*time.Minute)
		defer cancel()

		if err := cfg.Blobs.Remove(ctx, name); err != nil {
			writeStorageError(w, r, err)
			return
		}

		if err := cfg.Files.Delete(r.Context(), name); err != nil && !errors.Is(err, store.ErrFileNotFound) {
			writeInternalError(w, r, "delete_metadata", err)
			return
		}

		log.Printf("rid=%s msg=deleted user=%s file=%s",
			RequestIDFromContext(r.Context()), caller, name)
		writeJSON(w, http.StatusOK, map[string]string{
			"message": "file deleted successfully",
		})
	}))
}

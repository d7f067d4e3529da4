package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"fileshare/internal/store"
)

// downloadHandler handles GET /api/files/download/{name}. Read access is
// granted to the owner and anyone on the share list. The existence check
// runs before the permission check, so probing an unknown name always
// yields 404 and never 403.
func (cfg Config) downloadHandler() http.Handler {
	return cfg.Auth.requireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		name := strings.TrimPrefix(r.URL.Path, "/api/files/download/")
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
			writeInternalError(w, r, "download_lookup", err)
			return
		}

		if f.Owner != caller && !f.SharedWithContains(caller) {
			writeError(w, http.StatusForbidden, "access denied")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
		defer cancel()

		obj, err := cfg.Blobs.Get(ctx, name)
		if err != nil {
			// Metadata without content is a backend fault, not a client 404.
			writeStorageError(w, r, err)
			return
		}
		defer func() { _ = obj.Close() }()

		if f.ContentType != "" {
			w.Header().Set("Content-Type", f.ContentType)
		} else {
			w.Header().Set("Content-Type", "application/octet-stream")
		}
		if f.SizeBytes > 0 {
			w.Header().Set("Content-Length", strconv.FormatInt(f.SizeBytes, 10))
		}

		// Encourage safe download behavior in browsers.
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, f.Name))

		w.WriteHeader(http.StatusOK)
		n, _ := io.Copy(w, obj)
		GetMetrics().RecordDownload(n)
	}))
}

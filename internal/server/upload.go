package server

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"fileshare/internal/store"
)

// countingReader tracks how many bytes pass through so the metadata record
// can carry the actual stored size.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// uploadHandler handles POST /api/files/upload with a multipart "file" part.
// The filename is sanitized to a flat storage key. Re-uploading a name you
// own replaces content and metadata and clears all shares; a name owned by
// someone else is rejected rather than silently reassigned.
func (cfg Config) uploadHandler() http.Handler {
	return cfg.Auth.requireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		if cfg.MaxUploadBytes > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, cfg.MaxUploadBytes)
		}

		caller := callerFromContext(r.Context())

		mr, err := r.MultipartReader()
		if err != nil {
			writeError(w, http.StatusBadRequest, "no file provided")
			return
		}

		var filePart io.Reader
		var rawName, contentType string

		for {
			part, err := mr.NextPart()
			if err == io.EOF {
				break
			}
			if err != nil {
				writeError(w, http.StatusBadRequest, "bad multipart body")
				return
			}
			defer func() { _ = part.Close() }()

			if part.FormName() != "file" {
				continue
			}

			filePart = part
			rawName = part.FileName()
			contentType = part.Header.Get("Content-Type")
			break
		}

		if filePart == nil {
			writeError(w, http.StatusBadRequest, "no file provided")
			return
		}

		name := sanitizeFileName(rawName)
		if name == "" {
			writeError(w, http.StatusBadRequest, "no file selected")
			return
		}
		if contentType == "" {
			contentType = "application/octet-stream"
		}

		// Fast-path rejection before touching the body. The store's Put is
		// the authoritative guard; this only saves the blob write when the
		// name is visibly taken already.
		existing, err := cfg.Files.Get(r.Context(), name)
		if err != nil && !errors.Is(err, store.ErrFileNotFound) {
			writeInternalError(w, r, "upload_lookup", err)
			return
		}
		if err == nil && existing.Owner != caller {
			writeError(w, http.StatusForbidden, "file name already in use by another user")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
		defer cancel()

		// Content goes to a per-request staging key so a rejected or failed
		// upload never touches the object readers see under the final name.
		stagingKey := "part-" + RequestIDFromContext(r.Context())

		cr := &countingReader{r: filePart}
		if err := cfg.Blobs.Put(ctx, stagingKey, cr, -1, contentType); err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				writeError(w, http.StatusRequestEntityTooLarge, "file too large")
				return
			}
			writeStorageError(w, r, err)
			return
		}

		// The metadata write is the commit point: its conditional upsert
		// races cleanly with a concurrent upload of the same name, and the
		// loser surfaces here as ErrNameTaken with its staged content
		// discarded, never overwriting the winner's object.
		err = cfg.Files.Put(r.Context(), store.File{
			Name:        name,
			Owner:       caller,
			ContentType: contentType,
			SizeBytes:   cr.n,
			UploadedAt:  time.Now().UTC(),
		})
		if err != nil {
			_ = cfg.Blobs.Remove(ctx, stagingKey)
			if errors.Is(err, store.ErrNameTaken) {
				writeError(w, http.StatusForbidden, "file name already in use by another user")
				return
			}
			writeInternalError(w, r, "upload_metadata", err)
			return
		}

		// Promote the staged content. Until the rename lands, a concurrent
		// download of a replaced file still streams the previous bytes; a
		// rename failure leaves those in place and reports the fault.
		if err := cfg.Blobs.Rename(ctx, stagingKey, name); err != nil {
			writeStorageError(w, r, err)
			return
		}

		GetMetrics().RecordUpload(cr.n)
		log.Printf("rid=%s msg=uploaded user=%s file=%s bytes=%d",
			RequestIDFromContext(r.Context()), caller, name, cr.n)
		writeJSON(w, http.StatusCreated, map[string]string{
			"message": "file uploaded successfully",
			"name":    name,
		})
	}))
}

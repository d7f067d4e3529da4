package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"fileshare/internal/store"
)

// shareReq is the payload for both share and revoke: the file and the user
// whose access changes.
type shareReq struct {
	Filename string `json:"filename"`
	Username string `json:"username"`
}

// Check order is fixed for both operations: input validation, then file
// existence, then ownership, then (share only) target existence. A non-owner
// probing an unknown file sees 404, never 403.

// shareHandler handles POST /api/files/share. Only the owner may share, the
// target must be a registered user, and sharing is idempotent. Sharing a
// file with its owner is a no-op; the share list never contains the owner.
func (cfg Config) shareHandler() http.Handler {
	return cfg.Auth.requireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		req, f, ok := cfg.decodeShareRequest(w, r)
		if !ok {
			return
		}

		if req.Username != f.Owner {
			exists, err := cfg.Users.Exists(r.Context(), req.Username)
			if err != nil {
				writeInternalError(w, r, "share_target_lookup", err)
				return
			}
			if !exists {
				writeError(w, http.StatusNotFound, "target user does not exist")
				return
			}

			if err := cfg.Files.AddShare(r.Context(), req.Filename, req.Username); err != nil {
				writeInternalError(w, r, "share_add", err)
				return
			}
		}

		log.Printf("rid=%s msg=shared file=%s owner=%s target=%s",
			RequestIDFromContext(r.Context()), req.Filename, f.Owner, req.Username)
		writeJSON(w, http.StatusOK, map[string]string{
			"message": "file shared successfully",
		})
	}))
}

// revokeHandler handles POST /api/files/revoke. Same checks as share except
// the target need not exist: revoking a nonexistent grant is harmless.
func (cfg Config) revokeHandler() http.Handler {
	return cfg.Auth.requireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		req, f, ok := cfg.decodeShareRequest(w, r)
		if !ok {
			return
		}

		if err := cfg.Files.RemoveShare(r.Context(), req.Filename, req.Username); err != nil {
			writeInternalError(w, r, "revoke_remove", err)
			return
		}

		log.Printf("rid=%s msg=revoked file=%s owner=%s target=%s",
			RequestIDFromContext(r.Context()), req.Filename, f.Owner, req.Username)
		writeJSON(w, http.StatusOK, map[string]string{
			"message": "access revoked successfully",
		})
	}))
}

// decodeShareRequest runs the checks common to share and revoke and reports
// whether the handler should proceed.
func (cfg Config) decodeShareRequest(w http.ResponseWriter, r *http.Request) (shareReq, store.File, bool) {
	var req shareReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return req, store.File{}, false
	}

	req.Filename = strings.TrimSpace(req.Filename)
	req.Username = strings.TrimSpace(req.Username)

	if req.Filename == "" || req.Username == "" {
		writeError(w, http.StatusBadRequest, "missing filename or target username")
		return req, store.File{}, false
	}

	f, err := cfg.Files.Get(r.Context(), req.Filename)
	if errors.Is(err, store.ErrFileNotFound) {
		writeError(w, http.StatusNotFound, "file not found")
		return req, store.File{}, false
	}
	if err != nil {
		writeInternalError(w, r, "share_lookup", err)
		return req, store.File{}, false
	}

	caller := callerFromContext(r.Context())
	if f.Owner != caller {
		writeError(w, http.StatusForbidden, "you can only manage access to files you own")
		return req, store.File{}, false
	}

	return req, f, true
}

package server

import (
	"net/http"
)

// listFilesResp mirrors the shape clients expect: files the caller owns and
// files shared with them. The two lists are disjoint because a share never
// includes the owner.
type listFilesResp struct {
	OwnedFiles  []string `json:"owned_files"`
	SharedFiles []string `json:"shared_files"`
}

// listFilesHandler handles GET /api/files.
func (cfg Config) listFilesHandler() http.Handler {
	return cfg.Auth.requireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		caller := callerFromContext(r.Context())

		owned, err := cfg.Files.ListOwned(r.Context(), caller)
		if err != nil {
			writeInternalError(w, r, "list_owned", err)
			return
		}
		shared, err := cfg.Files.ListSharedWith(r.Context(), caller)
		if err != nil {
			writeInternalError(w, r, "list_shared", err)
			return
		}

		writeJSON(w, http.StatusOK, listFilesResp{
			OwnedFiles:  owned,
			SharedFiles: shared,
		})
	}))
}

package server

import (
	"context"
	"database/sql"
	"net"
	"net/http"
	"time"

	"fileshare/internal/blob"
	"fileshare/internal/store"
)

// BuildInfo identifies the running binary in logs and health output.
type BuildInfo struct {
	Version string
	Commit  string
}

// Config carries the server's collaborators. Users and Files hold the
// metadata; Blobs holds the content; DB is only probed by /health.
type Config struct {
	Addr           string // e.g. ":8080"
	Build          BuildInfo
	Auth           AuthConfig
	Users          store.UserStore
	Files          store.FileStore
	Blobs          blob.Store
	DB             *sql.DB
	MaxUploadBytes int64
}

type Server struct {
	httpServer *http.Server
}

// New wires the routes and the middleware chain:
// requestID -> logging -> security headers -> rate limit -> mux.
func New(cfg Config) *Server {
	mux := http.NewServeMux()

	mux.Handle("/", homeHandler())
	mux.Handle("/health", cfg.healthHandler())
	mux.Handle("/metrics", metricsHandler())

	mux.Handle("/api/register", cfg.registerHandler())
	mux.Handle("/api/login", cfg.loginHandler())

	mux.Handle("/api/files", cfg.listFilesHandler())
	mux.Handle("/api/files/upload", cfg.uploadHandler())
	mux.Handle("/api/files/download/", cfg.downloadHandler())
	mux.Handle("/api/files/share", cfg.shareHandler())
	mux.Handle("/api/files/revoke", cfg.revokeHandler())
	mux.Handle("/api/files/delete/", cfg.deleteHandler())

	var handler http.Handler = mux
	handler = newRateLimiter(120, time.Minute).middleware(handler)
	handler = securityHeadersMiddleware(handler)
	handler = loggingMiddleware(handler)
	handler = requestIDMiddleware(handler)

	s := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return &Server{httpServer: s}
}

// homeHandler answers GET / with a service banner and endpoint map.
func homeHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"status":  "running",
			"message": "File Sharing Server is running",
			"endpoints": map[string]string{
				"register": "/api/register",
				"login":    "/api/login",
				"files":    "/api/files",
				"upload":   "/api/files/upload",
				"download": "/api/files/download/<filename>",
				"share":    "/api/files/share",
				"revoke":   "/api/files/revoke",
				"delete":   "/api/files/delete/<filename>",
			},
		})
	})
}

func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	return s.httpServer.Serve(ln)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the full middleware-wrapped handler for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

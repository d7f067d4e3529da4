package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/afero"

	"fileshare/internal/blob"
	"fileshare/internal/server"
	"fileshare/internal/store"
)

func main() {
	// Load .env if present (ok if missing in prod).
	_ = godotenv.Load()

	if err := server.ValidateAllConfiguration(); err != nil {
		log.Printf("service=backend msg=%q err=%v", "invalid_configuration", err)
		os.Exit(1)
	}

	addr := getenvDefault("FSH_ADDR", ":8080")

	build := server.BuildInfo{
		Version: getenvDefault("FSH_VERSION", "dev"),
		Commit:  getenvDefault("FSH_COMMIT", "unknown"),
	}

	// Database
	dbConn, err := store.OpenDB(os.Getenv("DATABASE_URL"))
	if err != nil {
		log.Printf("service=backend msg=%q err=%v", "db_connect_failed", err)
		os.Exit(1)
	}
	defer func() { _ = dbConn.Close() }()

	log.Printf("service=backend msg=%q", "running_migrations")
	if err := store.RunMigrations(dbConn); err != nil {
		log.Printf("service=backend msg=%q err=%v", "migration_failed", err)
		os.Exit(1)
	}
	log.Printf("service=backend msg=%q", "migrations_complete")

	// Content store: MinIO when configured, local directory otherwise.
	var blobs blob.Store
	if os.Getenv("FSH_S3_ENDPOINT") != "" {
		blobs, err = blob.NewMinioStore(blob.MinioConfig{
			Endpoint:  os.Getenv("FSH_S3_ENDPOINT"),
			AccessKey: os.Getenv("FSH_S3_ACCESS_KEY"),
			SecretKey: os.Getenv("FSH_S3_SECRET_KEY"),
			Bucket:    os.Getenv("FSH_BUCKET"),
		})
		if err != nil {
			log.Printf("service=backend msg=%q err=%v", "minio_connect_failed", err)
			os.Exit(1)
		}
		log.Printf("service=backend msg=%q bucket=%s", "content_store_minio", os.Getenv("FSH_BUCKET"))
	} else {
		dir := getenvDefault("FSH_DATA_DIR", "uploads")
		blobs, err = blob.NewLocalStore(afero.NewOsFs(), dir)
		if err != nil {
			log.Printf("service=backend msg=%q err=%v", "data_dir_failed", err)
			os.Exit(1)
		}
		log.Printf("service=backend msg=%q dir=%s", "content_store_local", dir)
	}

	var maxUpload int64
	if raw := os.Getenv("FSH_MAX_UPLOAD_BYTES"); raw != "" {
		maxUpload, _ = strconv.ParseInt(raw, 10, 64)
	}

	auth := server.AuthConfig{
		SessionSecret: os.Getenv("FSH_SESSION_SECRET"),
		SessionTTL:    1 * time.Hour,
		Lockout:       server.NewLoginLockout(5, 10*time.Minute, 15*time.Minute),
	}

	srv := server.New(server.Config{
		Addr:           addr,
		Build:          build,
		Auth:           auth,
		Users:          store.NewPGUserStore(dbConn),
		Files:          store.NewPGFileStore(dbConn),
		Blobs:          blobs,
		DB:             dbConn,
		MaxUploadBytes: maxUpload,
	})

	// Start the HTTP server in a background goroutine so we can listen for
	// OS signals while it runs.
	errCh := make(chan error, 1)
	go func() {
		log.Printf("service=backend msg=%q addr=%s version=%s commit=%s",
			"starting", addr, build.Version, build.Commit)
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("service=backend msg=%q signal=%s", "shutting_down", sig.String())
		// Give in-flight requests 5 seconds to drain.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("service=backend msg=%q err=%v", "shutdown_error", err)
			os.Exit(1)
		}
		log.Printf("service=backend msg=%q", "shutdown_complete")
	case err := <-errCh:
		if err != nil {
			log.Printf("service=backend msg=%q err=%v", "server_error", err)
			os.Exit(1)
		}
	}
}

// getenvDefault reads an environment variable and returns a default value if not set.
func getenvDefault(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

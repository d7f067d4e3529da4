package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// OpenDB opens a PostgreSQL connection pool using DATABASE_URL.
func OpenDB(databaseURL string) (*sql.DB, error) {
	if databaseURL == "" {
		return nil, errors.New("DATABASE_URL is empty")
	}

	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	// Validate connectivity immediately.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

const pgUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// PGUserStore is the PostgreSQL-backed UserStore.
type PGUserStore struct {
	db *sql.DB
}

func NewPGUserStore(db *sql.DB) *PGUserStore {
	return &PGUserStore{db: db}
}

func (s *PGUserStore) Create(ctx context.Context, u User) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (username, password_hash) VALUES ($1, $2)`,
		u.Username, u.PasswordHash,
	)
	if isUniqueViolation(err) {
		return ErrDuplicateUser
	}
	return err
}

func (s *PGUserStore) Get(ctx context.Context, username string) (User, error) {
	var u User
	err := s.db.QueryRowContext(ctx,
		`SELECT username, password_hash, created_at FROM users WHERE username = $1`,
		username,
	).Scan(&u.Username, &u.PasswordHash, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		return User{}, err
	}
	return u, nil
}

func (s *PGUserStore) Exists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`,
		username,
	).Scan(&exists)
	return exists, err
}

// PGFileStore is the PostgreSQL-backed FileStore. Share rows live in
// file_shares and are cascade-deleted with the file row, so a concurrent
// Share and Delete can never leave a dangling grant.
type PGFileStore struct {
	db *sql.DB
}

func NewPGFileStore(db *sql.DB) *PGFileStore {
	return &PGFileStore{db: db}
}

func (s *PGFileStore) Get(ctx context.Context, name string) (File, error) {
	var f File
	err := s.db.QueryRowContext(ctx,
		`SELECT name, owner, content_type, size_bytes, uploaded_at
		 FROM files WHERE name = $1`,
		name,
	).Scan(&f.Name, &f.Owner, &f.ContentType, &f.SizeBytes, &f.UploadedAt)
	if err == sql.ErrNoRows {
		return File{}, ErrFileNotFound
	}
	if err != nil {
		return File{}, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT username FROM file_shares WHERE file_name = $1 ORDER BY username`,
		name,
	)
	if err != nil {
		return File{}, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return File{}, err
		}
		f.SharedWith = append(f.SharedWith, u)
	}
	return f, rows.Err()
}

func (s *PGFileStore) Put(ctx context.Context, f File) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	// The guarded upsert: the update half only fires for the current owner,
	// so a conflicting concurrent upload serializes on the row lock and then
	// lands zero rows. Owner never changes through this path.
	res, err := tx.ExecContext(ctx,
		`INSERT INTO files (name, owner, content_type, size_bytes, uploaded_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (name) DO UPDATE
		 SET content_type = EXCLUDED.content_type,
		     size_bytes = EXCLUDED.size_bytes,
		     uploaded_at = EXCLUDED.uploaded_at
		 WHERE files.owner = EXCLUDED.owner`,
		f.Name, f.Owner, f.ContentType, f.SizeBytes, f.UploadedAt,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNameTaken
	}

	// Replacing a record clears its prior share list.
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM file_shares WHERE file_name = $1`, f.Name); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *PGFileStore) Delete(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM files WHERE name = $1`, name)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrFileNotFound
	}
	return nil
}

func (s *PGFileStore) ListOwned(ctx context.Context, username string) ([]string, error) {
	return s.listNames(ctx,
		`SELECT name FROM files WHERE owner = $1 ORDER BY name`, username)
}

func (s *PGFileStore) ListSharedWith(ctx context.Context, username string) ([]string, error) {
	return s.listNames(ctx,
		`SELECT file_name FROM file_shares WHERE username = $1 ORDER BY file_name`, username)
}

func (s *PGFileStore) listNames(ctx context.Context, query, username string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, username)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	names := []string{}
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

func (s *PGFileStore) AddShare(ctx context.Context, name, username string) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO file_shares (file_name, username)
		 SELECT $1, $2 WHERE EXISTS (SELECT 1 FROM files WHERE name = $1)
		 ON CONFLICT (file_name, username) DO NOTHING`,
		name, username,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Either the grant already existed (fine) or the file is gone.
		var exists bool
		if err := s.db.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM files WHERE name = $1)`, name,
		).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrFileNotFound
		}
	}
	return nil
}

func (s *PGFileStore) RemoveShare(ctx context.Context, name, username string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM file_shares WHERE file_name = $1 AND username = $2`,
		name, username,
	)
	return err
}

// Package store owns the metadata model: credential records and per-file
// ownership plus share lists. Implementations must survive process restart;
// the production implementation is backed by PostgreSQL.
package store

import (
	"context"
	"errors"
	"time"
)

var (
	ErrDuplicateUser = errors.New("username already exists")
	ErrUserNotFound  = errors.New("user not found")
	ErrFileNotFound  = errors.New("file not found")
	ErrNameTaken     = errors.New("file name owned by another user")
)

// User is a credential record. PasswordHash is an opaque bcrypt digest;
// the store never sees plaintext passwords.
type User struct {
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// File is the metadata record governing access to one stored object.
// SharedWith never contains the owner.
type File struct {
	Name        string
	Owner       string
	ContentType string
	SizeBytes   int64
	UploadedAt  time.Time
	SharedWith  []string
}

// SharedWithContains reports whether username has been granted read access.
func (f File) SharedWithContains(username string) bool {
	for _, u := range f.SharedWith {
		if u == username {
			return true
		}
	}
	return false
}

// UserStore holds the username -> credential mapping.
type UserStore interface {
	// Create stores a new user. Returns ErrDuplicateUser if the username
	// is already taken.
	Create(ctx context.Context, u User) error

	// Get returns the user record, or ErrUserNotFound.
	Get(ctx context.Context, username string) (User, error)

	// Exists reports whether the username is registered.
	Exists(ctx context.Context, username string) (bool, error)
}

// FileStore holds file ownership and share-list metadata.
type FileStore interface {
	// Get returns the record with its share list, or ErrFileNotFound.
	Get(ctx context.Context, name string) (File, error)

	// Put creates or replaces the record for f.Name in one transaction.
	// Replacing clears the previous share list. The write lands only when
	// the name is free or already owned by f.Owner; otherwise ErrNameTaken.
	// The ownership check and the write are a single atomic operation, so
	// two concurrent uploads of the same fresh name cannot both succeed.
	Put(ctx context.Context, f File) error

	// Delete removes the record and its shares, or ErrFileNotFound.
	Delete(ctx context.Context, name string) error

	// ListOwned returns names of files owned by username, sorted.
	ListOwned(ctx context.Context, username string) ([]string, error)

	// ListSharedWith returns names of files shared with username, sorted.
	ListSharedWith(ctx context.Context, username string) ([]string, error)

	// AddShare grants username read access to name. Idempotent; adding an
	// existing grant is a no-op. Returns ErrFileNotFound if name is unknown.
	AddShare(ctx context.Context, name, username string) error

	// RemoveShare revokes username's access to name. Idempotent; removing a
	// grant that does not exist is a no-op.
	RemoveShare(ctx context.Context, name, username string) error
}

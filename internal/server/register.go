package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"regexp"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"fileshare/internal/store"
)

// RegisterRequest represents the JSON payload for user registration.
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

// validateUsername checks username requirements.
func validateUsername(username string) (bool, string) {
	if username == "" {
		return false, "missing username or password"
	}
	if len(username) > 64 {
		return false, "username must be at most 64 characters"
	}
	if !usernameRegex.MatchString(username) {
		return false, "username can only contain letters, numbers, dots, dashes, and underscores"
	}
	return true, ""
}

// hashPassword generates a bcrypt hash of the password.
func hashPassword(password string) (string, error) {
	// bcrypt cost of 12 is a good balance of security and performance
	hash, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// verifyPassword compares a password with its hash. bcrypt's comparison is
// constant time.
func verifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// registerHandler handles POST /api/register. Duplicate usernames are
// rejected; the stored credential remains the first one's.
func (cfg Config) registerHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		var req RegisterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		req.Username = strings.TrimSpace(req.Username)

		if req.Username == "" || req.Password == "" {
			writeError(w, http.StatusBadRequest, "missing username or password")
			return
		}
		if valid, msg := validateUsername(req.Username); !valid {
			writeError(w, http.StatusBadRequest, msg)
			return
		}

		passwordHash, err := hashPassword(req.Password)
		if err != nil {
			writeInternalError(w, r, "register_hash", err)
			return
		}

		err = cfg.Users.Create(r.Context(), store.User{
			Username:     req.Username,
			PasswordHash: passwordHash,
		})
		if errors.Is(err, store.ErrDuplicateUser) {
			writeError(w, http.StatusBadRequest, "username already exists")
			return
		}
		if err != nil {
			writeInternalError(w, r, "register_insert", err)
			return
		}

		GetMetrics().RecordRegistration()
		log.Printf("rid=%s msg=registered user=%s", RequestIDFromContext(r.Context()), req.Username)
		writeJSON(w, http.StatusCreated, map[string]string{
			"message": "user registered successfully",
		})
	})
}

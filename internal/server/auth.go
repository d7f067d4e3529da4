// auth.go - Stateless bearer-token sessions and the login handler.
//
// Sessions are HS256 JWTs carrying the username as subject with a fixed
// expiry. Verification is stateless: no server-side session table.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"fileshare/internal/store"
)

const userKey ctxKey = "username"

// AuthConfig holds session-signing settings and the login lockout tracker.
// The secret is required startup configuration; main refuses to run without it.
type AuthConfig struct {
	SessionSecret string
	SessionTTL    time.Duration
	Lockout       *LoginLockout
}

func (a AuthConfig) ttl() time.Duration {
	if a.SessionTTL <= 0 {
		return 1 * time.Hour
	}
	return a.SessionTTL
}

func (a AuthConfig) secretBytes() []byte {
	return []byte(a.SessionSecret)
}

type sessionClaims struct {
	jwt.RegisteredClaims
}

// makeToken issues a session token bound to username.
func (a AuthConfig) makeToken(username string) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(a.ttl())
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secretBytes())
	if err != nil {
		return "", time.Time{}, err
	}
	return tok, exp, nil
}

// verifyToken validates signature and expiry and returns the bound username.
func (a AuthConfig) verifyToken(tok string) (string, error) {
	parsed, err := jwt.ParseWithClaims(tok, &sessionClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.secretBytes(), nil
	})
	if err != nil {
		return "", err
	}
	claims, ok := parsed.Claims.(*sessionClaims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return "", errors.New("invalid token")
	}
	return claims.Subject, nil
}

// requireAuth verifies the Authorization header and stores the caller's
// username in the request context. Missing, malformed, and expired tokens
// all produce the same 401.
func (a AuthConfig) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get("Authorization")
		tok, ok := strings.CutPrefix(raw, "Bearer ")
		if !ok || tok == "" {
			writeError(w, http.StatusUnauthorized, "missing or invalid token")
			return
		}
		username, err := a.verifyToken(tok)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "missing or invalid token")
			return
		}
		ctx := context.WithValue(r.Context(), userKey, username)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// callerFromContext returns the username stored by requireAuth.
func callerFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(userKey).(string); ok {
		return s
	}
	return ""
}

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// loginHandler authenticates credentials and issues a session token.
// Unknown usernames and wrong passwords yield the same error.
func (cfg Config) loginHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		var req loginReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		req.Username = strings.TrimSpace(req.Username)

		if req.Username == "" || req.Password == "" {
			writeError(w, http.StatusBadRequest, "missing username or password")
			return
		}

		if lo := cfg.Auth.Lockout; lo != nil {
			if locked, until := lo.locked(req.Username); locked {
				writeError(w, http.StatusTooManyRequests,
					"too many failed attempts, try again after "+until.UTC().Format(time.RFC3339))
				return
			}
		}

		u, err := cfg.Users.Get(r.Context(), req.Username)
		if err != nil && !errors.Is(err, store.ErrUserNotFound) {
			writeInternalError(w, r, "login_user_lookup", err)
			return
		}
		if err != nil || !verifyPassword(req.Password, u.PasswordHash) {
			if lo := cfg.Auth.Lockout; lo != nil {
				lo.recordFailure(req.Username)
			}
			GetMetrics().RecordLogin(false)
			writeError(w, http.StatusUnauthorized, "invalid username or password")
			return
		}

		if lo := cfg.Auth.Lockout; lo != nil {
			lo.reset(req.Username)
		}

		tok, exp, err := cfg.Auth.makeToken(req.Username)
		if err != nil {
			writeInternalError(w, r, "login_sign_token", err)
			return
		}

		GetMetrics().RecordLogin(true)
		log.Printf("rid=%s msg=login user=%s", RequestIDFromContext(r.Context()), req.Username)
		writeJSON(w, http.StatusOK, map[string]string{
			"access_token": tok,
			"expires_at":   exp.UTC().Format(time.RFC3339),
		})
	})
}

// lockout.go - Failed-login lockout to slow brute-force attempts.
package server

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// LoginLockout counts failed logins per username inside a sliding window
// and locks the account once the limit is hit. Entries expire on their own;
// go-cache owns the cleanup.
type LoginLockout struct {
	attempts    *cache.Cache
	locks       *cache.Cache
	maxAttempts int
	lockFor     time.Duration
}

// NewLoginLockout locks an account for lockFor after maxAttempts failures
// within window.
func NewLoginLockout(maxAttempts int, window, lockFor time.Duration) *LoginLockout {
	return &LoginLockout{
		attempts:    cache.New(window, 2*window),
		locks:       cache.New(lockFor, 2*lockFor),
		maxAttempts: maxAttempts,
		lockFor:     lockFor,
	}
}

// locked reports whether username is currently locked out and until when.
func (l *LoginLockout) locked(username string) (bool, time.Time) {
	v, ok := l.locks.Get(username)
	if !ok {
		return false, time.Time{}
	}
	until, _ := v.(time.Time)
	return true, until
}

// recordFailure counts one failed attempt and locks the account when the
// limit is reached.
func (l *LoginLockout) recordFailure(username string) {
	n := 1
	if v, ok := l.attempts.Get(username); ok {
		if prev, ok := v.(int); ok {
			n = prev + 1
		}
	}
	l.attempts.Set(username, n, cache.DefaultExpiration)

	if n >= l.maxAttempts {
		l.locks.Set(username, time.Now().Add(l.lockFor), cache.DefaultExpiration)
	}
}

// reset clears the failure count after a successful login.
func (l *LoginLockout) reset(username string) {
	l.attempts.Delete(username)
	l.locks.Delete(username)
}

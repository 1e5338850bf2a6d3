package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
)

// Session is a server-recorded grant tied to a bearer token. Many sessions
// may exist per user (multi-device); each is independently revocable.
type Session struct {
	ID        int64
	UserID    uuid.UUID
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// IsExpired reports whether the session's absolute expiry has passed.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// hashToken returns the hex SHA-256 of a token. Sessions store the hash so
// a database leak does not expose usable bearer tokens; lookups stay exact
// token matches.
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

package auth

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/sentriom/sentriom-api/internal/email"
	"github.com/sentriom/sentriom-api/internal/user"
)

// TokenService defines the interface for token creation and validation.
type TokenService interface {
	CreateToken(userID uuid.UUID, email string, duration time.Duration) (string, error)
	CreateAdminToken(duration time.Duration) (string, error)
	VerifyToken(tokenStr string) (*TokenClaims, error)
}

// UserStore is the credential-store surface the auth service depends on.
type UserStore interface {
	Create(ctx context.Context, email, firstName, lastName, otpCode string, otpExpiresAt time.Time) (*user.User, error)
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	SetOTP(ctx context.Context, userID uuid.UUID, code string, expiresAt time.Time) error
}

// SessionStore persists session rows, the server-side authority for token
// revocation.
type SessionStore interface {
	// StoreSessionClearingOTP inserts the session row and clears the user's
	// pending OTP in a single transaction.
	StoreSessionClearingOTP(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error
	// GetSession returns the live session matching the token, or
	// ErrSessionNotFound when no non-expired row exists.
	GetSession(ctx context.Context, token string) (*Session, error)
	// RevokeSession deletes the session matching the token. Idempotent:
	// revoking an unknown token succeeds.
	RevokeSession(ctx context.Context, token string) error
}

// OTPMailer delivers one-time codes. It never returns a Go error; the
// Result captures transport failures.
type OTPMailer interface {
	SendOTP(ctx context.Context, toEmail, firstName, code string, otpCtx email.OTPContext) email.Result
}

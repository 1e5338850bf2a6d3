package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/sentriom/sentriom-api/internal/config"
	"github.com/sentriom/sentriom-api/internal/email"
	"github.com/sentriom/sentriom-api/internal/logging"
	"github.com/sentriom/sentriom-api/internal/user"
)

// AuthSession is the outcome of a successful verification: a signed bearer
// token plus the authenticated user.
type AuthSession struct {
	Token     string
	ExpiresAt time.Time
	User      *user.User
}

// Service implements the OTP issue/verify lifecycle and session issuance.
type Service struct {
	users           UserStore
	sessions        SessionStore
	tokens          TokenService
	mailer          OTPMailer
	logger          *logging.Logger
	otpTTL          time.Duration
	sessionDuration time.Duration
	deliveryMode    config.DeliveryMode
}

func NewService(
	users UserStore,
	sessions SessionStore,
	tokens TokenService,
	mailer OTPMailer,
	logger *logging.Logger,
	otpTTL time.Duration,
	sessionDuration time.Duration,
	deliveryMode config.DeliveryMode,
) *Service {
	return &Service{
		users:           users,
		sessions:        sessions,
		tokens:          tokens,
		mailer:          mailer,
		logger:          logger,
		otpTTL:          otpTTL,
		sessionDuration: sessionDuration,
		deliveryMode:    deliveryMode,
	}
}

// SendLoginOTP issues a fresh code to an existing account, overwriting any
// pending code. Returns the issued code so dev mode can echo it.
func (s *Service) SendLoginOTP(ctx context.Context, emailAddr string) (string, error) {
	if emailAddr == "" {
		return "", ErrEmailRequired
	}

	existing, err := s.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return "", user.ErrNotFound
		}
		return "", fmt.Errorf("failed to get user: %w", err)
	}

	code, err := generateOTP()
	if err != nil {
		return "", err
	}

	expiresAt := time.Now().Add(s.otpTTL)
	if err := s.users.SetOTP(ctx, existing.ID, code, expiresAt); err != nil {
		return "", fmt.Errorf("failed to store otp: %w", err)
	}

	if err := s.deliver(ctx, existing.Email, existing.FirstName, code, email.OTPContextLogin); err != nil {
		return "", err
	}

	return code, nil
}

// SendSignupOTP creates the account and attaches its first code in one
// logical step. The store's unique constraint resolves concurrent signups;
// the loser surfaces ErrDuplicateEmail.
func (s *Service) SendSignupOTP(ctx context.Context, emailAddr, firstName, lastName string) (string, error) {
	if emailAddr == "" || firstName == "" || lastName == "" {
		return "", ErrFieldsRequired
	}
	if _, err := mail.ParseAddress(emailAddr); err != nil {
		return "", ErrInvalidEmailFormat
	}

	// Pre-check for a friendlier Conflict; the insert below is still the
	// final arbiter when two signups race past this read.
	_, err := s.users.GetByEmail(ctx, emailAddr)
	if err == nil {
		return "", user.ErrDuplicateEmail
	}
	if !errors.Is(err, user.ErrNotFound) {
		return "", fmt.Errorf("failed to check existing user: %w", err)
	}

	code, err := generateOTP()
	if err != nil {
		return "", err
	}

	expiresAt := time.Now().Add(s.otpTTL)
	created, err := s.users.Create(ctx, emailAddr, firstName, lastName, code, expiresAt)
	if err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			return "", user.ErrDuplicateEmail
		}
		return "", fmt.Errorf("failed to create user: %w", err)
	}

	if err := s.deliver(ctx, created.Email, created.FirstName, code, email.OTPContextSignup); err != nil {
		return "", err
	}

	return code, nil
}

// VerifyOTP checks a submitted code against the user's pending state and,
// on success, clears the code and issues a session in one transaction.
// Failed attempts leave the pending code intact so the user can retry
// until it expires.
func (s *Service) VerifyOTP(ctx context.Context, emailAddr, code string) (*AuthSession, error) {
	if emailAddr == "" || code == "" {
		return nil, ErrFieldsRequired
	}

	existing, err := s.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, user.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	// An absent pending code is indistinguishable from a wrong code.
	if !existing.HasPendingOTP() {
		return nil, ErrInvalidOTP
	}

	if subtle.ConstantTimeCompare([]byte(*existing.OTPCode), []byte(code)) != 1 {
		return nil, ErrInvalidOTP
	}

	if time.Now().After(*existing.OTPExpiresAt) {
		return nil, ErrOTPExpired
	}

	token, err := s.tokens.CreateToken(existing.ID, existing.Email, s.sessionDuration)
	if err != nil {
		return nil, fmt.Errorf("failed to create token: %w", err)
	}

	expiresAt := time.Now().Add(s.sessionDuration)
	if err := s.sessions.StoreSessionClearingOTP(ctx, existing.ID, token, expiresAt); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	existing.OTPCode = nil
	existing.OTPExpiresAt = nil

	return &AuthSession{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      existing,
	}, nil
}

// Logout revokes the session bound to the token. Unknown tokens are a
// success no-op.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.sessions.RevokeSession(ctx, token)
}

// deliver hands the code to the mailer and applies the configured delivery
// policy. In strict mode a transport failure aborts the issuance; the
// persisted code is orphaned but harmless since the next issuance
// overwrites it.
func (s *Service) deliver(ctx context.Context, toEmail, firstName, code string, otpCtx email.OTPContext) error {
	result := s.mailer.SendOTP(ctx, toEmail, firstName, code, otpCtx)
	if result.Success {
		return nil
	}

	if s.deliveryMode == config.DeliveryStrict {
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, result.Err)
	}

	s.logger.Warn("otp delivery failed, continuing in permissive mode",
		"email", toEmail,
		"error", result.Err,
	)
	return nil
}

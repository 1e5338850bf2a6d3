package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/sentriom/sentriom-api/internal/config"
	"github.com/sentriom/sentriom-api/internal/email"
	"github.com/sentriom/sentriom-api/internal/logging"
	"github.com/sentriom/sentriom-api/internal/user"
)

// fakeUserStore is an in-memory UserStore keyed by email.
type fakeUserStore struct {
	mu    sync.Mutex
	users map[string]*user.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[string]*user.User)}
}

func (s *fakeUserStore) Create(_ context.Context, emailAddr, firstName, lastName, otpCode string, otpExpiresAt time.Time) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[emailAddr]; ok {
		return nil, user.ErrDuplicateEmail
	}
	code := otpCode
	exp := otpExpiresAt
	u := &user.User{
		ID:           uuid.New(),
		Email:        emailAddr,
		FirstName:    firstName,
		LastName:     lastName,
		FullName:     firstName + " " + lastName,
		OTPCode:      &code,
		OTPExpiresAt: &exp,
		CreatedAt:    time.Now(),
	}
	s.users[emailAddr] = u
	return copyUser(u), nil
}

func (s *fakeUserStore) GetByEmail(_ context.Context, emailAddr string) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[emailAddr]
	if !ok {
		return nil, user.ErrNotFound
	}
	return copyUser(u), nil
}

func (s *fakeUserStore) SetOTP(_ context.Context, userID uuid.UUID, code string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID == userID {
			c, e := code, expiresAt
			u.OTPCode = &c
			u.OTPExpiresAt = &e
			return nil
		}
	}
	return user.ErrNotFound
}

func (s *fakeUserStore) clearOTP(userID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID == userID {
			u.OTPCode = nil
			u.OTPExpiresAt = nil
		}
	}
}

func (s *fakeUserStore) expireOTP(emailAddr string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[emailAddr]; ok && u.OTPExpiresAt != nil {
		u.OTPExpiresAt = &at
	}
}

func copyUser(u *user.User) *user.User {
	c := *u
	if u.OTPCode != nil {
		code := *u.OTPCode
		c.OTPCode = &code
	}
	if u.OTPExpiresAt != nil {
		exp := *u.OTPExpiresAt
		c.OTPExpiresAt = &exp
	}
	return &c
}

// fakeSessionStore keeps sessions in a map keyed by raw token.
type fakeSessionStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	users    *fakeUserStore
}

func newFakeSessionStore(users *fakeUserStore) *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[string]*Session), users: users}
}

func (s *fakeSessionStore) StoreSessionClearingOTP(_ context.Context, userID uuid.UUID, token string, expiresAt time.Time) error {
	s.mu.Lock()
	s.sessions[token] = &Session{
		UserID:    userID,
		TokenHash: hashToken(token),
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}
	s.mu.Unlock()
	if s.users != nil {
		s.users.clearOTP(userID)
	}
	return nil
}

func (s *fakeSessionStore) GetSession(_ context.Context, token string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[token]
	if !ok || sess.IsExpired() {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

func (s *fakeSessionStore) RevokeSession(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}

// fakeMailer records sends and can be told to fail.
type fakeMailer struct {
	mu    sync.Mutex
	sent  []string
	codes []string
	fail  bool
}

func (m *fakeMailer) SendOTP(_ context.Context, toEmail, _, code string, _ email.OTPContext) email.Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return email.Result{Success: false, Err: context.DeadlineExceeded}
	}
	m.sent = append(m.sent, toEmail)
	m.codes = append(m.codes, code)
	return email.Result{Success: true, ID: "test-message-id"}
}

func newTestService(t *testing.T, mode config.DeliveryMode) (*Service, *fakeUserStore, *fakeSessionStore, *fakeMailer) {
	t.Helper()
	users := newFakeUserStore()
	sessions := newFakeSessionStore(users)
	mailer := &fakeMailer{}

	key := make([]byte, 32)
	copy(key, "0123456789abcdef0123456789abcdef")
	tokens, err := NewPasetoService(key)
	require.NoError(t, err)

	svc := NewService(users, sessions, tokens, mailer, logging.NewLogger(true), 10*time.Minute, 7*24*time.Hour, mode)
	return svc, users, sessions, mailer
}

func TestSendSignupOTP_CreatesUserWithPendingCode(t *testing.T) {
	svc, users, _, mailer := newTestService(t, config.DeliveryPermissive)
	ctx := context.Background()

	code, err := svc.SendSignupOTP(ctx, "jane@example.com", "Jane", "Doe")
	require.NoError(t, err)
	require.Len(t, code, 6)

	u, err := users.GetByEmail(ctx, "jane@example.com")
	require.NoError(t, err)
	require.Equal(t, "Jane Doe", u.FullName)
	require.True(t, u.HasPendingOTP())
	require.Equal(t, code, *u.OTPCode)

	require.Equal(t, []string{"jane@example.com"}, mailer.sent)
}

func TestSendSignupOTP_ValidatesInput(t *testing.T) {
	svc, _, _, _ := newTestService(t, config.DeliveryPermissive)
	ctx := context.Background()

	_, err := svc.SendSignupOTP(ctx, "", "Jane", "Doe")
	require.ErrorIs(t, err, ErrFieldsRequired)

	_, err = svc.SendSignupOTP(ctx, "jane@example.com", "", "Doe")
	require.ErrorIs(t, err, ErrFieldsRequired)

	_, err = svc.SendSignupOTP(ctx, "not-an-email", "Jane", "Doe")
	require.ErrorIs(t, err, ErrInvalidEmailFormat)
}

func TestSendSignupOTP_DuplicateEmail(t *testing.T) {
	svc, _, _, _ := newTestService(t, config.DeliveryPermissive)
	ctx := context.Background()

	_, err := svc.SendSignupOTP(ctx, "jane@example.com", "Jane", "Doe")
	require.NoError(t, err)

	_, err = svc.SendSignupOTP(ctx, "jane@example.com", "Jane", "Doe")
	require.ErrorIs(t, err, user.ErrDuplicateEmail)
}

func TestSendSignupOTP_ConcurrentSignupsOneWinner(t *testing.T) {
	svc, _, _, _ := newTestService(t, config.DeliveryPermissive)
	ctx := context.Background()

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.SendSignupOTP(ctx, "race@example.com", "Ra", "Ce")
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else {
			require.ErrorIs(t, err, user.ErrDuplicateEmail)
		}
	}
	require.Equal(t, 1, winners)
}

func TestSendLoginOTP_UnknownEmail(t *testing.T) {
	svc, _, _, mailer := newTestService(t, config.DeliveryPermissive)

	_, err := svc.SendLoginOTP(context.Background(), "nobody@example.com")
	require.ErrorIs(t, err, user.ErrNotFound)
	require.Empty(t, mailer.sent)
}

func TestSendLoginOTP_OverwritesPendingCode(t *testing.T) {
	svc, users, _, _ := newTestService(t, config.DeliveryPermissive)
	ctx := context.Background()

	first, err := svc.SendSignupOTP(ctx, "jane@example.com", "Jane", "Doe")
	require.NoError(t, err)

	second, err := svc.SendLoginOTP(ctx, "jane@example.com")
	require.NoError(t, err)

	u, err := users.GetByEmail(ctx, "jane@example.com")
	require.NoError(t, err)
	require.Equal(t, second, *u.OTPCode)

	// The first code is dead once a new one is issued
	if first != second {
		_, err = svc.VerifyOTP(ctx, "jane@example.com", first)
		require.ErrorIs(t, err, ErrInvalidOTP)
	}

	_, err = svc.VerifyOTP(ctx, "jane@example.com", second)
	require.NoError(t, err)
}

func TestVerifyOTP_SingleUse(t *testing.T) {
	svc, _, _, _ := newTestService(t, config.DeliveryPermissive)
	ctx := context.Background()

	code, err := svc.SendSignupOTP(ctx, "jane@example.com", "Jane", "Doe")
	require.NoError(t, err)

	sess, err := svc.VerifyOTP(ctx, "jane@example.com", code)
	require.NoError(t, err)
	require.NotEmpty(t, sess.Token)
	require.Equal(t, "jane@example.com", sess.User.Email)
	require.False(t, sess.User.HasPendingOTP())

	// A consumed code does not verify again
	_, err = svc.VerifyOTP(ctx, "jane@example.com", code)
	require.ErrorIs(t, err, ErrInvalidOTP)
}

func TestVerifyOTP_WrongCodeLeavesPendingCodeIntact(t *testing.T) {
	svc, users, _, _ := newTestService(t, config.DeliveryPermissive)
	ctx := context.Background()

	code, err := svc.SendSignupOTP(ctx, "jane@example.com", "Jane", "Doe")
	require.NoError(t, err)

	_, err = svc.VerifyOTP(ctx, "jane@example.com", "000000")
	require.ErrorIs(t, err, ErrInvalidOTP)

	u, err := users.GetByEmail(ctx, "jane@example.com")
	require.NoError(t, err)
	require.True(t, u.HasPendingOTP())

	// The correct code still works after a failed attempt
	_, err = svc.VerifyOTP(ctx, "jane@example.com", code)
	require.NoError(t, err)
}

func TestVerifyOTP_ExpiredCode(t *testing.T) {
	svc, users, _, _ := newTestService(t, config.DeliveryPermissive)
	ctx := context.Background()

	code, err := svc.SendSignupOTP(ctx, "jane@example.com", "Jane", "Doe")
	require.NoError(t, err)

	users.expireOTP("jane@example.com", time.Now().Add(-time.Minute))

	_, err = svc.VerifyOTP(ctx, "jane@example.com", code)
	require.ErrorIs(t, err, ErrOTPExpired)
}

func TestVerifyOTP_WrongCodeBeatsExpired(t *testing.T) {
	svc, users, _, _ := newTestService(t, config.DeliveryPermissive)
	ctx := context.Background()

	_, err := svc.SendSignupOTP(ctx, "jane@example.com", "Jane", "Doe")
	require.NoError(t, err)

	users.expireOTP("jane@example.com", time.Now().Add(-time.Minute))

	// Mismatch takes precedence over expiry
	_, err = svc.VerifyOTP(ctx, "jane@example.com", "000000")
	require.ErrorIs(t, err, ErrInvalidOTP)
}

func TestVerifyOTP_UnknownEmail(t *testing.T) {
	svc, _, _, _ := newTestService(t, config.DeliveryPermissive)

	_, err := svc.VerifyOTP(context.Background(), "nobody@example.com", "123456")
	require.ErrorIs(t, err, user.ErrNotFound)
}

func TestVerifyOTP_NoPendingCode(t *testing.T) {
	svc, users, _, _ := newTestService(t, config.DeliveryPermissive)
	ctx := context.Background()

	code, err := svc.SendSignupOTP(ctx, "jane@example.com", "Jane", "Doe")
	require.NoError(t, err)
	_, err = svc.VerifyOTP(ctx, "jane@example.com", code)
	require.NoError(t, err)

	u, err := users.GetByEmail(ctx, "jane@example.com")
	require.NoError(t, err)
	require.False(t, u.HasPendingOTP())

	// Submitting any code against a user with no pending code is invalid,
	// not expired
	_, err = svc.VerifyOTP(ctx, "jane@example.com", code)
	require.ErrorIs(t, err, ErrInvalidOTP)
}

func TestLogout_RevokesSession(t *testing.T) {
	svc, _, sessions, _ := newTestService(t, config.DeliveryPermissive)
	ctx := context.Background()

	code, err := svc.SendSignupOTP(ctx, "jane@example.com", "Jane", "Doe")
	require.NoError(t, err)
	sess, err := svc.VerifyOTP(ctx, "jane@example.com", code)
	require.NoError(t, err)

	_, err = sessions.GetSession(ctx, sess.Token)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, sess.Token))

	_, err = sessions.GetSession(ctx, sess.Token)
	require.ErrorIs(t, err, ErrSessionNotFound)

	// Logging out twice is a no-op
	require.NoError(t, svc.Logout(ctx, sess.Token))
	require.NoError(t, svc.Logout(ctx, ""))
}

func TestDeliveryMode_StrictFailsTheSend(t *testing.T) {
	svc, _, _, mailer := newTestService(t, config.DeliveryStrict)
	mailer.fail = true

	_, err := svc.SendSignupOTP(context.Background(), "jane@example.com", "Jane", "Doe")
	require.ErrorIs(t, err, ErrDeliveryFailed)
}

func TestDeliveryMode_PermissiveSwallowsTheFailure(t *testing.T) {
	svc, users, _, mailer := newTestService(t, config.DeliveryPermissive)
	mailer.fail = true
	ctx := context.Background()

	code, err := svc.SendSignupOTP(ctx, "jane@example.com", "Jane", "Doe")
	require.NoError(t, err)
	require.Len(t, code, 6)

	// The code is usable even though the email never went out
	u, err := users.GetByEmail(ctx, "jane@example.com")
	require.NoError(t, err)
	require.Equal(t, code, *u.OTPCode)
}

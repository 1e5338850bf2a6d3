package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/sentriom/sentriom-api/internal/database"
)

// SessionRepository handles session persistence
type SessionRepository struct {
	db *bun.DB
}

func NewSessionRepository(db *bun.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// StoreSessionClearingOTP inserts the session row and clears the user's
// pending OTP in one transaction, so a crash cannot leave a verified user
// without a session.
func (r *SessionRepository) StoreSessionClearingOTP(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error {
	tokenHash := hashToken(token)

	err := r.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		dbSession := &database.Session{
			UserID:    userID,
			TokenHash: tokenHash,
			ExpiresAt: expiresAt,
		}

		if _, err := tx.NewInsert().
			Model(dbSession).
			Exec(ctx); err != nil {
			return fmt.Errorf("insert session: %w", err)
		}

		if _, err := tx.NewUpdate().
			Model((*database.User)(nil)).
			Set("otp_code = ?", nil).
			Set("otp_expires_at = ?", nil).
			Set("updated_at = NOW()").
			Where("id = ?", userID).
			Exec(ctx); err != nil {
			return fmt.Errorf("clear otp: %w", err)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}

	return nil
}

// GetSession returns the live session matching the token by exact hash
// match. Expired rows are treated as absent.
func (r *SessionRepository) GetSession(ctx context.Context, token string) (*Session, error) {
	tokenHash := hashToken(token)

	dbSession := new(database.Session)
	err := r.db.NewSelect().
		Model(dbSession).
		Where("token_hash = ?", tokenHash).
		Where("expires_at > NOW()").
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	return mapDBSessionToModel(dbSession), nil
}

// RevokeSession deletes the session matching the token. Revoking a token
// with no matching row is a success no-op.
func (r *SessionRepository) RevokeSession(ctx context.Context, token string) error {
	tokenHash := hashToken(token)

	_, err := r.db.NewDelete().
		Model((*database.Session)(nil)).
		Where("token_hash = ?", tokenHash).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}

	return nil
}

// CleanupExpiredSessions removes expired session rows. Run at startup;
// expiry enforcement itself never depends on this sweep.
func (r *SessionRepository) CleanupExpiredSessions(ctx context.Context) error {
	_, err := r.db.NewDelete().
		Model((*database.Session)(nil)).
		Where("expires_at < NOW()").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to cleanup expired sessions: %w", err)
	}

	return nil
}

// mapDBSessionToModel converts database model to domain model
func mapDBSessionToModel(dbs *database.Session) *Session {
	return &Session{
		ID:        dbs.ID,
		UserID:    dbs.UserID,
		TokenHash: dbs.TokenHash,
		ExpiresAt: dbs.ExpiresAt,
		CreatedAt: dbs.CreatedAt,
	}
}

package deposit

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

var ErrNotFound = errors.New("deposit not found")

// Repository handles deposit persistence
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// CreateParams carries the immutable facts of a new deposit.
type CreateParams struct {
	UserID           uuid.UUID
	Crypto           string
	CryptoName       string
	Amount           float64
	USDValue         float64
	PlanMonths       int
	APY              float64
	PaymentReference string
	MaturityDate     time.Time
}

// Create inserts a new pending deposit.
func (r *Repository) Create(ctx context.Context, params CreateParams) (*Deposit, error) {
	maturity := params.MaturityDate
	dbDeposit := &database.Deposit{
		UserID:           params.UserID,
		Crypto:           params.Crypto,
		CryptoName:       params.CryptoName,
		Amount:           params.Amount,
		USDValue:         params.USDValue,
		PlanMonths:       params.PlanMonths,
		APY:              params.APY,
		Status:           StatusPending,
		PaymentReference: params.PaymentReference,
		MaturityDate:     &maturity,
	}

	_, err := r.db.NewInsert().
		Model(dbDeposit).
		Returning("*").
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create deposit: %w", err)
	}

	return mapDBDepositToModel(dbDeposit), nil
}

// ListByUser returns the user's deposits, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*Deposit, error) {
	var dbDeposits []*database.Deposit
	err := r.db.NewSelect().
		Model(&dbDeposits).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list deposits: %w", err)
	}

	deposits := make([]*Deposit, 0, len(dbDeposits))
	for _, d := range dbDeposits {
		deposits = append(deposits, mapDBDepositToModel(d))
	}
	return deposits, nil
}

// GetByIDForUser returns a deposit only if it belongs to the user.
func (r *Repository) GetByIDForUser(ctx context.Context, id, userID uuid.UUID) (*Deposit, error) {
	dbDeposit := new(database.Deposit)
	err := r.db.NewSelect().
		Model(dbDeposit).
		Where("id = ?", id).
		Where("user_id = ?", userID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get deposit: %w", err)
	}

	return mapDBDepositToModel(dbDeposit), nil
}

// UpdateStatus flips a deposit's status, matching by id or payment
// reference so the webhook can address a deposit either way.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, reference, status string) error {
	q := r.db.NewUpdate().
		Model((*database.Deposit)(nil)).
		Set("status = ?", status).
		Set("updated_at = NOW()")

	if reference != "" {
		q = q.Where("id = ? OR payment_reference = ?", id, reference)
	} else {
		q = q.Where("id = ?", id)
	}

	result, err := q.Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update deposit status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// mapDBDepositToModel converts database model to domain model
func mapDBDepositToModel(dbd *database.Deposit) *Deposit {
	return &Deposit{
		ID:               dbd.ID,
		UserID:           dbd.UserID,
		Crypto:           dbd.Crypto,
		CryptoName:       dbd.CryptoName,
		Amount:           dbd.Amount,
		USDValue:         dbd.USDValue,
		PlanMonths:       dbd.PlanMonths,
		APY:              dbd.APY,
		Status:           dbd.Status,
		PaymentReference: dbd.PaymentReference,
		MaturityDate:     dbd.MaturityDate,
		CreatedAt:        dbd.CreatedAt,
		UpdatedAt:        dbd.UpdatedAt,
	}
}

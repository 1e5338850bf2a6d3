package admin

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/sentriom/sentriom-api/internal/database"
)

// Repository runs the cross-user aggregate queries behind the admin views.
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// Stats is the platform-wide aggregate for the admin dashboard.
type Stats struct {
	TotalUsers          int
	TotalDeposits       int
	TotalValue          float64
	PendingDeposits     int
	CompletedDeposits   int
	RecentSignups       int
	RecentDepositsCount int
	RecentDepositsValue float64
}

// UserRow is one row of the admin user listing.
type UserRow struct {
	ID             uuid.UUID `bun:"id"`
	Email          string    `bun:"email"`
	FirstName      string    `bun:"first_name"`
	LastName       string    `bun:"last_name"`
	FullName       string    `bun:"full_name"`
	CreatedAt      time.Time `bun:"created_at"`
	DepositCount   int       `bun:"deposit_count"`
	TotalDeposited float64   `bun:"total_deposited"`
}

// DepositRow is one row of the admin deposit listing.
type DepositRow struct {
	ID               uuid.UUID  `bun:"id"`
	UserEmail        string     `bun:"user_email"`
	Crypto           string     `bun:"crypto"`
	CryptoName       string     `bun:"crypto_name"`
	Amount           float64    `bun:"amount"`
	USDValue         float64    `bun:"usd_value"`
	PlanMonths       int        `bun:"plan"`
	APY              float64    `bun:"apy"`
	Status           string     `bun:"status"`
	PaymentReference string     `bun:"payment_reference"`
	MaturityDate     *time.Time `bun:"maturity_date"`
	CreatedAt        time.Time  `bun:"created_at"`
}

// GetStats collects the dashboard aggregates. Recent windows are the last
// seven days.
func (r *Repository) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}
	weekAgo := time.Now().AddDate(0, 0, -7)

	totalUsers, err := r.db.NewSelect().
		Model((*database.User)(nil)).
		Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	stats.TotalUsers = totalUsers

	err = r.db.NewSelect().
		Model((*database.Deposit)(nil)).
		ColumnExpr("COUNT(*)").
		ColumnExpr("COALESCE(SUM(usd_value), 0)").
		Scan(ctx, &stats.TotalDeposits, &stats.TotalValue)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate deposits: %w", err)
	}

	stats.PendingDeposits, err = r.db.NewSelect().
		Model((*database.Deposit)(nil)).
		Where("status = ?", "pending").
		Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count pending deposits: %w", err)
	}

	stats.CompletedDeposits, err = r.db.NewSelect().
		Model((*database.Deposit)(nil)).
		Where("status = ?", "completed").
		Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count completed deposits: %w", err)
	}

	stats.RecentSignups, err = r.db.NewSelect().
		Model((*database.User)(nil)).
		Where("created_at > ?", weekAgo).
		Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count recent signups: %w", err)
	}

	err = r.db.NewSelect().
		Model((*database.Deposit)(nil)).
		ColumnExpr("COUNT(*)").
		ColumnExpr("COALESCE(SUM(usd_value), 0)").
		Where("created_at > ?", weekAgo).
		Scan(ctx, &stats.RecentDepositsCount, &stats.RecentDepositsValue)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate recent deposits: %w", err)
	}

	return stats, nil
}

// ListUsers returns one page of users with their deposit totals, newest
// signups first, plus the overall user count.
func (r *Repository) ListUsers(ctx context.Context, limit, offset int) ([]UserRow, int, error) {
	total, err := r.db.NewSelect().
		Model((*database.User)(nil)).
		Count(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	var rows []UserRow
	err = r.db.NewSelect().
		TableExpr("users AS u").
		ColumnExpr("u.id, u.email, u.first_name, u.last_name, u.full_name, u.created_at").
		ColumnExpr("COUNT(d.id) AS deposit_count").
		ColumnExpr("COALESCE(SUM(d.usd_value), 0) AS total_deposited").
		Join("LEFT JOIN deposits AS d ON d.user_id = u.id").
		GroupExpr("u.id").
		OrderExpr("u.created_at DESC").
		Limit(limit).
		Offset(offset).
		Scan(ctx, &rows)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}

	return rows, total, nil
}

// ListDeposits returns one page of deposits joined with the owner's email,
// optionally filtered by status, plus the matching count.
func (r *Repository) ListDeposits(ctx context.Context, limit, offset int, status string) ([]DepositRow, int, error) {
	countQuery := r.db.NewSelect().Model((*database.Deposit)(nil))
	if status != "" {
		countQuery = countQuery.Where("status = ?", status)
	}
	total, err := countQuery.Count(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count deposits: %w", err)
	}

	q := r.db.NewSelect().
		TableExpr("deposits AS d").
		ColumnExpr("d.id, d.crypto, d.crypto_name, d.amount, d.usd_value, d.plan, d.apy").
		ColumnExpr("d.status, d.payment_reference, d.maturity_date, d.created_at").
		ColumnExpr("u.email AS user_email").
		Join("JOIN users AS u ON u.id = d.user_id").
		OrderExpr("d.created_at DESC").
		Limit(limit).
		Offset(offset)
	if status != "" {
		q = q.Where("d.status = ?", status)
	}

	var rows []DepositRow
	if err := q.Scan(ctx, &rows); err != nil {
		return nil, 0, fmt.Errorf("failed to list deposits: %w", err)
	}

	return rows, total, nil
}

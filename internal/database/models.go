package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the bun model for the users table. Exactly one pending OTP per
// user: both otp columns are set together and cleared together.
type User struct {
	bun.BaseModel `bun:"table:users"`

	ID           uuid.UUID  `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	Email        string     `bun:"email,unique,notnull"`
	FirstName    string     `bun:"first_name,notnull"`
	LastName     string     `bun:"last_name,notnull"`
	FullName     string     `bun:"full_name,notnull"`
	OTPCode      *string    `bun:"otp_code"`
	OTPExpiresAt *time.Time `bun:"otp_expires_at"`
	CreatedAt    time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt    time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// Session is the bun model for the sessions table. The token is stored as a
// SHA-256 hash; a row here is the server-side half of the bearer-token
// double check.
type Session struct {
	bun.BaseModel `bun:"table:sessions"`

	ID        int64     `bun:"id,pk,autoincrement"`
	UserID    uuid.UUID `bun:"user_id,type:uuid,notnull"`
	TokenHash string    `bun:"token_hash,unique,notnull"`
	ExpiresAt time.Time `bun:"expires_at,notnull"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

// Deposit is the bun model for the deposits table. Financial facts are
// immutable after creation; only status and updated_at change.
type Deposit struct {
	bun.BaseModel `bun:"table:deposits"`

	ID               uuid.UUID  `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	UserID           uuid.UUID  `bun:"user_id,type:uuid,notnull"`
	Crypto           string     `bun:"crypto,notnull"`
	CryptoName       string     `bun:"crypto_name,notnull"`
	Amount           float64    `bun:"amount,notnull"`
	USDValue         float64    `bun:"usd_value,notnull"`
	PlanMonths       int        `bun:"plan,notnull"`
	APY              float64    `bun:"apy,notnull"`
	Status           string     `bun:"status,notnull,default:'pending'"`
	PaymentReference string     `bun:"payment_reference"`
	MaturityDate     *time.Time `bun:"maturity_date"`
	CreatedAt        time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt        time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

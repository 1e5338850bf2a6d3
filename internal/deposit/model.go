package deposit

import (
	"time"

	"github.com/google/uuid"
)

// Deposit statuses. A deposit is created pending and flipped by the
// payment-provider webhook; the financial facts themselves never change.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// ValidStatus reports whether s is a known deposit status.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// Deposit is the domain model for a locked savings plan.
type Deposit struct {
	ID               uuid.UUID  `json:"id"`
	UserID           uuid.UUID  `json:"-"`
	Crypto           string     `json:"crypto"`
	CryptoName       string     `json:"cryptoName"`
	Amount           float64    `json:"amount"`
	USDValue         float64    `json:"usdValue"`
	PlanMonths       int        `json:"plan"`
	APY              float64    `json:"apy"`
	Status           string     `json:"status"`
	PaymentReference string     `json:"paymentReference"`
	MaturityDate     *time.Time `json:"maturityDate"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// DashboardStats aggregates a user's deposits for the dashboard view.
type DashboardStats struct {
	TotalBalance    string `json:"totalBalance"`
	TotalEarned     string `json:"totalEarned"`
	ActivePlans     int    `json:"activePlans"`
	PendingDeposits int    `json:"pendingDeposits"`
	AverageAPY      string `json:"averageAPY"`
}

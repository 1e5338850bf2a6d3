package deposit

import (
	"fmt"
	"time"
)

// ComputeDashboardStats aggregates a user's deposits. Earned interest is a
// simple pro-rata projection: usdValue * apy/100 * daysElapsed/365.
func ComputeDashboardStats(deposits []*Deposit, now time.Time) DashboardStats {
	var totalBalance, totalEarned, totalAPY float64
	pending := 0

	for _, d := range deposits {
		totalBalance += d.USDValue

		daysElapsed := now.Sub(d.CreatedAt).Hours() / 24
		if daysElapsed < 0 {
			daysElapsed = 0
		}
		totalEarned += d.USDValue * (d.APY / 100) * daysElapsed / 365

		totalAPY += d.APY
		if d.Status == StatusPending {
			pending++
		}
	}

	averageAPY := 0.0
	if len(deposits) > 0 {
		averageAPY = totalAPY / float64(len(deposits))
	}

	return DashboardStats{
		TotalBalance:    fmt.Sprintf("%.2f", totalBalance),
		TotalEarned:     fmt.Sprintf("%.2f", totalEarned),
		ActivePlans:     len(deposits),
		PendingDeposits: pending,
		AverageAPY:      fmt.Sprintf("%.1f", averageAPY),
	}
}

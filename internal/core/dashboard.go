package core

import "time"

type (
	Amount struct {
		Amount   Money  `json:"amount"`
		Currency string `json:"currency"`
	}

	QuickStats struct {
		Income   Amount `json:"income"`
		Expenses Amount `json:"expenses"`
	}

	// RecentTransaction is the trimmed row shown on the dashboard.
	RecentTransaction struct {
		ID       string    `json:"id"`
		Date     time.Time `json:"date"`
		Merchant string    `json:"merchant"`
		Amount   Money     `json:"amount"`
	}

	DashboardStats struct {
		AccountBalance         Amount              `json:"accountBalance"`
		QuickStats             QuickStats          `json:"quickStats"`
		MostRecentTransactions []RecentTransaction `json:"mostRecentTransactions"`
	}
)

// BuildDashboardStats aggregates txs. Income sums positive amounts, expenses
// sum negative amounts and are reported as a magnitude, and the balance is the
// signed total. The most recent entries are the first RecentCount in the given
// order, which stores keep newest first.
func BuildDashboardStats(txs []Transaction, currency string) DashboardStats {
	if currency == "" {
		currency = DefaultCurrency
	}
	var income, expenses Money
	for _, t := range txs {
		if t.IsIncome() {
			income = income.Add(t.Amount)
		} else {
			expenses = expenses.Add(t.Amount)
		}
	}

	n := min(RecentCount, len(txs))
	recent := make([]RecentTransaction, 0, n)
	for _, t := range txs[:n] {
		recent = append(recent, RecentTransaction{
			ID:       t.ID,
			Date:     t.Date,
			Merchant: t.Merchant,
			Amount:   t.Amount,
		})
	}

	return DashboardStats{
		AccountBalance: Amount{Amount: income.Add(expenses), Currency: currency},
		QuickStats: QuickStats{
			Income:   Amount{Amount: income, Currency: currency},
			Expenses: Amount{Amount: expenses.Abs(), Currency: currency},
		},
		MostRecentTransactions: recent,
	}
}

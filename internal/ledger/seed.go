package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"

	"bankdash/internal/core"
)

// seedNamespace makes generated transaction ids stable across runs.
var seedNamespace = uuid.MustParse("6f1d2a8e-3c4b-4e5f-9a7b-1c2d3e4f5a6b")

type merchant struct {
	name     string
	category string
	min, max int64 // cents
}

var (
	expenseMerchants = []merchant{
		{"CAFE Laila", "Food & Drink", 350, 1800},
		{"Blue Bottle Coffee", "Food & Drink", 400, 1500},
		{"Whole Foods Market", "Groceries", 2500, 18000},
		{"Trader Joe's", "Groceries", 1800, 9500},
		{"Shell Gas Station", "Transport", 3000, 8500},
		{"Uber", "Transport", 900, 4800},
		{"Netflix", "Entertainment", 1549, 1549},
		{"Spotify", "Entertainment", 1099, 1099},
		{"Amazon", "Shopping", 1200, 25000},
		{"Apple Store", "Shopping", 2900, 129900},
		{"City Utilities", "Bills", 6000, 21000},
		{"Verizon Wireless", "Bills", 5500, 9000},
		{"Planet Fitness", "Health", 2499, 2499},
		{"CVS Pharmacy", "Health", 800, 6000},
		{"Delta Air Lines", "Travel", 18000, 65000},
		{"Marriott Hotels", "Travel", 15000, 48000},
	}
	incomeMerchants = []merchant{
		{"Acme Corp Payroll", "Salary", 320000, 320000},
		{"Freelance Client", "Income", 45000, 180000},
		{"Interest Payment", "Interest", 150, 2500},
		{"Amazon Refund", "Refund", 1500, 12000},
	}
	accounts       = []string{"Checking ****4821", "Savings ****1907", "Credit Card ****3355"}
	paymentMethods = []string{"Debit Card", "Credit Card", "Bank Transfer", "Direct Debit", "Apple Pay"}
	statuses       = []string{"completed", "completed", "completed", "pending"}
)

// DemoSeed is the seed the servers generate demo data with.
const DemoSeed uint64 = 1

// GenerateTransactions builds n demo transactions ending at now, newest
// first. The same seed and now always yield the same data.
func GenerateTransactions(n int, now time.Time, seed uint64) []core.Transaction {
	f := gofakeit.New(seed)
	out := make([]core.Transaction, 0, n)

	at := now.Truncate(time.Minute)
	for i := 0; i < n; i++ {
		at = at.Add(-time.Duration(f.IntRange(2, 21)) * time.Hour).Add(-time.Duration(f.IntRange(0, 59)) * time.Minute)

		var m merchant
		income := f.IntRange(0, 99) < 15
		if income {
			m = incomeMerchants[f.IntRange(0, len(incomeMerchants)-1)]
		} else {
			m = expenseMerchants[f.IntRange(0, len(expenseMerchants)-1)]
		}
		cents := m.min
		if m.max > m.min {
			cents += int64(f.IntRange(0, int(m.max-m.min)))
		}
		if !income {
			cents = -cents
		}
		amount := core.Money{Cents: cents}

		tx := core.Transaction{
			ID:              uuid.NewSHA1(seedNamespace, []byte(fmt.Sprintf("%d/%d", seed, i))).String(),
			Date:            at,
			Merchant:        m.name,
			Amount:          amount,
			Type:            core.TypeFor(amount),
			Category:        m.category,
			Account:         f.RandomString(accounts),
			Status:          f.RandomString(statuses),
			PaymentMethod:   f.RandomString(paymentMethods),
			ReferenceNumber: f.Numerify("REF-########"),
		}
		if f.IntRange(0, 2) > 0 {
			tx.Description = describe(f, m, income)
		}
		out = append(out, tx)
	}
	return out
}

func describe(f *gofakeit.Faker, m merchant, income bool) string {
	if income {
		return fmt.Sprintf("%s from %s, invoice %s", m.category, f.Company(), f.Numerify("#####"))
	}
	return fmt.Sprintf("%s purchase at %s, %s", m.category, m.name, f.City())
}

// DemoUser fills in whichever of the names are empty with generated ones,
// the same for a given seed.
func DemoUser(email, first, last string, seed uint64) core.User {
	f := gofakeit.New(seed)
	if first == "" {
		first = f.FirstName()
	}
	if last == "" {
		last = f.LastName()
	}
	return core.User{FirstName: first, LastName: last, Email: email}
}

// LoadTransactionsFile reads a JSON array of transactions, validates each
// one, fills in missing types from the amount sign and returns them newest
// first.
func LoadTransactionsFile(path string) ([]core.Transaction, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var txs []core.Transaction
	if err := json.Unmarshal(b, &txs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	for i := range txs {
		if txs[i].Type == "" {
			txs[i].Type = core.TypeFor(txs[i].Amount)
		}
		if err := txs[i].Validate(); err != nil {
			return nil, fmt.Errorf("transaction %d in %s: %w", i, path, err)
		}
	}
	SortNewestFirst(txs)
	return txs, nil
}

// SortNewestFirst orders txs by date descending, keeping the input order for
// equal dates.
func SortNewestFirst(txs []core.Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		return txs[i].Date.After(txs[j].Date)
	})
}

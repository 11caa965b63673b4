package core

import (
	"errors"
	"net/mail"
	"strings"
	"time"
)

const (
	// PageSize is the fixed number of transactions per page.
	PageSize = 10
	// RecentCount is how many transactions the dashboard shows as most recent.
	RecentCount = 5
	// DefaultCurrency is the ISO code used for every amount in the dataset.
	DefaultCurrency = "USD"
)

const (
	TypeCredit TransactionType = "credit"
	TypeDebit  TransactionType = "debit"
)

type (
	TransactionType string

	User struct {
		ID        string `json:"id"`
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
		Email     string `json:"email"`
	}

	// Account is a User plus its credential hash; it never leaves the server.
	Account struct {
		User
		PasswordHash string `json:"-"`
	}

	Transaction struct {
		ID              string          `json:"id"`
		Date            time.Time       `json:"date"`
		Merchant        string          `json:"merchant"`
		Amount          Money           `json:"amount"`
		Type            TransactionType `json:"type"`
		Category        string          `json:"category"`
		Description     string          `json:"description,omitempty"`
		Account         string          `json:"account,omitempty"`
		Status          string          `json:"status,omitempty"`
		PaymentMethod   string          `json:"paymentMethod,omitempty"`
		ReferenceNumber string          `json:"referenceNumber,omitempty"`
	}

	// Filters narrows a transaction listing. Zero values mean "no filter";
	// Page is normalised to 1 when below 1.
	Filters struct {
		Merchant string
		Date     time.Time
		Page     int
	}

	Credentials struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
)

var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidEmail     = errors.New("invalid email address")
	ErrEmptyPassword    = errors.New("password is required")
	ErrEmptyMerchant    = errors.New("empty merchant")
	ErrEmptyID          = errors.New("empty transaction id")
	ErrMissingDate      = errors.New("transaction date cannot be zero")
	ErrTypeSignMismatch = errors.New("transaction type does not match amount sign")
)

// TypeFor classifies an amount: positive amounts are income, everything else
// is an expense.
func TypeFor(m Money) TransactionType {
	if m.Cents > 0 {
		return TypeCredit
	}
	return TypeDebit
}

// IsIncome reports whether the transaction adds to the balance.
func (t Transaction) IsIncome() bool {
	return t.Amount.Cents > 0
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return ErrEmptyID
	}
	if t.Date.IsZero() {
		return ErrMissingDate
	}
	if strings.TrimSpace(t.Merchant) == "" {
		return ErrEmptyMerchant
	}
	if t.Type != "" && t.Amount.Cents != 0 && t.Type != TypeFor(t.Amount) {
		return ErrTypeSignMismatch
	}
	return nil
}

// FullName joins first and last name.
func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// ValidateEmail checks that s is a bare address such as "user@test.com".
func ValidateEmail(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s || !strings.Contains(s[strings.LastIndex(s, "@")+1:], ".") {
		return ErrInvalidEmail
	}
	return nil
}

func (c Credentials) Validate() error {
	if err := ValidateEmail(c.Email); err != nil {
		return err
	}
	if c.Password == "" {
		return ErrEmptyPassword
	}
	return nil
}

// Normalized returns a copy with Page clamped to at least 1 and the merchant
// query trimmed.
func (f Filters) Normalized() Filters {
	if f.Page < 1 {
		f.Page = 1
	}
	f.Merchant = strings.TrimSpace(f.Merchant)
	return f
}

// HasActive reports whether a merchant or date filter is set.
func (f Filters) HasActive() bool {
	return strings.TrimSpace(f.Merchant) != "" || !f.Date.IsZero()
}

// DateParam renders the date filter as YYYY-MM-DD, or "" when unset.
func (f Filters) DateParam() string {
	if f.Date.IsZero() {
		return ""
	}
	return f.Date.Format(DateLayout)
}

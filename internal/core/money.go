// Package core provides money parsing and formatting utilities.
//
// Amounts are held as signed integer cents. On the wire they travel as JSON
// numbers with two decimals, matching what the dashboard has always served.
package core

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/dustin/go-humanize"
)

var ErrInvalidAmount = errors.New("invalid amount")

type Money struct {
	Cents int64
}

// FromFloat converts a decimal amount to cents with half-away-from-zero
// rounding on the third decimal place.
func FromFloat(v float64) Money {
	return Money{Cents: int64(math.Round(v * 100))}
}

// Float returns the amount as a float64 for display and JSON.
// Use cents for arithmetic.
func (m Money) Float() float64 {
	return float64(m.Cents) / 100.0
}

// Abs returns the magnitude of m.
func (m Money) Abs() Money {
	if m.Cents < 0 {
		return Money{Cents: -m.Cents}
	}
	return m
}

func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatFloat(m.Float(), 'f', 2, 64)), nil
}

func (m *Money) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		m.Cents = 0
		return nil
	}
	v, err := strconv.ParseFloat(strings.Trim(s, `"`), 64)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, s)
	}
	*m = FromFloat(v)
	return nil
}

// ParseAmount converts a signed decimal string to cents.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators, an
// optional leading sign, and performs half-up rounding on the third decimal
// place.
//
// Examples:
//
//	ParseAmount("12.34")   -> 1234
//	ParseAmount("-12,34")  -> -1234
//	ParseAmount("12.345")  -> 1235
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	neg := false
	switch s[0] {
	case '-':
		neg = true
		s = s[1:]
	case '+':
		s = s[1:]
	}
	s = strings.ReplaceAll(s, ",", ".")
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return Money{}, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" && fracPart == "" {
		return Money{}, ErrInvalidAmount
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart + fracPart {
		if !unicode.IsDigit(r) {
			return Money{}, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv > maxSafeInt64-1 {
		return Money{}, ErrInvalidAmount
	}
	var fracCents int64
	if len(fracPart) > 0 {
		fracCents = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracCents += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}
	cents := iv*100 + fracCents
	if neg {
		cents = -cents
	}
	return Money{Cents: cents}, nil
}

var currencySymbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
	"INR": "₹",
	"KRW": "₩",
}

// zeroDecimal lists currencies without minor units; they are rounded to
// whole units when formatted.
var zeroDecimal = map[string]bool{
	"JPY": true,
	"KRW": true,
}

// FormatCurrency renders amount the way en-US locale formatting does:
// "-$50.25", "$0.00", "$1,234.56", "€100.00", "¥100". Unknown codes are
// prefixed with the code itself ("CHF 100.00").
func FormatCurrency(amount float64, code string) string {
	return FormatMoney(FromFloat(amount), code)
}

// FormatMoney is FormatCurrency for amounts already held in cents.
func FormatMoney(m Money, code string) string {
	if code == "" {
		code = DefaultCurrency
	}
	code = strings.ToUpper(code)
	cents := m.Cents
	neg := cents < 0
	if neg {
		cents = -cents
	}
	var digits string
	if zeroDecimal[code] {
		digits = humanize.Comma((cents + 50) / 100)
	} else {
		digits = humanize.Comma(cents/100) + "." + fmt.Sprintf("%02d", cents%100)
	}

	symbol, ok := currencySymbols[code]
	if !ok {
		symbol = code + " "
	}
	if neg {
		return "-" + symbol + digits
	}
	return symbol + digits
}

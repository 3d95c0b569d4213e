// Package types holds value types shared by the floor entities.
package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrOverflow is returned when an amount or quantity leaves the int64 range.
var ErrOverflow = errors.New("types: integer overflow")

// DefaultCurrency is used when a tenant does not set one.
const DefaultCurrency = "ars"

// Money is an amount in the currency's minor unit. Arithmetic is integer only.
//
//	ARS(250000) = $2500.00
type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"` // ISO 4217, lowercase
}

// New builds a Money value, normalizing the currency code.
func New(amount int64, currency string) Money {
	if currency == "" {
		currency = DefaultCurrency
	}
	return Money{Amount: amount, Currency: strings.ToLower(currency)}
}

// ARS is an Argentine peso amount in centavos.
func ARS(centavos int64) Money { return Money{Amount: centavos, Currency: "ars"} }

// USD is a US dollar amount in cents.
func USD(cents int64) Money { return Money{Amount: cents, Currency: "usd"} }

// Zero is a zero amount in currency.
func Zero(currency string) Money { return New(0, currency) }

// Add panics on currency mismatch.
func (m Money) Add(other Money) Money {
	m.mustMatch(other)
	return Money{Amount: m.Amount + other.Amount, Currency: m.Currency}
}

// Subtract panics on currency mismatch.
func (m Money) Subtract(other Money) Money {
	m.mustMatch(other)
	return Money{Amount: m.Amount - other.Amount, Currency: m.Currency}
}

// Multiply scales the amount by qty.
func (m Money) Multiply(qty int64) Money {
	return Money{Amount: m.Amount * qty, Currency: m.Currency}
}

// CheckedAdd is Add that reports ErrOverflow instead of wrapping.
func (m Money) CheckedAdd(other Money) (Money, error) {
	m.mustMatch(other)
	sum, err := AddInt64(m.Amount, other.Amount)
	if err != nil {
		return Money{}, err
	}
	return Money{Amount: sum, Currency: m.Currency}, nil
}

// CheckedMultiply is Multiply that reports ErrOverflow instead of wrapping.
func (m Money) CheckedMultiply(qty int64) (Money, error) {
	product, err := MulInt64(m.Amount, qty)
	if err != nil {
		return Money{}, err
	}
	return Money{Amount: product, Currency: m.Currency}, nil
}

// AddInt64 returns a+b or ErrOverflow.
func AddInt64(a, b int64) (int64, error) {
	if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
		return 0, ErrOverflow
	}
	return a + b, nil
}

// MulInt64 returns a*b or ErrOverflow.
func MulInt64(a, b int64) (int64, error) {
	if a == 0 || b == 0 {
		return 0, nil
	}
	c := a * b
	if (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) || c/b != a {
		return 0, ErrOverflow
	}
	return c, nil
}

func (m Money) IsZero() bool     { return m.Amount == 0 }
func (m Money) IsNegative() bool { return m.Amount < 0 }

// Equal compares amount and currency.
func (m Money) Equal(other Money) bool {
	return m.Amount == other.Amount && m.Currency == other.Currency
}

// FormatMajor renders the amount in major units without symbol, e.g. "2500.00".
func (m Money) FormatMajor() string {
	decimals := currencyDecimals(m.Currency)
	if decimals == 0 {
		return fmt.Sprintf("%d", m.Amount)
	}

	divisor := int64(1)
	for range decimals {
		divisor *= 10
	}

	abs, sign := m.Amount, ""
	if abs < 0 {
		abs, sign = -abs, "-"
	}
	return fmt.Sprintf("%s%d.%0*d", sign, abs/divisor, decimals, abs%divisor)
}

// String renders the amount with its symbol, e.g. "$2500.00".
func (m Money) String() string {
	return currencySymbol(m.Currency) + m.FormatMajor()
}

// MarshalJSON adds a display string next to amount and currency.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
		Display  string `json:"display"`
	}{m.Amount, m.Currency, m.String()})
}

// UnmarshalJSON accepts the MarshalJSON shape; display is ignored.
func (m *Money) UnmarshalJSON(data []byte) error {
	var raw struct {
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
		Display  string `json:"display"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*m = New(raw.Amount, raw.Currency)
	return nil
}

// Sum adds values in currency. An empty list yields Zero(currency).
func Sum(currency string, values ...Money) Money {
	total := Zero(currency)
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

func (m Money) mustMatch(other Money) {
	if m.Currency != other.Currency {
		panic(fmt.Sprintf("money: currency mismatch: %s != %s", m.Currency, other.Currency))
	}
}

func currencySymbol(currency string) string {
	switch strings.ToLower(currency) {
	case "ars", "usd", "clp", "mxn", "uyu", "cop":
		return "$"
	case "eur":
		return "€"
	case "brl":
		return "R$"
	default:
		return strings.ToUpper(currency) + " "
	}
}

func currencyDecimals(currency string) int {
	switch strings.ToLower(currency) {
	case "clp", "pyg", "jpy":
		return 0
	default:
		return 2
	}
}

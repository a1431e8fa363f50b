// Package types provides the value types shared by subscriptions and wallets.
package types

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Money is an amount in the currency's minor unit (kobo, cents, pesewas).
// Arithmetic is integer-only.
type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"` // lowercase ISO 4217
}

// NGN returns an amount in kobo.
func NGN(kobo int64) Money { return Money{Amount: kobo, Currency: "ngn"} }

// KES returns an amount in Kenyan cents.
func KES(cents int64) Money { return Money{Amount: cents, Currency: "kes"} }

// GHS returns an amount in pesewas.
func GHS(pesewas int64) Money { return Money{Amount: pesewas, Currency: "ghs"} }

// USD returns an amount in cents.
func USD(cents int64) Money { return Money{Amount: cents, Currency: "usd"} }

// Zero returns a zero amount in currency.
func Zero(currency string) Money { return Money{Currency: strings.ToLower(currency)} }

// Add panics on a currency mismatch.
func (m Money) Add(other Money) Money {
	m.mustMatch(other)
	return Money{Amount: m.Amount + other.Amount, Currency: m.Currency}
}

// Subtract panics on a currency mismatch.
func (m Money) Subtract(other Money) Money {
	m.mustMatch(other)
	return Money{Amount: m.Amount - other.Amount, Currency: m.Currency}
}

// Divide truncates toward zero.
func (m Money) Divide(divisor int64) Money {
	if divisor == 0 {
		panic("drops: money divided by zero")
	}
	return Money{Amount: m.Amount / divisor, Currency: m.Currency}
}

// Split divides m into n installments. Every installment but the last is
// each; last also carries the remainder so that each*(n-1)+last == m.
func (m Money) Split(n int) (each, last Money) {
	if n < 1 {
		panic("drops: money split into fewer than one part")
	}
	each = m.Divide(int64(n))
	last = Money{Amount: m.Amount - each.Amount*int64(n-1), Currency: m.Currency}
	return each, last
}

func (m Money) IsZero() bool     { return m.Amount == 0 }
func (m Money) IsPositive() bool { return m.Amount > 0 }
func (m Money) IsNegative() bool { return m.Amount < 0 }

// SameCurrency compares currency codes case-insensitively.
func (m Money) SameCurrency(other Money) bool {
	return strings.EqualFold(m.Currency, other.Currency)
}

// Equal reports whether both amount and currency match.
func (m Money) Equal(other Money) bool {
	return m.Amount == other.Amount && m.SameCurrency(other)
}

// LessThan panics on a currency mismatch.
func (m Money) LessThan(other Money) bool {
	m.mustMatch(other)
	return m.Amount < other.Amount
}

// FormatMajor renders the amount in major units with two decimals,
// e.g. NGN(150050) is "1500.50".
func (m Money) FormatMajor() string {
	sign := ""
	amt := m.Amount
	if amt < 0 {
		sign = "-"
		amt = -amt
	}
	return fmt.Sprintf("%s%d.%02d", sign, amt/100, amt%100)
}

// String renders e.g. "₦1500.50" or "1500.50 XOF" for currencies without a
// known symbol.
func (m Money) String() string {
	if sym, ok := symbols[strings.ToLower(m.Currency)]; ok {
		if m.Amount < 0 {
			return "-" + sym + m.FormatMajor()[1:]
		}
		return sym + m.FormatMajor()
	}
	return m.FormatMajor() + " " + strings.ToUpper(m.Currency)
}

// MarshalJSON adds a human-readable "display" field.
func (m Money) MarshalJSON() ([]byte, error) {
	type plain Money
	return json.Marshal(struct {
		plain
		Display string `json:"display"`
	}{plain: plain(m), Display: m.String()})
}

func (m Money) mustMatch(other Money) {
	if !m.SameCurrency(other) {
		panic(fmt.Sprintf("drops: currency mismatch %s vs %s", m.Currency, other.Currency))
	}
}

var symbols = map[string]string{
	"ngn": "₦",
	"kes": "KSh",
	"ghs": "GH₵",
	"usd": "$",
}

// Sum adds amounts of one currency. An empty input yields Zero("ngn").
func Sum(amounts ...Money) Money {
	if len(amounts) == 0 {
		return Zero("ngn")
	}
	total := Zero(amounts[0].Currency)
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

// Package core provides money parsing and handling utilities.
//
// This file contains functions for turning user-entered amounts into integer
// minor units and back, so that every sum in the ledger is exact.
package core

import (
	"math"
	"strconv"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// DefaultCurrency is used for display when no currency is configured.
const DefaultCurrency = money.BRL

// Money is an amount in minor currency units (cents).
type Money struct {
	Cents int64
}

// MaxAmountCents caps a single movement at one hundred billion in major
// units. Sums of up to 900k movements at the cap still fit in an int64.
const MaxAmountCents int64 = 10_000_000_000_000

var maxAmount = decimal.NewFromInt(MaxAmountCents).Shift(-2)

// ParseDecimalToCents converts a decimal string to cents.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and rounds
// half away from zero on the third decimal place. Only strictly positive
// amounts are accepted.
//
// Examples:
//
//	ParseDecimalToCents("12.34") -> 1234, nil
//	ParseDecimalToCents("12,34") -> 1234, nil
//	ParseDecimalToCents("12.345") -> 1235, nil
//	ParseDecimalToCents("12.344") -> 1234, nil
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.ContainsAny(s, "eE") {
		// exponents are accepted by decimal but never typed by users
		return 0, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	return decimalToCents(d)
}

// CentsFromAmount converts a major-unit amount to cents, rounding amount*100
// half away from zero.
func CentsFromAmount(amount float64) (int64, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0, ErrInvalidAmount
	}
	return decimalToCents(decimal.NewFromFloat(amount))
}

func decimalToCents(d decimal.Decimal) (int64, error) {
	if !d.IsPositive() {
		return 0, ErrInvalidAmount
	}
	if d.GreaterThan(maxAmount) {
		return 0, ErrAmountTooLarge
	}
	cents := d.Shift(2).Round(0).IntPart()
	if cents <= 0 {
		return 0, ErrInvalidAmount
	}
	return cents, nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	if m.Cents > MaxAmountCents {
		return ErrAmountTooLarge
	}
	return nil
}

func (m Money) Add(n Money) Money { return Money{Cents: m.Cents + n.Cents} }
func (m Money) Sub(n Money) Money { return Money{Cents: m.Cents - n.Cents} }
func (m Money) IsNegative() bool  { return m.Cents < 0 }

// Amount returns the exact major-unit value.
func (m Money) Amount() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// Float returns the major-unit value as a float64 for display purposes.
// Use cents for calculations.
func (m Money) Float() float64 {
	return m.Amount().InexactFloat64()
}

// Format renders the amount with the currency's symbol and separators.
func (m Money) Format(currency string) string {
	if currency == "" {
		currency = DefaultCurrency
	}
	return money.New(m.Cents, currency).Display()
}

// String renders the plain decimal value, e.g. "1500.00".
func (m Money) String() string {
	return m.Amount().StringFixed(2)
}

// MarshalJSON stores money as a bare integer of minor units.
func (m Money) MarshalJSON() ([]byte, error) {
	return strconv.AppendInt(nil, m.Cents, 10), nil
}

// UnmarshalJSON accepts an integer of minor units. Non-integral legacy values
// are rounded half away from zero.
func (m *Money) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" {
		m.Cents = 0
		return nil
	}
	if c, err := strconv.ParseInt(s, 10, 64); err == nil {
		m.Cents = c
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return err
	}
	m.Cents = d.Round(0).IntPart()
	return nil
}

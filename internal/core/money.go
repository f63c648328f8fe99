// Package core provides the ledger's domain records and money handling.
//
// Money is carried as decimal.Decimal. Expense amounts are whole units,
// rounded up from whatever the user typed; allowances may be fractional
// when a budget is created but must be whole when a budget is reset.
package core

import (
	"math"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// ParseDecimal converts user input to a decimal.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and an
// optional leading minus sign. Sign checks are left to the caller. Anything
// that is not a plain decimal literal is a ValidationError.
//
// Examples:
//
//	ParseDecimal("9.2")  -> 9.2, nil
//	ParseDecimal("9,2")  -> 9.2, nil
//	ParseDecimal("abc")  -> 0, ValidationError
//	ParseDecimal("1e3")  -> 0, ValidationError
func ParseDecimal(field, s string) (decimal.Decimal, error) {
	raw := s
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", ".")
	invalid := &ValidationError{Field: field, Value: raw, Err: errFor(field)}
	if s == "" {
		return decimal.Zero, invalid
	}
	body := strings.TrimPrefix(s, "-")
	parts := strings.Split(body, ".")
	if len(parts) > 2 || body == "." || body == "" {
		return decimal.Zero, invalid
	}
	for _, p := range parts {
		for _, r := range p {
			if !unicode.IsDigit(r) {
				return decimal.Zero, invalid
			}
		}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, invalid
	}
	return d, nil
}

// FromFloat converts a float to a decimal, rejecting NaN and infinities.
func FromFloat(field string, f float64) (decimal.Decimal, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, &ValidationError{Field: field, Err: errFor(field)}
	}
	return decimal.NewFromFloat(f), nil
}

// ExpenseAmount validates a spend and rounds it up to the next whole unit.
// 9.2 becomes 10; zero and negative amounts are rejected.
func ExpenseAmount(d decimal.Decimal) (decimal.Decimal, error) {
	if !d.IsPositive() {
		return decimal.Zero, &ValidationError{Field: "amount", Value: d.String(), Err: ErrInvalidAmount}
	}
	return d.Ceil(), nil
}

// ValidateAllowance checks the allowance given when a budget is created.
func ValidateAllowance(d decimal.Decimal) error {
	if d.IsNegative() {
		return &ValidationError{Field: "allowance", Value: d.String(), Err: ErrInvalidAllowance}
	}
	return nil
}

// ValidateResetAllowance checks the allowance given when a budget is reset,
// which must also be a whole number.
func ValidateResetAllowance(d decimal.Decimal) error {
	if err := ValidateAllowance(d); err != nil {
		return err
	}
	if !d.IsInteger() {
		return &ValidationError{Field: "allowance", Value: d.String(), Err: ErrNotWholeAllowance}
	}
	return nil
}

func errFor(field string) error {
	if field == "allowance" {
		return ErrInvalidAllowance
	}
	return ErrInvalidAmount
}

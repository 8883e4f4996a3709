package ledger

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// CentsPerUnit is the number of minor units in one major currency unit.
const CentsPerUnit = 100

// GatewayMinorUnitsPerCent converts ledger cents to gateway minor units (kobo).
const GatewayMinorUnitsPerCent = 1

// AmountCents is a non-negative integer currency amount in cents.
type AmountCents int64

// PositiveAmountCents is a strictly positive amount in cents.
type PositiveAmountCents int64

// SignedAmountCents is a signed transaction amount in cents.
type SignedAmountCents int64

// NewAmountCents validates a non-negative amount.
func NewAmountCents(raw int64) (AmountCents, error) {
	if raw < 0 {
		return 0, fmt.Errorf("%w: must not be negative", ErrInvalidAmount)
	}
	return AmountCents(raw), nil
}

// Int64 returns the raw cents value.
func (amount AmountCents) Int64() int64 {
	return int64(amount)
}

// NewPositiveAmountCents validates a strictly positive amount.
func NewPositiveAmountCents(raw int64) (PositiveAmountCents, error) {
	if raw <= 0 {
		return 0, fmt.Errorf("%w: must be greater than zero", ErrInvalidAmount)
	}
	return PositiveAmountCents(raw), nil
}

// Int64 returns the raw cents value.
func (amount PositiveAmountCents) Int64() int64 {
	return int64(amount)
}

// ToAmountCents converts to the non-negative amount type.
func (amount PositiveAmountCents) ToAmountCents() AmountCents {
	return AmountCents(amount)
}

// Credit returns the amount as a positive signed value.
func (amount PositiveAmountCents) Credit() SignedAmountCents {
	return SignedAmountCents(amount)
}

// Debit returns the amount as a negative signed value.
func (amount PositiveAmountCents) Debit() SignedAmountCents {
	return -SignedAmountCents(amount)
}

// MultiplySlots prices slots at this unit amount, rejecting overflow.
func (amount PositiveAmountCents) MultiplySlots(slots int64) (PositiveAmountCents, error) {
	if slots <= 0 {
		return 0, fmt.Errorf("%w: must be greater than zero", ErrInvalidSlots)
	}
	if int64(amount) > math.MaxInt64/slots {
		return 0, fmt.Errorf("%w: total price overflows", ErrInvalidAmount)
	}
	return PositiveAmountCents(int64(amount) * slots), nil
}

// Int64 returns the raw cents value.
func (amount SignedAmountCents) Int64() int64 {
	return int64(amount)
}

// Abs returns the magnitude as an unsigned amount.
func (amount SignedAmountCents) Abs() AmountCents {
	if amount < 0 {
		return AmountCents(-amount)
	}
	return AmountCents(amount)
}

// ToGatewayMinorUnits converts a ledger amount to the gateway's unit.
func ToGatewayMinorUnits(amount PositiveAmountCents) int64 {
	return amount.Int64() * GatewayMinorUnitsPerCent
}

// FromGatewayMinorUnits converts a gateway amount back to ledger cents.
func FromGatewayMinorUnits(minor int64) int64 {
	return minor / GatewayMinorUnitsPerCent
}

var maxMajorUnits = decimal.NewFromInt(math.MaxInt64).Shift(-2)

// ParseMajorUnits parses a decimal major-unit amount such as "150.25" into cents.
// Zero, negative, and values with more than two decimal places are rejected.
func ParseMajorUnits(raw string) (PositiveAmountCents, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, fmt.Errorf("%w: empty value", ErrInvalidAmount)
	}
	value, err := decimal.NewFromString(trimmed)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidAmount, raw)
	}
	if !value.IsPositive() {
		return 0, fmt.Errorf("%w: must be greater than zero", ErrInvalidAmount)
	}
	if !value.Equal(value.Truncate(2)) {
		return 0, fmt.Errorf("%w: at most two decimal places", ErrInvalidAmount)
	}
	if value.GreaterThan(maxMajorUnits) {
		return 0, fmt.Errorf("%w: too large", ErrInvalidAmount)
	}
	return NewPositiveAmountCents(value.Shift(2).IntPart())
}

// FormatMajorUnits renders cents as a fixed two-decimal major-unit string.
func FormatMajorUnits(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}

package currency

import (
	"bytes"
	"errors"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// DKK is the only currency the platform charges in today.
const DKK = "DKK"

var (
	hundred  = decimal.NewFromInt(100)
	maxMinor = decimal.NewFromInt(math.MaxInt64)
	minMinor = decimal.NewFromInt(math.MinInt64)
)

var (
	ErrInvalidAmount    = errors.New("invalid_amount")
	ErrAmountOutOfRange = errors.New("amount_out_of_range")
)

// MinorToMajor converts øre to kroner.
func MinorToMajor(amount int64) decimal.Decimal {
	return decimal.NewFromInt(amount).Div(hundred)
}

// MajorToMinor converts kroner to øre, rounding half away from zero. Amounts
// whose øre value does not fit in an int64 return ErrAmountOutOfRange.
func MajorToMinor(amount decimal.Decimal) (int64, error) {
	minor := amount.Mul(hundred).Round(0)
	if minor.GreaterThan(maxMinor) || minor.LessThan(minMinor) {
		return 0, ErrAmountOutOfRange
	}
	return minor.IntPart(), nil
}

// IsWholeOre reports whether amount has no precision below one øre.
func IsWholeOre(amount decimal.Decimal) bool {
	return amount.Mul(hundred).Equal(amount.Mul(hundred).Truncate(0))
}

// ParseMajor parses a kroner amount such as "1500", "1500.5" or "1500,50".
func ParseMajor(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	raw = strings.ReplaceAll(raw, ",", ".")
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return amount, nil
}

// FormatDKK renders øre in the Danish display format, e.g. "1.500,00 kr".
func FormatDKK(amount int64) string {
	major := MinorToMajor(amount)
	sign := ""
	if major.IsNegative() {
		sign = "-"
		major = major.Neg()
	}

	fixed := major.StringFixed(2)
	intPart, frac, _ := strings.Cut(fixed, ".")

	var grouped strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			grouped.WriteByte('.')
		}
		grouped.WriteRune(r)
	}

	return sign + grouped.String() + "," + frac + " kr"
}

// Kroner is a major-unit amount used at the API boundary. It marshals as a JSON
// number with two decimals and accepts either numbers or numeric strings.
type Kroner struct {
	decimal.Decimal
}

func NewKroner(minor int64) Kroner {
	return Kroner{Decimal: MinorToMajor(minor)}
}

// Minor returns the amount in øre.
func (k Kroner) Minor() (int64, error) {
	return MajorToMinor(k.Decimal)
}

func (k Kroner) MarshalJSON() ([]byte, error) {
	return []byte(k.StringFixed(2)), nil
}

func (k *Kroner) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return ErrInvalidAmount
	}
	raw := strings.Trim(string(data), `"`)
	amount, err := ParseMajor(raw)
	if err != nil {
		return err
	}
	k.Decimal = amount
	return nil
}

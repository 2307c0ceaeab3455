// Package money parses the locale-formatted numeric text that invoice
// extraction produces into exact decimal values. Every downstream
// computation in the reconciliation engine goes through ParseNumeric,
// so a parse failure here is surfaced, never coerced to zero.
package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// InvalidNumericFormatError reports numeric text that could not be
// parsed after separator stripping. Field is set by callers that know
// which source field the value came from.
type InvalidNumericFormatError struct {
	Field string
	Value string
}

func (e *InvalidNumericFormatError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid numeric format: %q", e.Value)
	}
	return fmt.Sprintf("invalid numeric format in field %s: %q", e.Field, e.Value)
}

// IsInvalidNumericFormat reports whether any error in the chain is an
// InvalidNumericFormatError.
func IsInvalidNumericFormat(err error) bool {
	var inf *InvalidNumericFormatError
	return errors.As(err, &inf)
}

// ParseNumeric converts numeric text with optional thousands separators
// (e.g. "35,816.00") into a decimal. Surrounding whitespace and a
// leading currency symbol are tolerated; anything else that is not a
// valid decimal literal fails with InvalidNumericFormatError.
func ParseNumeric(value string) (decimal.Decimal, error) {
	cleaned := strings.TrimSpace(value)
	cleaned = strings.TrimPrefix(cleaned, "$")
	cleaned = strings.ReplaceAll(cleaned, ",", "")

	if cleaned == "" {
		return decimal.Zero, &InvalidNumericFormatError{Value: value}
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, &InvalidNumericFormatError{Value: value}
	}
	return d, nil
}

// ParseField is ParseNumeric with the source field name attached to the
// failure, so callers can report which invoice field was malformed.
func ParseField(field, value string) (decimal.Decimal, error) {
	d, err := ParseNumeric(value)
	if err != nil {
		return decimal.Zero, &InvalidNumericFormatError{Field: field, Value: value}
	}
	return d, nil
}

package repay

import (
	"math/big"
	"regexp"
	"strconv"
	"strings"
)

// numericPattern accepts what the amount field lets a user type: an optional
// sign, digits and at most one decimal point. Partial values such as "12."
// or "-" match so they can be stored while typing.
var numericPattern = regexp.MustCompile(`^-?\d*(\.\d*)?$`)

// IsNumericInput reports whether text is an acceptable amount field value,
// including the transient partial forms.
func IsNumericInput(text string) bool {
	return numericPattern.MatchString(text)
}

// parseDecimal parses a complete decimal literal. Exponents, hex floats, NaN
// and Inf are rejected even though strconv would accept them.
func parseDecimal(text string) (float64, error) {
	trimmed := strings.TrimSpace(text)
	if !isCompleteDecimal(trimmed) {
		return 0, ErrMalformedAmount
	}
	value, err := strconv.ParseFloat(normalizeDecimal(trimmed), 64)
	if err != nil {
		return 0, ErrMalformedAmount
	}
	return value, nil
}

// parseDecimalRat is the exact counterpart of parseDecimal used for integer
// repay amounts.
func parseDecimalRat(text string) (*big.Rat, error) {
	trimmed := strings.TrimSpace(text)
	if !isCompleteDecimal(trimmed) {
		return nil, ErrMalformedAmount
	}
	value, ok := new(big.Rat).SetString(normalizeDecimal(trimmed))
	if !ok {
		return nil, ErrMalformedAmount
	}
	return value, nil
}

func isCompleteDecimal(text string) bool {
	if !numericPattern.MatchString(text) {
		return false
	}
	digits := strings.TrimPrefix(text, "-")
	digits = strings.Replace(digits, ".", "", 1)
	return digits != ""
}

// normalizeDecimal pads the partial forms "12." and "-.5" into "12.0" and
// "-0.5".
func normalizeDecimal(text string) string {
	sign := ""
	if strings.HasPrefix(text, "-") {
		sign, text = "-", text[1:]
	}
	if strings.HasPrefix(text, ".") {
		text = "0" + text
	}
	if strings.HasSuffix(text, ".") {
		text += "0"
	}
	return sign + text
}

// ToPercentage converts an amount typed by the user into the share of
// borrowAmount it represents, in percent.
func ToPercentage(text string, borrowAmount float64) (float64, error) {
	value, err := parseDecimal(text)
	if err != nil {
		return 0, err
	}
	if borrowAmount <= 0 {
		return 0, ErrNoDebt
	}
	return (value / borrowAmount) * 100, nil
}

// ToAmountText converts a percentage of borrowAmount into the amount field
// text, formatted with two decimals.
func ToAmountText(percentage, borrowAmount float64) string {
	return strconv.FormatFloat((percentage*borrowAmount)/100, 'f', 2, 64)
}

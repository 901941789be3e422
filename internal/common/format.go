package common

import (
	"fmt"
	"strings"

	"bitcoin-standard-go/internal/models"

	"github.com/shopspring/decimal"
)

const (
	// Default separator widths
	DefaultWidth = 80
)

// FormatSats renders a scaled-integer amount as whole units, e.g.
// 150_000_000 -> "1.50000000".
func FormatSats(amount int64) string {
	return decimal.NewFromInt(amount).
		Div(decimal.NewFromInt(models.SatsPerUnit)).
		StringFixed(8)
}

// FormatUsd renders a USD decimal with two places.
func FormatUsd(value decimal.Decimal) string {
	return "$" + value.StringFixed(2)
}

// ParseSats converts a whole-unit decimal string (e.g. "0.5") into scaled
// integer units, rejecting values with more than 8 fractional digits.
func ParseSats(value string) (int64, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", value, err)
	}
	scaled := d.Mul(decimal.NewFromInt(models.SatsPerUnit))
	if !scaled.IsInteger() {
		return 0, fmt.Errorf("amount %q has more than 8 decimal places", value)
	}
	big := scaled.BigInt()
	if !big.IsInt64() {
		return 0, fmt.Errorf("amount %q out of range", value)
	}
	return big.Int64(), nil
}

// PrintHeader prints a formatted header with title and separators
func PrintHeader(title string, width int) {
	fmt.Println("\n" + strings.Repeat("=", width))
	fmt.Println(title)
	fmt.Println(strings.Repeat("=", width))
}

// PrintFooter prints a formatted footer with message and separators
func PrintFooter(message string, width int) {
	fmt.Println("\n" + strings.Repeat("=", width))
	fmt.Println(message)
	fmt.Println(strings.Repeat("=", width) + "\n")
}

// PrintBoxSeparator prints a box-drawing separator line (for sub-sections)
func PrintBoxSeparator(width int) {
	fmt.Println("├" + strings.Repeat("─", width))
}

// BoxPrefix returns the appropriate box-drawing prefix for list items
func BoxPrefix(isLast bool) string {
	if isLast {
		return "└  "
	}
	return "│  "
}

package calculator

import (
	"fmt"
	"strings"

	"github.com/isdelr/simplecomm-be/internal/models"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const voluntaryDuesLabel = "Gratis / Sukarela"

// MaxAmount is the largest amount ParseAmount accepts (Rp 1 quadriliun).
var MaxAmount = decimal.New(1, 15)

// FormatRupiah renders an amount with Indonesian digit grouping, e.g. "Rp 50.000".
// A fractional part, if any, follows a decimal comma.
func FormatRupiah(amount decimal.Decimal) string {
	p := message.NewPrinter(language.Indonesian)

	whole := amount.Truncate(0)
	var out string
	if n := whole.BigInt(); n.IsInt64() {
		out = p.Sprintf("%d", n.Int64())
	} else {
		out = groupThousands(whole.String())
	}
	if frac := amount.Sub(whole).Abs(); !frac.IsZero() {
		out += "," + strings.TrimPrefix(frac.String(), "0.")
	}
	return "Rp " + out
}

// groupThousands inserts "." between groups of three digits of an integer
// literal.
func groupThousands(digits string) string {
	sign := ""
	if strings.HasPrefix(digits, "-") {
		sign, digits = "-", digits[1:]
	}
	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(d)
	}
	return sign + b.String()
}

// DuesDisplay derives the dues banner shown on a community's finance tab.
// Voluntary dues never show an amount or due date.
func DuesDisplay(c models.Community) models.DuesInfo {
	if !c.IsDuesMandatory {
		return models.DuesInfo{Label: voluntaryDuesLabel}
	}

	info := models.DuesInfo{Mandatory: true}
	amount, err := decimal.NewFromString(strings.TrimSpace(c.DuesAmount))
	if err != nil {
		amount = decimal.Zero
	}
	// Dues are shown in whole rupiah.
	info.Amount = FormatRupiah(amount.Truncate(0)) + " / bulan"
	if c.DuesDate > 0 {
		info.DueDate = fmt.Sprintf("Tanggal %d", c.DuesDate)
	}
	return info
}

// ParseAmount parses a non-negative currency magnitude no larger than MaxAmount.
func ParseAmount(s string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if amount.IsNegative() {
		return decimal.Zero, fmt.Errorf("amount must not be negative")
	}
	if amount.GreaterThan(MaxAmount) {
		return decimal.Zero, fmt.Errorf("amount must not exceed %s", MaxAmount)
	}
	return amount, nil
}

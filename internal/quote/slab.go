package quote

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Number of leading non-slab columns (product name, size).
const fixedColumns = 2

// SlabMatch is the outcome of a successful slab lookup.
type SlabMatch struct {
	Label string
	Price decimal.Decimal
	// Malformed lists slab labels that could not be parsed and were skipped.
	Malformed []string
}

// ResolveSlab scans the slab columns of row left to right and returns the
// price of the first column whose label covers qty. Labels are either
// "<min>-<max>" (inclusive) or "<min>+". Labels with non-numeric bounds are
// skipped and reported in SlabMatch.Malformed.
//
// A nil row, no covering label, or an empty/zero price cell yields
// ErrNoPrice. A covering label whose cell is not a positive number yields
// ErrBadPriceCell.
func ResolveSlab(row *PricingRow, qty int) (SlabMatch, error) {
	if row == nil {
		return SlabMatch{}, UserInput("resolve slab", ErrNoPrice)
	}

	var malformed []string
	for i := fixedColumns; i < len(row.Headers); i++ {
		label := strings.TrimSpace(row.Headers[i])
		ok, err := labelCovers(label, qty)
		if err != nil {
			malformed = append(malformed, label)
			continue
		}
		if !ok {
			continue
		}

		var cell string
		if i < len(row.Values) {
			cell = row.Values[i]
		}
		price, err := parsePrice(cell)
		if err != nil {
			return SlabMatch{Label: label, Malformed: malformed},
				DataIntegrity("resolve slab", fmt.Errorf("%w: column %q value %q", ErrBadPriceCell, label, cell))
		}
		if price.IsZero() {
			return SlabMatch{Label: label, Malformed: malformed}, UserInput("resolve slab", ErrNoPrice)
		}
		return SlabMatch{Label: label, Price: price, Malformed: malformed}, nil
	}

	return SlabMatch{Malformed: malformed}, UserInput("resolve slab", ErrNoPrice)
}

// labelCovers reports whether label's range contains qty. Headers that are
// neither ranges nor open-ended thresholds never match and are not errors.
func labelCovers(label string, qty int) (bool, error) {
	switch {
	case strings.Contains(label, "-"):
		lo, hi, _ := strings.Cut(label, "-")
		from, err := strconv.Atoi(strings.TrimSpace(lo))
		if err != nil {
			return false, err
		}
		to, err := strconv.Atoi(strings.TrimSpace(hi))
		if err != nil {
			return false, err
		}
		return qty >= from && qty <= to, nil
	case strings.Contains(label, "+"):
		from, err := strconv.Atoi(strings.TrimSpace(strings.Replace(label, "+", "", 1)))
		if err != nil {
			return false, err
		}
		return qty >= from, nil
	default:
		return false, nil
	}
}

// parsePrice accepts plain numbers with optional thousands separators.
// An empty cell parses as zero.
func parsePrice(cell string) (decimal.Decimal, error) {
	s := strings.ReplaceAll(strings.TrimSpace(cell), ",", "")
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("negative price %s", s)
	}
	return d, nil
}

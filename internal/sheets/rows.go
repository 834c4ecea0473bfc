package sheets

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cartonline/quotebot/internal/quote"
	"github.com/shopspring/decimal"
)

// Header names looked up in the first row of each sheet.
const (
	colProductName = "product_name"
	colSize        = "size"
	colPhone       = "phone"
	colType        = "type"
	colDiscount    = "discount"
)

// cellString renders a cell returned by the Sheets API as a string.
func cellString(v any) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return c
	case float64:
		return strconv.FormatFloat(c, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(c)
	default:
		return fmt.Sprint(c)
	}
}

func rowStrings(row []any, width int) []string {
	out := make([]string, width)
	for i := 0; i < width && i < len(row); i++ {
		out[i] = cellString(row[i])
	}
	return out
}

func indexOf(headers []string, name string) int {
	for i, h := range headers {
		if h == name {
			return i
		}
	}
	return -1
}

// findPricingRow returns the first data row whose product_name and size
// cells equal product and size exactly, or nil.
func findPricingRow(rows [][]any, product, size string) *quote.PricingRow {
	if len(rows) == 0 {
		return nil
	}
	headers := rowStrings(rows[0], len(rows[0]))
	nameIdx := indexOf(headers, colProductName)
	sizeIdx := indexOf(headers, colSize)
	if nameIdx < 0 || sizeIdx < 0 {
		return nil
	}

	for _, r := range rows[1:] {
		// The API drops trailing empty cells; pad so values line up with headers.
		values := rowStrings(r, len(headers))
		if values[nameIdx] == product && values[sizeIdx] == size {
			return &quote.PricingRow{Headers: headers, Values: values}
		}
	}
	return nil
}

// findCustomer returns the customer row for phone, or nil when absent.
// A missing or unparsable discount reads as 0.
func findCustomer(rows [][]any, phone string) *quote.Customer {
	if len(rows) == 0 {
		return nil
	}
	headers := rowStrings(rows[0], len(rows[0]))
	phoneIdx := indexOf(headers, colPhone)
	if phoneIdx < 0 {
		return nil
	}
	typeIdx := indexOf(headers, colType)
	discIdx := indexOf(headers, colDiscount)

	for _, r := range rows[1:] {
		values := rowStrings(r, len(headers))
		if values[phoneIdx] != phone {
			continue
		}
		c := quote.NewCustomer()
		if typeIdx >= 0 && strings.TrimSpace(values[typeIdx]) != "" {
			c.Type = strings.TrimSpace(values[typeIdx])
		}
		if discIdx >= 0 {
			c.DiscountPercent = parseDiscount(values[discIdx])
		}
		return &c
	}
	return nil
}

func parseDiscount(cell string) decimal.Decimal {
	s := strings.TrimSuffix(strings.TrimSpace(cell), "%")
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero
	}
	return d
}

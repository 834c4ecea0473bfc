package quote

import (
	"fmt"
	"strings"
	"time"
)

const currency = "₹"

// Fixed replies for the pipeline's terminal states.
const (
	ReplyProductNotFound = "Product not found in price list."
	ReplyNoPrice         = "No price available for that quantity."
	ReplyDataError       = "Sorry, pricing for this item needs attention. Our team will contact you shortly."
)

// LogEntry is one ledger row. Field order matches the order sheet columns.
type LogEntry struct {
	Timestamp       string
	CustomerPhone   string
	ProductName     string
	Size            string
	Quantity        int
	UnitPrice       string
	DiscountPercent string
	FinalUnitPrice  string
	TotalPrice      string
	PaymentMethod   string
	DeliveryLabel   string
}

// Row returns the entry as a sheet row.
func (e LogEntry) Row() []any {
	return []any{
		e.Timestamp,
		e.CustomerPhone,
		e.ProductName,
		e.Size,
		e.Quantity,
		e.UnitPrice,
		e.DiscountPercent,
		e.FinalUnitPrice,
		e.TotalPrice,
		e.PaymentMethod,
		e.DeliveryLabel,
	}
}

// FormatReply renders the WhatsApp quote message.
func FormatReply(q Quote) string {
	var b strings.Builder
	b.WriteString("✅ *Quote*\n")
	fmt.Fprintf(&b, "Product: %s %s\n", q.ProductName, q.Size)
	fmt.Fprintf(&b, "Qty: %d cartons\n", q.Quantity)
	fmt.Fprintf(&b, "Customer: %s\n", q.CustomerType)
	fmt.Fprintf(&b, "Price/carton: %s%s\n", currency, q.FinalUnitPrice.StringFixed(2))
	fmt.Fprintf(&b, "Total: %s%s\n", currency, q.TotalPrice.StringFixed(2))
	fmt.Fprintf(&b, "Payment: %s\n", q.PaymentMethod)
	fmt.Fprintf(&b, "Delivery: %s", q.DeliveryLabel)
	return b.String()
}

// NewLogEntry builds the ledger row for q. at is converted to UTC.
func NewLogEntry(at time.Time, phone string, q Quote) LogEntry {
	return LogEntry{
		Timestamp:       at.UTC().Format(time.RFC3339),
		CustomerPhone:   phone,
		ProductName:     q.ProductName,
		Size:            q.Size,
		Quantity:        q.Quantity,
		UnitPrice:       q.UnitPrice.StringFixed(2),
		DiscountPercent: q.DiscountPercent.String(),
		FinalUnitPrice:  q.FinalUnitPrice.StringFixed(2),
		TotalPrice:      q.TotalPrice.StringFixed(2),
		PaymentMethod:   q.PaymentMethod,
		DeliveryLabel:   q.DeliveryLabel,
	}
}

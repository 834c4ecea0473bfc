package quote

import "github.com/shopspring/decimal"

// Payment methods understood by DeliveryTime.
const (
	PaymentAdvance        = "advance"
	PaymentCOD            = "cod"
	PaymentCashOnDelivery = "cash on delivery"
)

// DefaultCustomerType is used when the sender has no row in the customer sheet.
const DefaultCustomerType = "New"

// PricingRow is one product+size row of the pricing sheet together with the
// sheet's header row. Headers[0] and Headers[1] are the product name and size
// columns; the remaining headers are quantity slab labels.
type PricingRow struct {
	Headers []string
	Values  []string
}

// Customer is the sender's row from the customer sheet.
type Customer struct {
	Type            string
	DiscountPercent decimal.Decimal
}

// NewCustomer returns the record used when the sender is unknown.
func NewCustomer() Customer {
	return Customer{Type: DefaultCustomerType, DiscountPercent: decimal.Zero}
}

type Request struct {
	ProductName   string
	Size          string
	Quantity      int
	PaymentMethod string
}

type Quote struct {
	Request
	CustomerType    string
	UnitPrice       decimal.Decimal
	DiscountPercent decimal.Decimal
	FinalUnitPrice  decimal.Decimal
	TotalPrice      decimal.Decimal
	DeliveryLabel   string
}

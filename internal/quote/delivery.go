package quote

import "strings"

// bulkThreshold is the first quantity that counts as a large order.
const bulkThreshold = 50

const (
	DeliverySameDay       = "Same-day delivery"
	DeliveryTwoDays       = "Delivery in 2 days"
	DeliveryThreeDays     = "Delivery in 3 days"
	DeliverySevenDays     = "Delivery in 7 days"
	DeliveryUnknownMethod = "Unknown payment method"
)

// DeliveryTime maps a payment method and order size to a delivery label.
func DeliveryTime(paymentMethod string, qty int) string {
	switch strings.ToLower(strings.TrimSpace(paymentMethod)) {
	case PaymentAdvance:
		if qty < bulkThreshold {
			return DeliverySameDay
		}
		return DeliveryTwoDays
	case PaymentCOD, PaymentCashOnDelivery:
		if qty < bulkThreshold {
			return DeliveryThreeDays
		}
		return DeliverySevenDays
	default:
		return DeliveryUnknownMethod
	}
}

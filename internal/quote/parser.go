package quote

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// UsageExample is a well-formed quote request.
const UsageExample = "NFF 8x80 - 100 cartons"

// UsageHint is sent back when a message cannot be parsed as a quote request.
const UsageHint = "Please send a message like: " + UsageExample

// MaxQuantity is the largest carton count accepted in one request.
const MaxQuantity = 1_000_000

// <product> <WxH> - <qty>[ anything]
var requestPattern = regexp.MustCompile(`(?i)(.+?)\s+(\d+x\d+)\s*-\s*(\d+)(.*)`)

// ParseRequest extracts a quote request from free text such as
// "NFF 8x80 - 100 cartons cod". The payment method is read from whatever
// follows the quantity and defaults to advance.
func ParseRequest(text string) (Request, error) {
	m := requestPattern.FindStringSubmatch(text)
	if m == nil {
		return Request{}, UserInput("parse", ErrNoMatch)
	}

	qty, err := strconv.Atoi(m[3])
	if err != nil || qty <= 0 {
		return Request{}, UserInput("parse", ErrNoMatch)
	}
	if qty > MaxQuantity {
		return Request{}, UserInput("parse", fmt.Errorf("%w: %d > %d", ErrQuantityTooLarge, qty, MaxQuantity))
	}

	name := strings.TrimSpace(m[1])
	if name == "" {
		return Request{}, UserInput("parse", ErrNoMatch)
	}

	return Request{
		ProductName:   name,
		Size:          strings.TrimSpace(m[2]),
		Quantity:      qty,
		PaymentMethod: detectPayment(m[4]),
	}, nil
}

func detectPayment(tail string) string {
	lower := strings.ToLower(tail)
	if strings.Contains(lower, PaymentCashOnDelivery) {
		return PaymentCashOnDelivery
	}
	for _, word := range strings.FieldsFunc(lower, func(r rune) bool {
		return !('a' <= r && r <= 'z')
	}) {
		switch word {
		case PaymentCOD:
			return PaymentCOD
		case PaymentAdvance:
			return PaymentAdvance
		}
	}
	return PaymentAdvance
}

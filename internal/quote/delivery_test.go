package quote

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeliveryTime(t *testing.T) {
	tests := []struct {
		method string
		qty    int
		want   string
	}{
		{"advance", 1, DeliverySameDay},
		{"advance", 49, DeliverySameDay},
		{"advance", 50, DeliveryTwoDays},
		{"advance", 500, DeliveryTwoDays},
		{"cod", 49, DeliveryThreeDays},
		{"cod", 50, DeliverySevenDays},
		{"cash on delivery", 10, DeliveryThreeDays},
		{"cash on delivery", 51, DeliverySevenDays},
		{"COD", 10, DeliveryThreeDays},
		{"unknown", 1, DeliveryUnknownMethod},
		{"", 1, DeliveryUnknownMethod},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, DeliveryTime(tt.method, tt.qty), "%q/%d", tt.method, tt.qty)
	}
}

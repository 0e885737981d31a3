package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vestire/server/internal/module/order"
)

func TestMapXenditStatus(t *testing.T) {
	tests := []struct {
		status  string
		payment order.PaymentStatus
		order   order.OrderStatus
		known   bool
	}{
		{"PAID", order.PaymentStatusPaid, order.OrderStatusProcessing, true},
		{"paid", order.PaymentStatusPaid, order.OrderStatusProcessing, true},
		{"SETTLED", order.PaymentStatusPaid, order.OrderStatusProcessing, true},
		{"EXPIRED", order.PaymentStatusExpired, order.OrderStatusCancelled, true},
		{"Pending", order.PaymentStatusPending, order.OrderStatusPending, true},
		{"ACTIVE", order.PaymentStatus("ACTIVE"), order.OrderStatusPending, false},
		{"", order.PaymentStatus(""), order.OrderStatusPending, false},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			got := MapXenditStatus(tt.status)
			assert.Equal(t, tt.payment, got.PaymentStatus)
			assert.Equal(t, tt.order, got.OrderStatus)
			assert.Equal(t, tt.known, got.Known)
			// Same input, same output.
			assert.Equal(t, got, MapXenditStatus(tt.status))
		})
	}
}

func TestMapNOWPaymentsStatus(t *testing.T) {
	tests := []struct {
		status  string
		payment order.PaymentStatus
		order   order.OrderStatus
		known   bool
	}{
		{"finished", order.PaymentStatusPaid, order.OrderStatusProcessing, true},
		{"PAID", order.PaymentStatusPaid, order.OrderStatusProcessing, true},
		{"confirming", order.PaymentStatusConfirming, order.OrderStatusPending, true},
		{"Waiting", order.PaymentStatusWaiting, order.OrderStatusPending, true},
		{"expired", order.PaymentStatusFailed, order.OrderStatusCancelled, true},
		{"canceled", order.PaymentStatusFailed, order.OrderStatusCancelled, true},
		{"failed", order.PaymentStatusFailed, order.OrderStatusCancelled, true},
		{"sending", "", "", false},
		{"partially_paid", "", "", false},
		{"refunded", "", "", false},
		{"confirmed", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			got := MapNOWPaymentsStatus(tt.status)
			assert.Equal(t, tt.payment, got.PaymentStatus)
			assert.Equal(t, tt.order, got.OrderStatus)
			assert.Equal(t, tt.known, got.Known)
			assert.Equal(t, got, MapNOWPaymentsStatus(tt.status))
		})
	}
}

func TestOutcome_Settles(t *testing.T) {
	assert.True(t, MapXenditStatus("SETTLED").Settles())
	assert.True(t, MapNOWPaymentsStatus("finished").Settles())
	assert.False(t, MapXenditStatus("PENDING").Settles())
	assert.False(t, MapXenditStatus("paid_out").Settles())
	assert.False(t, MapNOWPaymentsStatus("sending").Settles())
}

// Package domain holds the provider status vocabularies and their mapping
// onto internal order payment state.
package domain

import (
	"strings"

	"github.com/vestire/server/internal/module/order"
)

// Outcome is the internal state a provider status maps to. Known is false
// when the provider status has no entry in the table.
type Outcome struct {
	PaymentStatus order.PaymentStatus
	OrderStatus   order.OrderStatus
	Known         bool
}

// Settles reports whether the outcome completes the payment.
func (o Outcome) Settles() bool {
	return o.Known && o.PaymentStatus == order.PaymentStatusPaid
}

// Card/bank provider statuses.
const (
	XenditStatusPending = "pending"
	XenditStatusPaid    = "paid"
	XenditStatusSettled = "settled"
	XenditStatusExpired = "expired"
)

var xenditTable = map[string]Outcome{
	XenditStatusPaid:    {order.PaymentStatusPaid, order.OrderStatusProcessing, true},
	XenditStatusSettled: {order.PaymentStatusPaid, order.OrderStatusProcessing, true},
	XenditStatusExpired: {order.PaymentStatusExpired, order.OrderStatusCancelled, true},
	XenditStatusPending: {order.PaymentStatusPending, order.OrderStatusPending, true},
}

// MapXenditStatus maps a card/bank invoice status. Unlisted statuses pass
// through as the payment status with a pending order.
func MapXenditStatus(status string) Outcome {
	if out, ok := xenditTable[normalize(status)]; ok {
		return out
	}
	return Outcome{
		PaymentStatus: order.PaymentStatus(strings.TrimSpace(status)),
		OrderStatus:   order.OrderStatusPending,
	}
}

// Crypto provider statuses.
const (
	NOWPaymentsStatusWaiting       = "waiting"
	NOWPaymentsStatusConfirming    = "confirming"
	NOWPaymentsStatusConfirmed     = "confirmed"
	NOWPaymentsStatusSending       = "sending"
	NOWPaymentsStatusPartiallyPaid = "partially_paid"
	NOWPaymentsStatusFinished      = "finished"
	NOWPaymentsStatusPaid          = "paid"
	NOWPaymentsStatusFailed        = "failed"
	NOWPaymentsStatusRefunded      = "refunded"
	NOWPaymentsStatusExpired       = "expired"
	NOWPaymentsStatusCanceled      = "canceled"
)

var nowpaymentsTable = map[string]Outcome{
	NOWPaymentsStatusFinished:   {order.PaymentStatusPaid, order.OrderStatusProcessing, true},
	NOWPaymentsStatusPaid:       {order.PaymentStatusPaid, order.OrderStatusProcessing, true},
	NOWPaymentsStatusConfirming: {order.PaymentStatusConfirming, order.OrderStatusPending, true},
	NOWPaymentsStatusWaiting:    {order.PaymentStatusWaiting, order.OrderStatusPending, true},
	NOWPaymentsStatusExpired:    {order.PaymentStatusFailed, order.OrderStatusCancelled, true},
	NOWPaymentsStatusCanceled:   {order.PaymentStatusFailed, order.OrderStatusCancelled, true},
	NOWPaymentsStatusFailed:     {order.PaymentStatusFailed, order.OrderStatusCancelled, true},
}

// MapNOWPaymentsStatus maps a verified crypto payment status. Unlisted
// statuses return an Outcome with Known false and must not be written.
func MapNOWPaymentsStatus(status string) Outcome {
	if out, ok := nowpaymentsTable[normalize(status)]; ok {
		return out
	}
	return Outcome{}
}

func normalize(status string) string {
	return strings.ToLower(strings.TrimSpace(status))
}

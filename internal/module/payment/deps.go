package payment

import (
	"context"

	"github.com/vestire/server/internal/module/order"
	"github.com/vestire/server/internal/module/payment/provider"
)

// OrderWriter is the slice of the order module that payment reconciliation
// needs. *order.Service satisfies it.
type OrderWriter interface {
	GetOrder(ctx context.Context, id string) (*order.Order, error)
	AttachInvoice(ctx context.Context, id string, ref order.InvoiceRef, details order.PaymentDetails) (*order.Order, error)
	ApplyPaymentUpdate(ctx context.Context, id string, update *order.PaymentUpdate) (*order.ApplyResult, error)
}

// CardProvider issues and reads card/bank invoices.
type CardProvider interface {
	Configured() bool
	CreateInvoice(ctx context.Context, in *provider.CreateInvoiceInput) (*provider.XenditInvoiceResult, error)
	GetInvoice(ctx context.Context, id string) (*provider.XenditInvoice, error)
}

// CryptoProvider issues and reads crypto invoices and payments.
type CryptoProvider interface {
	Configured() bool
	CreateInvoice(ctx context.Context, in *provider.CreateCryptoInvoiceInput) (*provider.NOWPaymentsInvoice, error)
	GetCurrencies(ctx context.Context) ([]string, error)
	GetMinAmount(ctx context.Context, currencyFrom, currencyTo string) (*provider.MinAmount, error)
	GetPayment(ctx context.Context, id string) (*provider.NOWPaymentsPayment, error)
}

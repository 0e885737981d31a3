package payment

import (
	"github.com/shopspring/decimal"
	"github.com/vestire/server/internal/module/order"
	"github.com/vestire/server/internal/module/payment/provider"
)

// CreateInvoiceRequest represents a request for a card/bank invoice.
// Required fields are checked together so every missing one is reported.
type CreateInvoiceRequest struct {
	OrderID      string               `json:"orderId"`
	OrderNumber  string               `json:"orderNumber"`
	Amount       decimal.Decimal      `json:"amount"`
	Email        string               `json:"email"`
	Currency     string               `json:"currency,omitempty"`
	Description  string               `json:"description,omitempty"`
	CustomerName string               `json:"customerName,omitempty"`
	Items        []InvoiceItemRequest `json:"items,omitempty"`
}

// InvoiceItemRequest is a line item shown on the hosted invoice.
type InvoiceItemRequest struct {
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Category string          `json:"category,omitempty"`
}

func (r *CreateInvoiceRequest) toInput() *provider.CreateInvoiceInput {
	in := &provider.CreateInvoiceInput{
		OrderID:      r.OrderID,
		OrderNumber:  r.OrderNumber,
		Amount:       r.Amount,
		Currency:     r.Currency,
		Email:        r.Email,
		Description:  r.Description,
		CustomerName: r.CustomerName,
	}
	for _, it := range r.Items {
		in.Items = append(in.Items, provider.InvoiceItem{
			Name:     it.Name,
			Quantity: it.Quantity,
			Price:    it.Price,
			Category: it.Category,
		})
	}
	return in
}

// CreateInvoiceResponse is returned after a card/bank invoice is issued.
type CreateInvoiceResponse struct {
	Success bool `json:"success"`
	*provider.XenditInvoiceResult
}

// CreateCryptoInvoiceRequest represents a request for a crypto invoice.
type CreateCryptoInvoiceRequest struct {
	OrderID     string          `json:"orderId"`
	OrderNumber string          `json:"orderNumber"`
	Amount      decimal.Decimal `json:"amount"`
	Email       string          `json:"email"`
	Description string          `json:"description,omitempty"`
	Currency    string          `json:"currency,omitempty"`
}

func (r *CreateCryptoInvoiceRequest) toInput() *provider.CreateCryptoInvoiceInput {
	return &provider.CreateCryptoInvoiceInput{
		OrderID:     r.OrderID,
		OrderNumber: r.OrderNumber,
		Amount:      r.Amount,
		Email:       r.Email,
		Description: r.Description,
		Currency:    r.Currency,
	}
}

// CreateCryptoInvoiceResponse is returned after a crypto invoice is issued.
type CreateCryptoInvoiceResponse struct {
	Success bool                         `json:"success"`
	Invoice *provider.NOWPaymentsInvoice `json:"invoice"`
}

// CheckStatusRequest asks for a manual reconcile of a card/bank invoice.
type CheckStatusRequest struct {
	OrderID   string `json:"orderId"`
	InvoiceID string `json:"invoiceId"`
}

// CheckStatusResponse reports the order state after a manual reconcile.
type CheckStatusResponse struct {
	Success        bool                `json:"success"`
	OrderID        string              `json:"orderId"`
	PaymentStatus  order.PaymentStatus `json:"paymentStatus"`
	OrderStatus    order.OrderStatus   `json:"orderStatus"`
	ProviderStatus string              `json:"providerStatus"`
	Applied        bool                `json:"applied"`
}

// WebhookResponse is the acknowledgement body for provider callbacks.
type WebhookResponse struct {
	Success       bool                `json:"success"`
	OrderID       string              `json:"orderId,omitempty"`
	PaymentStatus order.PaymentStatus `json:"paymentStatus,omitempty"`
	OrderStatus   order.OrderStatus   `json:"orderStatus,omitempty"`
	Ignored       bool                `json:"ignored,omitempty"`
	Reason        string              `json:"reason,omitempty"`
	Error         string              `json:"error,omitempty"`
}

// CryptoStatus is the mapped view of a crypto payment for polling clients.
// Unmapped provider statuses are reported as "unknown".
type CryptoStatus struct {
	PaymentID     string              `json:"paymentId"`
	InvoiceID     string              `json:"invoiceId,omitempty"`
	OrderID       string              `json:"orderId"`
	PaymentStatus order.PaymentStatus `json:"paymentStatus"`
	OrderStatus   order.OrderStatus   `json:"orderStatus,omitempty"`
	PriceAmount   decimal.Decimal     `json:"priceAmount"`
	PriceCurrency string              `json:"priceCurrency"`
	PayAmount     *decimal.Decimal    `json:"payAmount,omitempty"`
	PayCurrency   string              `json:"payCurrency,omitempty"`
	ActuallyPaid  *decimal.Decimal    `json:"actuallyPaid,omitempty"`
	UpdatedAt     string              `json:"updatedAt,omitempty"`
}

// CryptoStatusResponse wraps a crypto status read.
type CryptoStatusResponse struct {
	Success bool          `json:"success"`
	Status  *CryptoStatus `json:"status"`
}

// XenditInvoiceStatus is the mapped view of a card/bank invoice.
type XenditInvoiceStatus struct {
	InvoiceID     string              `json:"invoiceId"`
	OrderID       string              `json:"orderId"`
	PaymentStatus order.PaymentStatus `json:"paymentStatus"`
	OrderStatus   order.OrderStatus   `json:"orderStatus"`
	Amount        decimal.Decimal     `json:"amount"`
	Currency      string              `json:"currency"`
	ExpiryDate    string              `json:"expiryDate,omitempty"`
}

// EventListResponse represents a paginated list of webhook events.
type EventListResponse struct {
	Events     []*WebhookEvent `json:"events"`
	Total      int64           `json:"total"`
	Page       int             `json:"page"`
	PageSize   int             `json:"pageSize"`
	TotalPages int             `json:"totalPages"`
}

// ReplayResponse reports the outcome of a webhook replay.
type ReplayResponse struct {
	Success bool             `json:"success"`
	Event   *WebhookEvent    `json:"event"`
	Result  *WebhookResponse `json:"result"`
}

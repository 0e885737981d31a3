package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// CheckoutRequest represents a request to place an order.
type CheckoutRequest struct {
	Items         []LineItemRequest `json:"items" binding:"required,min=1,dive"`
	CustomerEmail string            `json:"customerEmail" binding:"required,email"`
	CustomerName  string            `json:"customerName"`
	Currency      string            `json:"currency"`
}

// LineItemRequest represents a line item in a checkout request. UnitPrice is
// validated by the service since the binding tags cannot compare decimals.
type LineItemRequest struct {
	ProductID string          `json:"productId" binding:"required"`
	Name      string          `json:"name" binding:"required"`
	Size      string          `json:"size"`
	Quantity  int             `json:"quantity" binding:"required,min=1"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

// OrderFilter represents filters for listing orders.
type OrderFilter struct {
	PaymentStatus PaymentStatus `form:"paymentStatus"`
	Status        OrderStatus   `form:"status"`
	PaymentMethod PaymentMethod `form:"paymentMethod"`
	CustomerEmail string        `form:"email"`
}

// Pagination represents pagination parameters.
type Pagination struct {
	Page     int `form:"page" binding:"min=1"`
	PageSize int `form:"page_size" binding:"min=1,max=100"`
}

// NewPagination creates pagination with defaults.
func NewPagination() *Pagination {
	return &Pagination{
		Page:     1,
		PageSize: 20,
	}
}

// Offset returns the offset for database queries.
func (p *Pagination) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// OrderResponse is the customer-facing view of an order. It carries the
// mapped payment pair only, never raw provider vocabulary.
type OrderResponse struct {
	ID                 string          `json:"id"`
	OrderNumber        string          `json:"orderNumber"`
	Items              []LineItem      `json:"items"`
	TotalAmount        decimal.Decimal `json:"totalAmount"`
	Currency           string          `json:"currency"`
	PaymentStatus      PaymentStatus   `json:"paymentStatus"`
	Status             OrderStatus     `json:"status"`
	PaymentMethod      PaymentMethod   `json:"paymentMethod,omitempty"`
	PaymentCompletedAt *time.Time      `json:"paymentCompletedAt,omitempty"`
	CreatedAt          time.Time       `json:"createdAt"`
	UpdatedAt          time.Time       `json:"updatedAt"`
}

// AdminOrderResponse is the operator view of an order.
type AdminOrderResponse struct {
	OrderResponse
	CustomerEmail     string           `json:"customerEmail"`
	CustomerName      string           `json:"customerName,omitempty"`
	ProviderInvoiceID string           `json:"providerInvoiceId,omitempty"`
	ProviderStatus    string           `json:"providerStatus,omitempty"`
	PaidAmount        *decimal.Decimal `json:"paidAmount,omitempty"`
	PaidCurrency      string           `json:"paidCurrency,omitempty"`
	PaymentDetails    *PaymentDetails  `json:"paymentDetails,omitempty"`
}

// OrderListResponse represents a paginated list of orders.
type OrderListResponse struct {
	Orders     []*AdminOrderResponse `json:"orders"`
	Total      int64                 `json:"total"`
	Page       int                   `json:"page"`
	PageSize   int                   `json:"pageSize"`
	TotalPages int                   `json:"totalPages"`
}

// ToResponse converts an Order to its customer view.
func (o *Order) ToResponse() *OrderResponse {
	items := []LineItem(o.Items)
	if items == nil {
		items = []LineItem{}
	}
	return &OrderResponse{
		ID:                 o.ID,
		OrderNumber:        o.OrderNumber,
		Items:              items,
		TotalAmount:        o.TotalAmount,
		Currency:           o.Currency,
		PaymentStatus:      o.PaymentStatus,
		Status:             o.Status,
		PaymentMethod:      o.PaymentMethod,
		PaymentCompletedAt: o.PaymentCompletedAt,
		CreatedAt:          o.CreatedAt,
		UpdatedAt:          o.UpdatedAt,
	}
}

// ToAdminResponse converts an Order to its operator view.
func (o *Order) ToAdminResponse() *AdminOrderResponse {
	resp := &AdminOrderResponse{
		OrderResponse:     *o.ToResponse(),
		CustomerEmail:     o.CustomerEmail,
		CustomerName:      o.CustomerName,
		ProviderInvoiceID: o.ProviderInvoiceID,
		ProviderStatus:    o.ProviderStatus,
	}
	if o.PaidAmount.Valid {
		paid := o.PaidAmount.Decimal
		resp.PaidAmount = &paid
		resp.PaidCurrency = o.PaidCurrency
	}
	if details := o.Details(); details.Provider != "" {
		resp.PaymentDetails = &details
	}
	return resp
}

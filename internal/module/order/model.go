package order

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// OrderStatus represents the fulfilment lifecycle of an order.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// PaymentStatus represents the payment state of an order. Card provider
// statuses outside the known set are stored verbatim.
type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusWaiting    PaymentStatus = "waiting"
	PaymentStatusConfirming PaymentStatus = "confirming"
	PaymentStatusPaid       PaymentStatus = "paid"
	PaymentStatusExpired    PaymentStatus = "expired"
	PaymentStatusFailed     PaymentStatus = "failed"
	PaymentStatusCancelled  PaymentStatus = "cancelled"
)

// PaymentMethod represents how the customer pays.
type PaymentMethod string

const (
	PaymentMethodCard   PaymentMethod = "card"
	PaymentMethodCrypto PaymentMethod = "crypto"
)

// LineItem is a purchased product line.
type LineItem struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Size      string          `json:"size,omitempty"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

// Subtotal returns quantity * unit price.
func (i LineItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// PaymentDetails is the provider-specific payment sub-record.
type PaymentDetails struct {
	Provider       string           `json:"provider"`
	InvoiceID      string           `json:"invoiceId"`
	ProviderStatus string           `json:"providerStatus,omitempty"`
	PaidAmount     *decimal.Decimal `json:"paidAmount,omitempty"`
	PayAmount      *decimal.Decimal `json:"payAmount,omitempty"`
	PayCurrency    string           `json:"payCurrency,omitempty"`
	PriceAmount    *decimal.Decimal `json:"priceAmount,omitempty"`
	PriceCurrency  string           `json:"priceCurrency,omitempty"`
	LastUpdated    time.Time        `json:"lastUpdated"`
}

// Order represents a customer purchase.
type Order struct {
	ID                 string                        `gorm:"type:varchar(64);primaryKey"`
	OrderNumber        string                        `gorm:"type:varchar(32);uniqueIndex;not null"`
	Items              datatypes.JSONSlice[LineItem] `gorm:"not null"`
	TotalAmount        decimal.Decimal               `gorm:"type:numeric(12,2);not null"`
	Currency           string                        `gorm:"type:varchar(8);not null;default:USD"`
	CustomerEmail      string                        `gorm:"type:varchar(255);not null"`
	CustomerName       string                        `gorm:"type:varchar(255)"`
	PaymentStatus      PaymentStatus                 `gorm:"type:varchar(32);not null;default:pending;index"`
	Status             OrderStatus                   `gorm:"type:varchar(32);not null;default:pending;index"`
	PaymentMethod      PaymentMethod                 `gorm:"type:varchar(16)"`
	PaymentDetails     datatypes.JSONType[PaymentDetails]
	ProviderInvoiceID  string              `gorm:"type:varchar(128);not null;default:'';index"`
	ProviderStatus     string              `gorm:"type:varchar(64)"`
	PaidAmount         decimal.NullDecimal `gorm:"type:numeric(36,18)"`
	PaidCurrency       string              `gorm:"type:varchar(16)"`
	PaymentCompletedAt *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// TableName returns the database table name.
func (Order) TableName() string {
	return "orders"
}

// IsPaid returns true if the order has been paid.
func (o *Order) IsPaid() bool {
	return o.PaymentStatus == PaymentStatusPaid
}

// Details returns the stored payment sub-record.
func (o *Order) Details() PaymentDetails {
	return o.PaymentDetails.Data()
}

// InvoiceRef identifies the provider invoice attached to an order.
type InvoiceRef struct {
	Provider  string
	InvoiceID string
	Method    PaymentMethod
}

// PaymentUpdate is a reconciled provider state to write onto an order.
// Zero-valued optional fields leave the stored column unchanged.
type PaymentUpdate struct {
	Provider       string
	InvoiceID      string
	PaymentStatus  PaymentStatus
	Status         OrderStatus
	PaymentMethod  PaymentMethod
	ProviderStatus string
	// PaidAmount is in PaidCurrency, which for crypto is the pay currency
	// rather than the order currency.
	PaidAmount   decimal.NullDecimal
	PaidCurrency string
	Details      *PaymentDetails

	// PaymentCompletedAt is written when set. ResetCompletedAt writes NULL
	// when PaymentCompletedAt is nil.
	PaymentCompletedAt *time.Time
	ResetCompletedAt   bool

	UpdatedAt time.Time
}

// ApplyResult reports the outcome of a guarded payment write.
type ApplyResult struct {
	Order *Order
	// Applied is false when the write was a no-op because the order already
	// holds the same terminal status.
	Applied bool
}

package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
	apperrors "github.com/vestire/server/internal/shared/errors"
)

// XenditConfig configures the card/bank invoicing client.
type XenditConfig struct {
	BaseURL   string
	SecretKey string
	// Currency is the settlement currency invoices are issued in.
	Currency string
	// QuoteCurrency is the currency order amounts are quoted in when the
	// request does not name one.
	QuoteCurrency   string
	ConversionRate  decimal.Decimal
	InvoiceDuration int
	PublicURL       string
}

// XenditClient creates and reads card/bank invoices.
type XenditClient struct {
	cfg XenditConfig
	t   *transport
}

// NewXenditClient creates a new card/bank invoicing client.
func NewXenditClient(cfg XenditConfig, tc Config) *XenditClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.xendit.co"
	}
	return &XenditClient{
		cfg: cfg,
		t:   newTransport(NameXendit, cfg.BaseURL, tc),
	}
}

// Configured reports whether a secret key is present.
func (c *XenditClient) Configured() bool {
	return c.cfg.SecretKey != ""
}

// InvoiceItem is a line on a hosted invoice.
type InvoiceItem struct {
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Category string          `json:"category,omitempty"`
}

// CreateInvoiceInput is the request to issue a card/bank invoice.
type CreateInvoiceInput struct {
	OrderID      string
	OrderNumber  string
	Amount       decimal.Decimal
	Currency     string
	Email        string
	Description  string
	CustomerName string
	Items        []InvoiceItem
}

// Validate reports every missing required field at once.
func (in *CreateInvoiceInput) Validate() error {
	var missing []string
	if strings.TrimSpace(in.OrderID) == "" {
		missing = append(missing, "orderId")
	}
	if strings.TrimSpace(in.OrderNumber) == "" {
		missing = append(missing, "orderNumber")
	}
	if !in.Amount.IsPositive() {
		missing = append(missing, "amount")
	}
	if strings.TrimSpace(in.Email) == "" {
		missing = append(missing, "email")
	}
	if len(missing) > 0 {
		return apperrors.Validation("", missing...)
	}
	return nil
}

// XenditInvoiceResult is the normalized outcome of invoice creation.
type XenditInvoiceResult struct {
	InvoiceID      string          `json:"invoiceId"`
	InvoiceURL     string          `json:"invoiceUrl"`
	ExpiryDate     string          `json:"expiryDate"`
	Status         string          `json:"status"`
	Currency       string          `json:"currency"`
	Amount         decimal.Decimal `json:"amount"`
	OriginalAmount decimal.Decimal `json:"originalAmount"`
	ConversionRate decimal.Decimal `json:"conversionRate"`
}

// XenditInvoice is the provider's invoice record.
type XenditInvoice struct {
	ID         string              `json:"id"`
	ExternalID string              `json:"external_id"`
	Status     string              `json:"status"`
	Amount     decimal.Decimal     `json:"amount"`
	PaidAmount decimal.NullDecimal `json:"paid_amount"`
	Currency   string              `json:"currency"`
	InvoiceURL string              `json:"invoice_url"`
	ExpiryDate string              `json:"expiry_date"`
	PayerEmail string              `json:"payer_email"`
	PaidAt     string              `json:"paid_at"`
	Created    string              `json:"created"`
	Updated    string              `json:"updated"`
}

// XenditCallback is the invoice event body posted to the webhook.
type XenditCallback struct {
	ID             string              `json:"id"`
	ExternalID     string              `json:"external_id"`
	Status         string              `json:"status"`
	Amount         decimal.NullDecimal `json:"amount"`
	PaidAmount     decimal.NullDecimal `json:"paid_amount"`
	Currency       string              `json:"currency"`
	PaymentMethod  string              `json:"payment_method"`
	PaymentChannel string              `json:"payment_channel"`
	PayerEmail     string              `json:"payer_email"`
	PaidAt         string              `json:"paid_at"`
	Updated        string              `json:"updated"`
}

type xenditCreateRequest struct {
	ExternalID         string          `json:"external_id"`
	Amount             json.Number     `json:"amount"`
	Currency           string          `json:"currency"`
	PayerEmail         string          `json:"payer_email"`
	Description        string          `json:"description"`
	InvoiceDuration    int             `json:"invoice_duration,omitempty"`
	SuccessRedirectURL string          `json:"success_redirect_url"`
	FailureRedirectURL string          `json:"failure_redirect_url"`
	Items              []xenditItem    `json:"items,omitempty"`
	Customer           *xenditCustomer `json:"customer,omitempty"`
}

type xenditItem struct {
	Name     string      `json:"name"`
	Quantity int         `json:"quantity"`
	Price    json.Number `json:"price"`
	Category string      `json:"category,omitempty"`
}

type xenditCustomer struct {
	GivenNames string `json:"given_names,omitempty"`
	Email      string `json:"email"`
}

// Conversion returns the settlement amount for an amount quoted in
// quoteCurrency along with the applied rate.
func (c *XenditClient) Conversion(amount decimal.Decimal, quoteCurrency string) (decimal.Decimal, decimal.Decimal, error) {
	if quoteCurrency == "" {
		quoteCurrency = c.cfg.QuoteCurrency
	}
	if quoteCurrency == "" || strings.EqualFold(quoteCurrency, c.cfg.Currency) {
		return amount, decimal.NewFromInt(1), nil
	}
	if !c.cfg.ConversionRate.IsPositive() {
		return decimal.Zero, decimal.Zero, configurationError("Xendit", "conversion rate")
	}
	return amount.Mul(c.cfg.ConversionRate).Round(0), c.cfg.ConversionRate, nil
}

// CreateInvoice issues a hosted invoice for an order.
func (c *XenditClient) CreateInvoice(ctx context.Context, in *CreateInvoiceInput) (*XenditInvoiceResult, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if !c.Configured() {
		return nil, configurationError("Xendit", "secret key")
	}

	amount, rate, err := c.Conversion(in.Amount, in.Currency)
	if err != nil {
		return nil, err
	}

	description := in.Description
	if description == "" {
		description = "Order " + in.OrderNumber
	}

	body := &xenditCreateRequest{
		ExternalID:         in.OrderID,
		Amount:             json.Number(amount.String()),
		Currency:           strings.ToUpper(c.cfg.Currency),
		PayerEmail:         in.Email,
		Description:        description,
		InvoiceDuration:    c.cfg.InvoiceDuration,
		SuccessRedirectURL: redirectURL(c.cfg.PublicURL, "/checkout/success", in.OrderID),
		FailureRedirectURL: redirectURL(c.cfg.PublicURL, "/checkout/failed", in.OrderID),
		Customer:           &xenditCustomer{GivenNames: in.CustomerName, Email: in.Email},
	}
	for _, item := range in.Items {
		price := item.Price
		if !rate.Equal(decimal.NewFromInt(1)) {
			price = price.Mul(rate).Round(0)
		}
		body.Items = append(body.Items, xenditItem{
			Name:     item.Name,
			Quantity: item.Quantity,
			Price:    json.Number(price.String()),
			Category: item.Category,
		})
	}

	var inv XenditInvoice
	if err := c.t.do(ctx, call{
		op:     "create_invoice",
		method: http.MethodPost,
		path:   "/v2/invoices",
		body:   body,
		auth:   c.basicAuth,
	}, &inv); err != nil {
		return nil, err
	}
	if inv.ID == "" {
		return nil, apperrors.Provider(NameXendit, 0, "invoice response has no id", nil)
	}

	currency := inv.Currency
	if currency == "" {
		currency = body.Currency
	}
	return &XenditInvoiceResult{
		InvoiceID:      inv.ID,
		InvoiceURL:     inv.InvoiceURL,
		ExpiryDate:     inv.ExpiryDate,
		Status:         inv.Status,
		Currency:       currency,
		Amount:         amount,
		OriginalAmount: in.Amount,
		ConversionRate: rate,
	}, nil
}

// GetInvoice fetches an invoice by its provider id.
func (c *XenditClient) GetInvoice(ctx context.Context, id string) (*XenditInvoice, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperrors.Validation("", "invoiceId")
	}
	if !c.Configured() {
		return nil, configurationError("Xendit", "secret key")
	}

	var inv XenditInvoice
	if err := c.t.do(ctx, call{
		op:     "get_invoice",
		method: http.MethodGet,
		path:   "/v2/invoices/" + url.PathEscape(id),
		auth:   c.basicAuth,
	}, &inv); err != nil {
		return nil, err
	}
	return &inv, nil
}

func (c *XenditClient) basicAuth(req *http.Request) {
	req.SetBasicAuth(c.cfg.SecretKey, "")
}

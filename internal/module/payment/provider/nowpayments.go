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

const defaultInvoiceStatus = "pending"

// NOWPaymentsConfig configures the crypto payment client.
type NOWPaymentsConfig struct {
	BaseURL       string
	APIKey        string
	PriceCurrency string
	PayCurrency   string
	PublicURL     string
}

// NOWPaymentsClient creates and reads crypto invoices and payments.
type NOWPaymentsClient struct {
	cfg NOWPaymentsConfig
	t   *transport
}

// NewNOWPaymentsClient creates a new crypto payment client.
func NewNOWPaymentsClient(cfg NOWPaymentsConfig, tc Config) *NOWPaymentsClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.nowpayments.io/v1"
	}
	if cfg.PriceCurrency == "" {
		cfg.PriceCurrency = "usd"
	}
	if cfg.PayCurrency == "" {
		cfg.PayCurrency = "usdttrc20"
	}
	return &NOWPaymentsClient{
		cfg: cfg,
		t:   newTransport(NameNOWPayments, cfg.BaseURL, tc),
	}
}

// Configured reports whether an API key is present.
func (c *NOWPaymentsClient) Configured() bool {
	return c.cfg.APIKey != ""
}

// CreateCryptoInvoiceInput is the request to issue a crypto invoice.
type CreateCryptoInvoiceInput struct {
	OrderID     string
	OrderNumber string
	Amount      decimal.Decimal
	Email       string
	Description string
	Currency    string
}

// Validate reports every missing required field at once.
func (in *CreateCryptoInvoiceInput) Validate() error {
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

// NOWPaymentsInvoice is the normalized invoice summary returned to clients.
type NOWPaymentsInvoice struct {
	ID               string          `json:"id"`
	InvoiceURL       string          `json:"invoice_url"`
	PaymentURL       string          `json:"payment_url"`
	Status           string          `json:"status"`
	PriceAmount      decimal.Decimal `json:"price_amount"`
	PriceCurrency    string          `json:"price_currency"`
	PayAmount        decimal.Decimal `json:"pay_amount"`
	PayCurrency      string          `json:"pay_currency"`
	OrderID          string          `json:"order_id"`
	OrderDescription string          `json:"order_description"`
}

// NOWPaymentsPayment is the normalized subset of a provider payment record.
type NOWPaymentsPayment struct {
	PaymentID        FlexibleID          `json:"payment_id"`
	InvoiceID        FlexibleID          `json:"invoice_id"`
	PaymentStatus    string              `json:"payment_status"`
	PayAddress       string              `json:"pay_address,omitempty"`
	PriceAmount      decimal.Decimal     `json:"price_amount"`
	PriceCurrency    string              `json:"price_currency"`
	PayAmount        decimal.NullDecimal `json:"pay_amount"`
	ActuallyPaid     decimal.NullDecimal `json:"actually_paid"`
	PayCurrency      string              `json:"pay_currency"`
	OrderID          string              `json:"order_id"`
	OrderDescription string              `json:"order_description,omitempty"`
	CreatedAt        string              `json:"created_at,omitempty"`
	UpdatedAt        string              `json:"updated_at,omitempty"`
}

// NOWPaymentsCallback is the IPN body posted to the webhook.
type NOWPaymentsCallback struct {
	PaymentID     FlexibleID          `json:"payment_id"`
	InvoiceID     FlexibleID          `json:"invoice_id"`
	PaymentStatus string              `json:"payment_status"`
	PriceAmount   decimal.NullDecimal `json:"price_amount"`
	PriceCurrency string              `json:"price_currency"`
	PayAmount     decimal.NullDecimal `json:"pay_amount"`
	ActuallyPaid  decimal.NullDecimal `json:"actually_paid"`
	PayCurrency   string              `json:"pay_currency"`
	OrderID       string              `json:"order_id"`
	UpdatedAt     json.RawMessage     `json:"updated_at,omitempty"`
}

// MinAmount is the smallest payable amount for a currency pair.
type MinAmount struct {
	CurrencyFrom string          `json:"currency_from"`
	CurrencyTo   string          `json:"currency_to"`
	MinAmount    decimal.Decimal `json:"min_amount"`
}

type nowpaymentsCreateRequest struct {
	PriceAmount      json.Number `json:"price_amount"`
	PriceCurrency    string      `json:"price_currency"`
	PayCurrency      string      `json:"pay_currency"`
	OrderID          string      `json:"order_id"`
	OrderDescription string      `json:"order_description"`
	IPNCallbackURL   string      `json:"ipn_callback_url"`
	SuccessURL       string      `json:"success_url"`
	CancelURL        string      `json:"cancel_url"`
	CustomerEmail    string      `json:"customer_email,omitempty"`
}

type nowpaymentsInvoiceResponse struct {
	ID               FlexibleID          `json:"id"`
	InvoiceURL       string              `json:"invoice_url"`
	Status           string              `json:"status"`
	PriceAmount      decimal.NullDecimal `json:"price_amount"`
	PriceCurrency    string              `json:"price_currency"`
	PayAmount        decimal.NullDecimal `json:"pay_amount"`
	PayCurrency      *string             `json:"pay_currency"`
	OrderID          string              `json:"order_id"`
	OrderDescription string              `json:"order_description"`
}

// CreateInvoice issues a hosted crypto invoice for an order.
func (c *NOWPaymentsClient) CreateInvoice(ctx context.Context, in *CreateCryptoInvoiceInput) (*NOWPaymentsInvoice, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if !c.Configured() {
		return nil, configurationError("NOWPayments", "API key")
	}

	priceCurrency := strings.ToLower(strings.TrimSpace(in.Currency))
	if priceCurrency == "" {
		priceCurrency = c.cfg.PriceCurrency
	}
	description := in.Description
	if description == "" {
		description = "Order " + in.OrderNumber
	}

	body := &nowpaymentsCreateRequest{
		PriceAmount:      json.Number(in.Amount.String()),
		PriceCurrency:    priceCurrency,
		PayCurrency:      c.cfg.PayCurrency,
		OrderID:          in.OrderID,
		OrderDescription: description,
		IPNCallbackURL:   strings.TrimRight(c.cfg.PublicURL, "/") + "/api/payments/nowpayments/webhook",
		SuccessURL:       redirectURL(c.cfg.PublicURL, "/checkout/success", in.OrderID),
		CancelURL:        redirectURL(c.cfg.PublicURL, "/checkout/failed", in.OrderID),
		CustomerEmail:    in.Email,
	}

	var resp nowpaymentsInvoiceResponse
	if err := c.t.do(ctx, call{
		op:     "create_invoice",
		method: http.MethodPost,
		path:   "/invoice",
		body:   body,
		auth:   c.apiKey,
	}, &resp); err != nil {
		return nil, err
	}
	if resp.ID.Empty() {
		return nil, apperrors.Provider(NameNOWPayments, 0, "invoice response has no id", nil)
	}

	return c.normalizeInvoice(&resp, body, in.Amount), nil
}

func (c *NOWPaymentsClient) normalizeInvoice(resp *nowpaymentsInvoiceResponse, req *nowpaymentsCreateRequest, amount decimal.Decimal) *NOWPaymentsInvoice {
	inv := &NOWPaymentsInvoice{
		ID:               resp.ID.String(),
		InvoiceURL:       resp.InvoiceURL,
		PaymentURL:       resp.InvoiceURL,
		Status:           resp.Status,
		PriceAmount:      amount,
		PriceCurrency:    resp.PriceCurrency,
		PayCurrency:      c.cfg.PayCurrency,
		OrderID:          resp.OrderID,
		OrderDescription: resp.OrderDescription,
	}
	if inv.Status == "" {
		inv.Status = defaultInvoiceStatus
	}
	if resp.PriceAmount.Valid {
		inv.PriceAmount = resp.PriceAmount.Decimal
	}
	if inv.PriceCurrency == "" {
		inv.PriceCurrency = req.PriceCurrency
	}
	inv.PayAmount = inv.PriceAmount
	if resp.PayAmount.Valid {
		inv.PayAmount = resp.PayAmount.Decimal
	}
	if resp.PayCurrency != nil && *resp.PayCurrency != "" {
		inv.PayCurrency = *resp.PayCurrency
	}
	if inv.OrderID == "" {
		inv.OrderID = req.OrderID
	}
	if inv.OrderDescription == "" {
		inv.OrderDescription = req.OrderDescription
	}
	return inv
}

// GetCurrencies lists the currencies the account can accept.
func (c *NOWPaymentsClient) GetCurrencies(ctx context.Context) ([]string, error) {
	if !c.Configured() {
		return nil, configurationError("NOWPayments", "API key")
	}

	var resp struct {
		Currencies []string `json:"currencies"`
	}
	if err := c.t.do(ctx, call{
		op:     "get_currencies",
		method: http.MethodGet,
		path:   "/currencies",
		auth:   c.apiKey,
	}, &resp); err != nil {
		return nil, err
	}
	if resp.Currencies == nil {
		resp.Currencies = []string{}
	}
	return resp.Currencies, nil
}

// GetMinAmount returns the minimum payable amount from currencyFrom. An
// empty currencyTo uses the configured pay currency.
func (c *NOWPaymentsClient) GetMinAmount(ctx context.Context, currencyFrom, currencyTo string) (*MinAmount, error) {
	if strings.TrimSpace(currencyFrom) == "" {
		return nil, apperrors.Validation("", "currency_from")
	}
	if !c.Configured() {
		return nil, configurationError("NOWPayments", "API key")
	}
	if currencyTo == "" {
		currencyTo = c.cfg.PayCurrency
	}

	var resp MinAmount
	if err := c.t.do(ctx, call{
		op:     "get_min_amount",
		method: http.MethodGet,
		path:   "/min-amount",
		query:  url.Values{"currency_from": {currencyFrom}, "currency_to": {currencyTo}},
		auth:   c.apiKey,
	}, &resp); err != nil {
		return nil, err
	}
	if resp.CurrencyFrom == "" {
		resp.CurrencyFrom = currencyFrom
	}
	if resp.CurrencyTo == "" {
		resp.CurrencyTo = currencyTo
	}
	return &resp, nil
}

// GetPayment fetches a payment by id.
func (c *NOWPaymentsClient) GetPayment(ctx context.Context, id string) (*NOWPaymentsPayment, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperrors.Validation("", "id")
	}
	if !c.Configured() {
		return nil, configurationError("NOWPayments", "API key")
	}

	var p NOWPaymentsPayment
	if err := c.t.do(ctx, call{
		op:     "get_payment",
		method: http.MethodGet,
		path:   "/payment/" + url.PathEscape(id),
		auth:   c.apiKey,
	}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *NOWPaymentsClient) apiKey(req *http.Request) {
	req.Header.Set("x-api-key", c.cfg.APIKey)
}

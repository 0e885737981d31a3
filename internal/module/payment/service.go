package payment

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vestire/server/internal/module/order"
	"github.com/vestire/server/internal/module/payment/domain"
	"github.com/vestire/server/internal/module/payment/provider"
	apperrors "github.com/vestire/server/internal/shared/errors"
	"github.com/vestire/server/internal/shared/metrics"
	"go.uber.org/zap"
)

// unknownPaymentStatus is reported to polling clients for provider
// statuses with no mapping.
const unknownPaymentStatus order.PaymentStatus = "unknown"

// Config holds webhook verification secrets.
type Config struct {
	XenditWebhookToken   string
	NOWPaymentsIPNSecret string
}

// Service implements invoice creation, status polling and webhook
// reconciliation for both providers.
type Service struct {
	orders  OrderWriter
	card    CardProvider
	crypto  CryptoProvider
	events  Repository
	cfg     Config
	metrics *metrics.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

// NewService creates a new payment service.
func NewService(
	orders OrderWriter,
	card CardProvider,
	crypto CryptoProvider,
	events Repository,
	cfg Config,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Service {
	if cfg.XenditWebhookToken == "" {
		logger.Warn("xendit webhook token not configured, card callbacks are accepted without authentication")
	}
	if cfg.NOWPaymentsIPNSecret == "" {
		logger.Info("nowpayments ipn secret not configured, crypto callbacks rely on fetch verification only")
	}
	return &Service{
		orders:  orders,
		card:    card,
		crypto:  crypto,
		events:  events,
		cfg:     cfg,
		metrics: m,
		logger:  logger,
		now:     time.Now,
	}
}

// --- Invoice creation ---

// CreateCardInvoice issues a card/bank invoice and attaches it to the order.
func (s *Service) CreateCardInvoice(ctx context.Context, req *CreateInvoiceRequest) (*provider.XenditInvoiceResult, error) {
	in := req.toInput()
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if !s.card.Configured() {
		return nil, apperrors.Configuration("Xendit secret key is not configured")
	}
	if err := s.ensureUnpaid(ctx, in.OrderID); err != nil {
		return nil, err
	}

	res, err := s.card.CreateInvoice(ctx, in)
	if err != nil {
		s.logger.Error("create card invoice failed", zap.String("order_id", in.OrderID), zap.Error(err))
		return nil, err
	}

	amount := res.Amount
	s.attach(ctx, in.OrderID, order.InvoiceRef{
		Provider:  provider.NameXendit,
		InvoiceID: res.InvoiceID,
		Method:    order.PaymentMethodCard,
	}, order.PaymentDetails{
		ProviderStatus: res.Status,
		PriceAmount:    &amount,
		PriceCurrency:  res.Currency,
	})

	s.logger.Info("card invoice created",
		zap.String("order_id", in.OrderID),
		zap.String("invoice_id", res.InvoiceID),
		zap.String("amount", res.Amount.String()),
		zap.String("currency", res.Currency),
	)
	return res, nil
}

// CreateCryptoInvoice issues a crypto invoice and attaches it to the order.
func (s *Service) CreateCryptoInvoice(ctx context.Context, req *CreateCryptoInvoiceRequest) (*provider.NOWPaymentsInvoice, error) {
	in := req.toInput()
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if !s.crypto.Configured() {
		return nil, apperrors.Configuration("NOWPayments API key is not configured")
	}
	if err := s.ensureUnpaid(ctx, in.OrderID); err != nil {
		return nil, err
	}

	inv, err := s.crypto.CreateInvoice(ctx, in)
	if err != nil {
		s.logger.Error("create crypto invoice failed", zap.String("order_id", in.OrderID), zap.Error(err))
		return nil, err
	}

	priceAmount, payAmount := inv.PriceAmount, inv.PayAmount
	s.attach(ctx, in.OrderID, order.InvoiceRef{
		Provider:  provider.NameNOWPayments,
		InvoiceID: inv.ID,
		Method:    order.PaymentMethodCrypto,
	}, order.PaymentDetails{
		ProviderStatus: inv.Status,
		PriceAmount:    &priceAmount,
		PriceCurrency:  inv.PriceCurrency,
		PayAmount:      &payAmount,
		PayCurrency:    inv.PayCurrency,
	})

	s.logger.Info("crypto invoice created",
		zap.String("order_id", in.OrderID),
		zap.String("invoice_id", inv.ID),
		zap.String("price_amount", inv.PriceAmount.String()),
		zap.String("price_currency", inv.PriceCurrency),
	)
	return inv, nil
}

// ensureUnpaid refuses invoices for paid orders. Unknown orders are allowed
// since invoices may be issued before the order is stored.
func (s *Service) ensureUnpaid(ctx context.Context, orderID string) error {
	o, err := s.orders.GetOrder(ctx, orderID)
	switch {
	case errors.Is(err, order.ErrOrderNotFound):
		return nil
	case err != nil:
		s.logger.Warn("order lookup before invoice failed", zap.String("order_id", orderID), zap.Error(err))
		return nil
	case o.IsPaid():
		return apperrors.Conflict("order is already paid")
	}
	return nil
}

func (s *Service) attach(ctx context.Context, orderID string, ref order.InvoiceRef, details order.PaymentDetails) {
	_, err := s.orders.AttachInvoice(ctx, orderID, ref, details)
	switch {
	case err == nil:
	case errors.Is(err, order.ErrOrderNotFound):
		s.logger.Warn("invoice created for unknown order",
			zap.String("order_id", orderID),
			zap.String("provider", ref.Provider),
			zap.String("invoice_id", ref.InvoiceID),
		)
	case errors.Is(err, order.ErrOrderPaid):
		s.logger.Warn("order was paid while invoice was created",
			zap.String("order_id", orderID),
			zap.String("invoice_id", ref.InvoiceID),
		)
	default:
		s.logger.Error("attach invoice to order failed",
			zap.String("order_id", orderID),
			zap.String("invoice_id", ref.InvoiceID),
			zap.Error(err),
		)
	}
}

// --- Status polling ---

// GetCryptoStatus reads a crypto payment and maps its status.
func (s *Service) GetCryptoStatus(ctx context.Context, id string) (*CryptoStatus, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperrors.Validation("", "invoiceId")
	}
	p, err := s.crypto.GetPayment(ctx, id)
	if err != nil {
		return nil, err
	}

	status := &CryptoStatus{
		PaymentID:     p.PaymentID.String(),
		InvoiceID:     p.InvoiceID.String(),
		OrderID:       p.OrderID,
		PaymentStatus: unknownPaymentStatus,
		PriceAmount:   p.PriceAmount,
		PriceCurrency: p.PriceCurrency,
		PayCurrency:   p.PayCurrency,
		UpdatedAt:     p.UpdatedAt,
	}
	if out := domain.MapNOWPaymentsStatus(p.PaymentStatus); out.Known {
		status.PaymentStatus = out.PaymentStatus
		status.OrderStatus = out.OrderStatus
	}
	if p.PayAmount.Valid {
		status.PayAmount = &p.PayAmount.Decimal
	}
	if p.ActuallyPaid.Valid {
		status.ActuallyPaid = &p.ActuallyPaid.Decimal
	}
	return status, nil
}

// GetXenditInvoice reads a card/bank invoice and maps its status.
func (s *Service) GetXenditInvoice(ctx context.Context, id string) (*XenditInvoiceStatus, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperrors.Validation("", "invoiceId")
	}
	inv, err := s.card.GetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	out := domain.MapXenditStatus(inv.Status)
	return &XenditInvoiceStatus{
		InvoiceID:     inv.ID,
		OrderID:       inv.ExternalID,
		PaymentStatus: out.PaymentStatus,
		OrderStatus:   out.OrderStatus,
		Amount:        inv.Amount,
		Currency:      inv.Currency,
		ExpiryDate:    inv.ExpiryDate,
	}, nil
}

// CheckStatus re-reads a card/bank invoice and applies it to the order
// through the same guarded write as the webhook.
func (s *Service) CheckStatus(ctx context.Context, req *CheckStatusRequest) (*CheckStatusResponse, error) {
	var missing []string
	if strings.TrimSpace(req.OrderID) == "" {
		missing = append(missing, "orderId")
	}
	if strings.TrimSpace(req.InvoiceID) == "" {
		missing = append(missing, "invoiceId")
	}
	if len(missing) > 0 {
		return nil, apperrors.Validation("", missing...)
	}

	inv, err := s.card.GetInvoice(ctx, req.InvoiceID)
	if err != nil {
		return nil, err
	}
	if inv.ExternalID != "" && inv.ExternalID != req.OrderID {
		return nil, apperrors.Integrity("invoice does not belong to order", "external_id")
	}

	update := s.xenditUpdate(inv.ID, inv.Status, inv.PaidAmount, inv.Amount, inv.Currency, inv.PaidAt)
	res, err := s.orders.ApplyPaymentUpdate(ctx, req.OrderID, update)
	switch {
	case errors.Is(err, order.ErrOrderNotFound):
		return nil, apperrors.NotFound("order")
	case errors.Is(err, order.ErrTerminalState), errors.Is(err, order.ErrStaleReference):
		s.logger.Warn("manual status check not applied",
			zap.String("order_id", req.OrderID),
			zap.String("invoice_id", req.InvoiceID),
			zap.String("provider_status", inv.Status),
			zap.Error(err),
		)
	case err != nil:
		return nil, apperrors.Internal("failed to update order", err)
	}

	if res.Applied {
		s.metrics.RecordPaymentTransition(provider.NameXendit, string(res.Order.PaymentStatus))
	}
	return &CheckStatusResponse{
		Success:        true,
		OrderID:        req.OrderID,
		PaymentStatus:  res.Order.PaymentStatus,
		OrderStatus:    res.Order.Status,
		ProviderStatus: inv.Status,
		Applied:        res.Applied,
	}, nil
}

// xenditUpdate builds the order write for a card/bank invoice state.
func (s *Service) xenditUpdate(invoiceID, status string, paid decimal.NullDecimal, amount decimal.Decimal, currency, paidAt string) *order.PaymentUpdate {
	out := domain.MapXenditStatus(status)
	if !out.Known {
		s.logger.Warn("unmapped card provider status, storing raw value",
			zap.String("invoice_id", invoiceID),
			zap.String("provider_status", status),
		)
		s.metrics.RecordUnknownStatus(provider.NameXendit, status)
	}

	now := s.now().UTC()
	details := &order.PaymentDetails{
		Provider:       provider.NameXendit,
		InvoiceID:      invoiceID,
		ProviderStatus: status,
		PriceCurrency:  currency,
		LastUpdated:    now,
	}
	if !amount.IsZero() {
		details.PriceAmount = &amount
	}
	if paid.Valid {
		details.PaidAmount = &paid.Decimal
	}

	update := &order.PaymentUpdate{
		Provider:       provider.NameXendit,
		InvoiceID:      invoiceID,
		PaymentStatus:  out.PaymentStatus,
		Status:         out.OrderStatus,
		PaymentMethod:  order.PaymentMethodCard,
		ProviderStatus: status,
		PaidAmount:     paid,
		PaidCurrency:   currency,
		Details:        details,
		UpdatedAt:      now,
	}
	if out.Settles() {
		completed := now
		if t, err := time.Parse(time.RFC3339, paidAt); err == nil {
			completed = t.UTC()
		}
		update.PaymentCompletedAt = &completed
	} else {
		update.ResetCompletedAt = true
	}
	return update
}

// --- Crypto passthrough reads ---

// GetCurrencies lists currencies accepted by the crypto provider.
func (s *Service) GetCurrencies(ctx context.Context) ([]string, error) {
	return s.crypto.GetCurrencies(ctx)
}

// GetMinAmount returns the minimum crypto payment for a currency.
func (s *Service) GetMinAmount(ctx context.Context, currencyFrom, currencyTo string) (*provider.MinAmount, error) {
	return s.crypto.GetMinAmount(ctx, currencyFrom, currencyTo)
}

// GetCryptoPayment returns the provider's payment record.
func (s *Service) GetCryptoPayment(ctx context.Context, id string) (*provider.NOWPaymentsPayment, error) {
	return s.crypto.GetPayment(ctx, id)
}

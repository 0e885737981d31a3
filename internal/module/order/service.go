package order

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	apperrors "github.com/vestire/server/internal/shared/errors"
	"github.com/vestire/server/internal/shared/random"
	"go.uber.org/zap"
)

const defaultCurrency = "USD"

// Service implements order operations.
type Service struct {
	repo   Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewService creates a new order service.
func NewService(repo Repository, logger *zap.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// Checkout validates the cart and creates a pending order.
func (s *Service) Checkout(ctx context.Context, req *CheckoutRequest) (*Order, error) {
	if err := validateCheckout(req); err != nil {
		return nil, err
	}

	items := make([]LineItem, 0, len(req.Items))
	total := decimal.Zero
	for _, it := range req.Items {
		item := LineItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			Size:      it.Size,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice.Round(2),
		}
		total = total.Add(item.Subtotal())
		items = append(items, item)
	}

	now := s.now().UTC()
	orderNumber, err := random.OrderNumber(now)
	if err != nil {
		return nil, fmt.Errorf("generate order number: %w", err)
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = defaultCurrency
	}

	order := &Order{
		ID:            uuid.NewString(),
		OrderNumber:   orderNumber,
		Items:         items,
		TotalAmount:   total.Round(2),
		Currency:      currency,
		CustomerEmail: strings.TrimSpace(req.CustomerEmail),
		CustomerName:  strings.TrimSpace(req.CustomerName),
		PaymentStatus: PaymentStatusPending,
		Status:        OrderStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	s.logger.Info("order created",
		zap.String("order_id", order.ID),
		zap.String("order_number", order.OrderNumber),
		zap.String("total", order.TotalAmount.StringFixed(2)),
		zap.String("currency", order.Currency),
	)

	return order, nil
}

func validateCheckout(req *CheckoutRequest) error {
	if req == nil {
		return apperrors.Validation("", "items", "customerEmail")
	}
	var missing []string
	if len(req.Items) == 0 {
		missing = append(missing, "items")
	}
	if strings.TrimSpace(req.CustomerEmail) == "" {
		missing = append(missing, "customerEmail")
	}
	if len(missing) > 0 {
		return apperrors.Validation("", missing...)
	}

	for i, it := range req.Items {
		switch {
		case strings.TrimSpace(it.ProductID) == "":
			return apperrors.Validation(fmt.Sprintf("item %d: productId is required", i))
		case it.Quantity <= 0:
			return apperrors.Validation(fmt.Sprintf("item %d: quantity must be positive", i))
		case !it.UnitPrice.IsPositive():
			return apperrors.Validation(fmt.Sprintf("item %d: unitPrice must be positive", i))
		}
	}
	return nil
}

// GetOrder returns an order by ID.
func (s *Service) GetOrder(ctx context.Context, id string) (*Order, error) {
	return s.repo.FindByID(ctx, id)
}

// ListOrders lists orders for operators.
func (s *Service) ListOrders(ctx context.Context, filter *OrderFilter, pagination *Pagination) ([]*Order, int64, error) {
	if pagination == nil {
		pagination = NewPagination()
	}
	return s.repo.List(ctx, filter, pagination)
}

// AttachInvoice records ref as the active provider reference of an order.
func (s *Service) AttachInvoice(ctx context.Context, id string, ref InvoiceRef, details PaymentDetails) (*Order, error) {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.IsPaid() {
		return nil, ErrOrderPaid
	}
	if current.ProviderInvoiceID != "" && current.ProviderInvoiceID != ref.InvoiceID {
		fields := []zap.Field{
			zap.String("order_id", id),
			zap.String("previous_invoice_id", current.ProviderInvoiceID),
			zap.String("invoice_id", ref.InvoiceID),
			zap.String("previous_payment_status", string(current.PaymentStatus)),
		}
		if current.PaymentStatus == PaymentStatusConfirming {
			s.logger.Warn("replacing provider reference while a payment is confirming", fields...)
		} else {
			s.logger.Info("replacing provider reference", fields...)
		}
	}

	if details.Provider == "" {
		details.Provider = ref.Provider
	}
	if details.InvoiceID == "" {
		details.InvoiceID = ref.InvoiceID
	}
	details.LastUpdated = s.now().UTC()

	return s.repo.AttachInvoice(ctx, id, ref, details)
}

// ApplyPaymentUpdate writes a reconciled provider state onto an order.
func (s *Service) ApplyPaymentUpdate(ctx context.Context, id string, update *PaymentUpdate) (*ApplyResult, error) {
	if update.UpdatedAt.IsZero() {
		update.UpdatedAt = s.now().UTC()
	}
	result, err := s.repo.ApplyPaymentUpdate(ctx, id, update)
	if err != nil {
		return result, err
	}
	if result.Applied {
		s.logger.Info("order payment updated",
			zap.String("order_id", id),
			zap.String("provider", update.Provider),
			zap.String("invoice_id", update.InvoiceID),
			zap.String("payment_status", string(result.Order.PaymentStatus)),
			zap.String("status", string(result.Order.Status)),
		)
	}
	return result, nil
}

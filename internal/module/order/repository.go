package order

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Repository defines the interface for order data access.
type Repository interface {
	Create(ctx context.Context, order *Order) error
	FindByID(ctx context.Context, id string) (*Order, error)
	List(ctx context.Context, filter *OrderFilter, pagination *Pagination) ([]*Order, int64, error)

	// AttachInvoice makes ref the single active provider reference of an
	// unpaid order and resets its payment state to pending.
	AttachInvoice(ctx context.Context, id string, ref InvoiceRef, details PaymentDetails) (*Order, error)

	// ApplyPaymentUpdate writes a reconciled payment state under the terminal
	// and single-reference guards.
	ApplyPaymentUpdate(ctx context.Context, id string, update *PaymentUpdate) (*ApplyResult, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository creates a new order repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, order *Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) FindByID(ctx context.Context, id string) (*Order, error) {
	var order Order
	err := r.db.WithContext(ctx).First(&order, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

func (r *repository) List(ctx context.Context, filter *OrderFilter, pagination *Pagination) ([]*Order, int64, error) {
	var orders []*Order
	var total int64

	query := r.db.WithContext(ctx).Model(&Order{})

	if filter != nil {
		if filter.PaymentStatus != "" {
			query = query.Where("payment_status = ?", filter.PaymentStatus)
		}
		if filter.Status != "" {
			query = query.Where("status = ?", filter.Status)
		}
		if filter.PaymentMethod != "" {
			query = query.Where("payment_method = ?", filter.PaymentMethod)
		}
		if filter.CustomerEmail != "" {
			query = query.Where("customer_email = ?", filter.CustomerEmail)
		}
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if pagination != nil {
		query = query.Offset(pagination.Offset()).Limit(pagination.PageSize)
	}

	if err := query.Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

func (r *repository) AttachInvoice(ctx context.Context, id string, ref InvoiceRef, details PaymentDetails) (*Order, error) {
	if details.LastUpdated.IsZero() {
		details.LastUpdated = time.Now().UTC()
	}

	result := r.db.WithContext(ctx).
		Model(&Order{}).
		Where("id = ? AND payment_status <> ?", id, PaymentStatusPaid).
		Updates(map[string]any{
			"provider_invoice_id":  ref.InvoiceID,
			"payment_method":       ref.Method,
			"payment_status":       PaymentStatusPending,
			"status":               OrderStatusPending,
			"provider_status":      details.ProviderStatus,
			"payment_details":      datatypes.NewJSONType(details),
			"paid_amount":          nil,
			"payment_completed_at": nil,
			"updated_at":           details.LastUpdated,
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		existing, err := r.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if existing.IsPaid() {
			return nil, ErrOrderPaid
		}
		return existing, nil
	}
	return r.FindByID(ctx, id)
}

func (r *repository) ApplyPaymentUpdate(ctx context.Context, id string, update *PaymentUpdate) (*ApplyResult, error) {
	if update.UpdatedAt.IsZero() {
		update.UpdatedAt = time.Now().UTC()
	}

	query := r.db.WithContext(ctx).
		Model(&Order{}).
		Where("id = ?", id).
		Where("payment_status NOT IN ?", TerminalPaymentStatuses())
	if update.InvoiceID != "" {
		query = query.Where("(provider_invoice_id = '' OR provider_invoice_id = ?)", update.InvoiceID)
	}

	result := query.Updates(updateColumns(update))
	if result.Error != nil {
		return nil, result.Error
	}

	current, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if result.RowsAffected > 0 {
		return &ApplyResult{Order: current, Applied: true}, nil
	}

	switch t := Classify(current, update.InvoiceID, update.PaymentStatus); t {
	case TransitionNoop:
		return &ApplyResult{Order: current, Applied: false}, nil
	case TransitionApply:
		// Row matched the guards but nothing changed, which some drivers
		// report as zero affected rows.
		return &ApplyResult{Order: current, Applied: true}, nil
	default:
		return &ApplyResult{Order: current}, t.Err()
	}
}

func updateColumns(u *PaymentUpdate) map[string]any {
	cols := map[string]any{
		"payment_status": u.PaymentStatus,
		"updated_at":     u.UpdatedAt,
	}
	if u.Status != "" {
		cols["status"] = u.Status
	}
	if u.InvoiceID != "" {
		cols["provider_invoice_id"] = u.InvoiceID
	}
	if u.PaymentMethod != "" {
		cols["payment_method"] = u.PaymentMethod
	}
	if u.ProviderStatus != "" {
		cols["provider_status"] = u.ProviderStatus
	}
	if u.PaidAmount.Valid {
		cols["paid_amount"] = u.PaidAmount
		cols["paid_currency"] = u.PaidCurrency
	}
	if u.Details != nil {
		d := *u.Details
		if d.LastUpdated.IsZero() {
			d.LastUpdated = u.UpdatedAt
		}
		cols["payment_details"] = datatypes.NewJSONType(d)
	}
	switch {
	case u.PaymentCompletedAt != nil:
		cols["payment_completed_at"] = *u.PaymentCompletedAt
	case u.ResetCompletedAt:
		cols["payment_completed_at"] = nil
	}
	return cols
}

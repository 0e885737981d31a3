package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vestire/server/internal/module/order"
	"gorm.io/gorm"
)

// EventFilter represents filters for listing webhook events.
type EventFilter struct {
	Provider  string `form:"provider"`
	Processed *bool  `form:"processed"`
	OrderID   string `form:"orderId"`
}

// EventOutcome is the final state written onto a webhook event.
type EventOutcome struct {
	Status   EventStatus
	Verified bool
	OrderID  string
	Err      error
}

// Repository defines the interface for webhook event data access.
type Repository interface {
	CreateWebhookEvent(ctx context.Context, event *WebhookEvent) error
	GetWebhookEvent(ctx context.Context, id uuid.UUID) (*WebhookEvent, error)
	ListWebhookEvents(ctx context.Context, filter *EventFilter, pagination *order.Pagination) ([]*WebhookEvent, int64, error)
	FinishWebhookEvent(ctx context.Context, id uuid.UUID, outcome EventOutcome) error
	IncrementReplayCount(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository creates a new webhook event repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateWebhookEvent(ctx context.Context, event *WebhookEvent) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Status == "" {
		event.Status = EventStatusReceived
	}
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("create webhook event: %w", err)
	}
	return nil
}

func (r *repository) GetWebhookEvent(ctx context.Context, id uuid.UUID) (*WebhookEvent, error) {
	var event WebhookEvent
	err := r.db.WithContext(ctx).First(&event, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWebhookEventNotFound
		}
		return nil, fmt.Errorf("get webhook event: %w", err)
	}
	return &event, nil
}

func (r *repository) ListWebhookEvents(ctx context.Context, filter *EventFilter, pagination *order.Pagination) ([]*WebhookEvent, int64, error) {
	var events []*WebhookEvent
	var total int64

	query := r.db.WithContext(ctx).Model(&WebhookEvent{})
	if filter != nil {
		if filter.Provider != "" {
			query = query.Where("provider = ?", filter.Provider)
		}
		if filter.Processed != nil {
			query = query.Where("processed = ?", *filter.Processed)
		}
		if filter.OrderID != "" {
			query = query.Where("order_id = ?", filter.OrderID)
		}
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count webhook events: %w", err)
	}
	if pagination != nil {
		query = query.Offset(pagination.Offset()).Limit(pagination.PageSize)
	}
	if err := query.Order("created_at DESC").Find(&events).Error; err != nil {
		return nil, 0, fmt.Errorf("list webhook events: %w", err)
	}
	return events, total, nil
}

func (r *repository) FinishWebhookEvent(ctx context.Context, id uuid.UUID, outcome EventOutcome) error {
	now := time.Now().UTC()
	processed := outcome.Status == EventStatusProcessed || outcome.Status == EventStatusIgnored

	updates := map[string]any{
		"status":     outcome.Status,
		"verified":   outcome.Verified,
		"processed":  processed,
		"error":      "",
		"updated_at": now,
	}
	if processed {
		updates["processed_at"] = now
	}
	if outcome.OrderID != "" {
		updates["order_id"] = outcome.OrderID
	}
	if outcome.Err != nil {
		updates["error"] = outcome.Err.Error()
	}

	err := r.db.WithContext(ctx).
		Model(&WebhookEvent{}).
		Where("id = ?", id).
		Updates(updates).Error
	if err != nil {
		return fmt.Errorf("finish webhook event: %w", err)
	}
	return nil
}

func (r *repository) IncrementReplayCount(ctx context.Context, id uuid.UUID) error {
	err := r.db.WithContext(ctx).
		Model(&WebhookEvent{}).
		Where("id = ?", id).
		Update("replay_count", gorm.Expr("replay_count + 1")).Error
	if err != nil {
		return fmt.Errorf("increment replay count: %w", err)
	}
	return nil
}

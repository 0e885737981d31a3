package payment

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// EventStatus is the processing state of a received webhook.
type EventStatus string

const (
	// EventStatusReceived is set when the callback has been stored but not
	// yet handled.
	EventStatusReceived EventStatus = "received"
	// EventStatusRejected marks callbacks that failed authentication,
	// validation or integrity checks. They are never replayed.
	EventStatusRejected EventStatus = "rejected"
	// EventStatusFailed marks verified callbacks whose handling failed after
	// verification. They can be replayed.
	EventStatusFailed    EventStatus = "failed"
	EventStatusIgnored   EventStatus = "ignored"
	EventStatusProcessed EventStatus = "processed"
)

// Replayable reports whether an event in this status may be replayed.
// Only callbacks that passed authentication and then failed qualify.
func (s EventStatus) Replayable() bool {
	return s == EventStatusFailed
}

// WebhookEvent is the audit record of one provider callback.
type WebhookEvent struct {
	ID            uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	Provider      string         `json:"provider" gorm:"type:varchar(32);not null;index"`
	OrderID       string         `json:"orderId" gorm:"type:varchar(64);index"`
	InvoiceID     string         `json:"invoiceId" gorm:"type:varchar(128)"`
	PaymentID     string         `json:"paymentId,omitempty" gorm:"type:varchar(128)"`
	ClaimedStatus string         `json:"claimedStatus" gorm:"type:varchar(64)"`
	Payload       datatypes.JSON `json:"payload"`
	Status        EventStatus    `json:"status" gorm:"type:varchar(16);not null;default:received;index"`
	Verified      bool           `json:"verified" gorm:"not null;default:false"`
	Processed     bool           `json:"processed" gorm:"not null;default:false;index"`
	Error         string         `json:"error,omitempty" gorm:"type:text"`
	ReplayCount   int            `json:"replayCount" gorm:"not null;default:0"`
	ProcessedAt   *time.Time     `json:"processedAt,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

// TableName returns the database table name.
func (WebhookEvent) TableName() string {
	return "payment_webhook_events"
}

package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ActionCreatePurchaseRequest = "CREATE_PURCHASE_REQUEST"
	ActionUpdatePurchaseRequest = "UPDATE_PURCHASE_REQUEST"
	ActionApprovePurchase       = "APPROVE_PURCHASE"
	ActionRejectPurchase        = "REJECT_PURCHASE"
	ActionGeneratePurchaseOrder = "GENERATE_PURCHASE_ORDER"
	ActionReconcileReceipt      = "RECONCILE_RECEIPT"
)

// AuditLog tracks Who, What, and When for critical workflow changes.
// Reconciliation reports are persisted here as JSON details attached to
// their request, not as a first-class entity.
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // Nullable gracefully if automated
	User       *User      `gorm:"foreignKey:UserID" json:"user"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`        // Reference string (uuid/code)
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"` // Human readable name
	Details    string     `gorm:"type:jsonb" json:"details"`                      // Serialized JSON payload of the action
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}

func (l *AuditLog) BeforeCreate(_ *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

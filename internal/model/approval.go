package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Approval is one approver's decision on a purchase request. Written exactly
// once per (request, approver) pair and never updated afterwards.
type Approval struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	PurchaseRequestID uuid.UUID       `gorm:"type:uuid;not null;index;uniqueIndex:idx_request_approver" json:"purchase_request_id"`
	PurchaseRequest   *PurchaseRequest `gorm:"foreignKey:PurchaseRequestID" json:"-"`
	ApproverID        uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_request_approver" json:"approver_id"`
	Approver          *User           `gorm:"foreignKey:ApproverID" json:"approver,omitempty"`
	ApproverRole      Role            `gorm:"type:varchar(20);not null" json:"approver_role"` // role snapshot at decision time
	ApprovalLevel     int             `gorm:"not null" json:"approval_level"`                 // 1 or 2
	Approved          bool            `gorm:"not null" json:"approved"`
	Comments          string          `gorm:"type:text" json:"comments"`
	CreatedAt         time.Time       `gorm:"index" json:"created_at"`
}

func (a *Approval) BeforeCreate(_ *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

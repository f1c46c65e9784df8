package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PurchaseOrder is the system-generated authoritative record of an approved
// purchase. It is created synchronously inside the approval transaction and
// serves as the reconciliation baseline for submitted receipts.
type PurchaseOrder struct {
	ID                uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	PurchaseRequestID uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex" json:"purchase_request_id"`
	PurchaseRequest   *PurchaseRequest `gorm:"foreignKey:PurchaseRequestID" json:"-"`

	PONumber  string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"po_number"`
	IssueDate time.Time `gorm:"type:date;not null" json:"issue_date"`

	VendorName    string          `gorm:"type:varchar(200);not null" json:"vendor_name"`
	VendorContact string          `gorm:"type:varchar(200)" json:"vendor_contact"`
	VendorAddress string          `gorm:"type:text" json:"vendor_address"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total_amount"`

	Terms string `gorm:"type:text" json:"terms"`
	// POData holds the full deterministic snapshot (request fields, approval
	// history, terms) used when rendering the document externally.
	POData string `gorm:"type:jsonb" json:"po_data"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *PurchaseOrder) BeforeCreate(_ *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

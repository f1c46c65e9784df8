package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RequestStatus enum constants. Transitions are monotonic:
// pending -> approved | rejected, approved -> paid. rejected and paid are terminal.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
	StatusPaid     = "paid"
)

// Urgency enum constants
const (
	UrgencyLow      = "low"
	UrgencyNormal   = "normal"
	UrgencyHigh     = "high"
	UrgencyCritical = "critical"
)

// StatusDisplay maps a status value to its human readable label.
func StatusDisplay(status string) string {
	switch status {
	case StatusPending:
		return "Pending"
	case StatusApproved:
		return "Approved"
	case StatusRejected:
		return "Rejected"
	case StatusPaid:
		return "Paid"
	default:
		return status
	}
}

// ValidUrgency reports whether the given string is a known urgency level.
func ValidUrgency(urgency string) bool {
	switch urgency {
	case UrgencyLow, UrgencyNormal, UrgencyHigh, UrgencyCritical:
		return true
	}
	return false
}

// PurchaseRequest is the central workflow entity. Status transitions are
// owned by the workflow; field edits are owned by the creator while pending.
// Version guards every transition commit (optimistic concurrency).
type PurchaseRequest struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Title       string          `gorm:"type:varchar(200);not null" json:"title"`
	Description string          `gorm:"type:text" json:"description"`
	Amount      decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount"`
	Status      string          `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	Urgency     string          `gorm:"type:varchar(20);not null;default:'normal';index" json:"urgency"`

	VendorName    string `gorm:"type:varchar(200)" json:"vendor_name"`
	VendorContact string `gorm:"type:varchar(200)" json:"vendor_contact"`
	VendorAddress string `gorm:"type:text" json:"vendor_address"`

	RequestedDeliveryDate *time.Time `gorm:"type:date" json:"requested_delivery_date"`

	CostCenter  string `gorm:"type:varchar(50)" json:"cost_center"`
	GLAccount   string `gorm:"type:varchar(50)" json:"gl_account"`
	BudgetCode  string `gorm:"type:varchar(50)" json:"budget_code"`
	ProjectCode string `gorm:"type:varchar(50)" json:"project_code"`

	BusinessJustification string `gorm:"type:text" json:"business_justification"`

	CreatedBy uuid.UUID `gorm:"type:uuid;not null;index" json:"created_by"`
	Creator   *User     `gorm:"foreignKey:CreatedBy" json:"creator,omitempty"`

	// Stored document references. proforma/quotation/specification arrive at
	// creation, purchase_order is system-attached on approval, receipt is
	// creator-attached after approval.
	Proforma            string `gorm:"type:varchar(500)" json:"proforma"`
	QuotationComparison string `gorm:"type:varchar(500)" json:"quotation_comparison"`
	SpecificationSheet  string `gorm:"type:varchar(500)" json:"specification_sheet"`
	PurchaseOrderFile   string `gorm:"type:varchar(500)" json:"purchase_order"`
	Receipt             string `gorm:"type:varchar(500)" json:"receipt"`

	Approvals []Approval `gorm:"foreignKey:PurchaseRequestID" json:"approvals,omitempty"`

	Version   int       `gorm:"not null;default:0" json:"-"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r *PurchaseRequest) BeforeCreate(_ *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// Terminal reports whether no further status transition is possible.
func (r PurchaseRequest) Terminal() bool {
	return r.Status == StatusRejected || r.Status == StatusPaid
}

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"procureflow/internal/model"
	"procureflow/internal/repository"
	"procureflow/internal/storage"

	"gorm.io/gorm"
)

// poTerms are the default terms and conditions stamped onto every generated
// purchase order.
var poTerms = map[string]string{
	"payment_terms":  "Net 30 days",
	"delivery_terms": "As per agreed timeline",
	"quality_terms":  "Goods must meet specified standards",
	"return_policy":  "Defective items may be returned within 30 days",
	"warranty":       "Standard manufacturer warranty applies",
}

// POGenerator produces the authoritative purchase order for an approved
// request: a sequential PO number, a persisted snapshot row and a rendered
// JSON document in the file store. Document layout/PDF rendering is an
// external collaborator consuming the snapshot.
type POGenerator struct {
	db    *gorm.DB
	store storage.FileStore
}

func NewPOGenerator(db *gorm.DB, store storage.FileStore) *POGenerator {
	return &POGenerator{db: db, store: store}
}

// Generate creates the PurchaseOrder row and document for the request and
// returns the stored document reference. Must run inside the approval
// transaction so that approved always implies a non-null purchase order.
func (g *POGenerator) Generate(ctx context.Context, req *model.PurchaseRequest, approvals []model.Approval) (*model.PurchaseOrder, string, error) {
	db := repository.GetDB(ctx, g.db)

	poNumber, err := g.nextPONumber(db)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate po number: %w", err)
	}

	snapshot := g.buildSnapshot(req, approvals, poNumber)
	poData, err := json.Marshal(snapshot)
	if err != nil {
		return nil, "", fmt.Errorf("failed to encode po data: %w", err)
	}
	terms, _ := json.Marshal(poTerms)

	po := &model.PurchaseOrder{
		PurchaseRequestID: req.ID,
		PONumber:          poNumber,
		IssueDate:         time.Now(),
		VendorName:        req.VendorName,
		VendorContact:     req.VendorContact,
		VendorAddress:     req.VendorAddress,
		TotalAmount:       req.Amount,
		Terms:             string(terms),
		POData:            string(poData),
	}
	if err := db.Create(po).Error; err != nil {
		return nil, "", fmt.Errorf("failed to create purchase order: %w", err)
	}

	fileRef, err := g.store.Save("purchase_orders", poNumber+".json", poData)
	if err != nil {
		return nil, "", fmt.Errorf("failed to store purchase order document: %w", err)
	}

	return po, fileRef, nil
}

// nextPONumber returns PO-YYYYMMDD-NNNN, sequential per day. An advisory
// lock keyed on the prefix prevents concurrent duplicates on postgres; the
// unique index on po_number backstops everything else.
func (g *POGenerator) nextPONumber(db *gorm.DB) (string, error) {
	prefix := "PO-" + time.Now().Format("20060102") + "-"

	db.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", prefix)

	var count int64
	if err := db.Model(&model.PurchaseOrder{}).
		Where("po_number LIKE ?", prefix+"%").
		Count(&count).Error; err != nil {
		return "", err
	}

	return fmt.Sprintf("%s%04d", prefix, count+1), nil
}

func (g *POGenerator) buildSnapshot(req *model.PurchaseRequest, approvals []model.Approval, poNumber string) map[string]any {
	approvalData := make([]map[string]any, 0, len(approvals))
	for _, a := range approvals {
		entry := map[string]any{
			"level":     a.ApprovalLevel,
			"role":      a.ApproverRole.DisplayName(),
			"approved":  a.Approved,
			"comments":  a.Comments,
			"timestamp": a.CreatedAt.Format(time.RFC3339),
		}
		if a.Approver != nil {
			entry["approver_name"] = a.Approver.DisplayName()
		}
		approvalData = append(approvalData, entry)
	}

	snapshot := map[string]any{
		"po_number":              poNumber,
		"title":                  req.Title,
		"description":            req.Description,
		"amount":                 req.Amount.StringFixed(2),
		"urgency":                req.Urgency,
		"vendor_name":            req.VendorName,
		"vendor_contact":         req.VendorContact,
		"vendor_address":         req.VendorAddress,
		"cost_center":            req.CostCenter,
		"gl_account":             req.GLAccount,
		"budget_code":            req.BudgetCode,
		"project_code":           req.ProjectCode,
		"business_justification": req.BusinessJustification,
		"approvals":              approvalData,
		"terms":                  poTerms,
		"request_created_at":     req.CreatedAt.Format(time.RFC3339),
		"po_generated_at":        time.Now().Format(time.RFC3339),
	}
	if req.RequestedDeliveryDate != nil {
		snapshot["requested_delivery_date"] = req.RequestedDeliveryDate.Format("2006-01-02")
	}
	if req.Creator != nil {
		snapshot["created_by"] = map[string]any{
			"name":        req.Creator.DisplayName(),
			"email":       req.Creator.Email,
			"department":  req.Creator.Department,
			"employee_id": req.Creator.EmployeeID,
		}
	}
	return snapshot
}

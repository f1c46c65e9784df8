package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"procureflow/internal/model"
	"procureflow/internal/repository"
	"procureflow/pkg/apperrors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// --- Policy ---

// ApprovalPolicy decides which approval tiers must sign off before a request
// reaches approved. Injected configuration: single-level and dual-level
// deployments both exist.
type ApprovalPolicy struct {
	RequiredLevels []int
}

// DefaultApprovalPolicy requires both tiers, matching the original workflow.
func DefaultApprovalPolicy() ApprovalPolicy {
	return ApprovalPolicy{RequiredLevels: []int{1, 2}}
}

// ParseApprovalPolicy reads a comma-separated level list such as "1,2".
func ParseApprovalPolicy(s string) (ApprovalPolicy, error) {
	if strings.TrimSpace(s) == "" {
		return DefaultApprovalPolicy(), nil
	}

	seen := map[int]bool{}
	var levels []int
	for _, part := range strings.Split(s, ",") {
		level, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || (level != 1 && level != 2) {
			return ApprovalPolicy{}, fmt.Errorf("invalid approval level %q, must be 1 or 2", part)
		}
		if !seen[level] {
			seen[level] = true
			levels = append(levels, level)
		}
	}
	sort.Ints(levels)
	return ApprovalPolicy{RequiredLevels: levels}, nil
}

// Satisfied reports whether the given set of approved levels covers policy.
func (p ApprovalPolicy) Satisfied(approvedLevels map[int]bool) bool {
	for _, level := range p.RequiredLevels {
		if !approvedLevels[level] {
			return false
		}
	}
	return true
}

// --- DTOs ---

type CreateRequestDTO struct {
	Title                 string `json:"title" binding:"required"`
	Description           string `json:"description"`
	Amount                string `json:"amount"`
	Urgency               string `json:"urgency"`
	VendorName            string `json:"vendor_name"`
	VendorContact         string `json:"vendor_contact"`
	VendorAddress         string `json:"vendor_address"`
	RequestedDeliveryDate string `json:"requested_delivery_date"` // YYYY-MM-DD
	CostCenter            string `json:"cost_center"`
	GLAccount             string `json:"gl_account"`
	BudgetCode            string `json:"budget_code"`
	ProjectCode           string `json:"project_code"`
	BusinessJustification string `json:"business_justification"`

	// Stored document references, set by the upload boundary
	Proforma            string `json:"proforma"`
	QuotationComparison string `json:"quotation_comparison"`
	SpecificationSheet  string `json:"specification_sheet"`
}

// UpdateRequestDTO carries a partial patch: empty fields are no-ops, never
// resets to empty.
type UpdateRequestDTO struct {
	Title                 string `json:"title"`
	Description           string `json:"description"`
	Amount                string `json:"amount"`
	Urgency               string `json:"urgency"`
	VendorName            string `json:"vendor_name"`
	VendorContact         string `json:"vendor_contact"`
	VendorAddress         string `json:"vendor_address"`
	RequestedDeliveryDate string `json:"requested_delivery_date"`
	CostCenter            string `json:"cost_center"`
	GLAccount             string `json:"gl_account"`
	BudgetCode            string `json:"budget_code"`
	ProjectCode           string `json:"project_code"`
	BusinessJustification string `json:"business_justification"`
	QuotationComparison   string `json:"quotation_comparison"`
	SpecificationSheet    string `json:"specification_sheet"`
}

type ListRequestsFilter struct {
	Status  string
	Urgency string
	Page    int
	Limit   int
}

type ApprovalResponse struct {
	ID            string `json:"id"`
	ApproverID    string `json:"approver_id"`
	ApproverName  string `json:"approver_name"`
	ApproverRole  string `json:"approver_role"`
	ApprovalLevel int    `json:"approval_level"`
	Approved      bool   `json:"approved"`
	Comments      string `json:"comments"`
	CreatedAt     string `json:"created_at"`
}

type RequestResponse struct {
	ID                    string  `json:"id"`
	Title                 string  `json:"title"`
	Description           string  `json:"description"`
	Amount                string  `json:"amount"`
	Status                string  `json:"status"`
	StatusDisplay         string  `json:"status_display"`
	Urgency               string  `json:"urgency"`
	VendorName            string  `json:"vendor_name"`
	VendorContact         string  `json:"vendor_contact"`
	VendorAddress         string  `json:"vendor_address"`
	RequestedDeliveryDate *string `json:"requested_delivery_date"`
	CostCenter            string  `json:"cost_center"`
	GLAccount             string  `json:"gl_account"`
	BudgetCode            string  `json:"budget_code"`
	ProjectCode           string  `json:"project_code"`
	BusinessJustification string  `json:"business_justification"`
	CreatedBy             string  `json:"created_by"`
	CreatedByName         string  `json:"created_by_name"`

	Proforma            string `json:"proforma,omitempty"`
	QuotationComparison string `json:"quotation_comparison,omitempty"`
	SpecificationSheet  string `json:"specification_sheet,omitempty"`
	PurchaseOrder       string `json:"purchase_order,omitempty"`
	Receipt             string `json:"receipt,omitempty"`

	Approvals []ApprovalResponse `json:"approvals"`
	CreatedAt string             `json:"created_at"`
	UpdatedAt string             `json:"updated_at"`
}

type PurchaseOrderResponse struct {
	ID            string `json:"id"`
	RequestID     string `json:"request_id"`
	PONumber      string `json:"po_number"`
	IssueDate     string `json:"issue_date"`
	VendorName    string `json:"vendor_name"`
	VendorContact string `json:"vendor_contact"`
	VendorAddress string `json:"vendor_address"`
	TotalAmount   string `json:"total_amount"`
	Terms         string `json:"terms"`
	POData        string `json:"po_data"`
	CreatedAt     string `json:"created_at"`
}

// --- Interface ---

// WorkflowService owns the purchase request lifecycle: creation, edits,
// the approval state machine and the read model the boundary serializes.
type WorkflowService interface {
	CreateRequest(ctx context.Context, creatorID uuid.UUID, req CreateRequestDTO) (*RequestResponse, error)
	GetRequest(ctx context.Context, id, actorID uuid.UUID) (*RequestResponse, error)
	ListRequests(ctx context.Context, actorID uuid.UUID, filter ListRequestsFilter) ([]RequestResponse, int64, error)
	UpdateRequest(ctx context.Context, id, actorID uuid.UUID, patch UpdateRequestDTO) (*RequestResponse, error)
	Approve(ctx context.Context, id, actorID uuid.UUID, comments string) (*RequestResponse, error)
	Reject(ctx context.Context, id, actorID uuid.UUID, comments string) (*RequestResponse, error)
	GetPurchaseOrder(ctx context.Context, id, actorID uuid.UUID) (*PurchaseOrderResponse, error)
}

type workflowService struct {
	requests repository.RequestRepository
	users    repository.UserRepository
	audits   repository.AuditRepository
	txm      repository.TransactionManager
	poGen    *POGenerator
	policy   ApprovalPolicy
	logger   *zap.Logger
}

func NewWorkflowService(
	requests repository.RequestRepository,
	users repository.UserRepository,
	audits repository.AuditRepository,
	txm repository.TransactionManager,
	poGen *POGenerator,
	policy ApprovalPolicy,
	logger *zap.Logger,
) WorkflowService {
	return &workflowService{
		requests: requests,
		users:    users,
		audits:   audits,
		txm:      txm,
		poGen:    poGen,
		policy:   policy,
		logger:   logger,
	}
}

// --- Create / edit ---

func (s *workflowService) CreateRequest(ctx context.Context, creatorID uuid.UUID, req CreateRequestDTO) (*RequestResponse, error) {
	creator, err := s.users.GetByID(ctx, creatorID)
	if err != nil {
		return nil, apperrors.Forbiddenf("unknown acting user")
	}
	if !creator.Role.Can(model.ActionCreateRequest) {
		return nil, apperrors.Forbiddenf("only staff users can create purchase requests")
	}

	if strings.TrimSpace(req.Title) == "" {
		return nil, apperrors.Validationf("title is required")
	}

	urgency := req.Urgency
	if urgency == "" {
		urgency = model.UrgencyNormal
	}
	if !model.ValidUrgency(urgency) {
		return nil, apperrors.Validationf("invalid urgency %q", req.Urgency)
	}

	// A proforma document is an accepted alternative justification path:
	// amount, vendor name and business justification are only mandatory
	// without one.
	hasProforma := req.Proforma != ""
	if !hasProforma {
		if req.Amount == "" {
			return nil, apperrors.Validationf("amount is required")
		}
		if strings.TrimSpace(req.VendorName) == "" {
			return nil, apperrors.Validationf("vendor_name is required")
		}
		if strings.TrimSpace(req.BusinessJustification) == "" {
			return nil, apperrors.Validationf("business_justification is required")
		}
	}

	amount := decimal.Zero
	if req.Amount != "" {
		amount, err = decimal.NewFromString(req.Amount)
		if err != nil {
			return nil, apperrors.Validationf("invalid amount %q", req.Amount)
		}
		if amount.LessThanOrEqual(decimal.Zero) {
			return nil, apperrors.Validationf("amount must be greater than 0")
		}
	}

	deliveryDate, err := parseDeliveryDate(req.RequestedDeliveryDate)
	if err != nil {
		return nil, err
	}

	record := &model.PurchaseRequest{
		Title:                 req.Title,
		Description:           req.Description,
		Amount:                amount,
		Status:                model.StatusPending,
		Urgency:               urgency,
		VendorName:            req.VendorName,
		VendorContact:         req.VendorContact,
		VendorAddress:         req.VendorAddress,
		RequestedDeliveryDate: deliveryDate,
		CostCenter:            req.CostCenter,
		GLAccount:             req.GLAccount,
		BudgetCode:            req.BudgetCode,
		ProjectCode:           req.ProjectCode,
		BusinessJustification: req.BusinessJustification,
		CreatedBy:             creatorID,
		Proforma:              req.Proforma,
		QuotationComparison:   req.QuotationComparison,
		SpecificationSheet:    req.SpecificationSheet,
	}

	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.requests.Create(txCtx, record); err != nil {
			return fmt.Errorf("failed to create purchase request: %w", err)
		}
		return s.audit(txCtx, &creatorID, model.ActionCreatePurchaseRequest, record.ID.String(), record.Title, map[string]any{
			"amount":  record.Amount.StringFixed(2),
			"urgency": record.Urgency,
			"vendor":  record.VendorName,
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("purchase request created",
		zap.String("request_id", record.ID.String()),
		zap.String("creator", creator.Username))

	return s.loadResponse(ctx, record.ID)
}

func (s *workflowService) UpdateRequest(ctx context.Context, id, actorID uuid.UUID, patch UpdateRequestDTO) (*RequestResponse, error) {
	actor, err := s.users.GetByID(ctx, actorID)
	if err != nil {
		return nil, apperrors.Forbiddenf("unknown acting user")
	}

	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		record, err := s.requests.GetByID(txCtx, id)
		if err != nil {
			return err
		}
		if record.CreatedBy != actorID || !actor.Role.Can(model.ActionEditRequest) {
			return apperrors.Forbiddenf("only the staff member who created this request can update it")
		}
		if record.Status != model.StatusPending {
			return apperrors.InvalidStatef("cannot update a request that is %s", record.Status)
		}

		changed, err := applyPatch(record, patch)
		if err != nil {
			return err
		}
		if len(changed) == 0 {
			return nil
		}

		if err := s.requests.Save(txCtx, record); err != nil {
			return fmt.Errorf("failed to update purchase request: %w", err)
		}
		return s.audit(txCtx, &actorID, model.ActionUpdatePurchaseRequest, record.ID.String(), record.Title, map[string]any{
			"fields": changed,
		})
	})
	if err != nil {
		return nil, err
	}

	return s.loadResponse(ctx, id)
}

// applyPatch copies the non-empty patch fields onto the record and returns
// the names of the fields it changed.
func applyPatch(record *model.PurchaseRequest, patch UpdateRequestDTO) ([]string, error) {
	var changed []string

	set := func(field string, target *string, value string) {
		if value != "" {
			*target = value
			changed = append(changed, field)
		}
	}

	set("title", &record.Title, patch.Title)
	set("description", &record.Description, patch.Description)
	set("vendor_name", &record.VendorName, patch.VendorName)
	set("vendor_contact", &record.VendorContact, patch.VendorContact)
	set("vendor_address", &record.VendorAddress, patch.VendorAddress)
	set("cost_center", &record.CostCenter, patch.CostCenter)
	set("gl_account", &record.GLAccount, patch.GLAccount)
	set("budget_code", &record.BudgetCode, patch.BudgetCode)
	set("project_code", &record.ProjectCode, patch.ProjectCode)
	set("business_justification", &record.BusinessJustification, patch.BusinessJustification)
	set("quotation_comparison", &record.QuotationComparison, patch.QuotationComparison)
	set("specification_sheet", &record.SpecificationSheet, patch.SpecificationSheet)

	if patch.Urgency != "" {
		if !model.ValidUrgency(patch.Urgency) {
			return nil, apperrors.Validationf("invalid urgency %q", patch.Urgency)
		}
		record.Urgency = patch.Urgency
		changed = append(changed, "urgency")
	}

	if patch.Amount != "" {
		amount, err := decimal.NewFromString(patch.Amount)
		if err != nil {
			return nil, apperrors.Validationf("invalid amount %q", patch.Amount)
		}
		if amount.LessThanOrEqual(decimal.Zero) {
			return nil, apperrors.Validationf("amount must be greater than 0")
		}
		record.Amount = amount
		changed = append(changed, "amount")
	}

	if patch.RequestedDeliveryDate != "" {
		date, err := parseDeliveryDate(patch.RequestedDeliveryDate)
		if err != nil {
			return nil, err
		}
		record.RequestedDeliveryDate = date
		changed = append(changed, "requested_delivery_date")
	}

	return changed, nil
}

func parseDeliveryDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	date, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, apperrors.Validationf("invalid requested_delivery_date %q, expected YYYY-MM-DD", s)
	}
	today := time.Now().Truncate(24 * time.Hour)
	if date.Before(today) {
		return nil, apperrors.Validationf("delivery date cannot be in the past")
	}
	return &date, nil
}

// --- Reads ---

func (s *workflowService) GetRequest(ctx context.Context, id, actorID uuid.UUID) (*RequestResponse, error) {
	actor, err := s.users.GetByID(ctx, actorID)
	if err != nil {
		return nil, apperrors.Forbiddenf("unknown acting user")
	}

	record, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canView(actor, record) {
		return nil, apperrors.Forbiddenf("not allowed to view this request")
	}

	resp := toRequestResponse(record)
	return &resp, nil
}

func (s *workflowService) ListRequests(ctx context.Context, actorID uuid.UUID, filter ListRequestsFilter) ([]RequestResponse, int64, error) {
	actor, err := s.users.GetByID(ctx, actorID)
	if err != nil {
		return nil, 0, apperrors.Forbiddenf("unknown acting user")
	}

	repoFilter := repository.RequestFilter{
		Urgency: filter.Urgency,
		Page:    filter.Page,
		Limit:   filter.Limit,
	}
	if filter.Status != "" {
		repoFilter.Statuses = []string{filter.Status}
	}

	// Role-scoped visibility: staff see their own requests, approvers and
	// admins see everything, finance sees fully approved and paid ones.
	switch {
	case actor.Role == model.RoleStaff:
		repoFilter.CreatedBy = &actorID
	case actor.Role == model.RoleFinance:
		if len(repoFilter.Statuses) == 0 {
			repoFilter.Statuses = []string{model.StatusApproved, model.StatusPaid}
		} else if filter.Status != model.StatusApproved && filter.Status != model.StatusPaid {
			return []RequestResponse{}, 0, nil
		}
	case actor.Role.Can(model.ActionViewAll):
		// no scoping
	default:
		return nil, 0, apperrors.Forbiddenf("not allowed to list requests")
	}

	records, total, err := s.requests.List(ctx, repoFilter)
	if err != nil {
		return nil, 0, err
	}

	result := make([]RequestResponse, 0, len(records))
	for i := range records {
		result = append(result, toRequestResponse(&records[i]))
	}
	return result, total, nil
}

func (s *workflowService) GetPurchaseOrder(ctx context.Context, id, actorID uuid.UUID) (*PurchaseOrderResponse, error) {
	actor, err := s.users.GetByID(ctx, actorID)
	if err != nil {
		return nil, apperrors.Forbiddenf("unknown acting user")
	}

	record, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canView(actor, record) {
		return nil, apperrors.Forbiddenf("not allowed to view this request")
	}

	po, err := s.requests.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	return &PurchaseOrderResponse{
		ID:            po.ID.String(),
		RequestID:     po.PurchaseRequestID.String(),
		PONumber:      po.PONumber,
		IssueDate:     po.IssueDate.Format("2006-01-02"),
		VendorName:    po.VendorName,
		VendorContact: po.VendorContact,
		VendorAddress: po.VendorAddress,
		TotalAmount:   po.TotalAmount.StringFixed(2),
		Terms:         po.Terms,
		POData:        po.POData,
		CreatedAt:     po.CreatedAt.Format(time.RFC3339),
	}, nil
}

func canView(actor *model.User, record *model.PurchaseRequest) bool {
	if actor.Role.Can(model.ActionViewAll) {
		// finance only deals with requests that cleared approval
		if actor.Role == model.RoleFinance {
			return record.Status == model.StatusApproved || record.Status == model.StatusPaid
		}
		return true
	}
	return record.CreatedBy == actor.ID
}

// --- Approval state machine ---

func (s *workflowService) Approve(ctx context.Context, id, actorID uuid.UUID, comments string) (*RequestResponse, error) {
	return s.recordDecision(ctx, id, actorID, true, comments)
}

func (s *workflowService) Reject(ctx context.Context, id, actorID uuid.UUID, comments string) (*RequestResponse, error) {
	return s.recordDecision(ctx, id, actorID, false, comments)
}

// recordDecision runs the guarded transition for one approver's decision.
// Guard order is part of the contract: state, then role, then idempotency,
// then comment validation; each failure carries a distinct error kind.
func (s *workflowService) recordDecision(ctx context.Context, id, actorID uuid.UUID, approved bool, comments string) (*RequestResponse, error) {
	actor, err := s.users.GetByID(ctx, actorID)
	if err != nil {
		return nil, apperrors.Forbiddenf("unknown acting user")
	}

	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		record, err := s.requests.GetByID(txCtx, id)
		if err != nil {
			return err
		}

		if record.Status != model.StatusPending {
			return apperrors.InvalidStatef("request is already %s", record.Status)
		}
		if !actor.Role.Can(model.ActionDecideRequest) {
			return apperrors.Forbiddenf("role %s cannot approve or reject requests", actor.Role)
		}
		for _, existing := range record.Approvals {
			if existing.ApproverID == actorID {
				return fmt.Errorf("%w: approver already recorded a decision for this request", apperrors.ErrDuplicateApproval)
			}
		}
		if !approved && strings.TrimSpace(comments) == "" {
			return apperrors.Validationf("comments are required when rejecting a request")
		}

		approval := &model.Approval{
			PurchaseRequestID: record.ID,
			ApproverID:        actorID,
			ApproverRole:      actor.Role,
			ApprovalLevel:     actor.Role.ApprovalLevel(),
			Approved:          approved,
			Comments:          comments,
		}
		if err := s.requests.AddApproval(txCtx, approval); err != nil {
			return fmt.Errorf("failed to record approval: %w", err)
		}

		action := model.ActionApprovePurchase
		if !approved {
			action = model.ActionRejectPurchase
		}
		if err := s.audit(txCtx, &actorID, action, record.ID.String(), record.Title, map[string]any{
			"approval_level": approval.ApprovalLevel,
			"comments":       comments,
		}); err != nil {
			return err
		}

		// Aggregate rule: the first rejection is final; approval requires a
		// non-rejecting decision from every level the policy demands.
		if !approved {
			return s.commit(txCtx, record, map[string]any{"status": model.StatusRejected})
		}

		approvedLevels := map[int]bool{approval.ApprovalLevel: true}
		for _, existing := range record.Approvals {
			if existing.Approved {
				approvedLevels[existing.ApprovalLevel] = true
			}
		}
		if !s.policy.Satisfied(approvedLevels) {
			// Not yet fully approved: bump the version anyway so racing
			// decisions serialize in arrival order.
			return s.commit(txCtx, record, map[string]any{"status": model.StatusPending})
		}

		// approved always implies a purchase order, generated in the same
		// transaction as the transition
		po, fileRef, err := s.poGen.Generate(txCtx, record, append(record.Approvals, *approval))
		if err != nil {
			return fmt.Errorf("failed to generate purchase order: %w", err)
		}
		if err := s.commit(txCtx, record, map[string]any{
			"status":              model.StatusApproved,
			"purchase_order_file": fileRef,
		}); err != nil {
			return err
		}
		return s.audit(txCtx, &actorID, model.ActionGeneratePurchaseOrder, record.ID.String(), po.PONumber, map[string]any{
			"po_number":    po.PONumber,
			"total_amount": po.TotalAmount.StringFixed(2),
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("approval decision recorded",
		zap.String("request_id", id.String()),
		zap.String("approver", actor.Username),
		zap.Bool("approved", approved))

	return s.loadResponse(ctx, id)
}

// commit applies a transition through the optimistic version check. A
// conflict means another actor committed first: surface the canonical
// InvalidStateTransition instead of silently overwriting.
func (s *workflowService) commit(ctx context.Context, record *model.PurchaseRequest, updates map[string]any) error {
	err := s.requests.CommitTransition(ctx, record, updates)
	if errors.Is(err, repository.ErrVersionConflict) {
		current, readErr := s.requests.GetByID(ctx, record.ID)
		if readErr != nil {
			return readErr
		}
		return apperrors.InvalidStatef("request state changed concurrently, it is now %s", current.Status)
	}
	return err
}

func (s *workflowService) audit(ctx context.Context, userID *uuid.UUID, action, entityID, entityName string, details map[string]any) error {
	payload, _ := json.Marshal(details)
	entry := &model.AuditLog{
		UserID:     userID,
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    string(payload),
	}
	if err := s.audits.Log(ctx, entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

func (s *workflowService) loadResponse(ctx context.Context, id uuid.UUID) (*RequestResponse, error) {
	record, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toRequestResponse(record)
	return &resp, nil
}

// --- Mapping ---

func toRequestResponse(r *model.PurchaseRequest) RequestResponse {
	resp := RequestResponse{
		ID:                    r.ID.String(),
		Title:                 r.Title,
		Description:           r.Description,
		Amount:                r.Amount.StringFixed(2),
		Status:                r.Status,
		StatusDisplay:         model.StatusDisplay(r.Status),
		Urgency:               r.Urgency,
		VendorName:            r.VendorName,
		VendorContact:         r.VendorContact,
		VendorAddress:         r.VendorAddress,
		CostCenter:            r.CostCenter,
		GLAccount:             r.GLAccount,
		BudgetCode:            r.BudgetCode,
		ProjectCode:           r.ProjectCode,
		BusinessJustification: r.BusinessJustification,
		CreatedBy:             r.CreatedBy.String(),
		Proforma:              r.Proforma,
		QuotationComparison:   r.QuotationComparison,
		SpecificationSheet:    r.SpecificationSheet,
		PurchaseOrder:         r.PurchaseOrderFile,
		Receipt:               r.Receipt,
		Approvals:             make([]ApprovalResponse, 0, len(r.Approvals)),
		CreatedAt:             r.CreatedAt.Format(time.RFC3339),
		UpdatedAt:             r.UpdatedAt.Format(time.RFC3339),
	}

	if r.Creator != nil {
		resp.CreatedByName = r.Creator.DisplayName()
	}
	if r.RequestedDeliveryDate != nil {
		date := r.RequestedDeliveryDate.Format("2006-01-02")
		resp.RequestedDeliveryDate = &date
	}

	for _, a := range r.Approvals {
		item := ApprovalResponse{
			ID:            a.ID.String(),
			ApproverID:    a.ApproverID.String(),
			ApproverRole:  a.ApproverRole.DisplayName(),
			ApprovalLevel: a.ApprovalLevel,
			Approved:      a.Approved,
			Comments:      a.Comments,
			CreatedAt:     a.CreatedAt.Format(time.RFC3339),
		}
		if a.Approver != nil {
			item.ApproverName = a.Approver.DisplayName()
		}
		resp.Approvals = append(resp.Approvals, item)
	}

	return resp
}

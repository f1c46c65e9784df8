package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	gormsqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"procureflow/internal/database"
	"procureflow/internal/model"
	"procureflow/internal/reconcile"
	"procureflow/internal/repository"
	"procureflow/internal/storage"
	"procureflow/pkg/apperrors"
)

type workflowFixture struct {
	db       *gorm.DB
	workflow WorkflowService
	receipts ReceiptService
	store    storage.FileStore

	staff   *model.User
	staff2  *model.User
	l1      *model.User
	l2      *model.User
	finance *model.User
}

func setupWorkflow(t *testing.T, policy ApprovalPolicy) *workflowFixture {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "workflow.sqlite")
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	if err := database.Migrate(db); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}

	store, err := storage.NewLocalStore(filepath.Join(t.TempDir(), "documents"))
	if err != nil {
		t.Fatalf("local store: %v", err)
	}

	requests := repository.NewRequestRepository(db)
	users := repository.NewUserRepository(db)
	audits := repository.NewAuditRepository(db)
	txm := repository.NewTransactionManager(db)
	logger := zap.NewNop()

	f := &workflowFixture{
		db:    db,
		store: store,
	}
	f.workflow = NewWorkflowService(requests, users, audits, txm, NewPOGenerator(db, store), policy, logger)
	f.receipts = NewReceiptService(requests, users, audits, txm, store,
		reconcile.NewTextExtractor(), reconcile.NewEngine(decimal.NewFromFloat(0.01)), logger)

	f.staff = createUser(t, db, "alice", model.RoleStaff)
	f.staff2 = createUser(t, db, "bob", model.RoleStaff)
	f.l1 = createUser(t, db, "lena", model.RoleApproverL1)
	f.l2 = createUser(t, db, "marco", model.RoleApproverL2)
	f.finance = createUser(t, db, "fatima", model.RoleFinance)
	return f
}

func mustParse(t *testing.T, s string) uuid.UUID {
	t.Helper()
	id, err := uuid.Parse(s)
	if err != nil {
		t.Fatalf("parse uuid %q: %v", s, err)
	}
	return id
}

func createUser(t *testing.T, db *gorm.DB, username string, role model.Role) *model.User {
	t.Helper()
	user := &model.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "hashed",
		Role:     role,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return user
}

func (f *workflowFixture) createRequest(t *testing.T) *RequestResponse {
	t.Helper()
	resp, err := f.workflow.CreateRequest(context.Background(), f.staff.ID, CreateRequestDTO{
		Title:                 "Replacement laptops",
		Amount:                "500.00",
		VendorName:            "Acme Corporation",
		BusinessJustification: "current hardware out of warranty",
	})
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	return resp
}

func (f *workflowFixture) approveFully(t *testing.T, resp *RequestResponse) *RequestResponse {
	t.Helper()
	ctx := context.Background()
	id := mustParse(t, resp.ID)
	if _, err := f.workflow.Approve(ctx, id, f.l1.ID, "within budget"); err != nil {
		t.Fatalf("l1 approve: %v", err)
	}
	approved, err := f.workflow.Approve(ctx, id, f.l2.ID, "")
	if err != nil {
		t.Fatalf("l2 approve: %v", err)
	}
	return approved
}

func TestCreateRequestValidation(t *testing.T) {
	f := setupWorkflow(t, DefaultApprovalPolicy())
	ctx := context.Background()

	cases := []struct {
		name string
		dto  CreateRequestDTO
	}{
		{"missing title", CreateRequestDTO{Amount: "100", VendorName: "Acme", BusinessJustification: "need"}},
		{"missing amount", CreateRequestDTO{Title: "Chairs", VendorName: "Acme", BusinessJustification: "need"}},
		{"missing vendor", CreateRequestDTO{Title: "Chairs", Amount: "100", BusinessJustification: "need"}},
		{"missing justification", CreateRequestDTO{Title: "Chairs", Amount: "100", VendorName: "Acme"}},
		{"negative amount", CreateRequestDTO{Title: "Chairs", Amount: "-5", VendorName: "Acme", BusinessJustification: "need"}},
		{"bad urgency", CreateRequestDTO{Title: "Chairs", Amount: "100", VendorName: "Acme", BusinessJustification: "need", Urgency: "immediately"}},
		{"bad date", CreateRequestDTO{Title: "Chairs", Amount: "100", VendorName: "Acme", BusinessJustification: "need", RequestedDeliveryDate: "tomorrow"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := f.workflow.CreateRequest(ctx, f.staff.ID, tc.dto); !errors.Is(err, apperrors.ErrValidation) {
				t.Fatalf("CreateRequest() error = %v, want validation error", err)
			}
		})
	}
}

func TestCreateRequestProformaWaivesFields(t *testing.T) {
	f := setupWorkflow(t, DefaultApprovalPolicy())

	resp, err := f.workflow.CreateRequest(context.Background(), f.staff.ID, CreateRequestDTO{
		Title:    "Specialist consulting",
		Proforma: "proformas/quote.pdf",
	})
	if err != nil {
		t.Fatalf("CreateRequest() error = %v", err)
	}
	if resp.Status != model.StatusPending {
		t.Fatalf("status = %s, want pending", resp.Status)
	}
	if resp.Amount != "0.00" {
		t.Fatalf("amount = %s, want 0.00", resp.Amount)
	}
}

func TestCreateRequestForbiddenForApprover(t *testing.T) {
	f := setupWorkflow(t, DefaultApprovalPolicy())

	_, err := f.workflow.CreateRequest(context.Background(), f.l1.ID, CreateRequestDTO{
		Title: "Chairs", Amount: "100", VendorName: "Acme", BusinessJustification: "need",
	})
	if !errors.Is(err, apperrors.ErrForbidden) {
		t.Fatalf("CreateRequest() error = %v, want forbidden", err)
	}
}

func TestDualLevelApprovalGeneratesPurchaseOrder(t *testing.T) {
	f := setupWorkflow(t, DefaultApprovalPolicy())
	ctx := context.Background()
	resp := f.createRequest(t)
	id := mustParse(t, resp.ID)

	// first tier alone keeps the request pending and produces no order
	after, err := f.workflow.Approve(ctx, id, f.l1.ID, "within budget")
	if err != nil {
		t.Fatalf("l1 approve: %v", err)
	}
	if after.Status != model.StatusPending {
		t.Fatalf("status after l1 = %s, want pending", after.Status)
	}
	if _, err := f.workflow.GetPurchaseOrder(ctx, id, f.l1.ID); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("GetPurchaseOrder() after l1 error = %v, want not found", err)
	}

	after, err = f.workflow.Approve(ctx, id, f.l2.ID, "")
	if err != nil {
		t.Fatalf("l2 approve: %v", err)
	}
	if after.Status != model.StatusApproved {
		t.Fatalf("status after l2 = %s, want approved", after.Status)
	}
	if after.PurchaseOrder == "" {
		t.Fatal("purchase order file reference not set on approval")
	}
	if len(after.Approvals) != 2 {
		t.Fatalf("approvals = %d, want 2", len(after.Approvals))
	}

	po, err := f.workflow.GetPurchaseOrder(ctx, id, f.l2.ID)
	if err != nil {
		t.Fatalf("GetPurchaseOrder() error = %v", err)
	}
	if len(po.PONumber) != len("PO-20060102-0001") || po.PONumber[:3] != "PO-" {
		t.Fatalf("po number = %q", po.PONumber)
	}
	if po.TotalAmount != "500.00" {
		t.Fatalf("po total = %s, want 500.00", po.TotalAmount)
	}
	if content, err := f.store.Read(after.PurchaseOrder); err != nil || len(content) == 0 {
		t.Fatalf("po document unreadable: %v", err)
	}

	var poAudits int64
	f.db.Model(&model.AuditLog{}).Where("action = ?", model.ActionGeneratePurchaseOrder).Count(&poAudits)
	if poAudits != 1 {
		t.Fatalf("po generation audit rows = %d, want 1", poAudits)
	}
}

func TestRejectionIsFinal(t *testing.T) {
	f := setupWorkflow(t, DefaultApprovalPolicy())
	ctx := context.Background()
	resp := f.createRequest(t)
	id := mustParse(t, resp.ID)

	after, err := f.workflow.Reject(ctx, id, f.l1.ID, "no budget this quarter")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if after.Status != model.StatusRejected {
		t.Fatalf("status = %s, want rejected", after.Status)
	}

	// a later second-tier decision bounces off the terminal state
	if _, err := f.workflow.Approve(ctx, id, f.l2.ID, ""); !errors.Is(err, apperrors.ErrInvalidState) {
		t.Fatalf("approve after rejection error = %v, want invalid state", err)
	}
	if _, err := f.workflow.GetPurchaseOrder(ctx, id, f.l2.ID); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("GetPurchaseOrder() error = %v, want not found", err)
	}
}

func TestRejectRequiresComments(t *testing.T) {
	f := setupWorkflow(t, DefaultApprovalPolicy())
	resp := f.createRequest(t)

	_, err := f.workflow.Reject(context.Background(), mustParse(t, resp.ID), f.l1.ID, "   ")
	if !errors.Is(err, apperrors.ErrValidation) {
		t.Fatalf("Reject() error = %v, want validation error", err)
	}
}

func TestDuplicateApprovalRejected(t *testing.T) {
	f := setupWorkflow(t, DefaultApprovalPolicy())
	ctx := context.Background()
	resp := f.createRequest(t)
	id := mustParse(t, resp.ID)

	if _, err := f.workflow.Approve(ctx, id, f.l1.ID, "ok"); err != nil {
		t.Fatalf("first approve: %v", err)
	}
	if _, err := f.workflow.Approve(ctx, id, f.l1.ID, "ok again"); !errors.Is(err, apperrors.ErrDuplicateApproval) {
		t.Fatalf("second approve error = %v, want duplicate approval", err)
	}
}

func TestDecisionGuardOrder(t *testing.T) {
	f := setupWorkflow(t, DefaultApprovalPolicy())
	ctx := context.Background()
	resp := f.createRequest(t)
	id := mustParse(t, resp.ID)

	// a non-approver on a pending request fails the role guard
	if _, err := f.workflow.Approve(ctx, id, f.finance.ID, ""); !errors.Is(err, apperrors.ErrForbidden) {
		t.Fatalf("finance approve error = %v, want forbidden", err)
	}

	f.approveFully(t, resp)

	// once terminal-for-approval, even a non-approver sees the state error:
	// the state guard runs before the role guard
	if _, err := f.workflow.Approve(ctx, id, f.finance.ID, ""); !errors.Is(err, apperrors.ErrInvalidState) {
		t.Fatalf("finance approve on approved error = %v, want invalid state", err)
	}
}

func TestSingleLevelPolicy(t *testing.T) {
	f := setupWorkflow(t, ApprovalPolicy{RequiredLevels: []int{1}})
	ctx := context.Background()
	resp := f.createRequest(t)
	id := mustParse(t, resp.ID)

	after, err := f.workflow.Approve(ctx, id, f.l1.ID, "ok")
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if after.Status != model.StatusApproved {
		t.Fatalf("status = %s, want approved under single-level policy", after.Status)
	}
	if _, err := f.workflow.GetPurchaseOrder(ctx, id, f.l1.ID); err != nil {
		t.Fatalf("GetPurchaseOrder() error = %v", err)
	}
}

func TestUpdateRequestPartialPatch(t *testing.T) {
	f := setupWorkflow(t, DefaultApprovalPolicy())
	ctx := context.Background()
	resp := f.createRequest(t)
	id := mustParse(t, resp.ID)

	after, err := f.workflow.UpdateRequest(ctx, id, f.staff.ID, UpdateRequestDTO{Amount: "750.50"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if after.Amount != "750.50" {
		t.Fatalf("amount = %s, want 750.50", after.Amount)
	}
	if after.Title != resp.Title || after.VendorName != resp.VendorName {
		t.Fatal("unpatched fields changed")
	}
}

func TestUpdateRequestGuards(t *testing.T) {
	f := setupWorkflow(t, DefaultApprovalPolicy())
	ctx := context.Background()
	resp := f.createRequest(t)
	id := mustParse(t, resp.ID)

	if _, err := f.workflow.UpdateRequest(ctx, id, f.staff2.ID, UpdateRequestDTO{Title: "hijack"}); !errors.Is(err, apperrors.ErrForbidden) {
		t.Fatalf("non-creator update error = %v, want forbidden", err)
	}

	f.approveFully(t, resp)
	if _, err := f.workflow.UpdateRequest(ctx, id, f.staff.ID, UpdateRequestDTO{Title: "too late"}); !errors.Is(err, apperrors.ErrInvalidState) {
		t.Fatalf("update after approval error = %v, want invalid state", err)
	}
}

func TestListRequestsScoping(t *testing.T) {
	f := setupWorkflow(t, DefaultApprovalPolicy())
	ctx := context.Background()

	mine := f.createRequest(t)
	theirs, err := f.workflow.CreateRequest(ctx, f.staff2.ID, CreateRequestDTO{
		Title: "Monitors", Amount: "200", VendorName: "ScreenCo", BusinessJustification: "dual setup",
	})
	if err != nil {
		t.Fatalf("create second request: %v", err)
	}
	f.approveFully(t, theirs)

	staffList, _, err := f.workflow.ListRequests(ctx, f.staff.ID, ListRequestsFilter{})
	if err != nil {
		t.Fatalf("staff list: %v", err)
	}
	if len(staffList) != 1 || staffList[0].ID != mine.ID {
		t.Fatalf("staff sees %d requests, want only their own", len(staffList))
	}

	finList, _, err := f.workflow.ListRequests(ctx, f.finance.ID, ListRequestsFilter{})
	if err != nil {
		t.Fatalf("finance list: %v", err)
	}
	if len(finList) != 1 || finList[0].ID != theirs.ID {
		t.Fatalf("finance sees %d requests, want only the approved one", len(finList))
	}
	if got, _, _ := f.workflow.ListRequests(ctx, f.finance.ID, ListRequestsFilter{Status: model.StatusPending}); len(got) != 0 {
		t.Fatalf("finance pending filter returned %d requests, want 0", len(got))
	}

	approverList, _, err := f.workflow.ListRequests(ctx, f.l1.ID, ListRequestsFilter{})
	if err != nil {
		t.Fatalf("approver list: %v", err)
	}
	if len(approverList) != 2 {
		t.Fatalf("approver sees %d requests, want 2", len(approverList))
	}
}

func TestGetRequestVisibility(t *testing.T) {
	f := setupWorkflow(t, DefaultApprovalPolicy())
	ctx := context.Background()
	resp := f.createRequest(t)
	id := mustParse(t, resp.ID)

	if _, err := f.workflow.GetRequest(ctx, id, f.staff2.ID); !errors.Is(err, apperrors.ErrForbidden) {
		t.Fatalf("other staff view error = %v, want forbidden", err)
	}
	// finance cannot see requests that have not cleared approval
	if _, err := f.workflow.GetRequest(ctx, id, f.finance.ID); !errors.Is(err, apperrors.ErrForbidden) {
		t.Fatalf("finance view of pending error = %v, want forbidden", err)
	}

	f.approveFully(t, resp)
	if _, err := f.workflow.GetRequest(ctx, id, f.finance.ID); err != nil {
		t.Fatalf("finance view of approved error = %v", err)
	}
}

func TestParseApprovalPolicy(t *testing.T) {
	cases := []struct {
		in      string
		want    []int
		wantErr bool
	}{
		{"", []int{1, 2}, false},
		{"1,2", []int{1, 2}, false},
		{"2, 1", []int{1, 2}, false},
		{"1", []int{1}, false},
		{"2", []int{2}, false},
		{"1,1", []int{1}, false},
		{"3", nil, true},
		{"one", nil, true},
	}
	for _, tc := range cases {
		policy, err := ParseApprovalPolicy(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("ParseApprovalPolicy(%q) expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseApprovalPolicy(%q) error = %v", tc.in, err)
		}
		if len(policy.RequiredLevels) != len(tc.want) {
			t.Fatalf("ParseApprovalPolicy(%q) = %v, want %v", tc.in, policy.RequiredLevels, tc.want)
		}
		for i, level := range tc.want {
			if policy.RequiredLevels[i] != level {
				t.Fatalf("ParseApprovalPolicy(%q) = %v, want %v", tc.in, policy.RequiredLevels, tc.want)
			}
		}
	}
}

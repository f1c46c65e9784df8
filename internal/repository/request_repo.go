package repository

import (
	"context"
	"errors"

	"procureflow/internal/model"
	"procureflow/pkg/apperrors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrVersionConflict is returned when a transition commit loses a race:
// the row's version (and possibly status) changed after it was read.
var ErrVersionConflict = errors.New("request version conflict")

// RequestFilter narrows list queries.
type RequestFilter struct {
	CreatedBy *uuid.UUID
	Statuses  []string
	Urgency   string
	Page      int
	Limit     int
}

// RequestRepository is the purchase request store. Status transitions go
// through CommitTransition which enforces optimistic concurrency: commits
// land in arrival order, a stale writer gets ErrVersionConflict and must
// re-evaluate against the new state.
type RequestRepository interface {
	Create(ctx context.Context, req *model.PurchaseRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.PurchaseRequest, error)
	List(ctx context.Context, filter RequestFilter) ([]model.PurchaseRequest, int64, error)
	Save(ctx context.Context, req *model.PurchaseRequest) error
	CommitTransition(ctx context.Context, req *model.PurchaseRequest, updates map[string]any) error
	AddApproval(ctx context.Context, approval *model.Approval) error
	GetOrder(ctx context.Context, requestID uuid.UUID) (*model.PurchaseOrder, error)
}

type requestRepository struct {
	db *gorm.DB
}

func NewRequestRepository(db *gorm.DB) RequestRepository {
	return &requestRepository{db: db}
}

func (r *requestRepository) Create(ctx context.Context, req *model.PurchaseRequest) error {
	return GetDB(ctx, r.db).Create(req).Error
}

func (r *requestRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.PurchaseRequest, error) {
	var req model.PurchaseRequest
	err := GetDB(ctx, r.db).
		Preload("Creator").
		Preload("Approvals", func(db *gorm.DB) *gorm.DB {
			return db.Order("approvals.created_at asc")
		}).
		Preload("Approvals.Approver").
		First(&req, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *requestRepository) List(ctx context.Context, filter RequestFilter) ([]model.PurchaseRequest, int64, error) {
	db := GetDB(ctx, r.db).Model(&model.PurchaseRequest{})

	if filter.CreatedBy != nil {
		db = db.Where("created_by = ?", *filter.CreatedBy)
	}
	if len(filter.Statuses) > 0 {
		db = db.Where("status IN ?", filter.Statuses)
	}
	if filter.Urgency != "" {
		db = db.Where("urgency = ?", filter.Urgency)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	offset := (filter.Page - 1) * filter.Limit

	var requests []model.PurchaseRequest
	if err := db.Preload("Creator").
		Preload("Approvals", func(db *gorm.DB) *gorm.DB {
			return db.Order("approvals.created_at asc")
		}).
		Preload("Approvals.Approver").
		Order("created_at desc").
		Offset(offset).Limit(filter.Limit).
		Find(&requests).Error; err != nil {
		return nil, 0, err
	}

	return requests, total, nil
}

// Save persists creator-owned field edits. Transitions must not use it.
func (r *requestRepository) Save(ctx context.Context, req *model.PurchaseRequest) error {
	return GetDB(ctx, r.db).Save(req).Error
}

// CommitTransition applies the given column updates to the request row only
// if its version (and pre-transition status) are unchanged since the read.
// The version is bumped as part of the same statement.
func (r *requestRepository) CommitTransition(ctx context.Context, req *model.PurchaseRequest, updates map[string]any) error {
	updates["version"] = req.Version + 1

	res := GetDB(ctx, r.db).Model(&model.PurchaseRequest{}).
		Where("id = ? AND version = ? AND status = ?", req.ID, req.Version, req.Status).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrVersionConflict
	}

	req.Version++
	if status, ok := updates["status"].(string); ok {
		req.Status = status
	}
	return nil
}

func (r *requestRepository) AddApproval(ctx context.Context, approval *model.Approval) error {
	return GetDB(ctx, r.db).Create(approval).Error
}

func (r *requestRepository) GetOrder(ctx context.Context, requestID uuid.UUID) (*model.PurchaseOrder, error) {
	var po model.PurchaseOrder
	err := GetDB(ctx, r.db).First(&po, "purchase_request_id = ?", requestID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &po, nil
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"procureflow/internal/model"
	"procureflow/internal/reconcile"
	"procureflow/internal/repository"
	"procureflow/internal/storage"
	"procureflow/pkg/apperrors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReceiptService handles the finance leg of the workflow: the creator of an
// approved request submits a receipt once, the engine reconciles it against
// the purchase order and the request moves to paid pending review.
type ReceiptService interface {
	SubmitReceipt(ctx context.Context, id, actorID uuid.UUID, filename string, content []byte) (*RequestResponse, reconcile.Report, error)
}

type receiptService struct {
	requests  repository.RequestRepository
	users     repository.UserRepository
	audits    repository.AuditRepository
	txm       repository.TransactionManager
	store     storage.FileStore
	extractor reconcile.Extractor
	engine    *reconcile.Engine
	logger    *zap.Logger
}

func NewReceiptService(
	requests repository.RequestRepository,
	users repository.UserRepository,
	audits repository.AuditRepository,
	txm repository.TransactionManager,
	store storage.FileStore,
	extractor reconcile.Extractor,
	engine *reconcile.Engine,
	logger *zap.Logger,
) ReceiptService {
	return &receiptService{
		requests:  requests,
		users:     users,
		audits:    audits,
		txm:       txm,
		store:     store,
		extractor: extractor,
		engine:    engine,
		logger:    logger,
	}
}

func (s *receiptService) SubmitReceipt(ctx context.Context, id, actorID uuid.UUID, filename string, content []byte) (*RequestResponse, reconcile.Report, error) {
	var report reconcile.Report

	actor, err := s.users.GetByID(ctx, actorID)
	if err != nil {
		return nil, report, apperrors.Forbiddenf("unknown acting user")
	}

	if err := storage.ValidateUpload(filename, int64(len(content))); err != nil {
		return nil, report, err
	}

	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		record, err := s.requests.GetByID(txCtx, id)
		if err != nil {
			return err
		}

		if record.Status != model.StatusApproved {
			return apperrors.InvalidStatef("receipts can only be submitted for approved requests, request is %s", record.Status)
		}
		if record.CreatedBy != actorID || !actor.Role.Can(model.ActionSubmitReceipt) {
			return apperrors.Forbiddenf("only the request creator can submit a receipt")
		}
		if record.Receipt != "" {
			return fmt.Errorf("%w: a receipt was already submitted for this request", apperrors.ErrDuplicateSubmission)
		}

		po, err := s.requests.GetOrder(txCtx, id)
		if err != nil {
			return fmt.Errorf("purchase order missing for approved request: %w", err)
		}
		poData := reconcile.OrderData{
			PONumber:    po.PONumber,
			VendorName:  po.VendorName,
			TotalAmount: po.TotalAmount,
		}

		receiptData, extractErr := s.extractor.Extract(txCtx, content)
		if extractErr != nil {
			// Structural failure is reported as data, never as an error: the
			// receipt is not attached and the state is unchanged so the user
			// may retry with a readable document.
			report = reconcile.StructuralFailure(extractErr.Error())
			return s.auditReport(txCtx, &actorID, record, report)
		}

		report = s.engine.Compare(poData, receiptData)

		fileRef, err := s.store.Save("receipts", filename, content)
		if err != nil {
			return fmt.Errorf("failed to store receipt: %w", err)
		}

		// Discrepancies never block attachment: the receipt lands, the
		// request moves to paid and the report stays queryable alongside it.
		if err := s.requests.CommitTransition(txCtx, record, map[string]any{
			"status":  model.StatusPaid,
			"receipt": fileRef,
		}); err != nil {
			if errors.Is(err, repository.ErrVersionConflict) {
				return apperrors.InvalidStatef("request state changed concurrently")
			}
			return err
		}

		return s.auditReport(txCtx, &actorID, record, report)
	})
	if err != nil {
		return nil, report, err
	}

	s.logger.Info("receipt reconciled",
		zap.String("request_id", id.String()),
		zap.Bool("valid", report.Valid),
		zap.Int("discrepancies", len(report.Discrepancies)))

	resp, err := s.loadResponse(ctx, id)
	if err != nil {
		return nil, report, err
	}
	return resp, report, nil
}

func (s *receiptService) auditReport(ctx context.Context, userID *uuid.UUID, record *model.PurchaseRequest, report reconcile.Report) error {
	payload, _ := json.Marshal(report)
	entry := &model.AuditLog{
		UserID:     userID,
		Action:     model.ActionReconcileReceipt,
		EntityID:   record.ID.String(),
		EntityName: record.Title,
		Details:    string(payload),
	}
	if err := s.audits.Log(ctx, entry); err != nil {
		return fmt.Errorf("failed to write reconciliation audit log: %w", err)
	}
	return nil
}

func (s *receiptService) loadResponse(ctx context.Context, id uuid.UUID) (*RequestResponse, error) {
	record, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toRequestResponse(record)
	return &resp, nil
}

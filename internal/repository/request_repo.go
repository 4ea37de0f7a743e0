package repository

import (
	"context"
	"errors"
	"fmt"

	"backend/internal/approval"
	"backend/internal/model"
	"backend/pkg/apperror"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RequestRepository interface {
	Create(ctx context.Context, req *model.Request, items []model.RequestItem) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Request, error)
	// FindByIDForUpdate row-locks the request inside the surrounding
	// transaction so only one concurrent transition can win.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Request, error)
	// FindByIDFull preloads everything the PDF and emails need.
	FindByIDFull(ctx context.Context, id uuid.UUID) (*model.Request, error)
	UpdateState(ctx context.Context, id uuid.UUID, status approval.Status, requiredRole approval.Role) error
	AppendAction(ctx context.Context, action *model.ApprovalAction) error

	ListByAgent(ctx context.Context, agentID uuid.UUID) ([]model.Request, error)
	// ListPending returns the pending queue for an approver role,
	// restricted to a division when one is given.
	ListPending(ctx context.Context, role approval.Role, divisionID *uuid.UUID) ([]model.Request, error)
	History(ctx context.Context, requestID uuid.UUID) ([]model.ApprovalAction, error)
	ActionsByApprover(ctx context.Context, approverID uuid.UUID) ([]model.ApprovalAction, error)
}

type requestRepository struct {
	db *gorm.DB
}

func NewRequestRepository(db *gorm.DB) RequestRepository {
	return &requestRepository{db: db}
}

func (r *requestRepository) Create(ctx context.Context, req *model.Request, items []model.RequestItem) error {
	db := GetDB(ctx, r.db)
	if err := db.Create(req).Error; err != nil {
		return fmt.Errorf("%w: create request: %v", apperror.ErrDependency, err)
	}
	for i := range items {
		items[i].RequestID = req.ID
	}
	if len(items) > 0 {
		if err := db.Create(&items).Error; err != nil {
			return fmt.Errorf("%w: create request items: %v", apperror.ErrDependency, err)
		}
	}
	return nil
}

func (r *requestRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Request, error) {
	var req model.Request
	if err := GetDB(ctx, r.db).First(&req, "id = ?", id).Error; err != nil {
		return nil, wrapRequestErr(id, err)
	}
	return &req, nil
}

func (r *requestRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Request, error) {
	var req model.Request
	if err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&req, "id = ?", id).Error; err != nil {
		return nil, wrapRequestErr(id, err)
	}
	return &req, nil
}

func (r *requestRepository) FindByIDFull(ctx context.Context, id uuid.UUID) (*model.Request, error) {
	var req model.Request
	err := GetDB(ctx, r.db).
		Preload("Agent").
		Preload("Division").
		Preload("Buyer").
		Preload("Site").
		Preload("Article").
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("request_items.created_at ASC") }).
		Preload("Items.Article").
		Preload("Approvals", func(db *gorm.DB) *gorm.DB { return db.Order("approval_actions.acted_at ASC") }).
		Preload("Approvals.Approver").
		First(&req, "id = ?", id).Error
	if err != nil {
		return nil, wrapRequestErr(id, err)
	}
	return &req, nil
}

func (r *requestRepository) UpdateState(ctx context.Context, id uuid.UUID, status approval.Status, requiredRole approval.Role) error {
	err := GetDB(ctx, r.db).Model(&model.Request{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":        status,
			"required_role": requiredRole,
		}).Error
	if err != nil {
		return fmt.Errorf("%w: update request state: %v", apperror.ErrDependency, err)
	}
	return nil
}

func (r *requestRepository) AppendAction(ctx context.Context, action *model.ApprovalAction) error {
	if err := GetDB(ctx, r.db).Create(action).Error; err != nil {
		return fmt.Errorf("%w: append approval action: %v", apperror.ErrDependency, err)
	}
	return nil
}

func (r *requestRepository) ListByAgent(ctx context.Context, agentID uuid.UUID) ([]model.Request, error) {
	var requests []model.Request
	err := GetDB(ctx, r.db).
		Preload("Buyer").
		Preload("Site").
		Preload("Article").
		Preload("Items.Article").
		Where("agent_id = ?", agentID).
		Order("created_at DESC").
		Find(&requests).Error
	if err != nil {
		return nil, fmt.Errorf("%w: list agent requests: %v", apperror.ErrDependency, err)
	}
	return requests, nil
}

func (r *requestRepository) ListPending(ctx context.Context, role approval.Role, divisionID *uuid.UUID) ([]model.Request, error) {
	var requests []model.Request
	query := GetDB(ctx, r.db).
		Preload("Agent").
		Preload("Buyer").
		Preload("Site").
		Preload("Article").
		Preload("Items.Article").
		Where("status = ? AND required_role = ?", approval.StatusPending, role)
	if divisionID != nil {
		query = query.Where("division_id = ?", *divisionID)
	}
	if err := query.Order("created_at DESC").Find(&requests).Error; err != nil {
		return nil, fmt.Errorf("%w: list pending requests: %v", apperror.ErrDependency, err)
	}
	return requests, nil
}

func (r *requestRepository) History(ctx context.Context, requestID uuid.UUID) ([]model.ApprovalAction, error) {
	var actions []model.ApprovalAction
	err := GetDB(ctx, r.db).
		Preload("Approver").
		Where("request_id = ?", requestID).
		Order("acted_at ASC").
		Find(&actions).Error
	if err != nil {
		return nil, fmt.Errorf("%w: load approval history: %v", apperror.ErrDependency, err)
	}
	return actions, nil
}

func (r *requestRepository) ActionsByApprover(ctx context.Context, approverID uuid.UUID) ([]model.ApprovalAction, error) {
	var actions []model.ApprovalAction
	err := GetDB(ctx, r.db).
		Where("approver_id = ?", approverID).
		Order("acted_at DESC").
		Find(&actions).Error
	if err != nil {
		return nil, fmt.Errorf("%w: load approver history: %v", apperror.ErrDependency, err)
	}
	return actions, nil
}

func wrapRequestErr(id uuid.UUID, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: request %s", apperror.ErrNotFound, id)
	}
	return fmt.Errorf("%w: load request: %v", apperror.ErrDependency, err)
}

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
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	EmailTaken(ctx context.Context, email string, excludeID uuid.UUID) (bool, error)
	List(ctx context.Context, page, limit int) ([]model.User, int64, error)
	Update(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, id uuid.UUID) error
	TouchLastLogin(ctx context.Context, id uuid.UUID) error
	// WithRole returns users holding the role, optionally restricted to a
	// division; it backs approver recipient resolution.
	WithRole(ctx context.Context, role approval.Role, divisionID *uuid.UUID) ([]model.User, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	if err := GetDB(ctx, r.db).Create(user).Error; err != nil {
		return fmt.Errorf("%w: create user: %v", apperror.ErrDependency, err)
	}
	return nil
}

func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	if err := GetDB(ctx, r.db).Preload("Division").First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %s", apperror.ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: find user: %v", apperror.ErrDependency, err)
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := GetDB(ctx, r.db).First(&user, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %s", apperror.ErrNotFound, email)
		}
		return nil, fmt.Errorf("%w: find user by email: %v", apperror.ErrDependency, err)
	}
	return &user, nil
}

func (r *userRepository) EmailTaken(ctx context.Context, email string, excludeID uuid.UUID) (bool, error) {
	var count int64
	query := GetDB(ctx, r.db).Model(&model.User{}).Where("email = ?", email)
	if excludeID != uuid.Nil {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, fmt.Errorf("%w: check email: %v", apperror.ErrDependency, err)
	}
	return count > 0, nil
}

func (r *userRepository) List(ctx context.Context, page, limit int) ([]model.User, int64, error) {
	var users []model.User
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.User{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("%w: count users: %v", apperror.ErrDependency, err)
	}

	offset := (page - 1) * limit
	if err := db.Preload("Division").Order("created_at ASC").Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("%w: list users: %v", apperror.ErrDependency, err)
	}
	return users, total, nil
}

func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	if err := GetDB(ctx, r.db).Save(user).Error; err != nil {
		return fmt.Errorf("%w: update user: %v", apperror.ErrDependency, err)
	}
	return nil
}

func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := GetDB(ctx, r.db).Delete(&model.User{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("%w: delete user: %v", apperror.ErrDependency, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: user %s", apperror.ErrNotFound, id)
	}
	return nil
}

func (r *userRepository) TouchLastLogin(ctx context.Context, id uuid.UUID) error {
	if err := GetDB(ctx, r.db).Model(&model.User{}).Where("id = ?", id).
		Update("last_login", gorm.Expr("NOW()")).Error; err != nil {
		return fmt.Errorf("%w: touch last login: %v", apperror.ErrDependency, err)
	}
	return nil
}

func (r *userRepository) WithRole(ctx context.Context, role approval.Role, divisionID *uuid.UUID) ([]model.User, error) {
	var users []model.User
	query := GetDB(ctx, r.db).Where("role = ?", role)
	if divisionID != nil {
		query = query.Where("division_id = ?", *divisionID)
	}
	if err := query.Find(&users).Error; err != nil {
		return nil, fmt.Errorf("%w: users with role %s: %v", apperror.ErrDependency, role, err)
	}
	return users, nil
}

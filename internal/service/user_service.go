package service

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"backend/internal/approval"
	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/apperror"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// --- DTOs ---

type CreateUserRequest struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required,min=6"`
	Role       string `json:"role" binding:"required"`
	DivisionID string `json:"division_id"`
	PDANumber  string `json:"pda_number"`
}

type UpdateUserRequest struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Email      string `json:"email" binding:"omitempty,email"`
	Password   string `json:"password"` // Optional: blank keeps the current hash
	Role       string `json:"role"`
	DivisionID string `json:"division_id"`
	PDANumber  string `json:"pda_number"`
}

type LoginUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type ProfileResponse struct {
	ID         string  `json:"id"`
	FirstName  string  `json:"first_name"`
	LastName   string  `json:"last_name"`
	Role       string  `json:"role"`
	DivisionID *string `json:"division_id"`
	PDANumber  string  `json:"pda_number"`
}

type LoginResponse struct {
	Token   string          `json:"token"`
	Profile ProfileResponse `json:"profile"`
}

// DTO for returning User without exposing sensitive data
type UserResponse struct {
	ID           string  `json:"id"`
	FirstName    string  `json:"first_name"`
	LastName     string  `json:"last_name"`
	Email        string  `json:"email"`
	Role         string  `json:"role"`
	DivisionID   *string `json:"division_id"`
	DivisionName string  `json:"division_name,omitempty"`
	PDANumber    string  `json:"pda_number"`
	CreatedAt    string  `json:"created_at"`
}

// UserService defines the business logic for accounts and login
type UserService interface {
	Login(ctx context.Context, req LoginUserRequest) (*LoginResponse, error)
	CreateUser(ctx context.Context, req CreateUserRequest) (*UserResponse, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*UserResponse, error)
	ListUsers(ctx context.Context, page, limit int) ([]UserResponse, int64, error)
	UpdateUser(ctx context.Context, id uuid.UUID, req UpdateUserRequest) (*UserResponse, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

type userService struct {
	repo repository.UserRepository
}

// NewUserService returns a new instance of UserService
func NewUserService(repo repository.UserRepository) UserService {
	return &userService{repo: repo}
}

func (s *userService) Login(ctx context.Context, req LoginUserRequest) (*LoginResponse, error) {
	user, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid email or password", apperror.ErrForbidden)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("%w: invalid email or password", apperror.ErrForbidden)
	}

	claims := jwt.MapClaims{
		"sub":  user.ID.String(),
		"role": string(user.Role),
		"exp":  time.Now().Add(24 * time.Hour).Unix(),
	}
	if user.DivisionID != nil {
		claims["division_id"] = user.DivisionID.String()
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "default_super_secret_key"
	}
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return nil, fmt.Errorf("%w: sign token: %v", apperror.ErrDependency, err)
	}

	if err := s.repo.TouchLastLogin(ctx, user.ID); err != nil {
		// Login still succeeds; the stamp is informational.
		log.Println("WARNING: failed to update last_login:", err)
	}

	profile := ProfileResponse{
		ID:        user.ID.String(),
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Role:      string(user.Role),
		PDANumber: user.PDANumber,
	}
	if user.DivisionID != nil {
		d := user.DivisionID.String()
		profile.DivisionID = &d
	}

	return &LoginResponse{Token: signed, Profile: profile}, nil
}

func (s *userService) CreateUser(ctx context.Context, req CreateUserRequest) (*UserResponse, error) {
	role, err := approval.ParseRole(req.Role)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperror.ErrValidation, err)
	}

	taken, err := s.repo.EmailTaken(ctx, req.Email, uuid.Nil)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, fmt.Errorf("%w: email already exists", apperror.ErrValidation)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("%w: hash password: %v", apperror.ErrDependency, err)
	}

	user := &model.User{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		PasswordHash: string(hashed),
		Role:         role,
		PDANumber:    req.PDANumber,
	}
	if req.DivisionID != "" {
		divisionID, parseErr := uuid.Parse(req.DivisionID)
		if parseErr != nil {
			return nil, fmt.Errorf("%w: invalid division_id", apperror.ErrValidation)
		}
		user.DivisionID = &divisionID
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	return mapUserToResponse(user), nil
}

func (s *userService) GetUserByID(ctx context.Context, id uuid.UUID) (*UserResponse, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return mapUserToResponse(user), nil
}

func (s *userService) ListUsers(ctx context.Context, page, limit int) ([]UserResponse, int64, error) {
	users, total, err := s.repo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}
	result := make([]UserResponse, 0, len(users))
	for i := range users {
		result = append(result, *mapUserToResponse(&users[i]))
	}
	return result, total, nil
}

func (s *userService) UpdateUser(ctx context.Context, id uuid.UUID, req UpdateUserRequest) (*UserResponse, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Email != "" && req.Email != user.Email {
		taken, takenErr := s.repo.EmailTaken(ctx, req.Email, id)
		if takenErr != nil {
			return nil, takenErr
		}
		if taken {
			return nil, fmt.Errorf("%w: email already exists", apperror.ErrValidation)
		}
		user.Email = req.Email
	}

	user.FirstName = req.FirstName
	user.LastName = req.LastName
	user.PDANumber = req.PDANumber

	if req.Role != "" {
		role, roleErr := approval.ParseRole(req.Role)
		if roleErr != nil {
			return nil, fmt.Errorf("%w: %v", apperror.ErrValidation, roleErr)
		}
		user.Role = role
	}

	if req.DivisionID != "" {
		divisionID, parseErr := uuid.Parse(req.DivisionID)
		if parseErr != nil {
			return nil, fmt.Errorf("%w: invalid division_id", apperror.ErrValidation)
		}
		user.DivisionID = &divisionID
	} else {
		user.DivisionID = nil
	}

	if req.Password != "" {
		hashed, hashErr := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if hashErr != nil {
			return nil, fmt.Errorf("%w: hash password: %v", apperror.ErrDependency, hashErr)
		}
		user.PasswordHash = string(hashed)
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	return mapUserToResponse(user), nil
}

func (s *userService) DeleteUser(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func mapUserToResponse(user *model.User) *UserResponse {
	resp := &UserResponse{
		ID:        user.ID.String(),
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
		Role:      string(user.Role),
		PDANumber: user.PDANumber,
		CreatedAt: user.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if user.DivisionID != nil {
		d := user.DivisionID.String()
		resp.DivisionID = &d
	}
	if user.Division != nil {
		resp.DivisionName = user.Division.Name
	}
	return resp
}

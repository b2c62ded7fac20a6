package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"shoe-market-backend/internal/models"
	"shoe-market-backend/internal/repository"

	"github.com/google/uuid"
)

// UserService owns user accounts
type UserService struct {
	userRepo repository.UserStore
	hasher   *PasswordHasher
}

// NewUserService creates a new user service
func NewUserService(userRepo repository.UserStore, hasher *PasswordHasher) *UserService {
	return &UserService{
		userRepo: userRepo,
		hasher:   hasher,
	}
}

// UpdateUserRequest holds the profile fields a caller may change
type UpdateUserRequest struct {
	UserName    *string `json:"userName" validate:"omitempty,min=1"`
	PhoneNumber *string `json:"phoneNumber" validate:"omitempty,phone"`
	Password    *string `json:"password" validate:"omitempty,min=6"`
	PushToken   *string `json:"pushToken"`
	IsAdmin     *bool   `json:"isAdmin"`
}

// CreateUser persists a new account. The password must already be hashed.
func (s *UserService) CreateUser(ctx context.Context, user *models.User) error {
	user.PhoneNumber = strings.TrimSpace(user.PhoneNumber)
	if user.PhoneNumber == "" {
		return models.NewValidationError("phoneNumber", "is required")
	}
	if user.PasswordHash == "" {
		return models.NewValidationError("password", "is required")
	}

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	if user.RecordRefs == nil {
		user.RecordRefs = []string{}
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// FindByID returns the user or ErrNotFound
func (s *UserService) FindByID(ctx context.Context, id string) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// FindByPhone returns the user with the phone number or ErrNotFound
func (s *UserService) FindByPhone(ctx context.Context, phone string) (*models.User, error) {
	return s.userRepo.GetByPhone(ctx, strings.TrimSpace(phone))
}

// GetUser returns a user visible to the caller
func (s *UserService) GetUser(ctx context.Context, id string, claim models.Claim) (*models.User, error) {
	if !claim.CanActFor(id) {
		return nil, fmt.Errorf("%w: cannot read another user's profile", models.ErrForbidden)
	}
	return s.userRepo.GetByID(ctx, id)
}

// ListUsers returns every user; admins only
func (s *UserService) ListUsers(ctx context.Context, claim models.Claim) ([]*models.User, error) {
	if !claim.IsAdmin {
		return nil, fmt.Errorf("%w: admin only", models.ErrForbidden)
	}
	return s.userRepo.List(ctx)
}

// UpdateUser changes a profile. A new phone number must not belong to another user.
func (s *UserService) UpdateUser(ctx context.Context, id string, req UpdateUserRequest, claim models.Claim) (*models.User, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if !claim.CanActFor(id) {
		return nil, fmt.Errorf("%w: cannot update another user", models.ErrForbidden)
	}
	if req.IsAdmin != nil && !claim.IsAdmin {
		return nil, fmt.Errorf("%w: only admins may change admin status", models.ErrForbidden)
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.PhoneNumber != nil {
		phone := strings.TrimSpace(*req.PhoneNumber)
		if phone != user.PhoneNumber {
			other, err := s.userRepo.GetByPhone(ctx, phone)
			switch {
			case err == nil && other.ID != user.ID:
				return nil, fmt.Errorf("%w: phone number %s is already registered", models.ErrConflict, phone)
			case err != nil && !errors.Is(err, models.ErrNotFound):
				return nil, err
			}
		}
		user.PhoneNumber = phone
	}
	if req.UserName != nil {
		user.UserName = strings.TrimSpace(*req.UserName)
	}
	if req.Password != nil {
		hash, err := s.hasher.Hash(*req.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}
	if req.PushToken != nil {
		token := strings.TrimSpace(*req.PushToken)
		if token == "" {
			user.PushToken = nil
		} else {
			user.PushToken = &token
		}
	}
	if req.IsAdmin != nil {
		user.IsAdmin = *req.IsAdmin
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

// DeleteUser removes an account. Purchase records owned by the user are kept.
func (s *UserService) DeleteUser(ctx context.Context, id string, claim models.Claim) (*models.User, error) {
	if !claim.CanActFor(id) {
		return nil, fmt.Errorf("%w: cannot delete another user", models.ErrForbidden)
	}
	return s.userRepo.Delete(ctx, id)
}

package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"shoe-market-backend/internal/models"

	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher hashes and compares passwords with bcrypt
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher creates a hasher with the given bcrypt cost
func NewPasswordHasher(cost int) *PasswordHasher {
	return &PasswordHasher{cost: cost}
}

// Hash returns the bcrypt hash of password
func (h *PasswordHasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// Compare reports whether password matches hash
func (h *PasswordHasher) Compare(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// SignupRequest is the body of POST /users/signup
type SignupRequest struct {
	UserName    string `json:"userName" validate:"required"`
	PhoneNumber string `json:"phoneNumber" validate:"required,phone"`
	Password    string `json:"password" validate:"required,min=6"`
}

// LoginRequest is the body of POST /users/login
type LoginRequest struct {
	UserName    string `json:"userName" validate:"required"`
	PhoneNumber string `json:"phoneNumber" validate:"required"`
	Password    string `json:"password" validate:"required"`
}

// LoginResponse carries the issued bearer token
type LoginResponse struct {
	Token     string `json:"token"`
	UserID    string `json:"userId"`
	IsAdmin   bool   `json:"isAdmin"`
	ExpiresIn int    `json:"expiresIn"`
}

// AuthService signs users up, logs them in and verifies their tokens
type AuthService struct {
	users       *UserService
	hasher      *PasswordHasher
	tokens      *TokenManager
	adminPhones map[string]struct{}
}

// NewAuthService creates a new auth service. Signups from adminPhones become admins.
func NewAuthService(users *UserService, hasher *PasswordHasher, tokens *TokenManager, adminPhones []string) *AuthService {
	admins := make(map[string]struct{}, len(adminPhones))
	for _, p := range adminPhones {
		admins[strings.TrimSpace(p)] = struct{}{}
	}
	return &AuthService{
		users:       users,
		hasher:      hasher,
		tokens:      tokens,
		adminPhones: admins,
	}
}

// Signup registers a new account
func (s *AuthService) Signup(ctx context.Context, req SignupRequest) (*models.User, error) {
	req.UserName = strings.TrimSpace(req.UserName)
	req.PhoneNumber = strings.TrimSpace(req.PhoneNumber)
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	_, err := s.users.FindByPhone(ctx, req.PhoneNumber)
	switch {
	case err == nil:
		return nil, fmt.Errorf("%w: phone number %s is already registered", models.ErrConflict, req.PhoneNumber)
	case !errors.Is(err, models.ErrNotFound):
		return nil, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	_, isAdmin := s.adminPhones[req.PhoneNumber]
	user := &models.User{
		UserName:     req.UserName,
		PhoneNumber:  req.PhoneNumber,
		PasswordHash: hash,
		IsAdmin:      isAdmin,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login checks credentials and issues a token. Unknown phone, wrong user name
// and wrong password all fail with the same ErrAuthenticationFailed.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	if err := validateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: missing credentials", models.ErrAuthenticationFailed)
	}

	user, err := s.users.FindByPhone(ctx, req.PhoneNumber)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrAuthenticationFailed
		}
		return nil, err
	}
	if user.UserName != strings.TrimSpace(req.UserName) {
		return nil, models.ErrAuthenticationFailed
	}
	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		return nil, models.ErrAuthenticationFailed
	}

	token, _, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	return &LoginResponse{
		Token:     token,
		UserID:    user.ID,
		IsAdmin:   user.IsAdmin,
		ExpiresIn: int(s.tokens.TTL().Seconds()),
	}, nil
}

// Verify validates a bearer token
func (s *AuthService) Verify(token string) (models.Claim, error) {
	return s.tokens.Verify(token)
}

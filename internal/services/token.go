package services

import (
	"fmt"
	"time"

	"shoe-market-backend/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

// tokenClaims is the signed payload: sub, phoneNumber, isAdmin, iss, iat, exp
type tokenClaims struct {
	PhoneNumber string `json:"phoneNumber"`
	IsAdmin     bool   `json:"isAdmin"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies HS256 bearer tokens
type TokenManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewTokenManager creates a manager with the provided secret, issuer, and lifetime
func NewTokenManager(secret, issuer string, ttl time.Duration) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
	}
}

// TTL returns the lifetime of issued tokens
func (t *TokenManager) TTL() time.Duration {
	return t.ttl
}

// Issue signs a token for the user and returns it with its claim
func (t *TokenManager) Issue(user *models.User) (string, models.Claim, error) {
	now := time.Now()
	exp := now.Add(t.ttl)

	claims := tokenClaims{
		PhoneNumber: user.PhoneNumber,
		IsAdmin:     user.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", models.Claim{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, models.Claim{
		Subject:     user.ID,
		PhoneNumber: user.PhoneNumber,
		IsAdmin:     user.IsAdmin,
		ExpiresAt:   exp.Truncate(time.Second),
	}, nil
}

// Verify validates a token and returns its claim. Every failure is ErrAuthenticationFailed.
func (t *TokenManager) Verify(tokenString string) (models.Claim, error) {
	var claims tokenClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(t.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return models.Claim{}, fmt.Errorf("%w: %w", models.ErrAuthenticationFailed, err)
	}
	if !token.Valid || claims.Subject == "" {
		return models.Claim{}, fmt.Errorf("%w: invalid token", models.ErrAuthenticationFailed)
	}

	return models.Claim{
		Subject:     claims.Subject,
		PhoneNumber: claims.PhoneNumber,
		IsAdmin:     claims.IsAdmin,
		ExpiresAt:   claims.ExpiresAt.Time,
	}, nil
}

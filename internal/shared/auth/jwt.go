package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// RoleAdmin grants access to the admin order and webhook endpoints.
const RoleAdmin = "admin"

var (
	ErrInvalidToken       = errors.New("invalid token")
	ErrInvalidTokenClaims = errors.New("invalid token claims")
	ErrMissingSecret      = errors.New("jwt secret is not configured")
)

// Claims represents JWT token claims.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// JWTConfig holds JWT configuration.
type JWTConfig struct {
	Secret      string
	TokenExpiry time.Duration
	Issuer      string
}

// JWTManager issues and validates HS256 tokens.
type JWTManager struct {
	config *JWTConfig
}

// NewJWTManager creates a new JWT manager.
func NewJWTManager(config *JWTConfig) *JWTManager {
	if config.TokenExpiry == 0 {
		config.TokenExpiry = 12 * time.Hour
	}
	if config.Issuer == "" {
		config.Issuer = "vestire"
	}
	return &JWTManager{config: config}
}

// GenerateToken issues a token for subject with the given role.
func (m *JWTManager) GenerateToken(subject, role string) (string, time.Time, error) {
	if m.config.Secret == "" {
		return "", time.Time{}, ErrMissingSecret
	}

	now := time.Now()
	expiresAt := now.Add(m.config.TokenExpiry)
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.config.Issuer,
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        uuid.New().String(),
		},
		Role: role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(m.config.Secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// ValidateToken validates a token and returns its claims.
func (m *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	if m.config.Secret == "" {
		return nil, ErrMissingSecret
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(m.config.Secret), nil
	}, jwt.WithIssuer(m.config.Issuer))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidTokenClaims
	}
	return claims, nil
}

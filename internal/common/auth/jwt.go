// internal/common/auth/jwt.go
package auth

import (
	"fmt"
	"strings"
	"time"

	"franchise-notifications/internal/common/errors"
	"franchise-notifications/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is the caller extracted from a bearer token.
type Identity struct {
	UserID string
	Email  string
	Role   models.Role
}

// TokenVerifier validates HS256 bearer tokens issued by the platform and
// reads the caller's role from a configurable claim.
type TokenVerifier struct {
	secret    []byte
	roleClaim string
}

func NewTokenVerifier(secret, roleClaim string) *TokenVerifier {
	if roleClaim == "" {
		roleClaim = "role"
	}
	return &TokenVerifier{secret: []byte(secret), roleClaim: roleClaim}
}

func (v *TokenVerifier) Verify(tokenString string) (*Identity, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (any, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return nil, errors.NewAuthenticationError(fmt.Sprintf("invalid token: %v", err))
	}

	roleVal, _ := claims[v.roleClaim].(string)
	role := models.Role(strings.ToUpper(roleVal))
	if !role.IsValid() {
		return nil, errors.NewAuthenticationError(fmt.Sprintf("claim %q does not carry a notification role", v.roleClaim))
	}

	id := &Identity{Role: role}
	id.UserID, _ = claims["sub"].(string)
	if uid, ok := claims["user_id"].(string); ok && uid != "" {
		id.UserID = uid
	}
	id.Email, _ = claims["email"].(string)
	return id, nil
}

// Sign issues a token for id; used by tooling and tests.
func (v *TokenVerifier) Sign(id Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":       id.UserID,
		"email":     id.Email,
		v.roleClaim: string(id.Role),
		"iat":       jwt.NewNumericDate(now),
		"exp":       jwt.NewNumericDate(now.Add(ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

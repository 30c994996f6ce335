package auth

import (
	"testing"
	"time"

	apperrors "franchise-notifications/internal/common/errors"
	"franchise-notifications/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenVerifier_RoundTrip(t *testing.T) {
	v := NewTokenVerifier("secret", "app_role")

	token, err := v.Sign(Identity{UserID: "U1", Email: "a@x.com", Role: models.RoleAdmin}, time.Hour)
	require.NoError(t, err)

	id, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "U1", id.UserID)
	assert.Equal(t, "a@x.com", id.Email)
	assert.Equal(t, models.RoleAdmin, id.Role)
}

func TestTokenVerifier_Rejects(t *testing.T) {
	v := NewTokenVerifier("secret", "")

	expired, err := v.Sign(Identity{UserID: "U1", Role: models.RoleAdmin}, -time.Minute)
	require.NoError(t, err)

	otherKey, err := NewTokenVerifier("other", "").Sign(Identity{UserID: "U1", Role: models.RoleAdmin}, time.Hour)
	require.NoError(t, err)

	noRole, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "U1",
		"exp": jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "U1",
		"role": "ADMIN",
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	for name, token := range map[string]string{
		"expired":   expired,
		"wrong key": otherKey,
		"no role":   noRole,
		"no expiry": noExpiry,
		"garbage":   "not.a.token",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := v.Verify(token)
			require.Error(t, err)
			assert.Equal(t, apperrors.ErrCodeAuthenticationFailed, apperrors.CodeOf(err))
		})
	}
}

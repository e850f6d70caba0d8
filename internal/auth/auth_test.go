package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/puzakroman35-sys/ohmatdyt-crm/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	m := NewManager("test-secret", time.Minute, time.Hour)
	u := &model.User{ID: uuid.New(), Role: model.RoleExecutor}

	token, err := m.AccessToken(u)
	require.NoError(t, err)

	userID, claims, err := m.Verify(token, TokenTypeAccess)
	require.NoError(t, err)
	assert.Equal(t, u.ID, userID)
	assert.Equal(t, model.RoleExecutor, claims.Role)
}

func TestRefreshTokenIsNotAnAccessToken(t *testing.T) {
	m := NewManager("test-secret", time.Minute, time.Hour)
	u := &model.User{ID: uuid.New(), Role: model.RoleAdmin}

	refresh, err := m.RefreshToken(u)
	require.NoError(t, err)

	_, _, err = m.Verify(refresh, TokenTypeAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)

	userID, claims, err := m.Verify(refresh, TokenTypeRefresh)
	require.NoError(t, err)
	assert.Equal(t, u.ID, userID)
	assert.Empty(t, claims.Role, "refresh tokens carry no role")
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	m1 := NewManager("secret-one", time.Minute, time.Hour)
	m2 := NewManager("secret-two", time.Minute, time.Hour)
	u := &model.User{ID: uuid.New(), Role: model.RoleOperator}

	token, err := m1.AccessToken(u)
	require.NoError(t, err)

	_, _, err = m2.Verify(token, TokenTypeAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	m := NewManager("test-secret", -time.Minute, time.Hour)
	u := &model.User{ID: uuid.New(), Role: model.RoleOperator}

	token, err := m.AccessToken(u)
	require.NoError(t, err)

	_, _, err = m.Verify(token, TokenTypeAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("operator1pass")
	require.NoError(t, err)
	assert.NotEqual(t, "operator1pass", hash)
	assert.True(t, CheckPassword("operator1pass", hash))
	assert.False(t, CheckPassword("wrong", hash))
}

func TestValidatePassword(t *testing.T) {
	assert.Error(t, ValidatePassword("short1"))
	assert.Error(t, ValidatePassword("lettersonly"))
	assert.Error(t, ValidatePassword("12345678"))
	assert.NoError(t, ValidatePassword("letters123"))
}

func TestGenerateTempPassword(t *testing.T) {
	pw, err := GenerateTempPassword(12)
	require.NoError(t, err)
	assert.Len(t, pw, 12)
	assert.NoError(t, ValidatePassword(pw))
}

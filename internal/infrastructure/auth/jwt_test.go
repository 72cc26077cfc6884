package auth

import (
	"testing"
	"time"

	"github.com/bizconsult/crm/internal/domain/identity"
	"github.com/bizconsult/crm/internal/domain/shared"
	"github.com/bizconsult/crm/internal/infrastructure/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTService() *JWTService {
	return NewJWTService(config.JWTConfig{
		Secret:                "test-secret-key-at-least-32-chars",
		AccessTokenExpiration: 15 * time.Minute,
		Issuer:                "crm-test",
	})
}

func newTestUser(role identity.Role, teamID *uuid.UUID) *identity.User {
	return &identity.User{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Email:             "lee@example.com",
		Name:              "이팀장",
		Role:              role,
		TeamID:            teamID,
		Active:            true,
	}
}

func TestNewJWTService_DefaultExpiration(t *testing.T) {
	svc := NewJWTService(config.JWTConfig{Secret: "s"})
	assert.Equal(t, 12*time.Hour, svc.Expiration())
}

func TestJWTService_IssueAndValidate(t *testing.T) {
	svc := newTestJWTService()
	teamID := uuid.New()
	user := newTestUser(identity.RoleTeamLeader, &teamID)

	token, err := svc.Issue(user)
	require.NoError(t, err)
	assert.Equal(t, "Bearer", token.TokenType)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), token.ExpiresAt, 5*time.Second)

	claims, err := svc.Validate(token.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), claims.UserID)
	assert.Equal(t, "이팀장", claims.Name)
	assert.NotEmpty(t, claims.ID)

	scope := claims.Scope()
	assert.Equal(t, user.ID, scope.UserID)
	assert.Equal(t, identity.RoleTeamLeader, scope.Role)
	require.NotNil(t, scope.TeamID)
	assert.Equal(t, teamID, *scope.TeamID)
}

func TestJWTService_StaffWithoutTeam(t *testing.T) {
	svc := newTestJWTService()
	token, err := svc.Issue(newTestUser(identity.RoleStaff, nil))
	require.NoError(t, err)

	claims, err := svc.Validate(token.AccessToken)
	require.NoError(t, err)
	assert.Empty(t, claims.TeamID)
	assert.Nil(t, claims.Scope().TeamID)
}

func TestJWTService_Expired(t *testing.T) {
	svc := newTestJWTService()
	issuedAt := time.Now().Add(-time.Hour)
	svc.now = func() time.Time { return issuedAt }
	token, err := svc.Issue(newTestUser(identity.RoleStaff, nil))
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.Validate(token.AccessToken)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestJWTService_WrongSecret(t *testing.T) {
	token, err := newTestJWTService().Issue(newTestUser(identity.RoleStaff, nil))
	require.NoError(t, err)

	other := NewJWTService(config.JWTConfig{Secret: "another-secret-key-at-least-32-ch"})
	_, err = other.Validate(token.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTService_RejectsNoneAlgorithm(t *testing.T) {
	claims := &Claims{UserID: uuid.NewString(), Role: string(identity.RoleSuperAdmin)}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = newTestJWTService().Validate(unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTService_RejectsUnknownRole(t *testing.T) {
	svc := newTestJWTService()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute))},
		UserID:           uuid.NewString(),
		Role:             "owner",
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(svc.secret)
	require.NoError(t, err)

	_, err = svc.Validate(signed)
	assert.ErrorIs(t, err, ErrInvalidClaims)
}

func TestClaims_RemainingTTL(t *testing.T) {
	now := time.Now()
	c := &Claims{RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute))}}
	assert.InDelta(t, time.Minute.Seconds(), c.RemainingTTL(now).Seconds(), 1)
	assert.Zero(t, c.RemainingTTL(now.Add(2*time.Minute)))
	assert.Zero(t, (&Claims{}).RemainingTTL(now))
}

// internal/services/auth_service_test.go
package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokosakti/toko-backend/internal/config"
	"github.com/tokosakti/toko-backend/internal/models"
)

func testAuthConfig() *config.Config {
	return &config.Config{
		JWT: config.JWTConfig{
			SecretKey:       "test-secret",
			AccessTokenTTL:  1,
			RefreshTokenTTL: 24,
		},
	}
}

func TestRegisterAndLogin(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	sink := &memorySink{}

	auth := NewAuthService(db, testAuthConfig(), sink)

	resp, err := auth.Register(ctx, &RegisterRequest{
		Username: "budi_santoso",
		Email:    "budi@example.com",
		Password: "RahasiaKu123",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, models.UserTypeCustomer, resp.User.UserType)
	assert.Contains(t, sink.kinds(), models.EventUserRegistered)

	login, err := auth.Login(ctx, &LoginRequest{
		Email:    "budi@example.com",
		Password: "RahasiaKu123",
	})
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, login.User.ID)

	_, err = auth.Login(ctx, &LoginRequest{
		Email:    "budi@example.com",
		Password: "SalahTotal99",
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = auth.Login(ctx, &LoginRequest{
		Email:    "nobody@example.com",
		Password: "RahasiaKu123",
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	auth := NewAuthService(db, testAuthConfig(), nil)

	_, err := auth.Register(ctx, &RegisterRequest{
		Username: "siti_aminah",
		Email:    "siti@example.com",
		Password: "RahasiaKu123",
	})
	require.NoError(t, err)

	_, err = auth.Register(ctx, &RegisterRequest{
		Username: "siti_lain",
		Email:    "siti@example.com",
		Password: "RahasiaKu123",
	})
	assert.ErrorIs(t, err, ErrEmailTaken)

	_, err = auth.Register(ctx, &RegisterRequest{
		Username: "siti_aminah",
		Email:    "lain@example.com",
		Password: "RahasiaKu123",
	})
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestRegisterRejectsWeakPassword(t *testing.T) {
	db := newTestDB(t)

	auth := NewAuthService(db, testAuthConfig(), nil)

	_, err := auth.Register(context.Background(), &RegisterRequest{
		Username: "lemah",
		Email:    "lemah@example.com",
		Password: "short",
	})
	assert.Error(t, err)
}

func TestRefreshToken(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	auth := NewAuthService(db, testAuthConfig(), nil)

	resp, err := auth.Register(ctx, &RegisterRequest{
		Username: "agus_salim",
		Email:    "agus@example.com",
		Password: "RahasiaKu123",
	})
	require.NoError(t, err)

	refreshed, err := auth.RefreshToken(ctx, resp.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
	assert.Equal(t, resp.User.ID, refreshed.User.ID)

	_, err = auth.RefreshToken(ctx, "not-a-token")
	assert.Error(t, err)
}

func TestUpdateProfile(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	auth := NewAuthService(db, testAuthConfig(), nil)
	user := createTestUser(t, db, models.UserTypeCustomer)

	address := "Jl. Cendana No. 7, Bogor"
	updated, err := auth.UpdateProfile(ctx, user.ID, &UpdateProfileRequest{Address: &address})
	require.NoError(t, err)
	assert.Equal(t, address, updated.Address)

	var stored models.User
	require.NoError(t, db.First(&stored, "id = ?", user.ID).Error)
	assert.Equal(t, address, stored.Address)
}

package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"herblog/internal/app/service"
	"herblog/internal/common"
	"herblog/internal/common/security"
	"herblog/internal/domain/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthService() *service.AuthService {
	store := memory.NewStore()
	jwt := security.NewJWT([]byte("test-secret"), 7*24*time.Hour)
	return service.NewAuthService(store.Users(), jwt)
}

func TestAuthService_RegisterThenLogin(t *testing.T) {
	s := newAuthService()
	ctx := context.Background()

	reg, err := s.Register(ctx, service.RegisterRequest{
		Username: "alice", Email: "a@x.com", Password: "secret1",
	})
	require.NoError(t, err)
	require.NotNil(t, reg)
	assert.NotEmpty(t, reg.Token)
	assert.Equal(t, "alice", reg.User.Username)
	assert.Empty(t, reg.User.HashedPassword, "hash must not leave the service")

	login, err := s.Login(ctx, service.LoginRequest{Email: "a@x.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, login.User.ID)
	assert.NotEmpty(t, login.Token)
}

func TestAuthService_RegisterMissingFields(t *testing.T) {
	s := newAuthService()
	_, err := s.Register(context.Background(), service.RegisterRequest{Username: "alice"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrBadRequest))
}

func TestAuthService_RegisterDuplicateEmail(t *testing.T) {
	s := newAuthService()
	ctx := context.Background()

	_, err := s.Register(ctx, service.RegisterRequest{
		Username: "alice", Email: "a@x.com", Password: "secret1",
	})
	require.NoError(t, err)

	// Same email, different username: still a conflict.
	_, err = s.Register(ctx, service.RegisterRequest{
		Username: "alice2", Email: "a@x.com", Password: "secret2",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrConflict))
}

func TestAuthService_RegisterDuplicateUsername(t *testing.T) {
	s := newAuthService()
	ctx := context.Background()

	_, err := s.Register(ctx, service.RegisterRequest{
		Username: "alice", Email: "a@x.com", Password: "secret1",
	})
	require.NoError(t, err)

	_, err = s.Register(ctx, service.RegisterRequest{
		Username: "alice", Email: "other@x.com", Password: "secret2",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrConflict))
}

func TestAuthService_ConcurrentRegistrationSameEmail(t *testing.T) {
	s := newAuthService()
	ctx := context.Background()

	const attempts = 8
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		i := i
		go func() {
			_, err := s.Register(ctx, service.RegisterRequest{
				Username: "alice" + string(rune('a'+i)),
				Email:    "a@x.com",
				Password: "secret1",
			})
			results <- err
		}()
	}

	succeeded := 0
	for i := 0; i < attempts; i++ {
		if err := <-results; err == nil {
			succeeded++
		} else {
			assert.True(t, errors.Is(err, common.ErrConflict), "unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded, "the uniqueness constraint admits exactly one registration")
}

func TestAuthService_LoginInvalidCredentials(t *testing.T) {
	s := newAuthService()
	ctx := context.Background()

	_, err := s.Register(ctx, service.RegisterRequest{
		Username: "alice", Email: "a@x.com", Password: "secret1",
	})
	require.NoError(t, err)

	// Wrong password and unknown email fail the same way.
	_, err = s.Login(ctx, service.LoginRequest{Email: "a@x.com", Password: "wrong"})
	assert.True(t, errors.Is(err, common.ErrUnauthorized))

	_, err = s.Login(ctx, service.LoginRequest{Email: "nobody@x.com", Password: "secret1"})
	assert.True(t, errors.Is(err, common.ErrUnauthorized))
}

func TestAuthService_TokenCarriesUserID(t *testing.T) {
	store := memory.NewStore()
	jwt := security.NewJWT([]byte("test-secret"), 7*24*time.Hour)
	s := service.NewAuthService(store.Users(), jwt)

	reg, err := s.Register(context.Background(), service.RegisterRequest{
		Username: "alice", Email: "a@x.com", Password: "secret1",
	})
	require.NoError(t, err)

	userID, err := jwt.VerifyToken(reg.Token)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, userID)
}

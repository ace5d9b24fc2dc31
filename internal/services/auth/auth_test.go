package auth_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/content-paywall/internal/lib/apperr"
	customjwt "github.com/magabrotheeeer/content-paywall/internal/lib/jwt"
	"github.com/magabrotheeeer/content-paywall/internal/lib/password"
	"github.com/magabrotheeeer/content-paywall/internal/models"
	"github.com/magabrotheeeer/content-paywall/internal/services/auth"
	"github.com/magabrotheeeer/content-paywall/internal/storage"
)

// Мок для UserRepository
type UserRepoMock struct {
	mock.Mock
}

func (m *UserRepoMock) CreateUser(ctx context.Context, user models.User) (*models.User, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserRepoMock) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserRepoMock) TouchLastSignedIn(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// Мок для jwt.Maker
type JwtMakerMock struct {
	mock.Mock
}

func (m *JwtMakerMock) GenerateToken(p customjwt.Payload) (string, error) {
	args := m.Called(p)
	return args.String(0), args.Error(1)
}

func (m *JwtMakerMock) ParseToken(token string) (*customjwt.CustomClaims, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*customjwt.CustomClaims), args.Error(1)
}

const secret = "test_secret_key_1234567890"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newService(t *testing.T, repo auth.UserRepository, maker customjwt.Maker) *auth.AuthService {
	svc, err := auth.NewAuthService(repo, maker, discardLogger())
	require.NoError(t, err)
	return svc
}

func storedUser(t *testing.T, id int64, email, rawPassword string, role models.Role) *models.User {
	hash, err := password.GetHash(rawPassword)
	require.NoError(t, err)
	return &models.User{ID: id, Name: "Maria", Email: &email, Role: role, PasswordHash: &hash}
}

func TestAuthService_Register(t *testing.T) {
	tests := []struct {
		name       string
		email      string
		setupMocks func(r *UserRepoMock)
		wantKind   apperr.Kind
	}{
		{
			name:  "successful registration",
			email: " Maria@Example.com",
			setupMocks: func(r *UserRepoMock) {
				r.On("CreateUser", mock.Anything, mock.MatchedBy(func(u models.User) bool {
					return u.Email != nil && *u.Email == "maria@example.com" &&
						u.Role == models.RoleUser &&
						u.PasswordHash != nil && password.CompareHash(*u.PasswordHash, "secret123") == nil
				})).Return(&models.User{ID: 10, Name: "Maria", Email: ptr("maria@example.com"), Role: models.RoleUser}, nil).Once()
			},
		},
		{
			name:  "duplicate email",
			email: "maria@example.com",
			setupMocks: func(r *UserRepoMock) {
				r.On("CreateUser", mock.Anything, mock.Anything).
					Return(nil, storage.ErrEmailTaken).Once()
			},
			wantKind: apperr.Conflict,
		},
		{
			name:  "repository error",
			email: "maria@example.com",
			setupMocks: func(r *UserRepoMock) {
				r.On("CreateUser", mock.Anything, mock.Anything).
					Return(nil, errors.New("db error")).Once()
			},
			wantKind: apperr.Internal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(UserRepoMock)
			tt.setupMocks(repo)
			maker := customjwt.NewJWTMaker(secret, 0)
			svc := newService(t, repo, maker)

			session, err := svc.Register(context.Background(), "Maria", tt.email, "secret123")
			if tt.wantKind != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantKind, apperr.KindOf(err))
				assert.Nil(t, session)
			} else {
				require.NoError(t, err)
				assert.Equal(t, int64(10), session.User.ID)
				assert.Equal(t, models.RoleUser, session.User.Role)

				identity := svc.Authenticate(session.Token)
				require.NotNil(t, identity)
				assert.Equal(t, *session.User, *identity)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	user := storedUser(t, 5, "user@example.com", "correct-password", models.RoleUser)

	tests := []struct {
		name       string
		password   string
		setupMocks func(r *UserRepoMock)
		wantKind   apperr.Kind
	}{
		{
			name:     "successful login",
			password: "correct-password",
			setupMocks: func(r *UserRepoMock) {
				r.On("GetUserByEmail", mock.Anything, "user@example.com").Return(user, nil).Once()
				r.On("TouchLastSignedIn", mock.Anything, int64(5)).Return(nil).Once()
			},
		},
		{
			name:     "last sign in update failure does not fail login",
			password: "correct-password",
			setupMocks: func(r *UserRepoMock) {
				r.On("GetUserByEmail", mock.Anything, "user@example.com").Return(user, nil).Once()
				r.On("TouchLastSignedIn", mock.Anything, int64(5)).Return(errors.New("db error")).Once()
			},
		},
		{
			name:     "wrong password",
			password: "wrong-password",
			setupMocks: func(r *UserRepoMock) {
				r.On("GetUserByEmail", mock.Anything, "user@example.com").Return(user, nil).Once()
			},
			wantKind: apperr.Unauthorized,
		},
		{
			name:     "unknown email",
			password: "correct-password",
			setupMocks: func(r *UserRepoMock) {
				r.On("GetUserByEmail", mock.Anything, "user@example.com").Return(nil, storage.ErrNotFound).Once()
			},
			wantKind: apperr.Unauthorized,
		},
		{
			name:     "database unavailable",
			password: "correct-password",
			setupMocks: func(r *UserRepoMock) {
				r.On("GetUserByEmail", mock.Anything, "user@example.com").Return(nil, nil).Once()
			},
			wantKind: apperr.Unauthorized,
		},
		{
			name:     "user without password",
			password: "anything",
			setupMocks: func(r *UserRepoMock) {
				r.On("GetUserByEmail", mock.Anything, "user@example.com").
					Return(&models.User{ID: 6, Email: ptr("user@example.com"), Role: models.RoleUser}, nil).Once()
			},
			wantKind: apperr.Unauthorized,
		},
		{
			name:     "repository error",
			password: "correct-password",
			setupMocks: func(r *UserRepoMock) {
				r.On("GetUserByEmail", mock.Anything, "user@example.com").Return(nil, errors.New("conn reset")).Once()
			},
			wantKind: apperr.Internal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(UserRepoMock)
			tt.setupMocks(repo)
			svc := newService(t, repo, customjwt.NewJWTMaker(secret, 0))

			session, err := svc.Login(context.Background(), "user@example.com", tt.password)
			if tt.wantKind != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantKind, apperr.KindOf(err))
				if tt.wantKind == apperr.Unauthorized {
					assert.Equal(t, auth.MsgInvalidCredentials, apperr.MessageOf(err))
				}
			} else {
				require.NoError(t, err)
				assert.NotEmpty(t, session.Token)
				assert.Equal(t, "user@example.com", session.User.Email)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestAuthService_Login_TokenFailure(t *testing.T) {
	user := storedUser(t, 5, "user@example.com", "correct-password", models.RoleAdmin)
	repo := new(UserRepoMock)
	repo.On("GetUserByEmail", mock.Anything, "user@example.com").Return(user, nil).Once()
	repo.On("TouchLastSignedIn", mock.Anything, int64(5)).Return(nil).Once()

	maker := new(JwtMakerMock)
	maker.On("GenerateToken", customjwt.Payload{ID: 5, Email: "user@example.com", Name: "Maria", Role: "admin"}).
		Return("", errors.New("sign error")).Once()

	svc := newService(t, repo, maker)
	_, err := svc.Login(context.Background(), "user@example.com", "correct-password")
	require.Error(t, err)
	assert.Equal(t, apperr.Internal, apperr.KindOf(err))
	maker.AssertExpectations(t)
}

func TestAuthService_Authenticate(t *testing.T) {
	maker := customjwt.NewJWTMaker(secret, 0)
	svc := newService(t, new(UserRepoMock), maker)

	valid, err := maker.GenerateToken(customjwt.Payload{ID: 3, Email: "a@example.com", Name: "A", Role: "admin"})
	require.NoError(t, err)
	expired, err := customjwt.NewJWTMaker(secret, -time.Hour).GenerateToken(customjwt.Payload{ID: 3, Role: "user"})
	require.NoError(t, err)
	foreign, err := customjwt.NewJWTMaker("another_secret_key_123456", 0).GenerateToken(customjwt.Payload{ID: 3, Role: "user"})
	require.NoError(t, err)
	badRole, err := maker.GenerateToken(customjwt.Payload{ID: 3, Role: "root"})
	require.NoError(t, err)

	identity := svc.Authenticate(valid)
	require.NotNil(t, identity)
	assert.Equal(t, models.Identity{ID: 3, Email: "a@example.com", Name: "A", Role: models.RoleAdmin}, *identity)

	for name, token := range map[string]string{
		"empty":     "",
		"garbage":   "not-a-token",
		"expired":   expired,
		"wrong key": foreign,
		"tampered":  valid[:len(valid)-2] + "xx",
		"bad role":  badRole,
	} {
		t.Run(name, func(t *testing.T) {
			assert.Nil(t, svc.Authenticate(token))
		})
	}
}

func ptr[T any](v T) *T {
	return &v
}

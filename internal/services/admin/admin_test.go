package admin_test

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
	"github.com/magabrotheeeer/content-paywall/internal/models"
	"github.com/magabrotheeeer/content-paywall/internal/services/admin"
	"github.com/magabrotheeeer/content-paywall/internal/storage"
)

type AdminRepoMock struct {
	mock.Mock
}

func (m *AdminRepoMock) CreateContent(ctx context.Context, c models.NewContent) (*models.Content, error) {
	args := m.Called(ctx, c)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Content), args.Error(1)
}

func (m *AdminRepoMock) GetContent(ctx context.Context, id int64) (*models.Content, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Content), args.Error(1)
}

func (m *AdminRepoMock) UpdateContent(ctx context.Context, id int64, patch models.ContentPatch) (*models.Content, error) {
	args := m.Called(ctx, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Content), args.Error(1)
}

func (m *AdminRepoMock) DeleteContent(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *AdminRepoMock) ListUsers(ctx context.Context) ([]*models.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.User), args.Error(1)
}

func (m *AdminRepoMock) ListSubscriptions(ctx context.Context) ([]*models.Subscription, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Subscription), args.Error(1)
}

var (
	adminUser = &models.Identity{ID: 1, Role: models.RoleAdmin}
	plainUser = &models.Identity{ID: 2, Role: models.RoleUser}
)

func newService(repo *AdminRepoMock) *admin.AdminService {
	return admin.NewAdminService(repo, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestAdminService_RequiresAdmin(t *testing.T) {
	ctx := context.Background()

	calls := map[string]func(svc *admin.AdminService, identity *models.Identity) error{
		"CreateContent": func(svc *admin.AdminService, identity *models.Identity) error {
			_, err := svc.CreateContent(ctx, identity, models.NewContent{Title: "t", URL: "u"})
			return err
		},
		"UpdateContent": func(svc *admin.AdminService, identity *models.Identity) error {
			_, err := svc.UpdateContent(ctx, identity, 1, models.ContentPatch{})
			return err
		},
		"DeleteContent": func(svc *admin.AdminService, identity *models.Identity) error {
			return svc.DeleteContent(ctx, identity, 1)
		},
		"ListUsers": func(svc *admin.AdminService, identity *models.Identity) error {
			_, err := svc.ListUsers(ctx, identity)
			return err
		},
		"ListSubscriptions": func(svc *admin.AdminService, identity *models.Identity) error {
			_, err := svc.ListSubscriptions(ctx, identity)
			return err
		},
	}

	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			repo := new(AdminRepoMock)
			svc := newService(repo)

			err := call(svc, plainUser)
			assert.Equal(t, apperr.Forbidden, apperr.KindOf(err))

			err = call(svc, nil)
			assert.Equal(t, apperr.Unauthorized, apperr.KindOf(err))

			assert.Empty(t, repo.Calls, "repository must not be touched")
		})
	}
}

func TestAdminService_CreateContent(t *testing.T) {
	repo := new(AdminRepoMock)
	repo.On("CreateContent", mock.Anything, models.NewContent{Title: "Aula 1", URL: "https://cdn/1", Type: models.ContentVideo}).
		Return(&models.Content{ID: 10, Title: "Aula 1", Type: models.ContentVideo}, nil).Once()

	created, err := newService(repo).CreateContent(context.Background(), adminUser,
		models.NewContent{Title: "Aula 1", URL: "https://cdn/1"})
	require.NoError(t, err)
	assert.Equal(t, int64(10), created.ID)
	repo.AssertExpectations(t)
}

func TestAdminService_UpdateContent(t *testing.T) {
	title := "Novo título"
	empty := ""
	spaces := "   "

	tests := []struct {
		name       string
		patch      models.ContentPatch
		setupMocks func(r *AdminRepoMock)
		wantKind   apperr.Kind
	}{
		{
			name:  "partial update",
			patch: models.ContentPatch{Title: &title},
			setupMocks: func(r *AdminRepoMock) {
				r.On("UpdateContent", mock.Anything, int64(5), models.ContentPatch{Title: &title}).
					Return(&models.Content{ID: 5, Title: title}, nil).Once()
			},
		},
		{
			name:  "empty patch returns current row",
			patch: models.ContentPatch{},
			setupMocks: func(r *AdminRepoMock) {
				r.On("GetContent", mock.Anything, int64(5)).Return(&models.Content{ID: 5}, nil).Once()
			},
		},
		{
			name:  "unknown id",
			patch: models.ContentPatch{Title: &title},
			setupMocks: func(r *AdminRepoMock) {
				r.On("UpdateContent", mock.Anything, int64(5), mock.Anything).Return(nil, storage.ErrNotFound).Once()
			},
			wantKind: apperr.NotFound,
		},
		{
			name:       "blank title rejected",
			patch:      models.ContentPatch{Title: &empty},
			setupMocks: func(*AdminRepoMock) {},
			wantKind:   apperr.BadRequest,
		},
		{
			name:       "whitespace url rejected",
			patch:      models.ContentPatch{Title: &title, URL: &spaces},
			setupMocks: func(*AdminRepoMock) {},
			wantKind:   apperr.BadRequest,
		},
		{
			name:  "storage unavailable",
			patch: models.ContentPatch{Title: &title},
			setupMocks: func(r *AdminRepoMock) {
				r.On("UpdateContent", mock.Anything, int64(5), mock.Anything).Return(nil, storage.ErrUnavailable).Once()
			},
			wantKind: apperr.Internal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(AdminRepoMock)
			tt.setupMocks(repo)

			updated, err := newService(repo).UpdateContent(context.Background(), adminUser, 5, tt.patch)
			if tt.wantKind != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantKind, apperr.KindOf(err))
				repo.AssertExpectations(t)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, int64(5), updated.ID)
			repo.AssertExpectations(t)
		})
	}
}

func TestAdminService_DeleteContent(t *testing.T) {
	repo := new(AdminRepoMock)
	repo.On("DeleteContent", mock.Anything, int64(3)).Return(nil).Once()
	repo.On("DeleteContent", mock.Anything, int64(4)).Return(storage.ErrNotFound).Once()
	svc := newService(repo)

	require.NoError(t, svc.DeleteContent(context.Background(), adminUser, 3))

	err := svc.DeleteContent(context.Background(), adminUser, 4)
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
	repo.AssertExpectations(t)
}

func TestAdminService_Lists(t *testing.T) {
	repo := new(AdminRepoMock)
	repo.On("ListUsers", mock.Anything).Return([]*models.User{{ID: 1}, {ID: 2}}, nil).Once()
	repo.On("ListSubscriptions", mock.Anything).Return(nil, errors.New("db error")).Once()
	svc := newService(repo)

	users, err := svc.ListUsers(context.Background(), adminUser)
	require.NoError(t, err)
	assert.Len(t, users, 2)

	_, err = svc.ListSubscriptions(context.Background(), adminUser)
	assert.Equal(t, apperr.Internal, apperr.KindOf(err))
}

func TestAdminService_ListSubscriptions_ExpiredStatus(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)

	repo := new(AdminRepoMock)
	repo.On("ListSubscriptions", mock.Anything).Return([]*models.Subscription{
		{ID: 1, Status: models.StatusActive, ExpiresAt: &past},
		{ID: 2, Status: models.StatusActive, ExpiresAt: &future},
		{ID: 3, Status: models.StatusPending, ExpiresAt: &past},
	}, nil).Once()

	subs, err := newService(repo).ListSubscriptions(context.Background(), adminUser)
	require.NoError(t, err)
	require.Len(t, subs, 3)
	assert.Equal(t, models.StatusExpired, subs[0].Status)
	assert.Equal(t, models.StatusActive, subs[1].Status)
	assert.Equal(t, models.StatusPending, subs[2].Status)
}

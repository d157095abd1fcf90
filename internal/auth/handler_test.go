package auth_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/helmsman-hr/helmsman/internal/access"
	"github.com/helmsman-hr/helmsman/internal/auth"
	"github.com/helmsman-hr/helmsman/internal/shared"
	_ "github.com/helmsman-hr/helmsman/testing"
)

type stubRepo struct {
	user *auth.User
}

func (s *stubRepo) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	if s.user == nil {
		return nil, shared.ErrNotFound
	}
	return s.user, nil
}

func (s *stubRepo) CreateSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	return nil
}

func (s *stubRepo) DeleteSession(ctx context.Context, id string) error {
	return nil
}

type stubRoleStore struct {
	role access.Role
}

func (s *stubRoleStore) Create(ctx context.Context, role access.Role) (access.Role, error) {
	return role, nil
}

func (s *stubRoleStore) Get(ctx context.Context, roleID string) (access.Role, error) {
	if roleID != s.role.RoleID {
		return access.Role{}, access.ErrRoleNotFound
	}
	return s.role, nil
}

func (s *stubRoleStore) List(ctx context.Context) ([]access.Role, error) {
	return []access.Role{s.role}, nil
}

func (s *stubRoleStore) ListByLevel(ctx context.Context, level int) ([]access.Role, error) {
	return nil, nil
}

func (s *stubRoleStore) CountByLevel(ctx context.Context, level int) (int, error) {
	return 0, nil
}

func (s *stubRoleStore) Update(ctx context.Context, role access.Role) (access.Role, error) {
	return role, nil
}

func (s *stubRoleStore) UpdatePermissions(ctx context.Context, roleID string, components, features access.PermissionSet) error {
	return nil
}

func (s *stubRoleStore) Deactivate(ctx context.Context, roleID string) error {
	return nil
}

type stubLevelStore struct{}

func (s *stubLevelStore) Create(ctx context.Context, level access.Level) (access.Level, error) {
	return level, nil
}

func (s *stubLevelStore) Get(ctx context.Context, level int) (access.Level, error) {
	return access.Level{}, access.ErrLevelNotFound
}

func (s *stubLevelStore) List(ctx context.Context) ([]access.Level, error) {
	return nil, nil
}

func (s *stubLevelStore) Update(ctx context.Context, level access.Level) (access.Level, error) {
	return level, nil
}

func (s *stubLevelStore) Deactivate(ctx context.Context, level int) error {
	return nil
}

func newAuthHandler(t *testing.T, repo auth.Repository) (*auth.Handler, *shared.SessionManager) {
	t.Helper()
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sessionManager := shared.NewSessionManager(redisClient, "test_session", "secret", time.Hour, false)
	csrfManager := shared.NewCSRFManager("csrfsecret")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	roleStore := &stubRoleStore{role: access.Role{
		RoleID:         "EMPLOYEE",
		DisplayName:    "Employee",
		HierarchyLevel: 4,
		ComponentPermissions: access.PermissionSet{
			{CapabilityID: "dashboard", DisplayName: "Dashboard", HasAccess: true},
		},
		Active: true,
	}}
	roles := access.NewRoleService(roleStore, &stubLevelStore{}, logger)
	handler := auth.NewHandler(logger, auth.NewService(repo), roles, sessionManager, csrfManager)
	return handler, sessionManager
}

func doLogin(t *testing.T, handler *auth.Handler, sessionManager *shared.SessionManager, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	sess, err := sessionManager.Load(context.Background(), req)
	require.NoError(t, err)
	ctx := shared.ContextWithSession(req.Context(), sess)
	req = req.WithContext(ctx)

	res := httptest.NewRecorder()
	h := chiRouterFor(handler)
	h.ServeHTTP(res, req)
	require.NoError(t, sessionManager.Commit(ctx, res, req, sess))
	return res
}

func chiRouterFor(handler *auth.Handler) http.Handler {
	r := chi.NewRouter()
	r.Route("/auth", handler.MountRoutes)
	return r
}

func TestLoginSuccessReturnsPermissions(t *testing.T) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("correctpass"), bcrypt.DefaultCost)
	require.NoError(t, err)
	handler, sessionManager := newAuthHandler(t, &stubRepo{user: &auth.User{
		ID:           1,
		Email:        "user@test.local",
		FullName:     "Test User",
		PasswordHash: string(hashed),
		RoleID:       "EMPLOYEE",
		IsActive:     true,
	}})

	res := doLogin(t, handler, sessionManager, `{"email":"user@test.local","password":"correctpass"}`)
	require.Equal(t, http.StatusOK, res.Code)

	var payload struct {
		User struct {
			RoleID string `json:"roleId"`
		} `json:"user"`
		CSRFToken   string          `json:"csrfToken"`
		Permissions json.RawMessage `json:"permissions"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &payload))
	require.Equal(t, "EMPLOYEE", payload.User.RoleID)
	require.NotEmpty(t, payload.CSRFToken)
	require.NotEmpty(t, payload.Permissions)
}

func TestLoginInvalidCredentials(t *testing.T) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("correctpass"), bcrypt.DefaultCost)
	require.NoError(t, err)
	handler, sessionManager := newAuthHandler(t, &stubRepo{user: &auth.User{
		ID:           1,
		Email:        "user@test.local",
		PasswordHash: string(hashed),
		RoleID:       "EMPLOYEE",
		IsActive:     true,
	}})

	res := doLogin(t, handler, sessionManager, `{"email":"user@test.local","password":"wrongpass!"}`)
	require.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestLoginInactiveUser(t *testing.T) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("correctpass"), bcrypt.DefaultCost)
	require.NoError(t, err)
	handler, sessionManager := newAuthHandler(t, &stubRepo{user: &auth.User{
		ID:           1,
		Email:        "user@test.local",
		PasswordHash: string(hashed),
		RoleID:       "EMPLOYEE",
		IsActive:     false,
	}})

	res := doLogin(t, handler, sessionManager, `{"email":"user@test.local","password":"correctpass"}`)
	require.Equal(t, http.StatusUnauthorized, res.Code)
}

package users

import (
	"context"
	"strings"

	"github.com/helmsman-hr/helmsman/internal/access"
)

// RepositoryPort defines data access methods for accounts.
type RepositoryPort interface {
	List(ctx context.Context) ([]User, error)
	Get(ctx context.Context, id int64) (User, error)
	AssignRole(ctx context.Context, id int64, roleID string) error
	SetActive(ctx context.Context, id int64, active bool) error
}

// RoleLookup resolves role ids against the access registry.
type RoleLookup interface {
	Get(ctx context.Context, roleID string) (access.Role, error)
}

// Service handles account administration.
type Service struct {
	repo  RepositoryPort
	roles RoleLookup
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, roles RoleLookup) *Service {
	return &Service{repo: repo, roles: roles}
}

// List returns all accounts.
func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

// Get fetches one account.
func (s *Service) Get(ctx context.Context, id int64) (User, error) {
	return s.repo.Get(ctx, id)
}

// AssignRole rebinds the account to an active role. The role id must
// resolve in the access registry; the change takes effect on the
// user's next login, when the role is stamped into the session.
func (s *Service) AssignRole(ctx context.Context, id int64, roleID string) (User, error) {
	roleID = strings.ToUpper(strings.TrimSpace(roleID))
	role, err := s.roles.Get(ctx, roleID)
	if err != nil {
		return User{}, err
	}
	if err := s.repo.AssignRole(ctx, id, role.RoleID); err != nil {
		return User{}, err
	}
	return s.repo.Get(ctx, id)
}

// SetActive toggles the account's active flag. Inactive accounts are
// rejected at login.
func (s *Service) SetActive(ctx context.Context, id int64, active bool) (User, error) {
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		return User{}, err
	}
	return s.repo.Get(ctx, id)
}

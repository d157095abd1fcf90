package employees

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/helmsman-hr/helmsman/internal/platform/httpx"
	"github.com/helmsman-hr/helmsman/internal/shared"
)

// RepositoryPort defines data access methods for employees.
type RepositoryPort interface {
	List(ctx context.Context, limit, offset int) ([]Employee, int, error)
	Get(ctx context.Context, id uuid.UUID) (Employee, error)
	Create(ctx context.Context, emp Employee) (Employee, error)
	Update(ctx context.Context, emp Employee) (Employee, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
}

// Service handles employee business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// List returns a page of employees with pagination metadata.
func (s *Service) List(ctx context.Context, page, perPage int) ([]Employee, shared.Pagination, error) {
	if perPage <= 0 {
		perPage = 20
	}
	if page <= 0 {
		page = 1
	}
	items, total, err := s.repo.List(ctx, perPage, (page-1)*perPage)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return items, shared.NewPagination(page, perPage, total), nil
}

// Get fetches a single employee.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Employee, error) {
	return s.repo.Get(ctx, id)
}

// Create validates and inserts a new employee.
func (s *Service) Create(ctx context.Context, emp Employee) (Employee, error) {
	emp.FullName = strings.TrimSpace(emp.FullName)
	if emp.FullName == "" || emp.Email == "" || emp.EmployeeNo == "" {
		return Employee{}, httpx.ErrValidation
	}
	if emp.ID == uuid.Nil {
		emp.ID = uuid.New()
	}
	if emp.Status == "" {
		emp.Status = StatusActive
	}
	if emp.RoleID == "" {
		emp.RoleID = "EMPLOYEE"
	}
	emp.RoleID = strings.ToUpper(emp.RoleID)
	if emp.JoinDate.IsZero() {
		emp.JoinDate = time.Now().UTC()
	}
	return s.repo.Create(ctx, emp)
}

// Update rewrites mutable employee fields.
func (s *Service) Update(ctx context.Context, emp Employee) (Employee, error) {
	if emp.ID == uuid.Nil {
		return Employee{}, httpx.ErrValidation
	}
	emp.RoleID = strings.ToUpper(emp.RoleID)
	return s.repo.Update(ctx, emp)
}

// Deactivate marks an employee inactive, never deleting the record.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) error {
	return s.repo.Deactivate(ctx, id)
}

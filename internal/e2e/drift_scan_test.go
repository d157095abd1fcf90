package e2e

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/helmsman-hr/helmsman/internal/access"
	jobmetrics "github.com/helmsman-hr/helmsman/internal/jobs"
	"github.com/helmsman-hr/helmsman/jobs"
)

type stubLevelStore struct {
	levels []access.Level
}

func (s *stubLevelStore) Create(_ context.Context, level access.Level) (access.Level, error) {
	s.levels = append(s.levels, level)
	return level, nil
}

func (s *stubLevelStore) Get(_ context.Context, level int) (access.Level, error) {
	for _, l := range s.levels {
		if l.Level == level {
			return l, nil
		}
	}
	return access.Level{}, access.ErrLevelNotFound
}

func (s *stubLevelStore) List(_ context.Context) ([]access.Level, error) {
	return append([]access.Level(nil), s.levels...), nil
}

func (s *stubLevelStore) Update(_ context.Context, level access.Level) (access.Level, error) {
	for i, l := range s.levels {
		if l.Level == level.Level {
			s.levels[i] = level
			return level, nil
		}
	}
	return access.Level{}, access.ErrLevelNotFound
}

func (s *stubLevelStore) Deactivate(context.Context, int) error { return nil }

type stubRoleStore struct {
	roles map[string]access.Role
}

func (s *stubRoleStore) Create(_ context.Context, role access.Role) (access.Role, error) {
	s.roles[role.RoleID] = role
	return role, nil
}

func (s *stubRoleStore) Get(_ context.Context, roleID string) (access.Role, error) {
	role, ok := s.roles[roleID]
	if !ok {
		return access.Role{}, access.ErrRoleNotFound
	}
	return role, nil
}

func (s *stubRoleStore) List(_ context.Context) ([]access.Role, error) {
	out := make([]access.Role, 0, len(s.roles))
	for _, role := range s.roles {
		out = append(out, role)
	}
	return out, nil
}

func (s *stubRoleStore) ListByLevel(_ context.Context, level int) ([]access.Role, error) {
	out := make([]access.Role, 0)
	for _, role := range s.roles {
		if role.HierarchyLevel == level {
			out = append(out, role)
		}
	}
	return out, nil
}

func (s *stubRoleStore) CountByLevel(_ context.Context, level int) (int, error) {
	roles, _ := s.ListByLevel(context.Background(), level)
	return len(roles), nil
}

func (s *stubRoleStore) Update(_ context.Context, role access.Role) (access.Role, error) {
	s.roles[role.RoleID] = role
	return role, nil
}

func (s *stubRoleStore) UpdatePermissions(_ context.Context, roleID string, components, features access.PermissionSet) error {
	role, ok := s.roles[roleID]
	if !ok {
		return access.ErrRoleNotFound
	}
	role.ComponentPermissions = components
	role.FeaturePermissions = features
	s.roles[roleID] = role
	return nil
}

func (s *stubRoleStore) Deactivate(_ context.Context, roleID string) error {
	delete(s.roles, roleID)
	return nil
}

func TestDriftScanDetectsAndRepairs(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	defaults := access.PermissionSet{
		{CapabilityID: "admin", DisplayName: "Admin Panel", HasAccess: false},
		{CapabilityID: "dashboard", DisplayName: "Dashboard", HasAccess: true},
	}
	levels := &stubLevelStore{levels: []access.Level{{
		Level:                4,
		Name:                 "Staff",
		Active:               true,
		CascadeEnabled:       true,
		ComponentPermissions: defaults,
	}}}
	roles := &stubRoleStore{roles: map[string]access.Role{
		"CLEAN": {
			RoleID:               "CLEAN",
			HierarchyLevel:       4,
			ComponentPermissions: access.Merge(defaults, nil),
		},
		// Written outside the cascade path: missing the admin denial.
		"DRIFTED": {
			RoleID:         "DRIFTED",
			HierarchyLevel: 4,
			ComponentPermissions: access.PermissionSet{
				{CapabilityID: "dashboard", DisplayName: "Dashboard", HasAccess: true, InheritedFromLevel: true},
			},
		},
	}}

	reg := prometheus.NewRegistry()
	metrics := jobmetrics.NewMetrics(reg)
	cascader := access.NewCascader(roles, logger, nil)
	job := jobs.NewDriftScanJob(levels, roles, cascader, logger, metrics)

	task, err := jobs.NewDriftScanTask(jobs.DriftScanPayload{Repair: true})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	if err := job.Handle(context.Background(), task); err != nil {
		t.Fatalf("job handle: %v", err)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if !assertCounter(t, families, "helmsman_jobs_total", map[string]string{"job": jobs.TaskAccessDriftScan, "status": "success"}, 1) {
		t.Fatalf("expected helmsman_jobs_total increment for drift scan")
	}
	if !assertCounter(t, families, "helmsman_access_drift_total", map[string]string{"level": "4"}, 1) {
		t.Fatalf("expected one drifted role at level 4")
	}
	if !metricExists(families, "helmsman_job_duration_seconds") {
		t.Fatalf("expected helmsman_job_duration_seconds to be recorded")
	}

	// Repair resynced the drifted role against the level defaults.
	repaired, err := roles.Get(context.Background(), "DRIFTED")
	if err != nil {
		t.Fatalf("get repaired role: %v", err)
	}
	admin, ok := repaired.ComponentPermissions.Get("admin")
	if !ok {
		t.Fatal("expected repaired role to carry the admin denial")
	}
	if admin.HasAccess || !admin.InheritedFromLevel {
		t.Fatalf("unexpected repaired entry: %+v", admin)
	}

	// A second scan over the repaired data finds nothing new.
	if err := job.Handle(context.Background(), task); err != nil {
		t.Fatalf("second job handle: %v", err)
	}
	families, err = reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if !assertCounter(t, families, "helmsman_access_drift_total", map[string]string{"level": "4"}, 1) {
		t.Fatalf("expected drift counter unchanged after repair")
	}
}

func assertCounter(t *testing.T, families []*dto.MetricFamily, name string, labels map[string]string, expected float64) bool {
	t.Helper()
	for _, fam := range families {
		if fam.GetName() != name {
			continue
		}
		for _, metric := range fam.GetMetric() {
			if matchLabels(metric.GetLabel(), labels) {
				if metric.GetCounter() == nil {
					return false
				}
				if metric.GetCounter().GetValue() == expected {
					return true
				}
			}
		}
	}
	return false
}

func metricExists(families []*dto.MetricFamily, name string) bool {
	for _, fam := range families {
		if fam.GetName() == name {
			return true
		}
	}
	return false
}

func matchLabels(pairs []*dto.LabelPair, expected map[string]string) bool {
	if len(expected) == 0 {
		return true
	}
	seen := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		seen[pair.GetName()] = pair.GetValue()
	}
	for k, v := range expected {
		if seen[k] != v {
			return false
		}
	}
	return true
}

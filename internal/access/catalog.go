package access

// Capability is one addressable unit of access control declared by the
// surrounding application. The catalog is read-only input to this
// package; levels and roles reference capabilities by id.
type Capability struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Component capability ids.
const (
	CompDashboard            = "dashboard"
	CompEmployees            = "employees"
	CompAttendance           = "attendance"
	CompLeave                = "leave"
	CompSalary               = "salary"
	CompPeerRating           = "peer-rating"
	CompVariableRemuneration = "variable-remuneration"
	CompRemuneration         = "remuneration"
	CompCalendar             = "calendar"
	CompEFiling              = "efiling"
	CompSettings             = "settings"
	CompProfile              = "profile"
	CompAdmin                = "admin"
)

// Feature capability ids.
const (
	FeatEmployeeCreate        = "employee.create"
	FeatEmployeeEdit          = "employee.edit"
	FeatEmployeeDelete        = "employee.delete"
	FeatEmployeeViewAll       = "employee.viewAll"
	FeatSalaryViewAll         = "salary.viewAll"
	FeatSalaryViewOwn         = "salary.viewOwn"
	FeatSalaryEdit            = "salary.edit"
	FeatLeaveApprove          = "leave.approve"
	FeatLeaveApply            = "leave.apply"
	FeatAttendanceMark        = "attendance.mark"
	FeatAttendanceViewReports = "attendance.viewReports"
	FeatRemunerationView      = "remuneration.view"
	FeatRolesManage           = "roles.manage"
	FeatLevelsManage          = "levels.manage"
)

var componentCatalog = []Capability{
	{ID: CompDashboard, Name: "Dashboard"},
	{ID: CompEmployees, Name: "Employee Management"},
	{ID: CompAttendance, Name: "Attendance"},
	{ID: CompLeave, Name: "Leave Management"},
	{ID: CompSalary, Name: "Salary"},
	{ID: CompPeerRating, Name: "Peer Rating"},
	{ID: CompVariableRemuneration, Name: "Variable Remuneration"},
	{ID: CompRemuneration, Name: "Remuneration"},
	{ID: CompCalendar, Name: "Calendar"},
	{ID: CompEFiling, Name: "E-Filing"},
	{ID: CompSettings, Name: "Settings"},
	{ID: CompProfile, Name: "Profile"},
	{ID: CompAdmin, Name: "Admin Panel"},
}

var featureCatalog = []Capability{
	{ID: FeatEmployeeCreate, Name: "Create Employee"},
	{ID: FeatEmployeeEdit, Name: "Edit Employee"},
	{ID: FeatEmployeeDelete, Name: "Delete Employee"},
	{ID: FeatEmployeeViewAll, Name: "View All Employees"},
	{ID: FeatSalaryViewAll, Name: "View All Salaries"},
	{ID: FeatSalaryViewOwn, Name: "View Own Salary"},
	{ID: FeatSalaryEdit, Name: "Edit Salary"},
	{ID: FeatLeaveApprove, Name: "Approve Leave"},
	{ID: FeatLeaveApply, Name: "Apply Leave"},
	{ID: FeatAttendanceMark, Name: "Mark Attendance"},
	{ID: FeatAttendanceViewReports, Name: "View Attendance Reports"},
	{ID: FeatRemunerationView, Name: "View Remuneration"},
	{ID: FeatRolesManage, Name: "Manage Roles & Permissions"},
	{ID: FeatLevelsManage, Name: "Manage Access Levels"},
}

// Components lists the component capability catalog.
func Components() []Capability {
	out := make([]Capability, len(componentCatalog))
	copy(out, componentCatalog)
	return out
}

// Features lists the feature capability catalog.
func Features() []Capability {
	out := make([]Capability, len(featureCatalog))
	copy(out, featureCatalog)
	return out
}

// CapabilityName resolves a display name from either namespace; the
// id itself is returned when the catalog does not know it.
func CapabilityName(kind PermissionKind, id string) string {
	catalog := componentCatalog
	if kind == KindFeature {
		catalog = featureCatalog
	}
	for _, c := range catalog {
		if c.ID == id {
			return c.Name
		}
	}
	return id
}

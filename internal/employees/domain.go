package employees

import (
	"time"

	"github.com/google/uuid"
)

// Employee statuses.
const (
	StatusActive   = "ACTIVE"
	StatusInactive = "INACTIVE"
)

// Employee represents a staff record.
type Employee struct {
	ID          uuid.UUID `json:"id"`
	EmployeeNo  string    `json:"employeeNo"`
	FullName    string    `json:"fullName"`
	Email       string    `json:"email"`
	Department  string    `json:"department"`
	Designation string    `json:"designation"`
	RoleID      string    `json:"roleId"`
	JoinDate    time.Time `json:"joinDate"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

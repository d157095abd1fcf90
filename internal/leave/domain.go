package leave

import (
	"time"

	"github.com/google/uuid"
)

// Request statuses.
const (
	StatusPending  = "PENDING"
	StatusApproved = "APPROVED"
	StatusRejected = "REJECTED"
)

// Leave types.
const (
	TypeCasual = "CASUAL"
	TypeSick   = "SICK"
	TypeEarned = "EARNED"
	TypeUnpaid = "UNPAID"
)

// Request is one leave application.
type Request struct {
	ID         uuid.UUID  `json:"id"`
	EmployeeID uuid.UUID  `json:"employeeId"`
	Type       string     `json:"type"`
	FromDate   time.Time  `json:"fromDate"`
	ToDate     time.Time  `json:"toDate"`
	Reason     string     `json:"reason"`
	Status     string     `json:"status"`
	DecidedBy  *int64     `json:"decidedBy,omitempty"`
	DecidedAt  *time.Time `json:"decidedAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// Days returns the inclusive calendar length of the request.
func (r Request) Days() int {
	return int(r.ToDate.Sub(r.FromDate).Hours()/24) + 1
}

package attendance

import (
	"time"

	"github.com/google/uuid"
)

// Record statuses.
const (
	StatusPresent  = "PRESENT"
	StatusHalfDay  = "HALF_DAY"
	StatusAbsent   = "ABSENT"
	StatusOnLeave  = "ON_LEAVE"
)

// Record is one employee's attendance for one day. CheckOut stays nil
// until the employee checks out.
type Record struct {
	ID         uuid.UUID  `json:"id"`
	EmployeeID uuid.UUID  `json:"employeeId"`
	Day        time.Time  `json:"day"`
	CheckIn    time.Time  `json:"checkIn"`
	CheckOut   *time.Time `json:"checkOut,omitempty"`
	Status     string     `json:"status"`
}

// DaySummary aggregates one day across all employees.
type DaySummary struct {
	Day     time.Time `json:"day"`
	Present int       `json:"present"`
	HalfDay int       `json:"halfDay"`
	OnLeave int       `json:"onLeave"`
}

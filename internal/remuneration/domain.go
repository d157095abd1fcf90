package remuneration

import (
	"time"

	"github.com/google/uuid"
)

// SalaryRecord holds one employee's compensation terms from a given
// date. Amounts are stored in minor units.
type SalaryRecord struct {
	ID            uuid.UUID `json:"id"`
	EmployeeID    uuid.UUID `json:"employeeId"`
	BasicPay      int64     `json:"basicPay"`
	HouseRent     int64     `json:"houseRent"`
	Allowances    int64     `json:"allowances"`
	VariablePct   int       `json:"variablePct"`
	EffectiveFrom time.Time `json:"effectiveFrom"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Gross returns the fixed monthly gross.
func (s SalaryRecord) Gross() int64 {
	return s.BasicPay + s.HouseRent + s.Allowances
}

// PayrollPeriod is one month's payroll window. Status transitions are
// validated centrally; a locked period only reopens with an override.
type PayrollPeriod struct {
	ID     int64  `json:"id"`
	Year   int    `json:"year"`
	Month  int    `json:"month"`
	Status string `json:"status"`
}

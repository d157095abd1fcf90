package shared

import "fmt"

// PayrollLockKey builds redis keys for payroll critical sections.
func PayrollLockKey(periodID int64) string {
	return fmt.Sprintf("payroll:period:%d:lock", periodID)
}

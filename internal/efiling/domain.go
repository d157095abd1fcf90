package efiling

import (
	"time"

	"github.com/google/uuid"
)

// Document is a filed record attached to an employee. Only metadata
// lives here; the blob sits in external storage under StoragePath.
type Document struct {
	ID          uuid.UUID `json:"id"`
	EmployeeID  uuid.UUID `json:"employeeId"`
	Title       string    `json:"title"`
	Category    string    `json:"category"`
	StoragePath string    `json:"storagePath"`
	UploadedBy  int64     `json:"uploadedBy"`
	CreatedAt   time.Time `json:"createdAt"`
}

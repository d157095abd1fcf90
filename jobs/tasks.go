package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskAccessDriftScan re-checks stored role permissions against
	// their level defaults.
	TaskAccessDriftScan = "access:drift_scan"
	// TaskAttendanceDigest aggregates the previous day's attendance.
	TaskAttendanceDigest = "attendance:digest"
)

// DriftScanPayload tunes the drift scan run.
type DriftScanPayload struct {
	// Repair re-runs the cascade for levels where drift was found.
	Repair bool `json:"repair"`
}

// NewDriftScanTask constructs an Asynq task.
func NewDriftScanTask(payload DriftScanPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAccessDriftScan, data), nil
}

// AttendanceDigestPayload selects the day to aggregate; zero values
// mean yesterday.
type AttendanceDigestPayload struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
}

// NewAttendanceDigestTask constructs an Asynq task.
func NewAttendanceDigestTask(payload AttendanceDigestPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAttendanceDigest, data), nil
}

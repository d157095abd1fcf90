package rating

import (
	"time"

	"github.com/google/uuid"
)

// Rating is one peer score for one month. A rater scores a colleague
// at most once per month.
type Rating struct {
	ID        uuid.UUID `json:"id"`
	RaterID   uuid.UUID `json:"raterId"`
	RateeID   uuid.UUID `json:"rateeId"`
	Score     int       `json:"score"`
	Comment   string    `json:"comment,omitempty"`
	Year      int       `json:"year"`
	Month     int       `json:"month"`
	CreatedAt time.Time `json:"createdAt"`
}

// Summary is an employee's aggregate for one month.
type Summary struct {
	RateeID uuid.UUID `json:"rateeId"`
	Year    int       `json:"year"`
	Month   int       `json:"month"`
	Average float64   `json:"average"`
	Count   int       `json:"count"`
}

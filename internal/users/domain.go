package users

import "time"

// User is a managed account. RoleID binds the account to a role in the
// access registry and drives every permission decision for the user.
type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"fullName"`
	RoleID    string    `json:"roleId"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

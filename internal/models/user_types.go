package models

import "time"

// User roles recognised by the order core. Account management lives in the
// authentication service; this API only reads the row for ownership and
// role checks.
const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// User is the model for the 'users' table.
type User struct {
	ID        int64     `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	Name      string    `json:"name" db:"name"`
	Role      string    `json:"role" db:"role"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

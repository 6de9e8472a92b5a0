package model

import "time"

// User represents a row of the `users` table as shown on the user
// details page.  Phone is nullable in the schema and comes back empty
// when unset.
//
// Fields:
//	ID        – primary key identifier of the user.
//	Name      – full name.
//	Email     – unique email address.
//	Role      – role name (e.g. ADMIN, STAFF, GUEST).
//	Phone     – contact number, may be empty.
//	Status    – account status (active, pending, suspended).
//	CreatedAt – timestamp of creation.
type User struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Phone     string    `json:"phone,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

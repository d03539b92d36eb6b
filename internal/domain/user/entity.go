package user

import (
	"time"

	"github.com/google/uuid"
)

// User represents a user account. Buyer and seller are the same identity
// in different transactions; there is no role column.
type User struct {
	ID            uuid.UUID `db:"id"`
	Username      string    `db:"username"`
	Email         string    `db:"email"`
	PasswordHash  string    `db:"password_hash"`
	CreditBalance int       `db:"credit_balance"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

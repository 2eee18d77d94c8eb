package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Role grants access to the admin back-office.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User is a registered resident or administrator.
type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// UserRepository persists users.
type UserRepository interface {
	CreateUser(ctx context.Context, u *User) error
	GetUser(ctx context.Context, id uuid.UUID) (User, error)
	ListUsers(ctx context.Context, search string, page PageRequest) ([]User, int, error)
	UpdateUserRole(ctx context.Context, id uuid.UUID, role Role) (User, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

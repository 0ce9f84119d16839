package auth

import "context"

// UserStore describes persistence operations required by the auth subsystem.
type UserStore interface {
	Create(ctx context.Context, u *User) error
	GetAll(ctx context.Context) ([]User, error)
	GetByID(ctx context.Context, id int64) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	Update(ctx context.Context, id int64, upd UserUpdate) (User, error)
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int64, error)
}

// UserUpdate is a partial update; nil fields are left untouched. Permissions
// replaces the whole list when non-nil.
type UserUpdate struct {
	Email        *string
	PasswordHash *string
	IsActive     *bool
	Role         *string
	Permissions  []string
}

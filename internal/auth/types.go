package auth

import "time"

// User is an operator account. Permissions is a flat list of catalog strings;
// insertion order carries no meaning.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	IsActive     bool      `json:"is_active"`
	Role         string    `json:"role"`
	Permissions  []string  `json:"permissions"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Identity is the authenticated caller as embedded in a verified token. The
// permission list is the snapshot taken at issuance, not live store state.
type Identity struct {
	Email       string
	Role        string
	Permissions []string
}

// Allows reports whether the identity may perform the required permission.
// Admins pass every check regardless of their stored list; everyone else
// needs literal membership.
func (i Identity) Allows(required Permission) bool {
	if i.Role == RoleAdmin {
		return true
	}
	want := required.String()
	for _, p := range i.Permissions {
		if p == want {
			return true
		}
	}
	return false
}

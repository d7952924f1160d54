package model

import "strings"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Field limits. MaxUsernameLength matches the accounts.username column,
// MaxPasswordBytes is the most bcrypt accepts.
const (
	MaxUsernameLength = 80
	MaxPasswordBytes  = 72
)

// Account represents a stored user account
type Account struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"` // Never leaves the server
	Role         string `json:"role"`
}

// PublicAccount is the projection of an Account that is safe to return to clients
type PublicAccount struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Public returns the client-facing projection of the account
func (a *Account) Public() PublicAccount {
	return PublicAccount{ID: a.ID, Username: a.Username, Role: a.Role}
}

// NormalizeRole lowercases a requested role and applies the default.
// The second return value is false when the role is not recognised.
func NormalizeRole(role string) (string, bool) {
	role = strings.ToLower(strings.TrimSpace(role))
	switch role {
	case "":
		return RoleUser, true
	case RoleUser, RoleAdmin:
		return role, true
	default:
		return role, false
	}
}

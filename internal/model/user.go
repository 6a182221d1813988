package model

import "time"

// Role names stored in users.role and carried in the access token's
// "role" claim.
const (
	RoleAdmin  = "Admin"
	RoleClient = "Client"
)

// User represents an application user record as stored in the `users`
// table.  PasswordHash never leaves the server: it is excluded from JSON.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Username     – unique login name, compared case-insensitively.
//  Email        – optional contact address.
//  PasswordHash – bcrypt hashed password.
//  Role         – Admin or Client.
//  CreatedAt    – timestamp of creation.
type User struct {
	ID           uint64    `json:"id"`         // users.id
	Username     string    `json:"username"`   // users.username
	Email        *string   `json:"email"`      // users.email (nullable)
	PasswordHash string    `json:"-"`          // users.password_hash
	Role         string    `json:"role"`       // users.role
	CreatedAt    time.Time `json:"created_at"` // users.created_at
}

// RefreshToken models an entry in the `refresh_tokens` table.  The plain
// token is not stored; only its SHA-256 hash.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}

// Usable reports whether the token is neither revoked nor expired at now.
func (t RefreshToken) Usable(now time.Time) bool {
	return t.RevokedAt == nil && now.UTC().Before(t.ExpiresAt)
}

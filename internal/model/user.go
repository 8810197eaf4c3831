package model

import "time"

// UserID uniquely identifies a user across the system
type UserID string

// User is a registered account or an anonymous guest
type User struct {
	ID           UserID    `json:"id" db:"id"`
	Email        *string   `json:"email,omitempty" db:"email"`
	PasswordHash *string   `json:"password_hash,omitempty" db:"password_hash"`
	Username     string    `json:"username" db:"username"`
	Guest        bool      `json:"guest" db:"guest"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Validate checks the guest/credential invariant: registered users carry
// both email and password hash, guests carry neither
func (u *User) Validate() error {
	hasEmail := u.Email != nil && *u.Email != ""
	hasHash := u.PasswordHash != nil && *u.PasswordHash != ""
	if u.Guest && (hasEmail || hasHash) {
		return NewValidationError("guest", "guest users cannot have credentials")
	}
	if !u.Guest && !(hasEmail && hasHash) {
		return NewValidationError("guest", "registered users require email and password")
	}
	if u.Username == "" {
		return NewValidationError("username", "is required")
	}
	return nil
}

// Identity is the verified session context of a request
type Identity struct {
	UserID UserID
	Guest  bool
}

// IsZero reports whether no identity is present
func (i Identity) IsZero() bool {
	return i.UserID == ""
}

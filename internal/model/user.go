package model

import "time"

// User is an account holder. All categories and transactions are owned
// exclusively by a single user.
type User struct {
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name,omitempty"`
	PasswordHash string    `json:"-"`
}

// Session maps an opaque token to a user for cookie-based authentication.
type Session struct {
	ExpiresAt time.Time
	CreatedAt time.Time
	Token     string
	UserID    string
}

// Expired reports whether the session is past its expiry.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

package domain

import "time"

// User represents a registered voter. The vote ledger, not the user record,
// is the source of truth for what the user has voted on.
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	IsAdmin      bool      `json:"isAdmin"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Session is the record stored against a bearer token. A user may hold
// several concurrent sessions.
type Session struct {
	UserID  int64  `json:"userId"`
	Name    string `json:"name"`
	IsAdmin bool   `json:"isAdmin"`
}

// SignupRequest is the body of POST /auth/signup.
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by signup and login.
type AuthResponse struct {
	Message      string `json:"message"`
	SessionToken string `json:"sessionToken"`
	IsAdmin      bool   `json:"isAdmin"`
	Name         string `json:"name,omitempty"`
}

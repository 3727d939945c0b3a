package identity

import "time"

// User is an account that owns a lesson collection.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// Principal is the authenticated account resolved from a session token.
type Principal struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

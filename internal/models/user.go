package models

import "time"

// UserAccount represents a registered user.
// Auth and identity only: created at sign-up, read at sign-in.
type UserAccount struct {
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
	ModifiedAt   time.Time `json:"modified_at"`
}

package models

import "time"

type User struct {
	ID           string    `json:"id" bson:"_id,omitempty"`
	PublicID     string    `json:"public_id" bson:"public_id"`
	Email        string    `json:"email" bson:"email"`
	PasswordHash string    `json:"-" bson:"password_hash"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
}

// SessionUser is the part of a User exposed to clients after login.
type SessionUser struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

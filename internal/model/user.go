// Package model defines the data structures used throughout the application.
package model

import "time"

// User is the identity record an Identity Reference points at.
//
// Users are created by the external sign-up collaborator (or cmd/seed in
// development). The core only reads them, to snapshot a display name and
// avatar onto posts and comments, and deletes them as the second step of
// an owner deletion.
type User struct {
	ID        string    `json:"id"        db:"id"`
	Name      string    `json:"name"      db:"name"`
	Email     string    `json:"email"     db:"email"`
	AvatarURL string    `json:"avatar"    db:"avatar_url"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

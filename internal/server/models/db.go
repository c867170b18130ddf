// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is a registered account. PasswordHash is an opaque bcrypt digest.
type User struct {
	ID           string
	UserName     string
	PasswordHash string
	CreatedAt    time.Time
}

// Joke is a content record. OwnerID is empty for legacy rows created before
// ownership was recorded; such jokes cannot be mutated by anyone.
type Joke struct {
	ID        string
	Name      string
	Content   string
	OwnerID   string
	CreatedAt time.Time
}

// HasOwner reports whether the joke was created by a known user.
func (j *Joke) HasOwner() bool {
	return j.OwnerID != ""
}

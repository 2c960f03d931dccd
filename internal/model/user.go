// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered account.
//
// Accounts come from two places: the password registration form (Login +
// PasswordHash set, GitHubID zero) and GitHub OAuth (GitHubID set,
// PasswordHash empty). Either way the internal xid string is the primary key,
// so the rest of the app never cares which door the user came in through.
//
// PasswordHash is a bcrypt hash and is never serialized to JSON.
type User struct {
	ID           string    `json:"id"        db:"id"`
	Login        string    `json:"login"     db:"login"`
	Email        string    `json:"email"     db:"email"`
	PasswordHash string    `json:"-"         db:"password_hash"`
	GitHubID     int64     `json:"githubId"  db:"github_id"`
	AvatarURL    string    `json:"avatarUrl" db:"avatar_url"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

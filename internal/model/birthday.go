// Package model defines the data structures used throughout the application.
package model

import "time"

// Birthday is a tracked birthday record.
//
// AuthorID is set exactly once, at creation, to the acting user and is never
// changed afterwards. Every ownership check compares against it.
//
// Author and Tags are filled by the repository's eager-loading queries; they
// are never written back to the database through this struct.
type Birthday struct {
	ID          string    `json:"id"          db:"id"`
	FirstName   string    `json:"firstName"   db:"first_name"`
	LastName    string    `json:"lastName"    db:"last_name"`
	BirthDate   time.Time `json:"birthDate"   db:"birth_date"`
	Description string    `json:"description" db:"description"`
	AuthorID    string    `json:"authorId"    db:"author_id"`
	CreatedAt   time.Time `json:"createdAt"   db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt"   db:"updated_at"`

	Author *User `json:"author,omitempty"`
	Tags   []Tag `json:"tags,omitempty"`
}

// FullName joins first and last name for display. LastName may be empty.
func (b *Birthday) FullName() string {
	if b.LastName == "" {
		return b.FirstName
	}
	return b.FirstName + " " + b.LastName
}

// Congratulation is a comment attached to a Birthday.
//
// AuthorID and BirthdayID are set exactly once, at creation, from the acting
// user and the target record. Congratulations are never updated or deleted;
// CreatedAt gives them a stable display order.
type Congratulation struct {
	ID         string    `json:"id"         db:"id"`
	Text       string    `json:"text"       db:"text"`
	AuthorID   string    `json:"authorId"   db:"author_id"`
	BirthdayID string    `json:"birthdayId" db:"birthday_id"`
	CreatedAt  time.Time `json:"createdAt"  db:"created_at"`

	Author *User `json:"author,omitempty"`
}

// Tag is a label that can be attached to any number of birthdays.
type Tag struct {
	ID    string `json:"id"    db:"id"`
	Label string `json:"label" db:"label"`
}

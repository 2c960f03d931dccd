// Package repository declares the persistence interfaces the service layer
// depends on. The sqlite subpackage provides the production implementation;
// tests substitute in-memory mocks.
package repository

import (
	"context"

	"github.com/acme/birthdays/internal/model"
)

// ListOptions controls pagination for list queries.
type ListOptions struct {
	Limit  int
	Offset int
}

// BirthdayRepository persists Birthday records.
//
// GetBirthdayByID and ListBirthdays return records with Author and Tags
// already attached, fetched in a bounded number of queries rather than one
// per row. ListBirthdays orders by id ascending; xid identifiers sort by
// creation time, so this is also creation order.
type BirthdayRepository interface {
	CreateBirthday(ctx context.Context, b *model.Birthday, tagIDs []string) error
	GetBirthdayByID(ctx context.Context, id string) (*model.Birthday, error)
	ListBirthdays(ctx context.Context, opts ListOptions) ([]model.Birthday, error)
	CountBirthdays(ctx context.Context) (int, error)
	UpdateBirthday(ctx context.Context, b *model.Birthday, tagIDs []string) error
	DeleteBirthday(ctx context.Context, id string) error
}

// CongratulationRepository persists comments attached to birthdays.
// ListCongratulations returns them in creation order with authors attached.
type CongratulationRepository interface {
	CreateCongratulation(ctx context.Context, c *model.Congratulation) error
	ListCongratulations(ctx context.Context, birthdayID string) ([]model.Congratulation, error)
}

// TagRepository reads the tag catalog shown on the birthday form.
type TagRepository interface {
	ListTags(ctx context.Context) ([]model.Tag, error)
}

// UserRepository persists accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, u *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByLogin(ctx context.Context, login string) (*model.User, error)
	UpsertGitHubUser(ctx context.Context, u *model.User) error
}

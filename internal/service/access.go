package service

import (
	"github.com/acme/birthdays/internal/apperror"
	"github.com/acme/birthdays/internal/model"
)

// authorizeOwner is the single ownership gate for mutating operations on a
// birthday. It runs at the start of every update and delete, before any
// form rendering or state change.
//
// The caller resolves the record first, so "does not exist" surfaces as
// NotFound from the repository rather than from here; this function only
// distinguishes anonymous (Unauthenticated) from wrong-user (Forbidden).
func authorizeOwner(actorID string, b *model.Birthday) error {
	if actorID == "" {
		return apperror.Unauthenticated("login required")
	}
	if b.AuthorID != actorID {
		return apperror.Forbidden("only the author may modify this birthday")
	}
	return nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/acme/birthdays/internal/apperror"
	"github.com/acme/birthdays/internal/countdown"
	"github.com/acme/birthdays/internal/model"
	"github.com/acme/birthdays/internal/repository"
)

// PageSize is the number of birthdays per list page.
const PageSize = 10

// BirthdayInput carries the submitted form fields for create and update.
// The author is never part of the input; it comes from the acting identity
// on create and is immutable afterwards.
type BirthdayInput struct {
	FirstName   string    `validate:"required,max=100"`
	LastName    string    `validate:"max=100"`
	BirthDate   time.Time `validate:"required"`
	Description string    `validate:"max=2000"`
	TagIDs      []string
}

// BirthdayPage is one page of the list view.
type BirthdayPage struct {
	Birthdays  []model.Birthday
	Page       int
	TotalPages int
}

// HasPrev reports whether an earlier page exists.
func (p *BirthdayPage) HasPrev() bool { return p.Page > 1 }

// HasNext reports whether a later page exists.
func (p *BirthdayPage) HasNext() bool { return p.Page < p.TotalPages }

// PrevPage returns the previous page number.
func (p *BirthdayPage) PrevPage() int { return p.Page - 1 }

// NextPage returns the next page number.
func (p *BirthdayPage) NextPage() int { return p.Page + 1 }

// BirthdayDetail is everything the detail page shows: the record, the days
// until the next occurrence, and the comment thread in creation order.
type BirthdayDetail struct {
	Birthday        *model.Birthday
	Countdown       int
	Congratulations []model.Congratulation
}

// BirthdayService handles business logic for birthday records.
type BirthdayService struct {
	repo     repository.BirthdayRepository
	congrats repository.CongratulationRepository
	tags     repository.TagRepository
	validate *validator.Validate
	logger   *slog.Logger
}

// NewBirthdayService creates a BirthdayService.
func NewBirthdayService(
	repo repository.BirthdayRepository,
	congrats repository.CongratulationRepository,
	tags repository.TagRepository,
	logger *slog.Logger,
) *BirthdayService {
	return &BirthdayService{
		repo:     repo,
		congrats: congrats,
		tags:     tags,
		validate: validator.New(),
		logger:   logger,
	}
}

// List returns one page of birthdays, eager-loaded with tags and authors,
// ordered by id ascending. Page numbers start at 1; out-of-range values are
// clamped.
func (s *BirthdayService) List(ctx context.Context, page int) (*BirthdayPage, error) {
	if page < 1 {
		page = 1
	}

	count, err := s.repo.CountBirthdays(ctx)
	if err != nil {
		s.logger.Error("failed to count birthdays", slog.String("error", err.Error()))
		return nil, fmt.Errorf("counting birthdays: %w", err)
	}

	totalPages := (count + PageSize - 1) / PageSize
	if totalPages < 1 {
		totalPages = 1
	}
	if page > totalPages {
		page = totalPages
	}

	birthdays, err := s.repo.ListBirthdays(ctx, repository.ListOptions{
		Limit:  PageSize,
		Offset: (page - 1) * PageSize,
	})
	if err != nil {
		s.logger.Error("failed to list birthdays", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing birthdays: %w", err)
	}

	return &BirthdayPage{
		Birthdays:  birthdays,
		Page:       page,
		TotalPages: totalPages,
	}, nil
}

// Get resolves a birthday by id for the edit and delete forms.
func (s *BirthdayService) Get(ctx context.Context, id string) (*model.Birthday, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.NotFound("birthday", id)
	}
	return s.repo.GetBirthdayByID(ctx, id)
}

// GetOwned resolves a birthday and runs the ownership guard. The edit and
// delete form pages use it so a non-author gets 403 before any form renders.
func (s *BirthdayService) GetOwned(ctx context.Context, actorID, id string) (*model.Birthday, error) {
	b, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeOwner(actorID, b); err != nil {
		return nil, err
	}
	return b, nil
}

// Detail assembles the detail page: the record with relations, the countdown
// to the next occurrence, and the comment thread.
func (s *BirthdayService) Detail(ctx context.Context, id string) (*BirthdayDetail, error) {
	b, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	congrats, err := s.congrats.ListCongratulations(ctx, b.ID)
	if err != nil {
		s.logger.Error("failed to list congratulations",
			slog.String("birthdayID", b.ID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("listing congratulations: %w", err)
	}

	return &BirthdayDetail{
		Birthday:        b,
		Countdown:       countdown.Days(b.BirthDate, time.Now()),
		Congratulations: congrats,
	}, nil
}

// Create validates and saves a new birthday owned by the acting user.
func (s *BirthdayService) Create(ctx context.Context, actorID string, in BirthdayInput) (*model.Birthday, error) {
	if actorID == "" {
		return nil, apperror.Unauthenticated("login required")
	}
	if err := s.validateInput(&in); err != nil {
		return nil, err
	}

	b := &model.Birthday{
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		BirthDate:   in.BirthDate,
		Description: in.Description,
		AuthorID:    actorID,
	}
	if err := s.repo.CreateBirthday(ctx, b, in.TagIDs); err != nil {
		s.logger.Error("failed to create birthday",
			slog.String("actorID", actorID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating birthday: %w", err)
	}

	s.logger.Info("birthday created",
		slog.String("id", b.ID),
		slog.String("authorID", actorID),
	)
	return b, nil
}

// Update validates and applies changes to an existing birthday. The target
// is resolved first (NotFound wins over Forbidden for missing ids), then the
// ownership guard runs before anything is written. The stored author is
// never touched.
func (s *BirthdayService) Update(ctx context.Context, actorID, id string, in BirthdayInput) (*model.Birthday, error) {
	b, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeOwner(actorID, b); err != nil {
		return nil, err
	}
	if err := s.validateInput(&in); err != nil {
		return nil, err
	}

	b.FirstName = in.FirstName
	b.LastName = in.LastName
	b.BirthDate = in.BirthDate
	b.Description = in.Description

	if err := s.repo.UpdateBirthday(ctx, b, in.TagIDs); err != nil {
		s.logger.Error("failed to update birthday",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating birthday: %w", err)
	}

	s.logger.Info("birthday updated", slog.String("id", b.ID))
	return b, nil
}

// Delete removes a birthday after the ownership guard passes. Attached
// congratulations go with it.
func (s *BirthdayService) Delete(ctx context.Context, actorID, id string) error {
	b, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := authorizeOwner(actorID, b); err != nil {
		return err
	}

	if err := s.repo.DeleteBirthday(ctx, b.ID); err != nil {
		return err
	}

	s.logger.Info("birthday deleted", slog.String("id", id), slog.String("actorID", actorID))
	return nil
}

// Tags returns the tag catalog for the birthday form.
func (s *BirthdayService) Tags(ctx context.Context) ([]model.Tag, error) {
	return s.tags.ListTags(ctx)
}

// validateInput normalizes and checks the submitted fields, translating the
// first violation into a field-tagged validation error the form can display.
func (s *BirthdayService) validateInput(in *BirthdayInput) error {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Description = strings.TrimSpace(in.Description)

	if err := s.validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return inputFieldError(verrs[0])
		}
		return apperror.ValidationFailed("", "invalid input")
	}

	if in.BirthDate.After(time.Now()) {
		return apperror.ValidationFailed("birth_date", "birth date must not be in the future")
	}
	return nil
}

// inputFieldError maps a validator violation onto the form field names the
// templates use.
func inputFieldError(fe validator.FieldError) error {
	switch fe.StructField() {
	case "FirstName":
		if fe.Tag() == "required" {
			return apperror.ValidationFailed("first_name", "first name is required")
		}
		return apperror.ValidationFailed("first_name", "first name must be 100 characters or less")
	case "LastName":
		return apperror.ValidationFailed("last_name", "last name must be 100 characters or less")
	case "BirthDate":
		return apperror.ValidationFailed("birth_date", "birth date is required")
	case "Description":
		return apperror.ValidationFailed("description", "description must be 2000 characters or less")
	}
	return apperror.ValidationFailed(fe.Field(), "invalid value")
}

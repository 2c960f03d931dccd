package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/acme/birthdays/internal/apperror"
	"github.com/acme/birthdays/internal/model"
	"github.com/acme/birthdays/internal/repository"
)

// MaxCongratulationLength caps comment text.
const MaxCongratulationLength = 1000

// CongratulationService handles posting comments on birthdays.
type CongratulationService struct {
	congrats  repository.CongratulationRepository
	birthdays repository.BirthdayRepository
	logger    *slog.Logger
}

// NewCongratulationService creates a CongratulationService.
func NewCongratulationService(
	congrats repository.CongratulationRepository,
	birthdays repository.BirthdayRepository,
	logger *slog.Logger,
) *CongratulationService {
	return &CongratulationService{
		congrats:  congrats,
		birthdays: birthdays,
		logger:    logger,
	}
}

// Add attaches a comment to an existing birthday. The target is resolved
// first, so a missing id is NotFound regardless of the text. Author and
// birthday references are fixed here, at creation, and never change.
//
// A validation failure is returned to the caller, but the add-comment
// handler deliberately swallows it and redirects back to the detail page;
// invalid comments are silently discarded rather than re-rendered.
func (s *CongratulationService) Add(ctx context.Context, actorID, birthdayID, text string) (*model.Congratulation, error) {
	if actorID == "" {
		return nil, apperror.Unauthenticated("login required")
	}

	b, err := s.birthdays.GetBirthdayByID(ctx, birthdayID)
	if err != nil {
		return nil, err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperror.ValidationFailed("text", "congratulation text is required")
	}
	if len(text) > MaxCongratulationLength {
		return nil, apperror.ValidationFailed("text",
			fmt.Sprintf("congratulation must be %d characters or less", MaxCongratulationLength))
	}

	c := &model.Congratulation{
		Text:       text,
		AuthorID:   actorID,
		BirthdayID: b.ID,
	}
	if err := s.congrats.CreateCongratulation(ctx, c); err != nil {
		s.logger.Error("failed to create congratulation",
			slog.String("birthdayID", b.ID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating congratulation: %w", err)
	}

	s.logger.Info("congratulation added",
		slog.String("id", c.ID),
		slog.String("birthdayID", b.ID),
		slog.String("authorID", actorID),
	)
	return c, nil
}

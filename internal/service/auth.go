// Package service contains the business logic layer of the application.
//
// Handlers parse HTTP and render responses; services enforce the rules:
// which fields are valid, who may mutate what, how the countdown is
// computed. Services take repository interfaces, never concrete stores,
// so tests can substitute in-memory mocks.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/acme/birthdays/internal/apperror"
	"github.com/acme/birthdays/internal/auth"
	"github.com/acme/birthdays/internal/model"
	"github.com/acme/birthdays/internal/repository"
)

// AuthService handles account registration and login. Both password and
// GitHub OAuth sign-ins end the same way: a user row and a signed session
// token for the cookie.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// AuthResult bundles the user record with the issued session token so the
// handler can set the cookie and redirect in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// Register creates a password-based account and signs the new user in.
func (s *AuthService) Register(ctx context.Context, login, email, password string) (*AuthResult, error) {
	login = strings.TrimSpace(login)

	if login == "" {
		return nil, apperror.ValidationFailed("login", "login is required")
	}
	if len(login) > 64 {
		return nil, apperror.ValidationFailed("login", "login must be 64 characters or less")
	}
	if len(password) < 8 {
		return nil, apperror.ValidationFailed("password", "password must be at least 8 characters")
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, apperror.ValidationFailed("password", "password must be 72 bytes or fewer")
	}

	user := &model.User{
		Login:        login,
		Email:        strings.TrimSpace(email),
		PasswordHash: hash,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, apperror.ValidationFailed("login", "that login is already taken")
		}
		s.logger.Error("failed to create user",
			slog.String("login", login),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("registering user: %w", err)
	}

	s.logger.Info("user registered", slog.String("userID", user.ID), slog.String("login", login))

	return s.issue(user)
}

// Login verifies a password login. A missing account and a wrong password
// produce the same validation error, so the form can't be used to probe
// which logins exist.
func (s *AuthService) Login(ctx context.Context, login, password string) (*AuthResult, error) {
	login = strings.TrimSpace(login)

	user, err := s.users.GetUserByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.ValidationFailed("login", "invalid login or password")
		}
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	if user.PasswordHash == "" {
		// GitHub-only account; there is no password to check.
		return nil, apperror.ValidationFailed("login", "invalid login or password")
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		return nil, apperror.ValidationFailed("login", "invalid login or password")
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID), slog.String("login", login))

	return s.issue(user)
}

// LoginGitHub completes the GitHub OAuth callback: upserts the account keyed
// by GitHub ID and signs the user in.
func (s *AuthService) LoginGitHub(ctx context.Context, gh *auth.GitHubUser) (*AuthResult, error) {
	user := &model.User{
		Login:     gh.Login,
		Email:     gh.Email,
		GitHubID:  gh.ID,
		AvatarURL: gh.AvatarURL,
	}
	if err := s.users.UpsertGitHubUser(ctx, user); err != nil {
		s.logger.Error("failed to upsert GitHub user",
			slog.Int64("githubID", gh.ID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("upserting GitHub user: %w", err)
	}

	s.logger.Info("user logged in via GitHub",
		slog.String("userID", user.ID),
		slog.String("login", user.Login),
	)

	return s.issue(user)
}

// CurrentUser resolves the acting identity to its user record.
func (s *AuthService) CurrentUser(ctx context.Context, userID string) (*model.User, error) {
	return s.users.GetUserByID(ctx, userID)
}

func (s *AuthService) issue(user *model.User) (*AuthResult, error) {
	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issuing session token: %w", err)
	}
	return &AuthResult{User: user, Token: token}, nil
}

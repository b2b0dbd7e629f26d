// Package service holds the business logic between HTTP handlers and the
// repositories. Services own validation, orchestration, and the rules of
// the domain; handlers only translate HTTP and repositories only persist.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/sakif/smartsynth/internal/apperror"
	"github.com/sakif/smartsynth/internal/auth"
	"github.com/sakif/smartsynth/internal/model"
	"github.com/sakif/smartsynth/internal/repository"
)

// AuthService implements signup, login, and the GitHub OAuth upsert path.
type AuthService struct {
	users     repository.UserRepository
	passwords *auth.PasswordService
	tokens    *auth.TokenService
	logger    *slog.Logger
}

func NewAuthService(users repository.UserRepository, passwords *auth.PasswordService, tokens *auth.TokenService, logger *slog.Logger) *AuthService {
	return &AuthService{users: users, passwords: passwords, tokens: tokens, logger: logger}
}

// AuthResult is what a successful authentication returns: the signed
// credential plus the user it names.
type AuthResult struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

// Signup registers a new email/password account and signs the user in.
//
// Validation happens before any write; a rejected request leaves no trace.
// Duplicate email or username surfaces as a conflict from the repository.
func (s *AuthService) Signup(ctx context.Context, email, username, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	username = strings.TrimSpace(username)

	if _, err := mail.ParseAddress(email); err != nil {
		return nil, apperror.ValidationFailed("email", "a valid email address is required")
	}
	if len(username) < 3 {
		return nil, apperror.ValidationFailed("username", "username must be at least 3 characters")
	}
	if len(password) < 8 {
		return nil, apperror.ValidationFailed("password", "password must be at least 8 characters")
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Email:        email,
		Username:     username,
		PasswordHash: hash,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered", slog.String("user_id", user.ID), slog.String("username", username))
	return s.issue(user)
}

// Login authenticates an email/password pair.
//
// Every failure path (unknown email, wrong password, deactivated account)
// returns the SAME generic unauthorized error, so responses never reveal
// whether an email is registered.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, apperror.Unauthorized("incorrect email or password")
	}
	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		return nil, apperror.Unauthorized("incorrect email or password")
	}
	if !user.IsActive {
		return nil, apperror.Unauthorized("incorrect email or password")
	}

	s.logger.Info("user logged in", slog.String("user_id", user.ID))
	return s.issue(user)
}

// LoginOrRegisterGitHub signs in a GitHub-authenticated user, creating the
// local account on first sight. GitHub users may hide their email; the
// noreply fallback keeps the column non-empty without inventing a real
// address.
func (s *AuthService) LoginOrRegisterGitHub(ctx context.Context, gh *auth.GitHubUser) (*AuthResult, error) {
	email := gh.Email
	if email == "" {
		email = fmt.Sprintf("%s@users.noreply.github.com", gh.Login)
	}

	user := &model.User{
		Email:     strings.ToLower(email),
		Username:  gh.Login,
		GitHubID:  gh.ID,
		AvatarURL: gh.AvatarURL,
	}
	if err := s.users.UpsertGitHubUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("github login", slog.String("user_id", user.ID), slog.String("username", user.Username))
	return s.issue(user)
}

// GetUserByID returns the profile behind a validated credential.
func (s *AuthService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return s.users.GetUserByID(ctx, id)
}

func (s *AuthService) issue(user *model.User) (*AuthResult, error) {
	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: user}, nil
}

package auth

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/frahmantamala/project-management/internal"
	"github.com/frahmantamala/project-management/internal/permission"
)

type ServiceAPI interface {
	Authenticate(ctx context.Context, dto LoginDTO) (AuthTokens, error)
	RefreshTokens(ctx context.Context, refreshToken string) (AuthTokens, error)
	ValidateAccessToken(tokenString string) (*Claims, error)
	CurrentUser(ctx context.Context, userID int64) (*User, error)
}

type RepositoryAPI interface {
	// GetCredentials looks a user up by username or email.
	GetCredentials(ctx context.Context, login string) (*Credentials, error)
	GetUser(ctx context.Context, userID int64) (*User, error)
}

type ActorLoader interface {
	LoadActor(ctx context.Context, userID int64) (*permission.Actor, error)
}

type Service struct {
	repo   RepositoryAPI
	tokens TokenGenerator
	actors ActorLoader
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, tokens TokenGenerator, actors ActorLoader, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		tokens: tokens,
		actors: actors,
		logger: logger,
	}
}

// Authenticate validates credentials and returns tokens
func (s *Service) Authenticate(ctx context.Context, dto LoginDTO) (AuthTokens, error) {
	if err := dto.Validate(); err != nil {
		return AuthTokens{}, err
	}

	login := strings.TrimSpace(dto.Username)
	creds, err := s.repo.GetCredentials(ctx, login)
	if err != nil {
		s.logger.Warn("login failed: unknown user", "login", login, "error", err)
		return AuthTokens{}, internal.ErrInvalidCredentials
	}

	if err := VerifyPassword(creds.PasswordHash, dto.Password); err != nil {
		s.logger.Warn("login failed: wrong password", "user_id", creds.UserID)
		return AuthTokens{}, internal.ErrInvalidCredentials
	}

	if !creds.IsActive {
		return AuthTokens{}, internal.ErrUserInactive
	}

	s.logger.Info("user authenticated", "user_id", creds.UserID)
	return s.issue(creds.UserID, creds.Username)
}

// RefreshTokens validates refresh token and returns new tokens
func (s *Service) RefreshTokens(ctx context.Context, refreshToken string) (AuthTokens, error) {
	claims, err := s.tokens.ValidateRefreshToken(refreshToken)
	if err != nil {
		return AuthTokens{}, err
	}

	userID, err := claims.ParsedUserID()
	if err != nil {
		return AuthTokens{}, err
	}

	u, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return AuthTokens{}, err
	}
	if !u.IsActive {
		return AuthTokens{}, internal.ErrUserInactive
	}

	return s.issue(u.ID, u.Username)
}

func (s *Service) ValidateAccessToken(tokenString string) (*Claims, error) {
	return s.tokens.ValidateAccessToken(tokenString)
}

// CurrentUser loads an active user together with its permission view.
func (s *Service) CurrentUser(ctx context.Context, userID int64) (*User, error) {
	u, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !u.IsActive {
		return nil, internal.ErrUserInactive
	}

	actor, err := s.actors.LoadActor(ctx, userID)
	if err != nil {
		return nil, err
	}
	u.Actor = actor
	return u, nil
}

func (s *Service) issue(userID int64, username string) (AuthTokens, error) {
	id := strconv.FormatInt(userID, 10)

	accessToken, err := s.tokens.GenerateAccessToken(id, username)
	if err != nil {
		return AuthTokens{}, internal.NewInternalError("failed to sign access token", err)
	}

	refreshToken, err := s.tokens.GenerateRefreshToken(id, username)
	if err != nil {
		return AuthTokens{}, internal.NewInternalError("failed to sign refresh token", err)
	}

	return AuthTokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.tokens.AccessTTL().Seconds()),
	}, nil
}

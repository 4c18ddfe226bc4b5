package service

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/hydro-systems-backend/internal/auth"
	"github.com/ANIKETSHETTY47/hydro-systems-backend/internal/domain"
)

const maxUsernameLen = 50

var (
	ErrMissingCredentials = domain.NewError(domain.KindValidation, "MISSING_CREDENTIALS", "Missing username or password")
	ErrInvalidUsername    = domain.NewError(domain.KindValidation, "INVALID_USERNAME", "Username must be at most 50 characters.")
	ErrDuplicateUsername  = domain.NewError(domain.KindDuplicate, "DUPLICATE_USERNAME", "user with this username already exists.")
	ErrInvalidCredentials = domain.NewError(domain.KindUnauthorized, "INVALID_CREDENTIALS", "Invalid username or password.")
	ErrUnauthenticated    = domain.NewError(domain.KindUnauthorized, "UNAUTHENTICATED", "Authentication credentials were not provided or are invalid.")
	ErrMissingRefresh     = domain.NewError(domain.KindValidation, "MISSING_REFRESH_TOKEN", "Please provide a refresh token.")
	ErrInvalidToken       = domain.NewError(domain.KindUnauthorized, "INVALID_TOKEN", "Token is invalid or expired.")
)

type UserService struct {
	store   Store
	tokens  *auth.Issuer
	revoker auth.Revoker
}

type LoginResult struct {
	User         *domain.User
	AccessToken  string
	RefreshToken string
}

func (s *UserService) Register(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return ErrMissingCredentials
	}
	if utf8.RuneCountInString(username) > maxUsernameLen {
		return ErrInvalidUsername.With("username", username)
	}

	if _, err := s.store.UserByUsername(ctx, username); err == nil {
		return ErrDuplicateUsername.With("username", username)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("lookup user: %w", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	u := &domain.User{Username: username, PasswordHash: hash}
	if err := s.store.CreateUser(ctx, u); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return ErrDuplicateUsername.With("username", username)
		}
		return fmt.Errorf("create user: %w", err)
	}
	log.Info().Int64("user_id", u.ID).Msg("user registered")
	return nil
}

func (s *UserService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	if username == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	u, err := s.store.UserByUsername(ctx, username)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	ok, err := auth.CheckPassword(u.PasswordHash, password)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	pair, err := s.tokens.Issue(u.ID, u.Username)
	if err != nil {
		return nil, err
	}
	return &LoginResult{User: u, AccessToken: pair.Access, RefreshToken: pair.Refresh}, nil
}

// Logout revokes every token that still parses. It never fails; revocation
// problems are logged.
func (s *UserService) Logout(ctx context.Context, tokens ...string) {
	for _, raw := range tokens {
		if raw == "" {
			continue
		}
		claims, err := s.tokens.Parse(raw, auth.AccessToken)
		if err != nil {
			claims, err = s.tokens.Parse(raw, auth.RefreshToken)
		}
		if err != nil {
			continue
		}
		if err := s.revoker.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
			log.Warn().Err(err).Int64("user_id", claims.UserID).Msg("token revocation failed")
		}
	}
}

// Authenticate turns an access token into the request caller.
func (s *UserService) Authenticate(ctx context.Context, token string) (domain.Caller, error) {
	if token == "" {
		return domain.Caller{}, ErrUnauthenticated
	}
	claims, err := s.validate(ctx, token, auth.AccessToken)
	if err != nil {
		return domain.Caller{}, err
	}
	return domain.Caller{UserID: claims.UserID, Username: claims.Username}, nil
}

func (s *UserService) CurrentUser(ctx context.Context, caller domain.Caller) (*domain.User, error) {
	u, err := s.store.UserByID(ctx, caller.UserID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, ErrUnauthenticated
	}
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	return u, nil
}

// Refresh exchanges a refresh token for a new access token.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", ErrMissingRefresh
	}
	claims, err := s.validate(ctx, refreshToken, auth.RefreshToken)
	if err != nil {
		if errors.Is(err, ErrUnauthenticated) {
			return "", ErrInvalidToken
		}
		return "", err
	}
	if _, err := s.store.UserByID(ctx, claims.UserID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", ErrInvalidToken
		}
		return "", fmt.Errorf("lookup user: %w", err)
	}
	return s.tokens.IssueAccess(claims.UserID, claims.Username)
}

func (s *UserService) validate(ctx context.Context, token string, typ auth.TokenType) (*auth.Claims, error) {
	claims, err := s.tokens.Parse(token, typ)
	if err != nil {
		return nil, ErrUnauthenticated
	}
	revoked, err := s.revoker.Revoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		return nil, ErrUnauthenticated
	}
	return claims, nil
}

// SessionExpiry is the lifetime of the access token cookie.
func (s *UserService) SessionExpiry(now time.Time) time.Time {
	return s.tokens.AccessExpiry(now)
}

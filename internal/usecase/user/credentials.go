package user

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docsearch/internal/domain"
	domuser "github.com/kailas-cloud/docsearch/internal/domain/user"
	"github.com/kailas-cloud/docsearch/internal/logger"
)

// Login checks a password and issues an access token.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	u, err := s.VerifyPassword(ctx, email, password)
	if err != nil {
		return "", err
	}
	return s.issue(u)
}

// Refresh issues a new token for an authenticated principal.
func (s *Service) Refresh(_ context.Context, principal *domuser.User) (string, error) {
	if principal == nil {
		return "", domain.Denied("no authenticated user")
	}
	return s.issue(*principal)
}

// VerifyPassword returns the user when the password matches. Unknown users
// and wrong passwords fail alike.
func (s *Service) VerifyPassword(ctx context.Context, email, password string) (domuser.User, error) {
	u, err := s.repo.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return domuser.User{}, domain.Denied("incorrect username or password")
	}
	if err != nil {
		return domuser.User{}, fmt.Errorf("load user: %w", err)
	}
	if !s.hasher.Verify(u.PasswordHash, password) {
		logger.FromContext(ctx).Info("password rejected", zap.String("user", email))
		return domuser.User{}, domain.Denied("incorrect username or password")
	}
	return u, nil
}

// VerifyToken returns the user a token was issued to.
func (s *Service) VerifyToken(ctx context.Context, token string) (domuser.User, error) {
	claims, err := s.tokens.Validate(token)
	if err != nil {
		return domuser.User{}, domain.Denied("invalid token")
	}
	u, err := s.repo.GetByEmail(ctx, claims.Email)
	if errors.Is(err, domain.ErrNotFound) {
		return domuser.User{}, domain.Denied("token user no longer exists")
	}
	if err != nil {
		return domuser.User{}, fmt.Errorf("load user: %w", err)
	}
	return u, nil
}

func (s *Service) issue(u domuser.User) (string, error) {
	tok, err := s.tokens.Issue(u.Email)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return tok, nil
}

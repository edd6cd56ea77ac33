package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	apperrors "github.com/malikadeel12/TheGiftOasis-Frontend/pkg/errors"
	"github.com/malikadeel12/TheGiftOasis-Frontend/pkg/logger"
	"github.com/malikadeel12/TheGiftOasis-Frontend/services/storefront/internal/auth"
	"github.com/malikadeel12/TheGiftOasis-Frontend/services/storefront/internal/domain"
	"github.com/malikadeel12/TheGiftOasis-Frontend/services/storefront/internal/repository"
)

// LoginInput carries a token issued by the remote login endpoint.
type LoginInput struct {
	Token string `json:"token" validate:"required,notblank"`
}

// Session describes a client's authentication state.
type Session struct {
	Authenticated bool       `json:"authenticated"`
	UserID        string     `json:"userId,omitempty"`
	Role          string     `json:"role,omitempty"`
	ExpiresAt     *time.Time `json:"expiresAt,omitempty"`
}

// SessionService owns the bearer token kept for each client.
type SessionService struct {
	tokens  repository.TokenRepository
	decoder *auth.Decoder
	subject *auth.Subject
	logger  *slog.Logger
}

// NewSessionService creates a new session service.
func NewSessionService(tokens repository.TokenRepository, decoder *auth.Decoder, subject *auth.Subject, logger *slog.Logger) *SessionService {
	return &SessionService{
		tokens:  tokens,
		decoder: decoder,
		subject: subject,
		logger:  logger,
	}
}

// Login stores token for clientID after checking it is usable.
func (s *SessionService) Login(ctx context.Context, clientID, token string) (*Session, error) {
	token = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer "))
	claims, err := s.decoder.Decode(token)
	if err != nil {
		if errors.Is(err, auth.ErrTokenExpired) {
			return nil, apperrors.Unauthorized(MsgSessionExpired)
		}
		return nil, apperrors.InvalidInput("token is malformed")
	}

	if err := s.tokens.Save(ctx, clientID, token); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	logger.WithContext(ctx, s.logger).Info("session started", slog.String("role", claims.Role))
	s.subject.Publish(auth.Change{ClientID: clientID, Authenticated: true, Role: claims.Role})
	return sessionFromClaims(claims), nil
}

// Logout forgets the client's token.
func (s *SessionService) Logout(ctx context.Context, clientID string) error {
	if err := s.tokens.Delete(ctx, clientID); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	s.subject.Publish(auth.Change{ClientID: clientID})
	return nil
}

// Current reports the client's authentication state. An expired or
// malformed token is removed and reported as unauthenticated.
func (s *SessionService) Current(ctx context.Context, clientID string) (*Session, error) {
	_, claims, err := s.RequireToken(ctx, clientID)
	if err != nil {
		if isAuthRequired(err) {
			return &Session{}, nil
		}
		return nil, err
	}
	return sessionFromClaims(claims), nil
}

// RequireToken returns the client's token and claims, or an AUTH_REQUIRED
// error redirecting to the login page. A token that is no longer usable is
// removed and subscribers are told the client is logged out.
func (s *SessionService) RequireToken(ctx context.Context, clientID string) (string, *auth.Claims, error) {
	token, ok, err := s.tokens.Get(ctx, clientID)
	if err != nil {
		return "", nil, fmt.Errorf("load token: %w", err)
	}
	if !ok {
		return "", nil, errAuthRequired(MsgLoginRequired)
	}

	claims, err := s.decoder.Decode(token)
	if err != nil {
		logger.WithContext(ctx, s.logger).Info("discarding unusable token", slog.String("reason", err.Error()))
		if invErr := s.Invalidate(ctx, clientID); invErr != nil {
			return "", nil, invErr
		}
		return "", nil, errAuthRequired(MsgSessionExpired)
	}
	return token, claims, nil
}

// OptionalToken returns the client's token when it has a usable one and ""
// otherwise.
func (s *SessionService) OptionalToken(ctx context.Context, clientID string) (string, error) {
	token, _, err := s.RequireToken(ctx, clientID)
	if err != nil {
		if isAuthRequired(err) {
			return "", nil
		}
		return "", err
	}
	return token, nil
}

// RequireAdmin is RequireToken plus a check for the admin role.
func (s *SessionService) RequireAdmin(ctx context.Context, clientID string) (string, error) {
	token, claims, err := s.RequireToken(ctx, clientID)
	if err != nil {
		return "", err
	}
	if !claims.IsAdmin() {
		return "", apperrors.Forbidden(MsgAdminOnly).WithRedirect(RedirectHome)
	}
	return token, nil
}

// Invalidate removes the token after the remote API rejected it.
func (s *SessionService) Invalidate(ctx context.Context, clientID string) error {
	if err := s.tokens.Delete(ctx, clientID); err != nil {
		return fmt.Errorf("invalidate token: %w", err)
	}
	s.subject.Publish(auth.Change{ClientID: clientID})
	return nil
}

func sessionFromClaims(c *auth.Claims) *Session {
	sess := &Session{Authenticated: true, UserID: c.UserID, Role: c.Role}
	if sess.UserID == "" {
		sess.UserID = c.Subject
	}
	if c.ExpiresAt != nil {
		exp := c.ExpiresAt.Time.UTC()
		sess.ExpiresAt = &exp
	}
	return sess
}

func isAuthRequired(err error) bool {
	return errors.Is(err, domain.ErrAuthRequired)
}

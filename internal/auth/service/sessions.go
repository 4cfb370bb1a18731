package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"playdex/internal/auth/models"
	"playdex/internal/platform/middleware"
	"playdex/internal/sentinel"
	dErrors "playdex/pkg/domain-errors"
)

// Logout destroys the session named by the token: the token is invalidated
// outright, not merely stripped of its identity. Logging out without a live
// session is a no-op, not an error.
func (s *Service) Logout(ctx context.Context, tokenString string) error {
	sessionID, err := s.codec.Parse(tokenString)
	if err != nil {
		return nil
	}

	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to destroy session")
	}

	if s.metrics != nil {
		s.metrics.DecrementActiveSessions(1)
	}
	s.logger.InfoContext(ctx, "logged out", "session_id", sessionID)
	return nil
}

// Identity returns the identity attached to the session named by the token.
// Every failure mode (bad token, unknown or expired session, anonymous or
// pending state) maps to unauthorized.
func (s *Service) Identity(ctx context.Context, tokenString string) (*models.Identity, error) {
	sessionID, err := s.codec.Parse(tokenString)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnauthorized, "not signed in")
	}

	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnauthorized, "not signed in")
	}
	if session.Expired(s.now()) {
		s.dropSession(ctx, session.ID)
		return nil, dErrors.New(dErrors.CodeUnauthorized, "session expired")
	}
	if !session.Authenticated() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "not signed in")
	}
	return session.Identity, nil
}

// ResolveToken adapts Identity to the middleware guard contract.
func (s *Service) ResolveToken(ctx context.Context, tokenString string) (*middleware.Principal, error) {
	identity, err := s.Identity(ctx, tokenString)
	if err != nil {
		return nil, err
	}
	return &middleware.Principal{
		SteamID:    identity.SteamID,
		Persona:    identity.Persona,
		AvatarURL:  identity.AvatarURL,
		ProfileURL: identity.ProfileURL,
		ClaimedID:  identity.Identifier,
	}, nil
}

// dropSession removes a session discovered expired in-band, keeping the
// live-session gauge in step.
func (s *Service) dropSession(ctx context.Context, id uuid.UUID) {
	if err := s.sessions.Delete(ctx, id); err != nil {
		return
	}
	if s.metrics != nil {
		s.metrics.DecrementActiveSessions(1)
	}
}

// SweepExpired removes sessions past their absolute expiry. Run periodically
// by the janitor in main.
func (s *Service) SweepExpired(ctx context.Context) (int, error) {
	deleted, err := s.sessions.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to sweep sessions")
	}
	if deleted > 0 {
		if s.metrics != nil {
			s.metrics.DecrementActiveSessions(deleted)
		}
		s.logger.InfoContext(ctx, "swept expired sessions", "deleted", deleted)
	}
	return deleted, nil
}

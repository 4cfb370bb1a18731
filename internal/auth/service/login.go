package service

import (
	"context"
	"errors"
	"net/url"

	"github.com/google/uuid"

	"playdex/internal/auth/device"
	"playdex/internal/auth/models"
	"playdex/internal/sentinel"
	dErrors "playdex/pkg/domain-errors"
)

// InitiateResult carries the provider redirect target and the signed cookie
// token for the pending session.
type InitiateResult struct {
	RedirectURL string
	Token       string
}

// Initiate starts the handshake: creates a pending session, issues its
// cookie token, and returns the provider's sign-on URL parameterized with
// the configured return URL and realm.
func (s *Service) Initiate(ctx context.Context, userAgent string) (*InitiateResult, error) {
	now := s.now()
	session := models.NewPending(uuid.New(), device.ParseUserAgent(userAgent), now, s.sessionTTL)

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create session")
	}
	if s.metrics != nil {
		s.metrics.IncrementActiveSessions()
	}

	signed, err := s.codec.Issue(session.ID, now)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign session token")
	}

	s.logger.InfoContext(ctx, "login initiated",
		"session_id", session.ID,
		"device", session.Device,
	)

	return &InitiateResult{
		RedirectURL: s.provider.AuthURL(),
		Token:       signed,
	}, nil
}

// CompleteCallback verifies the provider's callback assertion for the
// session named by the cookie token. On success the constructed identity is
// attached atomically and the session becomes Authenticated. On verification
// failure the session drops back to Anonymous and an unauthorized error is
// returned; callers translate that into a redirect to the public landing
// page, never a raw error page.
func (s *Service) CompleteCallback(ctx context.Context, tokenString string, query url.Values) error {
	session, err := s.pendingSession(ctx, tokenString)
	if err != nil {
		return err
	}

	claimedID, steamID, err := s.provider.VerifyCallback(ctx, query)
	if err != nil {
		return s.failLogin(ctx, session, err)
	}

	profile, err := s.provider.PlayerSummary(ctx, steamID)
	if err != nil {
		return s.failLogin(ctx, session, err)
	}

	identity := &models.Identity{
		SteamID:    profile.SteamID,
		Persona:    profile.PersonaName,
		AvatarURL:  profile.AvatarFull,
		ProfileURL: profile.ProfileURL,
		Identifier: claimedID,
	}
	if err := session.Authenticate(identity); err != nil {
		return s.failLogin(ctx, session, err)
	}
	if err := s.sessions.Update(ctx, session); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist authenticated session")
	}

	if s.metrics != nil {
		s.metrics.LoginsCompleted.Inc()
	}
	s.logger.InfoContext(ctx, "login completed",
		"session_id", session.ID,
		"steam_id", identity.SteamID,
	)
	return nil
}

// pendingSession resolves the cookie token and loads a live session for the
// callback to act on.
func (s *Service) pendingSession(ctx context.Context, tokenString string) (*models.Session, error) {
	sessionID, err := s.codec.Parse(tokenString)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnauthorized, "no pending login session")
	}

	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnauthorized, "no pending login session")
	}
	if session.Expired(s.now()) {
		s.dropSession(ctx, session.ID)
		return nil, dErrors.New(dErrors.CodeUnauthorized, "login session expired")
	}
	// Only sessions mid-handshake may complete it. A replayed callback
	// against an already-authenticated session must not touch the identity.
	if session.State != models.StatePendingProvider {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "no pending login session")
	}
	return session, nil
}

// failLogin resets the session to Anonymous and maps the cause to a domain
// error. The verification failure itself is never surfaced as a generic
// error: it stays inside the redirect-to-landing contract.
func (s *Service) failLogin(ctx context.Context, session *models.Session, cause error) error {
	session.Reset()
	if err := s.sessions.Update(ctx, session); err != nil {
		s.logger.ErrorContext(ctx, "failed to reset session after login failure",
			"error", err,
			"session_id", session.ID,
		)
	}

	if s.metrics != nil {
		s.metrics.AuthFailures.Inc()
	}
	s.logger.WarnContext(ctx, "login verification failed",
		"error", cause,
		"session_id", session.ID,
	)

	if errors.Is(cause, sentinel.ErrUnavailable) {
		return dErrors.Wrap(cause, dErrors.CodeUnavailable, "identity provider unavailable")
	}
	return dErrors.Wrap(cause, dErrors.CodeUnauthorized, "callback verification failed")
}

// Package service drives the delegated-login handshake: initiate points the
// browser at the provider, the callback verifies the returned assertion and
// attaches the identity, logout destroys the session. Credentials never pass
// through this service.
package service

import (
	"context"
	"log/slog"
	"net/url"
	"time"

	"github.com/google/uuid"

	"playdex/internal/auth/models"
	"playdex/internal/platform/metrics"
	"playdex/internal/steam"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks SessionStore,Provider,TokenCodec

// SessionStore defines the persistence interface for session data.
// Error Contract: Find and Delete return a wrapped sentinel.ErrNotFound when
// the session doesn't exist.
type SessionStore interface {
	Create(ctx context.Context, session *models.Session) error
	FindByID(ctx context.Context, sessionID uuid.UUID) (*models.Session, error)
	Update(ctx context.Context, session *models.Session) error
	Delete(ctx context.Context, sessionID uuid.UUID) error
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}

// Provider is the slice of the Steam client the handshake needs.
type Provider interface {
	AuthURL() string
	VerifyCallback(ctx context.Context, query url.Values) (claimedID, steamID string, err error)
	PlayerSummary(ctx context.Context, steamID string) (*steam.PlayerSummary, error)
}

// TokenCodec signs and verifies session cookie tokens.
type TokenCodec interface {
	Issue(sessionID uuid.UUID, now time.Time) (string, error)
	Parse(tokenString string) (uuid.UUID, error)
}

const defaultSessionTTL = 24 * time.Hour

// Service is the identity session machine.
type Service struct {
	sessions   SessionStore
	provider   Provider
	codec      TokenCodec
	sessionTTL time.Duration
	logger     *slog.Logger
	metrics    *metrics.Metrics
	now        func() time.Time
}

// Option configures the Service.
type Option func(*Service)

// WithLogger injects a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithMetrics injects the metrics registry.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithSessionTTL configures the absolute session lifetime.
// If not set or non-positive, defaults to 24 hours.
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.sessionTTL = ttl
		}
	}
}

// WithClock injects the time source (no hidden time.Now() calls).
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// New constructs the session machine over the given store, provider and codec.
func New(sessions SessionStore, provider Provider, codec TokenCodec, opts ...Option) *Service {
	svc := &Service{
		sessions:   sessions,
		provider:   provider,
		codec:      codec,
		sessionTTL: defaultSessionTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.logger == nil {
		svc.logger = slog.Default()
	}
	return svc
}

package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"playdex/internal/sentinel"
)

// Identity is the provider-issued identity captured at callback verification.
// Immutable once constructed. The whole profile is serialized into the
// session rather than a stable user key: there is no backing user database,
// so the session is the only place the profile can live. A production
// variant with user storage would keep a key here instead.
type Identity struct {
	SteamID    string `json:"steamId"`
	Persona    string `json:"personaName"`
	AvatarURL  string `json:"avatar"`
	ProfileURL string `json:"profileUrl"`

	// Identifier is the raw OpenID claimed identifier, kept verbatim.
	Identifier string `json:"identifier"`
}

// State is the position of a session in the login handshake.
type State string

const (
	// StateAnonymous holds no identity. Sessions return here after a failed
	// callback verification.
	StateAnonymous State = "anonymous"
	// StatePendingProvider marks a session whose browser has been redirected
	// to the provider and has not come back yet.
	StatePendingProvider State = "pending_provider"
	// StateAuthenticated holds a verified identity.
	StateAuthenticated State = "authenticated"
)

// Session is the server-side state keyed by the opaque cookie token.
// Transitions: Anonymous → PendingProvider → Authenticated, plus
// Authenticated → Anonymous via logout (which destroys the session outright).
type Session struct {
	ID        uuid.UUID
	State     State
	Identity  *Identity // non-nil iff State == StateAuthenticated
	Device    string    // display name parsed from the User-Agent
	CreatedAt time.Time
	ExpiresAt time.Time
}

// NewPending creates a session that has been pointed at the provider.
// Expiry is absolute: the session dies ttl after creation regardless of use.
func NewPending(id uuid.UUID, device string, now time.Time, ttl time.Duration) *Session {
	return &Session{
		ID:        id,
		State:     StatePendingProvider,
		Device:    device,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// Expired reports whether the session has passed its absolute expiry.
func (s *Session) Expired(now time.Time) bool {
	return s.ExpiresAt.Before(now)
}

// Authenticated reports whether the session holds a verified identity.
func (s *Session) Authenticated() bool {
	return s.State == StateAuthenticated && s.Identity != nil
}

// Authenticate attaches a fully constructed identity and promotes the
// session. Only valid from PendingProvider; the identity pointer is assigned
// in one step so observers never see a partially populated identity.
func (s *Session) Authenticate(identity *Identity) error {
	if s.State != StatePendingProvider {
		return fmt.Errorf("cannot authenticate session in state %q: %w", s.State, sentinel.ErrInvalidState)
	}
	if identity == nil {
		return fmt.Errorf("identity is required: %w", sentinel.ErrInvalidInput)
	}
	s.Identity = identity
	s.State = StateAuthenticated
	return nil
}

// Reset drops any identity and returns the session to Anonymous. Used when
// callback verification fails.
func (s *Session) Reset() {
	s.Identity = nil
	s.State = StateAnonymous
}

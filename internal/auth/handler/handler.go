// Package handler exposes the delegated-login HTTP surface: the redirect to
// the provider, the verification callback, and logout. Every outcome for a
// browser is a redirect; JSON is reserved for the signed-in probe.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"playdex/internal/auth/models"
	"playdex/internal/auth/service"
	"playdex/internal/platform/middleware"
	jsonResponse "playdex/internal/transport/http/json"
)

// DefaultCookieName is the session cookie issued on login initiation.
const DefaultCookieName = "playdex_session"

// Service defines the interface for session operations.
type Service interface {
	Initiate(ctx context.Context, userAgent string) (*service.InitiateResult, error)
	CompleteCallback(ctx context.Context, token string, query url.Values) error
	Logout(ctx context.Context, token string) error
	Identity(ctx context.Context, token string) (*models.Identity, error)
}

// Handler handles the login handshake endpoints.
type Handler struct {
	auth       Service
	logger     *slog.Logger
	cookieName string
	cookieAge  time.Duration
	landing    string
}

// New creates the auth Handler. The cookie lifetime should match the session
// TTL so the browser and the store expire together.
func New(auth Service, logger *slog.Logger, cookieName string, cookieAge time.Duration) *Handler {
	if cookieName == "" {
		cookieName = DefaultCookieName
	}
	if cookieAge <= 0 {
		cookieAge = 24 * time.Hour
	}

	return &Handler{
		auth:       auth,
		logger:     logger,
		cookieName: cookieName,
		cookieAge:  cookieAge,
		landing:    "/",
	}
}

// Register registers the auth routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/", h.HandleRoot)
	r.Get("/auth/steam", h.HandleInitiate)
	r.Get("/auth/steam/return", h.HandleCallback)
	r.Get("/auth/logout", h.HandleLogout)
}

// HandleRoot reports whether the caller holds an authenticated session. It
// is the public landing probe: anonymous callers get 200 too, just without
// an identity.
func (h *Handler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	cookie, err := r.Cookie(h.cookieName)
	if err != nil {
		jsonResponse.WriteJSON(w, http.StatusOK, map[string]any{"message": "Not signed in"})
		return
	}

	identity, err := h.auth.Identity(ctx, cookie.Value)
	if err != nil {
		jsonResponse.WriteJSON(w, http.StatusOK, map[string]any{"message": "Not signed in"})
		return
	}

	jsonResponse.WriteJSON(w, http.StatusOK, map[string]any{
		"message": "Signed in",
		"user":    identity,
	})
}

// HandleInitiate implements GET /auth/steam. It creates a pending session,
// plants the session cookie, and bounces the browser to the provider's
// sign-on page.
func (h *Handler) HandleInitiate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	result, err := h.auth.Initiate(ctx, r.UserAgent())
	if err != nil {
		h.logger.ErrorContext(ctx, "login initiation failed",
			"error", err,
			"request_id", requestID,
		)
		http.Redirect(w, r, h.landing, http.StatusFound)
		return
	}

	h.setSessionCookie(w, r, result.Token)
	http.Redirect(w, r, result.RedirectURL, http.StatusFound)
}

// HandleCallback implements GET /auth/steam/return, the provider's return
// leg. Success and failure both land the browser back on the public landing
// page; the difference is whether the session carries an identity afterward.
func (h *Handler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	cookie, err := r.Cookie(h.cookieName)
	if err != nil {
		h.logger.WarnContext(ctx, "callback without session cookie",
			"request_id", requestID,
		)
		http.Redirect(w, r, h.landing, http.StatusFound)
		return
	}

	if err := h.auth.CompleteCallback(ctx, cookie.Value, r.URL.Query()); err != nil {
		h.logger.WarnContext(ctx, "callback verification failed",
			"error", err,
			"request_id", requestID,
		)
	}
	http.Redirect(w, r, h.landing, http.StatusFound)
}

// HandleLogout implements GET /auth/logout. The session is destroyed
// server-side and the cookie expired; replaying the old cookie afterward
// behaves exactly like having none.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	if cookie, err := r.Cookie(h.cookieName); err == nil {
		if err := h.auth.Logout(ctx, cookie.Value); err != nil {
			h.logger.ErrorContext(ctx, "logout failed",
				"error", err,
				"request_id", requestID,
			)
		}
	}

	h.clearSessionCookie(w, r)
	http.Redirect(w, r, h.landing, http.StatusFound)
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, r *http.Request, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.cookieAge.Seconds()),
		HttpOnly: true,
		Secure:   isHTTPS(r),
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   isHTTPS(r),
		SameSite: http.SameSiteLaxMode,
	})
}

func isHTTPS(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}

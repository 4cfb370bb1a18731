// Package handler exposes the signed-in account surface: the profile echo
// and the friend list. Both routes sit behind the identity guard.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"playdex/internal/platform/middleware"
	"playdex/internal/sentinel"
	"playdex/internal/steam"
	jsonResponse "playdex/internal/transport/http/json"
	"playdex/internal/transport/http/shared"
	dErrors "playdex/pkg/domain-errors"
)

// Friends is the slice of the Steam client the account surface needs.
type Friends interface {
	FriendList(ctx context.Context, steamID string) ([]steam.Friend, error)
}

// Handler handles the account endpoints.
type Handler struct {
	friends Friends
	logger  *slog.Logger
}

// New creates a new account Handler.
func New(friends Friends, logger *slog.Logger) *Handler {
	return &Handler{
		friends: friends,
		logger:  logger,
	}
}

// Register registers the account routes. The parent router applies the
// identity guard.
func (h *Handler) Register(r chi.Router) {
	r.Get("/user/account", h.HandleAccount)
	r.Get("/user/friends", h.HandleFriends)
}

// HandleAccount implements GET /user/account: it echoes the identity bound
// to the session.
func (h *Handler) HandleAccount(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r.Context())
	if principal == nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "not signed in"))
		return
	}
	jsonResponse.WriteJSON(w, http.StatusOK, map[string]any{"user": principal})
}

// HandleFriends implements GET /user/friends for the signed-in account.
// Private friend lists come back from the provider as failures; those
// surface to the caller rather than masquerading as an empty list.
func (h *Handler) HandleFriends(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	principal := middleware.GetPrincipal(ctx)
	if principal == nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "not signed in"))
		return
	}

	friends, err := h.friends.FriendList(ctx, principal.SteamID)
	if err != nil {
		h.logger.WarnContext(ctx, "friend list lookup failed",
			"error", err,
			"steam_id", principal.SteamID,
			"request_id", middleware.GetRequestID(ctx),
		)
		shared.WriteError(w, translate(err))
		return
	}

	jsonResponse.WriteJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"friendCount": len(friends),
		"friends":     friends,
	})
}

// translate maps client sentinel errors into domain errors at this surface;
// there is no intermediate service to do it.
func translate(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, "Failed to fetch Friends")
	case errors.Is(err, sentinel.ErrUnavailable):
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "Failed to fetch Friends")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "Failed to fetch Friends")
	}
}

// Package handler exposes the catalog over HTTP: the paginated browse
// endpoint, per-app detail, and the identity-scoped library and news routes.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"playdex/internal/catalog/models"
	"playdex/internal/platform/middleware"
	"playdex/internal/steam"
	jsonResponse "playdex/internal/transport/http/json"
	"playdex/internal/transport/http/shared"
	dErrors "playdex/pkg/domain-errors"
)

// Service defines the interface for catalog queries.
type Service interface {
	Paginate(ctx context.Context, page, pageSize int) *models.Page
	Detail(ctx context.Context, appID int64) (*steam.AppDetail, error)
	OwnedGames(ctx context.Context, steamID string) ([]steam.OwnedGame, error)
	News(ctx context.Context, appID int64) ([]steam.NewsItem, error)
}

// Handler handles the catalog endpoints.
type Handler struct {
	catalog Service
	logger  *slog.Logger
}

// New creates a new catalog Handler.
func New(catalog Service, logger *slog.Logger) *Handler {
	return &Handler{
		catalog: catalog,
		logger:  logger,
	}
}

// Register registers the public catalog routes.
func (h *Handler) Register(r chi.Router) {
	r.Get("/games/all", h.HandleBrowse)
	r.Get("/games/{appID}", h.HandleDetail)
}

// RegisterProtected registers the routes that need an authenticated session.
// The parent router applies the identity guard.
func (h *Handler) RegisterProtected(r chi.Router) {
	r.Get("/games/owned", h.HandleOwnedGames)
	r.Get("/games/news", h.HandleNews)
}

// HandleBrowse implements GET /games/all?page=&limit=. Absent or malformed
// paging parameters fall back to the defaults rather than erroring; a page
// past the end returns an empty page with honest totals.
func (h *Handler) HandleBrowse(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	page := queryInt(r, "page")
	limit := queryInt(r, "limit")

	result := h.catalog.Paginate(ctx, page, limit)
	jsonResponse.WriteJSON(w, http.StatusOK, result)
}

// HandleDetail implements GET /games/{appID}.
func (h *Handler) HandleDetail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	appID, err := strconv.ParseInt(chi.URLParam(r, "appID"), 10, 64)
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "app id must be numeric"))
		return
	}

	detail, err := h.catalog.Detail(ctx, appID)
	if err != nil {
		h.logger.WarnContext(ctx, "detail lookup failed",
			"error", err,
			"app_id", appID,
			"request_id", middleware.GetRequestID(ctx),
		)
		shared.WriteError(w, err)
		return
	}
	jsonResponse.WriteJSON(w, http.StatusOK, detail)
}

// HandleOwnedGames implements GET /games/owned for the signed-in account.
func (h *Handler) HandleOwnedGames(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	principal := middleware.GetPrincipal(ctx)
	if principal == nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "not signed in"))
		return
	}

	games, err := h.catalog.OwnedGames(ctx, principal.SteamID)
	if err != nil {
		h.logger.WarnContext(ctx, "owned games lookup failed",
			"error", err,
			"steam_id", principal.SteamID,
			"request_id", middleware.GetRequestID(ctx),
		)
		shared.WriteError(w, err)
		return
	}
	jsonResponse.WriteJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"gameCount": len(games),
		"games":     games,
	})
}

// HandleNews implements GET /games/news?gameId=.
func (h *Handler) HandleNews(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	appID, err := strconv.ParseInt(r.URL.Query().Get("gameId"), 10, 64)
	if err != nil || appID <= 0 {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "gameId is required and must be numeric"))
		return
	}

	news, err := h.catalog.News(ctx, appID)
	if err != nil {
		h.logger.WarnContext(ctx, "news lookup failed",
			"error", err,
			"app_id", appID,
			"request_id", middleware.GetRequestID(ctx),
		)
		shared.WriteError(w, err)
		return
	}
	jsonResponse.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"news":    news,
	})
}

// queryInt reads an integer query parameter, returning zero for absent or
// malformed values so the service applies its defaults.
func queryInt(r *http.Request, key string) int {
	value, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return 0
	}
	return value
}

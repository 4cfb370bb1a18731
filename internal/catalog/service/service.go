// Package service implements catalog browsing on top of the cache: page
// slicing with per-item enrichment, individual detail lookup, and the
// per-identity library calls.
package service

import (
	"context"
	"errors"
	"log/slog"

	"playdex/internal/catalog/models"
	"playdex/internal/sentinel"
	"playdex/internal/steam"
	dErrors "playdex/pkg/domain-errors"
)

// Canonical pagination defaults. The browse endpoint falls back to these for
// absent or non-positive parameters.
const (
	DefaultPage     = 1
	DefaultPageSize = 30
)

// Catalog is the cached index and detail store the service reads from.
type Catalog interface {
	Index(ctx context.Context) *models.Snapshot
	Detail(ctx context.Context, appID int64) (*steam.AppDetail, error)
}

// Library is the slice of the Steam client serving per-identity data.
type Library interface {
	OwnedGames(ctx context.Context, steamID string) ([]steam.OwnedGame, error)
	GameNews(ctx context.Context, appID int64) ([]steam.NewsItem, error)
}

// Service answers catalog queries. Stateless; all state lives in the cache.
type Service struct {
	catalog Catalog
	library Library
	logger  *slog.Logger
}

// Option configures the Service.
type Option func(*Service)

// New constructs a catalog service over the given cache and library client.
func New(catalog Catalog, library Library, opts ...Option) *Service {
	svc := &Service{
		catalog: catalog,
		library: library,
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.logger == nil {
		svc.logger = slog.Default()
	}
	return svc
}

// WithLogger injects a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// Paginate slices the current index into one page and enriches each entry
// with its detail record. Entries whose detail cannot be resolved are
// filtered out of the page; totals always reflect the full index, so clients
// may receive fewer than pageSize items on a full page.
func (s *Service) Paginate(ctx context.Context, page, pageSize int) *models.Page {
	if page < 1 {
		page = DefaultPage
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}

	snapshot := s.catalog.Index(ctx)
	total := len(snapshot.Apps)
	totalPages := (total + pageSize - 1) / pageSize

	offset := (page - 1) * pageSize
	if offset > total {
		offset = total
	}
	end := offset + pageSize
	if end > total {
		end = total
	}

	games := make([]*steam.AppDetail, 0, end-offset)
	for _, entry := range snapshot.Apps[offset:end] {
		detail, err := s.catalog.Detail(ctx, entry.AppID)
		if err != nil {
			if !errors.Is(err, sentinel.ErrNotFound) {
				s.logger.WarnContext(ctx, "dropping app from page after detail fetch failure",
					"app_id", entry.AppID,
					"error", err,
				)
			}
			continue
		}
		games = append(games, detail)
	}

	return &models.Page{
		Games:       games,
		TotalGames:  total,
		CurrentPage: page,
		TotalPages:  totalPages,
	}
}

// Detail returns the detail record for a single app.
func (s *Service) Detail(ctx context.Context, appID int64) (*steam.AppDetail, error) {
	detail, err := s.catalog.Detail(ctx, appID)
	if err != nil {
		return nil, translate(err, "Game details not found")
	}
	return detail, nil
}

// OwnedGames returns the library of the authenticated account.
func (s *Service) OwnedGames(ctx context.Context, steamID string) ([]steam.OwnedGame, error) {
	games, err := s.library.OwnedGames(ctx, steamID)
	if err != nil {
		return nil, translate(err, "Failed to fetch owned games")
	}
	return games, nil
}

// News returns recent news posts for an app.
func (s *Service) News(ctx context.Context, appID int64) ([]steam.NewsItem, error) {
	news, err := s.library.GameNews(ctx, appID)
	if err != nil {
		return nil, translate(err, "Failed to fetch game news")
	}
	return news, nil
}

// translate maps sentinel errors from the cache and client into domain
// errors exactly once, at the service boundary.
func translate(err error, msg string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, msg)
	case errors.Is(err, sentinel.ErrUnavailable):
		return dErrors.Wrap(err, dErrors.CodeUnavailable, msg)
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, msg)
	}
}

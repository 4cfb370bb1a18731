package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"playdex/internal/catalog/models"
	"playdex/internal/sentinel"
	"playdex/internal/steam"
	dErrors "playdex/pkg/domain-errors"
)

// fakeCatalog serves a fixed snapshot and synthesizes details by id.
// Specific ids can be forced to fail to exercise the filtering contract.
type fakeCatalog struct {
	snapshot  *models.Snapshot
	detailErr map[int64]error
}

func newFakeCatalog(size int) *fakeCatalog {
	apps := make([]steam.AppEntry, 0, size)
	for i := 1; i <= size; i++ {
		apps = append(apps, steam.AppEntry{AppID: int64(i), Name: fmt.Sprintf("Game %d", i)})
	}
	return &fakeCatalog{
		snapshot:  &models.Snapshot{Apps: apps, FetchedAt: time.Unix(1700000000, 0)},
		detailErr: make(map[int64]error),
	}
}

func (f *fakeCatalog) Index(context.Context) *models.Snapshot {
	return f.snapshot
}

func (f *fakeCatalog) Detail(_ context.Context, appID int64) (*steam.AppDetail, error) {
	if err := f.detailErr[appID]; err != nil {
		return nil, err
	}
	return &steam.AppDetail{AppID: appID, Name: fmt.Sprintf("Game %d", appID)}, nil
}

type fakeLibrary struct {
	ownedErr error
	newsErr  error
}

func (f *fakeLibrary) OwnedGames(context.Context, string) ([]steam.OwnedGame, error) {
	if f.ownedErr != nil {
		return nil, f.ownedErr
	}
	return []steam.OwnedGame{{AppID: 440, Name: "Team Fortress 2"}}, nil
}

func (f *fakeLibrary) GameNews(context.Context, int64) ([]steam.NewsItem, error) {
	if f.newsErr != nil {
		return nil, f.newsErr
	}
	return []steam.NewsItem{{GID: "1", Title: "Update"}}, nil
}

func TestPaginateMiddlePage(t *testing.T) {
	svc := New(newFakeCatalog(100), &fakeLibrary{})

	page := svc.Paginate(context.Background(), 2, 10)

	require.Len(t, page.Games, 10)
	assert.Equal(t, int64(11), page.Games[0].AppID)
	assert.Equal(t, int64(20), page.Games[9].AppID)
	assert.Equal(t, 100, page.TotalGames)
	assert.Equal(t, 2, page.CurrentPage)
	assert.Equal(t, 10, page.TotalPages)
}

func TestPaginateDefaults(t *testing.T) {
	svc := New(newFakeCatalog(100), &fakeLibrary{})

	tests := []struct {
		name     string
		page     int
		pageSize int
	}{
		{name: "zero values", page: 0, pageSize: 0},
		{name: "negative values", page: -3, pageSize: -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := svc.Paginate(context.Background(), tt.page, tt.pageSize)

			assert.Equal(t, DefaultPage, page.CurrentPage)
			assert.Len(t, page.Games, DefaultPageSize)
			assert.Equal(t, int64(1), page.Games[0].AppID)
		})
	}
}

func TestPaginateOutOfRangePage(t *testing.T) {
	svc := New(newFakeCatalog(25), &fakeLibrary{})

	page := svc.Paginate(context.Background(), 99, 10)

	assert.Empty(t, page.Games)
	assert.Equal(t, 25, page.TotalGames)
	assert.Equal(t, 99, page.CurrentPage)
	assert.Equal(t, 3, page.TotalPages)
}

func TestPaginateLastPartialPage(t *testing.T) {
	svc := New(newFakeCatalog(25), &fakeLibrary{})

	page := svc.Paginate(context.Background(), 3, 10)

	require.Len(t, page.Games, 5)
	assert.Equal(t, int64(21), page.Games[0].AppID)
	assert.Equal(t, 3, page.TotalPages)
}

func TestPaginateFiltersFailedDetails(t *testing.T) {
	catalog := newFakeCatalog(10)
	catalog.detailErr[3] = fmt.Errorf("gone: %w", sentinel.ErrNotFound)
	catalog.detailErr[7] = fmt.Errorf("storefront: %w", sentinel.ErrUnavailable)
	svc := New(catalog, &fakeLibrary{})

	page := svc.Paginate(context.Background(), 1, 10)

	// Failures shrink the page but not the totals.
	assert.Len(t, page.Games, 8)
	assert.Equal(t, 10, page.TotalGames)
	assert.Equal(t, 1, page.TotalPages)
	for _, game := range page.Games {
		assert.NotEqual(t, int64(3), game.AppID)
		assert.NotEqual(t, int64(7), game.AppID)
	}
}

func TestPaginateTotalPagesRoundsUp(t *testing.T) {
	tests := []struct {
		total      int
		pageSize   int
		totalPages int
	}{
		{total: 100, pageSize: 10, totalPages: 10},
		{total: 101, pageSize: 10, totalPages: 11},
		{total: 9, pageSize: 10, totalPages: 1},
		{total: 0, pageSize: 10, totalPages: 0},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d_by_%d", tt.total, tt.pageSize), func(t *testing.T) {
			svc := New(newFakeCatalog(tt.total), &fakeLibrary{})

			page := svc.Paginate(context.Background(), 1, tt.pageSize)
			assert.Equal(t, tt.totalPages, page.TotalPages)
		})
	}
}

func TestDetailTranslatesNotFound(t *testing.T) {
	catalog := newFakeCatalog(1)
	catalog.detailErr[1] = fmt.Errorf("gone: %w", sentinel.ErrNotFound)
	svc := New(catalog, &fakeLibrary{})

	_, err := svc.Detail(context.Background(), 1)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestOwnedGamesTranslatesUnavailable(t *testing.T) {
	library := &fakeLibrary{ownedErr: fmt.Errorf("api: %w", sentinel.ErrUnavailable)}
	svc := New(newFakeCatalog(1), library)

	_, err := svc.OwnedGames(context.Background(), "76561197960435530")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
}

func TestNews(t *testing.T) {
	svc := New(newFakeCatalog(1), &fakeLibrary{})

	news, err := svc.News(context.Background(), 440)
	require.NoError(t, err)
	require.Len(t, news, 1)
	assert.Equal(t, "Update", news[0].Title)
}

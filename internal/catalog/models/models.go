package models

import (
	"time"

	"playdex/internal/steam"
)

// Snapshot is the full app index captured at one point in time. Snapshots are
// immutable once published and replaced wholesale on refresh, so readers
// never observe a mix of old and new entries.
type Snapshot struct {
	Apps      []steam.AppEntry
	FetchedAt time.Time
}

// Age reports how old the snapshot is at the given instant.
func (s *Snapshot) Age(now time.Time) time.Duration {
	return now.Sub(s.FetchedAt)
}

// Page is one slice of the index with enriched per-item detail.
// TotalGames counts the whole index, not the filtered items, so a page can
// legitimately carry fewer entries than the requested size.
type Page struct {
	Games       []*steam.AppDetail `json:"games"`
	TotalGames  int                `json:"totalGames"`
	CurrentPage int                `json:"currentPage"`
	TotalPages  int                `json:"totalPages"`
}

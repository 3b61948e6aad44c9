// Package news turns raw feed entries into the ordered list of items published today.
package news

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/samber/lo"

	"ramblings/internal/models"
)

// ErrMalformedEntry marks an entry that cannot become a NewsItem.
var ErrMalformedEntry = errors.New("malformed entry")

// Normalize converts a raw entry into a NewsItem. Title and link are kept as-is.
func Normalize(e models.RawEntry, loc *time.Location) (models.NewsItem, error) {
	if e.Title == "" {
		return models.NewsItem{}, fmt.Errorf("%w: missing title (link=%s)", ErrMalformedEntry, e.Link)
	}
	if e.Link == "" {
		return models.NewsItem{}, fmt.Errorf("%w: missing link (title=%q)", ErrMalformedEntry, e.Title)
	}
	published, err := ParsePublished(e.Published, loc)
	if err != nil {
		return models.NewsItem{}, fmt.Errorf("%w: unparseable published date %q: %w", ErrMalformedEntry, e.Published, err)
	}
	return models.NewsItem{
		Title:     e.Title,
		URL:       e.Link,
		Published: published,
		Summary:   e.Summary,
	}, nil
}

// SameDay reports whether a and b fall on the same calendar day in loc.
func SameDay(a, b time.Time, loc *time.Location) bool {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}

// FilterDay keeps the items published on the calendar day of today, both read in loc.
func FilterDay(items []models.NewsItem, today time.Time, loc *time.Location) []models.NewsItem {
	if loc == nil {
		loc = time.Local
	}
	return lo.Filter(items, func(it models.NewsItem, _ int) bool {
		return SameDay(it.Published, today, loc)
	})
}

// DedupByTitle keeps the first item for each exact title, in arrival order.
// The seen set lives only for this call.
func DedupByTitle(items []models.NewsItem) []models.NewsItem {
	return lo.UniqBy(items, func(it models.NewsItem) string {
		return it.Title
	})
}

// SortNewestFirst returns a copy of items ordered by published instant,
// newest first. Items with equal instants keep their relative order.
func SortNewestFirst(items []models.NewsItem) []models.NewsItem {
	out := slices.Clone(items)
	slices.SortStableFunc(out, func(a, b models.NewsItem) int {
		return b.Published.Compare(a.Published)
	})
	return out
}

// Select applies the day filter, title dedup and ordering to the combined items of a run.
func Select(items []models.NewsItem, today time.Time, loc *time.Location) []models.NewsItem {
	return SortNewestFirst(DedupByTitle(FilterDay(items, today, loc)))
}

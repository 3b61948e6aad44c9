package feed

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mmcdole/gofeed"
	"github.com/samber/lo"

	"ramblings/internal/httpclient"
	"ramblings/internal/models"
)

// ErrSourceUnavailable marks a feed that could not be retrieved or parsed.
var ErrSourceUnavailable = errors.New("source unavailable")

const acceptHeader = "application/rss+xml, application/atom+xml, application/feed+json, application/xml;q=0.9, */*;q=0.8"

// Fetcher retrieves one feed and returns its entries.
type Fetcher interface {
	Fetch(ctx context.Context, source string) ([]models.RawEntry, error)
}

// HTTPFetcher fetches feeds over HTTP and parses RSS, Atom and JSON feeds with gofeed.
type HTTPFetcher struct {
	client *httpclient.Client
	parser *gofeed.Parser
}

// NewHTTPFetcher constructs a fetcher on top of client.
func NewHTTPFetcher(client *httpclient.Client) *HTTPFetcher {
	return &HTTPFetcher{client: client, parser: gofeed.NewParser()}
}

// Fetch retrieves and parses the feed at source.
func (f *HTTPFetcher) Fetch(ctx context.Context, source string) ([]models.RawEntry, error) {
	resp, err := f.client.Get(ctx, source, map[string]string{"Accept": acceptHeader})
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	parsed, err := f.parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("feed parse failed: %w", err)
	}

	return lo.FilterMap(parsed.Items, func(it *gofeed.Item, _ int) (models.RawEntry, bool) {
		if it == nil {
			return models.RawEntry{}, false
		}
		return toRawEntry(it), true
	}), nil
}

// toRawEntry copies the fields the pipeline needs. Atom entries without a
// published date fall back to their updated date.
func toRawEntry(it *gofeed.Item) models.RawEntry {
	return models.RawEntry{
		Title:     it.Title,
		Link:      it.Link,
		Published: firstNonEmpty(it.Published, it.Updated),
		Summary:   firstNonEmpty(it.Description, it.Content),
	}
}

// FetchResult is the outcome of fetching one source: either entries or a failure.
type FetchResult struct {
	Source  string
	Entries []models.RawEntry
	Err     error
}

// OK reports whether the source was fetched successfully.
func (r FetchResult) OK() bool {
	return r.Err == nil
}

// FetchAll fetches sources one at a time, in order. A failing source yields a
// result wrapping ErrSourceUnavailable and never stops the remaining sources.
func FetchAll(ctx context.Context, f Fetcher, sources []string) []FetchResult {
	results := make([]FetchResult, 0, len(sources))
	for _, src := range sources {
		results = append(results, fetchOne(ctx, f, src))
	}
	return results
}

func fetchOne(ctx context.Context, f Fetcher, source string) (res FetchResult) {
	res.Source = source
	defer func() {
		if r := recover(); r != nil {
			res.Entries = nil
			res.Err = fmt.Errorf("%w: %s: panic: %v", ErrSourceUnavailable, source, r)
		}
	}()

	if strings.TrimSpace(source) == "" {
		res.Err = fmt.Errorf("%w: empty source", ErrSourceUnavailable)
		return res
	}
	entries, err := f.Fetch(ctx, source)
	if err != nil {
		res.Err = fmt.Errorf("%w: %s: %w", ErrSourceUnavailable, source, err)
		return res
	}
	res.Entries = entries
	return res
}

func firstNonEmpty(ss ...string) string {
	for _, s := range ss {
		if strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

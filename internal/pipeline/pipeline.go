// Package pipeline runs feeds through fetch, normalize, filter, dedup, sort,
// render and write, one source at a time.
package pipeline

import (
	"context"
	"errors"
	"log"
	"time"

	"ramblings/internal/feed"
	"ramblings/internal/models"
	"ramblings/internal/news"
	"ramblings/internal/render"
	"ramblings/internal/sink"
)

// Recorder is told about every document written to disk.
type Recorder interface {
	Record(ctx context.Context, p models.Post) error
}

// Options control one pipeline.
type Options struct {
	// Location is the reference timezone for "today" and for zone-less feed dates.
	// Nil means time.Local.
	Location *time.Location
	// Now returns the run clock; read once per run. Nil means time.Now.
	Now func() time.Time
	// Sink builds the output sink for a run date (DD_MM_YYYY).
	Sink func(runDate string) sink.Sink
	// Recorder is optional.
	Recorder Recorder
	Logger   *log.Logger
}

// Report summarizes a run.
type Report struct {
	RunDate       string
	Sources       int
	FailedSources int
	Entries       int
	Malformed     int
	Kept          int
	Written       int
	Paths         []string
}

// Pipeline turns the feeds of one run into written posts.
type Pipeline struct {
	fetcher feed.Fetcher
	opts    Options
}

// New returns a pipeline reading feeds through fetcher. Nil Location and Now
// default to time.Local and time.Now.
func New(fetcher feed.Fetcher, opts Options) *Pipeline {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Pipeline{fetcher: fetcher, opts: opts}
}

func (p *Pipeline) logf(format string, args ...any) {
	if p.opts.Logger != nil {
		p.opts.Logger.Printf(format, args...)
	}
}

// Run processes sources in order. Feed and entry failures are logged and
// skipped; only an output failure stops the run, leaving earlier files on disk.
func (p *Pipeline) Run(ctx context.Context, sources []string) (Report, error) {
	loc := p.opts.Location
	today := p.opts.Now().In(loc)
	rep := Report{RunDate: sink.RunDate(today), Sources: len(sources)}

	var items []models.NewsItem
	for _, res := range feed.FetchAll(ctx, p.fetcher, sources) {
		if !res.OK() {
			rep.FailedSources++
			p.logf("feed fetch failed: url=%s err=%v", res.Source, res.Err)
			continue
		}
		kept := 0
		for _, e := range res.Entries {
			rep.Entries++
			it, err := news.Normalize(e, loc)
			if err != nil {
				rep.Malformed++
				p.logf("entry dropped: url=%s title=%q err=%v", res.Source, e.Title, err)
				continue
			}
			items = append(items, it)
			kept++
		}
		p.logf("feed parsed: url=%s items=%d normalized=%d", res.Source, len(res.Entries), kept)
	}

	selected := news.Select(items, today, loc)
	rep.Kept = len(selected)
	if len(selected) == 0 {
		p.logf("run completed: date=%s sources=%d failed=%d entries=%d kept=0", rep.RunDate, rep.Sources, rep.FailedSources, rep.Entries)
		return rep, nil
	}
	if p.opts.Sink == nil {
		return rep, errors.New("no output sink configured")
	}
	out := p.opts.Sink(rep.RunDate)

	for i, it := range selected {
		text, err := render.Render(it)
		if err != nil {
			return rep, err
		}
		identity := sink.Identity(rep.RunDate, i)
		path, err := out.Write(ctx, identity, text)
		if err != nil {
			return rep, err
		}
		rep.Written++
		rep.Paths = append(rep.Paths, path)
		p.logf("post written: id=%s title=%q", identity, it.Title)

		if p.opts.Recorder != nil {
			post := models.Post{Identity: identity, RunDate: rep.RunDate, Title: it.Title, URL: it.URL, Published: it.Published, Path: path}
			if err := p.opts.Recorder.Record(ctx, post); err != nil {
				p.logf("ledger record failed: id=%s err=%v", identity, err)
			}
		}
	}

	p.logf("run completed: date=%s sources=%d failed=%d entries=%d malformed=%d kept=%d written=%d",
		rep.RunDate, rep.Sources, rep.FailedSources, rep.Entries, rep.Malformed, rep.Kept, rep.Written)
	return rep, nil
}

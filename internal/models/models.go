package models

import "time"

// RawEntry is one feed item as the feed exposes it, before normalization.
type RawEntry struct {
	Title     string
	Link      string
	Published string // source-defined format
	Summary   string // possibly HTML
}

// NewsItem is the canonical record of an entry that passed normalization.
type NewsItem struct {
	Title     string
	URL       string
	Published time.Time
	Summary   string // raw HTML
}

// Document is the rendered content file for one NewsItem.
type Document struct {
	Identity string
	Text     string
}

// Post describes a document that was written to disk during a run.
type Post struct {
	Identity  string
	RunDate   string
	Title     string
	URL       string
	Published time.Time
	Path      string
}

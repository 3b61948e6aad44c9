package generate

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"ramblings/internal/config"
	"ramblings/internal/ledger"
	"ramblings/internal/sink"
)

var runClock = func() time.Time { return time.Date(2025, 8, 25, 18, 0, 0, 0, time.UTC) }

// Runs a server that serves mock rss information
func createHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/rss", rssHandler)
	mux.HandleFunc("/down", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	})
	return mux
}

func rssHandler(w http.ResponseWriter, r *http.Request) {
	pageContent := `<?xml version="1.0" encoding="utf-8" standalone="yes"?>
	<rss version="2.0">
		<channel>
			<title>Awesome blog</title>
			<link>https://blog.example.com/</link>
			<description>Recent content on the awesome blog</description>
			<item>
				<title>Hello "World"</title>
				<link>https://blog.example.com/articles/1</link>
				<pubDate>Mon, 25 Aug 2025 07:42:16 +0000</pubDate>
				<description>&lt;p&gt;&lt;b&gt;Big&lt;/b&gt; news &amp;amp; more&lt;/p&gt;</description>
			</item>
			<item>
				<title>Afternoon tea</title>
				<link>https://blog.example.com/articles/2</link>
				<pubDate>Mon, 25 Aug 2025 16:00:00 +0000</pubDate>
				<description>Tea time</description>
			</item>
			<item>
				<title>Last week</title>
				<link>https://blog.example.com/articles/3</link>
				<pubDate>Mon, 18 Aug 2025 07:42:16 +0000</pubDate>
				<description>Old</description>
			</item>
			<item>
				<title>No date</title>
				<link>https://blog.example.com/articles/4</link>
				<description>Undated</description>
			</item>
		</channel>
	</rss>`

	w.Header().Set("Content-Type", "application/xml")
	w.Write([]byte(pageContent))
}

func writeFeeds(t *testing.T, dir string, feeds map[string]string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	for name, url := range feeds {
		content := fmt.Sprintf("Feed: %s\n", url)
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestRun(t *testing.T) {
	server := httptest.NewServer(createHandler())
	defer server.Close()

	work := t.TempDir()
	feedsDir := filepath.Join(work, "data")
	outputDir := filepath.Join(work, "site", "content", "post")
	dbPath := filepath.Join(work, "ramblings.db")
	writeFeeds(t, feedsDir, map[string]string{
		"01-blog.yml": server.URL + "/rss",
		"02-down.yml": server.URL + "/down",
	})

	loader := func() (config.AppConfig, error) {
		c := config.Defaults()
		c.Timezone = "UTC"
		c.Ledger.Path = dbPath
		return c, nil
	}

	var logs bytes.Buffer
	rep, err := Run(t.Context(), Options{FeedsDir: feedsDir, OutputDir: outputDir, Now: runClock, Stdout: &logs}, loader)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if rep.Sources != 2 || rep.FailedSources != 1 || rep.Malformed != 1 || rep.Written != 2 {
		t.Fatalf("unexpected report %+v", rep)
	}

	runDir := filepath.Join(outputDir, "25_08_2025")
	first, err := os.ReadFile(filepath.Join(runDir, "25_08_2025_0.md"))
	if err != nil {
		t.Fatalf("read first post: %v", err)
	}
	wantFirst := `---
title: "Afternoon tea"
date: 2025-08-25T16:00:00Z
link: https://blog.example.com/articles/2
showShare: false
showReadTime: false
---
- Link to article: https://blog.example.com/articles/2

Tea time`
	if string(first) != wantFirst {
		t.Errorf("first post =\n%s\nwant\n%s", first, wantFirst)
	}

	second, err := os.ReadFile(filepath.Join(runDir, "25_08_2025_1.md"))
	if err != nil {
		t.Fatalf("read second post: %v", err)
	}
	if !strings.Contains(string(second), `title: "Hello \"World\""`) {
		t.Errorf("second post title not escaped:\n%s", second)
	}
	if !strings.HasSuffix(string(second), "\n\nBig news & more") {
		t.Errorf("second post summary not stripped:\n%s", second)
	}

	entries, err := os.ReadDir(runDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Errorf("expected 2 files in %s, found %d", runDir, len(entries))
	}

	if !strings.Contains(logs.String(), "feed fetch failed") {
		t.Errorf("expected the failing feed to be logged, logs:\n%s", logs.String())
	}

	db, err := ledger.Open(dbPath)
	if err != nil {
		t.Fatalf("Could not open db: %v", err)
	}
	defer db.Close()
	posts, err := ledger.ListByRunDate(t.Context(), db, "25_08_2025")
	if err != nil {
		t.Fatalf("ListByRunDate() error = %v", err)
	}
	if len(posts) != 2 || posts[0].Title != "Afternoon tea" {
		t.Errorf("unexpected ledger content %+v", posts)
	}
}

func TestRun_OutputFailure(t *testing.T) {
	server := httptest.NewServer(createHandler())
	defer server.Close()

	work := t.TempDir()
	feedsDir := filepath.Join(work, "data")
	writeFeeds(t, feedsDir, map[string]string{"blog.yml": server.URL + "/rss"})
	blocked := filepath.Join(work, "blocked")
	if err := os.WriteFile(blocked, []byte("not a dir"), 0o644); err != nil {
		t.Fatal(err)
	}

	loader := func() (config.AppConfig, error) {
		c := config.Defaults()
		c.Timezone = "UTC"
		return c, nil
	}
	_, err := Run(t.Context(), Options{FeedsDir: feedsDir, OutputDir: blocked, NoLedger: true, Now: runClock, Stdout: &bytes.Buffer{}}, loader)
	if !errors.Is(err, sink.ErrOutputWrite) {
		t.Fatalf("Run() error = %v, want ErrOutputWrite", err)
	}
}

func TestRun_ConfigError(t *testing.T) {
	loader := func() (config.AppConfig, error) {
		return config.AppConfig{}, errors.New("broken config")
	}
	if _, err := Run(t.Context(), Options{Stdout: &bytes.Buffer{}}, loader); err == nil {
		t.Fatal("expected loader error to propagate")
	}
}

func TestRun_LogFile(t *testing.T) {
	work := t.TempDir()
	feedsDir := filepath.Join(work, "data")
	writeFeeds(t, feedsDir, nil)
	logFile := filepath.Join(work, "logs", "ramblings.log")

	loader := func() (config.AppConfig, error) {
		c := config.Defaults()
		c.Timezone = "UTC"
		return c, nil
	}
	var stdout bytes.Buffer
	_, err := Run(t.Context(), Options{FeedsDir: feedsDir, OutputDir: filepath.Join(work, "out"), LogFile: logFile, NoLedger: true, Now: runClock, Stdout: &stdout}, loader)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	b, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	if !strings.Contains(string(b), "run completed") {
		t.Errorf("log file missing run summary:\n%s", b)
	}
	if stdout.Len() != 0 {
		t.Errorf("stdout should be silent when logging to a file, got %q", stdout.String())
	}
}

func TestRun_LogFileDirUnavailable(t *testing.T) {
	work := t.TempDir()
	feedsDir := filepath.Join(work, "data")
	writeFeeds(t, feedsDir, nil)
	blocked := filepath.Join(work, "blocked")
	if err := os.WriteFile(blocked, []byte("not a dir"), 0o644); err != nil {
		t.Fatal(err)
	}

	loader := func() (config.AppConfig, error) {
		c := config.Defaults()
		c.Timezone = "UTC"
		return c, nil
	}
	var stdout bytes.Buffer
	logFile := filepath.Join(blocked, "logs", "ramblings.log")
	_, err := Run(t.Context(), Options{FeedsDir: feedsDir, OutputDir: filepath.Join(work, "out"), LogFile: logFile, NoLedger: true, Now: runClock, Stdout: &stdout}, loader)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.Contains(stdout.String(), "log file unavailable, using stdout: path="+logFile) {
		t.Errorf("expected the log file fallback to be reported, got:\n%s", stdout.String())
	}
	if !strings.Contains(stdout.String(), "run completed") {
		t.Errorf("expected the run to keep logging to stdout, got:\n%s", stdout.String())
	}
}

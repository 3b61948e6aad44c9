package list

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"ramblings/internal/ledger"
)

// Run prints the posts the ledger at dbPath recorded for runDate (DD_MM_YYYY).
func Run(ctx context.Context, w io.Writer, dbPath, runDate string) error {
	if !fileExists(dbPath) {
		fmt.Fprintf(w, "Ramblings ledger not found at %s\n", dbPath)
		fmt.Fprintln(w, "Hint: Run 'ramblings' once to generate posts, or set ledger.path in ramblings.yaml.")
		return nil
	}

	db, err := ledger.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed opening the ledger: %w", err)
	}
	defer db.Close()

	posts, err := ledger.ListByRunDate(ctx, db, runDate)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "no such table") {
			fmt.Fprintln(w, "Ramblings ledger is present but not initialized (missing tables)")
			return nil
		}
		return fmt.Errorf("query failed while reading from the ledger: %w", err)
	}

	if len(posts) == 0 {
		fmt.Fprintf(w, "No posts recorded for %s.\n", runDate)
		return nil
	}

	fmt.Fprintf(w, "Found %d posts for %s:\n\n", len(posts), runDate)
	for _, p := range posts {
		fmt.Fprintf(w, "ID: %s\n", p.Identity)
		fmt.Fprintf(w, "Title: %s\n", p.Title)
		fmt.Fprintf(w, "Date: %s\n", p.Published.Format("2006-01-02 15:04:05 -0700"))
		fmt.Fprintf(w, "Link: %s\n", p.URL)
		fmt.Fprintf(w, "File: %s\n", p.Path)
		fmt.Fprintln(w, strings.Repeat("-", 80))
	}
	return nil
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

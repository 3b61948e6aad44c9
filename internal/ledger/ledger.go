// Package ledger keeps a SQLite record of the posts each run wrote to disk.
// It is informational only: the pipeline never reads it back for dedup.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"ramblings/internal/models"
)

func Open(dbPath string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	return db, nil
}

// RecordPost inserts or replaces the row for p.Identity.
func RecordPost(ctx context.Context, db *sql.DB, p models.Post, writtenAt time.Time) error {
	if strings.TrimSpace(p.Identity) == "" || strings.TrimSpace(p.RunDate) == "" {
		return errors.New("missing identity or run date")
	}
	_, err := db.ExecContext(ctx, `INSERT INTO post_log
        (identity, run_date, title, url, published, path, written_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(identity) DO UPDATE SET
           run_date=excluded.run_date,
           title=excluded.title,
           url=excluded.url,
           published=excluded.published,
           path=excluded.path,
           written_at=excluded.written_at
        `,
		p.Identity, p.RunDate, p.Title, p.URL, p.Published.Format(time.RFC3339Nano), p.Path, writtenAt.UTC().Format(time.RFC3339),
	)
	return err
}

// ListByRunDate returns the posts of one run date, in emission order.
func ListByRunDate(ctx context.Context, db *sql.DB, runDate string) ([]models.Post, error) {
	rows, err := db.QueryContext(ctx, `SELECT identity, run_date, title, url, published, path
FROM post_log WHERE run_date = ?`, runDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.Post
	for rows.Next() {
		var p models.Post
		var published string
		if err := rows.Scan(&p.Identity, &p.RunDate, &p.Title, &p.URL, &published, &p.Path); err != nil {
			return nil, err
		}
		if t, err := time.Parse(time.RFC3339Nano, published); err == nil {
			p.Published = t
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sortByIndex(out)
	return out, nil
}

// Recorder adapts a ledger DB to the pipeline's post recorder.
type Recorder struct {
	db  *sql.DB
	now func() time.Time
}

// NewRecorder makes sure the schema exists and returns a recorder on db.
func NewRecorder(db *sql.DB) (*Recorder, error) {
	if db == nil {
		return nil, errors.New("nil db")
	}
	if err := InitSchema(db); err != nil {
		return nil, err
	}
	return &Recorder{db: db, now: time.Now}, nil
}

func (r *Recorder) Record(ctx context.Context, p models.Post) error {
	return RecordPost(ctx, r.db, p, r.now())
}

// sortByIndex orders posts by the emission counter at the end of their identity.
func sortByIndex(posts []models.Post) {
	index := func(id string) int {
		i := strings.LastIndex(id, "_")
		n, err := strconv.Atoi(id[i+1:])
		if err != nil {
			return -1
		}
		return n
	}
	slices.SortStableFunc(posts, func(a, b models.Post) int {
		return index(a.Identity) - index(b.Identity)
	})
}

package ledger

import "database/sql"

// InitSchema ensures the DB has the tables needed for the post ledger.
func InitSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS post_log (
            identity TEXT PRIMARY KEY,
            run_date TEXT NOT NULL,
            title TEXT NOT NULL,
            url TEXT NOT NULL,
            published TEXT NOT NULL,
            path TEXT NOT NULL,
            written_at TEXT NOT NULL
        )`,
		`CREATE INDEX IF NOT EXISTS idx_post_log_run_date ON post_log(run_date)`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

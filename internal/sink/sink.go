package sink

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// ErrOutputWrite marks a failure to create or write an output file. It aborts the run.
var ErrOutputWrite = errors.New("output write failed")

// RunDateLayout formats the run date used for directory and file names (DD_MM_YYYY).
const RunDateLayout = "02_01_2006"

// Sink persists one rendered document and returns where it went.
type Sink interface {
	Write(ctx context.Context, identity, text string) (string, error)
}

// RunDate formats t as the per-run directory name.
func RunDate(t time.Time) string {
	return t.Format(RunDateLayout)
}

// Identity is the file-safe name of the index-th document of a run.
func Identity(runDate string, index int) string {
	return runDate + "_" + strconv.Itoa(index)
}

// DirSink writes documents to Root/<RunDate>/<identity>.md.
type DirSink struct {
	Root    string
	RunDate string
}

// NewDirSink returns a sink writing under root for the given run date.
func NewDirSink(root, runDate string) *DirSink {
	return &DirSink{Root: root, RunDate: runDate}
}

// Dir is the directory this run writes into.
func (s *DirSink) Dir() string {
	return filepath.Join(s.Root, s.RunDate)
}

// Write creates the run directory if needed and writes (or overwrites) the file.
func (s *DirSink) Write(ctx context.Context, identity, text string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %w", ErrOutputWrite, err)
	}
	dir := s.Dir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: create directory %s: %w", ErrOutputWrite, dir, err)
	}
	path := filepath.Join(dir, identity+".md")
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return "", fmt.Errorf("%w: write %s: %w", ErrOutputWrite, path, err)
	}
	return path, nil
}

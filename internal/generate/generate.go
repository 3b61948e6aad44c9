package generate

import (
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ramblings/internal/config"
	"ramblings/internal/feed"
	"ramblings/internal/httpclient"
	"ramblings/internal/ledger"
	"ramblings/internal/pipeline"
	"ramblings/internal/sink"
)

// Options allow overriding config values from CLI flags.
type Options struct {
	FeedsDir  string
	OutputDir string
	Timezone  string
	LogFile   string
	NoLedger  bool

	// Now overrides the run clock in tests.
	Now func() time.Time
	// Stdout receives log lines when no log file is set. Defaults to os.Stdout.
	Stdout io.Writer
}

// Run executes a single generator run. Scheduling is delegated to launchd/cron.
func Run(ctx context.Context, opts Options, load config.ConfigLoad) (pipeline.Report, error) {
	appCfg, err := load()
	if err != nil {
		return pipeline.Report{}, err
	}
	applyOverrides(&appCfg, opts)

	out := opts.Stdout
	if out == nil {
		out = os.Stdout
	}
	logger := log.New(out, "[ramblings] ", log.LstdFlags)
	if logFile := strings.TrimSpace(appCfg.LogFile); logFile != "" {
		logFile = config.ExpandPath(logFile)
		if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil {
			logger.Printf("log file unavailable, using stdout: path=%s err=%v", logFile, err)
		} else if f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644); err != nil {
			logger.Printf("log file unavailable, using stdout: path=%s err=%v", logFile, err)
		} else {
			logger.SetOutput(f)
			defer f.Close()
		}
	}

	return runGenerate(ctx, logger, appCfg, opts)
}

func applyOverrides(ac *config.AppConfig, opts Options) {
	if v := strings.TrimSpace(opts.FeedsDir); v != "" {
		ac.FeedsDir = v
	}
	if v := strings.TrimSpace(opts.OutputDir); v != "" {
		ac.OutputDir = v
	}
	if v := strings.TrimSpace(opts.Timezone); v != "" {
		ac.Timezone = v
	}
	if v := strings.TrimSpace(opts.LogFile); v != "" {
		ac.LogFile = v
	}
	if opts.NoLedger {
		ac.Ledger.Path = "off"
	}
}

func runGenerate(ctx context.Context, logger *log.Logger, appCfg config.AppConfig, opts Options) (pipeline.Report, error) {
	loc, err := appCfg.Location()
	if err != nil {
		return pipeline.Report{}, err
	}
	sources, err := config.LoadFeedSources(appCfg.FeedsDir, logger)
	if err != nil {
		return pipeline.Report{}, err
	}
	logger.Printf("run started: feeds=%d feeds_dir=%s output_dir=%s tz=%s", len(sources), appCfg.FeedsDir, appCfg.OutputDir, loc)

	var recorder pipeline.Recorder
	if appCfg.LedgerEnabled() {
		dbPath := config.ExpandPath(appCfg.Ledger.Path)
		db, err := ledger.Open(dbPath)
		if err == nil {
			defer db.Close()
			rec, rerr := ledger.NewRecorder(db)
			if rerr == nil {
				recorder = rec
			} else {
				err = rerr
			}
		}
		if err != nil {
			logger.Printf("ledger unavailable: path=%s err=%v", dbPath, err)
		}
	}

	client := httpclient.New(appCfg.FetchTimeout(), appCfg.Fetch.UserAgent)
	outputDir := config.ExpandPath(appCfg.OutputDir)
	p := pipeline.New(feed.NewHTTPFetcher(client), pipeline.Options{
		Location: loc,
		Now:      opts.Now,
		Sink: func(runDate string) sink.Sink {
			return sink.NewDirSink(outputDir, runDate)
		},
		Recorder: recorder,
		Logger:   logger,
	})
	return p.Run(ctx, sources)
}

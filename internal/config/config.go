package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultFeedsDir   = "./data"
	DefaultOutputDir  = "site/dotnetramblings/content/post"
	DefaultConfigPath = "ramblings.yaml"
	DefaultLedgerPath = "ramblings.db"
	DefaultUserAgent  = "Ramblings/Go-Generator"
)

type ConfigLoad func() (AppConfig, error)

// AppConfigLoader returns a loader reading the config file at path.
func AppConfigLoader(path string) ConfigLoad {
	return func() (AppConfig, error) {
		return LoadAppConfig(path)
	}
}

type FetchConfig struct {
	TimeoutSec int    `yaml:"timeout"`
	UserAgent  string `yaml:"user_agent"`
}

type LedgerConfig struct {
	Path string `yaml:"path"`
}

// AppConfig carries the settings of a generator run.
type AppConfig struct {
	FeedsDir  string       `yaml:"feeds_dir"`
	OutputDir string       `yaml:"output_dir"`
	Timezone  string       `yaml:"timezone"`
	LogFile   string       `yaml:"log_file"`
	Fetch     FetchConfig  `yaml:"fetch"`
	Ledger    LedgerConfig `yaml:"ledger"`
}

// Defaults returns the configuration used when no file is present.
func Defaults() AppConfig {
	return AppConfig{
		FeedsDir:  DefaultFeedsDir,
		OutputDir: DefaultOutputDir,
		Fetch: FetchConfig{
			TimeoutSec: 30,
			UserAgent:  DefaultUserAgent,
		},
		Ledger: LedgerConfig{Path: DefaultLedgerPath},
	}
}

// LoadAppConfig reads the YAML config at path on top of Defaults.
// A missing file is not an error.
func LoadAppConfig(path string) (AppConfig, error) {
	ac := Defaults()
	if strings.TrimSpace(path) == "" {
		path = DefaultConfigPath
	}
	b, err := os.ReadFile(ExpandPath(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ac, nil
		}
		return ac, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	var fileCfg AppConfig
	if err := yaml.Unmarshal(b, &fileCfg); err != nil {
		return ac, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	ac.merge(fileCfg)
	return ac, nil
}

func (ac *AppConfig) merge(o AppConfig) {
	if v := strings.TrimSpace(o.FeedsDir); v != "" {
		ac.FeedsDir = v
	}
	if v := strings.TrimSpace(o.OutputDir); v != "" {
		ac.OutputDir = v
	}
	if v := strings.TrimSpace(o.Timezone); v != "" {
		ac.Timezone = v
	}
	if v := strings.TrimSpace(o.LogFile); v != "" {
		ac.LogFile = v
	}
	if o.Fetch.TimeoutSec > 0 {
		ac.Fetch.TimeoutSec = o.Fetch.TimeoutSec
	}
	if v := strings.TrimSpace(o.Fetch.UserAgent); v != "" {
		ac.Fetch.UserAgent = v
	}
	// An explicit empty ledger path in the file keeps the default; use "off" to disable.
	if v := strings.TrimSpace(o.Ledger.Path); v != "" {
		ac.Ledger.Path = v
	}
}

// LedgerEnabled reports whether emitted posts should be recorded.
func (ac AppConfig) LedgerEnabled() bool {
	p := strings.TrimSpace(ac.Ledger.Path)
	return p != "" && !strings.EqualFold(p, "off")
}

// Location resolves the reference timezone used to compute "today".
// Empty or "Local" means the process local zone.
func (ac AppConfig) Location() (*time.Location, error) {
	tz := strings.TrimSpace(ac.Timezone)
	if tz == "" || strings.EqualFold(tz, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", tz, err)
	}
	return loc, nil
}

// FetchTimeout returns the per-request HTTP timeout.
func (ac AppConfig) FetchTimeout() time.Duration {
	if ac.Fetch.TimeoutSec <= 0 {
		return 30 * time.Second
	}
	return time.Duration(ac.Fetch.TimeoutSec) * time.Second
}

// ExpandPath expands leading ~ and environment variables in a filesystem path.
func ExpandPath(p string) string {
	if p == "" {
		return p
	}
	p = os.ExpandEnv(p)
	if strings.HasPrefix(p, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			if p == "~" {
				p = home
			} else if strings.HasPrefix(p, "~/") {
				p = filepath.Join(home, p[2:])
			}
		}
	}
	return p
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// WriteConfig renders ac as a commented ramblings.yaml at path.
// An existing file is backed up first and its ledger path is kept.
func WriteConfig(path string, ac AppConfig) error {
	if strings.TrimSpace(path) == "" {
		path = DefaultConfigPath
	}
	path = ExpandPath(path)
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	// Preserve existing ledger path if present (avoid clobber).
	if prev, err := loadExistingConfig(path); err == nil {
		if led, ok := prev["ledger"].(map[string]any); ok {
			if v, ok := led["path"].(string); ok && strings.TrimSpace(v) != "" {
				ac.Ledger.Path = v
			}
		}
		if err := BackupFile(path); err != nil {
			return fmt.Errorf("failed to back up %s: %w", path, err)
		}
	}

	var sb strings.Builder
	sb.WriteString("# Ramblings configuration\n")
	sb.WriteString("# Directory holding one *.yml per feed (Feed: <url>)\n")
	sb.WriteString(fmt.Sprintf("feeds_dir: %q\n", ac.FeedsDir))
	sb.WriteString("# Hugo content directory; posts land in <output_dir>/DD_MM_YYYY/\n")
	sb.WriteString(fmt.Sprintf("output_dir: %q\n", ac.OutputDir))
	sb.WriteString("# IANA zone deciding which day is \"today\" (empty means Local)\n")
	sb.WriteString(fmt.Sprintf("timezone: %q\n", ac.Timezone))
	if strings.TrimSpace(ac.LogFile) != "" {
		sb.WriteString(fmt.Sprintf("log_file: %q\n", ac.LogFile))
	}
	sb.WriteString("fetch:\n")
	sb.WriteString(fmt.Sprintf("  timeout: %d\n", ac.Fetch.TimeoutSec))
	sb.WriteString(fmt.Sprintf("  user_agent: %q\n", ac.Fetch.UserAgent))
	sb.WriteString("# Set path to off to stop recording written posts\n")
	sb.WriteString("ledger:\n")
	sb.WriteString(fmt.Sprintf("  path: %q\n", ac.Ledger.Path))

	return os.WriteFile(path, []byte(sb.String()), 0o644)
}

// loadExistingConfig loads existing configuration from a file
func loadExistingConfig(path string) (map[string]any, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var m map[string]any
	if err := yaml.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// BackupFile creates a backup of the specified file with a timestamp
func BackupFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	ts := time.Now().Format("20060102-150405")
	bak := path + ".bak-" + ts
	return os.WriteFile(bak, b, 0o644)
}

package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// feedFile is the shape of one feed declaration, e.g. `Feed: https://example.com/rss`.
type feedFile struct {
	Feed string `yaml:"Feed"`
}

// LoadFeedSources returns the feed URLs declared in dir/*.yml, in filename order.
// Files that cannot be read or carry no Feed key are logged and skipped.
func LoadFeedSources(dir string, logger *log.Logger) ([]string, error) {
	dir = ExpandPath(dir)
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("feeds directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("feeds directory %s is not a directory", dir)
	}
	paths, err := filepath.Glob(filepath.Join(dir, "*.yml"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	var urls []string
	for _, p := range paths {
		u, err := readFeedFile(p)
		if err != nil {
			if logger != nil {
				logger.Printf("feed declaration skipped: file=%s err=%v", p, err)
			}
			continue
		}
		urls = append(urls, u)
	}
	return urls, nil
}

func readFeedFile(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	var ff feedFile
	if err := yaml.Unmarshal(b, &ff); err != nil {
		return "", fmt.Errorf("invalid yaml: %w", err)
	}
	u := strings.TrimSpace(ff.Feed)
	if u == "" {
		return "", fmt.Errorf("missing Feed key")
	}
	return u, nil
}

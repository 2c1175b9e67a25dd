package rules

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
)

// CacheEntry stores cached URL data with timestamp.
type CacheEntry struct {
	FetchedAt time.Time `json:"fetched_at"`
	RulesFile string    `json:"rules_file"` // Relative filename for rules data
}

// Loader fetches and parses redirect rule files from local paths or URLs.
type Loader struct {
	Client  *http.Client
	DataDir string // Directory for caching URL data
}

// NewLoader creates a new Loader with a default HTTP client.
func NewLoader(dataDir string) *Loader {
	return &Loader{
		Client: &http.Client{
			Timeout: 30 * time.Second,
		},
		DataDir: dataDir,
	}
}

// LoadFromPath reads a rule file from the local filesystem.
func (l *Loader) LoadFromPath(path string) ([]*Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	rules, err := ParseRuleFile(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rules, nil
}

// LoadFromURLWithCache fetches a rule file, falling back to the on-disk copy
// from a previous fetch when one exists.
func (l *Loader) LoadFromURLWithCache(url string) ([]*Rule, error) {
	cacheKey := urlToCacheKey(url)
	metaFile := filepath.Join(l.DataDir, cacheKey+".meta.json")
	rulesFile := filepath.Join(l.DataDir, cacheKey+".rules.yaml")

	// 1. Try to load from cache first
	if _, err := os.Stat(rulesFile); err == nil {
		if rules, loadErr := l.LoadFromPath(rulesFile); loadErr == nil {
			log.Debug().Str("url", url).Msg("using cached rule file")
			return rules, nil
		} else {
			log.Warn().Str("url", url).Err(loadErr).Msg("failed to load cached rule file")
		}
	}

	// 2. Fallback: fetch fresh data
	log.Info().Str("url", url).Msg("fetching rule file")
	resp, err := l.Client.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bad status: %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	rules, err := ParseRuleFile(body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", url, err)
	}

	// Cache only after the payload parsed cleanly; a broken cache file would
	// shadow the remote source until it expires.
	if err := os.MkdirAll(l.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}
	if err := os.WriteFile(rulesFile, body, 0644); err != nil {
		return nil, fmt.Errorf("failed to write cache file: %w", err)
	}

	meta := CacheEntry{
		FetchedAt: time.Now(),
		RulesFile: cacheKey + ".rules.yaml",
	}
	l.writeCacheMeta(metaFile, meta)

	log.Info().Str("url", url).Int("rules", len(rules)).Msg("cached rule file")
	return rules, nil
}

func (l *Loader) writeCacheMeta(path string, entry CacheEntry) error {
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func urlToCacheKey(url string) string {
	hash := sha256.Sum256([]byte(url))
	return hex.EncodeToString(hash[:8]) // First 8 bytes (16 chars)
}

package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// persistedConfig is the JSON structure stored in ~/.comiclist/config.json.
type persistedConfig struct {
	APIKey  string `json:"api_key,omitempty"`  // Comic Vine API key (stored with 0600 permissions)
	BaseURL string `json:"base_url,omitempty"` // Custom API base URL
}

// dataDir returns the directory holding config and the owned-volumes
// database. COMICLIST_DATA overrides the default under the home directory.
func dataDir() string {
	if dir := os.Getenv("COMICLIST_DATA"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".comiclist")
}

func configFilePath() string {
	dir := dataDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.json")
}

// loadPersistedConfig reads config.json if it exists.
func loadPersistedConfig() (*persistedConfig, error) {
	path := configFilePath()
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var cfg persistedConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &cfg, nil
}

// savePersistedConfig writes config.json with 0600 permissions.
func savePersistedConfig(cfg *persistedConfig) error {
	path := configFilePath()
	if path == "" {
		return fmt.Errorf("cannot determine config path")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// runConfigure prompts for the API key and optional base URL and persists
// them.
func runConfigure() {
	reader := bufio.NewReader(os.Stdin)

	existing, _ := loadPersistedConfig()
	if existing == nil {
		existing = &persistedConfig{}
	}

	fmt.Printf("Comic Vine API key")
	if existing.APIKey != "" {
		fmt.Printf(" [%s…]", existing.APIKey[:min(8, len(existing.APIKey))])
	}
	fmt.Print(": ")
	if key := readLine(reader); key != "" {
		existing.APIKey = key
	}

	fmt.Printf("API base URL (empty for default): ")
	if base := readLine(reader); base != "" {
		existing.BaseURL = base
	}

	if existing.APIKey == "" {
		fmt.Fprintln(os.Stderr, "an API key is required; get one at https://comicvine.gamespot.com/api/")
		os.Exit(1)
	}

	if err := savePersistedConfig(existing); err != nil {
		fmt.Fprintf(os.Stderr, "saving config: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("saved %s\n", configFilePath())
}

func readLine(r *bufio.Reader) string {
	line, _ := r.ReadString('\n')
	return strings.TrimSpace(line)
}

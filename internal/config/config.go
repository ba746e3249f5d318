package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"dario.cat/mergo"
	"github.com/tidwall/jsonc"
)

// ErrMissingToken indicates the required GitHub access token is absent.
// It is fatal at startup: without it no repository call can succeed.
var ErrMissingToken = errors.New("GITHUB_TOKEN is missing: set it as an environment variable or in the config file")

// Load reads configuration in resolution order: built-in defaults →
// JSONC config file → environment variable overrides. If path is empty
// the default user config path (~/.config/autopr/autopr.jsonc) is used.
// A missing config file is not an error; the file layer is optional.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = DefaultPath()
	}
	if path != "" {
		if fileMap, err := loadJSONC(path); err == nil {
			if err := mergeIntoConfig(&cfg, fileMap); err != nil {
				return nil, fmt.Errorf("merging config file %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, err
		}
	}

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// Validate checks invariants that must hold before the service starts.
func (c *Config) Validate() error {
	if c.GitHub.Token == "" {
		return ErrMissingToken
	}
	return nil
}

// DefaultPath returns the user-level config file path, or empty string
// if the user config directory cannot be determined.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "autopr", "autopr.jsonc")
}

// loadJSONC reads a JSONC file and returns it as a map.
func loadJSONC(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	jsonData := jsonc.ToJSON(data)
	var m map[string]any
	if err := json.Unmarshal(jsonData, &m); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return m, nil
}

// mergeIntoConfig marshals the config to a map, deep-merges the source
// map over it, then unmarshals back to the Config struct.
func mergeIntoConfig(cfg *Config, src map[string]any) error {
	cfgBytes, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	var dst map[string]any
	if err := json.Unmarshal(cfgBytes, &dst); err != nil {
		return err
	}

	if err := mergo.Merge(&dst, src, mergo.WithOverride); err != nil {
		return err
	}

	merged, err := json.Marshal(dst)
	if err != nil {
		return err
	}
	return json.Unmarshal(merged, cfg)
}

// applyEnvOverrides applies environment variable overrides to the
// config. Environment values win over file values.
func applyEnvOverrides(cfg *Config) {
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		cfg.GitHub.Token = token
	}
	if org := os.Getenv("ORG_NAME"); org != "" {
		cfg.GitHub.Org = org
	}
	if repo := os.Getenv("REPO_NAME"); repo != "" {
		cfg.GitHub.Repo = repo
	}
	if secret := os.Getenv("GITHUB_WEBHOOK_SECRET"); secret != "" {
		cfg.GitHub.WebhookSecret = secret
	}
	if url := os.Getenv("DISCORD_WEBHOOK_URL"); url != "" {
		cfg.Discord.WebhookURL = url
	}
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}
	if model := os.Getenv("AUTOPR_MODEL"); model != "" {
		cfg.Analyzer.Model = model
	}
}

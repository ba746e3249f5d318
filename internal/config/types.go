package config

import "time"

// Config is the top-level autopr configuration.
type Config struct {
	GitHub   GitHubConfig   `json:"github"`
	Discord  DiscordConfig  `json:"discord"`
	Server   ServerConfig   `json:"server"`
	Analyzer AnalyzerConfig `json:"analyzer"`
	Webhook  WebhookConfig  `json:"webhook"`
}

// GitHubConfig identifies the repository the service operates on.
type GitHubConfig struct {
	Token         string `json:"token"`
	Org           string `json:"org"`
	Repo          string `json:"repo"`
	WebhookSecret string `json:"webhook_secret,omitempty"`
}

// FullRepo returns the "org/repo" form used in notifications.
func (g GitHubConfig) FullRepo() string {
	return g.Org + "/" + g.Repo
}

// DiscordConfig holds the chat notification settings. An empty webhook
// URL disables notifications entirely.
type DiscordConfig struct {
	WebhookURL string `json:"webhook_url"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Port int `json:"port"`
}

// AnalyzerConfig controls prompt assembly and the model call.
type AnalyzerConfig struct {
	Model         string `json:"model"`
	MaxPatchChars int    `json:"max_patch_chars"`
	MaxDiffChars  int    `json:"max_diff_chars"`
	Timeout       string `json:"timeout"`
}

// ParseTimeout returns the model call timeout as a time.Duration.
func (a AnalyzerConfig) ParseTimeout() time.Duration {
	d, err := time.ParseDuration(a.Timeout)
	if err != nil {
		return 2 * time.Minute
	}
	return d
}

// WebhookConfig controls what the webhook dispatcher does after a
// pull_request event has been analyzed.
type WebhookConfig struct {
	AutoMerge *bool `json:"auto_merge"`
}

// IsAutoMergeEnabled returns whether the dispatcher attempts a merge
// after analysis. Defaults to true when not explicitly set.
func (w WebhookConfig) IsAutoMergeEnabled() bool {
	if w.AutoMerge == nil {
		return true
	}
	return *w.AutoMerge
}

// DefaultConfig returns the built-in defaults, before any config file
// or environment overrides are applied.
func DefaultConfig() Config {
	return Config{
		GitHub: GitHubConfig{
			Org:  "stormyy00",
			Repo: "email-automation",
		},
		Server: ServerConfig{
			Port: 5000,
		},
		Analyzer: AnalyzerConfig{
			Model:         "gpt-4.1",
			MaxPatchChars: 2000,
			MaxDiffChars:  15000,
			Timeout:       "120s",
		},
	}
}

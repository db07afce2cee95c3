// Package config loads service configuration from the environment.
package config

import (
	"errors"

	"github.com/spf13/viper"
)

// Config is read once at start-up and passed explicitly into
// constructors; nothing mutates it afterwards.
type Config struct {
	Port        string
	GitHubToken string
	Owner       string
	Repo        string
	FilePath    string
	APIBaseURL  string
}

// Load reads the environment via viper and validates the result.
// GITHUB_TOKEN, GITHUB_OWNER and GITHUB_REPO are required; the rest
// default.
func Load() (*Config, error) {
	v := viper.New()
	v.SetDefault("port", "8080")
	v.SetDefault("github_file_path", "tokens.json")
	v.SetDefault("github_api_url", "https://api.github.com")
	v.AutomaticEnv()

	cfg := &Config{
		Port:        v.GetString("port"),
		GitHubToken: v.GetString("github_token"),
		Owner:       v.GetString("github_owner"),
		Repo:        v.GetString("github_repo"),
		FilePath:    v.GetString("github_file_path"),
		APIBaseURL:  v.GetString("github_api_url"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first missing required setting.
func (c *Config) Validate() error {
	if c.GitHubToken == "" {
		return errors.New("GITHUB_TOKEN is required")
	}
	if c.Owner == "" {
		return errors.New("GITHUB_OWNER is required")
	}
	if c.Repo == "" {
		return errors.New("GITHUB_REPO is required")
	}
	return nil
}

// Target names the configured repository, e.g. "octocat/secrets".
func (c *Config) Target() string {
	return c.Owner + "/" + c.Repo
}

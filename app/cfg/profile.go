package cfg

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ChannelProfile is an optional YAML file overriding channel settings.
// Values left empty or zero keep whatever the flags resolved to.
type ChannelProfile struct {
	Channel struct {
		URL    string `yaml:"url"`
		ID     string `yaml:"id"`
		Cookie string `yaml:"cookie"`
	} `yaml:"channel"`
	Settings struct {
		PollInterval    int `yaml:"poll_interval"`    // seconds
		RefreshInterval int `yaml:"refresh_interval"` // seconds
		PageDelay       int `yaml:"page_delay"`       // milliseconds
		MaxPages        int `yaml:"max_pages"`
	} `yaml:"settings"`
}

func LoadChannelProfile(path string) (*ChannelProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var profile ChannelProfile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := profile.validate(); err != nil {
		return nil, err
	}

	return &profile, nil
}

func (p *ChannelProfile) validate() error {
	if p.Settings.PollInterval < 0 {
		return fmt.Errorf("poll interval must be non-negative")
	}
	if p.Settings.RefreshInterval < 0 {
		return fmt.Errorf("refresh interval must be non-negative")
	}
	if p.Settings.PageDelay < 0 {
		return fmt.Errorf("page delay must be non-negative")
	}
	if p.Settings.MaxPages < 0 {
		return fmt.Errorf("max pages must be non-negative")
	}
	return nil
}

// Apply copies non-empty profile values onto the resolved configuration.
func (p *ChannelProfile) Apply(cfg *Cfg) {
	if p.Channel.URL != "" {
		cfg.ChannelURL = p.Channel.URL
	}
	if p.Channel.ID != "" {
		cfg.ChannelID = p.Channel.ID
	}
	if p.Channel.Cookie != "" {
		cfg.Cookie = p.Channel.Cookie
	}
	if p.Settings.PollInterval > 0 {
		cfg.PollInterval = p.Settings.PollInterval
	}
	if p.Settings.RefreshInterval > 0 {
		cfg.RefreshInterval = p.Settings.RefreshInterval
	}
	if p.Settings.PageDelay > 0 {
		cfg.PageDelayMs = p.Settings.PageDelay
	}
	if p.Settings.MaxPages > 0 {
		cfg.MaxPages = p.Settings.MaxPages
	}
}

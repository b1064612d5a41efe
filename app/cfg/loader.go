package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Channel configuration
	ChannelURL  string `long:"channel-url" env:"CHANNEL_URL" default:"https://www.youtube.com/@chenyifaer/streams" description:"Channel streams page URL to watch"`
	ChannelID   string `long:"channel-id" env:"CHANNEL_ID" description:"Channel ID used for the RSS fallback feed (optional)"`
	ChannelFile string `long:"channel-file" env:"CHANNEL_FILE" description:"Path to a YAML channel profile overriding channel settings (optional)"`
	Cookie      string `long:"cookie" env:"YT_COOKIE" description:"Cookie header sent with page requests (optional)"`

	// Application configuration
	DBPath          string `long:"db-path" env:"DB_PATH" default:"./data/history.db" description:"SQLite database path for fetch history"`
	Port            string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	APIAccessKey    string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`
	PollInterval    int    `long:"poll-interval" env:"POLL_INTERVAL" default:"60" description:"Background poll interval in seconds"`
	RefreshInterval int    `long:"refresh-interval" env:"REFRESH_INTERVAL" default:"120" description:"Minimum seconds between successful fetches"`
	PageDelayMs     int    `long:"page-delay" env:"PAGE_DELAY" default:"500" description:"Delay between continuation requests in milliseconds"`
	MaxPages        int    `long:"max-pages" env:"MAX_PAGES" default:"20" description:"Maximum pages fetched per refresh cycle"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, Asia/Shanghai)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		ChannelURL:      raw.ChannelURL,
		ChannelID:       raw.ChannelID,
		ChannelFile:     raw.ChannelFile,
		Cookie:          raw.Cookie,
		DBPath:          raw.DBPath,
		Port:            raw.Port,
		APIAccessKey:    raw.APIAccessKey,
		PollInterval:    raw.PollInterval,
		RefreshInterval: raw.RefreshInterval,
		PageDelayMs:     raw.PageDelayMs,
		MaxPages:        raw.MaxPages,
		UserAgent:       raw.UserAgent,
		Timezone:        raw.Timezone,
		Debug:           raw.Debug,
		Version:         GetVersion(),
	}

	if cfg.ChannelFile != "" {
		profile, err := LoadChannelProfile(cfg.ChannelFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load channel profile: %w", err)
		}
		profile.Apply(cfg)
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
			fmt.Printf("Timezone configured: %s\n", timezone)
		}
	}
	return nil
}

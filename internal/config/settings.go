package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// Environment variables that override file settings.
const (
	EnvWebhookURL = "DISCORD_WEBHOOK_URL"
	EnvFFmpeg     = "NOVASTREAM_FFMPEG"
	EnvChrome     = "NOVASTREAM_CHROME"
	EnvOutputDir  = "NOVASTREAM_OUTPUT"
)

// Settings holds all configuration options.
type Settings struct {
	// Download settings
	OutputDir string `toml:"output_dir"`
	Workers   int    `toml:"workers"`
	Retries   int    `toml:"retries"`
	Throttle  int    `toml:"throttle"`

	// Retry backoff between transcoder attempts: cooldown * exponent^try seconds
	RetryCooldown float64 `toml:"retry_cooldown"`
	RetryExponent float64 `toml:"retry_exponent"`

	// HTTP settings
	HTTPTimeoutSeconds int    `toml:"http_timeout_seconds"`
	UserAgent          string `toml:"user_agent"`

	// Browser settings
	ChromePath            string `toml:"chrome_path"`
	Headless              bool   `toml:"headless"`
	NoSandbox             bool   `toml:"no_sandbox"`
	ScrapeSettleSeconds   int    `toml:"scrape_settle_seconds"`
	ManifestSettleSeconds int    `toml:"manifest_settle_seconds"`
	BrowserTimeoutSeconds int    `toml:"browser_timeout_seconds"`

	// Transcoder settings
	FFmpegPath string `toml:"ffmpeg_path"`

	// Notification settings
	WebhookURL            string `toml:"webhook_url"`
	WebhookTimeoutSeconds int    `toml:"webhook_timeout_seconds"`

	// Queue settings
	QueueFile string `toml:"queue_file"`

	// Extras
	CreatePlaylist bool   `toml:"create_playlist"`
	PlaylistFormat string `toml:"playlist_format"` // m3u, pls, wpl, zpl
	M3UExtended    bool   `toml:"m3u_extended"`
	SavePoster     bool   `toml:"save_poster"`
	PosterMaxSize  int    `toml:"poster_max_size"`

	// Logging
	LogLevel string `toml:"log_level"` // debug, info, warn, error

	// Updates
	UpdateRepository string `toml:"update_repository"`
}

// DefaultSettings returns settings with default values.
func DefaultSettings() *Settings {
	homeDir, _ := os.UserHomeDir()
	return &Settings{
		OutputDir: filepath.Join(homeDir, "Videos", "NovaStream"),
		Workers:   4,
		Retries:   2,
		Throttle:  0,

		RetryCooldown: 1,
		RetryExponent: 2,

		HTTPTimeoutSeconds: 30,
		UserAgent:          "Mozilla/5.0 (X11; Linux x86_64) NovaStream",

		Headless:              true,
		NoSandbox:             false,
		ScrapeSettleSeconds:   5,
		ManifestSettleSeconds: 10,
		BrowserTimeoutSeconds: 60,

		FFmpegPath: "ffmpeg",

		WebhookTimeoutSeconds: 5,

		QueueFile: filepath.Join(configDir(homeDir), "queue.json"),

		CreatePlaylist: false,
		PlaylistFormat: "m3u",
		M3UExtended:    true,
		SavePoster:     false,
		PosterMaxSize:  1000,

		LogLevel: "info",

		UpdateRepository: "Asasingh14/NovaStream",
	}
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(configDir(homeDir), "config.toml")
}

func configDir(homeDir string) string {
	if dir, err := os.UserConfigDir(); err == nil && dir != "" {
		return filepath.Join(dir, "novastream")
	}
	return filepath.Join(homeDir, ".config", "novastream")
}

// Load reads settings from a TOML file.
//
// A missing file yields the defaults. Environment overrides are applied
// afterwards, see ApplyEnv.
func Load(path string) (*Settings, error) {
	settings := DefaultSettings()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, settings); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	settings.ApplyEnv()
	return settings, nil
}

// Save writes settings to a TOML file.
func (s *Settings) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := toml.Marshal(s)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// LoadDotEnv loads KEY=VALUE pairs from the given files into the process
// environment without overriding variables that are already set. Missing
// files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overrides settings from the environment.
func (s *Settings) ApplyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvWebhookURL)); v != "" {
		s.WebhookURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvFFmpeg)); v != "" {
		s.FFmpegPath = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvChrome)); v != "" {
		s.ChromePath = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvOutputDir)); v != "" {
		s.OutputDir = v
	}
}

// Validate ensures the settings are usable.
func (s *Settings) Validate() error {
	if strings.TrimSpace(s.OutputDir) == "" {
		return errors.New("output_dir must be set")
	}
	if s.Workers < 1 {
		return errors.New("workers must be at least 1")
	}
	if s.Retries < 0 {
		return errors.New("retries must not be negative")
	}
	if s.Throttle < 0 {
		return errors.New("throttle must not be negative")
	}
	if s.RetryCooldown < 0 || s.RetryExponent < 1 {
		return errors.New("retry_cooldown must not be negative and retry_exponent must be at least 1")
	}
	if s.HTTPTimeoutSeconds <= 0 {
		return errors.New("http_timeout_seconds must be positive")
	}
	if s.ScrapeSettleSeconds < 0 || s.ManifestSettleSeconds < 0 {
		return errors.New("settle times must not be negative")
	}
	if strings.TrimSpace(s.FFmpegPath) == "" {
		return errors.New("ffmpeg_path must be set")
	}
	switch s.PlaylistFormat {
	case "m3u", "pls", "wpl", "zpl":
	default:
		return fmt.Errorf("playlist_format %q must be one of m3u, pls, wpl, zpl", s.PlaylistFormat)
	}
	if s.SavePoster && s.PosterMaxSize <= 0 {
		return errors.New("poster_max_size must be positive when save_poster is enabled")
	}
	return nil
}

// RetryDelay returns the pause before retry number tries+1.
func (s *Settings) RetryDelay(tries int) time.Duration {
	cooldown := s.RetryCooldown * math.Pow(s.RetryExponent, float64(tries))
	return time.Duration(cooldown * float64(time.Second))
}

// HTTPTimeout returns the page fetch timeout.
func (s *Settings) HTTPTimeout() time.Duration {
	return seconds(s.HTTPTimeoutSeconds)
}

// ScrapeSettle returns how long a rendered homepage is given to populate.
func (s *Settings) ScrapeSettle() time.Duration {
	return seconds(s.ScrapeSettleSeconds)
}

// ManifestSettle returns how long the player is observed for manifest traffic.
func (s *Settings) ManifestSettle() time.Duration {
	return seconds(s.ManifestSettleSeconds)
}

// BrowserTimeout bounds a single browser session.
func (s *Settings) BrowserTimeout() time.Duration {
	return seconds(s.BrowserTimeoutSeconds)
}

// WebhookTimeout returns the notifier request timeout.
func (s *Settings) WebhookTimeout() time.Duration {
	return seconds(s.WebhookTimeoutSeconds)
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

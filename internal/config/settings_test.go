package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	t.Setenv(EnvWebhookURL, "")

	settings, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	def := DefaultSettings()
	if settings.Workers != def.Workers || settings.Retries != def.Retries {
		t.Errorf("Load() = %+v, want defaults", settings)
	}
	if settings.ManifestSettleSeconds != 10 || settings.ScrapeSettleSeconds != 5 {
		t.Errorf("settle defaults = %d/%d, want 10/5", settings.ManifestSettleSeconds, settings.ScrapeSettleSeconds)
	}
}

func TestSaveLoad_RoundTripKeepsOverrides(t *testing.T) {
	t.Setenv(EnvWebhookURL, "")
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	settings := DefaultSettings()
	settings.Workers = 8
	settings.OutputDir = "/data/videos"
	settings.PlaylistFormat = "pls"

	if err := settings.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Workers != 8 || loaded.OutputDir != "/data/videos" || loaded.PlaylistFormat != "pls" {
		t.Errorf("Load() = %+v, want saved overrides", loaded)
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	t.Setenv(EnvWebhookURL, "")
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("retries = 5\n"), 0644); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Retries != 5 {
		t.Errorf("Retries = %d, want 5", loaded.Retries)
	}
	if loaded.Workers != DefaultSettings().Workers {
		t.Errorf("Workers = %d, want default", loaded.Workers)
	}
}

func TestLoad_InvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("workers = = 3"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Error("Load() should fail on malformed TOML")
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvWebhookURL, "https://discord.example/hook")
	t.Setenv(EnvFFmpeg, "/opt/ffmpeg")

	settings := DefaultSettings()
	settings.ApplyEnv()

	if settings.WebhookURL != "https://discord.example/hook" {
		t.Errorf("WebhookURL = %q", settings.WebhookURL)
	}
	if settings.FFmpegPath != "/opt/ffmpeg" {
		t.Errorf("FFmpegPath = %q", settings.FFmpegPath)
	}
}

func TestLoadDotEnv(t *testing.T) {
	t.Setenv(EnvChrome, "")
	os.Unsetenv(EnvChrome)

	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte(EnvChrome+"=/usr/bin/chromium\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := LoadDotEnv(path, filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Fatalf("LoadDotEnv() error = %v", err)
	}
	if got := os.Getenv(EnvChrome); got != "/usr/bin/chromium" {
		t.Errorf("%s = %q, want /usr/bin/chromium", EnvChrome, got)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(s *Settings)
		wantErr string
	}{
		{"defaults", func(s *Settings) {}, ""},
		{"no workers", func(s *Settings) { s.Workers = 0 }, "workers"},
		{"negative retries", func(s *Settings) { s.Retries = -1 }, "retries"},
		{"bad playlist", func(s *Settings) { s.PlaylistFormat = "xspf" }, "playlist_format"},
		{"empty output", func(s *Settings) { s.OutputDir = " " }, "output_dir"},
		{"bad exponent", func(s *Settings) { s.RetryExponent = 0.5 }, "retry_exponent"},
		{"poster size", func(s *Settings) { s.SavePoster = true; s.PosterMaxSize = 0 }, "poster_max_size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSettings()
			tt.mutate(s)
			err := s.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestRetryDelay(t *testing.T) {
	s := DefaultSettings()
	s.RetryCooldown = 0.5
	s.RetryExponent = 2

	tests := []struct {
		tries int
		want  time.Duration
	}{
		{0, 500 * time.Millisecond},
		{1, time.Second},
		{3, 4 * time.Second},
	}

	for _, tt := range tests {
		if got := s.RetryDelay(tt.tries); got != tt.want {
			t.Errorf("RetryDelay(%d) = %v, want %v", tt.tries, got, tt.want)
		}
	}
}

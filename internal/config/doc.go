// Package config provides configuration management for NovaStream.
//
// This package handles:
//   - Loading and saving settings from TOML files
//   - Default configuration values
//   - Environment overrides, including values from a .env file
//
// # Default Settings
//
// Use DefaultSettings() to get sensible defaults:
//
//	settings := config.DefaultSettings()
//	// Downloads to ~/Videos/NovaStream/<drama>
//	// 4 workers, 2 retries per episode
//
// # Loading from File
//
//	settings, err := config.Load(config.DefaultPath())
//	if err != nil {
//	    // a missing file is not an error, defaults are returned
//	}
//
// # Environment
//
// DISCORD_WEBHOOK_URL, NOVASTREAM_FFMPEG, NOVASTREAM_CHROME and
// NOVASTREAM_OUTPUT override the file. LoadDotEnv reads them from .env first.
package config

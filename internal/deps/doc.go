// Package deps checks the external binaries NovaStream drives: ffmpeg for
// remuxing and Chrome or Chromium for page rendering.
package deps

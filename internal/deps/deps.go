package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/asasingh14/novastream/internal/config"
)

// chromeCandidates are the binary names tried when no Chrome path is
// configured, in the order chromedp looks for them on Linux and macOS.
var chromeCandidates = []string{
	"google-chrome",
	"google-chrome-stable",
	"chromium",
	"chromium-browser",
	"chrome",
	"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
}

// Requirement defines an external dependency NovaStream relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		results = append(results, checkBinary(req))
	}
	return results
}

func checkBinary(req Requirement) Status {
	cmd := strings.TrimSpace(req.Command)
	status := Status{
		Name:        req.Name,
		Command:     cmd,
		Description: strings.TrimSpace(req.Description),
		Optional:    req.Optional,
	}
	if cmd == "" {
		status.Detail = "command not configured"
		return status
	}
	resolved, err := exec.LookPath(cmd)
	if err != nil {
		status.Detail = fmt.Sprintf("binary %q not found", cmd)
		return status
	}
	status.Command = resolved
	status.Available = true
	return status
}

// CheckChrome reports the browser used for scraping and manifest capture.
// A configured path is checked as is; otherwise the usual install names are
// tried in turn.
func CheckChrome(configured string) Status {
	req := Requirement{
		Name:        "Chrome",
		Description: "Renders episode pages and captures manifest requests",
	}
	if path := strings.TrimSpace(configured); path != "" {
		req.Command = path
		return checkBinary(req)
	}

	for _, candidate := range chromeCandidates {
		req.Command = candidate
		if status := checkBinary(req); status.Available {
			return status
		}
	}
	req.Command = chromeCandidates[0]
	status := checkBinary(req)
	status.Detail = "no Chrome or Chromium binary found"
	return status
}

// Check reports every external tool the settings call for.
func Check(settings *config.Settings) []Status {
	results := CheckBinaries([]Requirement{{
		Name:        "FFmpeg",
		Command:     settings.FFmpegPath,
		Description: "Remuxes HLS streams into MP4 files",
	}})
	return append(results, CheckChrome(settings.ChromePath))
}

// Missing returns the required dependencies that are unavailable.
func Missing(statuses []Status) []Status {
	var missing []Status
	for _, s := range statuses {
		if !s.Available && !s.Optional {
			missing = append(missing, s)
		}
	}
	return missing
}

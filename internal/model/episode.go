package model

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ErrInvalidJob is returned when a Job is malformed. It signals a caller bug
// rather than a failed download.
var ErrInvalidJob = errors.New("invalid download job")

var titleDisallowed = regexp.MustCompile(`[^0-9A-Za-z ]+`)

// Episode is a single resolved episode of a drama.
//
// Episodes are unique by Number within a resolved set.
type Episode struct {
	Number int
	URL    string
}

// SortEpisodes sorts episodes in place by ascending number.
func SortEpisodes(episodes []Episode) {
	sort.Slice(episodes, func(i, j int) bool {
		return episodes[i].Number < episodes[j].Number
	})
}

// Job is the unit of work handed to the episode downloader.
//
// Throttle is carried through for logging only; the transcoder is never rate
// limited. Retries is the number of additional attempts after the first.
type Job struct {
	DramaName string
	Episode   int
	URL       string
	OutputDir string
	Throttle  int
	Retries   int
}

// Validate reports whether the job is well formed.
func (j Job) Validate() error {
	switch {
	case strings.TrimSpace(j.DramaName) == "":
		return fmt.Errorf("%w: empty drama name", ErrInvalidJob)
	case j.Episode < 1:
		return fmt.Errorf("%w: episode number %d is not positive", ErrInvalidJob, j.Episode)
	case strings.TrimSpace(j.URL) == "":
		return fmt.Errorf("%w: empty episode url", ErrInvalidJob)
	case strings.TrimSpace(j.OutputDir) == "":
		return fmt.Errorf("%w: empty output directory", ErrInvalidJob)
	case j.Throttle < 0:
		return fmt.Errorf("%w: negative throttle %d", ErrInvalidJob, j.Throttle)
	case j.Retries < 0:
		return fmt.Errorf("%w: negative retries %d", ErrInvalidJob, j.Retries)
	}
	return nil
}

// Outcome is the result of one episode download.
type Outcome struct {
	Episode  int
	Success  bool
	Skipped  bool
	Attempts int
	Path     string
	Status   string
}

// DefaultTitle is the title used when the episode page has none.
func DefaultTitle(number int) string {
	return fmt.Sprintf("Episode %d", number)
}

// SanitizeTitle reduces a page title to ASCII letters, digits and single
// spaces. Accented letters are folded to their base letter first, so
// "Café Noir!" becomes "Cafe Noir".
func SanitizeTitle(raw string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), raw)
	if err != nil {
		folded = raw
	}
	cleaned := titleDisallowed.ReplaceAllString(folded, " ")
	cleaned = whitespaceRuns.ReplaceAllString(cleaned, " ")
	return strings.TrimSpace(cleaned)
}

// ResolveTitle sanitizes raw and falls back to DefaultTitle when nothing
// printable remains.
func ResolveTitle(raw string, number int) string {
	if title := SanitizeTitle(raw); title != "" {
		return title
	}
	return DefaultTitle(number)
}

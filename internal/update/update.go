package update

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/asasingh14/novastream/internal/http"
)

// Version is the running build's version. Release builds override it with
// -ldflags "-X github.com/asasingh14/novastream/internal/update.Version=1.2.3".
var Version = "1.0.0"

// ModulePath is the import path installed by Perform.
const ModulePath = "github.com/asasingh14/novastream"

const defaultAPIBase = "https://api.github.com"

// Release is the subset of the GitHub release payload NovaStream reads.
type Release struct {
	TagName string `json:"tag_name"`
	Name    string `json:"name"`
	HTMLURL string `json:"html_url"`
}

// Version returns the tag without a leading "v".
func (r Release) Version() string {
	return strings.TrimPrefix(strings.TrimSpace(r.TagName), "v")
}

// Checker looks up the latest release of a GitHub repository.
type Checker struct {
	client  *http.Client
	apiBase string
	repo    string
	current string
}

// NewChecker creates a Checker for repo ("owner/name") comparing against
// Version.
func NewChecker(client *http.Client, repo string) *Checker {
	return &Checker{
		client:  client,
		apiBase: defaultAPIBase,
		repo:    repo,
		current: Version,
	}
}

// Latest fetches the latest published release.
func (c *Checker) Latest(ctx context.Context) (*Release, error) {
	url := fmt.Sprintf("%s/repos/%s/releases/latest", strings.TrimRight(c.apiBase, "/"), c.repo)
	var rel Release
	if err := c.client.GetJSON(ctx, url, &rel); err != nil {
		return nil, fmt.Errorf("fetch latest release: %w", err)
	}
	if rel.TagName == "" {
		return nil, fmt.Errorf("latest release of %s has no tag", c.repo)
	}
	return &rel, nil
}

// Check returns the latest release and whether it is newer than the running
// version.
func (c *Checker) Check(ctx context.Context) (*Release, bool, error) {
	rel, err := c.Latest(ctx)
	if err != nil {
		return nil, false, err
	}
	return rel, Newer(rel.Version(), c.current), nil
}

// Newer reports whether latest is a newer version than current. Versions
// that are not valid semver are compared for inequality only.
func Newer(latest, current string) bool {
	l, c := canonical(latest), canonical(current)
	if semver.IsValid(l) && semver.IsValid(c) {
		return semver.Compare(l, c) > 0
	}
	return strings.TrimSpace(latest) != "" && latest != current
}

func canonical(v string) string {
	v = strings.TrimSpace(v)
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}

// InstallCommand returns the command that installs tag of the CLI.
func InstallCommand(tag string) []string {
	return []string{"go", "install", fmt.Sprintf("%s/cmd/novastream@%s", ModulePath, canonical(tag))}
}

// Perform installs tag with the Go toolchain, streaming its output.
func Perform(ctx context.Context, tag string, stdout, stderr io.Writer) error {
	args := InstallCommand(tag)
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w", strings.Join(args, " "), err)
	}
	return nil
}

package player

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// ErrUnsupportedURL is returned for locators that are not local files.
var ErrUnsupportedURL = errors.New("player: unsupported url")

// SourcePath resolves a source locator to a filesystem path. Locators
// without a scheme are paths.
func SourcePath(loc string) (string, error) {
	if !strings.Contains(loc, "://") {
		return loc, nil
	}
	u, err := url.Parse(loc)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnsupportedURL, err)
	}
	if u.Scheme != "file" {
		return "", fmt.Errorf("%w: scheme %q", ErrUnsupportedURL, u.Scheme)
	}
	if u.Host != "" && u.Host != "localhost" {
		return "", fmt.Errorf("%w: remote host %q", ErrUnsupportedURL, u.Host)
	}
	return filepath.FromSlash(u.Path), nil
}

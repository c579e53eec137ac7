package page

import (
	"fmt"
	"net/url"
	"strings"
)

// NormalizeURL returns raw as an absolute URL. Links saved without a scheme
// are assumed to be https.
func NormalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty url")
	}

	if u, err := url.Parse(raw); err == nil && u.IsAbs() {
		return u.String(), nil
	}

	u, err := url.Parse("https://" + raw)
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", raw, err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid url %q: missing host", raw)
	}
	return u.String(), nil
}

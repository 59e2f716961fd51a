package curator

import (
	"net/url"
	"strings"

	"github.com/rotisserie/eris"
)

// NormalizeURL canonicalizes a raw URL for deduplication: scheme is forced
// to https (added when missing, rewritten from http) and query string and
// fragment are stripped. Documents sharing a normalized URL are duplicates;
// the first one seen wins, so http and https variants of the same page
// collapse to one candidate.
func NormalizeURL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", eris.New("curator: empty url")
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return "", eris.Wrapf(err, "curator: parse url %q", raw)
	}
	if parsed.Host == "" {
		return "", eris.Errorf("curator: url %q has no host", raw)
	}

	if parsed.Scheme == "http" {
		parsed.Scheme = "https"
	}
	parsed.RawQuery = ""
	parsed.Fragment = ""
	parsed.RawFragment = ""
	return parsed.String(), nil
}

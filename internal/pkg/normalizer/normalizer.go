package normalizer

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/ds124wfegd/course-import/internal/entity"
)

// Resolve turns a candidate image reference into an absolute http(s) URL.
// Candidates that already carry an http or https scheme are returned unchanged,
// everything else is resolved against the page URL.
func Resolve(base, candidate string) (string, error) {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return "", fmt.Errorf("%w: empty candidate", entity.ErrUnresolvable)
	}

	if hasHTTPScheme(candidate) {
		if _, err := absoluteHTTP(candidate); err != nil {
			return "", err
		}
		return candidate, nil
	}

	baseURL, err := absoluteHTTP(base)
	if err != nil {
		return "", err
	}

	ref, err := url.Parse(candidate)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", entity.ErrUnresolvable, candidate, err)
	}

	resolved := baseURL.ResolveReference(ref)
	if _, err := absoluteHTTP(resolved.String()); err != nil {
		return "", err
	}
	return resolved.String(), nil
}

// ValidateAbsolute reports whether raw is an absolute http(s) URL with a host.
func ValidateAbsolute(raw string) error {
	_, err := absoluteHTTP(strings.TrimSpace(raw))
	return err
}

func absoluteHTTP(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", entity.ErrUnresolvable, raw, err)
	}
	scheme := strings.ToLower(u.Scheme)
	if (scheme != "http" && scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %s", entity.ErrUnresolvable, raw)
	}
	return u, nil
}

func hasHTTPScheme(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

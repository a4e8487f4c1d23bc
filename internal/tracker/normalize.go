package tracker

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var hostnamePattern = regexp.MustCompile(`^(?:[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?\.)+[a-z]{2,}$`)

// errInvalidDomain is returned for input that does not name a public hostname.
var errInvalidDomain = errors.New("invalid domain name")

// NormalizeDomain turns user input such as "Example.com", "https://example.com/"
// or "http://www.example.com/some/page" into a bare lower-case hostname. Input
// without a scheme is read as an https URL. Ports, IP addresses and single-label
// names are rejected.
func NormalizeDomain(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: empty", errInvalidDomain)
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %w", errInvalidDomain, err)
	}

	host := strings.ToLower(u.Host)
	if len(host) > 253 || !hostnamePattern.MatchString(host) {
		return "", fmt.Errorf("%w: %q", errInvalidDomain, u.Host)
	}

	return host, nil
}

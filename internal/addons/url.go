package addons

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/weppos/publicsuffix-go/publicsuffix"
)

// BaseURL returns everything before the first '?'. Only used to prevent
// installing the same addon twice with different configuration query strings.
func BaseURL(u string) string {
	if i := strings.Index(u, "?"); i >= 0 {
		return u[:i]
	}
	return u
}

// ValidateTransportURL checks that u is an absolute http(s) URL
func ValidateTransportURL(u string) error {
	if strings.TrimSpace(u) == "" {
		return fmt.Errorf("%w: empty transport URL", ErrValidation)
	}
	parsed, err := url.Parse(u)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%w: unsupported scheme %q", ErrValidation, parsed.Scheme)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%w: transport URL has no host", ErrValidation)
	}
	return nil
}

// Domain returns the registrable domain of a transport URL for display,
// falling back to the raw host
func Domain(u string) string {
	parsed, err := url.Parse(u)
	if err != nil || parsed.Hostname() == "" {
		return ""
	}
	host := parsed.Hostname()
	if net.ParseIP(host) != nil {
		return host
	}
	domain, err := publicsuffix.Domain(host)
	if err != nil {
		return host
	}
	return domain
}

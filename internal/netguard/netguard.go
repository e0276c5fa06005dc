// Package netguard keeps outgoing manifest requests away from private and
// internal destinations.
package netguard

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"strings"
	"syscall"
	"time"

	"golang.org/x/net/idna"
)

var (
	ErrInvalidURL  = errors.New("invalid URL")
	ErrBlockedHost = errors.New("destination not allowed")
)

var blockedSuffixes = []string{".localhost", ".local", ".internal", ".lan", ".home.arpa"}

// Guard validates URLs and dial targets
type Guard struct {
	AllowPrivate bool
}

// New creates a guard. allowPrivate disables every address check, which is
// only meant for local development and tests.
func New(allowPrivate bool) *Guard {
	return &Guard{AllowPrivate: allowPrivate}
}

// CheckURL parses raw, normalizes an internationalized host to ASCII and
// rejects non-http(s) schemes, credentials and internal hostnames or IPs.
func (g *Guard) CheckURL(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: scheme %q", ErrInvalidURL, u.Scheme)
	}
	if u.User != nil {
		return nil, fmt.Errorf("%w: credentials in URL", ErrInvalidURL)
	}

	host := u.Hostname()
	if host == "" {
		return nil, fmt.Errorf("%w: missing host", ErrInvalidURL)
	}

	if _, err := netip.ParseAddr(host); err != nil {
		ascii, err := idna.Lookup.ToASCII(host)
		if err != nil {
			return nil, fmt.Errorf("%w: host %q: %v", ErrInvalidURL, host, err)
		}
		if ascii != host {
			if port := u.Port(); port != "" {
				u.Host = net.JoinHostPort(ascii, port)
			} else {
				u.Host = ascii
			}
			host = ascii
		}
	}

	if err := g.CheckHost(host); err != nil {
		return nil, err
	}
	return u, nil
}

// CheckHost rejects internal hostnames and non-public IP literals
func (g *Guard) CheckHost(host string) error {
	if g.AllowPrivate {
		return nil
	}

	host = strings.ToLower(strings.TrimSuffix(host, "."))
	if host == "localhost" {
		return fmt.Errorf("%w: %s", ErrBlockedHost, host)
	}
	for _, suffix := range blockedSuffixes {
		if strings.HasSuffix(host, suffix) {
			return fmt.Errorf("%w: %s", ErrBlockedHost, host)
		}
	}

	if addr, err := netip.ParseAddr(host); err == nil && !IsPublic(addr) {
		return fmt.Errorf("%w: %s", ErrBlockedHost, host)
	}
	return nil
}

// IsPublic reports whether addr is a globally routable unicast address
func IsPublic(addr netip.Addr) bool {
	addr = addr.Unmap()
	switch {
	case !addr.IsValid(),
		addr.IsUnspecified(),
		addr.IsLoopback(),
		addr.IsPrivate(),
		addr.IsLinkLocalUnicast(),
		addr.IsLinkLocalMulticast(),
		addr.IsInterfaceLocalMulticast(),
		addr.IsMulticast():
		return false
	}
	// Carrier-grade NAT 100.64.0.0/10
	if addr.Is4() && netip.MustParsePrefix("100.64.0.0/10").Contains(addr) {
		return false
	}
	return true
}

// Control is a net.Dialer Control hook that refuses connections to
// non-public addresses after DNS resolution
func (g *Guard) Control(_, address string, _ syscall.RawConn) error {
	if g.AllowPrivate {
		return nil
	}
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBlockedHost, err)
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrBlockedHost, host)
	}
	if !IsPublic(addr) {
		return fmt.Errorf("%w: %s", ErrBlockedHost, addr)
	}
	return nil
}

// Transport returns an HTTP transport whose dialer enforces Control and that
// never uses an environment proxy
func (g *Guard) Transport() *http.Transport {
	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
		Control:   g.Control,
	}
	return &http.Transport{
		Proxy:                 nil,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          20,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}

// CheckRedirect validates every redirect hop against the guard
func (g *Guard) CheckRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= 5 {
		return errors.New("stopped after 5 redirects")
	}
	_, err := g.CheckURL(req.URL.String())
	return err
}

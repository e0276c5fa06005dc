// Package discover finds addon manifest links on an addon's landing or
// configuration page.
package discover

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/net/html"

	"github.com/bnema/addonctl/internal/addons"
	"github.com/bnema/addonctl/internal/netguard"
)

const maxPageSize = 4 << 20

// Link is a manifest URL found on a page
type Link struct {
	URL  string // Normalized http(s) transport URL
	Text string // Anchor text, if any
}

// Scraper fetches pages through the network guard and extracts manifest links
type Scraper struct {
	guard  *netguard.Guard
	client *http.Client
	log    *log.Logger
}

// NewScraper creates a scraper. transport replaces the guarded transport and
// is only meant for tests.
func NewScraper(guard *netguard.Guard, transport http.RoundTripper, logger *log.Logger) *Scraper {
	if guard == nil {
		guard = netguard.New(false)
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if transport == nil {
		transport = guard.Transport()
	}
	return &Scraper{
		guard: guard,
		client: &http.Client{
			Timeout:       15 * time.Second,
			Transport:     transport,
			CheckRedirect: guard.CheckRedirect,
		},
		log: logger,
	}
}

// Scrape fetches pageURL and returns every distinct manifest link on it
func (s *Scraper) Scrape(ctx context.Context, pageURL string) ([]Link, error) {
	u, err := s.guard.CheckURL(pageURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", addons.ErrValidation, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "addonctl/1.0")
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	s.log.Debug("Scraping page", "url", u.Redacted())

	resp, err := s.client.Do(req)
	if err != nil {
		if errors.Is(err, netguard.ErrBlockedHost) {
			return nil, fmt.Errorf("%w: %v", addons.ErrValidation, err)
		}
		return nil, fmt.Errorf("%w: %v", addons.ErrNetwork, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: page returned status %d", addons.ErrNetwork, resp.StatusCode)
	}

	base := u
	if resp.Request != nil {
		base = resp.Request.URL
	}
	links, err := Parse(io.LimitReader(resp.Body, maxPageSize), base)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}
	s.log.Debug("Manifest links found", "url", u.Redacted(), "count", len(links))
	return links, nil
}

// Parse extracts manifest links from an HTML document. Relative links are
// resolved against base.
func Parse(r io.Reader, base *url.URL) ([]Link, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	var links []Link
	seen := make(map[string]bool)

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			if link := NormalizeManifestURL(getAttr(n, "href"), base); link != "" && !seen[link] {
				seen[link] = true
				links = append(links, Link{URL: link, Text: getTextContent(n)})
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return links, nil
}

// NormalizeManifestURL returns the https transport URL for href when it
// points at an addon manifest, or an empty string. The platform's custom
// install scheme is rewritten to https.
func NormalizeManifestURL(href string, base *url.URL) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return ""
	}
	if rest, ok := strings.CutPrefix(href, "stremio://"); ok {
		href = "https://" + rest
	}

	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if base != nil {
		u = base.ResolveReference(u)
	}
	u.Fragment = ""

	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	if !strings.HasSuffix(u.Path, "/manifest.json") && u.Path != "manifest.json" {
		return ""
	}
	if addons.ValidateTransportURL(u.String()) != nil {
		return ""
	}
	return u.String()
}

func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

func getTextContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return strings.TrimSpace(n.Data)
	}
	var parts []string
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if text := getTextContent(c); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

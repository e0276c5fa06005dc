package discover

import (
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/bnema/addonctl/internal/addons"
	"github.com/bnema/addonctl/internal/netguard"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

const landingPage = `<html><body>
<h1>Torrent addon</h1>
<a href="#configure">Configure</a>
<a href="stremio://addon.example.com/config=abc/manifest.json"><b>Install</b> in app</a>
<a href="https://addon.example.com/config=abc/manifest.json#top">Copy link</a>
<a href="/other/manifest.json">Lite</a>
<a href="https://github.com/example/addon">Source</a>
<a href="javascript:void(0)">Nope</a>
</body></html>`

func TestParseFindsManifestLinks(t *testing.T) {
	base, _ := url.Parse("https://addon.example.com/configure")
	links, err := Parse(strings.NewReader(landingPage), base)
	if err != nil {
		t.Fatalf("Parse() returned error: %v", err)
	}

	if len(links) != 2 {
		t.Fatalf("expected 2 links, got %d: %+v", len(links), links)
	}
	if links[0].URL != "https://addon.example.com/config=abc/manifest.json" {
		t.Fatalf("unexpected URL: %q", links[0].URL)
	}
	if links[0].Text != "Install in app" {
		t.Fatalf("unexpected text: %q", links[0].Text)
	}
	if links[1].URL != "https://addon.example.com/other/manifest.json" {
		t.Fatalf("relative link was not resolved: %q", links[1].URL)
	}
}

func TestNormalizeManifestURL(t *testing.T) {
	tests := []struct {
		href string
		want string
	}{
		{"https://a.example.com/manifest.json", "https://a.example.com/manifest.json"},
		{"stremio://a.example.com/manifest.json", "https://a.example.com/manifest.json"},
		{"https://a.example.com/manifest.json?x=1#frag", "https://a.example.com/manifest.json?x=1"},
		{"https://a.example.com/", ""},
		{"ftp://a.example.com/manifest.json", ""},
		{"#manifest.json", ""},
	}
	for _, tt := range tests {
		if got := NormalizeManifestURL(tt.href, nil); got != tt.want {
			t.Errorf("NormalizeManifestURL(%q) = %q, want %q", tt.href, got, tt.want)
		}
	}
}

func TestScrape(t *testing.T) {
	s := NewScraper(netguard.New(true), roundTripFunc(func(req *http.Request) (*http.Response, error) {
		if req.Header.Get("User-Agent") == "" {
			t.Fatal("expected User-Agent header")
		}
		return &http.Response{
			StatusCode: http.StatusOK,
			Header:     http.Header{"Content-Type": []string{"text/html"}},
			Body:       io.NopCloser(strings.NewReader(landingPage)),
			Request:    req,
		}, nil
	}), nil)

	links, err := s.Scrape(t.Context(), "https://addon.example.com/configure")
	if err != nil {
		t.Fatalf("Scrape() returned error: %v", err)
	}
	if len(links) != 2 {
		t.Fatalf("expected 2 links, got %d", len(links))
	}
}

func TestScrapeRejectsPrivateHosts(t *testing.T) {
	s := NewScraper(nil, roundTripFunc(func(*http.Request) (*http.Response, error) {
		t.Fatal("no request expected")
		return nil, nil
	}), nil)

	_, err := s.Scrape(t.Context(), "http://127.0.0.1:8080/")
	if !errors.Is(err, addons.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestScrapeStatusError(t *testing.T) {
	s := NewScraper(netguard.New(true), roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusNotFound,
			Body:       io.NopCloser(strings.NewReader("")),
			Request:    req,
		}, nil
	}), nil)

	_, err := s.Scrape(t.Context(), "https://addon.example.com/")
	if !errors.Is(err, addons.ErrNetwork) {
		t.Fatalf("expected network error, got %v", err)
	}
}

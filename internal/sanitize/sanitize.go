// Package sanitize strips markup from text published by third-party addons
// before it is stored, displayed or pushed upstream.
package sanitize

import (
	"html"
	"net/url"
	"strings"
	"sync"
	"unicode"

	"github.com/microcosm-cc/bluemonday"

	"github.com/bnema/addonctl/internal/addons"
)

const maxTextLength = 2000

var (
	policy     *bluemonday.Policy
	policyOnce sync.Once
)

// getPolicy returns the shared strict policy, initializing it on first call
func getPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		policy = bluemonday.StrictPolicy()
	})
	return policy
}

// Text removes every HTML element and control character from input and caps
// its length. Entities are decoded so the result is plain text.
func Text(input string) string {
	if input == "" {
		return ""
	}
	stripped := html.UnescapeString(getPolicy().Sanitize(input))
	cleaned := strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return ' '
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, stripped)
	cleaned = strings.TrimSpace(cleaned)

	if runes := []rune(cleaned); len(runes) > maxTextLength {
		cleaned = string(runes[:maxTextLength])
	}
	return cleaned
}

// ImageURL keeps http(s) URLs and drops anything else (javascript:, data:)
func ImageURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ""
	}
	return u.String()
}

// Manifest sanitizes the human-readable fields of a manifest in place
func Manifest(m *addons.Manifest) {
	m.ID = Text(m.ID)
	m.Name = Text(m.Name)
	m.Version = Text(m.Version)
	m.Description = Text(m.Description)
	m.Logo = ImageURL(m.Logo)
	m.Background = ImageURL(m.Background)
	for i := range m.Types {
		m.Types[i] = Text(m.Types[i])
	}
}

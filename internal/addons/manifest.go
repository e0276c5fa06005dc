package addons

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Manifest is the addon metadata published by the addon itself.
// Keys that are not modelled explicitly are kept in Extra so that a manifest
// pushed back upstream is identical to the one that was fetched.
type Manifest struct {
	ID            string         `json:"id"`
	Version       string         `json:"version"`
	Name          string         `json:"name"`
	Description   string         `json:"description,omitempty"`
	Logo          string         `json:"logo,omitempty"`
	Background    string         `json:"background,omitempty"`
	Types         []string       `json:"types,omitempty"`
	IDPrefixes    []string       `json:"idPrefixes,omitempty"`
	Resources     []any          `json:"resources,omitempty"`
	Catalogs      []any          `json:"catalogs,omitempty"`
	BehaviorHints map[string]any `json:"behaviorHints,omitempty"`

	Extra map[string]any `json:"-"`
}

var knownManifestKeys = map[string]bool{
	"id":            true,
	"version":       true,
	"name":          true,
	"description":   true,
	"logo":          true,
	"background":    true,
	"types":         true,
	"idPrefixes":    true,
	"resources":     true,
	"catalogs":      true,
	"behaviorHints": true,
}

// UnmarshalJSON decodes the known fields and stashes the rest in Extra
func (m *Manifest) UnmarshalJSON(data []byte) error {
	type plain Manifest
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}

	var all map[string]any
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	for key := range knownManifestKeys {
		delete(all, key)
	}
	p.Extra = nil
	if len(all) > 0 {
		p.Extra = all
	}

	*m = Manifest(p)
	return nil
}

// MarshalJSON encodes the known fields merged with Extra
func (m Manifest) MarshalJSON() ([]byte, error) {
	type plain Manifest
	data, err := json.Marshal(plain(m))
	if err != nil || len(m.Extra) == 0 {
		return data, err
	}

	var all map[string]any
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	for key, value := range m.Extra {
		if knownManifestKeys[key] {
			continue
		}
		all[key] = value
	}
	return json.Marshal(all)
}

// Validate checks the fields every usable manifest must carry
func (m *Manifest) Validate() error {
	if strings.TrimSpace(m.ID) == "" {
		return fmt.Errorf("%w: manifest has no id", ErrValidation)
	}
	if strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("%w: manifest %s has no name", ErrValidation, m.ID)
	}
	return nil
}

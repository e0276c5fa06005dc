package addons

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloneSharesNothing(t *testing.T) {
	original := Collection{{
		TransportURL: "https://a",
		Manifest: Manifest{
			ID:            "a",
			Name:          "A",
			Types:         []string{"movie"},
			Resources:     []any{"stream", map[string]any{"name": "meta", "types": []any{"movie"}}},
			BehaviorHints: map[string]any{"configurable": true, "nested": map[string]any{"k": "v"}},
			Extra:         map[string]any{"contactEmail": "a@example.com"},
		},
	}}

	clone := original.Clone()
	require.Equal(t, original, clone)

	clone[0].Manifest.Types[0] = "series"
	clone[0].Manifest.Resources[1].(map[string]any)["name"] = "catalog"
	clone[0].Manifest.Resources[1].(map[string]any)["types"].([]any)[0] = "tv"
	clone[0].Manifest.BehaviorHints["nested"].(map[string]any)["k"] = "changed"
	clone[0].Manifest.Extra["contactEmail"] = "b@example.com"
	clone[0].IsEnabled = true

	assert.Equal(t, "movie", original[0].Manifest.Types[0])
	assert.Equal(t, "meta", original[0].Manifest.Resources[1].(map[string]any)["name"])
	assert.Equal(t, "movie", original[0].Manifest.Resources[1].(map[string]any)["types"].([]any)[0])
	assert.Equal(t, "v", original[0].Manifest.BehaviorHints["nested"].(map[string]any)["k"])
	assert.Equal(t, "a@example.com", original[0].Manifest.Extra["contactEmail"])
	assert.False(t, original[0].IsEnabled)
}

func TestCloneNil(t *testing.T) {
	var c Collection
	assert.Nil(t, c.Clone())
}

func TestManifestRoundTripKeepsUnknownKeys(t *testing.T) {
	raw := `{"id":"org.example","version":"1.2.0","name":"Example","types":["movie"],` +
		`"resources":["stream"],"contactEmail":"dev@example.com","config":[{"key":"token"}]}`

	var m Manifest
	require.NoError(t, json.Unmarshal([]byte(raw), &m))
	assert.Equal(t, "org.example", m.ID)
	assert.Equal(t, "dev@example.com", m.Extra["contactEmail"])
	assert.Contains(t, m.Extra, "config")
	assert.NotContains(t, m.Extra, "id")

	out, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, raw, string(out))
}

func TestManifestWithoutExtra(t *testing.T) {
	var m Manifest
	require.NoError(t, json.Unmarshal([]byte(`{"id":"a","name":"A","version":"1"}`), &m))
	assert.Nil(t, m.Extra)
}

func TestManifestValidate(t *testing.T) {
	tests := []struct {
		name     string
		manifest Manifest
		wantErr  bool
	}{
		{"valid", Manifest{ID: "a", Name: "A"}, false},
		{"missing id", Manifest{Name: "A"}, true},
		{"blank name", Manifest{ID: "a", Name: "  "}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.manifest.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrValidation)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBaseURL(t *testing.T) {
	assert.Equal(t, "https://a/manifest.json", BaseURL("https://a/manifest.json?x=1?y=2"))
	assert.Equal(t, "https://a/manifest.json", BaseURL("https://a/manifest.json"))
	assert.Equal(t, "", BaseURL("?only"))
}

func TestHasBaseURL(t *testing.T) {
	c := Collection{{TransportURL: "https://a/manifest.json?lang=en"}}
	assert.True(t, c.HasBaseURL("https://a/manifest.json?lang=fr"))
	assert.True(t, c.HasBaseURL("https://a/manifest.json"))
	assert.False(t, c.HasBaseURL("https://b/manifest.json"))
	assert.Equal(t, -1, c.Index("https://a/manifest.json"))
	assert.Equal(t, 0, c.Index("https://a/manifest.json?lang=en"))
}

func TestValidateTransportURL(t *testing.T) {
	assert.NoError(t, ValidateTransportURL("https://addon.example.com/manifest.json"))
	assert.ErrorIs(t, ValidateTransportURL(""), ErrValidation)
	assert.ErrorIs(t, ValidateTransportURL("ftp://example.com/manifest.json"), ErrValidation)
	assert.ErrorIs(t, ValidateTransportURL("https:///manifest.json"), ErrValidation)
}

func TestDomain(t *testing.T) {
	assert.Equal(t, "example.co.uk", Domain("https://addons.cdn.example.co.uk/manifest.json"))
	assert.Equal(t, "127.0.0.1", Domain("http://127.0.0.1:7000/manifest.json"))
	assert.Equal(t, "", Domain("not a url"))
}

func TestCounts(t *testing.T) {
	c := Collection{
		{TransportURL: "a", IsEnabled: true, Selected: true},
		{TransportURL: "b", IsEnabled: false, Status: StatusError},
		{TransportURL: "c", IsEnabled: true},
	}
	assert.Equal(t, Counts{Total: 3, Enabled: 2, Disabled: 1, Errored: 1, Selected: 1}, c.Counts())
	assert.Len(t, c.Enabled(), 2)
}

func TestUpstreamErrorMatchesSentinel(t *testing.T) {
	err := fmt.Errorf("get addons: %w", &UpstreamError{Code: 1, Message: "session does not exist"})
	assert.True(t, errors.Is(err, ErrUpstream))
	assert.True(t, IsAuthError(err))
	assert.False(t, IsAuthError(ErrNetwork))
}

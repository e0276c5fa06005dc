package platform

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bnema/addonctl/internal/addons"
	"github.com/bnema/addonctl/internal/netguard"
)

func newManifestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchManifestSanitizes(t *testing.T) {
	srv := newManifestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/manifest.json" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"org.example","version":"1.0.0","name":"<b>Example</b>",
			"description":"<script>alert(1)</script>Streams","types":["movie"],"catalogs":[]}`))
	})

	f := NewManifestFetcher(ManifestOptions{Guard: netguard.New(true)})
	m, err := f.FetchManifest(t.Context(), srv.URL+"/manifest.json")
	if err != nil {
		t.Fatalf("FetchManifest() returned error: %v", err)
	}
	if m.Name != "Example" {
		t.Fatalf("name was not sanitized: %q", m.Name)
	}
	if m.Description != "Streams" {
		t.Fatalf("description was not sanitized: %q", m.Description)
	}
}

func TestFetchManifestBlocksPrivateHosts(t *testing.T) {
	srv := newManifestServer(t, func(http.ResponseWriter, *http.Request) {
		t.Fatal("request must not reach a private host")
	})

	f := NewManifestFetcher(ManifestOptions{})
	_, err := f.FetchManifest(t.Context(), srv.URL+"/manifest.json")
	if !errors.Is(err, addons.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestFetchManifestFailures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		maxSize int64
		want    error
	}{
		{"not found", http.StatusNotFound, `{}`, 0, addons.ErrNetwork},
		{"malformed", http.StatusOK, `{"id":`, 0, addons.ErrValidation},
		{"missing name", http.StatusOK, `{"id":"x","version":"1"}`, 0, addons.ErrValidation},
		{"too large", http.StatusOK, `{"id":"x","name":"` + strings.Repeat("y", 256) + `"}`, 64, addons.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newManifestServer(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			f := NewManifestFetcher(ManifestOptions{Guard: netguard.New(true), MaxResponseSize: tt.maxSize})
			_, err := f.FetchManifest(t.Context(), srv.URL+"/manifest.json")
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestFetchManifestRejectsBadScheme(t *testing.T) {
	f := NewManifestFetcher(ManifestOptions{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
		t.Fatal("no request expected")
		return nil, nil
	})})

	_, err := f.FetchManifest(t.Context(), "file:///etc/passwd")
	if !errors.Is(err, addons.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

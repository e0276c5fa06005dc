package platform

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/bnema/addonctl/internal/addons"
	"github.com/bnema/addonctl/internal/logger"
	"github.com/bnema/addonctl/internal/netguard"
	"github.com/bnema/addonctl/internal/sanitize"
)

// ManifestOptions configures the manifest fetcher
type ManifestOptions struct {
	Guard           *netguard.Guard
	Timeout         time.Duration
	RetryMax        int
	MaxResponseSize int64
	Transport       http.RoundTripper // Replaces the guarded transport, tests only
	Logger          *log.Logger
}

// ManifestFetcher downloads addon manifests through the network guard
type ManifestFetcher struct {
	guard   *netguard.Guard
	maxSize int64
	http    *retryablehttp.Client
	log     *log.Logger
}

// NewManifestFetcher creates a fetcher. Without a guard, private
// destinations are refused.
func NewManifestFetcher(opts ManifestOptions) *ManifestFetcher {
	if opts.Guard == nil {
		opts.Guard = netguard.New(false)
	}
	if opts.MaxResponseSize <= 0 {
		opts.MaxResponseSize = DefaultMaxResponseSize
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}

	retryClient := retryablehttp.NewClient()
	retryClient.Logger = logger.Leveled{L: opts.Logger}
	retryClient.RetryMax = opts.RetryMax
	retryClient.RetryWaitMin = 250 * time.Millisecond
	retryClient.RetryWaitMax = 2 * time.Second
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retryClient.HTTPClient.Timeout = opts.Timeout
	retryClient.HTTPClient.CheckRedirect = opts.Guard.CheckRedirect
	if opts.Transport != nil {
		retryClient.HTTPClient.Transport = opts.Transport
	} else {
		retryClient.HTTPClient.Transport = opts.Guard.Transport()
	}

	return &ManifestFetcher{
		guard:   opts.Guard,
		maxSize: opts.MaxResponseSize,
		http:    retryClient,
		log:     opts.Logger,
	}
}

// FetchManifest downloads, validates and sanitizes the manifest served at
// transportURL
func (f *ManifestFetcher) FetchManifest(ctx context.Context, transportURL string) (*addons.Manifest, error) {
	u, err := f.guard.CheckURL(transportURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", addons.ErrValidation, err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	f.log.Debug("Fetching manifest", "url", u.Redacted())

	resp, err := f.http.Do(req)
	if err != nil {
		if resp != nil {
			_ = resp.Body.Close()
			return nil, fmt.Errorf("%w: manifest returned status %d", addons.ErrNetwork, resp.StatusCode)
		}
		if errors.Is(err, netguard.ErrBlockedHost) {
			return nil, fmt.Errorf("%w: %v", addons.ErrValidation, err)
		}
		return nil, fmt.Errorf("%w: %v", addons.ErrNetwork, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: manifest returned status %d", addons.ErrNetwork, resp.StatusCode)
	}

	data, err := readLimited(resp.Body, f.maxSize)
	if err != nil {
		if errors.Is(err, ErrTooLarge) {
			return nil, fmt.Errorf("%w: %v", addons.ErrValidation, err)
		}
		return nil, fmt.Errorf("%w: %v", addons.ErrNetwork, err)
	}

	var manifest addons.Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("%w: malformed manifest: %v", addons.ErrValidation, err)
	}
	sanitize.Manifest(&manifest)
	if err := manifest.Validate(); err != nil {
		return nil, err
	}

	return &manifest, nil
}

package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"

	"github.com/bnema/addonctl/internal/addons"
	"github.com/bnema/addonctl/internal/logger"
)

const (
	DefaultAPIURL          = "https://api.strem.io"
	DefaultMaxResponseSize = 2 << 20
	userAgent              = "addonctl/1.0 (addon collection manager)"
)

// Options configures the API client
type Options struct {
	APIURL          string
	Timeout         time.Duration
	RetryMax        int
	MaxResponseSize int64
	Transport       http.RoundTripper // Optional, mostly for tests
	Logger          *log.Logger
}

// Client talks to the platform's account API
type Client struct {
	apiURL  string
	maxSize int64
	http    *retryablehttp.Client
	log     *log.Logger
}

// NewClient creates an API client
func NewClient(opts Options) *Client {
	if opts.APIURL == "" {
		opts.APIURL = DefaultAPIURL
	}
	if opts.MaxResponseSize <= 0 {
		opts.MaxResponseSize = DefaultMaxResponseSize
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	retryClient := retryablehttp.NewClient()
	retryClient.Logger = logger.Leveled{L: opts.Logger}
	retryClient.RetryMax = opts.RetryMax
	retryClient.RetryWaitMin = 250 * time.Millisecond
	retryClient.RetryWaitMax = 2 * time.Second
	retryClient.HTTPClient.Timeout = opts.Timeout
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	if opts.Transport != nil {
		retryClient.HTTPClient.Transport = opts.Transport
	}

	return &Client{
		apiURL:  strings.TrimRight(opts.APIURL, "/"),
		maxSize: opts.MaxResponseSize,
		http:    retryClient,
		log:     opts.Logger,
	}
}

// wireAddon is the upstream representation of an installed addon
type wireAddon struct {
	TransportURL  string          `json:"transportUrl"`
	TransportName string          `json:"transportName"`
	Manifest      addons.Manifest `json:"manifest"`
	Flags         addons.Flags    `json:"flags"`
}

// Login exchanges account credentials for an auth key
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	result, err := c.call(ctx, "login", map[string]any{
		"type":     "Login",
		"email":    email,
		"password": password,
		"facebook": false,
	})
	if err != nil {
		return "", err
	}

	authKey := result.Get("authKey").String()
	if authKey == "" {
		return "", fmt.Errorf("%w: login response has no auth key", addons.ErrUpstream)
	}
	return authKey, nil
}

// GetAddons fetches the account's addon collection. Every returned entry is
// enabled since the platform only stores installed addons.
func (c *Client) GetAddons(ctx context.Context, authKey, _ string) (addons.Collection, error) {
	result, err := c.call(ctx, "addonCollectionGet", map[string]any{
		"type":    "AddonCollectionGet",
		"authKey": authKey,
		"update":  true,
	})
	if err != nil {
		return nil, err
	}

	raw := result.Get("addons")
	if !raw.IsArray() {
		return nil, fmt.Errorf("%w: response has no addon list", addons.ErrUpstream)
	}

	var wire []wireAddon
	if err := json.Unmarshal([]byte(raw.Raw), &wire); err != nil {
		return nil, fmt.Errorf("%w: malformed addon list: %v", addons.ErrUpstream, err)
	}

	collection := make(addons.Collection, 0, len(wire))
	for _, w := range wire {
		if w.TransportURL == "" {
			c.log.Warn("Skipping addon without transport URL", "id", w.Manifest.ID)
			continue
		}
		collection = append(collection, addons.Entry{
			TransportURL:  w.TransportURL,
			TransportName: w.TransportName,
			Manifest:      w.Manifest,
			Flags:         w.Flags,
			IsEnabled:     true,
		})
	}

	c.log.Debug("Fetched addon collection", "count", len(collection))
	return collection, nil
}

// SetAddons replaces the account's addon collection with the given entries,
// in order
func (c *Client) SetAddons(ctx context.Context, authKey, _ string, collection addons.Collection) error {
	wire := make([]wireAddon, 0, len(collection))
	for _, e := range collection {
		if err := e.Manifest.Validate(); err != nil {
			return fmt.Errorf("%s: %w", e.TransportURL, err)
		}
		wire = append(wire, wireAddon{
			TransportURL:  e.TransportURL,
			TransportName: e.TransportName,
			Manifest:      e.Manifest,
			Flags:         e.Flags,
		})
	}

	result, err := c.call(ctx, "addonCollectionSet", map[string]any{
		"type":    "AddonCollectionSet",
		"authKey": authKey,
		"addons":  wire,
	})
	if err != nil {
		return err
	}
	if s := result.Get("success"); s.Exists() && !s.Bool() {
		return &addons.UpstreamError{Message: "collection was not saved"}
	}

	c.log.Debug("Pushed addon collection", "count", len(wire))
	return nil
}

// call posts body to the named API method and returns the "result" member
func (c *Client) call(ctx context.Context, method string, body any) (gjson.Result, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/api/"+method, bytes.NewReader(payload))
	if err != nil {
		return gjson.Result{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	c.log.Debug("Calling platform API", "method", method)

	resp, err := c.http.Do(req)
	if err != nil {
		if resp != nil {
			// Retries exhausted on a server error
			_ = resp.Body.Close()
			return gjson.Result{}, &addons.UpstreamError{Code: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}
		return gjson.Result{}, fmt.Errorf("%w: %s: %v", addons.ErrNetwork, method, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := readLimited(resp.Body, c.maxSize)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("%w: %s: %v", addons.ErrNetwork, method, err)
	}

	if !gjson.ValidBytes(data) {
		if resp.StatusCode != http.StatusOK {
			return gjson.Result{}, &addons.UpstreamError{Code: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}
		return gjson.Result{}, fmt.Errorf("%w: %s returned malformed JSON", addons.ErrUpstream, method)
	}

	if apiErr := gjson.GetBytes(data, "error"); apiErr.Exists() && apiErr.Type != gjson.Null {
		message := apiErr.Get("message").String()
		if message == "" {
			message = apiErr.String()
		}
		return gjson.Result{}, &addons.UpstreamError{Code: int(apiErr.Get("code").Int()), Message: message}
	}

	if resp.StatusCode != http.StatusOK {
		return gjson.Result{}, &addons.UpstreamError{Code: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}

	result := gjson.GetBytes(data, "result")
	if !result.Exists() {
		return gjson.Result{}, fmt.Errorf("%w: %s response has no result", addons.ErrUpstream, method)
	}
	return result, nil
}

// ErrTooLarge is returned when a response exceeds the configured size limit
var ErrTooLarge = errors.New("response too large")

func readLimited(r io.Reader, max int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, max+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > max {
		return nil, fmt.Errorf("%w: over %d bytes", ErrTooLarge, max)
	}
	return data, nil
}

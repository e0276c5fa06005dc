package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"

	"github.com/bnema/addonctl/internal/addons"
	"github.com/bnema/addonctl/internal/logger"
	"github.com/bnema/addonctl/internal/sanitize"
)

const (
	// DefaultURL is the platform's public community addon collection
	DefaultURL = "https://api.strem.io/addonscollection.json"

	// DefaultTTL is how long before the local copy is considered stale
	DefaultTTL = 24 * time.Hour

	maxCatalogSize = 16 << 20
)

// Item is one addon offered by the catalog
type Item struct {
	TransportURL string          `json:"transportUrl"`
	Manifest     addons.Manifest `json:"manifest"`
	Flags        addons.Flags    `json:"flags"`

	// Runtime state (not persisted)
	Installed bool `json:"-"`
}

// Name returns the display name of the item
func (i *Item) Name() string {
	if i.Manifest.Name != "" {
		return i.Manifest.Name
	}
	return i.Manifest.ID
}

// Data is the cached catalog document
type Data struct {
	SourceURL string    `json:"source_url"`
	FetchedAt time.Time `json:"fetched_at"`
	Items     []Item    `json:"items"`
}

// Options configures a catalog
type Options struct {
	URL       string
	CacheDir  string
	TTL       time.Duration
	Timeout   time.Duration
	Transport http.RoundTripper
	Logger    *log.Logger
}

// Catalog fetches and caches the community addon catalog
type Catalog struct {
	url       string
	ttl       time.Duration
	cachePath string
	etagPath  string
	http      *retryablehttp.Client
	log       *log.Logger
}

// New creates a catalog
func New(opts Options) *Catalog {
	if opts.URL == "" {
		opts.URL = DefaultURL
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}

	client := retryablehttp.NewClient()
	client.Logger = logger.Leveled{L: opts.Logger}
	client.RetryMax = 2
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler
	client.HTTPClient.Timeout = opts.Timeout
	if opts.Transport != nil {
		client.HTTPClient.Transport = opts.Transport
	}

	return &Catalog{
		url:       opts.URL,
		ttl:       opts.TTL,
		cachePath: filepath.Join(opts.CacheDir, "catalog.json"),
		etagPath:  filepath.Join(opts.CacheDir, "catalog.etag"),
		http:      client,
		log:       opts.Logger,
	}
}

// Items returns the catalog, fetching it when the cache is missing or stale.
// forceRefresh bypasses the TTL check. A failed fetch falls back to a stale
// cache when there is one.
func (c *Catalog) Items(ctx context.Context, forceRefresh bool) ([]Item, error) {
	cached, cacheTime, err := c.loadCache()
	if err == nil && cached != nil {
		age := time.Since(cacheTime)
		if !forceRefresh && age < c.ttl {
			c.log.Debug("Using cached catalog", "age", age.Round(time.Minute))
			return cached.Items, nil
		}
		c.log.Debug("Catalog cache is stale", "age", age.Round(time.Hour))
	}

	fresh, err := c.fetch(ctx)
	if err != nil {
		if cached != nil {
			c.log.Warn("Failed to fetch catalog, using stale cache",
				"error", err,
				"cache_age", time.Since(cacheTime).Round(time.Hour))
			return cached.Items, nil
		}
		return nil, fmt.Errorf("failed to fetch catalog and no cache available: %w", err)
	}

	// 304 Not Modified
	if fresh == nil {
		if cached == nil {
			return nil, fmt.Errorf("%w: catalog not modified but no cache exists", addons.ErrUpstream)
		}
		_ = c.touchCache()
		return cached.Items, nil
	}

	if err := c.saveCache(fresh); err != nil {
		c.log.Warn("Failed to save catalog cache", "error", err)
	}
	return fresh.Items, nil
}

// fetch downloads the catalog. It returns nil, nil on 304 Not Modified.
func (c *Catalog) fetch(ctx context.Context) (*Data, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "addonctl/1.0")
	if etag, err := c.loadETag(); err == nil && etag != "" {
		req.Header.Set("If-None-Match", etag)
	}

	c.log.Debug("Fetching catalog", "url", c.url)

	resp, err := c.http.Do(req)
	if err != nil {
		if resp != nil {
			_ = resp.Body.Close()
			return nil, fmt.Errorf("%w: catalog returned status %d", addons.ErrNetwork, resp.StatusCode)
		}
		return nil, fmt.Errorf("%w: %v", addons.ErrNetwork, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotModified {
		c.log.Debug("Catalog not modified (304)")
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: catalog returned status %d", addons.ErrNetwork, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxCatalogSize))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", addons.ErrNetwork, err)
	}

	items, err := parse(body)
	if err != nil {
		return nil, err
	}

	if etag := resp.Header.Get("ETag"); etag != "" {
		_ = c.saveETag(etag)
	}

	c.log.Info("Fetched catalog", "addons", len(items))
	return &Data{SourceURL: c.url, FetchedAt: time.Now().UTC(), Items: items}, nil
}

// parse accepts a bare list of addons or an object with an "addons" list.
// Entries without a usable transport URL or manifest are skipped.
func parse(body []byte) ([]Item, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: malformed catalog", addons.ErrUpstream)
	}
	list := gjson.ParseBytes(body)
	if !list.IsArray() {
		list = list.Get("addons")
	}
	if !list.IsArray() {
		return nil, fmt.Errorf("%w: catalog has no addon list", addons.ErrUpstream)
	}

	var items []Item
	seen := make(map[string]bool)
	list.ForEach(func(_, v gjson.Result) bool {
		var item Item
		if err := json.Unmarshal([]byte(v.Raw), &item); err != nil {
			return true
		}
		if addons.ValidateTransportURL(item.TransportURL) != nil || seen[item.TransportURL] {
			return true
		}
		sanitize.Manifest(&item.Manifest)
		if item.Manifest.Validate() != nil {
			return true
		}
		seen[item.TransportURL] = true
		items = append(items, item)
		return true
	})
	return items, nil
}

func (c *Catalog) loadCache() (*Data, time.Time, error) {
	info, err := os.Stat(c.cachePath)
	if err != nil {
		return nil, time.Time{}, err
	}
	data, err := os.ReadFile(c.cachePath)
	if err != nil {
		return nil, time.Time{}, err
	}
	var d Data
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, time.Time{}, err
	}
	return &d, info.ModTime(), nil
}

func (c *Catalog) saveCache(d *Data) error {
	if err := os.MkdirAll(filepath.Dir(c.cachePath), 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to marshal catalog: %w", err)
	}
	return os.WriteFile(c.cachePath, data, 0644)
}

func (c *Catalog) touchCache() error {
	now := time.Now()
	return os.Chtimes(c.cachePath, now, now)
}

func (c *Catalog) loadETag() (string, error) {
	data, err := os.ReadFile(c.etagPath)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func (c *Catalog) saveETag(etag string) error {
	if err := os.MkdirAll(filepath.Dir(c.etagPath), 0755); err != nil {
		return err
	}
	return os.WriteFile(c.etagPath, []byte(etag), 0644)
}

// MarkInstalled flags items whose base URL is already in the collection
func MarkInstalled(items []Item, collection addons.Collection) {
	for i := range items {
		items[i].Installed = collection.HasBaseURL(items[i].TransportURL)
	}
}

// Search returns the items whose name, id, description or types contain
// every word of query, case-insensitively. An empty query matches all.
func Search(items []Item, query string) []Item {
	words := strings.Fields(strings.ToLower(query))
	if len(words) == 0 {
		return items
	}

	var out []Item
	for _, item := range items {
		haystack := strings.ToLower(strings.Join(append([]string{
			item.Manifest.Name,
			item.Manifest.ID,
			item.Manifest.Description,
		}, item.Manifest.Types...), " "))

		match := true
		for _, w := range words {
			if !strings.Contains(haystack, w) {
				match = false
				break
			}
		}
		if match {
			out = append(out, item)
		}
	}
	return out
}

// SortByName sorts items alphabetically by display name
func SortByName(items []Item) {
	sort.SliceStable(items, func(i, j int) bool {
		return strings.ToLower(items[i].Name()) < strings.ToLower(items[j].Name())
	})
}

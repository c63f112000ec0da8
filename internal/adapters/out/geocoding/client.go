// Package geocoding resolves address lines to coordinates through a Nominatim-compatible
// search endpoint, remembering answers in an LRU cache.
package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"

	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	DefaultCacheSize = 1024
	requestTimeout   = 5 * time.Second
)

type Client struct {
	baseURL string
	http    *http.Client
	cache   *lru.Cache[string, kernel.GeoPoint]
	logger  *slog.Logger
}

// NewClient builds a geocoder for baseURL. httpClient may be nil.
func NewClient(baseURL string, cacheSize int, httpClient *http.Client, logger *slog.Logger) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errs.NewValueIsRequiredError("geocoder url")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, errs.NewValueIsInvalidErrorWithCause("geocoder url", err)
	}
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[string, kernel.GeoPoint](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("geocoder cache: %w", err)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: requestTimeout}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		cache:   cache,
		logger:  logger.With("component", "Geocoder"),
	}, nil
}

type place struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Geocode implements ports.Geocoder. An address with no match is ObjectNotFound.
func (c *Client) Geocode(ctx context.Context, address string) (kernel.GeoPoint, error) {
	key := strings.ToLower(strings.Join(strings.Fields(address), " "))
	if key == "" {
		return kernel.UnknownPoint(), errs.NewValueIsRequiredError("address")
	}
	if point, ok := c.cache.Get(key); ok {
		return point, nil
	}

	point, err := c.lookup(ctx, address)
	if err != nil {
		c.logger.WarnContext(ctx, "geocoding failed", "address", address, "error", err)
		return kernel.UnknownPoint(), err
	}

	c.cache.Add(key, point)
	return point, nil
}

func (c *Client) lookup(ctx context.Context, address string) (kernel.GeoPoint, error) {
	query := url.Values{"q": {address}, "format": {"json"}, "limit": {"1"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+query.Encode(), nil)
	if err != nil {
		return kernel.UnknownPoint(), err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return kernel.UnknownPoint(), err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return kernel.UnknownPoint(), fmt.Errorf("geocoder responded %s", resp.Status)
	}

	var places []place
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return kernel.UnknownPoint(), fmt.Errorf("decode geocoder response: %w", err)
	}
	if len(places) == 0 {
		return kernel.UnknownPoint(), errs.NewObjectNotFoundError("address", address)
	}

	lat, latErr := strconv.ParseFloat(places[0].Lat, 64)
	lon, lonErr := strconv.ParseFloat(places[0].Lon, 64)
	if latErr != nil || lonErr != nil {
		return kernel.UnknownPoint(), errs.NewValueIsInvalidError("geocoder coordinates")
	}
	return kernel.NewGeoPoint(lat, lon)
}

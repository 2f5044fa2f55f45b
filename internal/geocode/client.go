// Package geocode resolves free-text addresses to coordinates through a
// Nominatim-compatible search endpoint.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/isdelr/simplecomm-be/internal/config"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

// ErrNotFound is returned when the search has no hits.
var ErrNotFound = errors.New("geocode: address not found")

// Point is a WGS84 coordinate.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Geocoder resolves an address to a point.
type Geocoder interface {
	Lookup(ctx context.Context, address string) (Point, error)
}

// Client is a paced, caching Nominatim client. Lookups for the same address
// that overlap share one request.
type Client struct {
	baseURL    string
	userAgent  string
	timeout    time.Duration
	httpClient *http.Client
	limiter    *rate.Limiter
	group      singleflight.Group

	mu    sync.RWMutex
	cache map[string]cached
}

type cached struct {
	point Point
	found bool
}

// NewClient creates a Client. Requests are spaced at least cfg.Interval apart.
func NewClient(cfg config.GeocodeConfig, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = 200 * time.Millisecond
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		userAgent:  cfg.UserAgent,
		timeout:    timeout,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(rate.Every(interval), 1),
		cache:      make(map[string]cached),
	}
}

// Lookup returns the first search hit for address.
func (c *Client) Lookup(ctx context.Context, address string) (Point, error) {
	key := strings.ToLower(strings.TrimSpace(address))
	if key == "" {
		return Point{}, ErrNotFound
	}

	c.mu.RLock()
	hit, ok := c.cache[key]
	c.mu.RUnlock()
	if ok {
		if !hit.found {
			return Point{}, ErrNotFound
		}
		return hit.point, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		p, err := c.search(ctx, address)
		switch {
		case err == nil:
			c.store(key, cached{point: p, found: true})
		case errors.Is(err, ErrNotFound):
			c.store(key, cached{})
		}
		return p, err
	})
	if err != nil {
		return Point{}, err
	}
	return v.(Point), nil
}

func (c *Client) store(key string, v cached) {
	c.mu.Lock()
	c.cache[key] = v
	c.mu.Unlock()
}

type searchResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

func (c *Client) search(ctx context.Context, address string) (Point, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return Point{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u, err := url.Parse(c.baseURL)
	if err != nil {
		return Point{}, fmt.Errorf("parse geocode url: %w", err)
	}
	q := u.Query()
	q.Set("format", "json")
	q.Set("q", address)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Point{}, err
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return Point{}, fmt.Errorf("geocode request: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return Point{}, fmt.Errorf("geocode request: unexpected status %d", res.StatusCode)
	}

	var results []searchResult
	if err := json.NewDecoder(res.Body).Decode(&results); err != nil {
		return Point{}, fmt.Errorf("decode geocode response: %w", err)
	}
	if len(results) == 0 {
		log.Debug().Str("address", address).Msg("Address not found")
		return Point{}, ErrNotFound
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return Point{}, fmt.Errorf("parse latitude: %w", err)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return Point{}, fmt.Errorf("parse longitude: %w", err)
	}
	return Point{Lat: lat, Lon: lon}, nil
}

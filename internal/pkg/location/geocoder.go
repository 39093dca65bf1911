package location

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-portal-go/internal/pkg/utils"
)

// reuseRadius is how far a new fix may drift before the cached name is
// considered stale.
const reuseRadius = 50.0 // meters

type reverseResponse struct {
	DisplayName string `json:"display_name"`
	Error       string `json:"error"`
}

type cachedName struct {
	lat, lon float64
	name     string
}

// Geocoder resolves coordinates through a Nominatim-compatible
// /reverse endpoint. It never fails: any error yields UnknownLocation.
type Geocoder struct {
	baseURL   string
	userAgent string
	client    *http.Client
	logger    *slog.Logger

	mu   sync.Mutex
	last *cachedName
}

func NewGeocoder(baseURL, userAgent string, timeout time.Duration, logger *slog.Logger) *Geocoder {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Geocoder{
		baseURL:   baseURL,
		userAgent: userAgent,
		client:    &http.Client{Timeout: timeout},
		logger:    logger,
	}
}

func (g *Geocoder) ResolveLocationName(ctx context.Context, lat, lon float64) string {
	if name, ok := g.cached(lat, lon); ok {
		return name
	}

	name, err := g.reverse(ctx, lat, lon)
	if err != nil {
		g.logger.Warn("Failed to resolve location name", "latitude", lat, "longitude", lon, "error", err)
		return UnknownLocation
	}

	g.mu.Lock()
	g.last = &cachedName{lat: lat, lon: lon, name: name}
	g.mu.Unlock()
	return name
}

func (g *Geocoder) cached(lat, lon float64) (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.last == nil {
		return "", false
	}
	if utils.CalculateHaversineDistance(g.last.lat, g.last.lon, lat, lon) > reuseRadius {
		return "", false
	}
	return g.last.name, true
}

func (g *Geocoder) reverse(ctx context.Context, lat, lon float64) (string, error) {
	u, err := url.Parse(g.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid geocoder url: %w", err)
	}
	u = u.JoinPath("reverse")
	q := u.Query()
	q.Set("format", "jsonv2")
	q.Set("lat", strconv.FormatFloat(lat, 'f', 6, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', 6, 64))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if g.userAgent != "" {
		req.Header.Set("User-Agent", g.userAgent)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var body reverseResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if body.Error != "" {
		return "", fmt.Errorf("geocoder error: %s", body.Error)
	}
	if body.DisplayName == "" {
		return "", fmt.Errorf("empty display name")
	}
	return body.DisplayName, nil
}

// Package geocode resolves addresses to coordinates via the Geonorge
// address API.
package geocode

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kantineguiden/services/api/internal/cache"
	"github.com/kantineguiden/services/api/internal/registry/application"
	"github.com/kantineguiden/services/api/pkg/metrics"
)

const (
	// DefaultBaseURL is the public address search endpoint.
	DefaultBaseURL = "https://ws.geonorge.no/adresser/v1/sok"

	requestTimeout = 5 * time.Second

	metricSource = "geonorge"
)

// GeonorgeClient geocodes Norwegian addresses. Lookups are best effort: any
// failure, including timeouts and empty results, yields nil coordinates
// rather than an error, so map display never blocks a page.
type GeonorgeClient struct {
	baseURL    string
	httpClient *http.Client
	cache      *cache.TTLCache[*application.Coordinates]
	metrics    *metrics.Manager
}

func NewGeonorgeClient(baseURL string, httpClient *http.Client, c *cache.TTLCache[*application.Coordinates], m *metrics.Manager) *GeonorgeClient {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &GeonorgeClient{
		baseURL:    baseURL,
		httpClient: httpClient,
		cache:      c,
		metrics:    m,
	}
}

type geonorgeResponse struct {
	Adresser []struct {
		Representasjonspunkt *struct {
			Lat *float64 `json:"lat"`
			Lon *float64 `json:"lon"`
		} `json:"representasjonspunkt"`
	} `json:"adresser"`
}

// Locate returns the representative point of the best fuzzy match for the
// address, or nil when unknown.
func (c *GeonorgeClient) Locate(ctx context.Context, street, postalCode, city string) *application.Coordinates {
	if street == "" {
		return nil
	}

	parts := make([]string, 0, 3)
	for _, part := range []string{street, postalCode, city} {
		if part != "" {
			parts = append(parts, part)
		}
	}
	query := strings.Join(parts, " ")

	cacheKey := "geo:" + strings.ToLower(query)
	if coords, ok := c.cache.Get(cacheKey); ok {
		c.metrics.CacheHit(metricSource)
		return coords
	}
	c.metrics.CacheMiss(metricSource)

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	endpoint := c.baseURL + "?sok=" + url.QueryEscape(query) + "&fuzzy=true&treffPerSide=1"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil
	}
	start := time.Now()
	res, err := c.httpClient.Do(req)
	c.metrics.ObserveUpstream(metricSource, time.Since(start))
	if err != nil {
		return nil
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil
	}
	var body geonorgeResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil
	}
	if len(body.Adresser) == 0 {
		return nil
	}
	point := body.Adresser[0].Representasjonspunkt
	if point == nil || point.Lat == nil || point.Lon == nil {
		return nil
	}

	coords := &application.Coordinates{Lat: *point.Lat, Lon: *point.Lon}
	c.cache.Set(cacheKey, coords)
	return coords
}

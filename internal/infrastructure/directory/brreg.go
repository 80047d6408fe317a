// Package directory implements the company lookup against the Brønnøysund
// business registry.
package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/kantineguiden/services/api/internal/cache"
	"github.com/kantineguiden/services/api/internal/registry/domain"
	"github.com/kantineguiden/services/api/pkg/metrics"
)

const (
	// DefaultBaseURL is the public Enhetsregisteret API.
	DefaultBaseURL = "https://data.brreg.no/enhetsregisteret/api"

	// Search is restricted to organisations large enough to plausibly run
	// a canteen.
	minEmployees = 5
	searchSize   = 8

	metricSource = "brreg"
)

var careOfLine = regexp.MustCompile(`(?i)^c/o\s`)

// BrregClient looks up companies in the national business registry. Results
// are cached briefly; registry data changes rarely but the search endpoint
// is rate limited.
type BrregClient struct {
	baseURL    string
	httpClient *http.Client
	searches   *cache.TTLCache[[]domain.CompanyHit]
	companies  *cache.TTLCache[*domain.Company]
	metrics    *metrics.Manager
}

// NewBrregClient builds a client against baseURL. The caches are injected so
// tests can control time.
func NewBrregClient(baseURL string, httpClient *http.Client, searches *cache.TTLCache[[]domain.CompanyHit], companies *cache.TTLCache[*domain.Company], m *metrics.Manager) *BrregClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &BrregClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		searches:   searches,
		companies:  companies,
		metrics:    m,
	}
}

type brregAddress struct {
	Adresse       []string `json:"adresse"`
	Postnummer    string   `json:"postnummer"`
	Poststed      string   `json:"poststed"`
	Kommune       string   `json:"kommune"`
	Kommunenummer string   `json:"kommunenummer"`
}

type brregUnit struct {
	Organisasjonsnummer string        `json:"organisasjonsnummer"`
	Navn                string        `json:"navn"`
	Forretningsadresse  *brregAddress `json:"forretningsadresse"`
	Beliggenhetsadresse *brregAddress `json:"beliggenhetsadresse"`
}

type brregSearchResponse struct {
	Embedded struct {
		Enheter []brregUnit `json:"enheter"`
	} `json:"_embedded"`
}

// Search returns up to searchSize companies matching the name query,
// skipping organisations without any registered address.
func (c *BrregClient) Search(ctx context.Context, query string) ([]domain.CompanyHit, error) {
	cacheKey := "search:" + strings.ToLower(query)
	if hits, ok := c.searches.Get(cacheKey); ok {
		c.metrics.CacheHit(metricSource)
		return hits, nil
	}
	c.metrics.CacheMiss(metricSource)

	endpoint := fmt.Sprintf("%s/enheter?navn=%s&fraAntallAnsatte=%d&size=%d",
		c.baseURL, url.QueryEscape(query), minEmployees, searchSize)

	var body brregSearchResponse
	if err := c.getJSON(ctx, endpoint, &body); err != nil {
		return nil, err
	}

	hits := make([]domain.CompanyHit, 0, len(body.Embedded.Enheter))
	for _, unit := range body.Embedded.Enheter {
		addr := unit.address()
		if addr == nil {
			continue
		}
		hits = append(hits, domain.CompanyHit{
			OrgNumber: unit.Organisasjonsnummer,
			Name:      unit.Navn,
			Address:   addr.displayString(),
		})
	}
	c.searches.Set(cacheKey, hits)
	return hits, nil
}

// ByOrgNumber returns the full company record, or nil when the registry has
// no such organisation. A company without an address comes back with a nil
// Address so the caller can report it precisely.
func (c *BrregClient) ByOrgNumber(ctx context.Context, orgNumber string) (*domain.Company, error) {
	cacheKey := "company:" + orgNumber
	if company, ok := c.companies.Get(cacheKey); ok {
		c.metrics.CacheHit(metricSource)
		return company, nil
	}
	c.metrics.CacheMiss(metricSource)

	endpoint := fmt.Sprintf("%s/enheter/%s", c.baseURL, url.PathEscape(orgNumber))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamLookup, err)
	}
	start := time.Now()
	res, err := c.httpClient.Do(req)
	c.metrics.ObserveUpstream(metricSource, time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamLookup, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: registry returned %d", domain.ErrUpstreamLookup, res.StatusCode)
	}

	var unit brregUnit
	if err := json.NewDecoder(res.Body).Decode(&unit); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamLookup, err)
	}

	company := &domain.Company{
		OrgNumber: unit.Organisasjonsnummer,
		Name:      unit.Navn,
	}
	if addr := unit.address(); addr != nil {
		company.Address = &domain.Address{
			Street:             addr.streetLine(),
			PostalCode:         addr.Postnummer,
			City:               addr.Poststed,
			Municipality:       addr.Kommune,
			MunicipalityNumber: addr.Kommunenummer,
		}
	}
	c.companies.Set(cacheKey, company)
	return company, nil
}

func (c *BrregClient) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUpstreamLookup, err)
	}
	start := time.Now()
	res, err := c.httpClient.Do(req)
	c.metrics.ObserveUpstream(metricSource, time.Since(start))
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUpstreamLookup, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: registry returned %d", domain.ErrUpstreamLookup, res.StatusCode)
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUpstreamLookup, err)
	}
	return nil
}

// address prefers the registered business address over the location address.
func (u brregUnit) address() *brregAddress {
	if u.Forretningsadresse != nil {
		return u.Forretningsadresse
	}
	return u.Beliggenhetsadresse
}

// streetLine picks the first address line that is not a c/o line, falling
// back to the first line.
func (a brregAddress) streetLine() string {
	for _, line := range a.Adresse {
		if !careOfLine.MatchString(line) {
			return line
		}
	}
	if len(a.Adresse) > 0 {
		return a.Adresse[0]
	}
	return ""
}

// displayString renders the address as one human-readable line.
func (a brregAddress) displayString() string {
	street := strings.Join(a.Adresse, ", ")
	postal := strings.TrimSpace(a.Postnummer + " " + a.Poststed)
	if street == "" {
		return postal
	}
	return strings.TrimSpace(street + ", " + postal)
}

package govdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"nregahub/pkg/logging"
	"nregahub/pkg/models"
	"nregahub/pkg/utils"
)

// ErrFirstPage wraps a failure on the very first page of a fetch. There is
// nothing to fall back to, so the orchestrator treats it as fatal.
var ErrFirstPage = errors.New("first page fetch failed")

// Filters is the server-side constraint object, JSON-encoded into the
// `filters` query parameter of every page request.
type Filters map[string]string

// Client pages through one data.gov.in resource. Requests are sequential:
// the next offset depends on the size of the page before it, and PageDelay
// is a deliberate blocking pause between pages to respect upstream rate
// limits.
type Client struct {
	BaseURL    string
	APIKey     string
	ResourceID string
	HTTP       *http.Client
	BatchSize  int
	MaxBatches int
	PageDelay  time.Duration
	Cache      *Cache

	log zerolog.Logger
}

func NewClient(cfg utils.APIConfig, cache *Cache) *Client {
	return &Client{
		BaseURL:    cfg.BaseURL,
		APIKey:     cfg.APIKey,
		ResourceID: cfg.ResourceID,
		HTTP:       &http.Client{Timeout: cfg.Timeout},
		BatchSize:  1000,
		MaxBatches: 50,
		PageDelay:  time.Second,
		Cache:      cache,
		log:        logging.New("govdata"),
	}
}

type apiResponse struct {
	Records []models.RawRecord `json:"records"`
	Total   int                `json:"total"`
}

// FetchAll retrieves the complete result set for the given filters.
//
// Stop conditions: a page shorter than BatchSize, an empty page, MaxBatches
// reached, or a request failure. A failure on a later page returns whatever
// accumulated so far (partial success); a failure on page one returns an
// error wrapping ErrFirstPage.
func (c *Client) FetchAll(ctx context.Context, filters Filters) ([]models.RawRecord, error) {
	var all []models.RawRecord

	for batch := 0; batch < c.MaxBatches; batch++ {
		offset := batch * c.BatchSize

		records, err := c.fetchPage(ctx, filters, c.BatchSize, offset)
		if err != nil {
			if batch == 0 {
				return nil, fmt.Errorf("%w: %v", ErrFirstPage, err)
			}
			c.log.Warn().Err(err).Int("offset", offset).
				Msg("page fetch failed, keeping records accumulated so far")
			return all, nil
		}

		all = append(all, records...)

		if len(records) < c.BatchSize {
			break
		}

		time.Sleep(c.PageDelay)
	}

	return all, nil
}

// FetchDistrict is the cache-aware targeted fetch: one district, optional
// financial-year constraint, server-side filtering.
func (c *Client) FetchDistrict(ctx context.Context, code string, year int, force bool) ([]models.RawRecord, error) {
	period := "latest"
	if year > 0 {
		period = strconv.Itoa(year)
	}
	key := CacheKey("mgnrega_data", code, period)

	if !force {
		if records, ok := c.Cache.Get(key); ok {
			c.log.Debug().Str("district", code).Msg("cache hit")
			return records, nil
		}
	}

	filters := Filters{"district_code": code}
	if year > 0 {
		filters["financial_year"] = strconv.Itoa(year)
	}

	records, err := c.FetchAll(ctx, filters)
	if err != nil {
		return nil, err
	}
	c.Cache.Set(key, records)
	return records, nil
}

// FetchState is the cache-aware bulk fetch: every record for one state (or
// all states when state is empty) in as few calls as possible.
func (c *Client) FetchState(ctx context.Context, state string, force bool) ([]models.RawRecord, error) {
	scope := state
	if scope == "" {
		scope = "all"
	}
	key := CacheKey("mgnrega_data_bulk", scope, "all")

	if !force {
		if records, ok := c.Cache.Get(key); ok {
			c.log.Debug().Str("state", scope).Msg("cache hit")
			return records, nil
		}
	}

	var filters Filters
	if state != "" {
		filters = Filters{"state_name": state}
	}

	records, err := c.FetchAll(ctx, filters)
	if err != nil {
		return nil, err
	}
	c.Cache.Set(key, records)
	return records, nil
}

func (c *Client) fetchPage(ctx context.Context, filters Filters, limit, offset int) ([]models.RawRecord, error) {
	u, err := url.Parse(c.BaseURL + "/" + c.ResourceID)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	q := u.Query()
	q.Set("api-key", c.APIKey)
	q.Set("format", "json")
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))
	if len(filters) > 0 {
		b, err := json.Marshal(filters)
		if err != nil {
			return nil, fmt.Errorf("marshal filters: %w", err)
		}
		q.Set("filters", string(b))
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request offset %d: %w", offset, err)
	}

	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d at offset %d: %s", resp.StatusCode, offset, truncate(body, 200))
	}

	var api apiResponse
	if err := json.Unmarshal(body, &api); err != nil {
		return nil, fmt.Errorf("decode offset %d: %w", offset, err)
	}

	pagesFetched.Inc()
	recordsFetched.Add(float64(len(api.Records)))

	return api.Records, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

package neows

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/neo-harvester/internal/domain"
	"github.com/couchcryptid/neo-harvester/internal/observability"
)

// Client implements pipeline.PageFetcher using the NeoWs browse endpoint.
type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a NeoWs client. The API key is sent with every request and
// redacted from returned errors.
func NewClient(baseURL, apiKey string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		metrics: metrics,
		logger:  logger,
	}
}

// FetchPage retrieves one zero-based page of the browse listing. Every failure
// is returned as a *domain.RetrievalError.
func (c *Client) FetchPage(ctx context.Context, page, size int) (domain.Page, error) {
	params := url.Values{
		"page":    {strconv.Itoa(page)},
		"size":    {strconv.Itoa(size)},
		"api_key": {c.apiKey},
	}
	fullURL := c.baseURL + "/neo/browse?" + params.Encode()

	start := time.Now()
	p, status, err := c.doRequest(ctx, fullURL)
	c.metrics.FetchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.FetchErrors.Inc()
		return domain.Page{}, &domain.RetrievalError{Page: page, StatusCode: status, Err: err}
	}

	c.metrics.PagesFetched.Inc()
	c.logger.Debug("page fetched",
		"page", page,
		"total_pages", p.TotalPages,
		"objects", len(p.Objects),
		"duration", time.Since(start),
	)
	return p, nil
}

func (c *Client) doRequest(ctx context.Context, fullURL string) (domain.Page, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return domain.Page{}, 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Page{}, 0, fmt.Errorf("browse request: %w", c.redact(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.Page{}, resp.StatusCode, fmt.Errorf("neows API error: %s", strings.TrimSpace(string(body)))
	}

	p, err := DecodePage(resp.Body)
	if err != nil {
		return domain.Page{}, 0, err
	}
	return p, 0, nil
}

// redact strips the API key from the URL that *url.Error embeds in its text.
func (c *Client) redact(err error) error {
	var uerr *url.Error
	if c.apiKey != "" && errors.As(err, &uerr) {
		uerr.URL = strings.ReplaceAll(uerr.URL, url.QueryEscape(c.apiKey), "REDACTED")
	}
	return err
}

// DecodePage parses a browse response body. A body without
// "near_earth_objects" decodes as an empty page.
func DecodePage(r io.Reader) (domain.Page, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var body browseResponse
	if err := dec.Decode(&body); err != nil {
		return domain.Page{}, fmt.Errorf("decode response: %w", err)
	}

	return domain.Page{
		Number:     body.Page.Number,
		TotalPages: body.Page.TotalPages,
		Objects:    body.NearEarthObjects,
	}, nil
}

// NeoWs browse response types.

type browseResponse struct {
	Page             pageInfo           `json:"page"`
	NearEarthObjects []domain.RawRecord `json:"near_earth_objects"`
}

type pageInfo struct {
	Size          int `json:"size"`
	TotalElements int `json:"total_elements"`
	TotalPages    int `json:"total_pages"`
	Number        int `json:"number"`
}

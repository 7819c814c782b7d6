package neows

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/couchcryptid/neo-harvester/internal/config"
	"github.com/couchcryptid/neo-harvester/internal/domain"
	"github.com/couchcryptid/neo-harvester/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testAPIKey        = "test-key-7f3a"
	contentTypeJSON   = "application/json"
	headerContentType = "Content-Type"
)

const browseBody = `{
  "links": {"next": "http://www.neowsapp.com/rest/v1/neo/browse?page=1&size=2"},
  "page": {"size": 2, "total_elements": 41012, "total_pages": 20506, "number": 0},
  "near_earth_objects": [
    {
      "id": "2000433",
      "neo_reference_id": "2000433",
      "name": "433 Eros (A898 PA)",
      "absolute_magnitude_h": 10.41,
      "is_potentially_hazardous_asteroid": false,
      "orbital_data": {"semi_major_axis": "1.458120998474684", "eccentricity": ".2228359407071628"}
    },
    {
      "id": "2000719",
      "neo_reference_id": "2000719",
      "name": "719 Albert (A911 TB)"
    }
  ]
}`

func testClient(baseURL string) *Client {
	return &Client{
		apiKey:     testAPIKey,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseURL:    baseURL,
		metrics:    observability.NewMetricsForTesting(),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestClient_FetchPage_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/neo/browse", r.URL.Path)
		assert.Equal(t, "4", r.URL.Query().Get("page"))
		assert.Equal(t, "2", r.URL.Query().Get("size"))
		assert.Equal(t, testAPIKey, r.URL.Query().Get("api_key"))

		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(browseBody))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	page, err := c.FetchPage(context.Background(), 4, 2)
	require.NoError(t, err)

	assert.Equal(t, 0, page.Number)
	assert.Equal(t, 20506, page.TotalPages)
	require.Len(t, page.Objects, 2)
	assert.Equal(t, "2000433", page.Objects[0]["neo_reference_id"])
	assert.Equal(t, "433 Eros (A898 PA)", page.Objects[0]["name"])
	assert.Equal(t, float64(1), testutil.ToFloat64(c.metrics.PagesFetched))
}

func TestClient_FetchPage_NumbersDecodedAsJSONNumber(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(browseBody))
	}))
	defer srv.Close()

	page, err := testClient(srv.URL).FetchPage(context.Background(), 0, 2)
	require.NoError(t, err)

	h, ok := page.Objects[0]["absolute_magnitude_h"]
	require.True(t, ok)
	assert.IsType(t, json.Number(""), h)
}

func TestClient_FetchPage_MissingObjects(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(`{"page": {"number": 7}}`))
	}))
	defer srv.Close()

	page, err := testClient(srv.URL).FetchPage(context.Background(), 7, 50)
	require.NoError(t, err)
	assert.Empty(t, page.Objects)
	assert.Equal(t, 0, page.TotalPages)
	assert.Equal(t, 7, page.Number)
}

func TestClient_FetchPage_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"code":"OVER_RATE_LIMIT"}}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.FetchPage(context.Background(), 2, 50)
	require.Error(t, err)

	var rerr *domain.RetrievalError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, 2, rerr.Page)
	assert.Equal(t, http.StatusTooManyRequests, rerr.StatusCode)
	assert.Contains(t, err.Error(), "OVER_RATE_LIMIT")
	assert.Equal(t, float64(1), testutil.ToFloat64(c.metrics.FetchErrors))
}

func TestClient_FetchPage_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(`{"near_earth_objects": [`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).FetchPage(context.Background(), 0, 50)
	require.Error(t, err)

	var rerr *domain.RetrievalError
	require.ErrorAs(t, err, &rerr)
	assert.Zero(t, rerr.StatusCode)
	assert.Contains(t, err.Error(), "decode response")
}

func TestClient_FetchPage_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	c.httpClient = &http.Client{Timeout: 50 * time.Millisecond}

	_, err := c.FetchPage(context.Background(), 0, 50)
	require.Error(t, err)

	var rerr *domain.RetrievalError
	require.ErrorAs(t, err, &rerr)
	assert.NotContains(t, err.Error(), testAPIKey)
	assert.Contains(t, err.Error(), "api_key=REDACTED")
}

func TestClient_FetchPage_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := testClient(url).FetchPage(context.Background(), 0, 50)
	require.Error(t, err)

	var rerr *domain.RetrievalError
	require.ErrorAs(t, err, &rerr)
	assert.NotContains(t, err.Error(), testAPIKey)
}

func TestClient_FetchPage_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testClient(srv.URL).FetchPage(ctx, 0, 50)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestNewClient_TrimsBaseURL(t *testing.T) {
	c := NewClient(config.DefaultNeoWsBaseURL+"/", testAPIKey, time.Second, observability.NewMetricsForTesting(), slog.Default())
	assert.Equal(t, config.DefaultNeoWsBaseURL, c.baseURL)
	assert.False(t, strings.HasSuffix(c.baseURL, "/"))
}

func TestDecodePage(t *testing.T) {
	page, err := DecodePage(strings.NewReader(browseBody))
	require.NoError(t, err)
	assert.Equal(t, 20506, page.TotalPages)
	assert.Len(t, page.Objects, 2)

	_, err = DecodePage(strings.NewReader("<html>502 Bad Gateway</html>"))
	require.Error(t, err)
}

package govdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nregahub/pkg/models"
	"nregahub/pkg/utils"
)

func testClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := NewClient(utils.APIConfig{
		BaseURL:    srv.URL,
		APIKey:     "test-key",
		ResourceID: "test-resource",
		Timeout:    5 * time.Second,
	}, NewCache())
	client.BatchSize = 2
	client.MaxBatches = 10
	client.PageDelay = 0
	return client, srv
}

func writePage(w http.ResponseWriter, records []models.RawRecord, total int) {
	_ = json.NewEncoder(w).Encode(map[string]any{
		"records": records,
		"total":   total,
	})
}

func record(code string, workers int) models.RawRecord {
	return models.RawRecord{
		"district_code": code,
		"total_workers": fmt.Sprintf("%d", workers),
	}
}

func TestFetchAllStopsAfterShortPage(t *testing.T) {
	var requests []string
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests = append(requests, r.URL.Query().Get("offset"))
		switch r.URL.Query().Get("offset") {
		case "0":
			writePage(w, []models.RawRecord{record("A", 1), record("B", 2)}, 3)
		case "2":
			writePage(w, []models.RawRecord{record("C", 3)}, 3)
		default:
			t.Errorf("unexpected offset %s", r.URL.Query().Get("offset"))
		}
	}))

	records, err := client.FetchAll(context.Background(), nil)
	require.NoError(t, err)

	assert.Len(t, records, 3)
	assert.Equal(t, []string{"0", "2"}, requests, "no third page after a short one")
}

func TestFetchAllStopsOnEmptyPage(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("offset") == "0" {
			writePage(w, []models.RawRecord{record("A", 1), record("B", 2)}, 2)
			return
		}
		writePage(w, nil, 2)
	}))

	records, err := client.FetchAll(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestFetchAllFirstPageFailureIsFatal(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))

	_, err := client.FetchAll(context.Background(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFirstPage)
}

func TestFetchAllLaterPageFailureKeepsPartialResults(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("offset") == "0" {
			writePage(w, []models.RawRecord{record("A", 1), record("B", 2)}, 10)
			return
		}
		http.Error(w, "upstream timeout", http.StatusGatewayTimeout)
	}))

	records, err := client.FetchAll(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, records, 2, "accumulated records survive a mid-run failure")
}

func TestFetchAllRespectsMaxBatches(t *testing.T) {
	var pages int
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pages++
		writePage(w, []models.RawRecord{record("A", 1), record("B", 2)}, 1000)
	}))
	client.MaxBatches = 3

	records, err := client.FetchAll(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, records, 6)
	assert.Equal(t, 3, pages)
}

func TestFetchAllSendsProtocolParams(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "test-key", q.Get("api-key"))
		assert.Equal(t, "json", q.Get("format"))
		assert.Equal(t, "2", q.Get("limit"))

		var filters map[string]string
		require.NoError(t, json.Unmarshal([]byte(q.Get("filters")), &filters))
		assert.Equal(t, "Maharashtra", filters["state_name"])

		assert.Equal(t, "/test-resource", r.URL.Path)
		writePage(w, nil, 0)
	}))

	_, err := client.FetchAll(context.Background(), Filters{"state_name": "Maharashtra"})
	require.NoError(t, err)
}

func TestFetchDistrictUsesCache(t *testing.T) {
	var hits int
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		writePage(w, []models.RawRecord{record("MH-PUN", 10)}, 1)
	}))

	_, err := client.FetchDistrict(context.Background(), "MH-PUN", 0, false)
	require.NoError(t, err)
	_, err = client.FetchDistrict(context.Background(), "MH-PUN", 0, false)
	require.NoError(t, err)
	assert.Equal(t, 1, hits, "second read served from cache")

	_, err = client.FetchDistrict(context.Background(), "MH-PUN", 0, true)
	require.NoError(t, err)
	assert.Equal(t, 2, hits, "force refresh bypasses the cache read")
}

func TestCacheKeyFormat(t *testing.T) {
	assert.Equal(t, "mgnrega_data_MH-PUN_latest", CacheKey("mgnrega_data", "MH-PUN", ""))
	assert.Equal(t, "mgnrega_data_MH-PUN_2024", CacheKey("mgnrega_data", "MH-PUN", "2024"))
}

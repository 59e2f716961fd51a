package tavily

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearch_Success(t *testing.T) {
	var gotReq SearchRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/search", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(SearchResponse{
			Query: gotReq.Query,
			Results: []SearchResult{
				{Title: "A", URL: "https://a.com", Content: "snippet", Score: json.Number("0.91")},
			},
		})
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))

	resp, err := c.Search(context.Background(), "acme corp revenue",
		WithMaxResults(3), WithRawContent(), WithSearchDepth("advanced"))
	require.NoError(t, err)

	assert.Equal(t, "test-key", gotReq.APIKey)
	assert.Equal(t, "acme corp revenue", gotReq.Query)
	assert.Equal(t, 3, gotReq.MaxResults)
	assert.True(t, gotReq.IncludeRawContent)
	assert.Equal(t, "advanced", gotReq.SearchDepth)

	require.Len(t, resp.Results, 1)
	assert.Equal(t, "https://a.com", resp.Results[0].URL)

	score, err := resp.Results[0].Score.Float64()
	require.NoError(t, err)
	assert.InDelta(t, 0.91, score, 1e-9)
}

func TestSearch_RetriesTransientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(SearchResponse{Results: []SearchResult{{URL: "https://a.com"}}})
	}))
	defer srv.Close()

	c := NewClient("k", WithBaseURL(srv.URL))

	resp, err := c.Search(context.Background(), "q")
	require.NoError(t, err)
	assert.Len(t, resp.Results, 1)
	assert.Equal(t, int32(2), calls.Load())
}

func TestSearch_NonRetryableStatus(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient("bad-key", WithBaseURL(srv.URL))

	_, err := c.Search(context.Background(), "q")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Equal(t, int32(1), calls.Load())
}

func TestSearch_ScoreOmittedDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"query":"q","results":[{"title":"A","url":"https://a.com"}]}`))
	}))
	defer srv.Close()

	c := NewClient("k", WithBaseURL(srv.URL))

	resp, err := c.Search(context.Background(), "q")
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Empty(t, resp.Results[0].Score)
}

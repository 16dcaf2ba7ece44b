package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cloo-solutions/medassist/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := NewClient(Config{APIKey: "tvly-test", BaseURL: srv.URL})
	return srv, client
}

func TestClient_Search_General(t *testing.T) {
	var captured searchRequest
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "Bearer tvly-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"query":"q","results":[
			{"title":"POTS overview","url":"https://example.org/pots","content":"Heart rate rises on standing.","score":0.9},
			{"title":"no url","url":"","content":"dropped"},
			{"title":"EDS","url":"https://example.org/eds","content":"Connective tissue.","score":0.8,"published_date":"2026-09-01"}
		]}`)
	})

	results, err := client.Search(context.Background(), "medical research POTS", 5, domain.SearchModeGeneral)

	require.NoError(t, err)
	assert.Equal(t, "general", captured.Topic)
	assert.Equal(t, "basic", captured.SearchDepth)
	assert.Equal(t, 5, captured.MaxResults)
	require.Len(t, results, 2)
	assert.Equal(t, "https://example.org/pots", results[0].URL)
	assert.False(t, results[0].HasPublishedDate())
	assert.Equal(t, "2026-09-01", results[1].PublishedDate)
}

func TestClient_Search_NewsProfile(t *testing.T) {
	var captured searchRequest
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		fmt.Fprint(w, `{"results":[]}`)
	})

	results, err := client.Search(context.Background(), "latest EDS news", 3, domain.SearchModeNews)

	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, "news", captured.Topic)
	assert.Equal(t, "advanced", captured.SearchDepth)
	assert.Equal(t, 3, captured.MaxResults)
}

func TestClient_Search_TruncatesToMaxResults(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"results":[
			{"url":"https://a"},{"url":"https://b"},{"url":"https://c"}
		]}`)
	})

	results, err := client.Search(context.Background(), "q", 2, domain.SearchModeGeneral)

	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestClient_Search_MissingAPIKey(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()
	client := NewClient(Config{BaseURL: srv.URL})

	results, err := client.Search(context.Background(), "q", 5, domain.SearchModeGeneral)

	assert.Nil(t, results)
	assert.ErrorIs(t, err, ErrNoAPIKey)
	assert.Equal(t, domain.KindUnavailable, domain.KindOf(err))
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestClient_Search_ErrorStatuses(t *testing.T) {
	tests := []struct {
		status int
		kind   domain.ErrorKind
	}{
		{http.StatusTooManyRequests, domain.KindUnavailable},
		{http.StatusInternalServerError, domain.KindUnavailable},
		{http.StatusUnauthorized, domain.KindUnavailable},
		{http.StatusGatewayTimeout, domain.KindTimeout},
		{http.StatusBadRequest, domain.KindInvalidResponse},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "nope", tt.status)
			})

			results, err := client.Search(context.Background(), "q", 5, domain.SearchModeGeneral)

			assert.Nil(t, results)
			assert.Equal(t, tt.kind, domain.KindOf(err))
		})
	}
}

func TestClient_Search_InvalidJSON(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"results": [`)
	})

	_, err := client.Search(context.Background(), "q", 5, domain.SearchModeGeneral)

	assert.Equal(t, domain.KindInvalidResponse, domain.KindOf(err))
}

func TestClient_Search_Timeout(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Search(ctx, "q", 5, domain.SearchModeGeneral)

	assert.Equal(t, domain.KindTimeout, domain.KindOf(err))
}

func TestClient_Search_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	client := NewClient(Config{APIKey: "tvly-test", BaseURL: url})
	_, err := client.Search(context.Background(), "q", 5, domain.SearchModeGeneral)

	assert.Equal(t, domain.KindUnavailable, domain.KindOf(err))
}

func TestClient_Search_EmptyQuery(t *testing.T) {
	client := NewClient(Config{APIKey: "tvly-test"})

	_, err := client.Search(context.Background(), "  ", 5, domain.SearchModeGeneral)

	assert.Equal(t, domain.ErrEmptyQuery, err)
}

func TestClient_Search_InvalidMode(t *testing.T) {
	var calls int32
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	})

	results, err := client.Search(context.Background(), "q", 5, domain.SearchMode("images"))

	assert.Nil(t, results)
	assert.Equal(t, domain.ErrInvalidSearchMode, err)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

package serpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/poiesic/originality/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "secret-key-123"

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := New(testKey, WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return c
}

func TestNew_RequiresKey(t *testing.T) {
	_, err := New("")
	assert.ErrorIs(t, err, ErrAPIKeyRequired)
	_, err = New("   ")
	assert.ErrorIs(t, err, ErrAPIKeyRequired)
}

func TestSearch_SendsParameters(t *testing.T) {
	var got map[string]string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		got = map[string]string{
			"q":       q.Get("q"),
			"engine":  q.Get("engine"),
			"num":     q.Get("num"),
			"api_key": q.Get("api_key"),
		}
		_, _ = w.Write([]byte(`{"organic_results":[]}`))
	})

	_, err := c.Search(context.Background(), "The quick brown fox", 5)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"q":       "The quick brown fox",
		"engine":  "google",
		"num":     "5",
		"api_key": testKey,
	}, got)
}

func TestSearch_Responses(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		want      int
		wantErr   bool
		permanent bool
	}{
		{name: "results", status: 200, body: `{"organic_results":[{"title":"a"},{"title":"b"}]}`, want: 2},
		{name: "capped at limit", status: 200, body: `{"organic_results":[{},{},{},{},{},{},{}]}`, want: 5},
		{name: "empty results", status: 200, body: `{"organic_results":[]}`, want: 0},
		{name: "missing results", status: 200, body: `{"search_metadata":{}}`, want: 0},
		{name: "no results error", status: 200, body: `{"error":"Google hasn't returned any results for this query."}`, want: 0},
		{name: "other api error", status: 200, body: `{"error":"Invalid engine."}`, wantErr: true, permanent: true},
		{name: "malformed json", status: 200, body: `<html>`, wantErr: true},
		{name: "unauthorized", status: 401, body: `{"error":"Invalid API key."}`, wantErr: true, permanent: true},
		{name: "forbidden", status: 403, body: ``, wantErr: true, permanent: true},
		{name: "rate limited", status: 429, body: `{"error":"slow down"}`, wantErr: true},
		{name: "server error", status: 503, body: ``, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			n, err := c.Search(context.Background(), "query", 5)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, tt.permanent, search.IsPermanent(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, n)
		})
	}
}

func TestSearch_RedactsKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
	}))
	defer srv.Close()

	c, err := New(testKey, WithBaseURL(srv.URL), WithHTTPClient(&http.Client{Timeout: 10 * time.Millisecond}))
	require.NoError(t, err)

	_, err = c.Search(context.Background(), "query", 5)
	require.Error(t, err)
	assert.NotContains(t, err.Error(), testKey)
	assert.Contains(t, err.Error(), "REDACTED")
}

func TestSearch_RedactsKeyFromAPIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"Invalid API key: ` + testKey + `"}`))
	})
	_, err := c.Search(context.Background(), "query", 5)
	require.Error(t, err)
	assert.NotContains(t, err.Error(), testKey)
}

func TestSearch_ContextCanceled(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"organic_results":[{}]}`))
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Search(ctx, "query", 5)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotContains(t, err.Error(), testKey)
}

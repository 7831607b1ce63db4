package apify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient("test-token", WithBaseURL(srv.URL))
}

func TestFetchPosts_HappyPath(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/acts/apimaestro~linkedin-company-posts/run-sync-get-dataset-items", r.URL.Path)
		assert.Equal(t, "test-token", r.URL.Query().Get("token"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var input map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&input))
		assert.Equal(t, "acme", input["company_name"])
		assert.Equal(t, "recent", input["sort"])
		assert.Equal(t, "2026-08-01T00:00:00Z", input["posted_after"])

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`[
			{"full_urn":"urn:li:activity:1","postUrl":"https://x/1","text":"hello #go","postedAt":"2026-08-20T09:00:00Z","commentsCount":2,"stats":{"total_reactions":10,"reposts":1}},
			{"postUrn":"urn:li:share:2","text":"second","postedAt":"3d"}
		]`))
	})

	posts, err := c.FetchPosts(context.Background(), FetchRequest{
		Handle: "acme",
		Since:  time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		Limit:  50,
	})
	require.NoError(t, err)
	require.Len(t, posts, 2)

	assert.Equal(t, "urn:li:activity:1", posts[0].UID)
	assert.Equal(t, "https://x/1", posts[0].URL)
	assert.Equal(t, 10, posts[0].Reactions)
	assert.Equal(t, 2, posts[0].Comments)
	assert.Equal(t, 1, posts[0].Reposts)

	// uid falls back to postUrn when full_urn is absent.
	assert.Equal(t, "urn:li:share:2", posts[1].UID)
	assert.Equal(t, "3d", posts[1].PostedAt)
}

func TestFetchPosts_ErrorClassification(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantKind ErrorKind
	}{
		{"rate limited", http.StatusTooManyRequests, `{"error":"rate limit"}`, KindRateLimited},
		{"not found", http.StatusNotFound, `{"error":"actor not found"}`, KindNotFound},
		{"bad gateway", http.StatusBadGateway, `upstream died`, KindTimeout},
		{"service unavailable", http.StatusServiceUnavailable, ``, KindTimeout},
		{"unexpected status", http.StatusTeapot, `?`, KindMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := c.FetchPosts(context.Background(), FetchRequest{Handle: "acme"})
			require.Error(t, err)

			kind, ok := KindOf(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantKind, kind)
		})
	}
}

func TestFetchPosts_MalformedBody(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"not":"an array"}`))
	})

	_, err := c.FetchPosts(context.Background(), FetchRequest{Handle: "acme"})
	require.Error(t, err)

	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, KindMalformed, kind)
}

func TestFetchPosts_ContextTimeout(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`[]`))
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.FetchPosts(ctx, FetchRequest{Handle: "acme"})
	require.Error(t, err)

	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, KindTimeout, kind)
}

func TestFetchPosts_EmptyHandle(t *testing.T) {
	c := NewClient("test-token")
	_, err := c.FetchPosts(context.Background(), FetchRequest{})
	require.Error(t, err)

	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, KindNotFound, kind)
}

func TestKindOf_ForeignError(t *testing.T) {
	_, ok := KindOf(assert.AnError)
	assert.False(t, ok)
}

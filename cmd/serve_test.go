package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scopelens/intel-cli/internal/enrich"
	"github.com/scopelens/intel-cli/internal/model"
	"github.com/scopelens/intel-cli/internal/pipeline"
	"github.com/scopelens/intel-cli/internal/store"
	"github.com/scopelens/intel-cli/pkg/apify"
)

type stubEnricher struct{}

func (stubEnricher) Classify(_ context.Context, _ string) (*enrich.Result, error) {
	return &enrich.Result{Sentiment: model.SentimentNeutral}, nil
}

// newTestEnv builds an env over a throwaway SQLite database. The crawl
// provider points at an empty stub server so triggered crawls finish fast.
func newTestEnv(t *testing.T) *env {
	t.Helper()
	return newTestEnvWithProvider(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte("[]")) //nolint:errcheck
	})
}

func newTestEnvWithProvider(t *testing.T, handler http.HandlerFunc) *env {
	t.Helper()

	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "cmd_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))

	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	provider := apify.NewClient("test-token", apify.WithBaseURL(ts.URL))
	orch := pipeline.New(st, provider, stubEnricher{}, pipeline.Config{
		Workers:      2,
		RetryBackoff: time.Millisecond,
	})
	return &env{Store: st, Orchestrator: orch}
}

func doRequest(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestRouter_Health(t *testing.T) {
	h := newRouter(context.Background(), newTestEnv(t))

	rr := doRequest(t, h, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "application/json")
	assert.Contains(t, rr.Body.String(), `"ok"`)
}

func TestRouter_Metrics(t *testing.T) {
	h := newRouter(context.Background(), newTestEnv(t))

	rr := doRequest(t, h, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRouter_CreateAndGetCompany(t *testing.T) {
	h := newRouter(context.Background(), newTestEnv(t))

	rr := doRequest(t, h, http.MethodPost, "/companies", map[string]string{
		"name":     "Acme",
		"industry": "SaaS",
	})
	require.Equal(t, http.StatusCreated, rr.Code)

	var created model.Company
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	require.NotEmpty(t, created.ID)

	rr = doRequest(t, h, http.MethodGet, "/companies/"+created.ID, nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = doRequest(t, h, http.MethodGet, "/companies/nope", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRouter_CreateCompany_MissingName(t *testing.T) {
	h := newRouter(context.Background(), newTestEnv(t))

	rr := doRequest(t, h, http.MethodPost, "/companies", map[string]string{"industry": "SaaS"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "name is required")
}

func TestRouter_CreateProfile_Validation(t *testing.T) {
	h := newRouter(context.Background(), newTestEnv(t))

	rr := doRequest(t, h, http.MethodPost, "/profiles", map[string]string{"platform": "linkedin"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "company_id, platform and handle are required")
}

func TestRouter_ListCompanies_EmptyIsArray(t *testing.T) {
	h := newRouter(context.Background(), newTestEnv(t))

	rr := doRequest(t, h, http.MethodGet, "/companies", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "[]\n", rr.Body.String())
}

func TestRouter_TriggerCrawl(t *testing.T) {
	e := newTestEnv(t)
	h := newRouter(context.Background(), e)

	rr := doRequest(t, h, http.MethodPost, "/profiles/missing/crawl", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	company, err := e.Store.CreateCompany(context.Background(), model.Company{Name: "Acme"})
	require.NoError(t, err)
	profile, err := e.Store.CreateProfile(context.Background(), model.Profile{
		CompanyID: company.ID,
		Platform:  "linkedin",
		Handle:    "acme-inc",
	})
	require.NoError(t, err)

	rr = doRequest(t, h, http.MethodPost, "/profiles/"+profile.ID+"/crawl", nil)
	require.Equal(t, http.StatusAccepted, rr.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "accepted", resp["status"])
	assert.Equal(t, profile.ID, resp["profile_id"])

	// The stub provider returns no posts, so the background run lands in
	// a terminal state quickly.
	require.Eventually(t, func() bool {
		runs, err := e.Store.ListRuns(context.Background(), store.RunFilter{ProfileID: profile.ID})
		if err != nil || len(runs) == 0 {
			return false
		}
		return runs[0].Status.Terminal()
	}, 5*time.Second, 20*time.Millisecond)

	runs, err := e.Store.ListRuns(context.Background(), store.RunFilter{ProfileID: profile.ID})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, model.RunStatusSuccess, runs[0].Status)
	assert.Equal(t, model.RunCounts{}, runs[0].Counts)
}

func TestRouter_CompareCompanies(t *testing.T) {
	e := newTestEnv(t)
	h := newRouter(context.Background(), e)
	ctx := context.Background()

	acme, err := e.Store.CreateCompany(ctx, model.Company{Name: "Acme"})
	require.NoError(t, err)
	globex, err := e.Store.CreateCompany(ctx, model.Company{Name: "Globex"})
	require.NoError(t, err)

	profile, err := e.Store.CreateProfile(ctx, model.Profile{
		CompanyID: acme.ID,
		Platform:  "linkedin",
		Handle:    "acme-inc",
	})
	require.NoError(t, err)
	_, err = e.Store.UpsertPosts(ctx, profile.ID, []model.Post{{
		IdentityKey: "k1",
		Content:     "record quarter",
		PublishedAt: time.Now().UTC(),
		Sentiment:   model.SentimentPositive,
		Status:      model.PostStatusEnriched,
	}})
	require.NoError(t, err)

	rr := doRequest(t, h, http.MethodGet, "/companies/compare?ids="+acme.ID+","+globex.ID, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var comparisons []struct {
		Company      model.Company          `json:"company"`
		Sentiment    []store.SentimentCount `json:"sentiment"`
		RecentAlerts []model.Alert          `json:"recent_alerts"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &comparisons))
	require.Len(t, comparisons, 2)
	assert.Equal(t, "Acme", comparisons[0].Company.Name)
	require.Len(t, comparisons[0].Sentiment, 1)
	assert.Equal(t, model.SentimentPositive, comparisons[0].Sentiment[0].Sentiment)
	assert.Empty(t, comparisons[1].Sentiment)
	assert.Empty(t, comparisons[1].RecentAlerts)
}

func TestRouter_CompareCompanies_Validation(t *testing.T) {
	e := newTestEnv(t)
	h := newRouter(context.Background(), e)

	rr := doRequest(t, h, http.MethodGet, "/companies/compare?ids=only-one", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "at least two company ids")

	company, err := e.Store.CreateCompany(context.Background(), model.Company{Name: "Acme"})
	require.NoError(t, err)

	rr = doRequest(t, h, http.MethodGet, "/companies/compare?ids="+company.ID+",missing", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "company not found: missing")
}

func TestRouter_GetRun_NotFound(t *testing.T) {
	h := newRouter(context.Background(), newTestEnv(t))

	rr := doRequest(t, h, http.MethodGet, "/runs/nope", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "run not found")
}

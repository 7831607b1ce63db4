package pipeline

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/scopelens/intel-cli/internal/enrich"
	"github.com/scopelens/intel-cli/internal/model"
	"github.com/scopelens/intel-cli/internal/store"
	"github.com/scopelens/intel-cli/pkg/apify"
)

// --- Provider Mock ---

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) FetchPosts(ctx context.Context, req apify.FetchRequest) ([]apify.RawPost, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]apify.RawPost), args.Error(1)
}

// --- Enricher Mock ---

type mockEnricher struct {
	mock.Mock
}

func (m *mockEnricher) Classify(ctx context.Context, text string) (*enrich.Result, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*enrich.Result), args.Error(1)
}

// --- Store Mock ---

type mockStore struct {
	mock.Mock
}

func (m *mockStore) CreateCompany(ctx context.Context, c model.Company) (*model.Company, error) {
	args := m.Called(ctx, c)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Company), args.Error(1)
}

func (m *mockStore) GetCompany(ctx context.Context, id string) (*model.Company, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Company), args.Error(1)
}

func (m *mockStore) ListCompanies(ctx context.Context) ([]model.Company, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Company), args.Error(1)
}

func (m *mockStore) CreateProfile(ctx context.Context, p model.Profile) (*model.Profile, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Profile), args.Error(1)
}

func (m *mockStore) GetProfile(ctx context.Context, id string) (*model.Profile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Profile), args.Error(1)
}

func (m *mockStore) ListProfiles(ctx context.Context, companyID string) ([]model.Profile, error) {
	args := m.Called(ctx, companyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Profile), args.Error(1)
}

func (m *mockStore) ExistingIdentityKeys(ctx context.Context, profileID string, keys []string) (map[string]bool, error) {
	args := m.Called(ctx, profileID, keys)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]bool), args.Error(1)
}

func (m *mockStore) AlertCategoriesForPosts(ctx context.Context, profileID string, identityKeys []string) (map[string]map[model.AlertCategory]bool, error) {
	args := m.Called(ctx, profileID, identityKeys)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]map[model.AlertCategory]bool), args.Error(1)
}

func (m *mockStore) UpsertPosts(ctx context.Context, profileID string, posts []model.Post) (int, error) {
	args := m.Called(ctx, profileID, posts)
	return args.Int(0), args.Error(1)
}

func (m *mockStore) InsertAlerts(ctx context.Context, alerts []model.Alert) (int, error) {
	args := m.Called(ctx, alerts)
	return args.Int(0), args.Error(1)
}

func (m *mockStore) CreateRun(ctx context.Context, profileID string) (*model.Run, error) {
	args := m.Called(ctx, profileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Run), args.Error(1)
}

func (m *mockStore) UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error {
	args := m.Called(ctx, runID, status)
	return args.Error(0)
}

func (m *mockStore) CommitRun(ctx context.Context, run *model.Run, posts []model.Post, alerts []model.Alert, crawledAt time.Time) (int, int, error) {
	args := m.Called(ctx, run, posts, alerts, crawledAt)
	return args.Int(0), args.Int(1), args.Error(2)
}

func (m *mockStore) FailRun(ctx context.Context, runID string, counts model.RunCounts, cause string) error {
	args := m.Called(ctx, runID, counts, cause)
	return args.Error(0)
}

func (m *mockStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Run), args.Error(1)
}

func (m *mockStore) ListRuns(ctx context.Context, filter store.RunFilter) ([]model.Run, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Run), args.Error(1)
}

func (m *mockStore) SentimentSummary(ctx context.Context, companyID string) ([]store.SentimentCount, error) {
	args := m.Called(ctx, companyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]store.SentimentCount), args.Error(1)
}

func (m *mockStore) RecentAlerts(ctx context.Context, companyID string, limit int) ([]model.Alert, error) {
	args := m.Called(ctx, companyID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Alert), args.Error(1)
}

func (m *mockStore) Migrate(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

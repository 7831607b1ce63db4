// Package store persists companies, profiles, posts, alerts and crawl runs.
package store

import (
	"context"
	"time"

	"github.com/scopelens/intel-cli/internal/model"
)

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	ProfileID string          `json:"profile_id,omitempty"`
	Status    model.RunStatus `json:"status,omitempty"`
	Limit     int             `json:"limit,omitempty"`
	Offset    int             `json:"offset,omitempty"`
}

// SentimentCount is one bucket of a company's sentiment breakdown.
type SentimentCount struct {
	Sentiment model.Sentiment `json:"sentiment"`
	Posts     int             `json:"posts"`
}

// Store is the persistence interface consumed by the pipeline and by the
// management/dashboard collaborators. Re-invoking any write with the same
// input must not duplicate rows.
type Store interface {
	// Companies and profiles
	CreateCompany(ctx context.Context, c model.Company) (*model.Company, error)
	GetCompany(ctx context.Context, id string) (*model.Company, error)
	ListCompanies(ctx context.Context) ([]model.Company, error)
	CreateProfile(ctx context.Context, p model.Profile) (*model.Profile, error)
	GetProfile(ctx context.Context, id string) (*model.Profile, error)
	ListProfiles(ctx context.Context, companyID string) ([]model.Profile, error)

	// Pipeline persistence
	ExistingIdentityKeys(ctx context.Context, profileID string, keys []string) (map[string]bool, error)
	AlertCategoriesForPosts(ctx context.Context, profileID string, identityKeys []string) (map[string]map[model.AlertCategory]bool, error)
	UpsertPosts(ctx context.Context, profileID string, posts []model.Post) (int, error)
	InsertAlerts(ctx context.Context, alerts []model.Alert) (int, error)

	// Runs
	CreateRun(ctx context.Context, profileID string) (*model.Run, error)
	UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error
	// CommitRun closes a run: posts, alerts, the run's terminal state and
	// the profile cursor are written in one transaction. Nothing is
	// partially committed on failure.
	CommitRun(ctx context.Context, run *model.Run, posts []model.Post, alerts []model.Alert, crawledAt time.Time) (newPosts, newAlerts int, err error)
	// FailRun records a terminal failure outside the commit transaction.
	FailRun(ctx context.Context, runID string, counts model.RunCounts, cause string) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Dashboard reads
	SentimentSummary(ctx context.Context, companyID string) ([]SentimentCount, error)
	RecentAlerts(ctx context.Context, companyID string, limit int) ([]model.Alert, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

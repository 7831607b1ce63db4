// Package model defines the domain types shared across the crawl pipeline.
package model

import (
	"time"
)

// Sentiment is the AI-assigned sentiment label for a post.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
	SentimentUnknown  Sentiment = "unknown"
)

// PostStatus tracks a post's enrichment lifecycle. Transitions are
// one-way: pending may move to enriched or failed, never back.
type PostStatus string

const (
	PostStatusPending  PostStatus = "pending"
	PostStatusEnriched PostStatus = "enriched"
	PostStatusFailed   PostStatus = "failed"
)

// AlertCategory is the closed set of alert classifications. Categories
// the enrichment provider invents are mapped to AlertCategoryOther.
type AlertCategory string

const (
	AlertCategoryProductLaunch AlertCategory = "product_launch"
	AlertCategoryHiring        AlertCategory = "hiring"
	AlertCategoryFunding       AlertCategory = "funding"
	AlertCategoryPressNegative AlertCategory = "press_negative"
	AlertCategoryOther         AlertCategory = "other"
)

// ParseAlertCategory maps a free-form category string to the closed enum.
func ParseAlertCategory(s string) AlertCategory {
	switch AlertCategory(s) {
	case AlertCategoryProductLaunch, AlertCategoryHiring, AlertCategoryFunding, AlertCategoryPressNegative:
		return AlertCategory(s)
	default:
		return AlertCategoryOther
	}
}

// AlertSeverity grades how urgent an alert is.
type AlertSeverity string

const (
	SeverityLow    AlertSeverity = "low"
	SeverityMedium AlertSeverity = "medium"
	SeverityHigh   AlertSeverity = "high"
)

// RunStatus represents the current state of a crawl run.
type RunStatus string

const (
	RunStatusStarted   RunStatus = "started"
	RunStatusFetching  RunStatus = "fetching"
	RunStatusEnriching RunStatus = "enriching"
	RunStatusClosing   RunStatus = "closing"
	RunStatusSuccess   RunStatus = "success"
	RunStatusPartial   RunStatus = "partial"
	RunStatusFailed    RunStatus = "failed"
)

// Terminal reports whether a run status is final.
func (s RunStatus) Terminal() bool {
	switch s {
	case RunStatusSuccess, RunStatusPartial, RunStatusFailed:
		return true
	}
	return false
}

// Company is a tracked competitor. Identity is immutable once created.
type Company struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Industry     string    `json:"industry,omitempty"`
	Headquarters string    `json:"headquarters,omitempty"`
	Website      string    `json:"website,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Profile is one social-media presence belonging to a Company. Handle
// is the provider-facing identifier used to fetch posts.
type Profile struct {
	ID        string `json:"id"`
	CompanyID string `json:"company_id"`
	Platform  string `json:"platform"`
	Handle    string `json:"handle"`
	URL       string `json:"url,omitempty"`
	// LastCrawledAt is the crawl cursor, read and written only by the
	// orchestrator while it holds the profile's run lock.
	LastCrawledAt *time.Time `json:"last_crawled_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// Post is one social update owned by a Profile. Content is immutable
// once stored; only Sentiment and Status may change afterwards.
type Post struct {
	ID          string     `json:"id"`
	ProfileID   string     `json:"profile_id"`
	IdentityKey string     `json:"identity_key"`
	URL         string     `json:"url,omitempty"`
	Content     string     `json:"content"`
	PublishedAt time.Time  `json:"published_at"`
	Likes       int        `json:"likes"`
	Comments    int        `json:"comments"`
	Shares      int        `json:"shares"`
	Hashtags    []string   `json:"hashtags,omitempty"`
	Sentiment   Sentiment  `json:"sentiment"`
	Status      PostStatus `json:"status"`
}

// Alert is a competitive signal derived from a Post. At most one alert
// exists per (post, category) pair.
type Alert struct {
	ID     string `json:"id"`
	PostID string `json:"post_id,omitempty"`
	// PostIdentityKey carries the triggering post's identity key until the
	// store resolves the post row inside the commit transaction.
	PostIdentityKey string        `json:"post_identity_key,omitempty"`
	ProfileID       string        `json:"profile_id"`
	Category        AlertCategory `json:"category"`
	Severity        AlertSeverity `json:"severity"`
	Summary         string        `json:"summary"`
	CreatedAt       time.Time     `json:"created_at"`
}

// RunCounts tallies pipeline outcomes for one run.
type RunCounts struct {
	Fetched  int `json:"fetched"`
	New      int `json:"new"`
	Enriched int `json:"enriched"`
	Failed   int `json:"failed"`
}

// Run records one execution of fetch→enrich→persist for a Profile.
// Append-only once a terminal status is written.
type Run struct {
	ID         string     `json:"id"`
	ProfileID  string     `json:"profile_id"`
	Status     RunStatus  `json:"status"`
	Counts     RunCounts  `json:"counts"`
	Error      string     `json:"error,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

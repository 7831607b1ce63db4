package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/scopelens/intel-cli/internal/db"
	"github.com/scopelens/intel-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresWithPool wraps an existing pool. Used by tests with pgxmock.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS companies (
	id           TEXT PRIMARY KEY,
	name         TEXT NOT NULL UNIQUE,
	industry     TEXT,
	headquarters TEXT,
	website      TEXT,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS profiles (
	id              TEXT PRIMARY KEY,
	company_id      TEXT NOT NULL REFERENCES companies(id) ON DELETE CASCADE,
	platform        TEXT NOT NULL,
	handle          TEXT NOT NULL,
	url             TEXT,
	last_crawled_at TIMESTAMPTZ,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (company_id, platform, handle)
);

CREATE TABLE IF NOT EXISTS posts (
	id           TEXT PRIMARY KEY,
	profile_id   TEXT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
	identity_key TEXT NOT NULL,
	url          TEXT,
	content      TEXT NOT NULL,
	published_at TIMESTAMPTZ NOT NULL,
	likes        INTEGER NOT NULL DEFAULT 0,
	comments     INTEGER NOT NULL DEFAULT 0,
	shares       INTEGER NOT NULL DEFAULT 0,
	hashtags     JSONB,
	sentiment    TEXT NOT NULL DEFAULT 'unknown',
	status       TEXT NOT NULL DEFAULT 'pending',
	UNIQUE (profile_id, identity_key)
);

CREATE TABLE IF NOT EXISTS alerts (
	id         TEXT PRIMARY KEY,
	post_id    TEXT NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
	profile_id TEXT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
	category   TEXT NOT NULL,
	severity   TEXT NOT NULL DEFAULT 'medium',
	summary    TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (post_id, category)
);

CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	profile_id  TEXT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
	status      TEXT NOT NULL DEFAULT 'started',
	fetched     INTEGER NOT NULL DEFAULT 0,
	new_posts   INTEGER NOT NULL DEFAULT 0,
	enriched    INTEGER NOT NULL DEFAULT 0,
	failed      INTEGER NOT NULL DEFAULT 0,
	error       TEXT,
	started_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	finished_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_profiles_company_id ON profiles(company_id);
CREATE INDEX IF NOT EXISTS idx_posts_profile_id ON posts(profile_id);
CREATE INDEX IF NOT EXISTS idx_posts_published_at ON posts(published_at DESC);
CREATE INDEX IF NOT EXISTS idx_alerts_profile_id ON alerts(profile_id);
CREATE INDEX IF NOT EXISTS idx_runs_profile_id ON runs(profile_id);
CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateCompany(ctx context.Context, c model.Company) (*model.Company, error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	c.CreatedAt = time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO companies (id, name, industry, headquarters, website, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		c.ID, c.Name, c.Industry, c.Headquarters, c.Website, c.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert company")
	}
	return &c, nil
}

func (s *PostgresStore) GetCompany(ctx context.Context, id string) (*model.Company, error) {
	var c model.Company
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, COALESCE(industry, ''), COALESCE(headquarters, ''), COALESCE(website, ''), created_at FROM companies WHERE id = $1`,
		id,
	).Scan(&c.ID, &c.Name, &c.Industry, &c.Headquarters, &c.Website, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get company %s", id)
	}
	return &c, nil
}

func (s *PostgresStore) ListCompanies(ctx context.Context) ([]model.Company, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, COALESCE(industry, ''), COALESCE(headquarters, ''), COALESCE(website, ''), created_at FROM companies ORDER BY name`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list companies")
	}
	defer rows.Close()

	var companies []model.Company
	for rows.Next() {
		var c model.Company
		if err := rows.Scan(&c.ID, &c.Name, &c.Industry, &c.Headquarters, &c.Website, &c.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan company")
		}
		companies = append(companies, c)
	}
	return companies, eris.Wrap(rows.Err(), "postgres: list companies iterate")
}

func (s *PostgresStore) CreateProfile(ctx context.Context, p model.Profile) (*model.Profile, error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	p.CreatedAt = time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO profiles (id, company_id, platform, handle, url, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		p.ID, p.CompanyID, p.Platform, p.Handle, p.URL, p.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert profile")
	}
	return &p, nil
}

func (s *PostgresStore) GetProfile(ctx context.Context, id string) (*model.Profile, error) {
	var p model.Profile
	err := s.pool.QueryRow(ctx,
		`SELECT id, company_id, platform, handle, COALESCE(url, ''), last_crawled_at, created_at FROM profiles WHERE id = $1`,
		id,
	).Scan(&p.ID, &p.CompanyID, &p.Platform, &p.Handle, &p.URL, &p.LastCrawledAt, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get profile %s", id)
	}
	return &p, nil
}

func (s *PostgresStore) ListProfiles(ctx context.Context, companyID string) ([]model.Profile, error) {
	query := `SELECT id, company_id, platform, handle, COALESCE(url, ''), last_crawled_at, created_at FROM profiles`
	args := []any{}
	if companyID != "" {
		query += ` WHERE company_id = $1`
		args = append(args, companyID)
	}
	query += ` ORDER BY created_at`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list profiles")
	}
	defer rows.Close()

	var profiles []model.Profile
	for rows.Next() {
		var p model.Profile
		if err := rows.Scan(&p.ID, &p.CompanyID, &p.Platform, &p.Handle, &p.URL, &p.LastCrawledAt, &p.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan profile")
		}
		profiles = append(profiles, p)
	}
	return profiles, eris.Wrap(rows.Err(), "postgres: list profiles iterate")
}

// ExistingIdentityKeys returns which of keys are already stored for the
// profile. One query per batch; the dedup gate depends on that.
func (s *PostgresStore) ExistingIdentityKeys(ctx context.Context, profileID string, keys []string) (map[string]bool, error) {
	existing := make(map[string]bool, len(keys))
	if len(keys) == 0 {
		return existing, nil
	}

	rows, err := s.pool.Query(ctx,
		`SELECT identity_key FROM posts WHERE profile_id = $1 AND identity_key = ANY($2)`,
		profileID, keys,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: existing identity keys")
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, eris.Wrap(err, "postgres: scan identity key")
		}
		existing[key] = true
	}
	return existing, eris.Wrap(rows.Err(), "postgres: existing identity keys iterate")
}

// AlertCategoriesForPosts returns the alert categories already persisted for
// each of the given posts, keyed by identity key.
func (s *PostgresStore) AlertCategoriesForPosts(ctx context.Context, profileID string, identityKeys []string) (map[string]map[model.AlertCategory]bool, error) {
	out := make(map[string]map[model.AlertCategory]bool, len(identityKeys))
	if len(identityKeys) == 0 {
		return out, nil
	}

	rows, err := s.pool.Query(ctx,
		`SELECT p.identity_key, a.category
		 FROM alerts a JOIN posts p ON p.id = a.post_id
		 WHERE p.profile_id = $1 AND p.identity_key = ANY($2)`,
		profileID, identityKeys,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: alert categories")
	}
	defer rows.Close()

	for rows.Next() {
		var key, category string
		if err := rows.Scan(&key, &category); err != nil {
			return nil, eris.Wrap(err, "postgres: scan alert category")
		}
		if out[key] == nil {
			out[key] = make(map[model.AlertCategory]bool)
		}
		out[key][model.AlertCategory(category)] = true
	}
	return out, eris.Wrap(rows.Err(), "postgres: alert categories iterate")
}

// upsertPostSQL inserts a post or, when the identity key already exists,
// updates only the mutable enrichment fields while the stored post is still
// pending. Content never changes after first insert; sentiment and status
// never regress out of a terminal state.
const upsertPostSQL = `
INSERT INTO posts (id, profile_id, identity_key, url, content, published_at, likes, comments, shares, hashtags, sentiment, status)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
ON CONFLICT (profile_id, identity_key) DO UPDATE
SET sentiment = EXCLUDED.sentiment,
    status    = EXCLUDED.status,
    likes     = EXCLUDED.likes,
    comments  = EXCLUDED.comments,
    shares    = EXCLUDED.shares
WHERE posts.status = 'pending'`

// insertAlertSQL resolves the triggering post row by identity key and
// relies on the (post_id, category) unique constraint for at-most-once.
const insertAlertSQL = `
INSERT INTO alerts (id, post_id, profile_id, category, severity, summary, created_at)
SELECT $1, p.id, $2, $3, $4, $5, $6
FROM posts p
WHERE p.profile_id = $2 AND p.identity_key = $7
ON CONFLICT (post_id, category) DO NOTHING`

func (s *PostgresStore) UpsertPosts(ctx context.Context, profileID string, posts []model.Post) (int, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: upsert posts begin")
	}
	defer tx.Rollback(ctx)

	newPosts, err := upsertPostsTx(ctx, tx, profileID, posts)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrap(err, "postgres: upsert posts commit")
	}
	return newPosts, nil
}

func (s *PostgresStore) InsertAlerts(ctx context.Context, alerts []model.Alert) (int, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: insert alerts begin")
	}
	defer tx.Rollback(ctx)

	newAlerts, err := insertAlertsTx(ctx, tx, alerts)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrap(err, "postgres: insert alerts commit")
	}
	return newAlerts, nil
}

func upsertPostsTx(ctx context.Context, tx pgx.Tx, profileID string, posts []model.Post) (int, error) {
	// The upsert reports rows affected for updates as well, so the new-post
	// count comes from a key pre-check inside the same transaction.
	keys := make([]string, 0, len(posts))
	for i := range posts {
		keys = append(keys, posts[i].IdentityKey)
	}
	existing, err := existingKeysTx(ctx, tx, profileID, keys)
	if err != nil {
		return 0, err
	}

	newPosts := 0
	for i := range posts {
		p := &posts[i]
		if p.ID == "" {
			p.ID = uuid.New().String()
		}
		hashtags, err := json.Marshal(p.Hashtags)
		if err != nil {
			return 0, eris.Wrap(err, "postgres: marshal hashtags")
		}
		_, err = tx.Exec(ctx, upsertPostSQL,
			p.ID, profileID, p.IdentityKey, p.URL, p.Content, p.PublishedAt.UTC(),
			p.Likes, p.Comments, p.Shares, hashtags, string(p.Sentiment), string(p.Status),
		)
		if err != nil {
			return 0, eris.Wrapf(err, "postgres: upsert post %s", p.IdentityKey)
		}
		if !existing[p.IdentityKey] {
			newPosts++
		}
	}
	return newPosts, nil
}

func existingKeysTx(ctx context.Context, tx pgx.Tx, profileID string, keys []string) (map[string]bool, error) {
	existing := make(map[string]bool, len(keys))
	if len(keys) == 0 {
		return existing, nil
	}
	rows, err := tx.Query(ctx,
		`SELECT identity_key FROM posts WHERE profile_id = $1 AND identity_key = ANY($2)`,
		profileID, keys,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: existing keys in tx")
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, eris.Wrap(err, "postgres: scan existing key")
		}
		existing[key] = true
	}
	return existing, eris.Wrap(rows.Err(), "postgres: existing keys in tx iterate")
}

func insertAlertsTx(ctx context.Context, tx pgx.Tx, alerts []model.Alert) (int, error) {
	newAlerts := 0
	for i := range alerts {
		a := &alerts[i]
		if a.ID == "" {
			a.ID = uuid.New().String()
		}
		if a.CreatedAt.IsZero() {
			a.CreatedAt = time.Now().UTC()
		}
		tag, err := tx.Exec(ctx, insertAlertSQL,
			a.ID, a.ProfileID, string(a.Category), string(a.Severity), a.Summary, a.CreatedAt, a.PostIdentityKey,
		)
		if err != nil {
			return 0, eris.Wrapf(err, "postgres: insert alert for %s", a.PostIdentityKey)
		}
		newAlerts += int(tag.RowsAffected())
	}
	return newAlerts, nil
}

func (s *PostgresStore) CreateRun(ctx context.Context, profileID string) (*model.Run, error) {
	run := &model.Run{
		ID:        uuid.New().String(),
		ProfileID: profileID,
		Status:    model.RunStatusStarted,
		StartedAt: time.Now().UTC(),
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO runs (id, profile_id, status, started_at) VALUES ($1, $2, $3, $4)`,
		run.ID, run.ProfileID, string(run.Status), run.StartedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
	}
	return run, nil
}

func (s *PostgresStore) UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET status = $1 WHERE id = $2`,
		string(status), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update run status %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("run not found: %s", runID)
	}
	return nil
}

// CommitRun persists posts, alerts, the run's terminal state and the
// profile's crawl cursor atomically.
func (s *PostgresStore) CommitRun(ctx context.Context, run *model.Run, posts []model.Post, alerts []model.Alert, crawledAt time.Time) (int, int, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, 0, eris.Wrap(err, "postgres: commit run begin")
	}
	defer tx.Rollback(ctx)

	newPosts, err := upsertPostsTx(ctx, tx, run.ProfileID, posts)
	if err != nil {
		return 0, 0, err
	}
	newAlerts, err := insertAlertsTx(ctx, tx, alerts)
	if err != nil {
		return 0, 0, err
	}

	// The run row records the transaction-exact new count, not the dedup
	// gate's estimate.
	run.Counts.New = newPosts

	finishedAt := time.Now().UTC()
	run.FinishedAt = &finishedAt
	_, err = tx.Exec(ctx,
		`UPDATE runs SET status = $1, fetched = $2, new_posts = $3, enriched = $4, failed = $5, error = $6, finished_at = $7 WHERE id = $8`,
		string(run.Status), run.Counts.Fetched, run.Counts.New, run.Counts.Enriched, run.Counts.Failed, run.Error, finishedAt, run.ID,
	)
	if err != nil {
		return 0, 0, eris.Wrapf(err, "postgres: finish run %s", run.ID)
	}

	_, err = tx.Exec(ctx,
		`UPDATE profiles SET last_crawled_at = $1 WHERE id = $2`,
		crawledAt.UTC(), run.ProfileID,
	)
	if err != nil {
		return 0, 0, eris.Wrapf(err, "postgres: update profile cursor %s", run.ProfileID)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, 0, eris.Wrap(err, "postgres: commit run")
	}
	return newPosts, newAlerts, nil
}

func (s *PostgresStore) FailRun(ctx context.Context, runID string, counts model.RunCounts, cause string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE runs SET status = $1, fetched = $2, new_posts = $3, enriched = $4, failed = $5, error = $6, finished_at = $7 WHERE id = $8`,
		string(model.RunStatusFailed), counts.Fetched, counts.New, counts.Enriched, counts.Failed, cause, time.Now().UTC(), runID,
	)
	return eris.Wrapf(err, "postgres: fail run %s", runID)
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	var r model.Run
	var errMsg *string
	err := s.pool.QueryRow(ctx,
		`SELECT id, profile_id, status, fetched, new_posts, enriched, failed, error, started_at, finished_at FROM runs WHERE id = $1`,
		runID,
	).Scan(&r.ID, &r.ProfileID, &r.Status, &r.Counts.Fetched, &r.Counts.New, &r.Counts.Enriched, &r.Counts.Failed, &errMsg, &r.StartedAt, &r.FinishedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get run %s", runID)
	}
	if errMsg != nil {
		r.Error = *errMsg
	}
	return &r, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, profile_id, status, fetched, new_posts, enriched, failed, error, started_at, finished_at FROM runs WHERE true`
	args := []any{}
	argIdx := 1

	if filter.ProfileID != "" {
		query += fmt.Sprintf(` AND profile_id = $%d`, argIdx)
		args = append(args, filter.ProfileID)
		argIdx++
	}
	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	query += ` ORDER BY started_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		var r model.Run
		var errMsg *string
		if err := rows.Scan(&r.ID, &r.ProfileID, &r.Status, &r.Counts.Fetched, &r.Counts.New, &r.Counts.Enriched, &r.Counts.Failed, &errMsg, &r.StartedAt, &r.FinishedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		if errMsg != nil {
			r.Error = *errMsg
		}
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

func (s *PostgresStore) SentimentSummary(ctx context.Context, companyID string) ([]SentimentCount, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT po.sentiment, COUNT(*)
		 FROM posts po JOIN profiles pr ON pr.id = po.profile_id
		 WHERE pr.company_id = $1
		 GROUP BY po.sentiment ORDER BY po.sentiment`,
		companyID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: sentiment summary")
	}
	defer rows.Close()

	var counts []SentimentCount
	for rows.Next() {
		var c SentimentCount
		if err := rows.Scan(&c.Sentiment, &c.Posts); err != nil {
			return nil, eris.Wrap(err, "postgres: scan sentiment count")
		}
		counts = append(counts, c)
	}
	return counts, eris.Wrap(rows.Err(), "postgres: sentiment summary iterate")
}

func (s *PostgresStore) RecentAlerts(ctx context.Context, companyID string, limit int) ([]model.Alert, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx,
		`SELECT a.id, a.post_id, a.profile_id, a.category, a.severity, a.summary, a.created_at
		 FROM alerts a JOIN profiles pr ON pr.id = a.profile_id
		 WHERE pr.company_id = $1
		 ORDER BY a.created_at DESC LIMIT $2`,
		companyID, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: recent alerts")
	}
	defer rows.Close()

	var alerts []model.Alert
	for rows.Next() {
		var a model.Alert
		if err := rows.Scan(&a.ID, &a.PostID, &a.ProfileID, &a.Category, &a.Severity, &a.Summary, &a.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan alert")
		}
		alerts = append(alerts, a)
	}
	return alerts, eris.Wrap(rows.Err(), "postgres: recent alerts iterate")
}

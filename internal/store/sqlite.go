package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/scopelens/intel-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := sqlDB.Exec(pragma); err != nil {
			sqlDB.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: sqlDB}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS companies (
	id           TEXT PRIMARY KEY,
	name         TEXT NOT NULL UNIQUE,
	industry     TEXT,
	headquarters TEXT,
	website      TEXT,
	created_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS profiles (
	id              TEXT PRIMARY KEY,
	company_id      TEXT NOT NULL REFERENCES companies(id) ON DELETE CASCADE,
	platform        TEXT NOT NULL,
	handle          TEXT NOT NULL,
	url             TEXT,
	last_crawled_at DATETIME,
	created_at      DATETIME NOT NULL DEFAULT (datetime('now')),
	UNIQUE (company_id, platform, handle)
);

CREATE TABLE IF NOT EXISTS posts (
	id           TEXT PRIMARY KEY,
	profile_id   TEXT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
	identity_key TEXT NOT NULL,
	url          TEXT,
	content      TEXT NOT NULL,
	published_at DATETIME NOT NULL,
	likes        INTEGER NOT NULL DEFAULT 0,
	comments     INTEGER NOT NULL DEFAULT 0,
	shares       INTEGER NOT NULL DEFAULT 0,
	hashtags     TEXT,
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
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
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
	started_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	finished_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_profiles_company_id ON profiles(company_id);
CREATE INDEX IF NOT EXISTS idx_posts_profile_id ON posts(profile_id);
CREATE INDEX IF NOT EXISTS idx_posts_published_at ON posts(published_at);
CREATE INDEX IF NOT EXISTS idx_alerts_profile_id ON alerts(profile_id);
CREATE INDEX IF NOT EXISTS idx_runs_profile_id ON runs(profile_id);
CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func checkRowsAffected(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", kind, id)
	}
	return nil
}

// placeholders returns a comma-joined list of n "?" markers.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func (s *SQLiteStore) CreateCompany(ctx context.Context, c model.Company) (*model.Company, error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	c.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO companies (id, name, industry, headquarters, website, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Industry, c.Headquarters, c.Website, c.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert company")
	}
	return &c, nil
}

func (s *SQLiteStore) GetCompany(ctx context.Context, id string) (*model.Company, error) {
	var c model.Company
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, COALESCE(industry, ''), COALESCE(headquarters, ''), COALESCE(website, ''), created_at FROM companies WHERE id = ?`,
		id,
	).Scan(&c.ID, &c.Name, &c.Industry, &c.Headquarters, &c.Website, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "sqlite: get company %s", id)
	}
	return &c, nil
}

func (s *SQLiteStore) ListCompanies(ctx context.Context) ([]model.Company, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, COALESCE(industry, ''), COALESCE(headquarters, ''), COALESCE(website, ''), created_at FROM companies ORDER BY name`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list companies")
	}
	defer rows.Close()

	var companies []model.Company
	for rows.Next() {
		var c model.Company
		if err := rows.Scan(&c.ID, &c.Name, &c.Industry, &c.Headquarters, &c.Website, &c.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan company")
		}
		companies = append(companies, c)
	}
	return companies, eris.Wrap(rows.Err(), "sqlite: list companies iterate")
}

func (s *SQLiteStore) CreateProfile(ctx context.Context, p model.Profile) (*model.Profile, error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	p.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO profiles (id, company_id, platform, handle, url, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.CompanyID, p.Platform, p.Handle, p.URL, p.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert profile")
	}
	return &p, nil
}

func (s *SQLiteStore) GetProfile(ctx context.Context, id string) (*model.Profile, error) {
	var p model.Profile
	err := s.db.QueryRowContext(ctx,
		`SELECT id, company_id, platform, handle, COALESCE(url, ''), last_crawled_at, created_at FROM profiles WHERE id = ?`,
		id,
	).Scan(&p.ID, &p.CompanyID, &p.Platform, &p.Handle, &p.URL, &p.LastCrawledAt, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "sqlite: get profile %s", id)
	}
	return &p, nil
}

func (s *SQLiteStore) ListProfiles(ctx context.Context, companyID string) ([]model.Profile, error) {
	query := `SELECT id, company_id, platform, handle, COALESCE(url, ''), last_crawled_at, created_at FROM profiles`
	var args []any
	if companyID != "" {
		query += ` WHERE company_id = ?`
		args = append(args, companyID)
	}
	query += ` ORDER BY created_at`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list profiles")
	}
	defer rows.Close()

	var profiles []model.Profile
	for rows.Next() {
		var p model.Profile
		if err := rows.Scan(&p.ID, &p.CompanyID, &p.Platform, &p.Handle, &p.URL, &p.LastCrawledAt, &p.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan profile")
		}
		profiles = append(profiles, p)
	}
	return profiles, eris.Wrap(rows.Err(), "sqlite: list profiles iterate")
}

func (s *SQLiteStore) ExistingIdentityKeys(ctx context.Context, profileID string, keys []string) (map[string]bool, error) {
	existing := make(map[string]bool, len(keys))
	if len(keys) == 0 {
		return existing, nil
	}

	args := make([]any, 0, len(keys)+1)
	args = append(args, profileID)
	for _, k := range keys {
		args = append(args, k)
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT identity_key FROM posts WHERE profile_id = ? AND identity_key IN (`+placeholders(len(keys))+`)`,
		args...,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: existing identity keys")
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan identity key")
		}
		existing[key] = true
	}
	return existing, eris.Wrap(rows.Err(), "sqlite: existing identity keys iterate")
}

func (s *SQLiteStore) AlertCategoriesForPosts(ctx context.Context, profileID string, identityKeys []string) (map[string]map[model.AlertCategory]bool, error) {
	out := make(map[string]map[model.AlertCategory]bool, len(identityKeys))
	if len(identityKeys) == 0 {
		return out, nil
	}

	args := make([]any, 0, len(identityKeys)+1)
	args = append(args, profileID)
	for _, k := range identityKeys {
		args = append(args, k)
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT p.identity_key, a.category
		 FROM alerts a JOIN posts p ON p.id = a.post_id
		 WHERE p.profile_id = ? AND p.identity_key IN (`+placeholders(len(identityKeys))+`)`,
		args...,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: alert categories")
	}
	defer rows.Close()

	for rows.Next() {
		var key, category string
		if err := rows.Scan(&key, &category); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan alert category")
		}
		if out[key] == nil {
			out[key] = make(map[model.AlertCategory]bool)
		}
		out[key][model.AlertCategory(category)] = true
	}
	return out, eris.Wrap(rows.Err(), "sqlite: alert categories iterate")
}

const sqliteUpsertPostSQL = `
INSERT INTO posts (id, profile_id, identity_key, url, content, published_at, likes, comments, shares, hashtags, sentiment, status)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (profile_id, identity_key) DO UPDATE
SET sentiment = excluded.sentiment,
    status    = excluded.status,
    likes     = excluded.likes,
    comments  = excluded.comments,
    shares    = excluded.shares
WHERE posts.status = 'pending'`

const sqliteInsertAlertSQL = `
INSERT INTO alerts (id, post_id, profile_id, category, severity, summary, created_at)
SELECT ?, p.id, ?, ?, ?, ?, ?
FROM posts p
WHERE p.profile_id = ? AND p.identity_key = ?
ON CONFLICT (post_id, category) DO NOTHING`

func sqliteUpsertPostsTx(ctx context.Context, tx *sql.Tx, profileID string, posts []model.Post) (int, error) {
	// New-post count comes from a key pre-check in the same transaction;
	// the upsert's rows-affected counts updates as well as inserts.
	existing, err := sqliteExistingKeysTx(ctx, tx, profileID, posts)
	if err != nil {
		return 0, err
	}

	stmt, err := tx.PrepareContext(ctx, sqliteUpsertPostSQL)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare upsert post")
	}
	defer stmt.Close()

	newPosts := 0
	for i := range posts {
		p := &posts[i]
		if p.ID == "" {
			p.ID = uuid.New().String()
		}
		hashtags, err := json.Marshal(p.Hashtags)
		if err != nil {
			return 0, eris.Wrap(err, "sqlite: marshal hashtags")
		}
		_, err = stmt.ExecContext(ctx,
			p.ID, profileID, p.IdentityKey, p.URL, p.Content, p.PublishedAt.UTC(),
			p.Likes, p.Comments, p.Shares, string(hashtags), string(p.Sentiment), string(p.Status),
		)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: upsert post %s", p.IdentityKey)
		}
		if !existing[p.IdentityKey] {
			newPosts++
		}
	}
	return newPosts, nil
}

func sqliteExistingKeysTx(ctx context.Context, tx *sql.Tx, profileID string, posts []model.Post) (map[string]bool, error) {
	existing := make(map[string]bool, len(posts))
	if len(posts) == 0 {
		return existing, nil
	}

	args := make([]any, 0, len(posts)+1)
	args = append(args, profileID)
	for i := range posts {
		args = append(args, posts[i].IdentityKey)
	}
	rows, err := tx.QueryContext(ctx,
		`SELECT identity_key FROM posts WHERE profile_id = ? AND identity_key IN (`+placeholders(len(posts))+`)`,
		args...,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: existing keys in tx")
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan existing key")
		}
		existing[key] = true
	}
	return existing, eris.Wrap(rows.Err(), "sqlite: existing keys in tx iterate")
}

func sqliteInsertAlertsTx(ctx context.Context, tx *sql.Tx, alerts []model.Alert) (int, error) {
	stmt, err := tx.PrepareContext(ctx, sqliteInsertAlertSQL)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare insert alert")
	}
	defer stmt.Close()

	newAlerts := 0
	for i := range alerts {
		a := &alerts[i]
		if a.ID == "" {
			a.ID = uuid.New().String()
		}
		if a.CreatedAt.IsZero() {
			a.CreatedAt = time.Now().UTC()
		}
		res, err := stmt.ExecContext(ctx,
			a.ID, a.ProfileID, string(a.Category), string(a.Severity), a.Summary, a.CreatedAt,
			a.ProfileID, a.PostIdentityKey,
		)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: insert alert for %s", a.PostIdentityKey)
		}
		if n, err := res.RowsAffected(); err == nil {
			newAlerts += int(n)
		}
	}
	return newAlerts, nil
}

func (s *SQLiteStore) UpsertPosts(ctx context.Context, profileID string, posts []model.Post) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: upsert posts begin")
	}
	defer tx.Rollback()

	newPosts, err := sqliteUpsertPostsTx(ctx, tx, profileID, posts)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: upsert posts commit")
	}
	return newPosts, nil
}

func (s *SQLiteStore) InsertAlerts(ctx context.Context, alerts []model.Alert) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: insert alerts begin")
	}
	defer tx.Rollback()

	newAlerts, err := sqliteInsertAlertsTx(ctx, tx, alerts)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: insert alerts commit")
	}
	return newAlerts, nil
}

func (s *SQLiteStore) CreateRun(ctx context.Context, profileID string) (*model.Run, error) {
	run := &model.Run{
		ID:        uuid.New().String(),
		ProfileID: profileID,
		Status:    model.RunStatusStarted,
		StartedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, profile_id, status, started_at) VALUES (?, ?, ?, ?)`,
		run.ID, run.ProfileID, string(run.Status), run.StartedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}
	return run, nil
}

func (s *SQLiteStore) UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ? WHERE id = ?`,
		string(status), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update run status %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) CommitRun(ctx context.Context, run *model.Run, posts []model.Post, alerts []model.Alert, crawledAt time.Time) (int, int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, eris.Wrap(err, "sqlite: commit run begin")
	}
	defer tx.Rollback()

	newPosts, err := sqliteUpsertPostsTx(ctx, tx, run.ProfileID, posts)
	if err != nil {
		return 0, 0, err
	}
	newAlerts, err := sqliteInsertAlertsTx(ctx, tx, alerts)
	if err != nil {
		return 0, 0, err
	}

	// The run row records the transaction-exact new count, not the dedup
	// gate's estimate.
	run.Counts.New = newPosts

	finishedAt := time.Now().UTC()
	run.FinishedAt = &finishedAt
	_, err = tx.ExecContext(ctx,
		`UPDATE runs SET status = ?, fetched = ?, new_posts = ?, enriched = ?, failed = ?, error = ?, finished_at = ? WHERE id = ?`,
		string(run.Status), run.Counts.Fetched, run.Counts.New, run.Counts.Enriched, run.Counts.Failed, run.Error, finishedAt, run.ID,
	)
	if err != nil {
		return 0, 0, eris.Wrapf(err, "sqlite: finish run %s", run.ID)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE profiles SET last_crawled_at = ? WHERE id = ?`,
		crawledAt.UTC(), run.ProfileID,
	)
	if err != nil {
		return 0, 0, eris.Wrapf(err, "sqlite: update profile cursor %s", run.ProfileID)
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, eris.Wrap(err, "sqlite: commit run")
	}
	return newPosts, newAlerts, nil
}

func (s *SQLiteStore) FailRun(ctx context.Context, runID string, counts model.RunCounts, cause string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, fetched = ?, new_posts = ?, enriched = ?, failed = ?, error = ?, finished_at = ? WHERE id = ?`,
		string(model.RunStatusFailed), counts.Fetched, counts.New, counts.Enriched, counts.Failed, cause, time.Now().UTC(), runID,
	)
	return eris.Wrapf(err, "sqlite: fail run %s", runID)
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	var r model.Run
	var errMsg sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT id, profile_id, status, fetched, new_posts, enriched, failed, error, started_at, finished_at FROM runs WHERE id = ?`,
		runID,
	).Scan(&r.ID, &r.ProfileID, &r.Status, &r.Counts.Fetched, &r.Counts.New, &r.Counts.Enriched, &r.Counts.Failed, &errMsg, &r.StartedAt, &r.FinishedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "sqlite: get run %s", runID)
	}
	r.Error = errMsg.String
	return &r, nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, profile_id, status, fetched, new_posts, enriched, failed, error, started_at, finished_at FROM runs WHERE 1=1`
	var args []any

	if filter.ProfileID != "" {
		query += ` AND profile_id = ?`
		args = append(args, filter.ProfileID)
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY started_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		var r model.Run
		var errMsg sql.NullString
		if err := rows.Scan(&r.ID, &r.ProfileID, &r.Status, &r.Counts.Fetched, &r.Counts.New, &r.Counts.Enriched, &r.Counts.Failed, &errMsg, &r.StartedAt, &r.FinishedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		r.Error = errMsg.String
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

func (s *SQLiteStore) SentimentSummary(ctx context.Context, companyID string) ([]SentimentCount, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT po.sentiment, COUNT(*)
		 FROM posts po JOIN profiles pr ON pr.id = po.profile_id
		 WHERE pr.company_id = ?
		 GROUP BY po.sentiment ORDER BY po.sentiment`,
		companyID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: sentiment summary")
	}
	defer rows.Close()

	var counts []SentimentCount
	for rows.Next() {
		var c SentimentCount
		if err := rows.Scan(&c.Sentiment, &c.Posts); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan sentiment count")
		}
		counts = append(counts, c)
	}
	return counts, eris.Wrap(rows.Err(), "sqlite: sentiment summary iterate")
}

func (s *SQLiteStore) RecentAlerts(ctx context.Context, companyID string, limit int) ([]model.Alert, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT a.id, a.post_id, a.profile_id, a.category, a.severity, a.summary, a.created_at
		 FROM alerts a JOIN profiles pr ON pr.id = a.profile_id
		 WHERE pr.company_id = ?
		 ORDER BY a.created_at DESC LIMIT ?`,
		companyID, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: recent alerts")
	}
	defer rows.Close()

	var alerts []model.Alert
	for rows.Next() {
		var a model.Alert
		if err := rows.Scan(&a.ID, &a.PostID, &a.ProfileID, &a.Category, &a.Severity, &a.Summary, &a.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan alert")
		}
		alerts = append(alerts, a)
	}
	return alerts, eris.Wrap(rows.Err(), "sqlite: recent alerts iterate")
}

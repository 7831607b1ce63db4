// Package pipeline drives the fetch, normalize, dedupe, enrich and persist
// stages of one crawl run.
package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/scopelens/intel-cli/internal/enrich"
	"github.com/scopelens/intel-cli/internal/metrics"
	"github.com/scopelens/intel-cli/internal/model"
	"github.com/scopelens/intel-cli/internal/normalize"
	"github.com/scopelens/intel-cli/internal/resilience"
	"github.com/scopelens/intel-cli/internal/store"
	"github.com/scopelens/intel-cli/pkg/apify"
)

// ErrRunInProgress is returned when a crawl is requested for a profile that
// already has one running.
var ErrRunInProgress = eris.New("pipeline: crawl already in progress for profile")

// ErrProfileNotFound is returned when the requested profile does not exist.
var ErrProfileNotFound = eris.New("pipeline: profile not found")

// Config tunes one orchestrator instance.
type Config struct {
	// Workers bounds enrichment fan-out within a run.
	Workers int
	// RunTimeout bounds a whole run. Expiry marks unresolved posts failed
	// and still closes the run with partial results. Zero disables it.
	RunTimeout time.Duration
	// EnrichTimeout bounds each individual enrichment call.
	EnrichTimeout time.Duration
	// FetchMaxAttempts bounds provider fetch retries on rate limiting.
	FetchMaxAttempts int
	// EnrichMaxAttempts bounds per-post enrichment retries on rate limiting.
	EnrichMaxAttempts int
	// ConfidenceThreshold drops alert candidates below it.
	ConfidenceThreshold float64
	// FetchLimit caps how many posts one fetch may return.
	FetchLimit int
	// RetryBackoff overrides the initial retry backoff. Zero keeps the
	// resilience default.
	RetryBackoff time.Duration
}

func (c Config) withDefaults() Config {
	if c.Workers <= 0 {
		c.Workers = 5
	}
	if c.EnrichTimeout <= 0 {
		c.EnrichTimeout = 30 * time.Second
	}
	if c.FetchMaxAttempts <= 0 {
		c.FetchMaxAttempts = 3
	}
	if c.EnrichMaxAttempts <= 0 {
		c.EnrichMaxAttempts = 3
	}
	if c.ConfidenceThreshold <= 0 {
		c.ConfidenceThreshold = 0.6
	}
	if c.FetchLimit <= 0 {
		c.FetchLimit = 100
	}
	return c
}

// Orchestrator coordinates one crawl run per profile. It holds no lock
// across network calls; single-flight per profile is the only mutual
// exclusion, and the store's unique constraints back it up.
type Orchestrator struct {
	store    store.Store
	provider apify.Client
	enricher enrich.Client
	cfg      Config
	locks    *profileLocks
}

// New creates an Orchestrator.
func New(st store.Store, provider apify.Client, enricher enrich.Client, cfg Config) *Orchestrator {
	return &Orchestrator{
		store:    st,
		provider: provider,
		enricher: enricher,
		cfg:      cfg.withDefaults(),
		locks:    newProfileLocks(),
	}
}

// Crawl executes one full run for a profile and returns the closed run.
// The returned run always carries a terminal status; in-flight state is
// never observable after Crawl returns.
func (o *Orchestrator) Crawl(ctx context.Context, profileID string) (*model.Run, error) {
	if !o.locks.TryAcquire(profileID) {
		return nil, ErrRunInProgress
	}
	defer o.locks.Release(profileID)

	profile, err := o.store.GetProfile(ctx, profileID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrProfileNotFound
	}

	run, err := o.store.CreateRun(ctx, profileID)
	if err != nil {
		return nil, err
	}
	metrics.RunsStarted.Inc()
	log := zap.L().With(zap.String("run_id", run.ID), zap.String("profile_id", profileID), zap.String("handle", profile.Handle))
	log.Info("crawl run started")

	runCtx := ctx
	if o.cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, o.cfg.RunTimeout)
		defer cancel()
	}

	// Fetch.
	if err := o.store.UpdateRunStatus(runCtx, run.ID, model.RunStatusFetching); err != nil {
		return o.closeFailed(ctx, run, model.RunCounts{}, err)
	}
	fetchedAt := time.Now().UTC()
	raw, err := o.fetch(runCtx, *profile)
	if err != nil {
		log.Error("fetch failed", zap.Error(err))
		return o.closeFailed(ctx, run, model.RunCounts{}, err)
	}
	run.Counts.Fetched = len(raw)
	metrics.PostsFetched.Add(float64(len(raw)))

	// Normalize. Per-record failures are counted, never fatal.
	posts := make([]model.Post, 0, len(raw))
	for _, r := range raw {
		post, err := normalize.Normalize(r, *profile)
		if err != nil {
			run.Counts.Failed++
			log.Warn("record rejected", zap.String("uid", r.UID), zap.Error(err))
			continue
		}
		posts = append(posts, post)
	}

	// Dedupe.
	fresh, err := dedupe(runCtx, o.store, profileID, posts)
	if err != nil {
		return o.closeFailed(ctx, run, run.Counts, err)
	}
	run.Counts.New = len(fresh)

	// Enrich.
	if err := o.store.UpdateRunStatus(runCtx, run.ID, model.RunStatusEnriching); err != nil {
		return o.closeFailed(ctx, run, run.Counts, err)
	}
	candidates := o.enrichAll(runCtx, run, fresh, log)

	// Closing writes get their own budget, detached from the run deadline,
	// starting now: a run that spent its whole deadline fetching and
	// enriching must still land every resolved post.
	closeCtx, closeCancel := closingContext(ctx)
	defer closeCancel()

	// Synthesize alerts, checking categories already stored for these posts
	// so a re-processed post cannot fire the same alert twice.
	keys := make([]string, 0, len(fresh))
	for i := range fresh {
		keys = append(keys, fresh[i].IdentityKey)
	}
	existingCats, err := o.store.AlertCategoriesForPosts(closeCtx, profileID, keys)
	if err != nil {
		return o.closeFailed(ctx, run, run.Counts, err)
	}
	var alerts []model.Alert
	for i := range fresh {
		if fresh[i].Status != model.PostStatusEnriched {
			continue
		}
		synthesized := synthesizeAlerts(fresh[i], candidates[i], o.cfg.ConfidenceThreshold, existingCats[fresh[i].IdentityKey])
		for _, a := range synthesized {
			metrics.AlertsCreated.WithLabelValues(string(a.Category)).Inc()
		}
		alerts = append(alerts, synthesized...)
	}

	// Close.
	if err := o.store.UpdateRunStatus(closeCtx, run.ID, model.RunStatusClosing); err != nil {
		return o.closeFailed(ctx, run, run.Counts, err)
	}
	if run.Counts.Failed == 0 {
		run.Status = model.RunStatusSuccess
	} else {
		run.Status = model.RunStatusPartial
	}
	newPosts, newAlerts, err := o.store.CommitRun(closeCtx, run, fresh, alerts, fetchedAt)
	if err != nil {
		return o.closeFailed(ctx, run, run.Counts, err)
	}

	metrics.RunsFinished.WithLabelValues(string(run.Status)).Inc()
	metrics.ObserveRunDuration(run.StartedAt)
	log.Info("crawl run closed",
		zap.String("status", string(run.Status)),
		zap.Int("fetched", run.Counts.Fetched),
		zap.Int("new", newPosts),
		zap.Int("enriched", run.Counts.Enriched),
		zap.Int("failed", run.Counts.Failed),
		zap.Int("alerts", newAlerts),
	)
	return run, nil
}

// fetch calls the crawl provider with the retry policy: rate limiting is
// retried with backoff up to the configured max, a timeout is retried once,
// not_found and malformed responses fail immediately.
func (o *Orchestrator) fetch(ctx context.Context, profile model.Profile) ([]apify.RawPost, error) {
	req := apify.FetchRequest{Handle: profile.Handle, Limit: o.cfg.FetchLimit}
	if profile.LastCrawledAt != nil {
		req.Since = *profile.LastCrawledAt
	}

	timeoutRetries := 0
	cfg := resilience.DefaultRetryConfig()
	cfg.MaxAttempts = o.cfg.FetchMaxAttempts
	if o.cfg.RetryBackoff > 0 {
		cfg.InitialBackoff = o.cfg.RetryBackoff
	}
	cfg.ShouldRetry = func(err error) bool {
		kind, ok := apify.KindOf(err)
		if !ok {
			return false
		}
		switch kind {
		case apify.KindRateLimited:
			return true
		case apify.KindTimeout:
			timeoutRetries++
			return timeoutRetries <= 1
		default:
			return false
		}
	}
	retryLog := resilience.RetryLogger("apify", "fetch_posts")
	cfg.OnRetry = func(attempt int, err error) {
		metrics.IncProviderRetry("apify")
		retryLog(attempt, err)
	}

	return resilience.DoVal(ctx, cfg, func(ctx context.Context) ([]apify.RawPost, error) {
		return o.provider.FetchPosts(ctx, req)
	})
}

// enrichAll classifies the new posts with bounded fan-out, mutating each
// post's sentiment and status in place and returning the alert candidates
// index-aligned with posts. It returns only after every post has resolved;
// one post's failure never blocks or aborts its siblings.
func (o *Orchestrator) enrichAll(ctx context.Context, run *model.Run, posts []model.Post, log *zap.Logger) [][]enrich.AlertCandidate {
	candidates := make([][]enrich.AlertCandidate, len(posts))
	var mu sync.Mutex

	g := new(errgroup.Group)
	g.SetLimit(o.cfg.Workers)
	for i := range posts {
		g.Go(func() error {
			res, err := o.enrichOne(ctx, posts[i].Content)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				posts[i].Status = model.PostStatusFailed
				run.Counts.Failed++
				metrics.PostsEnriched.WithLabelValues("failed").Inc()
				log.Warn("enrichment failed", zap.String("identity_key", posts[i].IdentityKey), zap.Error(err))
				return nil
			}
			posts[i].Sentiment = res.Sentiment
			posts[i].Status = model.PostStatusEnriched
			run.Counts.Enriched++
			candidates[i] = res.Candidates
			metrics.PostsEnriched.WithLabelValues("enriched").Inc()
			return nil
		})
	}
	// Workers absorb their own failures, so Wait is purely the barrier.
	_ = g.Wait()
	return candidates
}

// enrichOne runs a single classification with its own call timeout and the
// enrichment retry policy: rate limiting retried with backoff, timeout
// retried once, an invalid response never retried.
func (o *Orchestrator) enrichOne(ctx context.Context, text string) (*enrich.Result, error) {
	timeoutRetries := 0
	cfg := resilience.DefaultRetryConfig()
	cfg.MaxAttempts = o.cfg.EnrichMaxAttempts
	if o.cfg.RetryBackoff > 0 {
		cfg.InitialBackoff = o.cfg.RetryBackoff
	}
	cfg.ShouldRetry = func(err error) bool {
		kind, ok := enrich.KindOf(err)
		if !ok {
			return false
		}
		switch kind {
		case enrich.KindRateLimited:
			return true
		case enrich.KindTimeout:
			timeoutRetries++
			return timeoutRetries <= 1
		default:
			return false
		}
	}
	retryLog := resilience.RetryLogger("enrich", "classify")
	cfg.OnRetry = func(attempt int, err error) {
		metrics.IncProviderRetry("enrich")
		retryLog(attempt, err)
	}

	return resilience.DoVal(ctx, cfg, func(ctx context.Context) (*enrich.Result, error) {
		callCtx, cancel := context.WithTimeout(ctx, o.cfg.EnrichTimeout)
		defer cancel()
		return o.enricher.Classify(callCtx, text)
	})
}

// closeTimeout bounds the terminal writes of a run.
const closeTimeout = 30 * time.Second

// closingContext detaches closing writes from the run deadline and any
// caller cancellation, giving them their own budget counted from the
// moment closing starts.
func closingContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), closeTimeout)
}

// closeFailed records a terminal failure for the run. The run always leaves
// Crawl with a terminal status even when the failure path itself errors.
func (o *Orchestrator) closeFailed(ctx context.Context, run *model.Run, counts model.RunCounts, cause error) (*model.Run, error) {
	closeCtx, cancel := closingContext(ctx)
	defer cancel()

	run.Status = model.RunStatusFailed
	run.Counts = counts
	run.Error = cause.Error()
	if err := o.store.FailRun(closeCtx, run.ID, counts, run.Error); err != nil {
		zap.L().Error("failed to record run failure", zap.String("run_id", run.ID), zap.Error(err))
	}
	metrics.RunsFinished.WithLabelValues(string(model.RunStatusFailed)).Inc()
	metrics.ObserveRunDuration(run.StartedAt)
	return run, cause
}

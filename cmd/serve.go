package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"slices"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/scopelens/intel-cli/internal/model"
	"github.com/scopelens/intel-cli/internal/pipeline"
	"github.com/scopelens/intel-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long:  "Serves company/profile management, crawl triggers, run status, dashboard reads and Prometheus metrics.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		e, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           newRouter(ctx, e),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return eris.Wrap(err, "server listen")
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// newRouter wires the API routes. serveCtx outlives individual requests and
// scopes the async crawls the trigger endpoint spawns.
func newRouter(serveCtx context.Context, e *env) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/companies", func(r chi.Router) {
		r.Post("/", handleCreateCompany(e.Store))
		r.Get("/", handleListCompanies(e.Store))
		r.Get("/compare", handleCompareCompanies(e.Store))
		r.Get("/{id}", handleGetCompany(e.Store))
		r.Get("/{id}/sentiment", handleSentimentSummary(e.Store))
		r.Get("/{id}/alerts", handleRecentAlerts(e.Store))
	})

	r.Route("/profiles", func(r chi.Router) {
		r.Post("/", handleCreateProfile(e.Store))
		r.Get("/", handleListProfiles(e.Store))
		r.Post("/{id}/crawl", handleTriggerCrawl(serveCtx, e))
	})

	r.Route("/runs", func(r chi.Router) {
		r.Get("/", handleListRuns(e.Store))
		r.Get("/{id}", handleGetRun(e.Store))
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func handleCreateCompany(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req model.Company
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Name == "" {
			writeError(w, http.StatusBadRequest, "name is required")
			return
		}
		req.ID = ""
		company, err := st.CreateCompany(r.Context(), req)
		if err != nil {
			zap.L().Error("create company failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "create company failed")
			return
		}
		writeJSON(w, http.StatusCreated, company)
	}
}

func handleListCompanies(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		companies, err := st.ListCompanies(r.Context())
		if err != nil {
			zap.L().Error("list companies failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "list companies failed")
			return
		}
		if companies == nil {
			companies = []model.Company{}
		}
		writeJSON(w, http.StatusOK, companies)
	}
}

func handleGetCompany(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		company, err := st.GetCompany(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			zap.L().Error("get company failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "get company failed")
			return
		}
		if company == nil {
			writeError(w, http.StatusNotFound, "company not found")
			return
		}
		writeJSON(w, http.StatusOK, company)
	}
}

func handleSentimentSummary(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		counts, err := st.SentimentSummary(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			zap.L().Error("sentiment summary failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "sentiment summary failed")
			return
		}
		if counts == nil {
			counts = []store.SentimentCount{}
		}
		writeJSON(w, http.StatusOK, counts)
	}
}

func handleRecentAlerts(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		alerts, err := st.RecentAlerts(r.Context(), chi.URLParam(r, "id"), limit)
		if err != nil {
			zap.L().Error("recent alerts failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "recent alerts failed")
			return
		}
		if alerts == nil {
			alerts = []model.Alert{}
		}
		writeJSON(w, http.StatusOK, alerts)
	}
}

// companyComparison is one side of a side-by-side dashboard comparison.
type companyComparison struct {
	Company      *model.Company         `json:"company"`
	Sentiment    []store.SentimentCount `json:"sentiment"`
	RecentAlerts []model.Alert          `json:"recent_alerts"`
}

// handleCompareCompanies returns the sentiment breakdown and latest alerts
// for two or more companies at once, for side-by-side dashboard views.
func handleCompareCompanies(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ids := strings.Split(r.URL.Query().Get("ids"), ",")
		ids = slices.DeleteFunc(ids, func(id string) bool { return id == "" })
		if len(ids) < 2 {
			writeError(w, http.StatusBadRequest, "at least two company ids are required")
			return
		}

		comparisons := make([]companyComparison, 0, len(ids))
		for _, id := range ids {
			company, err := st.GetCompany(r.Context(), id)
			if err != nil {
				zap.L().Error("compare companies failed", zap.String("company_id", id), zap.Error(err))
				writeError(w, http.StatusInternalServerError, "compare companies failed")
				return
			}
			if company == nil {
				writeError(w, http.StatusNotFound, "company not found: "+id)
				return
			}

			sentiment, err := st.SentimentSummary(r.Context(), id)
			if err != nil {
				zap.L().Error("compare companies failed", zap.String("company_id", id), zap.Error(err))
				writeError(w, http.StatusInternalServerError, "compare companies failed")
				return
			}
			alerts, err := st.RecentAlerts(r.Context(), id, 5)
			if err != nil {
				zap.L().Error("compare companies failed", zap.String("company_id", id), zap.Error(err))
				writeError(w, http.StatusInternalServerError, "compare companies failed")
				return
			}
			if sentiment == nil {
				sentiment = []store.SentimentCount{}
			}
			if alerts == nil {
				alerts = []model.Alert{}
			}
			comparisons = append(comparisons, companyComparison{
				Company:      company,
				Sentiment:    sentiment,
				RecentAlerts: alerts,
			})
		}
		writeJSON(w, http.StatusOK, comparisons)
	}
}

func handleCreateProfile(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req model.Profile
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.CompanyID == "" || req.Platform == "" || req.Handle == "" {
			writeError(w, http.StatusBadRequest, "company_id, platform and handle are required")
			return
		}
		req.ID = ""
		profile, err := st.CreateProfile(r.Context(), req)
		if err != nil {
			zap.L().Error("create profile failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "create profile failed")
			return
		}
		writeJSON(w, http.StatusCreated, profile)
	}
}

func handleListProfiles(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profiles, err := st.ListProfiles(r.Context(), r.URL.Query().Get("company_id"))
		if err != nil {
			zap.L().Error("list profiles failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "list profiles failed")
			return
		}
		if profiles == nil {
			profiles = []model.Profile{}
		}
		writeJSON(w, http.StatusOK, profiles)
	}
}

// handleTriggerCrawl kicks off a crawl in the background and returns 202.
// Clients poll /runs?profile_id= for the outcome. A trigger for a profile
// that is already crawling is dropped by the per-profile single flight.
func handleTriggerCrawl(serveCtx context.Context, e *env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profileID := chi.URLParam(r, "id")
		profile, err := e.Store.GetProfile(r.Context(), profileID)
		if err != nil {
			zap.L().Error("get profile failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "get profile failed")
			return
		}
		if profile == nil {
			writeError(w, http.StatusNotFound, "profile not found")
			return
		}

		go func() {
			run, err := e.Orchestrator.Crawl(serveCtx, profileID)
			if err != nil {
				if errors.Is(err, pipeline.ErrRunInProgress) {
					return
				}
				zap.L().Error("triggered crawl failed", zap.String("profile_id", profileID), zap.Error(err))
				return
			}
			zap.L().Info("triggered crawl finished",
				zap.String("profile_id", profileID),
				zap.String("run_id", run.ID),
				zap.String("status", string(run.Status)),
			)
		}()

		writeJSON(w, http.StatusAccepted, map[string]string{
			"status":     "accepted",
			"profile_id": profileID,
		})
	}
}

func handleListRuns(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		runs, err := st.ListRuns(r.Context(), store.RunFilter{
			ProfileID: r.URL.Query().Get("profile_id"),
			Status:    model.RunStatus(r.URL.Query().Get("status")),
			Limit:     limit,
		})
		if err != nil {
			zap.L().Error("list runs failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "list runs failed")
			return
		}
		if runs == nil {
			runs = []model.Run{}
		}
		writeJSON(w, http.StatusOK, runs)
	}
}

func handleGetRun(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		run, err := st.GetRun(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			zap.L().Error("get run failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "get run failed")
			return
		}
		if run == nil {
			writeError(w, http.StatusNotFound, "run not found")
			return
		}
		writeJSON(w, http.StatusOK, run)
	}
}

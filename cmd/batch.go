package main

import (
	"errors"
	"fmt"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/scopelens/intel-cli/internal/model"
	"github.com/scopelens/intel-cli/internal/pipeline"
)

var batchCompanyID string

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Crawl all tracked profiles",
	Long:  "Runs the crawl pipeline for every profile (optionally scoped to one company), with bounded cross-profile concurrency.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		e, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		profiles, err := e.Store.ListProfiles(ctx, batchCompanyID)
		if err != nil {
			return eris.Wrap(err, "list profiles")
		}
		if len(profiles) == 0 {
			fmt.Println("No profiles to crawl.")
			return nil
		}

		var succeeded, partial, failed atomic.Int64

		g := new(errgroup.Group)
		g.SetLimit(cfg.Batch.MaxConcurrentProfiles)
		for _, p := range profiles {
			g.Go(func() error {
				run, err := e.Orchestrator.Crawl(ctx, p.ID)
				if err != nil && run == nil {
					if errors.Is(err, pipeline.ErrRunInProgress) {
						zap.L().Warn("profile already crawling, skipped", zap.String("profile_id", p.ID))
						return nil
					}
					failed.Add(1)
					zap.L().Error("crawl failed", zap.String("profile_id", p.ID), zap.Error(err))
					return nil
				}
				switch run.Status {
				case model.RunStatusSuccess:
					succeeded.Add(1)
				case model.RunStatusPartial:
					partial.Add(1)
				default:
					failed.Add(1)
				}
				return nil
			})
		}
		_ = g.Wait()

		zap.L().Info("batch complete",
			zap.Int("profiles", len(profiles)),
			zap.Int64("success", succeeded.Load()),
			zap.Int64("partial", partial.Load()),
			zap.Int64("failed", failed.Load()),
		)
		fmt.Printf("Crawled %d profiles: %d success, %d partial, %d failed\n",
			len(profiles), succeeded.Load(), partial.Load(), failed.Load())
		return nil
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchCompanyID, "company", "", "limit to one company's profiles")
	rootCmd.AddCommand(batchCmd)
}

package main

import (
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/scopelens/intel-cli/internal/model"
)

var crawlProfileID string

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Run the crawl pipeline for a single profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		e, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		return runCrawl(ctx, e, crawlProfileID, os.Stdout)
	},
}

// runCrawl executes one run and prints the closed run. A run that closes
// as failed still prints, but the command exits non-zero.
func runCrawl(ctx context.Context, e *env, profileID string, out io.Writer) error {
	run, err := e.Orchestrator.Crawl(ctx, profileID)
	if err != nil && run == nil {
		return eris.Wrap(err, "crawl")
	}

	zap.L().Info("crawl finished",
		zap.String("profile_id", profileID),
		zap.String("run_id", run.ID),
		zap.String("status", string(run.Status)),
	)

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if encErr := enc.Encode(run); encErr != nil {
		return encErr
	}

	if run.Status == model.RunStatusFailed {
		if err != nil {
			return eris.Wrap(err, "crawl")
		}
		return eris.Errorf("crawl: run %s failed: %s", run.ID, run.Error)
	}
	return nil
}

func init() {
	crawlCmd.Flags().StringVar(&crawlProfileID, "profile", "", "profile ID to crawl (required)")
	_ = crawlCmd.MarkFlagRequired("profile")
	rootCmd.AddCommand(crawlCmd)
}

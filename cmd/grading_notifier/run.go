package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jonathan/grading-notifier/internal/codepost"
	"github.com/jonathan/grading-notifier/internal/config"
	"github.com/jonathan/grading-notifier/internal/errlog"
	"github.com/jonathan/grading-notifier/internal/logger"
	"github.com/jonathan/grading-notifier/internal/reconcile"
	"github.com/jonathan/grading-notifier/internal/slackmsg"
	"github.com/jonathan/grading-notifier/internal/store"
)

var runCommand = &cobra.Command{
	Use:   "run",
	Short: "Run one polling pass over all configured courses",
	Long: `Polls codePost for every configured course, compares the live grading state
against the cached snapshots, posts Slack notifications for assignments whose
progress changed, and saves updated encrypted snapshots.

Intended to be invoked periodically from cron. Non-fatal problems are appended
to ERRORS.txt under the data directory.`,
	RunE: runNotifierCmd,
}

var (
	runConfigPath string
	runDataDir    string
)

// errProblems marks a run aborted by collected problems; the details are in
// the error log rather than the returned error.
var errProblems = errors.New("problems found, see the error log")

func init() {
	runCommand.Flags().StringVar(&runConfigPath, "config", "config.yaml", "Path to the YAML config file")
	runCommand.Flags().StringVar(&runDataDir, "data-dir", "data", "Directory for cached snapshots and the error log")

	rootCmd.AddCommand(runCommand)
}

func runNotifierCmd(_ *cobra.Command, _ []string) error {
	ctx := context.Background()
	log := logger.New()
	collector := errlog.New(log, nil)

	err := runOnce(ctx, log, collector)
	if err != nil && !errors.Is(err, errProblems) {
		// Unexpected failures end up in the error log too, next to the
		// collected per-item problems cron output would otherwise bury.
		collector.Errorf("%v", err)
	}

	if saveErr := collector.Save(filepath.Join(runDataDir, "ERRORS.txt")); saveErr != nil {
		log.Error().Err(saveErr).Msg("failed to save error log")
	}
	return err
}

func runOnce(ctx context.Context, log zerolog.Logger, collector *errlog.Collector) error {
	secrets, problems := config.LoadSecrets()
	if len(problems) > 0 {
		return collect(collector, problems)
	}

	client := codepost.NewClient(secrets.CodePostAPIKey)
	valid, err := client.ValidateKey(ctx)
	if err != nil {
		return fmt.Errorf("failed to reach codePost: %w", err)
	}
	if !valid {
		collector.Errorf("codePost API key is invalid")
		return errProblems
	}

	messenger := slackmsg.New(secrets.SlackToken)
	valid, err = messenger.CheckAuth(ctx)
	if err != nil {
		return fmt.Errorf("failed to reach Slack: %w", err)
	}
	if !valid {
		collector.Errorf("Slack API key is invalid")
		return errProblems
	}

	cfg, problems := config.Load(runConfigPath, nil)
	if len(problems) > 0 {
		return collect(collector, problems)
	}

	channelProblems, err := messenger.ValidateChannels(ctx, cfg.Channels)
	if err != nil {
		return fmt.Errorf("failed to validate Slack channels: %w", err)
	}
	if len(channelProblems) > 0 {
		return collect(collector, channelProblems)
	}

	snapshots, closeStore, err := openStore(ctx, secrets)
	if err != nil {
		return err
	}
	defer closeStore()

	// A cache that exists but cannot be decrypted is fatal: running on
	// without it would re-notify every assignment from scratch.
	cached := map[string]reconcile.CourseData{}
	for key := range cfg.Courses {
		doc, found, err := snapshots.Read(ctx, key)
		if err != nil {
			return fmt.Errorf("failed to read cached data for %q: %w", key, err)
		}
		if found {
			cached[key] = doc
		}
	}

	reconciler := &reconcile.Reconciler{
		Source:             client,
		Messenger:          messenger,
		Errors:             collector,
		Log:                log,
		IgnoreGraderPrefix: cfg.IgnoreGraderPrefix,
	}
	data, changed, err := reconciler.Run(ctx, cfg.Courses, cfg.Channels, cached)
	if err != nil {
		return err
	}

	if !changed {
		log.Info().Msg("no changes detected")
		return nil
	}
	for key, doc := range data {
		if err := snapshots.Write(ctx, key, doc); err != nil {
			return fmt.Errorf("failed to save data for %q: %w", key, err)
		}
	}
	log.Info().Int("courses", len(data)).Msg("saved updated course data")
	return nil
}

// openStore selects the snapshot backend: Postgres when DATABASE_URL is set,
// otherwise timestamped files under the data directory.
func openStore(ctx context.Context, secrets *config.Secrets) (store.Store, func(), error) {
	if secrets.DatabaseURL != "" {
		pg, err := store.NewPostgresStore(ctx, secrets.DatabaseURL, secrets.DecryptionKey)
		if err != nil {
			return nil, nil, err
		}
		return pg, pg.Close, nil
	}
	fs, err := store.NewFileStore(runDataDir, secrets.DecryptionKey, nil)
	if err != nil {
		return nil, nil, err
	}
	return fs, func() {}, nil
}

func collect(collector *errlog.Collector, problems []string) error {
	for _, problem := range problems {
		collector.Errorf("%s", problem)
	}
	return errProblems
}

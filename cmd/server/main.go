package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/yourname/moodlog/internal"
	"github.com/yourname/moodlog/internal/api"
	"github.com/yourname/moodlog/internal/auth"
	"github.com/yourname/moodlog/internal/config"
	"github.com/yourname/moodlog/internal/history"
	"github.com/yourname/moodlog/internal/notify"
	"github.com/yourname/moodlog/internal/service"
	"github.com/yourname/moodlog/internal/storage"
)

var rootCmd = &cobra.Command{
	Use:           "moodlog",
	Short:         "Daily mood tracking service",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(serveCmd, exportCmd, importCmd, useraddCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// runtime holds everything a command needs, built from the loaded config.
type runtime struct {
	cfg      *config.Config
	logger   *internal.ZapLogger
	repos    *storage.Repositories
	notifier notify.Notifier
	provider auth.Provider
	users    *service.UserService
	entries  *service.EntryService
}

func setup(ctx context.Context) (*runtime, error) {
	cfg := config.Load()

	logger, err := internal.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	repos, err := storage.NewRepositories(ctx, cfg, logger)
	if err != nil {
		logger.Errorf("failed to init %s storage: %v", cfg.StorageBackend, err)
		return nil, err
	}

	var notifier notify.Notifier = notify.Nop{}
	if cfg.NotificationsEnabled() {
		notifier = notify.NewSlackNotifier(cfg.SlackToken, cfg.SlackChannel, cfg.SlackAPIURL, cfg.NotifyTimeout, repos.Users, logger)
	}

	var aggOpts []history.Option
	if cfg.HistoryDisplayZone {
		aggOpts = append(aggOpts, history.WithLocation(internal.DisplayZone))
	}

	provider := auth.NewLocalAuthProvider(repos.Users, logger)
	return &runtime{
		cfg:      cfg,
		logger:   logger,
		repos:    repos,
		notifier: notifier,
		provider: provider,
		users:    service.NewUserService(repos.Users, provider, logger),
		entries: service.NewEntryService(repos.Entries, notifier, logger,
			service.WithAggregator(history.New(logger, aggOpts...))),
	}, nil
}

func (rt *runtime) app() api.App {
	return api.NewApp(rt.logger, rt.provider, rt.users, rt.entries)
}

// close waits for pending notifications before releasing the backend. Each
// notification is bounded by the notify timeout, so the wait is too.
func (rt *runtime) close() {
	rt.notifier.Wait()
	if err := rt.repos.Close(); err != nil {
		rt.logger.Errorf("failed to close storage: %v", err)
	}
	_ = rt.logger.Sync()
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nicolagi/tgdrive/internal/bot"
	"github.com/nicolagi/tgdrive/internal/config"
	"github.com/nicolagi/tgdrive/internal/drive"
	"github.com/nicolagi/tgdrive/internal/logging"
	"github.com/nicolagi/tgdrive/internal/metrics"
	"github.com/nicolagi/tgdrive/internal/ninep"
	"github.com/nicolagi/tgdrive/internal/selection"
	"github.com/nicolagi/tgdrive/internal/target"
	"github.com/nicolagi/tgdrive/internal/telegram"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bot until interrupted",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration:\n%w", err)
	}
	logger, err := logging.Init(logging.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		OutputPath: cfg.Log.Output,
	})
	if err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	defer func() { _ = logging.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg.Drive)
	if err != nil {
		return fmt.Errorf("open %s index: %w", cfg.Drive.Backend, err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("close index", zap.Error(err))
		}
	}()
	logger.Info("index open", zap.String("backend", cfg.Drive.Backend))

	index := store
	var tree *ninep.Tree
	if cfg.NineP.ListenAddr != "" {
		items, err := store.List(ctx)
		if err != nil {
			return fmt.Errorf("list index: %w", err)
		}
		if tree, err = ninep.NewTree(items, logger.Named("ninep")); err != nil {
			return err
		}
		index = ninep.NewMirror(store, tree)
	}

	client, err := telegram.Dial(cfg.Telegram.BotToken, cfg.Telegram.APIEndpoint, logger.Named("telegram"))
	if err != nil {
		return err
	}
	b := bot.New(
		bot.Config{
			AdminIDs:       cfg.Telegram.AdminIDs,
			StorageChannel: cfg.Telegram.StorageChannel,
			AskTimeout:     cfg.Selection.AskTimeout,
		},
		client,
		index,
		selection.NewCache(cfg.Selection.MaxSessions, cfg.Selection.TTL),
		target.NewRegistry(target.Target{
			Path: drive.NormalizePath(cfg.Drive.DefaultFolderPath),
			Name: cfg.Drive.DefaultFolderName,
		}),
		logger.Named("bot"),
	)
	if err := b.Announce(ctx); err != nil {
		logger.Warn("could not announce startup in the storage channel", zap.Int64("channel", cfg.Telegram.StorageChannel), zap.Error(err))
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return client.Run(ctx, b)
	})
	if cfg.Metrics.ListenAddr != "" {
		g.Go(func() error {
			return serveMetrics(ctx, cfg.Metrics.ListenAddr, logger)
		})
	}
	if tree != nil {
		g.Go(func() error {
			return tree.Serve(ctx, cfg.NineP.ListenAddr)
		})
	}
	err = g.Wait()
	logger.Info("stopped", zap.Error(err))
	return err
}

func serveMetrics(ctx context.Context, addr string, logger *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	logger.Info("metrics server listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}

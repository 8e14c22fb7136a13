package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"memory-duel-server/config"
	"memory-duel-server/loghandler"
	"memory-duel-server/storage"
)

const (
	shutdownTimeout = 10 * time.Second
	purgeInterval   = time.Hour
)

var rootCmd = &cobra.Command{
	Use:           "memory-duel",
	Short:         "Memory card game server",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context(), loadConfig())
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP and WebSocket server (default)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context(), loadConfig())
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the Postgres tables for game history and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		if cfg.DatabaseURL == "" {
			return errors.New("DATABASE_URL is not set")
		}
		// NewStore runs the migration on connect.
		st, err := storage.NewStore(cmd.Context(), cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		st.Close()
		slog.Info("schema is up to date", "tag", "main")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd)
}

func main() {
	if err := godotenv.Load(); err != nil {
		if err2 := godotenv.Load("server/.env"); err2 != nil {
			fmt.Fprintln(os.Stderr, "No .env file found; using environment variables.")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		slog.Error("exiting", "tag", "main", "err", err)
		os.Exit(1)
	}
}

// loadConfig reads the configuration and installs the default logger at the
// configured level.
func loadConfig() *config.Config {
	cfg := config.Load()
	slog.SetDefault(slog.New(loghandler.NewCompactHandler(os.Stderr, loghandler.ParseLevel(cfg.LogLevel))))
	return cfg
}

// serve runs until ctx is cancelled, then drains the HTTP server.
func serve(ctx context.Context, cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	slog.Info("configuration loaded", "tag", "main",
		"port", cfg.HTTPPort, "default_pairs", cfg.DefaultPairs,
		"postgres", cfg.DatabaseURL != "", "session_db", cfg.SessionDBPath,
		"session_ttl", cfg.SessionTTL())

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           a.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.hub.Run(ctx)
		return nil
	})
	g.Go(func() error {
		slog.Info("memory game server listening", "tag", "main", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		slog.Info("shutting down", "tag", "main")
		return srv.Shutdown(shutdownCtx)
	})
	if ttl := cfg.SessionTTL(); ttl > 0 {
		g.Go(func() error {
			purgeSessions(ctx, a, ttl)
			return nil
		})
	}
	return g.Wait()
}

// purgeSessions drops stale games in progress every purgeInterval.
func purgeSessions(ctx context.Context, a *app, ttl time.Duration) {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := a.play.PurgeStale(ctx, ttl)
			if err != nil {
				slog.Warn("session purge failed", "tag", "main", "err", err)
				continue
			}
			if n > 0 {
				slog.Info("purged stale sessions", "tag", "main", "count", n)
			}
		}
	}
}

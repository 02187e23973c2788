package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/lodboard/internal/events"
	"github.com/abhisek/lodboard/internal/insight"
	"github.com/abhisek/lodboard/internal/llm"
	"github.com/abhisek/lodboard/internal/ratelimit"
	"github.com/abhisek/lodboard/internal/server"
	"github.com/abhisek/lodboard/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the dashboard API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		cfg := server.ConfigFromEnv()
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Addr = addr
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		if ok, _ := cmd.Flags().GetBool("migrate-dataset"); ok {
			if err := st.MigrateDataset(ctx); err != nil {
				return fmt.Errorf("migrate dataset: %w", err)
			}
		}

		pub, err := events.New(events.ConfigFromEnv(), logger)
		if err != nil {
			return fmt.Errorf("event publisher: %w", err)
		}
		defer pub.Close()

		shared, _ := cmd.Flags().GetBool("shared-ratelimit")
		limiter := newLimiter(ctx, cfg.RateLimit, st, shared)

		srv, err := server.New(cfg, server.Deps{
			DB:        st,
			Learning:  st.LearningRepo(),
			Users:     st.UserRepo(),
			Insight:   newInsightService(ctx, st),
			Limiter:   limiter,
			Publisher: pub,
			Logger:    logger,
		})
		if err != nil {
			return err
		}
		return srv.Listen(ctx)
	},
}

// newInsightService builds the AI service, or returns nil when no provider
// is configured so the server still starts without AI features.
func newInsightService(ctx context.Context, st *store.Store) *insight.Service {
	cfg, err := resolveLLMConfig()
	if err != nil {
		logger.Warn().Err(err).Msg("LLM provider not configured; AI features will be unavailable")
		return nil
	}

	provider, err := llm.NewProvider(ctx, cfg, st.EventRepo(), logger)
	if err != nil {
		logger.Warn().Err(err).Msg("LLM provider failed to initialise; AI features will be unavailable")
		return nil
	}
	logger.Info().Str("provider", cfg.Provider).Str("model", cfg.Model()).Msg("LLM provider ready")
	return insight.NewService(provider, insight.DefaultConfig())
}

// newLimiter returns a limiter over process memory, or over the database when
// several instances must share windows. Stale windows are pruned in the
// background until ctx ends.
func newLimiter(ctx context.Context, cfg ratelimit.Config, st *store.Store, shared bool) *ratelimit.Limiter {
	var (
		rs    ratelimit.Store
		prune func(cutoff time.Time)
	)
	if shared {
		sqlStore := ratelimit.NewSQLStore(st.RateLimitRepo())
		rs = sqlStore
		prune = func(cutoff time.Time) {
			if n, err := sqlStore.Prune(ctx, cutoff); err != nil {
				logger.Warn().Err(err).Msg("prune rate limit windows")
			} else if n > 0 {
				logger.Debug().Int64("pruned", n).Msg("rate limit windows pruned")
			}
		}
	} else {
		mem := ratelimit.NewMemoryStore()
		rs = mem
		prune = func(cutoff time.Time) { mem.Prune(cutoff) }
	}

	go func() {
		ticker := time.NewTicker(10 * cfg.Window)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				prune(now.Add(-cfg.Window))
			}
		}
	}()

	return ratelimit.New(cfg, rs, nil)
}

func init() {
	serveCmd.Flags().String("addr", "", fmt.Sprintf("Listen address (default %s, or LODBOARD_ADDR)", server.DefaultAddr))
	serveCmd.Flags().Bool("migrate-dataset", false, "Create the analytics tables if missing (local SQLite only)")
	serveCmd.Flags().Bool("shared-ratelimit", false, "Keep rate limit windows in the database so every instance shares them")
}

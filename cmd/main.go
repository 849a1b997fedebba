// Command investtrack runs the simulated investment portfolio: prices of the
// listed instruments move on a timer and the portfolio is revalued, snapshotted
// and saved as they do.
//
// Usage:
//
//	investtrack --config config.yaml
//	investtrack --setup
//	investtrack (uses CLI arguments)
//
// Optional environment variables (also read from .env):
//
//	INVESTTRACK_STATE_FILE, INVESTTRACK_WAL_DIR, INVESTTRACK_LOG_LEVEL
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/investtrack/config"
	"github.com/vadiminshakov/investtrack/internal/app"
	"github.com/vadiminshakov/investtrack/internal/setup"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const reportInterval = time.Minute

func main() {
	cfg, err := config.Get()
	if err != nil {
		log.Fatal(err)
	}

	if cfg.Setup {
		if err := setup.RunTUI(setup.DefaultOutput); err != nil {
			log.Fatal(err)
		}
		if cfg, err = config.Load(setup.DefaultOutput); err != nil {
			log.Fatal(err)
		}
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync() //nolint:errcheck

	a, err := app.New(cfg, logger)
	if err != nil {
		logger.Fatal("failed to create application", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.Run(ctx)
	})
	g.Go(func() error {
		report(ctx, a, logger)
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("application stopped with error", zap.Error(err))
	}
	if err := a.Close(); err != nil {
		logger.Warn("failed to close snapshot journal", zap.Error(err))
	}
	logger.Info("application stopped")
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid log level %q", level)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = lvl
	return cfg.Build()
}

// report logs the portfolio valuation until ctx is done.
func report(ctx context.Context, a *app.App, logger *zap.Logger) {
	ticker := time.NewTicker(reportInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s, err := a.Summary(ctx)
			if err != nil {
				if !errors.Is(err, context.Canceled) && !errors.Is(err, app.ErrStopped) {
					logger.Warn("failed to summarize portfolio", zap.Error(err))
				}
				continue
			}
			logger.Info("portfolio",
				zap.String("cash", s.Cash.StringFixed(2)),
				zap.String("holdings_value", s.HoldingsValue.StringFixed(2)),
				zap.String("total_asset_value", s.TotalAssetValue.StringFixed(2)),
				zap.String("profit_loss", s.ProfitLoss.StringFixed(2)),
				zap.String("profit_loss_pct", s.ProfitLossPct.StringFixed(2)),
				zap.Int("holdings", s.Holdings),
				zap.Int("snapshots", s.Snapshots))
		}
	}
}

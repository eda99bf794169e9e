// Command recache recomputes the engagement snapshot of every thread.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"agora/internal/bootstrap"
	"agora/internal/config"
	"agora/internal/observability"

	"golang.org/x/time/rate"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	batch := flag.Int("batch", 500, "Thread ids fetched per page")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	observability.Setup(os.Stdout, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = observability.EnsureCorrelationID(ctx)

	shutdown, err := observability.InitTracing(ctx, observability.TracingConfigFrom(cfg, "agora-recache"))
	if err != nil {
		return err
	}
	defer func() { _ = shutdown(context.Background()) }()

	rt, err := bootstrap.InitRuntime(ctx, cfg)
	if err != nil {
		return err
	}

	limit := rate.Inf
	if cfg.RecacheRatePerSec > 0 {
		limit = rate.Limit(cfg.RecacheRatePerSec)
	}

	report, err := rt.Threads.RefreshAll(ctx, rate.NewLimiter(limit, 1), *batch)
	slog.InfoContext(ctx, "recache finished",
		"refreshed", report.Refreshed,
		"skipped", report.Skipped,
		"failed", report.Failed,
		"correlation_id", observability.ExtractCorrelationID(ctx),
	)
	return err
}

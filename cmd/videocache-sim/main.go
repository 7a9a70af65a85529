package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alxayo/videocache-sim/internal/logger"
	"github.com/alxayo/videocache-sim/internal/metrics"
	"github.com/alxayo/videocache-sim/internal/orchestrator"
	"github.com/alxayo/videocache-sim/internal/simhooks"
)

func main() {
	cli, err := parseFlags(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}
	if cli.showVersion {
		fmt.Println(version)
		return
	}

	logger.Init()
	if err := logger.SetLevel(cli.verbosity); err != nil {
		fmt.Printf("Warning: invalid log level %q, using default\n", cli.verbosity)
	}
	log := logger.Logger().With("component", "cli")

	cfg, err := orchestrator.LoadConfig(cli.configPath)
	if err != nil {
		log.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	orchestrator.FlagOverrides(cli.fs, &cli.trace, &cli.db, &cli.proxy, &cli.out, &cli.speed,
		&cli.skip, &cli.noSkip, &cli.consume, &cli.noConsume).Apply(cfg)

	log.Info("starting simulation", "config", cfg.String())

	if cli.metricsAddr != "" {
		shutdown := metrics.ServeHTTP(cli.metricsAddr)
		defer func() {
			_ = shutdown(context.Background())
		}()
		log.Info("serving metrics", "addr", cli.metricsAddr)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	watchPath := ""
	if cli.watchConfig {
		watchPath = cli.configPath
	}

	hooks := buildHookManager(cli, log)
	defer hooks.Close()

	if cli.compareTo == "" {
		if err := runOne(ctx, log, cfg, cfg.DataOut, watchPath, hooks); err != nil {
			log.Error("simulation failed", "error", err)
			os.Exit(1)
		}
		return
	}

	// --compare-to: run a second replay with a different proxy type,
	// writing its artifacts to a sibling directory (spec.md §6 CLI surface
	// expansion: "--compare-to NAME (runs a second replay with that
	// proxy)"). --parallel races the two runs with an errgroup instead of
	// running them one after another; grounded on the pack's widespread
	// errgroup fan-out/await shape (DESIGN.md).
	baseline := *cfg
	comparison := *cfg
	comparison.ProxyType = cli.compareTo
	comparison.DataOut = cfg.DataOut + "-" + sanitizeDirSuffix(cli.compareTo)

	// -watch-config only applies to a single run: with two proxy types in
	// play, reloading the same file into both would blur which run a given
	// cache_size edit was meant for, so it's disabled for --compare-to.
	if !cli.parallel {
		if err := runOne(ctx, log, &baseline, baseline.DataOut, "", hooks); err != nil {
			log.Error("baseline simulation failed", "error", err)
			os.Exit(1)
		}
		if err := runOne(ctx, log, &comparison, comparison.DataOut, "", hooks); err != nil {
			log.Error("comparison simulation failed", "error", err)
			os.Exit(1)
		}
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return runOne(gctx, log, &baseline, baseline.DataOut, "", hooks) })
	g.Go(func() error { return runOne(gctx, log, &comparison, comparison.DataOut, "", hooks) })
	if err := g.Wait(); err != nil {
		log.Error("compare-to run failed", "error", err)
		os.Exit(1)
	}
}

// runOne builds, runs, and gathers statistics for one orchestrator
// instance, printing per-event latencies and a running average to stdout
// as they're observed (spec §7: "CLI prints per-event latencies and
// running averages"). It aborts cleanly if ctx is cancelled before the
// replay quiesces on its own.
func runOne(ctx context.Context, log *slog.Logger, cfg *orchestrator.Config, outDir, watchConfigPath string, hooks *simhooks.Manager) error {
	o := orchestrator.New(cfg, log.With("out", outDir))
	o.SetHookManager(hooks)
	if err := o.SetUp(); err != nil {
		return err
	}

	if watchConfigPath != "" {
		stopWatch, err := o.WatchConfig(watchConfigPath)
		if err != nil {
			return fmt.Errorf("watch config: %w", err)
		}
		defer stopWatch()
		log.Info("watching config for live reload", "path", watchConfigPath)
	}

	var count int64
	var total float64
	o.OnLatencyObserved(func(clientID int, videoID string, latencySeconds float64) {
		count++
		total += latencySeconds
		fmt.Printf("client=%d video=%s latency=%.3fs avg=%.3fs\n", clientID, videoID, latencySeconds, total/float64(count))
	})

	o.RunSimulation()

	done := make(chan struct{})
	go func() {
		o.WaitEnd()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		log.Info("interrupted, aborting run", "out", outDir)
		o.Close()
		return ctx.Err()
	}

	if err := o.GatherStatistics(outDir); err != nil {
		return err
	}

	stats := o.HitStats()
	log.Info("run complete", "out", outDir, "nb_served", stats.NbServed, "cache_hits", stats.CacheHits, "hit_ratio", stats.HitRatio)
	return nil
}

// buildHookManager wires -hook-stdio/-hook-webhook into a simhooks.Manager
// shared across every run of this process (baseline and --compare-to alike,
// serial or --parallel: TriggerEvent is safe for concurrent callers). Returns
// nil when neither flag is set, which SetHookManager and TriggerEvent both
// treat as a no-op.
func buildHookManager(cli *cliConfig, log *slog.Logger) *simhooks.Manager {
	if cli.hookStdio == "" && cli.hookWebhook == "" {
		return nil
	}

	hc := simhooks.DefaultConfig()
	if cli.hookStdio != "" {
		hc.StdioFormat = cli.hookStdio
	}
	m := simhooks.NewManager(hc, log.With("component", "hooks"))

	if cli.hookWebhook != "" {
		webhook := simhooks.NewWebhookHook("cli-webhook", cli.hookWebhook, 10*time.Second)
		for _, et := range []simhooks.EventType{
			simhooks.EventCacheHit,
			simhooks.EventCacheMiss,
			simhooks.EventPlaybackStart,
			simhooks.EventVideoStop,
			simhooks.EventRunComplete,
		} {
			_ = m.RegisterHook(et, webhook)
		}
	}

	return m
}

// sanitizeDirSuffix keeps a --compare-to proxy name usable as a directory
// suffix (proxy type names are already simple identifiers in practice, but
// this guards against a path separator sneaking in via a malformed flag).
func sanitizeDirSuffix(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		if r == '/' || r == '\\' {
			r = '_'
		}
		out = append(out, r)
	}
	return string(out)
}

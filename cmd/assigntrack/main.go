package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"assigntrack/internal/assign"
	"assigntrack/internal/config"
	"assigntrack/internal/ics"
	appLog "assigntrack/internal/log"
	"assigntrack/internal/runner"
	"assigntrack/internal/sheet"
	"assigntrack/internal/web"
)

type flagConfig struct {
	configPath string
	listen     string
	once       bool
	dryRun     bool
}

func main() {
	appLog.Info("assigntrack starting", "version", "0.1.0")

	flags := parseFlags()

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}

	// CLI --listen overrides config file listen if provided.
	if flags.listen != "" {
		conf.Listen = flags.listen
	}

	if !flags.dryRun {
		if err := conf.Validate(); err != nil {
			appLog.Error("invalid config", err, "config_path", flags.configPath)
			os.Exit(1)
		}
	}

	appLog.Info("effective config",
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"window_days", conf.WindowDays,
		"poll_seconds", conf.PollSeconds,
		"feed_count", len(conf.Feeds),
		"once", flags.once,
		"dry_run", flags.dryRun,
	)

	loc, err := conf.Location()
	if err != nil {
		appLog.Error("invalid timezone", err, "timezone", conf.Timezone)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	sources := make([]ics.Source, 0, len(conf.Feeds))
	for _, f := range conf.Feeds {
		sources = append(sources, ics.Source{ID: f.ID, URL: f.URL})
	}

	var sink runner.Sink
	if !flags.dryRun {
		client, err := sheet.NewClient(ctx, conf)
		if err != nil {
			appLog.Error("failed to create sheet client", err)
			os.Exit(1)
		}
		sink = client
	}

	extractor := assign.NewExtractor(ics.NewFetcher(conf.CacheDir), loc, conf.WindowDays)
	run := runner.New(extractor, sink, sources, loc, flags.dryRun)

	// First cycle runs immediately; the schedule takes over after.
	run.RunCycle(ctx)
	if flags.once {
		appLog.Info("assigntrack exiting (once)")
		return
	}

	sched := cron.New()
	spec := fmt.Sprintf("@every %ds", conf.PollSeconds)
	if _, err := sched.AddFunc(spec, func() { run.RunCycle(ctx) }); err != nil {
		appLog.Error("failed to schedule poll cycle", err, "spec", spec)
		os.Exit(1)
	}
	sched.Start()

	srv := &http.Server{
		Addr:    conf.Listen,
		Handler: web.NewServer(conf, run).Handler(),
	}
	go func() {
		appLog.Info("status API listening", "listen", conf.Listen)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLog.Error("status API failed", err)
		}
	}()

	<-ctx.Done()

	stop := sched.Stop()
	<-stop.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.Error("status API shutdown failed", err)
	}

	appLog.Info("assigntrack exiting")
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "/etc/assigntrack/config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.BoolVar(&cfg.once, "once", false, "Run one poll cycle and exit")
	flag.BoolVar(&cfg.dryRun, "dry-run", false, "Extract and log only; do not touch the sheet")

	flag.Parse()

	return cfg
}

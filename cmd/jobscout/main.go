// Package main wires together the jobscout command line tool and server.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/avlloyd/jobscout/internal/config"
	"github.com/avlloyd/jobscout/internal/logging"
	"github.com/avlloyd/jobscout/internal/metrics"
)

const usage = `usage: jobscout [-config file] <command> [options]

commands:
  search   run a one-off search against the upstream listing feed
  jobs     list postings stored in the database
  alerts   manage saved searches (list, add, rm, enable, disable)
  run      execute a saved search by name
  export   write stored postings to a JSON file
  serve    start the HTTP API and optional alert scheduler
`

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(logging.Options{
		Development: cfg.Logging.Development,
		Level:       cfg.Logging.Level,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck // best-effort flush
	zap.ReplaceGlobals(logger)
	metrics.Init()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd := flag.Arg(0)
	args := flag.Args()[1:]

	var runErr error
	switch cmd {
	case "search":
		runErr = runSearch(ctx, cfg, logger, args)
	case "jobs":
		runErr = runJobs(ctx, cfg, logger, args)
	case "alerts":
		runErr = runAlerts(cfg, args)
	case "run":
		runErr = runAlertByName(ctx, cfg, logger, args)
	case "export":
		runErr = runExport(ctx, cfg, logger, args)
	case "serve":
		runErr = runServe(ctx, cfg, logger)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", cmd)
		flag.Usage()
		os.Exit(2)
	}
	if runErr != nil {
		logger.Error("command failed", zap.String("command", cmd), zap.Error(runErr))
		os.Exit(1)
	}
}

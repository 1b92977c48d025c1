package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/avlloyd/jobscout/internal/alerts"
	"github.com/avlloyd/jobscout/internal/api"
	"github.com/avlloyd/jobscout/internal/client"
	"github.com/avlloyd/jobscout/internal/config"
	"github.com/avlloyd/jobscout/internal/export"
	"github.com/avlloyd/jobscout/internal/pacing"
	"github.com/avlloyd/jobscout/internal/parser"
	"github.com/avlloyd/jobscout/internal/scheduler"
	"github.com/avlloyd/jobscout/internal/scout"
	"github.com/avlloyd/jobscout/internal/service"
	"github.com/avlloyd/jobscout/internal/storage/postgres"
)

func newClient(cfg config.Config, logger *zap.Logger) (*client.Client, error) {
	governor, err := pacing.New(cfg.PacingSettings())
	if err != nil {
		return nil, fmt.Errorf("configure pacing: %w", err)
	}
	return client.New(cfg.ClientSettings(), governor, parser.New(logger), logger), nil
}

// newService assembles the job service around the given alerts store.
// The store is created once per process so every component shares the
// same write lock over the alerts file. The database is optional: with
// no DSN configured the ledger stays nil and persistence features
// report a configuration error when used.
func newService(ctx context.Context, cfg config.Config, logger *zap.Logger, store *alerts.Store) (*service.JobService, func(), error) {
	// Surface bad pacing settings at startup instead of on the first run.
	if _, err := newClient(cfg, logger); err != nil {
		return nil, nil, err
	}
	searchers := func() (service.Searcher, error) {
		return newClient(cfg, logger)
	}

	var ledger service.Ledger
	cleanup := func() {}
	if cfg.DB.DSN != "" {
		db, err := postgres.New(ctx, cfg.StoreSettings())
		if err != nil {
			return nil, nil, fmt.Errorf("connect database: %w", err)
		}
		ledger = db
		cleanup = db.Close
	}

	svc := service.New(
		searchers,
		ledger,
		export.NewStore(cfg.Export.Dir),
		store,
		logger,
	)
	return svc, cleanup, nil
}

func criteriaFlags(fs *flag.FlagSet) func() (scout.Criteria, error) {
	keywords := fs.String("keywords", "", "Search keywords (required)")
	location := fs.String("location", "", "Location filter")
	timeFilter := fs.String("time", "", "Posting age: past_24h, past_week, past_month")
	modes := fs.String("modes", "", "Comma-separated work modes: on_site, remote, hybrid")
	types := fs.String("types", "", "Comma-separated job types: full_time, part_time, contract, internship, temporary, volunteer")
	maxResults := fs.Int("max", 0, "Maximum postings to collect (default 100, cap 1000)")

	return func() (scout.Criteria, error) {
		criteria := scout.Criteria{
			Keywords:   *keywords,
			Location:   *location,
			MaxResults: *maxResults,
		}
		if *timeFilter != "" {
			tf, err := scout.ParseTimeFilter(*timeFilter)
			if err != nil {
				return scout.Criteria{}, err
			}
			criteria.TimeFilter = tf
		}
		for _, raw := range splitList(*modes) {
			mode, err := scout.ParseWorkMode(raw)
			if err != nil {
				return scout.Criteria{}, err
			}
			criteria.WorkModes = append(criteria.WorkModes, mode)
		}
		for _, raw := range splitList(*types) {
			jt, err := scout.ParseJobType(raw)
			if err != nil {
				return scout.Criteria{}, err
			}
			criteria.JobTypes = append(criteria.JobTypes, jt)
		}
		return criteria, criteria.Validate()
	}
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func searchOptionFlags(fs *flag.FlagSet) func() service.SearchOptions {
	persist := fs.Bool("persist", false, "Save results to the database")
	onlyNew := fs.Bool("only-new", false, "Drop postings already in the database")
	exportName := fs.String("export", "", "Write results to the export directory under this name")
	return func() service.SearchOptions {
		return service.SearchOptions{Persist: *persist, OnlyNew: *onlyNew, ExportName: *exportName}
	}
}

func runSearch(ctx context.Context, cfg config.Config, logger *zap.Logger, args []string) error {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	buildCriteria := criteriaFlags(fs)
	buildOpts := searchOptionFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	criteria, err := buildCriteria()
	if err != nil {
		return err
	}

	svc, cleanup, err := newService(ctx, cfg, logger, alerts.NewStore(cfg.Alerts.File))
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := svc.Search(ctx, criteria, buildOpts())
	if err != nil {
		return err
	}
	printSearchResult(result)
	return nil
}

func runJobs(ctx context.Context, cfg config.Config, logger *zap.Logger, args []string) error {
	fs := flag.NewFlagSet("jobs", flag.ExitOnError)
	limit := fs.Int("limit", 50, "Maximum rows to list")
	offset := fs.Int("offset", 0, "Rows to skip")
	company := fs.String("company", "", "Filter by company name substring")
	if err := fs.Parse(args); err != nil {
		return err
	}

	svc, cleanup, err := newService(ctx, cfg, logger, alerts.NewStore(cfg.Alerts.File))
	if err != nil {
		return err
	}
	defer cleanup()

	jobs, err := svc.List(ctx, *limit, *offset, *company)
	if err != nil {
		return err
	}
	printJobs(jobs)
	return nil
}

func runAlerts(cfg config.Config, args []string) error {
	store := alerts.NewStore(cfg.Alerts.File)
	if len(args) == 0 {
		args = []string{"list"}
	}

	switch args[0] {
	case "list":
		all, err := store.List()
		if err != nil {
			return err
		}
		printAlerts(all)
		return nil
	case "add":
		fs := flag.NewFlagSet("alerts add", flag.ExitOnError)
		name := fs.String("name", "", "Alert name (required)")
		buildCriteria := criteriaFlags(fs)
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		criteria, err := buildCriteria()
		if err != nil {
			return err
		}
		return store.Create(alerts.Alert{Name: *name, Criteria: criteria, Enabled: true})
	case "rm":
		if len(args) < 2 {
			return errors.New("usage: jobscout alerts rm <name>")
		}
		return store.Delete(args[1])
	case "enable", "disable":
		if len(args) < 2 {
			return fmt.Errorf("usage: jobscout alerts %s <name>", args[0])
		}
		enabled := args[0] == "enable"
		_, err := store.Apply(args[1], alerts.Update{Enabled: &enabled})
		return err
	default:
		return fmt.Errorf("unknown alerts subcommand %q", args[0])
	}
}

func runAlertByName(ctx context.Context, cfg config.Config, logger *zap.Logger, args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	buildOpts := searchOptionFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: jobscout run [options] <alert>")
	}

	svc, cleanup, err := newService(ctx, cfg, logger, alerts.NewStore(cfg.Alerts.File))
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := svc.RunAlert(ctx, fs.Arg(0), buildOpts())
	if err != nil {
		return err
	}
	printSearchResult(result)
	return nil
}

func runExport(ctx context.Context, cfg config.Config, logger *zap.Logger, args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	name := fs.String("name", "", "Export file name without extension (required)")
	limit := fs.Int("limit", 500, "Maximum rows to export")
	company := fs.String("company", "", "Filter by company name substring")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *name == "" {
		return errors.New("usage: jobscout export -name <file> [-limit n] [-company s]")
	}

	svc, cleanup, err := newService(ctx, cfg, logger, alerts.NewStore(cfg.Alerts.File))
	if err != nil {
		return err
	}
	defer cleanup()

	jobs, err := svc.List(ctx, *limit, 0, *company)
	if err != nil {
		return err
	}
	path, err := export.NewStore(cfg.Export.Dir).Save(jobs, *name)
	if err != nil {
		return err
	}
	fmt.Printf("exported %d postings to %s\n", len(jobs), path)
	return nil
}

func runServe(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	store := alerts.NewStore(cfg.Alerts.File)
	svc, cleanup, err := newService(ctx, cfg, logger, store)
	if err != nil {
		return err
	}
	defer cleanup()

	if cfg.Scheduler.Enabled {
		sched := scheduler.New(svc, cfg.Scheduler.Spec, logger)
		if err := sched.Start(ctx); err != nil {
			return err
		}
		defer sched.Stop()
	}

	server := api.NewServer(svc, store, api.Config{
		RatePerSecond: cfg.Server.RatePerSecond,
		RateBurst:     cfg.Server.RateBurst,
	}, logger)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.Int("port", cfg.Server.Port))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

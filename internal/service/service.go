// Package service ties the scraping client, the dedup ledger, the
// alerts store, and the export writer into the operations the CLI and
// HTTP API expose.
package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/avlloyd/jobscout/internal/alerts"
	"github.com/avlloyd/jobscout/internal/metrics"
	"github.com/avlloyd/jobscout/internal/scout"
)

// Searcher is the scraping client surface the service needs.
type Searcher interface {
	Open() error
	Close()
	Search(ctx context.Context, criteria scout.Criteria) ([]scout.JobPosting, error)
}

// SearcherFactory builds a fresh Searcher for one run. Sessions are
// single-use, so concurrent runs (an HTTP-triggered alert landing
// during a scheduler sweep) each get their own client instead of
// colliding on a shared session.
type SearcherFactory func() (Searcher, error)

// Ledger is the persistence surface for deduplication and listing.
type Ledger interface {
	Save(ctx context.Context, jobs []scout.JobPosting) (inserted, known int, err error)
	NewJobs(ctx context.Context, jobs []scout.JobPosting) ([]scout.JobPosting, error)
	List(ctx context.Context, limit, offset int, company string) ([]scout.JobPosting, error)
	Count(ctx context.Context) (int, error)
}

// Exporter writes search results to JSON files.
type Exporter interface {
	Save(jobs []scout.JobPosting, name string) (string, error)
}

// AlertStore is the saved-search surface the service needs.
type AlertStore interface {
	Get(name string) (alerts.Alert, error)
	Enabled() ([]alerts.Alert, error)
}

// SearchOptions tunes a single search run.
type SearchOptions struct {
	// Persist saves results to the ledger when one is configured.
	Persist bool
	// OnlyNew drops postings already present in the ledger.
	OnlyNew bool
	// ExportName, when set, writes the results to the export directory
	// under this name.
	ExportName string
}

// SearchResult reports what a run found and where it went.
type SearchResult struct {
	Jobs       []scout.JobPosting
	Inserted   int
	Known      int
	ExportPath string
}

// JobService runs searches and alert sweeps.
type JobService struct {
	newSearcher SearcherFactory
	ledger      Ledger
	exporter    Exporter
	alerts      AlertStore
	logger      *zap.Logger
}

// New wires the service; ledger, exporter, and alerts may be nil when
// the corresponding feature is not configured.
func New(newSearcher SearcherFactory, ledger Ledger, exporter Exporter, store AlertStore, logger *zap.Logger) *JobService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JobService{newSearcher: newSearcher, ledger: ledger, exporter: exporter, alerts: store, logger: logger}
}

// Search builds a client, opens a session for this run, executes the
// criteria, and applies the requested persistence and export steps.
func (s *JobService) Search(ctx context.Context, criteria scout.Criteria, opts SearchOptions) (SearchResult, error) {
	client, err := s.newSearcher()
	if err != nil {
		return SearchResult{}, fmt.Errorf("build search client: %w", err)
	}
	if err := client.Open(); err != nil {
		return SearchResult{}, err
	}
	defer client.Close()

	jobs, err := client.Search(ctx, criteria)
	if err != nil {
		return SearchResult{}, err
	}
	return s.finish(ctx, jobs, opts)
}

// RunAlert executes a saved search by name. Disabled alerts are a
// silent no-op.
func (s *JobService) RunAlert(ctx context.Context, name string, opts SearchOptions) (SearchResult, error) {
	if s.alerts == nil {
		return SearchResult{}, fmt.Errorf("no alerts store configured")
	}
	alert, err := s.alerts.Get(name)
	if err != nil {
		return SearchResult{}, err
	}
	if !alert.Enabled {
		s.logger.Info("alert disabled, skipping", zap.String("alert", name))
		metrics.ObserveAlertRun("disabled")
		return SearchResult{}, nil
	}
	result, err := s.Search(ctx, alert.Criteria, opts)
	if err != nil {
		metrics.ObserveAlertRun("error")
		return SearchResult{}, fmt.Errorf("alert %q: %w", name, err)
	}
	metrics.ObserveAlertRun("ok")
	return result, nil
}

// RunEnabledAlerts sweeps every enabled alert, persisting new postings.
// A failing alert is logged and does not stop the sweep.
func (s *JobService) RunEnabledAlerts(ctx context.Context) error {
	if s.alerts == nil {
		return fmt.Errorf("no alerts store configured")
	}
	enabled, err := s.alerts.Enabled()
	if err != nil {
		return err
	}
	for _, alert := range enabled {
		result, err := s.RunAlert(ctx, alert.Name, SearchOptions{Persist: true, OnlyNew: true})
		if err != nil {
			s.logger.Warn("alert run failed", zap.String("alert", alert.Name), zap.Error(err))
			continue
		}
		s.logger.Info("alert run finished",
			zap.String("alert", alert.Name),
			zap.Int("found", len(result.Jobs)),
			zap.Int("inserted", result.Inserted),
		)
	}
	return nil
}

// List reads stored postings from the ledger.
func (s *JobService) List(ctx context.Context, limit, offset int, company string) ([]scout.JobPosting, error) {
	if s.ledger == nil {
		return nil, fmt.Errorf("no database configured")
	}
	return s.ledger.List(ctx, limit, offset, company)
}

func (s *JobService) finish(ctx context.Context, jobs []scout.JobPosting, opts SearchOptions) (SearchResult, error) {
	result := SearchResult{Jobs: jobs}

	if opts.OnlyNew {
		if s.ledger == nil {
			return SearchResult{}, fmt.Errorf("only-new filtering requires a database")
		}
		fresh, err := s.ledger.NewJobs(ctx, jobs)
		if err != nil {
			return SearchResult{}, fmt.Errorf("filter new jobs: %w", err)
		}
		result.Jobs = fresh
	}

	if opts.Persist {
		if s.ledger == nil {
			return SearchResult{}, fmt.Errorf("persisting requires a database")
		}
		inserted, known, err := s.ledger.Save(ctx, result.Jobs)
		if err != nil {
			return SearchResult{}, fmt.Errorf("save jobs: %w", err)
		}
		result.Inserted = inserted
		result.Known = known
	}

	if opts.ExportName != "" {
		if s.exporter == nil {
			return SearchResult{}, fmt.Errorf("exporting requires an export directory")
		}
		path, err := s.exporter.Save(result.Jobs, opts.ExportName)
		if err != nil {
			return SearchResult{}, fmt.Errorf("export jobs: %w", err)
		}
		result.ExportPath = path
	}

	return result, nil
}

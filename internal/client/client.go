// Package client implements the fetch controller: one search session
// that paginates the upstream feed under pacing-governor clearance and
// hands each page to the extraction pipeline.
package client

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/avlloyd/jobscout/internal/fetcher"
	"github.com/avlloyd/jobscout/internal/metrics"
	"github.com/avlloyd/jobscout/internal/pacing"
	"github.com/avlloyd/jobscout/internal/scout"
)

// DefaultBaseURL is the public job-search result feed.
const DefaultBaseURL = "https://www.linkedin.com/jobs-guest/jobs/api/seeMoreJobPostings/search"

// Fetcher issues a single page GET. Satisfied by *fetcher.Fetcher.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (fetcher.Response, error)
	Close()
}

// Parser extracts postings from one result document.
type Parser interface {
	Parse(html string, criteria *scout.Criteria) ([]scout.JobPosting, error)
}

// Config controls pagination and retry behavior. The page size and
// offset ceiling are upstream constants by default but surfaced here in
// case the real source's limits move.
type Config struct {
	BaseURL    string
	PageSize   int
	MaxOffset  int
	MaxRetries int
	UserAgent  string
	Timeout    time.Duration
}

func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.PageSize <= 0 {
		c.PageSize = 25
	}
	if c.MaxOffset <= 0 {
		c.MaxOffset = 1000
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
}

// Client owns one fetch session. Open acquires the network resource and
// Close releases it; Search outside that window fails fast with
// scout.ErrNotReady.
type Client struct {
	cfg      Config
	governor *pacing.Governor
	parser   Parser
	logger   *zap.Logger

	newFetcher func() Fetcher

	mu      sync.Mutex
	fetcher Fetcher
}

// New builds a Client around an existing governor and parser.
func New(cfg Config, governor *pacing.Governor, parser Parser, logger *zap.Logger) *Client {
	cfg.applyDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Client{
		cfg:      cfg,
		governor: governor,
		parser:   parser,
		logger:   logger,
	}
	c.newFetcher = func() Fetcher {
		return fetcher.New(fetcher.Config{UserAgent: cfg.UserAgent, Timeout: cfg.Timeout})
	}
	return c
}

// Open establishes the session's network resource. Calling Open on an
// already-open client is an error.
func (c *Client) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fetcher != nil {
		return fmt.Errorf("client session already open")
	}
	c.fetcher = c.newFetcher()
	return nil
}

// Close releases the session resource. Safe to call when never opened.
func (c *Client) Close() {
	c.mu.Lock()
	f := c.fetcher
	c.fetcher = nil
	c.mu.Unlock()
	if f != nil {
		f.Close()
	}
}

// session snapshots the current fetcher so a search keeps using the
// resource it started with even if Close runs concurrently.
func (c *Client) session() Fetcher {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fetcher
}

// Search fetches pages until the criteria's result cap is reached, the
// upstream offset ceiling is hit, or a page comes back empty. Results
// are sorted most-recently-posted first and truncated to the cap.
func (c *Client) Search(ctx context.Context, criteria scout.Criteria) ([]scout.JobPosting, error) {
	f := c.session()
	if f == nil {
		return nil, scout.ErrNotReady
	}
	if err := criteria.Validate(); err != nil {
		return nil, err
	}

	log := c.logger.With(
		zap.String("run_id", uuid.NewString()),
		zap.String("keywords", criteria.Keywords),
	)
	limit := criteria.Limit()

	var all []scout.JobPosting
	for offset := 0; len(all) < limit && offset < c.cfg.MaxOffset; offset += c.cfg.PageSize {
		jobs, err := c.fetchPage(ctx, f, criteria, offset, log)
		if err != nil {
			return nil, err
		}
		if len(jobs) == 0 {
			log.Debug("results exhausted", zap.Int("offset", offset))
			break
		}
		all = append(all, jobs...)
		log.Debug("page accumulated",
			zap.Int("offset", offset),
			zap.Int("page_jobs", len(jobs)),
			zap.Int("total", len(all)),
		)
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].SortTime().After(all[j].SortTime())
	})
	if len(all) > limit {
		all = all[:limit]
	}
	log.Info("search finished", zap.Int("results", len(all)))
	return all, nil
}

// fetchPage requests one page, honoring the retry policy: explicit
// rate-limit signals re-pace and retry without consuming an attempt;
// any other failure burns one of MaxRetries attempts.
func (c *Client) fetchPage(
	ctx context.Context,
	f Fetcher,
	criteria scout.Criteria,
	offset int,
	log *zap.Logger,
) ([]scout.JobPosting, error) {
	params := criteria.Params()
	params.Set("start", strconv.Itoa(offset))
	pageURL := c.cfg.BaseURL + "?" + params.Encode()

	var lastErr error
	for attempt := 0; attempt < c.cfg.MaxRetries; {
		if err := c.governor.Acquire(ctx); err != nil {
			return nil, err
		}
		metrics.SetPacingDelay(c.governor.Delay())

		resp, err := f.Fetch(ctx, pageURL)
		if err == nil {
			c.governor.RecordSuccess()
			metrics.ObservePage("success", resp.Duration)
			return c.parsePage(resp, criteria, log)
		}

		if resp.RateLimited() {
			c.governor.IncreaseBackoff()
			metrics.ObserveRateLimit()
			metrics.ObservePage("rate_limited", resp.Duration)
			log.Info("rate limited, backing off",
				zap.Int("offset", offset),
				zap.Duration("delay", c.governor.Delay()),
			)
			continue
		}

		if ctx.Err() != nil {
			return nil, fmt.Errorf("fetch page: %w", ctx.Err())
		}

		lastErr = err
		attempt++
		metrics.ObservePage("failed", resp.Duration)
		log.Warn("page fetch failed",
			zap.Int("offset", offset),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", c.cfg.MaxRetries),
			zap.Error(err),
		)
	}
	return nil, &scout.FetchExhaustedError{Attempts: c.cfg.MaxRetries, Err: lastErr}
}

func (c *Client) parsePage(resp fetcher.Response, criteria scout.Criteria, log *zap.Logger) ([]scout.JobPosting, error) {
	jobs, err := c.parser.Parse(string(resp.Body), &criteria)
	if err != nil {
		// A document-level parse failure degrades to an empty page;
		// per-card problems are already absorbed inside the parser.
		log.Warn("document parse failed", zap.Error(err))
		return nil, nil
	}
	return jobs, nil
}

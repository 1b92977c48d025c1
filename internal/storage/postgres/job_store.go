// Package postgres persists observed job postings as an append/upsert
// deduplication ledger keyed by the source-assigned job ID.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/avlloyd/jobscout/internal/scout"
)

// Config controls the connection pool.
type Config struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

// dbPool is the slice of pgxpool.Pool the store needs; pgxmock
// implements it for tests.
type dbPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Close()
}

// JobStore writes and reads the jobs ledger.
type JobStore struct {
	pool dbPool
}

const schema = `
CREATE TABLE IF NOT EXISTS jobs (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	company TEXT NOT NULL,
	location TEXT NOT NULL,
	url TEXT NOT NULL,
	posted_at TIMESTAMPTZ,
	description_snippet TEXT,
	salary TEXT,
	is_remote BOOLEAN NOT NULL DEFAULT FALSE,
	applicants_count TEXT,
	scraped_at TIMESTAMPTZ NOT NULL,
	first_seen_at TIMESTAMPTZ NOT NULL,
	last_seen_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_jobs_posted_at ON jobs (posted_at DESC NULLS LAST);
CREATE INDEX IF NOT EXISTS idx_jobs_company ON jobs (company);
`

// New connects a pool and ensures the schema exists.
func New(ctx context.Context, cfg Config) (*JobStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	store := &JobStore{pool: pool}
	if err := store.init(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return store, nil
}

// NewWithPool wraps an existing pool, primarily for testing. The schema
// is assumed to exist.
func NewWithPool(pool dbPool) (*JobStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &JobStore{pool: pool}, nil
}

func (s *JobStore) init(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

// Close releases the pool.
func (s *JobStore) Close() {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
}

const upsertJob = `
INSERT INTO jobs (
	id, title, company, location, url,
	posted_at, description_snippet, salary,
	is_remote, applicants_count, scraped_at,
	first_seen_at, last_seen_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)
ON CONFLICT (id) DO UPDATE SET last_seen_at = EXCLUDED.last_seen_at
RETURNING (xmax = 0)`

// Save upserts a batch. New rows get first_seen_at and last_seen_at
// stamped now; known rows only advance last_seen_at. Returns the counts
// of newly inserted and already-known postings.
func (s *JobStore) Save(ctx context.Context, jobs []scout.JobPosting) (inserted, known int, err error) {
	if len(jobs) == 0 {
		return 0, 0, nil
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("begin save: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	now := time.Now().UTC()
	for _, job := range jobs {
		var isNew bool
		err = tx.QueryRow(ctx, upsertJob,
			job.ID,
			job.Title,
			job.Company,
			job.Location,
			job.URL,
			job.PostedAt,
			nullable(job.DescriptionSnippet),
			nullable(job.Salary),
			job.Remote,
			nullable(job.ApplicantsCount),
			job.ScrapedAt,
			now,
		).Scan(&isNew)
		if err != nil {
			return 0, 0, fmt.Errorf("upsert job %s: %w", job.ID, err)
		}
		if isNew {
			inserted++
		} else {
			known++
		}
	}
	if err = tx.Commit(ctx); err != nil {
		return 0, 0, fmt.Errorf("commit save: %w", err)
	}
	return inserted, known, nil
}

// NewJobs filters the batch down to postings whose IDs are not in the
// ledger yet, preserving input order.
func (s *JobStore) NewJobs(ctx context.Context, jobs []scout.JobPosting) ([]scout.JobPosting, error) {
	if len(jobs) == 0 {
		return nil, nil
	}
	ids := make([]string, 0, len(jobs))
	for _, job := range jobs {
		ids = append(ids, job.ID)
	}
	rows, err := s.pool.Query(ctx, `SELECT id FROM jobs WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("query known ids: %w", err)
	}
	defer rows.Close()

	knownIDs := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan known id: %w", err)
		}
		knownIDs[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate known ids: %w", err)
	}

	var fresh []scout.JobPosting
	for _, job := range jobs {
		if _, ok := knownIDs[job.ID]; !ok {
			fresh = append(fresh, job)
		}
	}
	return fresh, nil
}

const listColumns = `id, title, company, location, url,
	posted_at, description_snippet, salary,
	is_remote, applicants_count, scraped_at`

// List returns a page of stored postings, most recently posted first,
// optionally narrowed to companies containing the given substring.
func (s *JobStore) List(ctx context.Context, limit, offset int, company string) ([]scout.JobPosting, error) {
	if limit <= 0 {
		limit = 100
	}
	var (
		rows pgx.Rows
		err  error
	)
	if company != "" {
		rows, err = s.pool.Query(ctx,
			`SELECT `+listColumns+` FROM jobs
			 WHERE company ILIKE $1
			 ORDER BY posted_at DESC NULLS LAST LIMIT $2 OFFSET $3`,
			"%"+company+"%", limit, offset)
	} else {
		rows, err = s.pool.Query(ctx,
			`SELECT `+listColumns+` FROM jobs
			 ORDER BY posted_at DESC NULLS LAST LIMIT $1 OFFSET $2`,
			limit, offset)
	}
	if err != nil {
		return nil, fmt.Errorf("query jobs: %w", err)
	}
	defer rows.Close()

	var jobs []scout.JobPosting
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate jobs: %w", err)
	}
	return jobs, nil
}

// Count reports the ledger size.
func (s *JobStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM jobs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count jobs: %w", err)
	}
	return n, nil
}

func scanJob(row pgx.Row) (scout.JobPosting, error) {
	var (
		job        scout.JobPosting
		snippet    *string
		salary     *string
		applicants *string
	)
	err := row.Scan(
		&job.ID,
		&job.Title,
		&job.Company,
		&job.Location,
		&job.URL,
		&job.PostedAt,
		&snippet,
		&salary,
		&job.Remote,
		&applicants,
		&job.ScrapedAt,
	)
	if err != nil {
		return scout.JobPosting{}, fmt.Errorf("scan job: %w", err)
	}
	job.DescriptionSnippet = deref(snippet)
	job.Salary = deref(salary)
	job.ApplicantsCount = deref(applicants)
	return job, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

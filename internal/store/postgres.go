package store

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/research-report/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses. pgxmock satisfies it,
// which keeps the store testable without a live database.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS jobs (
	id                TEXT PRIMARY KEY,
	company           TEXT NOT NULL,
	industry          TEXT NOT NULL DEFAULT '',
	company_url       TEXT NOT NULL DEFAULT '',
	status            TEXT NOT NULL DEFAULT 'pending',
	error             TEXT NOT NULL DEFAULT '',
	enrichment_counts JSONB,
	employee_count    JSONB,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS reports (
	job_id            TEXT PRIMARY KEY REFERENCES jobs(id),
	content           TEXT NOT NULL DEFAULT '',
	refs              JSONB,
	sections          JSONB,
	queries           JSONB,
	enrichment_counts JSONB,
	employee_count    JSONB,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status);
CREATE INDEX IF NOT EXISTS idx_jobs_company ON jobs(company);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) CreateJob(ctx context.Context, company, industry, companyURL string) (*model.Job, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO jobs (id, company, industry, company_url, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		id, company, industry, companyURL, string(model.JobStatusPending), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert job")
	}

	return &model.Job{
		ID:         id,
		Company:    company,
		Industry:   industry,
		CompanyURL: companyURL,
		Status:     model.JobStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

func (s *PostgresStore) UpdateJobStatus(ctx context.Context, jobID string, status model.JobStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE jobs SET status = $1, updated_at = $2 WHERE id = $3`,
		string(status), time.Now().UTC(), jobID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update job status %s", jobID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "job %s", jobID)
	}
	return nil
}

func (s *PostgresStore) UpdateJobError(ctx context.Context, jobID string, errMsg string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE jobs SET error = $1, status = $2, updated_at = $3 WHERE id = $4`,
		errMsg, string(model.JobStatusFailed), time.Now().UTC(), jobID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update job error %s", jobID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "job %s", jobID)
	}
	return nil
}

func (s *PostgresStore) UpdateJobEnrichment(ctx context.Context, jobID string, counts *model.EnrichmentSnapshot, employeeCount map[string]int) error {
	countsJSON, err := json.Marshal(counts)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal enrichment counts")
	}
	employeeJSON, err := json.Marshal(employeeCount)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal employee count")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE jobs SET enrichment_counts = $1, employee_count = $2, updated_at = $3 WHERE id = $4`,
		countsJSON, employeeJSON, time.Now().UTC(), jobID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update job enrichment %s", jobID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "job %s", jobID)
	}
	return nil
}

func (s *PostgresStore) GetJob(ctx context.Context, jobID string) (*model.Job, error) {
	var j model.Job
	var counts, employee []byte

	err := s.pool.QueryRow(ctx,
		`SELECT id, company, industry, company_url, status, error, enrichment_counts, employee_count, created_at, updated_at
		 FROM jobs WHERE id = $1`,
		jobID,
	).Scan(&j.ID, &j.Company, &j.Industry, &j.CompanyURL, &j.Status, &j.Error,
		&counts, &employee, &j.CreatedAt, &j.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get job %s", jobID)
	}

	if err := unmarshalJSONB(counts, &j.EnrichmentCounts); err != nil {
		return nil, err
	}
	if err := unmarshalJSONB(employee, &j.EmployeeCount); err != nil {
		return nil, err
	}
	return &j, nil
}

func (s *PostgresStore) ListJobs(ctx context.Context, filter JobFilter) ([]model.Job, error) {
	query := `SELECT id, company, industry, company_url, status, error, enrichment_counts, employee_count, created_at, updated_at
	          FROM jobs WHERE 1=1`
	var args []any

	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += ` AND status = $` + strconv.Itoa(len(args))
	}
	if filter.Company != "" {
		args = append(args, filter.Company)
		query += ` AND company = $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)
	query += ` LIMIT $` + strconv.Itoa(len(args))

	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list jobs")
	}
	defer rows.Close()

	var jobs []model.Job
	for rows.Next() {
		var j model.Job
		var counts, employee []byte
		if err := rows.Scan(&j.ID, &j.Company, &j.Industry, &j.CompanyURL, &j.Status, &j.Error,
			&counts, &employee, &j.CreatedAt, &j.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan job")
		}
		if err := unmarshalJSONB(counts, &j.EnrichmentCounts); err != nil {
			return nil, err
		}
		if err := unmarshalJSONB(employee, &j.EmployeeCount); err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, eris.Wrap(rows.Err(), "postgres: list jobs iterate")
}

func (s *PostgresStore) SaveReport(ctx context.Context, report *model.Report) error {
	refsJSON, err := json.Marshal(report.References)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal references")
	}
	sectionsJSON, err := json.Marshal(report.Sections)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal sections")
	}
	queriesJSON, err := json.Marshal(report.Queries)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal queries")
	}
	countsJSON, err := json.Marshal(report.EnrichmentCounts)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal enrichment counts")
	}
	employeeJSON, err := json.Marshal(report.EmployeeCount)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal employee count")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO reports (job_id, content, refs, sections, queries, enrichment_counts, employee_count, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (job_id) DO UPDATE SET
		   content = EXCLUDED.content,
		   refs = EXCLUDED.refs,
		   sections = EXCLUDED.sections,
		   queries = EXCLUDED.queries,
		   enrichment_counts = EXCLUDED.enrichment_counts,
		   employee_count = EXCLUDED.employee_count`,
		report.JobID, report.Content, refsJSON, sectionsJSON,
		queriesJSON, countsJSON, employeeJSON, time.Now().UTC(),
	)
	return eris.Wrapf(err, "postgres: save report %s", report.JobID)
}

func (s *PostgresStore) GetReport(ctx context.Context, jobID string) (*model.Report, error) {
	var r model.Report
	var refs, sections, queries, counts, employee []byte

	err := s.pool.QueryRow(ctx,
		`SELECT job_id, content, refs, sections, queries, enrichment_counts, employee_count, created_at
		 FROM reports WHERE job_id = $1`,
		jobID,
	).Scan(&r.JobID, &r.Content, &refs, &sections, &queries, &counts, &employee, &r.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get report %s", jobID)
	}

	if err := unmarshalJSONB(refs, &r.References); err != nil {
		return nil, err
	}
	if err := unmarshalJSONB(sections, &r.Sections); err != nil {
		return nil, err
	}
	if err := unmarshalJSONB(queries, &r.Queries); err != nil {
		return nil, err
	}
	if err := unmarshalJSONB(counts, &r.EnrichmentCounts); err != nil {
		return nil, err
	}
	if err := unmarshalJSONB(employee, &r.EmployeeCount); err != nil {
		return nil, err
	}
	return &r, nil
}

func unmarshalJSONB(raw []byte, dest any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return eris.Wrap(json.Unmarshal(raw, dest), "postgres: unmarshal column")
}


package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/research-report/internal/model"
)

// ErrNotFound is returned when a job or report does not exist.
var ErrNotFound = errors.New("store: not found")

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS jobs (
	id                TEXT PRIMARY KEY,
	company           TEXT NOT NULL,
	industry          TEXT NOT NULL DEFAULT '',
	company_url       TEXT NOT NULL DEFAULT '',
	status            TEXT NOT NULL DEFAULT 'pending',
	error             TEXT NOT NULL DEFAULT '',
	enrichment_counts TEXT,
	employee_count    TEXT,
	created_at        DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at        DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS reports (
	job_id            TEXT PRIMARY KEY REFERENCES jobs(id),
	content           TEXT NOT NULL DEFAULT '',
	refs              TEXT,
	sections          TEXT,
	queries           TEXT,
	enrichment_counts TEXT,
	employee_count    TEXT,
	created_at        DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status);
CREATE INDEX IF NOT EXISTS idx_jobs_company ON jobs(company);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateJob(ctx context.Context, company, industry, companyURL string) (*model.Job, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO jobs (id, company, industry, company_url, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, company, industry, companyURL, string(model.JobStatusPending), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert job")
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

func (s *SQLiteStore) UpdateJobStatus(ctx context.Context, jobID string, status model.JobStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC(), jobID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update job status %s", jobID)
	}
	return checkRowsAffected(res, jobID)
}

func (s *SQLiteStore) UpdateJobError(ctx context.Context, jobID string, errMsg string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET error = ?, status = ?, updated_at = ? WHERE id = ?`,
		errMsg, string(model.JobStatusFailed), time.Now().UTC(), jobID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update job error %s", jobID)
	}
	return checkRowsAffected(res, jobID)
}

func (s *SQLiteStore) UpdateJobEnrichment(ctx context.Context, jobID string, counts *model.EnrichmentSnapshot, employeeCount map[string]int) error {
	countsJSON, err := json.Marshal(counts)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal enrichment counts")
	}
	employeeJSON, err := json.Marshal(employeeCount)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal employee count")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET enrichment_counts = ?, employee_count = ?, updated_at = ? WHERE id = ?`,
		string(countsJSON), string(employeeJSON), time.Now().UTC(), jobID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update job enrichment %s", jobID)
	}
	return checkRowsAffected(res, jobID)
}

func (s *SQLiteStore) GetJob(ctx context.Context, jobID string) (*model.Job, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, company, industry, company_url, status, error, enrichment_counts, employee_count, created_at, updated_at
		 FROM jobs WHERE id = ?`,
		jobID,
	)
	return scanJob(row)
}

func (s *SQLiteStore) ListJobs(ctx context.Context, filter JobFilter) ([]model.Job, error) {
	query := `SELECT id, company, industry, company_url, status, error, enrichment_counts, employee_count, created_at, updated_at
	          FROM jobs WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.Company != "" {
		query += ` AND company = ?`
		args = append(args, filter.Company)
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list jobs")
	}
	defer rows.Close()

	var jobs []model.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *j)
	}
	return jobs, eris.Wrap(rows.Err(), "sqlite: list jobs iterate")
}

func (s *SQLiteStore) SaveReport(ctx context.Context, report *model.Report) error {
	refsJSON, err := json.Marshal(report.References)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal references")
	}
	sectionsJSON, err := json.Marshal(report.Sections)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal sections")
	}
	queriesJSON, err := json.Marshal(report.Queries)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal queries")
	}
	countsJSON, err := json.Marshal(report.EnrichmentCounts)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal enrichment counts")
	}
	employeeJSON, err := json.Marshal(report.EmployeeCount)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal employee count")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO reports (job_id, content, refs, sections, queries, enrichment_counts, employee_count, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(job_id) DO UPDATE SET
		   content = excluded.content,
		   refs = excluded.refs,
		   sections = excluded.sections,
		   queries = excluded.queries,
		   enrichment_counts = excluded.enrichment_counts,
		   employee_count = excluded.employee_count`,
		report.JobID, report.Content, string(refsJSON), string(sectionsJSON),
		string(queriesJSON), string(countsJSON), string(employeeJSON), time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: save report %s", report.JobID)
}

func (s *SQLiteStore) GetReport(ctx context.Context, jobID string) (*model.Report, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT job_id, content, refs, sections, queries, enrichment_counts, employee_count, created_at
		 FROM reports WHERE job_id = ?`,
		jobID,
	)

	var r model.Report
	var refs, sections, queries, counts, employee sql.NullString
	err := row.Scan(&r.JobID, &r.Content, &refs, &sections, &queries, &counts, &employee, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get report %s", jobID)
	}

	if err := unmarshalNullable(refs, &r.References); err != nil {
		return nil, err
	}
	if err := unmarshalNullable(sections, &r.Sections); err != nil {
		return nil, err
	}
	if err := unmarshalNullable(queries, &r.Queries); err != nil {
		return nil, err
	}
	if err := unmarshalNullable(counts, &r.EnrichmentCounts); err != nil {
		return nil, err
	}
	if err := unmarshalNullable(employee, &r.EmployeeCount); err != nil {
		return nil, err
	}
	return &r, nil
}

// rowScanner abstracts sql.Row and sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*model.Job, error) {
	var j model.Job
	var counts, employee sql.NullString
	err := row.Scan(&j.ID, &j.Company, &j.Industry, &j.CompanyURL, &j.Status, &j.Error,
		&counts, &employee, &j.CreatedAt, &j.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan job")
	}

	if err := unmarshalNullable(counts, &j.EnrichmentCounts); err != nil {
		return nil, err
	}
	if err := unmarshalNullable(employee, &j.EmployeeCount); err != nil {
		return nil, err
	}
	return &j, nil
}

func unmarshalNullable(col sql.NullString, dest any) error {
	if !col.Valid || col.String == "" || col.String == "null" {
		return nil
	}
	return eris.Wrap(json.Unmarshal([]byte(col.String), dest), "sqlite: unmarshal column")
}

func checkRowsAffected(res sql.Result, jobID string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "job %s", jobID)
	}
	return nil
}

package main

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/research-report/internal/progress"
	"github.com/sells-group/research-report/internal/research"
	"github.com/sells-group/research-report/internal/store"
)

var (
	batchFile  string
	batchLimit int
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Research companies from a CSV file",
	Long:  "Reads companies from a CSV (columns: company, industry, url) and researches them with bounded concurrency.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initResearch(ctx, progress.Log{})
		if err != nil {
			return err
		}
		defer env.Close()

		companies, err := readCompaniesCSV(batchFile, batchLimit)
		if err != nil {
			return err
		}
		if len(companies) == 0 {
			zap.L().Info("no companies to process")
			return nil
		}

		return processBatch(ctx, companies, cfg.Batch.MaxConcurrentCompanies, env.Store, env.Runner)
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchFile, "file", "", "CSV file of companies (required)")
	batchCmd.Flags().IntVar(&batchLimit, "limit", 100, "max number of companies to process")
	_ = batchCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(batchCmd)
}

// batchEntry is one CSV row.
type batchEntry struct {
	Company  string
	Industry string
	URL      string
}

// readCompaniesCSV parses up to limit rows. A header row is skipped when the
// first cell is literally "company".
func readCompaniesCSV(path string, limit int) ([]batchEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "open csv %s", path)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var entries []batchEntry
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "read csv")
		}
		if len(record) == 0 || record[0] == "" || record[0] == "company" {
			continue
		}

		entry := batchEntry{Company: record[0]}
		if len(record) > 1 {
			entry.Industry = record[1]
		}
		if len(record) > 2 {
			entry.URL = record[2]
		}
		entries = append(entries, entry)
		if limit > 0 && len(entries) == limit {
			break
		}
	}
	return entries, nil
}

// processBatch fans companies out to the runner with bounded concurrency.
// Individual failures are counted, not propagated; the batch always runs to
// completion unless the context is cancelled.
func processBatch(ctx context.Context, companies []batchEntry, concurrency int, st store.Store, runner *research.Runner) error {
	if concurrency <= 0 {
		concurrency = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var succeeded, failed atomic.Int64

	for _, entry := range companies {
		g.Go(func() error {
			log := zap.L().With(zap.String("company", entry.Company))

			job, err := st.CreateJob(gctx, entry.Company, entry.Industry, entry.URL)
			if err != nil {
				failed.Add(1)
				log.Error("create job failed", zap.Error(err))
				return nil
			}

			if _, err := runner.Run(gctx, job); err != nil {
				failed.Add(1)
				log.Error("research failed", zap.String("job_id", job.ID), zap.Error(err))
				return nil
			}

			succeeded.Add(1)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return eris.Wrap(err, "batch wait")
	}

	zap.L().Info("batch complete",
		zap.Int64("succeeded", succeeded.Load()),
		zap.Int64("failed", failed.Load()),
		zap.Int("total", len(companies)),
	)
	return nil
}

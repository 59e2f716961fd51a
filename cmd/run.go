package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/research-report/internal/progress"
)

var (
	runCompany  string
	runIndustry string
	runURL      string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Research a single company",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initResearch(ctx, progress.Log{})
		if err != nil {
			return err
		}
		defer env.Close()

		job, err := env.Store.CreateJob(ctx, runCompany, runIndustry, runURL)
		if err != nil {
			return eris.Wrap(err, "create job")
		}

		state, err := env.Runner.Run(ctx, job)
		if err != nil {
			return eris.Wrap(err, "run research")
		}

		zap.L().Info("research complete",
			zap.String("job_id", job.ID),
			zap.String("company", runCompany),
			zap.Int("references", len(state.References)),
		)

		report, err := env.Store.GetReport(ctx, job.ID)
		if err != nil {
			return eris.Wrap(err, "load report")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	},
}

func init() {
	runCmd.Flags().StringVar(&runCompany, "company", "", "company name (required)")
	runCmd.Flags().StringVar(&runIndustry, "industry", "", "industry hint")
	runCmd.Flags().StringVar(&runURL, "url", "", "company website URL")
	_ = runCmd.MarkFlagRequired("company")
	rootCmd.AddCommand(runCmd)
}

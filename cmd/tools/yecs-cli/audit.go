// cmd/tools/yecs-cli/audit.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"yecs-workers/internal/fairness"
)

// recordFlags are the fixture paths shared by the fairness commands.
type recordFlags struct {
	scores       string
	demographics string
}

func (f *recordFlags) bind(cmd *cobra.Command, scoresFlag, scoresUsage string) {
	cmd.Flags().StringVar(&f.scores, scoresFlag, "", scoresUsage)
	cmd.Flags().StringVar(&f.demographics, "demographics", "", "demographic records (YAML or JSON list)")
	_ = cmd.MarkFlagRequired(scoresFlag)
	_ = cmd.MarkFlagRequired("demographics")
}

func (f *recordFlags) load() ([]fairness.ScoreRecord, []fairness.DemographicRecord, error) {
	var scores []fairness.ScoreRecord
	if err := readFixture(f.scores, &scores); err != nil {
		return nil, nil, err
	}
	var demographics []fairness.DemographicRecord
	if err := readFixture(f.demographics, &demographics); err != nil {
		return nil, nil, err
	}
	return scores, demographics, nil
}

func newAuditCmd(opts *options) *cobra.Command {
	var records recordFlags
	var failOnBias bool

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Detect demographic bias in a set of scores",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			scores, demographics, err := records.load()
			if err != nil {
				return err
			}

			report, err := newAuditor().DetectBias(scores, demographics)
			if err != nil {
				return err
			}

			if opts.output == outputJSON {
				err = writeJSON(cmd.OutOrStdout(), report)
			} else {
				_, err = fmt.Fprint(cmd.OutOrStdout(), fairness.GenerateReport(report))
			}
			if err != nil {
				return err
			}

			if failOnBias && report.BiasDetected {
				return fmt.Errorf("bias detected in %d group(s)", report.FlaggedGroupCount())
			}
			return nil
		},
	}
	records.bind(cmd, "scores", "score records (YAML or JSON list)")
	cmd.Flags().BoolVar(&failOnBias, "fail-on-bias", false, "exit non-zero when any group is flagged")
	return cmd
}

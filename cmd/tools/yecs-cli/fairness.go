// cmd/tools/yecs-cli/fairness.go
package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"yecs-workers/internal/fairness"
)

func newFairnessCmd(opts *options) *cobra.Command {
	var records recordFlags
	var outcomesPath string

	cmd := &cobra.Command{
		Use:   "fairness",
		Short: "Compute approval rates and equalized odds per demographic group",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			predictions, demographics, err := records.load()
			if err != nil {
				return err
			}
			var outcomes []fairness.OutcomeRecord
			if outcomesPath != "" {
				if err := readFixture(outcomesPath, &outcomes); err != nil {
					return err
				}
			}

			metrics, err := newAuditor().CalculateFairnessMetrics(predictions, outcomes, demographics)
			if err != nil {
				return err
			}
			if opts.output == outputJSON {
				return writeJSON(cmd.OutOrStdout(), metrics)
			}
			return writeFairness(cmd.OutOrStdout(), metrics)
		},
	}
	records.bind(cmd, "predictions", "predicted score records (YAML or JSON list)")
	cmd.Flags().StringVar(&outcomesPath, "outcomes", "", "ground-truth outcome records (YAML or JSON list)")
	return cmd
}

func writeFairness(w io.Writer, m *fairness.FairnessMetrics) error {
	if len(m.Attributes) == 0 {
		_, err := fmt.Fprintln(w, "No records joined across predictions, outcomes and demographics.")
		return err
	}
	for _, a := range m.Attributes {
		if _, err := fmt.Fprintf(w, "%s\n", a.Attribute); err != nil {
			return err
		}
		if a.Error != nil {
			if _, err := fmt.Fprintf(w, "  error: %s\n", a.Error.Details); err != nil {
				return err
			}
			continue
		}
		for _, g := range a.Groups {
			if _, err := fmt.Fprintf(w, "  %-16s approved %d/%d (%.1f%%), average score %.2f\n",
				g.Group, g.ApprovedApplications, g.TotalApplications, g.ApprovalRate*100, g.AverageScore); err != nil {
				return err
			}
		}
		for _, o := range a.EqualizedOdds {
			if _, err := fmt.Fprintf(w, "  %-16s TPR %.3f, FPR %.3f\n", o.Group, o.TruePositiveRate, o.FalsePositiveRate); err != nil {
				return err
			}
		}
	}
	return nil
}

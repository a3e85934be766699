// cmd/tools/yecs-cli/mitigate.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"yecs-workers/internal/fairness"
)

func newMitigateCmd(opts *options) *cobra.Command {
	var records recordFlags
	var method string

	cmd := &cobra.Command{
		Use:   "mitigate",
		Short: "Apply a bias mitigation method and print the adjusted scores",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := fairness.ParseMethod(method)
			if err != nil {
				return err
			}
			scores, demographics, err := records.load()
			if err != nil {
				return err
			}

			adjusted, err := newAuditor().ApplyMitigation(scores, demographics, m)
			if err != nil {
				return err
			}

			if opts.output == outputJSON {
				return writeJSON(cmd.OutOrStdout(), adjusted)
			}
			w := cmd.OutOrStdout()
			if _, err := fmt.Fprintf(w, "Method: %s\nAdjusted scores: %d\n\n", m, len(adjusted)); err != nil {
				return err
			}
			for _, s := range adjusted {
				if _, err := fmt.Fprintf(w, "  %-20s %8.2f\n", s.UserID, s.Score); err != nil {
					return err
				}
			}
			return nil
		},
	}
	records.bind(cmd, "scores", "score records (YAML or JSON list)")
	cmd.Flags().StringVar(&method, "method", string(fairness.MethodEqualizedOdds),
		"mitigation method: equalized_odds or demographic_parity")
	return cmd
}

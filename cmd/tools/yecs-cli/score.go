// cmd/tools/yecs-cli/score.go
package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"yecs-workers/internal/scoring"
)

func newScoreCmd(opts *options) *cobra.Command {
	var profilePath string

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Compute the YECS composite score of one applicant profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var profile scoring.ApplicantProfile
			if err := readFixture(profilePath, &profile); err != nil {
				return err
			}

			result := newEngine().Score(profile)
			if opts.output == outputJSON {
				return writeJSON(cmd.OutOrStdout(), result)
			}
			return writeScore(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().StringVar(&profilePath, "profile", "", "applicant profile (YAML or JSON)")
	_ = cmd.MarkFlagRequired("profile")
	return cmd
}

func writeScore(w io.Writer, r scoring.Result) error {
	components := r.Components.Map()
	names := make([]string, 0, len(components))
	for name := range components {
		names = append(names, name)
	}
	sort.Strings(names)

	if _, err := fmt.Fprintf(w, "YECS score: %d (%s risk)\nWeighted percentage: %.2f%%\n\nComponents:\n",
		r.CompositeScore, r.RiskLevel, r.WeightedPercentage); err != nil {
		return err
	}
	for _, name := range names {
		if _, err := fmt.Fprintf(w, "  %-26s %6.2f\n", name, components[name]); err != nil {
			return err
		}
	}
	return nil
}

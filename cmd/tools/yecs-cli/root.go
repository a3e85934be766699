// cmd/tools/yecs-cli/root.go
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"yecs-workers/internal/fairness"
	"yecs-workers/internal/scoring"
)

const (
	outputText = "text"
	outputJSON = "json"
)

type options struct {
	output string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:           "yecs-cli",
		Short:         "Score applicants and audit YECS scores offline",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			switch opts.output {
			case outputText, outputJSON:
				return nil
			default:
				return fmt.Errorf("unsupported output format %q (want %s or %s)", opts.output, outputText, outputJSON)
			}
		},
	}
	cmd.PersistentFlags().StringVarP(&opts.output, "output", "o", outputText, "output format: text or json")

	cmd.AddCommand(
		newScoreCmd(opts),
		newAuditCmd(opts),
		newMitigateCmd(opts),
		newFairnessCmd(opts),
		newRegistryCmd(opts),
	)
	return cmd
}

// readFixture decodes a YAML or JSON file into out. JSON is read through the
// YAML decoder, so both formats share the yaml struct tags.
func readFixture(path string, out interface{}) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open fixture: %w", err)
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("fixture %s is empty", path)
		}
		return fmt.Errorf("decode fixture %s: %w", path, err)
	}
	return nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newAuditor() *fairness.Auditor {
	return fairness.NewDefaultAuditor()
}

func newEngine() *scoring.Engine {
	return scoring.NewDefaultEngine()
}

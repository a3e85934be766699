// internal/fairness/report.go
package fairness

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const reportHeader = "# YECS Bias Detection Report"

// GenerateReport renders report as markdown text. Attributes appear in audit
// order and flagged groups in grouping order, so equal reports render equally.
func GenerateReport(report *BiasReport) string {
	var sb strings.Builder
	sb.WriteString(reportHeader)
	sb.WriteString("\n\n")

	if report == nil {
		return sb.String()
	}

	for _, a := range report.Attributes {
		fmt.Fprintf(&sb, "## %s\n", attributeTitle(a.Attribute))

		if a.Error != nil {
			fmt.Fprintf(&sb, "Error in analysis: %s\n\n", a.Error.Details)
			continue
		}

		fmt.Fprintf(&sb, "Overall Mean Score: %.2f\n", a.OverallMean)
		if a.BiasDetected {
			sb.WriteString("**BIAS DETECTED**\n\n")
			sb.WriteString("Potentially biased groups:\n")
			for _, g := range a.BiasedGroups {
				ratio := 0.0
				if g.DisparateImpact != nil {
					ratio = *g.DisparateImpact
				}
				fmt.Fprintf(&sb, "- %s: Ratio %.3f, Mean Score %.2f, Sample Size %d\n",
					g.Group, ratio, g.Mean, g.Count)
			}
		} else {
			sb.WriteString("No significant bias detected\n")
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// attributeTitle turns "zip_code" into "Zip Code".
func attributeTitle(attribute string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(attribute, "_", " "))
}

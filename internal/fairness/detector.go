// internal/fairness/detector.go
package fairness

import (
	"math"

	apperrors "yecs-workers/internal/common/errors"
)

// ratioTolerance keeps a ratio that sits exactly on the threshold, such as
// 660/600, from flagging because of binary rounding.
const ratioTolerance = 1e-9

// Auditor runs fairness audits over score collections. It holds only its
// policy and is safe for concurrent use.
type Auditor struct {
	cfg Config
}

// NewAuditor returns an Auditor for cfg after validating it.
func NewAuditor(cfg Config) (*Auditor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Auditor{cfg: cfg.clone()}, nil
}

// NewDefaultAuditor returns an Auditor for the fixed YECS audit policy.
func NewDefaultAuditor() *Auditor {
	a, err := NewAuditor(DefaultConfig())
	if err != nil {
		panic("fairness: default policy is invalid: " + err.Error())
	}
	return a
}

// Config returns a copy of the audit policy.
func (a *Auditor) Config() Config {
	return a.cfg.clone()
}

// DetectBias joins scores with demographics and analyses every protected
// attribute present in the joined rows. Rows without a match are dropped.
// A failure inside one attribute is recorded on that attribute only.
func (a *Auditor) DetectBias(scores []ScoreRecord, demographics []DemographicRecord) (*BiasReport, error) {
	rows, err := joinScores(scores, demographics)
	if err != nil {
		return nil, err
	}
	values := scoresOf(rows)

	report := &BiasReport{Attributes: []AttributeAnalysis{}, JoinedRows: len(rows)}
	for _, attr := range a.cfg.ProtectedAttributes {
		buckets := groupBy(rows, attr)
		if len(buckets) == 0 {
			continue
		}

		analysis, err := a.analyzeAttribute(attr, values, overallRows(rows, values, attr), buckets)
		if err != nil {
			analysis = AttributeAnalysis{
				Attribute: attr,
				Error:     apperrors.NewBiasAnalysisFailedError(attr, err.Error()),
			}
		}
		if analysis.BiasDetected {
			report.BiasDetected = true
		}
		report.Attributes = append(report.Attributes, analysis)
	}
	return report, nil
}

// analyzeAttribute compares each group mean with the mean over all joined
// rows, including rows that do not carry attr.
func (a *Auditor) analyzeAttribute(attr string, scores []float64, all []int, buckets []bucket) (AttributeAnalysis, error) {
	overall, err := summarize(scores, all)
	if err != nil {
		return AttributeAnalysis{}, err
	}

	analysis := AttributeAnalysis{
		Attribute:    attr,
		OverallMean:  overall.mean,
		Groups:       make([]GroupStats, 0, len(buckets)),
		BiasedGroups: []GroupStats{},
	}

	for _, b := range buckets {
		s, err := summarize(scores, b.rows)
		if err != nil {
			return AttributeAnalysis{}, err
		}

		stats := GroupStats{
			Group:  b.group,
			Count:  s.count,
			Mean:   s.mean,
			StdDev: s.stdDev,
		}
		if overall.mean > 0 {
			ratio := s.mean / overall.mean
			stats.DisparateImpact = &ratio
			stats.Flagged = exceedsThreshold(ratio, a.cfg.BiasThreshold)
		}

		analysis.Groups = append(analysis.Groups, stats)
		if stats.Flagged {
			analysis.BiasedGroups = append(analysis.BiasedGroups, stats)
		}
	}

	analysis.BiasDetected = len(analysis.BiasedGroups) > 0
	return analysis, nil
}

// exceedsThreshold reports whether ratio deviates from parity by strictly
// more than threshold.
func exceedsThreshold(ratio, threshold float64) bool {
	return math.Abs(ratio-1) > threshold+ratioTolerance
}

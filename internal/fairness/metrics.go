// internal/fairness/metrics.go
package fairness

import (
	apperrors "yecs-workers/internal/common/errors"
)

// CalculateFairnessMetrics joins predictions with ground truth and
// demographics and reports, per protected attribute, each group's approval
// statistics. Equalized odds are added when any joined row has a known outcome.
func (a *Auditor) CalculateFairnessMetrics(predictions []ScoreRecord, outcomes []OutcomeRecord, demographics []DemographicRecord) (*FairnessMetrics, error) {
	rows, err := joinOutcomes(predictions, outcomes, demographics)
	if err != nil {
		return nil, err
	}
	values := scoresOf(rows)

	hasTruth := false
	for _, r := range rows {
		if r.approval != nil {
			hasTruth = true
			break
		}
	}

	metrics := &FairnessMetrics{Attributes: []AttributeFairness{}}
	for _, attr := range a.cfg.ProtectedAttributes {
		buckets := groupBy(rows, attr)
		if len(buckets) == 0 {
			continue
		}

		af, err := a.groupFairness(attr, values, buckets)
		if err != nil {
			metrics.Attributes = append(metrics.Attributes, AttributeFairness{
				Attribute: attr,
				Error:     apperrors.NewBiasAnalysisFailedError(attr, err.Error()),
			})
			continue
		}
		if hasTruth {
			af.EqualizedOdds = a.equalizedOdds(rows, buckets)
		}
		metrics.Attributes = append(metrics.Attributes, af)
	}
	return metrics, nil
}

func (a *Auditor) groupFairness(attr string, scores []float64, buckets []bucket) (AttributeFairness, error) {
	af := AttributeFairness{
		Attribute: attr,
		Groups:    make([]GroupFairness, 0, len(buckets)),
	}
	for _, b := range buckets {
		s, err := summarize(scores, b.rows)
		if err != nil {
			return AttributeFairness{}, err
		}
		approved := countApproved(scores, b.rows, a.cfg.ApprovalThreshold)
		af.Groups = append(af.Groups, GroupFairness{
			Group:                b.group,
			TotalApplications:    s.count,
			ApprovedApplications: approved,
			ApprovalRate:         safeDivide(float64(approved), float64(s.count), 0),
			AverageScore:         s.mean,
		})
	}
	return af, nil
}

// equalizedOdds computes TPR = TP/P and FPR = FP/N per group. Rows with an
// unknown outcome count as neither positive nor negative.
func (a *Auditor) equalizedOdds(rows []row, buckets []bucket) []GroupOdds {
	odds := make([]GroupOdds, 0, len(buckets))
	for _, b := range buckets {
		var tp, p, fp, n int
		for _, i := range b.rows {
			r := rows[i]
			if r.approval == nil {
				continue
			}
			predicted := r.score >= a.cfg.ApprovalThreshold
			if *r.approval {
				p++
				if predicted {
					tp++
				}
			} else {
				n++
				if predicted {
					fp++
				}
			}
		}
		odds = append(odds, GroupOdds{
			Group:             b.group,
			TruePositiveRate:  safeDivide(float64(tp), float64(p), 0),
			FalsePositiveRate: safeDivide(float64(fp), float64(n), 0),
		})
	}
	return odds
}

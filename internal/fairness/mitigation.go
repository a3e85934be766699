// internal/fairness/mitigation.go
package fairness

import (
	"fmt"

	apperrors "yecs-workers/internal/common/errors"
)

// ApplyMitigation returns adjusted copies of the rows that join with
// demographics. Attributes are processed in order; each attribute reads the
// scores left by the previous one, so a user in several affected groups
// receives several adjustments. Scores are clipped to the range at the end.
// The input slices are not modified.
func (a *Auditor) ApplyMitigation(scores []ScoreRecord, demographics []DemographicRecord, method Method) ([]ScoreRecord, error) {
	var adjust func(values []float64, all []int, buckets []bucket) error
	switch method {
	case MethodEqualizedOdds:
		adjust = a.equalizedOddsAdjustment
	case MethodDemographicParity:
		adjust = a.demographicParityAdjustment
	default:
		return nil, apperrors.NewInvalidArgumentError("mitigation method",
			fmt.Sprintf("unknown bias mitigation method: %q", string(method)))
	}

	rows, err := joinScores(scores, demographics)
	if err != nil {
		return nil, err
	}
	values := scoresOf(rows)

	for _, attr := range a.cfg.ProtectedAttributes {
		buckets := groupBy(rows, attr)
		if len(buckets) == 0 {
			continue
		}
		if err := adjust(values, overallRows(rows, values, attr), buckets); err != nil {
			return nil, apperrors.NewBiasAnalysisFailedError(attr, err.Error())
		}
	}

	out := make([]ScoreRecord, len(rows))
	for i, r := range rows {
		out[i] = ScoreRecord{UserID: r.userID, Score: a.cfg.ScoreRange.Clip(values[i])}
	}
	return out, nil
}

// equalizedOddsAdjustment moves every group a fixed fraction of the way
// toward the mean of all joined rows. Means are taken before any group of
// this attribute is adjusted.
func (a *Auditor) equalizedOddsAdjustment(values []float64, all []int, buckets []bucket) error {
	overall, err := summarize(values, all)
	if err != nil {
		return err
	}

	shifts := make([]float64, len(buckets))
	for j, b := range buckets {
		s, err := summarize(values, b.rows)
		if err != nil {
			return err
		}
		shifts[j] = (overall.mean - s.mean) * a.cfg.EqualizedOddsFactor
	}

	for j, b := range buckets {
		for _, i := range b.rows {
			values[i] += shifts[j]
		}
	}
	return nil
}

// demographicParityAdjustment boosts every group whose approval rate is
// below the rate over all joined rows. Rates are taken before any group is
// boosted.
func (a *Auditor) demographicParityAdjustment(values []float64, all []int, buckets []bucket) error {
	if _, err := summarize(values, all); err != nil {
		return err
	}
	threshold := a.cfg.ApprovalThreshold
	overallRate := safeDivide(float64(countApproved(values, all, threshold)), float64(len(all)), 0)

	boosted := make([]bool, len(buckets))
	for j, b := range buckets {
		rate := safeDivide(float64(countApproved(values, b.rows, threshold)), float64(len(b.rows)), 0)
		boosted[j] = rate < overallRate
	}

	for j, b := range buckets {
		if !boosted[j] {
			continue
		}
		for _, i := range b.rows {
			values[i] += a.cfg.ParityBoost
		}
	}
	return nil
}

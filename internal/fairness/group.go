// internal/fairness/group.go
package fairness

import (
	"fmt"
	"math"

	apperrors "yecs-workers/internal/common/errors"
)

// row is one joined record. approval is only set by the three-way join.
type row struct {
	userID     string
	score      float64
	attributes map[string]string
	approval   *bool
}

// bucket collects the row indexes sharing one attribute value.
type bucket struct {
	group string
	rows  []int
}

type summary struct {
	count  int
	mean   float64
	stdDev float64
}

func indexDemographics(demographics []DemographicRecord) (map[string]map[string]string, error) {
	index := make(map[string]map[string]string, len(demographics))
	for i, d := range demographics {
		if d.UserID == "" {
			return nil, apperrors.NewInvalidArgumentError("demographics", fmt.Sprintf("record %d has an empty user_id", i))
		}
		if _, dup := index[d.UserID]; dup {
			return nil, apperrors.NewInvalidArgumentError("demographics", fmt.Sprintf("duplicate user_id %q", d.UserID))
		}
		index[d.UserID] = d.Attributes
	}
	return index, nil
}

func indexOutcomes(outcomes []OutcomeRecord) (map[string]*bool, error) {
	index := make(map[string]*bool, len(outcomes))
	for i, o := range outcomes {
		if o.UserID == "" {
			return nil, apperrors.NewInvalidArgumentError("outcomes", fmt.Sprintf("record %d has an empty user_id", i))
		}
		if _, dup := index[o.UserID]; dup {
			return nil, apperrors.NewInvalidArgumentError("outcomes", fmt.Sprintf("duplicate user_id %q", o.UserID))
		}
		index[o.UserID] = o.ActualApproval
	}
	return index, nil
}

// joinScores inner-joins scores with demographics in score order. A user may
// have several score rows; each joins independently.
func joinScores(scores []ScoreRecord, demographics []DemographicRecord) ([]row, error) {
	demo, err := indexDemographics(demographics)
	if err != nil {
		return nil, err
	}

	rows := make([]row, 0, len(scores))
	for i, s := range scores {
		if s.UserID == "" {
			return nil, apperrors.NewInvalidArgumentError("scores", fmt.Sprintf("record %d has an empty user_id", i))
		}
		attrs, ok := demo[s.UserID]
		if !ok {
			continue
		}
		rows = append(rows, row{userID: s.UserID, score: s.Score, attributes: attrs})
	}
	return rows, nil
}

// joinOutcomes inner-joins predictions, outcomes and demographics in
// prediction order.
func joinOutcomes(predictions []ScoreRecord, outcomes []OutcomeRecord, demographics []DemographicRecord) ([]row, error) {
	rows, err := joinScores(predictions, demographics)
	if err != nil {
		return nil, err
	}
	truth, err := indexOutcomes(outcomes)
	if err != nil {
		return nil, err
	}

	joined := rows[:0]
	for _, r := range rows {
		approval, ok := truth[r.userID]
		if !ok {
			continue
		}
		r.approval = approval
		joined = append(joined, r)
	}
	return joined, nil
}

// groupBy buckets rows by their value of attribute, in order of first
// appearance. Rows without the attribute are skipped.
func groupBy(rows []row, attribute string) []bucket {
	positions := make(map[string]int)
	var buckets []bucket
	for i, r := range rows {
		value := r.attributes[attribute]
		if value == "" {
			continue
		}
		pos, ok := positions[value]
		if !ok {
			pos = len(buckets)
			positions[value] = pos
			buckets = append(buckets, bucket{group: value})
		}
		buckets[pos].rows = append(buckets[pos].rows, i)
	}
	return buckets
}

// overallRows returns the indexes the overall statistics of attribute are
// taken over: every joined row, except rows that lack the attribute and
// hold a non-finite score.
func overallRows(rows []row, values []float64, attribute string) []int {
	idx := make([]int, 0, len(rows))
	for i, r := range rows {
		if r.attributes[attribute] == "" && !isFinite(values[i]) {
			continue
		}
		idx = append(idx, i)
	}
	return idx
}

// summarize returns count, mean and sample standard deviation of the scores
// at idx. The deviation is 0 for fewer than two values.
func summarize(scores []float64, idx []int) (summary, error) {
	s := summary{count: len(idx)}
	if s.count == 0 {
		return s, nil
	}

	sum := 0.0
	for _, i := range idx {
		if !isFinite(scores[i]) {
			return summary{}, fmt.Errorf("score %v is not a finite number", scores[i])
		}
		sum += scores[i]
	}
	s.mean = sum / float64(s.count)

	if s.count > 1 {
		sq := 0.0
		for _, i := range idx {
			d := scores[i] - s.mean
			sq += d * d
		}
		s.stdDev = math.Sqrt(sq / float64(s.count-1))
	}
	return s, nil
}

// countApproved returns how many scores at idx reach threshold.
func countApproved(scores []float64, idx []int, threshold float64) int {
	n := 0
	for _, i := range idx {
		if scores[i] >= threshold {
			n++
		}
	}
	return n
}

// safeDivide returns num/den, or def when den is zero.
func safeDivide(num, den, def float64) float64 {
	if den == 0 {
		return def
	}
	return num / den
}

func scoresOf(rows []row) []float64 {
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = r.score
	}
	return out
}

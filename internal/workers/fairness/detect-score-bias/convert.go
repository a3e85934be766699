// internal/workers/fairness/detect-score-bias/convert.go
package detectscorebias

import (
	"yecs-workers/internal/common/database"
	"yecs-workers/internal/fairness"
)

func toScoreRecords(stored []database.StoredScore) []fairness.ScoreRecord {
	out := make([]fairness.ScoreRecord, len(stored))
	for i, s := range stored {
		out[i] = fairness.ScoreRecord{UserID: s.UserID, Score: float64(s.Score)}
	}
	return out
}

// toDemographicRecords folds long-format rows into one record per user,
// keeping the order in which users first appear.
func toDemographicRecords(values []database.DemographicValue) []fairness.DemographicRecord {
	index := make(map[string]int)
	var out []fairness.DemographicRecord
	for _, v := range values {
		i, ok := index[v.UserID]
		if !ok {
			i = len(out)
			index[v.UserID] = i
			out = append(out, fairness.DemographicRecord{UserID: v.UserID, Attributes: map[string]string{}})
		}
		out[i].Attributes[v.Attribute] = v.Value
	}
	return out
}

// flaggedGroups lists the flagged group values of each attribute.
func flaggedGroups(report *fairness.BiasReport) map[string][]string {
	out := make(map[string][]string)
	for _, a := range report.Attributes {
		for _, g := range a.BiasedGroups {
			out[a.Attribute] = append(out[a.Attribute], g.Group)
		}
	}
	return out
}

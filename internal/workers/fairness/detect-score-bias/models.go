// internal/workers/fairness/detect-score-bias/models.go
package detectscorebias

import (
	"time"

	"yecs-workers/internal/fairness"
)

// Input carries the records to audit. When both Scores and Demographics are
// absent the latest stored scores and demographics are audited instead.
type Input struct {
	Scores       []fairness.ScoreRecord       `json:"scores,omitempty"`
	Demographics []fairness.DemographicRecord `json:"demographics,omitempty"`
	SendAlerts   *bool                        `json:"sendAlerts,omitempty"`
	Archive      *bool                        `json:"archive,omitempty"`
}

func (i *Input) usesStoredData() bool {
	return i.Scores == nil && i.Demographics == nil
}

func (i *Input) shouldAlert() bool {
	return i.SendAlerts == nil || *i.SendAlerts
}

func (i *Input) shouldArchive() bool {
	return i.Archive == nil || *i.Archive
}

const (
	SourceInput    = "input"
	SourceDatabase = "database"
)

type Output struct {
	AuditID           string               `json:"auditId"`
	Source            string               `json:"source"`
	RecordsAnalyzed   int                  `json:"recordsAnalyzed"`
	BiasDetected      bool                 `json:"biasDetected"`
	FlaggedGroupCount int                  `json:"flaggedGroupCount"`
	FlaggedGroups     map[string][]string  `json:"flaggedGroups,omitempty"`
	Report            string               `json:"report"`
	Analysis          *fairness.BiasReport `json:"analysis"`
	Archived          bool                 `json:"archived"`
	ArchiveError      string               `json:"archiveError,omitempty"`
	AlertChannels     []string             `json:"alertChannels,omitempty"`
	AlertError        string               `json:"alertError,omitempty"`
	AuditedAt         time.Time            `json:"auditedAt"`
}

// AuditDocument is the archived form of one audit.
type AuditDocument struct {
	AuditID           string               `json:"auditId"`
	Source            string               `json:"source"`
	RecordsAnalyzed   int                  `json:"recordsAnalyzed"`
	BiasDetected      bool                 `json:"biasDetected"`
	FlaggedGroupCount int                  `json:"flaggedGroupCount"`
	FlaggedGroups     map[string][]string  `json:"flaggedGroups,omitempty"`
	Report            string               `json:"report"`
	Analysis          *fairness.BiasReport `json:"analysis"`
	AuditedAt         time.Time            `json:"auditedAt"`
}

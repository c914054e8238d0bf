package model

import (
	"time"

	"github.com/sells-group/leadscore-cli/internal/scoring"
)

// RunStatus represents the current state of a sync run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Run represents one CRM sync.
type Run struct {
	ID          string    `json:"id"`
	Status      RunStatus `json:"status"`
	ProfileName string    `json:"profile_name"`
	ProfileHash string    `json:"profile_hash"`
	DryRun      bool      `json:"dry_run"`
	Stats       RunStats  `json:"stats"`
	Error       string    `json:"error,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// RunStats counts what a sync did.
type RunStats struct {
	Contacts int            `json:"contacts"`
	Scored   int            `json:"scored"`
	Updated  int            `json:"updated"`
	Failed   int            `json:"failed"`
	Tiers    map[string]int `json:"tiers,omitempty"`
}

// CountTier records one scored lead in the tier histogram.
func (s *RunStats) CountTier(t scoring.Tier) {
	if s.Tiers == nil {
		s.Tiers = make(map[string]int)
	}
	s.Tiers[string(t)]++
}

// ScoreRecord is one persisted scoring result.
type ScoreRecord struct {
	RunID       string                `json:"run_id"`
	ContactID   string                `json:"contact_id"`
	AccountID   string                `json:"account_id,omitempty"`
	ProfileHash string                `json:"profile_hash"`
	Result      scoring.ScoringResult `json:"result"`
	CreatedAt   time.Time             `json:"created_at"`
}

// ProfileVersion is one stored revision of a scoring profile document.
type ProfileVersion struct {
	Version   int       `json:"version"`
	Name      string    `json:"name"`
	Hash      string    `json:"hash"`
	Document  []byte    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

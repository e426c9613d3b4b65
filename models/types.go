// ABOUTME: Data models for the lead pipeline and outreach campaigns
// ABOUTME: Defines Lead, Stage, Prospect, OutreachLog, and ValidationResult
package models

import (
	"encoding/json"
	"strings"
	"time"
)

// Stage is a position in the fixed sales process.
type Stage string

const (
	StageNew         Stage = "new"
	StageContacted   Stage = "contacted"
	StageDiscovery   Stage = "discovery"
	StageProposal    Stage = "proposal"
	StageNegotiation Stage = "negotiation"
	StageWon         Stage = "won"
	StageLost        Stage = "lost"
)

// Stages lists every stage in pipeline order.
var Stages = []Stage{
	StageNew,
	StageContacted,
	StageDiscovery,
	StageProposal,
	StageNegotiation,
	StageWon,
	StageLost,
}

var stageLabels = map[Stage]string{
	StageNew:         "🆕 New",
	StageContacted:   "📧 Contacted",
	StageDiscovery:   "🎯 Discovery",
	StageProposal:    "📝 Proposal",
	StageNegotiation: "💬 Negotiation",
	StageWon:         "✅ Won",
	StageLost:        "❌ Lost",
}

// ParseStage matches s against the stage set, ignoring case and surrounding space.
func ParseStage(s string) (Stage, bool) {
	candidate := Stage(strings.ToLower(strings.TrimSpace(s)))
	for _, stage := range Stages {
		if stage == candidate {
			return stage, true
		}
	}
	return "", false
}

// StageNames returns the stage set as plain strings, in order.
func StageNames() []string {
	names := make([]string, len(Stages))
	for i, s := range Stages {
		names[i] = string(s)
	}
	return names
}

// Label returns the display label for the stage.
func (s Stage) Label() string {
	if label, ok := stageLabels[s]; ok {
		return label
	}
	return string(s)
}

// IsClosed reports whether the stage is won or lost.
func (s Stage) IsClosed() bool {
	return s == StageWon || s == StageLost
}

type LeadNote struct {
	Text string    `json:"text"`
	Date time.Time `json:"date"`
}

type StageChange struct {
	Stage Stage     `json:"stage"`
	Date  time.Time `json:"date"`
	From  Stage     `json:"from,omitempty"`
}

type Lead struct {
	ID        string        `json:"id"`
	Company   string        `json:"company"`
	Contact   string        `json:"contact"`
	Email     string        `json:"email"`
	Source    string        `json:"source"`
	Tier      string        `json:"tier,omitempty"`
	Revenue   string        `json:"revenue,omitempty"`
	Stage     Stage         `json:"stage"`
	Notes     []LeadNote    `json:"notes"`
	History   []StageChange `json:"history"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// PipelineDocument is the persisted lead collection.
type PipelineDocument struct {
	Leads       []Lead     `json:"leads"`
	LastUpdated *time.Time `json:"lastUpdated"`
}

// Prospect is one campaign input record. Columns without a dedicated field
// land in Extra, keyed lowercase.
type Prospect struct {
	Name     string            `json:"name,omitempty"`
	Email    string            `json:"email"`
	Company  string            `json:"company,omitempty"`
	Industry string            `json:"industry,omitempty"`
	City     string            `json:"city,omitempty"`
	Phone    string            `json:"phone,omitempty"`
	Extra    map[string]string `json:"extra,omitempty"`
}

// NormalizedEmail is the dedup key for a prospect.
func (p Prospect) NormalizedEmail() string {
	return NormalizeEmail(p.Email)
}

// NormalizeEmail lowercases and trims an address for comparison.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Outcome constants.
type Outcome string

const (
	OutcomeSent    Outcome = "sent"
	OutcomeBounced Outcome = "bounced"
	OutcomeDryRun  Outcome = "dry-run"
	OutcomeReplied Outcome = "replied"
)

type OutreachEntry struct {
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	Company   string    `json:"company,omitempty"`
	Subject   string    `json:"subject,omitempty"`
	MessageID string    `json:"messageId,omitempty"`
	Error     string    `json:"error,omitempty"`
	Note      string    `json:"note,omitempty"`
	RunID     string    `json:"runId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Outcome   Outcome   `json:"outcome"`
}

// UnmarshalJSON accepts logs written by the earlier scripts, which stored
// the time as sentAt on sent entries and at on bounces.
func (e *OutreachEntry) UnmarshalJSON(data []byte) error {
	type plain OutreachEntry
	aux := struct {
		*plain
		SentAt *time.Time `json:"sentAt,omitempty"`
		At     *time.Time `json:"at,omitempty"`
	}{plain: (*plain)(e)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if e.Timestamp.IsZero() {
		switch {
		case aux.SentAt != nil:
			e.Timestamp = *aux.SentAt
		case aux.At != nil:
			e.Timestamp = *aux.At
		}
	}
	return nil
}

// OutreachLog is the persisted, append-only campaign history.
type OutreachLog struct {
	Sent    []OutreachEntry `json:"sent"`
	Bounced []OutreachEntry `json:"bounced"`
	Replied []OutreachEntry `json:"replied"`
}

// SentSet returns the normalized addresses that already have a sent entry.
func (l *OutreachLog) SentSet() map[string]bool {
	set := make(map[string]bool, len(l.Sent))
	for _, e := range l.Sent {
		set[NormalizeEmail(e.Email)] = true
	}
	return set
}

type ValidationResult struct {
	Valid     bool      `json:"valid"`
	Reason    string    `json:"reason,omitempty"`
	MX        string    `json:"mx,omitempty"`
	CheckedAt time.Time `json:"checkedAt,omitempty"`
}

// ValidationCache maps a normalized email to its last validation result.
type ValidationCache map[string]ValidationResult

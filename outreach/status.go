// ABOUTME: Read-only outreach summary and reply tracking
// ABOUTME: Derives sent/bounced/replied counts and recent entries from the log
package outreach

import (
	"fmt"
	"strings"
	"time"

	"github.com/harperreed/prospect/db"
	"github.com/harperreed/prospect/models"
)

type StatusSummary struct {
	Sent           int                    `json:"sent"`
	Bounced        int                    `json:"bounced"`
	Replied        int                    `json:"replied"`
	RecentSent     []models.OutreachEntry `json:"recent_sent"`
	RecentBounced  []models.OutreachEntry `json:"recent_bounced"`
	RecentReplied  []models.OutreachEntry `json:"recent_replied"`
	ReplyRate      int                    `json:"reply_rate"`
	LastActivityAt *time.Time             `json:"last_activity_at,omitempty"`
}

// Status summarizes the log without changing it. recent bounds how many of
// the newest entries of each kind are returned.
func Status(store db.Store, recent int) (*StatusSummary, error) {
	log, err := LoadLog(store)
	if err != nil {
		return nil, err
	}
	if recent <= 0 {
		recent = 5
	}

	summary := &StatusSummary{
		Sent:          len(log.Sent),
		Bounced:       len(log.Bounced),
		Replied:       len(log.Replied),
		RecentSent:    tail(log.Sent, recent),
		RecentBounced: tail(log.Bounced, recent),
		RecentReplied: tail(log.Replied, recent),
	}
	if summary.Sent > 0 {
		summary.ReplyRate = summary.Replied * 100 / summary.Sent
	}

	for _, entries := range [][]models.OutreachEntry{log.Sent, log.Bounced, log.Replied} {
		for i := range entries {
			ts := entries[i].Timestamp
			if summary.LastActivityAt == nil || ts.After(*summary.LastActivityAt) {
				summary.LastActivityAt = &ts
			}
		}
	}

	return summary, nil
}

// MarkReplied records a reply from email. Name, company, and subject are
// copied from the most recent sent entry for that address when there is one.
func MarkReplied(store db.Store, email, note string, now time.Time) (*models.OutreachEntry, error) {
	normalized := models.NormalizeEmail(email)
	if normalized == "" {
		return nil, fmt.Errorf("email is required")
	}

	log, err := LoadLog(store)
	if err != nil {
		return nil, err
	}

	entry := models.OutreachEntry{
		Email:     strings.TrimSpace(email),
		Note:      strings.TrimSpace(note),
		Timestamp: now,
		Outcome:   models.OutcomeReplied,
	}
	for i := len(log.Sent) - 1; i >= 0; i-- {
		if models.NormalizeEmail(log.Sent[i].Email) == normalized {
			entry.Name = log.Sent[i].Name
			entry.Company = log.Sent[i].Company
			entry.Subject = log.Sent[i].Subject
			entry.RunID = log.Sent[i].RunID
			break
		}
	}

	log.Replied = append(log.Replied, entry)
	if err := store.Save(log); err != nil {
		return nil, fmt.Errorf("failed to save outreach log: %w", err)
	}
	return &entry, nil
}

func tail(entries []models.OutreachEntry, n int) []models.OutreachEntry {
	if len(entries) <= n {
		return append([]models.OutreachEntry(nil), entries...)
	}
	return append([]models.OutreachEntry(nil), entries[len(entries)-n:]...)
}

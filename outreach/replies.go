// ABOUTME: Inbox reply detection for sent outreach
// ABOUTME: Matches inbound messages against the sent log and records new replies
package outreach

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/harperreed/prospect/db"
	"github.com/harperreed/prospect/models"
)

// InboundMessage is one message found in the mailbox.
type InboundMessage struct {
	ID      string
	From    string
	Subject string
	Date    time.Time
}

// ReplySource searches a mailbox for messages from any of addresses received
// on or after since.
type ReplySource interface {
	FindMessagesFrom(ctx context.Context, addresses []string, since time.Time) ([]InboundMessage, error)
}

type ReplyCheckResult struct {
	Checked  int                    `json:"checked"`
	Recorded []models.OutreachEntry `json:"recorded"`
}

// CheckReplies asks source about every sent address that has not replied yet
// and records the earliest reply per address. Messages older than the send
// they would answer are ignored.
func CheckReplies(ctx context.Context, store db.Store, source ReplySource, logger *zap.Logger) (*ReplyCheckResult, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	log, err := LoadLog(store)
	if err != nil {
		return nil, err
	}

	replied := make(map[string]bool, len(log.Replied))
	for _, e := range log.Replied {
		replied[models.NormalizeEmail(e.Email)] = true
	}

	// latest send per address that is still waiting on a reply
	waiting := make(map[string]models.OutreachEntry)
	for _, e := range log.Sent {
		email := models.NormalizeEmail(e.Email)
		if email == "" || replied[email] {
			continue
		}
		if prev, ok := waiting[email]; !ok || e.Timestamp.After(prev.Timestamp) {
			waiting[email] = e
		}
	}

	result := &ReplyCheckResult{Checked: len(waiting), Recorded: []models.OutreachEntry{}}
	if len(waiting) == 0 {
		return result, nil
	}

	addresses := make([]string, 0, len(waiting))
	since := time.Time{}
	for email, e := range waiting {
		addresses = append(addresses, email)
		if since.IsZero() || (!e.Timestamp.IsZero() && e.Timestamp.Before(since)) {
			since = e.Timestamp
		}
	}
	sort.Strings(addresses)

	messages, err := source.FindMessagesFrom(ctx, addresses, since)
	if err != nil {
		return nil, fmt.Errorf("failed to search mailbox: %w", err)
	}
	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].Date.Before(messages[j].Date)
	})

	for _, msg := range messages {
		email := models.NormalizeEmail(msg.From)
		sent, ok := waiting[email]
		if !ok || replied[email] {
			continue
		}
		if !sent.Timestamp.IsZero() && msg.Date.Before(sent.Timestamp) {
			continue
		}

		entry := models.OutreachEntry{
			Email:     sent.Email,
			Name:      sent.Name,
			Company:   sent.Company,
			Subject:   sent.Subject,
			RunID:     sent.RunID,
			MessageID: msg.ID,
			Note:      strings.TrimSpace(msg.Subject),
			Timestamp: msg.Date,
			Outcome:   models.OutcomeReplied,
		}
		log.Replied = append(log.Replied, entry)
		result.Recorded = append(result.Recorded, entry)
		replied[email] = true

		logger.Info("reply found",
			zap.String("email", entry.Email),
			zap.String("message_id", msg.ID),
			zap.String("run_id", entry.RunID))
	}

	if len(result.Recorded) > 0 {
		if err := store.Save(log); err != nil {
			return nil, fmt.Errorf("failed to save outreach log: %w", err)
		}
	}
	return result, nil
}

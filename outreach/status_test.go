// ABOUTME: Tests for outreach status and reply tracking
// ABOUTME: Verifies summaries are read-only and replies copy context from the sent entry
package outreach

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/harperreed/prospect/db"
	"github.com/harperreed/prospect/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededLog(t *testing.T) db.Store {
	t.Helper()
	store := db.NewFileStore(filepath.Join(t.TempDir(), "outreach-log.json"))
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	log := &models.OutreachLog{}
	for i := 0; i < 7; i++ {
		log.Sent = append(log.Sent, models.OutreachEntry{
			Email:     "lead" + string(rune('a'+i)) + "@x.com",
			Name:      "Lead",
			Company:   "Co",
			Subject:   "Hello",
			Timestamp: base.Add(time.Duration(i) * time.Hour),
			Outcome:   models.OutcomeSent,
		})
	}
	log.Bounced = []models.OutreachEntry{{Email: "bad@x.com", Error: "550", Timestamp: base, Outcome: models.OutcomeBounced}}
	require.NoError(t, store.Save(log))
	return store
}

func TestStatusSummary(t *testing.T) {
	store := seededLog(t)

	summary, err := Status(store, 5)
	require.NoError(t, err)

	assert.Equal(t, 7, summary.Sent)
	assert.Equal(t, 1, summary.Bounced)
	assert.Zero(t, summary.Replied)
	require.Len(t, summary.RecentSent, 5)
	assert.Equal(t, "leadc@x.com", summary.RecentSent[0].Email)
	assert.Equal(t, "leadg@x.com", summary.RecentSent[4].Email)
	require.NotNil(t, summary.LastActivityAt)
	assert.Equal(t, time.Date(2026, 3, 1, 15, 0, 0, 0, time.UTC), *summary.LastActivityAt)
}

func TestStatusEmptyLog(t *testing.T) {
	store := db.NewFileStore(filepath.Join(t.TempDir(), "none.json"))

	summary, err := Status(store, 0)
	require.NoError(t, err)

	assert.Zero(t, summary.Sent)
	assert.Empty(t, summary.RecentSent)
	assert.Nil(t, summary.LastActivityAt)

	found, err := store.Load(&models.OutreachLog{})
	require.NoError(t, err)
	assert.False(t, found, "status must not create the log")
}

func TestMarkReplied(t *testing.T) {
	store := seededLog(t)
	now := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)

	entry, err := MarkReplied(store, "LeadB@x.com", " wants a call ", now)
	require.NoError(t, err)

	assert.Equal(t, "Lead", entry.Name)
	assert.Equal(t, "Co", entry.Company)
	assert.Equal(t, "Hello", entry.Subject)
	assert.Equal(t, "wants a call", entry.Note)
	assert.Equal(t, models.OutcomeReplied, entry.Outcome)

	summary, err := Status(store, 5)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Replied)
	assert.Equal(t, 14, summary.ReplyRate)
	assert.Equal(t, now, *summary.LastActivityAt)
}

func TestMarkRepliedUnknownAddress(t *testing.T) {
	store := seededLog(t)

	entry, err := MarkReplied(store, "stranger@y.com", "", time.Now())
	require.NoError(t, err)
	assert.Empty(t, entry.Name)

	_, err = MarkReplied(store, "  ", "", time.Now())
	assert.Error(t, err)
}

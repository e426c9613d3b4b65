// ABOUTME: Read-only pipeline views: stage-grouped board and aggregate stats
// ABOUTME: Computes staleness, days in pipeline, conversion rate, and tier revenue
package pipeline

import (
	"fmt"
	"math"
	"strings"

	"github.com/harperreed/prospect/models"
)

type LeadView struct {
	models.Lead
	DaysSinceUpdate int  `json:"days_since_update"`
	Stale           bool `json:"stale"`
}

type StageGroup struct {
	Stage models.Stage `json:"stage"`
	Leads []LeadView   `json:"leads"`
}

// Board is the lead collection grouped by stage in pipeline order.
type Board struct {
	Groups []StageGroup `json:"groups"`
	Total  int          `json:"total"`
	Filter models.Stage `json:"filter,omitempty"`
}

// List groups leads by stage. With a non-empty filter only that stage's
// group is returned.
func (t *Tracker) List(filter string) (*Board, error) {
	var only models.Stage
	if strings.TrimSpace(filter) != "" {
		stage, ok := models.ParseStage(filter)
		if !ok {
			return nil, fmt.Errorf("%w: %s (valid: %s)", ErrInvalidStage, filter, strings.Join(models.StageNames(), ", "))
		}
		only = stage
	}

	doc, err := t.Load()
	if err != nil {
		return nil, err
	}

	now := t.now()
	byStage := make(map[models.Stage][]LeadView)
	for _, lead := range doc.Leads {
		if only != "" && lead.Stage != only {
			continue
		}
		days := daysSince(now, lead.UpdatedAt)
		byStage[lead.Stage] = append(byStage[lead.Stage], LeadView{
			Lead:            lead,
			DaysSinceUpdate: days,
			Stale:           days > t.cfg.StaleAfterDays,
		})
	}

	board := &Board{Total: len(doc.Leads), Filter: only}
	for _, stage := range models.Stages {
		if only != "" && stage != only {
			continue
		}
		board.Groups = append(board.Groups, StageGroup{Stage: stage, Leads: byStage[stage]})
	}
	return board, nil
}

// Count returns the number of leads shown on the board.
func (b *Board) Count() int {
	n := 0
	for _, g := range b.Groups {
		n += len(g.Leads)
	}
	return n
}

type Stats struct {
	Total             int                  `json:"total"`
	ByStage           map[models.Stage]int `json:"by_stage"`
	AvgDaysInPipeline int                  `json:"avg_days_in_pipeline"`
	ConversionRate    int                  `json:"conversion_rate"`
	PotentialRevenue  int64                `json:"potential_revenue"`
	WonRevenue        int64                `json:"won_revenue"`
}

// Stats aggregates the pipeline. Conversion rate is won/(won+lost) as a
// rounded percentage, 0 when nothing has closed. Potential revenue counts
// open leads whose tier is priced; lost leads count toward neither total.
func (t *Tracker) Stats() (*Stats, error) {
	doc, err := t.Load()
	if err != nil {
		return nil, err
	}

	stats := &Stats{
		Total:   len(doc.Leads),
		ByStage: make(map[models.Stage]int, len(models.Stages)),
	}
	for _, stage := range models.Stages {
		stats.ByStage[stage] = 0
	}

	now := t.now()
	totalDays := 0
	for _, lead := range doc.Leads {
		stats.ByStage[lead.Stage]++
		totalDays += daysSince(now, lead.CreatedAt)

		price, ok := t.cfg.TierPrices[strings.ToLower(strings.TrimSpace(lead.Tier))]
		if !ok {
			continue
		}
		switch lead.Stage {
		case models.StageWon:
			stats.WonRevenue += price
		case models.StageLost:
		default:
			stats.PotentialRevenue += price
		}
	}

	if stats.Total > 0 {
		stats.AvgDaysInPipeline = int(math.Round(float64(totalDays) / float64(stats.Total)))
	}

	won := stats.ByStage[models.StageWon]
	closed := won + stats.ByStage[models.StageLost]
	if closed > 0 {
		stats.ConversionRate = int(math.Round(float64(won) / float64(closed) * 100))
	}

	return stats, nil
}

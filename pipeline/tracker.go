// ABOUTME: Lead pipeline tracker over a whole-document store
// ABOUTME: Add, update, note, find, and list leads moving through sales stages
package pipeline

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/prospect/config"
	"github.com/harperreed/prospect/db"
	"github.com/harperreed/prospect/models"
)

var (
	ErrLeadExists   = errors.New("lead already exists")
	ErrLeadNotFound = errors.New("lead not found")
	ErrInvalidStage = errors.New("invalid stage")
)

// Tracker owns the persisted lead collection. Every mutation loads the whole
// document, changes it, and writes it back.
type Tracker struct {
	store db.Store
	cfg   config.PipelineConfig
	now   func() time.Time
}

type Option func(*Tracker)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		t.now = now
	}
}

func NewTracker(store db.Store, cfg config.PipelineConfig, opts ...Option) *Tracker {
	if cfg.StaleAfterDays <= 0 {
		cfg.StaleAfterDays = config.DefaultPipelineConfig().StaleAfterDays
	}
	if cfg.TierPrices == nil {
		cfg.TierPrices = config.DefaultPipelineConfig().TierPrices
	}

	t := &Tracker{
		store: store,
		cfg:   cfg,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

type NewLead struct {
	Company string
	Contact string
	Email   string
	Source  string
	Tier    string
	Revenue string
}

// StageUpdate describes a completed stage transition.
type StageUpdate struct {
	Lead *models.Lead
	From models.Stage
	To   models.Stage
	Note string
}

// Load returns the current document, or an empty one if nothing is saved.
func (t *Tracker) Load() (*models.PipelineDocument, error) {
	doc := &models.PipelineDocument{}
	if _, err := t.store.Load(doc); err != nil {
		return nil, fmt.Errorf("failed to load pipeline: %w", err)
	}
	if doc.Leads == nil {
		doc.Leads = []models.Lead{}
	}
	return doc, nil
}

func (t *Tracker) save(doc *models.PipelineDocument) error {
	now := t.now()
	doc.LastUpdated = &now
	if err := t.store.Save(doc); err != nil {
		return fmt.Errorf("failed to save pipeline: %w", err)
	}
	return nil
}

// Add creates a lead in stage new. A company that already exists (ignoring
// case) returns ErrLeadExists and leaves the collection unchanged.
func (t *Tracker) Add(in NewLead) (*models.Lead, error) {
	company := strings.TrimSpace(in.Company)
	if company == "" {
		return nil, fmt.Errorf("company is required")
	}

	doc, err := t.Load()
	if err != nil {
		return nil, err
	}

	lead, err := t.addTo(doc, in)
	if err != nil {
		return nil, err
	}

	if err := t.save(doc); err != nil {
		return nil, err
	}
	return lead, nil
}

func (t *Tracker) addTo(doc *models.PipelineDocument, in NewLead) (*models.Lead, error) {
	company := strings.TrimSpace(in.Company)
	if existing := findExact(doc, company); existing != nil {
		return nil, fmt.Errorf("%w: %q (stage: %s)", ErrLeadExists, existing.Company, existing.Stage)
	}

	now := t.now()
	doc.Leads = append(doc.Leads, models.Lead{
		ID:        uuid.NewString(),
		Company:   company,
		Contact:   strings.TrimSpace(in.Contact),
		Email:     strings.TrimSpace(in.Email),
		Source:    in.Source,
		Tier:      strings.TrimSpace(in.Tier),
		Revenue:   strings.TrimSpace(in.Revenue),
		Stage:     models.StageNew,
		Notes:     []models.LeadNote{},
		History:   []models.StageChange{{Stage: models.StageNew, Date: now}},
		CreatedAt: now,
		UpdatedAt: now,
	})
	return &doc.Leads[len(doc.Leads)-1], nil
}

// Update moves the first lead whose company contains match (ignoring case)
// to newStage, recording the transition and an optional note.
func (t *Tracker) Update(match, newStage, note string) (*StageUpdate, error) {
	doc, err := t.Load()
	if err != nil {
		return nil, err
	}

	lead := findSubstring(doc, match)
	if lead == nil {
		return nil, fmt.Errorf("%w: %s", ErrLeadNotFound, match)
	}

	stage, ok := models.ParseStage(newStage)
	if !ok {
		return nil, fmt.Errorf("%w: %s (valid: %s)", ErrInvalidStage, newStage, strings.Join(models.StageNames(), ", "))
	}

	now := t.now()
	from := lead.Stage
	lead.Stage = stage
	lead.UpdatedAt = now
	lead.History = append(lead.History, models.StageChange{Stage: stage, Date: now, From: from})

	note = strings.TrimSpace(note)
	if note != "" {
		lead.Notes = append(lead.Notes, models.LeadNote{Text: note, Date: now})
	}

	if err := t.save(doc); err != nil {
		return nil, err
	}

	updated := *lead
	return &StageUpdate{Lead: &updated, From: from, To: stage, Note: note}, nil
}

// AddNote appends a note to the first lead matching match without changing its stage.
func (t *Tracker) AddNote(match, text string) (*models.Lead, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("note text is required")
	}

	doc, err := t.Load()
	if err != nil {
		return nil, err
	}

	lead := findSubstring(doc, match)
	if lead == nil {
		return nil, fmt.Errorf("%w: %s", ErrLeadNotFound, match)
	}

	now := t.now()
	lead.Notes = append(lead.Notes, models.LeadNote{Text: text, Date: now})
	lead.UpdatedAt = now

	if err := t.save(doc); err != nil {
		return nil, err
	}

	updated := *lead
	return &updated, nil
}

// Find returns a copy of the first lead whose company contains match.
func (t *Tracker) Find(match string) (*models.Lead, error) {
	doc, err := t.Load()
	if err != nil {
		return nil, err
	}

	lead := findSubstring(doc, match)
	if lead == nil {
		return nil, fmt.Errorf("%w: %s", ErrLeadNotFound, match)
	}

	found := *lead
	return &found, nil
}

// findExact is the dedup lookup: whole company name, ignoring case.
func findExact(doc *models.PipelineDocument, company string) *models.Lead {
	for i := range doc.Leads {
		if strings.EqualFold(doc.Leads[i].Company, company) {
			return &doc.Leads[i]
		}
	}
	return nil
}

// findSubstring returns the first lead in collection order whose company
// contains match, ignoring case. Ambiguous matches are not reported.
func findSubstring(doc *models.PipelineDocument, match string) *models.Lead {
	needle := strings.ToLower(strings.TrimSpace(match))
	if needle == "" {
		return nil
	}
	for i := range doc.Leads {
		if strings.Contains(strings.ToLower(doc.Leads[i].Company), needle) {
			return &doc.Leads[i]
		}
	}
	return nil
}

func daysSince(now, then time.Time) int {
	if then.IsZero() || now.Before(then) {
		return 0
	}
	return int(now.Sub(then).Hours() / 24)
}

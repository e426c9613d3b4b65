// ABOUTME: Outreach campaign send loop with pacing, a per-run cap, and durable logging
// ABOUTME: Skips prospects already logged as sent so re-runs never double-send
package outreach

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/harperreed/prospect/config"
	"github.com/harperreed/prospect/db"
	"github.com/harperreed/prospect/models"
)

type Message struct {
	To      string
	Subject string
	Body    string
}

type SendResult struct {
	MessageID string
}

// Transport delivers one message. Implementations live in the mail package.
type Transport interface {
	Send(ctx context.Context, msg Message) (SendResult, error)
}

// Sleeper pauses between sends. It returns early with ctx.Err() on cancellation.
type Sleeper func(ctx context.Context, d time.Duration) error

// ContextSleep waits for d or until ctx is done.
func ContextSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

type Campaign struct {
	Prospects []models.Prospect
	Subject   string
	Body      string
	DryRun    bool
}

type RunResult struct {
	RunID     string                 `json:"run_id"`
	Total     int                    `json:"total"`
	Skipped   int                    `json:"skipped"`
	Sent      int                    `json:"sent"`
	Bounced   int                    `json:"bounced"`
	Previewed int                    `json:"previewed"`
	Remaining int                    `json:"remaining"`
	CapHit    bool                   `json:"cap_hit"`
	Invalid   []InvalidProspect      `json:"invalid,omitempty"`
	Entries   []models.OutreachEntry `json:"entries"`
}

// Attempts counts prospects that were handed to the transport or previewed.
func (r *RunResult) Attempts() int {
	return r.Sent + r.Bounced + r.Previewed
}

// Engine drives one campaign at a time. It is not safe for concurrent use.
type Engine struct {
	log       db.Store
	transport Transport
	cfg       config.OutreachConfig
	logger    *zap.Logger
	sleep     Sleeper
	now       func() time.Time
	out       io.Writer
}

type EngineOption func(*Engine)

func WithSleeper(s Sleeper) EngineOption {
	return func(e *Engine) {
		e.sleep = s
	}
}

func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
	}
}

// WithOutput sets where progress and dry-run previews are printed.
func WithOutput(w io.Writer) EngineOption {
	return func(e *Engine) {
		e.out = w
	}
}

// NewEngine builds an engine. transport may be nil for dry runs.
func NewEngine(logStore db.Store, transport Transport, cfg config.OutreachConfig, logger *zap.Logger, opts ...EngineOption) *Engine {
	def := config.DefaultOutreachConfig()
	if cfg.MaxSendsPerRun <= 0 {
		cfg.MaxSendsPerRun = def.MaxSendsPerRun
	}
	if cfg.PreviewChars <= 0 {
		cfg.PreviewChars = def.PreviewChars
	}
	if cfg.DefaultSubject == "" {
		cfg.DefaultSubject = def.DefaultSubject
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	e := &Engine{
		log:       logStore,
		transport: transport,
		cfg:       cfg,
		logger:    logger,
		sleep:     ContextSleep,
		now:       time.Now,
		out:       io.Discard,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// LoadLog returns the outreach log, empty when none has been saved.
func LoadLog(store db.Store) (*models.OutreachLog, error) {
	log := &models.OutreachLog{}
	if _, err := store.Load(log); err != nil {
		return nil, fmt.Errorf("failed to load outreach log: %w", err)
	}
	if log.Sent == nil {
		log.Sent = []models.OutreachEntry{}
	}
	if log.Bounced == nil {
		log.Bounced = []models.OutreachEntry{}
	}
	if log.Replied == nil {
		log.Replied = []models.OutreachEntry{}
	}
	return log, nil
}

func (e *Engine) newRunID() string {
	now := e.now()
	entropy := ulid.Monotonic(rand.New(rand.NewSource(now.UnixNano())), 0)
	return ulid.MustNew(ulid.Timestamp(now), entropy).String()
}

// Run sends the campaign. Each sent or bounced entry is persisted before the
// next prospect is touched, so an interrupted run can simply be restarted.
// Per-prospect failures never abort the run; configuration problems abort
// it before anything is sent.
func (e *Engine) Run(ctx context.Context, c Campaign) (*RunResult, error) {
	if !c.DryRun && e.transport == nil {
		return nil, NewConfigError("start campaign", ErrMissingCredentials)
	}

	subject := c.Subject
	if subject == "" {
		subject = e.cfg.DefaultSubject
	}

	log, err := LoadLog(e.log)
	if err != nil {
		return nil, err
	}
	sent := log.SentSet()

	result := &RunResult{RunID: e.newRunID(), Total: len(c.Prospects), Entries: []models.OutreachEntry{}}

	// Decide up front who is eligible so pacing knows which send is last.
	// Duplicates inside one input list only go out once.
	var pending []models.Prospect
	queued := make(map[string]bool)
	for _, p := range c.Prospects {
		email := p.NormalizedEmail()
		if email == "" {
			result.Invalid = append(result.Invalid, InvalidProspect{Prospect: p, Reason: ReasonNoEmail})
			continue
		}
		if sent[email] || queued[email] {
			result.Skipped++
			continue
		}
		queued[email] = true
		pending = append(pending, p)
	}

	mode := "LIVE"
	if c.DryRun {
		mode = "DRY RUN (no emails sent)"
	}
	fmt.Fprintf(e.out, "\nCold outreach campaign %s\n", result.RunID)
	fmt.Fprintf(e.out, "  Total prospects: %d\n", result.Total)
	fmt.Fprintf(e.out, "  Already sent:    %d\n", result.Skipped)
	fmt.Fprintf(e.out, "  To send:         %d\n", len(pending))
	fmt.Fprintf(e.out, "  Delay:           %s between emails\n", e.cfg.SendDelay)
	fmt.Fprintf(e.out, "  Mode:            %s\n", mode)

	e.logger.Info("campaign started",
		zap.String("run_id", result.RunID),
		zap.Int("total", result.Total),
		zap.Int("pending", len(pending)),
		zap.Bool("dry_run", c.DryRun))

	for i, p := range pending {
		if err := ctx.Err(); err != nil {
			result.Remaining = len(pending) - i
			return result, err
		}

		entry := models.OutreachEntry{
			Email:   strings.TrimSpace(p.Email),
			Name:    p.Name,
			Company: p.Company,
			Subject: Personalize(subject, p),
			RunID:   result.RunID,
		}
		body := Personalize(c.Body, p)

		fmt.Fprintf(e.out, "\n→ %s\n  Subject: %s\n", entry.Email, entry.Subject)

		if c.DryRun {
			entry.Outcome = models.OutcomeDryRun
			entry.Timestamp = e.now()
			result.Previewed++
			fmt.Fprintf(e.out, "  [DRY RUN - not sent]\n  Preview:\n%s\n", preview(body, e.cfg.PreviewChars))
		} else {
			e.deliver(ctx, log, &entry, body, result)
			if err := e.log.Save(log); err != nil {
				return result, fmt.Errorf("failed to save outreach log: %w", err)
			}
		}
		result.Entries = append(result.Entries, entry)

		if result.Attempts() >= e.cfg.MaxSendsPerRun {
			result.Remaining = len(pending) - i - 1
			result.CapHit = result.Remaining > 0
			if result.CapHit {
				fmt.Fprintf(e.out, "\n⚠ Reached per-run limit (%d). Stopping.\n", e.cfg.MaxSendsPerRun)
				e.logger.Warn("send cap reached",
					zap.String("run_id", result.RunID),
					zap.Int("cap", e.cfg.MaxSendsPerRun),
					zap.Int("remaining", result.Remaining))
			}
			break
		}

		if !c.DryRun && i < len(pending)-1 && e.cfg.SendDelay > 0 {
			fmt.Fprintf(e.out, "  Waiting %s...\n", e.cfg.SendDelay)
			if err := e.sleep(ctx, e.cfg.SendDelay); err != nil {
				result.Remaining = len(pending) - i - 1
				return result, err
			}
		}
	}

	e.logger.Info("campaign finished",
		zap.String("run_id", result.RunID),
		zap.Int("sent", result.Sent),
		zap.Int("bounced", result.Bounced),
		zap.Int("previewed", result.Previewed),
		zap.Int("skipped", result.Skipped),
		zap.Int("remaining", result.Remaining))

	return result, nil
}

// deliver hands one message to the transport and appends the outcome to log.
func (e *Engine) deliver(ctx context.Context, log *models.OutreachLog, entry *models.OutreachEntry, body string, result *RunResult) {
	res, err := e.transport.Send(ctx, Message{To: entry.Email, Subject: entry.Subject, Body: body})
	entry.Timestamp = e.now()

	if err != nil {
		terr := &TransportError{Email: entry.Email, Err: err}
		entry.Outcome = models.OutcomeBounced
		entry.Error = err.Error()
		log.Bounced = append(log.Bounced, *entry)
		result.Bounced++
		fmt.Fprintf(e.out, "  ✗ Failed: %v\n", err)
		e.logger.Warn("send failed", zap.String("run_id", entry.RunID), zap.Error(terr))
		return
	}

	entry.Outcome = models.OutcomeSent
	entry.MessageID = res.MessageID
	log.Sent = append(log.Sent, *entry)
	result.Sent++
	fmt.Fprintf(e.out, "  ✓ Sent (%s)\n", res.MessageID)
	e.logger.Info("sent",
		zap.String("run_id", entry.RunID),
		zap.String("email", entry.Email),
		zap.String("message_id", res.MessageID))
}

func preview(body string, n int) string {
	runes := []rune(body)
	if len(runes) <= n {
		return body
	}
	return string(runes[:n]) + "..."
}

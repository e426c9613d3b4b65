// ABOUTME: Email deliverability checks using MX lookups with a persistent cache
// ABOUTME: Partitions prospects into valid and invalid with a reason per address
package outreach

import (
	"context"
	"errors"
	"fmt"
	"net"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/idna"

	"github.com/harperreed/prospect/config"
	"github.com/harperreed/prospect/db"
	"github.com/harperreed/prospect/models"
)

// Reasons recorded for invalid addresses.
const (
	ReasonNoEmail       = "No email"
	ReasonInvalidFormat = "Invalid format"
	ReasonLikelyTypo    = "Likely typo in domain"
	ReasonNoMX          = "No MX records"
	ReasonDomainMissing = "Domain not found"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Resolver looks up mail exchangers. *net.Resolver satisfies it.
type Resolver interface {
	LookupMX(ctx context.Context, name string) ([]*net.MX, error)
}

type InvalidProspect struct {
	models.Prospect
	Reason string `json:"reason"`
}

type Report struct {
	Valid   []models.Prospect `json:"valid"`
	Invalid []InvalidProspect `json:"invalid"`
	Cached  int               `json:"cached"`
}

// Validator checks addresses and remembers every verdict in cache.
// Cached verdicts never expire.
type Validator struct {
	resolver Resolver
	cache    db.Store
	cfg      config.OutreachConfig
	logger   *zap.Logger
	sleep    Sleeper
	now      func() time.Time

	entries models.ValidationCache
	loaded  bool
	dirty   bool
}

type ValidatorOption func(*Validator)

// WithValidatorSleeper replaces the pause between DNS lookups.
func WithValidatorSleeper(s Sleeper) ValidatorOption {
	return func(v *Validator) {
		v.sleep = s
	}
}

func NewValidator(resolver Resolver, cache db.Store, cfg config.OutreachConfig, logger *zap.Logger, opts ...ValidatorOption) *Validator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.TypoPatterns == nil {
		cfg.TypoPatterns = config.DefaultOutreachConfig().TypoPatterns
	}

	v := &Validator{
		resolver: resolver,
		cache:    cache,
		cfg:      cfg,
		logger:   logger,
		sleep:    ContextSleep,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

func (v *Validator) loadCache() error {
	if v.loaded {
		return nil
	}
	entries := models.ValidationCache{}
	if _, err := v.cache.Load(&entries); err != nil {
		return fmt.Errorf("failed to load validation cache: %w", err)
	}
	v.entries = entries
	v.loaded = true
	return nil
}

// Flush writes the cache if anything changed since the last flush.
func (v *Validator) Flush() error {
	if !v.dirty {
		return nil
	}
	if err := v.cache.Save(v.entries); err != nil {
		return fmt.Errorf("failed to save validation cache: %w", err)
	}
	v.dirty = false
	return nil
}

// Validate checks a single address. cached is true when no DNS query was made.
// The cache is updated in memory; call Flush to persist it.
func (v *Validator) Validate(ctx context.Context, email string) (result models.ValidationResult, cached bool, err error) {
	if err := v.loadCache(); err != nil {
		return models.ValidationResult{}, false, err
	}

	email = models.NormalizeEmail(email)
	if email == "" {
		return models.ValidationResult{Valid: false, Reason: ReasonNoEmail}, false, nil
	}

	if hit, ok := v.entries[email]; ok {
		return hit, true, nil
	}

	result = v.check(ctx, email)
	if ctx.Err() != nil {
		// an interrupted lookup says nothing about the address
		return result, false, ctx.Err()
	}

	v.entries[email] = result
	v.dirty = true
	return result, false, nil
}

func (v *Validator) check(ctx context.Context, email string) models.ValidationResult {
	res := models.ValidationResult{CheckedAt: v.now()}

	if !emailPattern.MatchString(email) {
		res.Reason = ReasonInvalidFormat
		return res
	}

	domain := email[strings.LastIndex(email, "@")+1:]
	for _, typo := range v.cfg.TypoPatterns {
		if typo != "" && strings.Contains(domain, typo) {
			res.Reason = ReasonLikelyTypo
			return res
		}
	}

	asciiDomain, err := idna.Lookup.ToASCII(domain)
	if err != nil {
		res.Reason = ReasonInvalidFormat
		return res
	}

	records, err := v.resolver.LookupMX(ctx, asciiDomain)
	if err != nil {
		res.Reason = classifyDNSError(err)
		v.logger.Debug("mx lookup failed", zap.String("domain", asciiDomain), zap.Error(err))
		return res
	}
	if len(records) == 0 {
		res.Reason = ReasonNoMX
		return res
	}

	res.Valid = true
	res.MX = strings.TrimSuffix(records[0].Host, ".")
	return res
}

func classifyDNSError(err error) string {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		if dnsErr.IsNotFound {
			return ReasonDomainMissing
		}
		return "DNS error: " + dnsErr.Err
	}
	return "DNS error: " + err.Error()
}

// ValidateAll validates every prospect in order and saves the cache once at
// the end, including when ctx is cancelled part way through.
func (v *Validator) ValidateAll(ctx context.Context, prospects []models.Prospect, progress func(models.Prospect, models.ValidationResult)) (*Report, error) {
	report := &Report{Valid: []models.Prospect{}, Invalid: []InvalidProspect{}}

	var runErr error
	for i, p := range prospects {
		result, cached, err := v.Validate(ctx, p.Email)
		if err != nil {
			runErr = err
			break
		}
		if cached {
			report.Cached++
		}

		if result.Valid {
			report.Valid = append(report.Valid, p)
		} else {
			report.Invalid = append(report.Invalid, InvalidProspect{Prospect: p, Reason: result.Reason})
		}
		if progress != nil {
			progress(p, result)
		}

		if !cached && result.Reason != ReasonNoEmail && i < len(prospects)-1 && v.cfg.ValidationPause > 0 {
			if err := v.sleep(ctx, v.cfg.ValidationPause); err != nil {
				runErr = err
				break
			}
		}
	}

	if err := v.Flush(); err != nil {
		return report, err
	}

	v.logger.Info("validation finished",
		zap.Int("valid", len(report.Valid)),
		zap.Int("invalid", len(report.Invalid)),
		zap.Int("cached", report.Cached))

	return report, runErr
}

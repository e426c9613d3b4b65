// ABOUTME: Tests for email validation and the validation cache
// ABOUTME: Uses a fake resolver so no DNS traffic leaves the test
package outreach

import (
	"context"
	"errors"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/harperreed/prospect/config"
	"github.com/harperreed/prospect/db"
	"github.com/harperreed/prospect/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResolver struct {
	records map[string][]*net.MX
	errs    map[string]error
	calls   map[string]int
}

func newFakeResolver() *fakeResolver {
	return &fakeResolver{
		records: map[string][]*net.MX{},
		errs:    map[string]error{},
		calls:   map[string]int{},
	}
}

func (r *fakeResolver) LookupMX(_ context.Context, name string) ([]*net.MX, error) {
	r.calls[name]++
	if err, ok := r.errs[name]; ok {
		return nil, err
	}
	return r.records[name], nil
}

func (r *fakeResolver) total() int {
	n := 0
	for _, c := range r.calls {
		n += c
	}
	return n
}

type recordingSleeper struct {
	waits []time.Duration
}

func (s *recordingSleeper) Sleep(_ context.Context, d time.Duration) error {
	s.waits = append(s.waits, d)
	return nil
}

func setupValidator(t *testing.T, resolver Resolver) (*Validator, db.Store, *recordingSleeper) {
	t.Helper()
	store := db.NewFileStore(filepath.Join(t.TempDir(), "email-validation-cache.json"))
	sleeper := &recordingSleeper{}
	v := NewValidator(resolver, store, config.DefaultOutreachConfig(), nil, WithValidatorSleeper(sleeper.Sleep))
	return v, store, sleeper
}

func TestValidateValidAddress(t *testing.T) {
	resolver := newFakeResolver()
	resolver.records["acme.com"] = []*net.MX{{Host: "mx1.acme.com.", Pref: 10}}
	v, _, _ := setupValidator(t, resolver)

	res, cached, err := v.Validate(context.Background(), " Jane@Acme.com ")
	require.NoError(t, err)
	assert.False(t, cached)
	assert.True(t, res.Valid)
	assert.Equal(t, "mx1.acme.com", res.MX)
	assert.Empty(t, res.Reason)
}

func TestValidateReasons(t *testing.T) {
	resolver := newFakeResolver()
	resolver.records["empty.com"] = nil
	resolver.errs["gone.com"] = &net.DNSError{Err: "no such host", Name: "gone.com", IsNotFound: true}
	resolver.errs["flaky.com"] = &net.DNSError{Err: "server misbehaving", Name: "flaky.com"}
	resolver.errs["weird.com"] = errors.New("boom")
	v, _, _ := setupValidator(t, resolver)

	tests := []struct {
		email  string
		reason string
	}{
		{"", ReasonNoEmail},
		{"not-an-email", ReasonInvalidFormat},
		{"a b@acme.com", ReasonInvalidFormat},
		{"jane@acme", ReasonInvalidFormat},
		{"jane@gmial.com", ReasonLikelyTypo},
		{"jane@empty.com", ReasonNoMX},
		{"jane@gone.com", ReasonDomainMissing},
		{"jane@flaky.com", "DNS error: server misbehaving"},
		{"jane@weird.com", "DNS error: boom"},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			res, _, err := v.Validate(context.Background(), tt.email)
			require.NoError(t, err)
			assert.False(t, res.Valid)
			assert.Equal(t, tt.reason, res.Reason)
		})
	}

	assert.Zero(t, resolver.calls["gmial.com"], "typo domains never reach DNS")
}

func TestValidateCachesNegativeResults(t *testing.T) {
	resolver := newFakeResolver()
	resolver.records["nomx.com"] = nil
	v, store, _ := setupValidator(t, resolver)

	prospects := []models.Prospect{{Name: "A", Email: "a@nomx.com"}}

	first, err := v.ValidateAll(context.Background(), prospects, nil)
	require.NoError(t, err)
	require.Len(t, first.Invalid, 1)
	assert.Equal(t, ReasonNoMX, first.Invalid[0].Reason)
	assert.Zero(t, first.Cached)

	// a fresh validator reads the persisted cache
	again := NewValidator(resolver, store, config.DefaultOutreachConfig(), nil)
	second, err := again.ValidateAll(context.Background(), prospects, nil)
	require.NoError(t, err)
	require.Len(t, second.Invalid, 1)
	assert.Equal(t, ReasonNoMX, second.Invalid[0].Reason)
	assert.Equal(t, 1, second.Cached)

	assert.Equal(t, 1, resolver.calls["nomx.com"])
}

func TestValidateAllPartitionsAndPaces(t *testing.T) {
	resolver := newFakeResolver()
	resolver.records["acme.com"] = []*net.MX{{Host: "mx.acme.com."}}
	resolver.records["nomx.com"] = nil
	v, _, sleeper := setupValidator(t, resolver)

	prospects := []models.Prospect{
		{Name: "Jane", Email: "jane@acme.com"},
		{Name: "Bob", Email: ""},
		{Name: "Sue", Email: "sue@nomx.com"},
		{Name: "Jane again", Email: "JANE@acme.com"},
	}

	var seen []string
	report, err := v.ValidateAll(context.Background(), prospects, func(p models.Prospect, _ models.ValidationResult) {
		seen = append(seen, p.Name)
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"Jane", "Bob", "Sue", "Jane again"}, seen)
	require.Len(t, report.Valid, 2)
	require.Len(t, report.Invalid, 2)
	assert.Equal(t, ReasonNoEmail, report.Invalid[0].Reason)
	assert.Equal(t, ReasonNoMX, report.Invalid[1].Reason)
	assert.Equal(t, 1, report.Cached)
	assert.Equal(t, 2, resolver.total())

	// pauses only follow uncached lookups that are not last
	assert.Len(t, sleeper.waits, 2)
}

func TestValidateAllStopsOnCancel(t *testing.T) {
	resolver := newFakeResolver()
	resolver.records["acme.com"] = []*net.MX{{Host: "mx.acme.com."}}
	store := db.NewFileStore(filepath.Join(t.TempDir(), "cache.json"))

	ctx, cancel := context.WithCancel(context.Background())
	sleeper := func(context.Context, time.Duration) error {
		cancel()
		return context.Canceled
	}
	v := NewValidator(resolver, store, config.DefaultOutreachConfig(), nil, WithValidatorSleeper(sleeper))

	prospects := []models.Prospect{{Email: "a@acme.com"}, {Email: "b@acme.com"}}
	report, err := v.ValidateAll(ctx, prospects, nil)

	require.ErrorIs(t, err, context.Canceled)
	assert.Len(t, report.Valid, 1)

	// the first verdict was flushed before returning
	cache := models.ValidationCache{}
	found, err := store.Load(&cache)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Contains(t, cache, "a@acme.com")
}

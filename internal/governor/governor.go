// Package governor enforces the per-action daily quotas and the active-hour
// schedule. Every automated action is gated through TryConsume before it
// runs and committed through Commit after it succeeds; the counter mutation
// itself happens atomically inside the store so a concurrent daily reset can
// never lose an update.
package governor

import (
	"context"
	"time"

	"git.home.luguber.info/inful/socialpilot/internal/action"
	"git.home.luguber.info/inful/socialpilot/internal/config"
	"git.home.luguber.info/inful/socialpilot/internal/store"
)

// Decision is the outcome of a quota check.
type Decision struct {
	Allowed   bool
	Remaining int
	Reason    string
}

// Governor gates actions against daily limits and the schedule window.
type Governor struct {
	store store.Store
	now   func() time.Time
}

// Option customizes a Governor.
type Option func(*Governor)

// WithClock injects a deterministic clock for tests.
func WithClock(now func() time.Time) Option {
	return func(g *Governor) { g.now = now }
}

// New creates a Governor over the given store.
func New(st store.Store, opts ...Option) *Governor {
	g := &Governor{store: st, now: time.Now}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// TryConsume checks whether one more action of the given kind may run now.
// It consults the configured daily limit, the feature flag, and the
// active-hours window. It does not reserve anything; callers invoke Commit
// after the action succeeds.
func (g *Governor) TryConsume(ctx context.Context, accountID string, settings *config.Settings, kind action.Kind) (Decision, error) {
	return g.tryConsume(ctx, accountID, settings, kind, settings.Limits.Get(kind))
}

// TryConsumeLimit is TryConsume with a scoped limit override. Ad-hoc tasks
// use it to run with a custom budget without mutating shared settings.
func (g *Governor) TryConsumeLimit(ctx context.Context, accountID string, settings *config.Settings, kind action.Kind, limit int) (Decision, error) {
	return g.tryConsume(ctx, accountID, settings, kind, limit)
}

func (g *Governor) tryConsume(ctx context.Context, accountID string, settings *config.Settings, kind action.Kind, limit int) (Decision, error) {
	if !settings.EnabledFeatures.Enabled(kind) {
		return Decision{Reason: "feature disabled"}, nil
	}
	if !WithinActiveHours(settings.Schedule, g.now()) {
		return Decision{Reason: "outside active hours"}, nil
	}

	acct, err := g.store.ActiveAccount(ctx)
	if err != nil {
		return Decision{}, err
	}
	if acct.ID != accountID {
		// Single active account; a mismatch means the caller holds a stale ID.
		return Decision{Reason: "account not active"}, nil
	}

	used := acct.DailyStats.Get(kind)
	if used >= limit {
		return Decision{Reason: "daily limit reached"}, nil
	}
	return Decision{Allowed: true, Remaining: limit - used - 1}, nil
}

// Commit records one successful action of the given kind and returns the new
// daily count.
func (g *Governor) Commit(ctx context.Context, accountID string, kind action.Kind) (int, error) {
	return g.store.IncrementStat(ctx, accountID, kind)
}

// ResetDaily zeroes all counters for the account. Safe to call twice; the
// store serializes it against in-flight commits.
func (g *Governor) ResetDaily(ctx context.Context, accountID string) error {
	return g.store.ResetDailyStats(ctx, accountID)
}

// WithinActiveHours reports whether t falls inside the configured window.
// A per-weekday override takes precedence; an override with Active=false
// excludes the whole day. Without an override, weekends are excluded when
// ActiveOnWeekends is off, and the default start/end hours apply.
func WithinActiveHours(sch config.Schedule, t time.Time) bool {
	hour := t.Hour()
	day := t.Weekday()

	if ov, ok := sch.Days[weekdayName(day)]; ok {
		if !ov.Active {
			return false
		}
		return hour >= ov.StartHour && hour < ov.EndHour
	}

	weekend := day == time.Saturday || day == time.Sunday
	if weekend && !sch.ActiveOnWeekends {
		return false
	}
	return hour >= sch.StartHour && hour < sch.EndHour
}

func weekdayName(d time.Weekday) string {
	switch d {
	case time.Sunday:
		return "sunday"
	case time.Monday:
		return "monday"
	case time.Tuesday:
		return "tuesday"
	case time.Wednesday:
		return "wednesday"
	case time.Thursday:
		return "thursday"
	case time.Friday:
		return "friday"
	case time.Saturday:
		return "saturday"
	}
	return ""
}

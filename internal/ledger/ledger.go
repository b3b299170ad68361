// Package ledger is the append-only record of attempted actions. It backs
// two things: duplicate-action suppression (e.g. "don't message the same
// target twice inside the dedup window") and the stats the control API
// serves. Entries are history; nothing here ever updates or deletes a row.
package ledger

import (
	"context"
	"time"

	"git.home.luguber.info/inful/socialpilot/internal/action"
	"git.home.luguber.info/inful/socialpilot/internal/store"
)

// Entry describes one attempted action.
type Entry struct {
	AccountID      string
	TargetUserID   string
	TargetUsername string
	MediaID        string
	Kind           action.Kind
	Content        string
	Successful     bool
	ErrorMessage   string
}

// Ledger records attempts and answers dedup and aggregation queries.
type Ledger struct {
	store store.Store
	now   func() time.Time
}

// Option customizes a Ledger.
type Option func(*Ledger)

// WithClock injects a deterministic clock for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// New creates a Ledger over the given store.
func New(st store.Store, opts ...Option) *Ledger {
	l := &Ledger{store: st, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Record appends one entry. A store failure here is non-fatal to the run;
// the orchestrator logs it and continues.
func (l *Ledger) Record(ctx context.Context, e Entry) error {
	return l.store.RecordInteraction(ctx, &store.Interaction{
		AccountID:      e.AccountID,
		TargetUserID:   e.TargetUserID,
		TargetUsername: e.TargetUsername,
		MediaID:        e.MediaID,
		Kind:           e.Kind,
		Content:        e.Content,
		Successful:     e.Successful,
		ErrorMessage:   e.ErrorMessage,
		CreatedAt:      l.now(),
	})
}

// HasRecentSuccess reports whether a successful entry for (target, kind)
// exists within the given window ending now. Failed attempts never count.
func (l *Ledger) HasRecentSuccess(ctx context.Context, accountID, targetUserID string, kind action.Kind, window time.Duration) (bool, error) {
	return l.store.HasRecentSuccess(ctx, accountID, targetUserID, kind, l.now().Add(-window))
}

// AggregateByTarget returns per-target successful interaction counts, most
// engaged first. Read-only; used by discovery and the stats endpoint.
func (l *Ledger) AggregateByTarget(ctx context.Context, accountID string, limit int) ([]store.TargetAggregate, error) {
	return l.store.AggregateByTarget(ctx, accountID, limit)
}

// StatsByKind summarizes attempts per action kind within [start, end].
func (l *Ledger) StatsByKind(ctx context.Context, accountID string, start, end time.Time) ([]store.KindStat, error) {
	return l.store.StatsByKind(ctx, accountID, start, end)
}

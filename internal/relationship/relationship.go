// Package relationship owns the follow lifecycle state machine:
//
//	pending → following → unfollowed
//	pending → rejected
//
// Transitions are monotonic. An unfollowed target can only come back through
// a brand-new follow event (a new row); history rows are never resurrected
// or deleted.
package relationship

import (
	"context"
	"errors"
	"fmt"
	"time"

	"git.home.luguber.info/inful/socialpilot/internal/store"
)

var (
	// ErrActiveExists is returned when a follow is recorded for a target
	// that already has a pending or following relationship.
	ErrActiveExists = errors.New("active relationship already exists for target")

	// ErrInvalidTransition is returned when a transition is requested from
	// the wrong state.
	ErrInvalidTransition = errors.New("invalid relationship transition")
)

// FollowTarget describes the target of a new follow event.
type FollowTarget struct {
	UserID          string
	Username        string
	DiscoveryMethod string
	DiscoverySource string
	FollowerCount   int
	EngagementRate  float64

	// Pending marks a follow request to a private account that has not been
	// accepted yet.
	Pending bool
}

// Service applies lifecycle rules on top of the store.
type Service struct {
	store store.Store
	now   func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithClock injects a deterministic clock for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates a lifecycle service over the given store.
func New(st store.Store, opts ...Option) *Service {
	s := &Service{store: st, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RecordFollow creates a new relationship row for the target. It fails with
// ErrActiveExists when a pending or following row already exists, so there
// is never more than one live relationship per target.
func (s *Service) RecordFollow(ctx context.Context, accountID string, target FollowTarget) (*store.Relationship, error) {
	existing, err := s.store.ActiveRelationship(ctx, accountID, target.UserID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: %s is %s", ErrActiveExists, target.Username, existing.Status)
	}

	status := store.StatusFollowing
	if target.Pending {
		status = store.StatusPending
	}
	rel := &store.Relationship{
		AccountID:       accountID,
		TargetUserID:    target.UserID,
		TargetUsername:  target.Username,
		Status:          status,
		FollowedAt:      s.now(),
		DiscoveryMethod: target.DiscoveryMethod,
		DiscoverySource: target.DiscoverySource,
		FollowerCount:   target.FollowerCount,
		EngagementRate:  target.EngagementRate,
	}
	if rel.DiscoveryMethod == "" {
		rel.DiscoveryMethod = "hashtag"
	}
	if err := s.store.CreateRelationship(ctx, rel); err != nil {
		return nil, err
	}
	return rel, nil
}

// ConfirmFollow moves a pending request to following (the private account
// accepted).
func (s *Service) ConfirmFollow(ctx context.Context, rel *store.Relationship) error {
	if rel.Status != store.StatusPending {
		return fmt.Errorf("%w: confirm requires pending, got %s", ErrInvalidTransition, rel.Status)
	}
	if err := s.store.UpdateRelationshipStatus(ctx, rel.ID, store.StatusFollowing, s.now()); err != nil {
		return err
	}
	rel.Status = store.StatusFollowing
	return nil
}

// RecordRejection moves a pending request to rejected (the private account
// declined).
func (s *Service) RecordRejection(ctx context.Context, rel *store.Relationship) error {
	if rel.Status != store.StatusPending {
		return fmt.Errorf("%w: reject requires pending, got %s", ErrInvalidTransition, rel.Status)
	}
	if err := s.store.UpdateRelationshipStatus(ctx, rel.ID, store.StatusRejected, s.now()); err != nil {
		return err
	}
	rel.Status = store.StatusRejected
	return nil
}

// RecordUnfollow moves a following row to unfollowed and stamps the time.
func (s *Service) RecordUnfollow(ctx context.Context, rel *store.Relationship) error {
	if rel.Status != store.StatusFollowing {
		return fmt.Errorf("%w: unfollow requires following, got %s", ErrInvalidTransition, rel.Status)
	}
	at := s.now()
	if err := s.store.UpdateRelationshipStatus(ctx, rel.ID, store.StatusUnfollowed, at); err != nil {
		return err
	}
	rel.Status = store.StatusUnfollowed
	rel.UnfollowedAt = &at
	return nil
}

// MarkReciprocated flags a following row as followed back. Idempotent:
// marking twice keeps the original timestamp and returns nil.
func (s *Service) MarkReciprocated(ctx context.Context, rel *store.Relationship) error {
	if rel.Status != store.StatusFollowing {
		return fmt.Errorf("%w: reciprocate requires following, got %s", ErrInvalidTransition, rel.Status)
	}
	if rel.DidReciprocate {
		return nil
	}
	at := s.now()
	if err := s.store.MarkReciprocated(ctx, rel.ID, at); err != nil {
		return err
	}
	rel.DidReciprocate = true
	rel.ReciprocatedAt = &at
	return nil
}

// SelectUnfollowCandidates returns following, non-reciprocated relationships
// at least minAge old, oldest first, at most limit. Oldest-first is a
// deliberate tie-break: it bounds how long any account stays followed
// without reciprocating.
func (s *Service) SelectUnfollowCandidates(ctx context.Context, accountID string, minAge time.Duration, limit int) ([]*store.Relationship, error) {
	cutoff := s.now().Add(-minAge)
	return s.store.UnfollowCandidates(ctx, accountID, cutoff, limit)
}

// UncheckedFollowing returns pending and following rows with no reciprocity
// result yet, oldest first, for the periodic follow-back sweep.
func (s *Service) UncheckedFollowing(ctx context.Context, accountID string, limit int) ([]*store.Relationship, error) {
	return s.store.UncheckedFollowing(ctx, accountID, limit)
}

// FollowBackRate returns the share of current followings that followed back.
func (s *Service) FollowBackRate(ctx context.Context, accountID string) (float64, error) {
	return s.store.FollowBackRate(ctx, accountID)
}

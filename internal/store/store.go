// Package store persists the engine's durable state: the automated account
// with its daily counters, the follow/unfollow relationship history, and the
// append-only interaction ledger rows.
package store

import (
	"context"
	"time"

	"git.home.luguber.info/inful/socialpilot/internal/action"
)

// RelationshipStatus is the lifecycle state of a follow relationship.
type RelationshipStatus string

const (
	StatusPending    RelationshipStatus = "pending"
	StatusFollowing  RelationshipStatus = "following"
	StatusUnfollowed RelationshipStatus = "unfollowed"
	StatusRejected   RelationshipStatus = "rejected"
)

// Account is the automated account and its per-day usage counters.
type Account struct {
	ID         string
	Username   string
	IsActive   bool
	DailyStats action.Counters
	ErrorCount int
	LastError  string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Relationship records one follow lifecycle against one target. Rows are
// never deleted; an unfollowed target that is followed again gets a new row.
type Relationship struct {
	ID              string
	AccountID       string
	TargetUserID    string
	TargetUsername  string
	Status          RelationshipStatus
	FollowedAt      time.Time
	UnfollowedAt    *time.Time
	DidReciprocate  bool
	ReciprocatedAt  *time.Time
	DiscoveryMethod string
	DiscoverySource string
	FollowerCount   int
	EngagementRate  float64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Interaction is one append-only ledger row for an attempted action.
type Interaction struct {
	ID             string
	AccountID      string
	TargetUserID   string
	TargetUsername string
	MediaID        string
	Kind           action.Kind
	Content        string
	Successful     bool
	ErrorMessage   string
	CreatedAt      time.Time
}

// TargetAggregate summarizes ledger activity against one target.
type TargetAggregate struct {
	TargetUserID   string
	TargetUsername string
	Count          int
	LastSeen       time.Time
}

// KindStat summarizes ledger rows per action kind over a date range.
type KindStat struct {
	Kind       action.Kind
	Total      int
	Successful int
	Failed     int
}

// Store is the persistence contract the engine components run against.
type Store interface {
	// Accounts.
	EnsureAccount(ctx context.Context, username string) (*Account, error)
	ActiveAccount(ctx context.Context) (*Account, error)
	IncrementStat(ctx context.Context, accountID string, kind action.Kind) (int, error)
	ResetDailyStats(ctx context.Context, accountID string) error
	RecordAccountError(ctx context.Context, accountID, message string) error

	// Relationships.
	CreateRelationship(ctx context.Context, rel *Relationship) error
	ActiveRelationship(ctx context.Context, accountID, targetUserID string) (*Relationship, error)
	UpdateRelationshipStatus(ctx context.Context, id string, status RelationshipStatus, at time.Time) error
	MarkReciprocated(ctx context.Context, id string, at time.Time) error
	UnfollowCandidates(ctx context.Context, accountID string, followedBefore time.Time, limit int) ([]*Relationship, error)
	UncheckedFollowing(ctx context.Context, accountID string, limit int) ([]*Relationship, error)
	FollowBackRate(ctx context.Context, accountID string) (float64, error)

	// Interaction ledger.
	RecordInteraction(ctx context.Context, entry *Interaction) error
	HasRecentSuccess(ctx context.Context, accountID, targetUserID string, kind action.Kind, since time.Time) (bool, error)
	AggregateByTarget(ctx context.Context, accountID string, limit int) ([]TargetAggregate, error)
	StatsByKind(ctx context.Context, accountID string, start, end time.Time) ([]KindStat, error)

	Close() error
}

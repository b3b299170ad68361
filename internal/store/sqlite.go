package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"git.home.luguber.info/inful/socialpilot/internal/action"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex
}

// statColumns maps action kinds onto accounts table columns. The enum is
// closed, so this map is total.
var statColumns = map[action.Kind]string{
	action.Like:      "stat_likes",
	action.Comment:   "stat_comments",
	action.Follow:    "stat_follows",
	action.Unfollow:  "stat_unfollows",
	action.Message:   "stat_messages",
	action.StoryView: "stat_story_views",
}

// NewSQLiteStore creates a new SQLite-backed store.
// Use ":memory:" for an in-memory database, or a file path for persistence.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// The increment path relies on serialized writes.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS accounts (
		id TEXT PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		is_active INTEGER NOT NULL DEFAULT 1,
		stat_likes INTEGER NOT NULL DEFAULT 0,
		stat_comments INTEGER NOT NULL DEFAULT 0,
		stat_follows INTEGER NOT NULL DEFAULT 0,
		stat_unfollows INTEGER NOT NULL DEFAULT 0,
		stat_messages INTEGER NOT NULL DEFAULT 0,
		stat_story_views INTEGER NOT NULL DEFAULT 0,
		error_count INTEGER NOT NULL DEFAULT 0,
		last_error TEXT,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS relationships (
		id TEXT PRIMARY KEY,
		account_id TEXT NOT NULL REFERENCES accounts(id),
		target_user_id TEXT NOT NULL,
		target_username TEXT NOT NULL,
		status TEXT NOT NULL,
		followed_at INTEGER NOT NULL,
		unfollowed_at INTEGER,
		did_reciprocate INTEGER NOT NULL DEFAULT 0,
		reciprocated_at INTEGER,
		discovery_method TEXT NOT NULL DEFAULT 'hashtag',
		discovery_source TEXT,
		follower_count INTEGER NOT NULL DEFAULT 0,
		engagement_rate REAL NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_rel_account_status ON relationships(account_id, status, followed_at);
	CREATE INDEX IF NOT EXISTS idx_rel_target ON relationships(account_id, target_user_id);
	CREATE TABLE IF NOT EXISTS interactions (
		id TEXT PRIMARY KEY,
		account_id TEXT NOT NULL REFERENCES accounts(id),
		target_user_id TEXT NOT NULL,
		target_username TEXT NOT NULL,
		media_id TEXT,
		kind TEXT NOT NULL,
		content TEXT,
		successful INTEGER NOT NULL DEFAULT 1,
		error_message TEXT,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_int_dedup ON interactions(account_id, target_user_id, kind, created_at);
	CREATE INDEX IF NOT EXISTS idx_int_created ON interactions(account_id, created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// EnsureAccount returns the account for username, creating it on first use.
func (s *SQLiteStore) EnsureAccount(ctx context.Context, username string) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().Unix()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO accounts (id, username, is_active, created_at, updated_at)
		 VALUES (?, ?, 1, ?, ?)
		 ON CONFLICT(username) DO NOTHING`,
		uuid.NewString(), username, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("ensure account: %w", err)
	}
	return s.accountWhere(ctx, "username = ?", username)
}

// ActiveAccount returns the single active account.
func (s *SQLiteStore) ActiveAccount(ctx context.Context) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accountWhere(ctx, "is_active = 1")
}

func (s *SQLiteStore) accountWhere(ctx context.Context, where string, args ...any) (*Account, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, username, is_active,
		        stat_likes, stat_comments, stat_follows, stat_unfollows, stat_messages, stat_story_views,
		        error_count, COALESCE(last_error, ''), created_at, updated_at
		 FROM accounts WHERE `+where+` LIMIT 1`, args...)

	var a Account
	var active int
	var created, updated int64
	err := row.Scan(&a.ID, &a.Username, &active,
		&a.DailyStats.Likes, &a.DailyStats.Comments, &a.DailyStats.Follows,
		&a.DailyStats.Unfollows, &a.DailyStats.Messages, &a.DailyStats.StoryViews,
		&a.ErrorCount, &a.LastError, &created, &updated)
	if err != nil {
		return nil, fmt.Errorf("load account: %w", err)
	}
	a.IsActive = active != 0
	a.CreatedAt = time.Unix(created, 0)
	a.UpdatedAt = time.Unix(updated, 0)
	return &a, nil
}

// IncrementStat atomically bumps one daily counter and returns the new value.
// The increment happens inside the database, never read-modify-write in Go,
// so a concurrent ResetDailyStats cannot lose an update.
func (s *SQLiteStore) IncrementStat(ctx context.Context, accountID string, kind action.Kind) (int, error) {
	col, ok := statColumns[kind]
	if !ok {
		return 0, fmt.Errorf("unknown action kind: %s", kind)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE accounts SET %s = %s + 1, updated_at = ? WHERE id = ?`, col, col),
		time.Now().Unix(), accountID)
	if err != nil {
		return 0, fmt.Errorf("increment %s: %w", kind, err)
	}

	var n int
	err = s.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT %s FROM accounts WHERE id = ?`, col), accountID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", kind, err)
	}
	return n, nil
}

// ResetDailyStats zeroes all daily counters. Idempotent.
func (s *SQLiteStore) ResetDailyStats(ctx context.Context, accountID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`UPDATE accounts SET stat_likes = 0, stat_comments = 0, stat_follows = 0,
		        stat_unfollows = 0, stat_messages = 0, stat_story_views = 0, updated_at = ?
		 WHERE id = ?`,
		time.Now().Unix(), accountID)
	if err != nil {
		return fmt.Errorf("reset daily stats: %w", err)
	}
	return nil
}

// RecordAccountError bumps the error counter and stores the latest message.
func (s *SQLiteStore) RecordAccountError(ctx context.Context, accountID, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`UPDATE accounts SET error_count = error_count + 1, last_error = ?, updated_at = ? WHERE id = ?`,
		message, time.Now().Unix(), accountID)
	if err != nil {
		return fmt.Errorf("record account error: %w", err)
	}
	return nil
}

// CreateRelationship inserts a new lifecycle row. IDs and timestamps are
// filled in when absent.
func (s *SQLiteStore) CreateRelationship(ctx context.Context, rel *Relationship) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rel.ID == "" {
		rel.ID = uuid.NewString()
	}
	now := time.Now()
	if rel.FollowedAt.IsZero() {
		rel.FollowedAt = now
	}
	if rel.CreatedAt.IsZero() {
		rel.CreatedAt = now
	}
	rel.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO relationships
		 (id, account_id, target_user_id, target_username, status, followed_at,
		  did_reciprocate, discovery_method, discovery_source, follower_count,
		  engagement_rate, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, 0, ?, ?, ?, ?, ?, ?)`,
		rel.ID, rel.AccountID, rel.TargetUserID, rel.TargetUsername, string(rel.Status),
		rel.FollowedAt.Unix(), rel.DiscoveryMethod, rel.DiscoverySource,
		rel.FollowerCount, rel.EngagementRate, rel.CreatedAt.Unix(), rel.UpdatedAt.Unix())
	if err != nil {
		return fmt.Errorf("create relationship: %w", err)
	}
	return nil
}

// ActiveRelationship returns the pending or following row for a target, or
// nil when the target has no live relationship.
func (s *SQLiteStore) ActiveRelationship(ctx context.Context, accountID, targetUserID string) (*Relationship, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx,
		relSelect+` WHERE account_id = ? AND target_user_id = ? AND status IN ('pending', 'following')
		 ORDER BY followed_at DESC LIMIT 1`,
		accountID, targetUserID)
	if err != nil {
		return nil, fmt.Errorf("query active relationship: %w", err)
	}
	defer rows.Close()

	rels, err := scanRelationships(rows)
	if err != nil {
		return nil, err
	}
	if len(rels) == 0 {
		return nil, nil
	}
	return rels[0], nil
}

// UpdateRelationshipStatus moves a row to a new status. Unfollowed rows get
// their unfollowed_at stamped.
func (s *SQLiteStore) UpdateRelationshipStatus(ctx context.Context, id string, status RelationshipStatus, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	if status == StatusUnfollowed {
		_, err = s.db.ExecContext(ctx,
			`UPDATE relationships SET status = ?, unfollowed_at = ?, updated_at = ? WHERE id = ?`,
			string(status), at.Unix(), at.Unix(), id)
	} else {
		_, err = s.db.ExecContext(ctx,
			`UPDATE relationships SET status = ?, updated_at = ? WHERE id = ?`,
			string(status), at.Unix(), id)
	}
	if err != nil {
		return fmt.Errorf("update relationship status: %w", err)
	}
	return nil
}

// MarkReciprocated flags a row as followed back. Re-marking keeps the first
// timestamp.
func (s *SQLiteStore) MarkReciprocated(ctx context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`UPDATE relationships SET did_reciprocate = 1,
		        reciprocated_at = COALESCE(reciprocated_at, ?), updated_at = ?
		 WHERE id = ?`,
		at.Unix(), at.Unix(), id)
	if err != nil {
		return fmt.Errorf("mark reciprocated: %w", err)
	}
	return nil
}

// UnfollowCandidates lists following, non-reciprocated rows followed before
// the cutoff, oldest first.
func (s *SQLiteStore) UnfollowCandidates(ctx context.Context, accountID string, followedBefore time.Time, limit int) ([]*Relationship, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx,
		relSelect+` WHERE account_id = ? AND status = 'following' AND did_reciprocate = 0 AND followed_at <= ?
		 ORDER BY followed_at ASC LIMIT ?`,
		accountID, followedBefore.Unix(), limit)
	if err != nil {
		return nil, fmt.Errorf("query unfollow candidates: %w", err)
	}
	defer rows.Close()
	return scanRelationships(rows)
}

// UncheckedFollowing lists pending and following rows that have not
// reciprocated yet, oldest first, for the reciprocity sweep.
func (s *SQLiteStore) UncheckedFollowing(ctx context.Context, accountID string, limit int) ([]*Relationship, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx,
		relSelect+` WHERE account_id = ? AND status IN ('pending', 'following') AND did_reciprocate = 0
		 ORDER BY followed_at ASC LIMIT ?`,
		accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("query unchecked following: %w", err)
	}
	defer rows.Close()
	return scanRelationships(rows)
}

// FollowBackRate returns the share of current followings that reciprocated.
func (s *SQLiteStore) FollowBackRate(ctx context.Context, accountID string) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var total, back int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(did_reciprocate), 0)
		 FROM relationships WHERE account_id = ? AND status = 'following'`,
		accountID).Scan(&total, &back)
	if err != nil {
		return 0, fmt.Errorf("query follow back rate: %w", err)
	}
	if total == 0 {
		return 0, nil
	}
	return float64(back) / float64(total), nil
}

const relSelect = `SELECT id, account_id, target_user_id, target_username, status, followed_at,
	unfollowed_at, did_reciprocate, reciprocated_at, discovery_method,
	COALESCE(discovery_source, ''), follower_count, engagement_rate, created_at, updated_at
	FROM relationships`

func scanRelationships(rows *sql.Rows) ([]*Relationship, error) {
	var rels []*Relationship
	for rows.Next() {
		var r Relationship
		var status string
		var followed, created, updated int64
		var unfollowed, reciprocated sql.NullInt64
		var recip int

		err := rows.Scan(&r.ID, &r.AccountID, &r.TargetUserID, &r.TargetUsername, &status,
			&followed, &unfollowed, &recip, &reciprocated, &r.DiscoveryMethod,
			&r.DiscoverySource, &r.FollowerCount, &r.EngagementRate, &created, &updated)
		if err != nil {
			return nil, fmt.Errorf("scan relationship: %w", err)
		}

		r.Status = RelationshipStatus(status)
		r.FollowedAt = time.Unix(followed, 0)
		r.DidReciprocate = recip != 0
		if unfollowed.Valid {
			t := time.Unix(unfollowed.Int64, 0)
			r.UnfollowedAt = &t
		}
		if reciprocated.Valid {
			t := time.Unix(reciprocated.Int64, 0)
			r.ReciprocatedAt = &t
		}
		r.CreatedAt = time.Unix(created, 0)
		r.UpdatedAt = time.Unix(updated, 0)
		rels = append(rels, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return rels, nil
}

// RecordInteraction appends one ledger row.
func (s *SQLiteStore) RecordInteraction(ctx context.Context, entry *Interaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO interactions
		 (id, account_id, target_user_id, target_username, media_id, kind, content,
		  successful, error_message, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.AccountID, entry.TargetUserID, entry.TargetUsername,
		entry.MediaID, string(entry.Kind), entry.Content,
		boolToInt(entry.Successful), entry.ErrorMessage, entry.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("record interaction: %w", err)
	}
	return nil
}

// HasRecentSuccess reports whether a successful entry for (target, kind)
// exists at or after since.
func (s *SQLiteStore) HasRecentSuccess(ctx context.Context, accountID, targetUserID string, kind action.Kind, since time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM interactions
		 WHERE account_id = ? AND target_user_id = ? AND kind = ? AND successful = 1 AND created_at >= ?`,
		accountID, targetUserID, string(kind), since.Unix()).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("query recent success: %w", err)
	}
	return n > 0, nil
}

// AggregateByTarget returns per-target successful interaction counts, most
// engaged first.
func (s *SQLiteStore) AggregateByTarget(ctx context.Context, accountID string, limit int) ([]TargetAggregate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT target_user_id, MAX(target_username), COUNT(*), MAX(created_at)
		 FROM interactions WHERE account_id = ? AND successful = 1
		 GROUP BY target_user_id
		 ORDER BY COUNT(*) DESC, MAX(created_at) DESC
		 LIMIT ?`,
		accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("aggregate by target: %w", err)
	}
	defer rows.Close()

	var aggs []TargetAggregate
	for rows.Next() {
		var a TargetAggregate
		var last int64
		if err := rows.Scan(&a.TargetUserID, &a.TargetUsername, &a.Count, &last); err != nil {
			return nil, fmt.Errorf("scan aggregate: %w", err)
		}
		a.LastSeen = time.Unix(last, 0)
		aggs = append(aggs, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return aggs, nil
}

// StatsByKind summarizes attempts per action kind within [start, end].
func (s *SQLiteStore) StatsByKind(ctx context.Context, accountID string, start, end time.Time) ([]KindStat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT kind, COUNT(*), COALESCE(SUM(successful), 0)
		 FROM interactions WHERE account_id = ? AND created_at >= ? AND created_at <= ?
		 GROUP BY kind ORDER BY kind`,
		accountID, start.Unix(), end.Unix())
	if err != nil {
		return nil, fmt.Errorf("query stats by kind: %w", err)
	}
	defer rows.Close()

	var stats []KindStat
	for rows.Next() {
		var st KindStat
		var kind string
		if err := rows.Scan(&kind, &st.Total, &st.Successful); err != nil {
			return nil, fmt.Errorf("scan stat: %w", err)
		}
		st.Kind = action.Kind(kind)
		st.Failed = st.Total - st.Successful
		stats = append(stats, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return stats, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

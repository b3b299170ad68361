// Package platform defines the contract to the social platform. The engine
// only ever talks through the Client interface; the real network client
// lives outside this repository. A dry-run implementation is provided for
// stealth mode and local testing.
package platform

import (
	"context"
	"time"
)

// UserInfo is the profile data the engine consults before interacting.
type UserInfo struct {
	UserID         string
	Username       string
	FullName       string
	Biography      string
	FollowerCount  int
	FollowingCount int
	MediaCount     int
	IsPrivate      bool

	// FollowsViewer reports whether this user follows the automated account.
	FollowsViewer bool

	// ViewerFollows reports whether the automated account follows this user.
	ViewerFollows bool
}

// Post is one piece of content on a target's feed.
type Post struct {
	MediaID      string
	Caption      string
	LikeCount    int
	CommentCount int
	IsCarousel   bool
	TakenAt      time.Time
}

// Story is one active story item on a target's profile.
type Story struct {
	StoryID string
	TakenAt time.Time
}

// Client is the set of platform primitives the orchestrator drives. Every
// call may fail with a transport or auth error; the orchestrator treats any
// such failure as a per-target failure and moves on.
type Client interface {
	Like(ctx context.Context, mediaID string) error
	Comment(ctx context.Context, mediaID, text string) error
	Follow(ctx context.Context, userID string) error
	Unfollow(ctx context.Context, userID string) error
	SendMessage(ctx context.Context, userID, text string) error
	ViewStory(ctx context.Context, story Story) error

	FetchUserInfo(ctx context.Context, userID string) (*UserInfo, error)
	FetchUserByName(ctx context.Context, username string) (*UserInfo, error)
	FetchRecentPosts(ctx context.Context, userID string) ([]Post, error)
	FetchStories(ctx context.Context, userID string) ([]Story, error)
}

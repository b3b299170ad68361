// Package action defines the closed set of automated action kinds and the
// per-kind quota and feature configuration attached to them. Keeping the set
// as a typed enumeration means an unknown action name is a compile-time
// problem, not something discovered at runtime inside a settings map.
package action

import "fmt"

// Kind identifies one automated action type.
type Kind string

const (
	Like      Kind = "like"
	Comment   Kind = "comment"
	Follow    Kind = "follow"
	Unfollow  Kind = "unfollow"
	Message   Kind = "message"
	StoryView Kind = "story_view"
)

// Kinds lists every action kind in a stable order. Iteration over quota
// state, metrics labels, and stats output all use this order.
var Kinds = []Kind{Like, Comment, Follow, Unfollow, Message, StoryView}

// Valid reports whether k is a known action kind.
func (k Kind) Valid() bool {
	switch k {
	case Like, Comment, Follow, Unfollow, Message, StoryView:
		return true
	}
	return false
}

func (k Kind) String() string { return string(k) }

// Parse converts a wire-level action name into a Kind.
func Parse(s string) (Kind, error) {
	k := Kind(s)
	if !k.Valid() {
		return "", fmt.Errorf("unknown action kind: %q", s)
	}
	return k, nil
}

// Counters holds one integer per action kind. It is the shape of both daily
// usage counters and daily limits.
type Counters struct {
	Likes      int `yaml:"likes" json:"likes"`
	Comments   int `yaml:"comments" json:"comments"`
	Follows    int `yaml:"follows" json:"follows"`
	Unfollows  int `yaml:"unfollows" json:"unfollows"`
	Messages   int `yaml:"messages" json:"messages"`
	StoryViews int `yaml:"story_views" json:"story_views"`
}

// Get returns the counter for k.
func (c Counters) Get(k Kind) int {
	switch k {
	case Like:
		return c.Likes
	case Comment:
		return c.Comments
	case Follow:
		return c.Follows
	case Unfollow:
		return c.Unfollows
	case Message:
		return c.Messages
	case StoryView:
		return c.StoryViews
	}
	return 0
}

// Set assigns the counter for k.
func (c *Counters) Set(k Kind, n int) {
	switch k {
	case Like:
		c.Likes = n
	case Comment:
		c.Comments = n
	case Follow:
		c.Follows = n
	case Unfollow:
		c.Unfollows = n
	case Message:
		c.Messages = n
	case StoryView:
		c.StoryViews = n
	}
}

// Add increments the counter for k by delta and returns the new value.
func (c *Counters) Add(k Kind, delta int) int {
	n := c.Get(k) + delta
	c.Set(k, n)
	return n
}

// Features holds the per-kind enable flags.
type Features struct {
	Like      bool `yaml:"like" json:"like"`
	Comment   bool `yaml:"comment" json:"comment"`
	Follow    bool `yaml:"follow" json:"follow"`
	Unfollow  bool `yaml:"unfollow" json:"unfollow"`
	Message   bool `yaml:"message" json:"message"`
	StoryView bool `yaml:"story_view" json:"story_view"`
}

// Enabled reports whether the feature flag for k is set.
func (f Features) Enabled(k Kind) bool {
	switch k {
	case Like:
		return f.Like
	case Comment:
		return f.Comment
	case Follow:
		return f.Follow
	case Unfollow:
		return f.Unfollow
	case Message:
		return f.Message
	case StoryView:
		return f.StoryView
	}
	return false
}

package platform

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/socialpilot/internal/logfields"
)

// DryRunClient logs every primitive instead of touching the network.
// Used in stealth mode: the whole pipeline runs, counters and ledger fill
// up, but nothing reaches the platform.
type DryRunClient struct{}

// NewDryRun creates a dry-run client.
func NewDryRun() *DryRunClient { return &DryRunClient{} }

func (c *DryRunClient) Like(_ context.Context, mediaID string) error {
	slog.Info("dry-run: like", logfields.Action("like"), slog.String("media_id", mediaID))
	return nil
}

func (c *DryRunClient) Comment(_ context.Context, mediaID, text string) error {
	slog.Info("dry-run: comment", logfields.Action("comment"),
		slog.String("media_id", mediaID), slog.Int("text_len", len(text)))
	return nil
}

func (c *DryRunClient) Follow(_ context.Context, userID string) error {
	slog.Info("dry-run: follow", logfields.Action("follow"), logfields.TargetID(userID))
	return nil
}

func (c *DryRunClient) Unfollow(_ context.Context, userID string) error {
	slog.Info("dry-run: unfollow", logfields.Action("unfollow"), logfields.TargetID(userID))
	return nil
}

func (c *DryRunClient) SendMessage(_ context.Context, userID, text string) error {
	slog.Info("dry-run: message", logfields.Action("message"),
		logfields.TargetID(userID), slog.Int("text_len", len(text)))
	return nil
}

func (c *DryRunClient) ViewStory(_ context.Context, story Story) error {
	slog.Info("dry-run: view story", logfields.Action("story_view"), slog.String("story_id", story.StoryID))
	return nil
}

func (c *DryRunClient) FetchUserInfo(_ context.Context, userID string) (*UserInfo, error) {
	return &UserInfo{UserID: userID, Username: "user_" + userID}, nil
}

func (c *DryRunClient) FetchUserByName(_ context.Context, username string) (*UserInfo, error) {
	return &UserInfo{UserID: username, Username: username}, nil
}

func (c *DryRunClient) FetchRecentPosts(_ context.Context, userID string) ([]Post, error) {
	return nil, nil
}

func (c *DryRunClient) FetchStories(_ context.Context, userID string) ([]Story, error) {
	return nil, nil
}

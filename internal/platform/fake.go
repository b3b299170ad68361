package platform

import (
	"context"
	"sync"
)

// Fake is a scripted Client for tests. Function fields override behavior;
// unset fields succeed and return zero values. Calls are recorded so tests
// can assert what the engine drove.
type Fake struct {
	mu    sync.Mutex
	Calls []Call

	LikeFn             func(ctx context.Context, mediaID string) error
	CommentFn          func(ctx context.Context, mediaID, text string) error
	FollowFn           func(ctx context.Context, userID string) error
	UnfollowFn         func(ctx context.Context, userID string) error
	SendMessageFn      func(ctx context.Context, userID, text string) error
	ViewStoryFn        func(ctx context.Context, story Story) error
	FetchUserInfoFn    func(ctx context.Context, userID string) (*UserInfo, error)
	FetchUserByNameFn  func(ctx context.Context, username string) (*UserInfo, error)
	FetchRecentPostsFn func(ctx context.Context, userID string) ([]Post, error)
	FetchStoriesFn     func(ctx context.Context, userID string) ([]Story, error)
}

// Call is one recorded invocation.
type Call struct {
	Method string
	Arg    string
}

func (f *Fake) record(method, arg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, Call{Method: method, Arg: arg})
}

// CallsTo returns how many times method was invoked.
func (f *Fake) CallsTo(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.Calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

func (f *Fake) Like(ctx context.Context, mediaID string) error {
	f.record("Like", mediaID)
	if f.LikeFn != nil {
		return f.LikeFn(ctx, mediaID)
	}
	return nil
}

func (f *Fake) Comment(ctx context.Context, mediaID, text string) error {
	f.record("Comment", mediaID)
	if f.CommentFn != nil {
		return f.CommentFn(ctx, mediaID, text)
	}
	return nil
}

func (f *Fake) Follow(ctx context.Context, userID string) error {
	f.record("Follow", userID)
	if f.FollowFn != nil {
		return f.FollowFn(ctx, userID)
	}
	return nil
}

func (f *Fake) Unfollow(ctx context.Context, userID string) error {
	f.record("Unfollow", userID)
	if f.UnfollowFn != nil {
		return f.UnfollowFn(ctx, userID)
	}
	return nil
}

func (f *Fake) SendMessage(ctx context.Context, userID, text string) error {
	f.record("SendMessage", userID)
	if f.SendMessageFn != nil {
		return f.SendMessageFn(ctx, userID, text)
	}
	return nil
}

func (f *Fake) ViewStory(ctx context.Context, story Story) error {
	f.record("ViewStory", story.StoryID)
	if f.ViewStoryFn != nil {
		return f.ViewStoryFn(ctx, story)
	}
	return nil
}

func (f *Fake) FetchUserInfo(ctx context.Context, userID string) (*UserInfo, error) {
	f.record("FetchUserInfo", userID)
	if f.FetchUserInfoFn != nil {
		return f.FetchUserInfoFn(ctx, userID)
	}
	return &UserInfo{UserID: userID, Username: "user_" + userID}, nil
}

func (f *Fake) FetchUserByName(ctx context.Context, username string) (*UserInfo, error) {
	f.record("FetchUserByName", username)
	if f.FetchUserByNameFn != nil {
		return f.FetchUserByNameFn(ctx, username)
	}
	return &UserInfo{UserID: username, Username: username}, nil
}

func (f *Fake) FetchRecentPosts(ctx context.Context, userID string) ([]Post, error) {
	f.record("FetchRecentPosts", userID)
	if f.FetchRecentPostsFn != nil {
		return f.FetchRecentPostsFn(ctx, userID)
	}
	return nil, nil
}

func (f *Fake) FetchStories(ctx context.Context, userID string) ([]Story, error) {
	f.record("FetchStories", userID)
	if f.FetchStoriesFn != nil {
		return f.FetchStoriesFn(ctx, userID)
	}
	return nil, nil
}

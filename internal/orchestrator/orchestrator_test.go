package orchestrator

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/socialpilot/internal/action"
	"git.home.luguber.info/inful/socialpilot/internal/config"
	"git.home.luguber.info/inful/socialpilot/internal/content"
	"git.home.luguber.info/inful/socialpilot/internal/discovery"
	derrors "git.home.luguber.info/inful/socialpilot/internal/errors"
	"git.home.luguber.info/inful/socialpilot/internal/governor"
	"git.home.luguber.info/inful/socialpilot/internal/humanize"
	"git.home.luguber.info/inful/socialpilot/internal/ledger"
	"git.home.luguber.info/inful/socialpilot/internal/platform"
	"git.home.luguber.info/inful/socialpilot/internal/relationship"
	"git.home.luguber.info/inful/socialpilot/internal/store"
)

// Wednesday noon, safely inside the default 9-23 window.
var testClock = time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)

type engine struct {
	orch     *Orchestrator
	fake     *platform.Fake
	store    *store.SQLiteStore
	ledger   *ledger.Ledger
	rels     *relationship.Service
	settings *config.Settings
	account  *store.Account
}

type staticFinder []discovery.Candidate

func (s staticFinder) FindCandidates(_ context.Context, limit int) ([]discovery.Candidate, error) {
	if len(s) > limit {
		return s[:limit], nil
	}
	return s, nil
}

type errFinder struct{ err error }

func (e errFinder) FindCandidates(context.Context, int) ([]discovery.Candidate, error) {
	return nil, e.err
}

func newEngine(t *testing.T, finder discovery.Finder, mutate func(*config.Settings)) *engine {
	t.Helper()

	st, err := store.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	acct, err := st.EnsureAccount(context.Background(), "pilot")
	require.NoError(t, err)

	cfg := config.Default()
	if mutate != nil {
		mutate(&cfg.Settings)
	}

	clock := func() time.Time { return testClock }
	fake := &platform.Fake{}
	led := ledger.New(st, ledger.WithClock(clock))
	rels := relationship.New(st, relationship.WithClock(clock))
	human := humanize.New(
		humanize.WithRand(rand.New(rand.NewSource(1))),
		humanize.WithSleep(func(context.Context, time.Duration) {}),
	)

	orch := New(Deps{
		Store:        st,
		Governor:     governor.New(st, governor.WithClock(clock)),
		Relationship: rels,
		Ledger:       led,
		Humanizer:    human,
		Content:      content.New(content.WithRand(rand.New(rand.NewSource(1)))),
		Finder:       finder,
		Client:       fake,
		Settings:     func() *config.Settings { return &cfg.Settings },
		AccountID:    acct.ID,
	},
		WithClock(clock),
		WithProbabilities(0, 0),
	)

	return &engine{orch: orch, fake: fake, store: st, ledger: led, rels: rels, settings: &cfg.Settings, account: acct}
}

func runToCompletion(t *testing.T, e *engine) {
	t.Helper()
	require.NoError(t, e.orch.Start(context.Background()))
	e.orch.Wait()
	require.Equal(t, PhaseIdle, e.orch.Status().Phase)
}

func successfulEntries(t *testing.T, e *engine, kind action.Kind) int {
	t.Helper()
	stats, err := e.ledger.StatsByKind(context.Background(), e.account.ID,
		testClock.Add(-24*time.Hour), testClock.Add(24*time.Hour))
	require.NoError(t, err)
	for _, s := range stats {
		if s.Kind == kind {
			return s.Successful
		}
	}
	return 0
}

func TestStartRejectsMaintenanceMode(t *testing.T) {
	e := newEngine(t, staticFinder{}, func(s *config.Settings) { s.Mode = config.ModeMaintenance })

	err := e.orch.Start(context.Background())
	require.Error(t, err)
	require.True(t, derrors.HasCode(err, derrors.CodeModeInactive))
	require.Contains(t, err.Error(), "maintenance")
	require.Equal(t, PhaseIdle, e.orch.Status().Phase)
}

func TestStartRejectsStealthMode(t *testing.T) {
	e := newEngine(t, staticFinder{}, func(s *config.Settings) { s.Mode = config.ModeStealth })

	err := e.orch.Start(context.Background())
	require.Error(t, err)
	require.True(t, derrors.HasCode(err, derrors.CodeModeInactive))
	require.Equal(t, PhaseIdle, e.orch.Status().Phase)
}

func TestStartRejectsOutsideActiveHours(t *testing.T) {
	e := newEngine(t, staticFinder{}, func(s *config.Settings) {
		s.Schedule.StartHour = 20
		s.Schedule.EndHour = 23
	})

	err := e.orch.Start(context.Background())
	require.Error(t, err)
	require.True(t, derrors.HasCode(err, derrors.CodeOutsideActiveHours))
}

func TestStopOnIdleReturnsNotRunning(t *testing.T) {
	e := newEngine(t, staticFinder{}, nil)

	_, err := e.orch.Stop()
	require.Error(t, err)
	require.True(t, derrors.HasCode(err, derrors.CodeNotRunning))
}

type blockingFinder struct {
	entered chan struct{}
	release chan struct{}
}

func (b *blockingFinder) FindCandidates(context.Context, int) ([]discovery.Candidate, error) {
	close(b.entered)
	<-b.release
	return nil, nil
}

func TestSecondStartRejectedWhileRunning(t *testing.T) {
	finder := &blockingFinder{entered: make(chan struct{}), release: make(chan struct{})}
	e := newEngine(t, finder, nil)

	require.NoError(t, e.orch.Start(context.Background()))
	<-finder.entered

	err := e.orch.Start(context.Background())
	require.Error(t, err)
	require.True(t, derrors.HasCode(err, derrors.CodeAlreadyRunning))

	close(finder.release)
	e.orch.Wait()
	require.Equal(t, PhaseIdle, e.orch.Status().Phase)
}

func TestStopInterruptsRun(t *testing.T) {
	finder := &blockingFinder{entered: make(chan struct{}), release: make(chan struct{})}
	e := newEngine(t, finder, nil)

	require.NoError(t, e.orch.Start(context.Background()))
	<-finder.entered

	phase, err := e.orch.Stop()
	require.NoError(t, err)
	require.Equal(t, PhaseUpdatingTargets, phase)

	close(finder.release)
	e.orch.Wait()
	require.Equal(t, PhaseIdle, e.orch.Status().Phase)
}

func TestStopDuringActionKeepsBookkeeping(t *testing.T) {
	finder := staticFinder{
		{UserID: "t1", Username: "u1"},
		{UserID: "t2", Username: "u2"},
	}
	e := newEngine(t, finder, func(s *config.Settings) {
		s.EnabledFeatures = action.Features{Like: true}
	})
	e.fake.FetchRecentPostsFn = func(_ context.Context, userID string) ([]platform.Post, error) {
		return []platform.Post{{MediaID: "m_" + userID, Caption: "hi"}}, nil
	}
	// Stop lands while the like is in flight; the call completes and its
	// quota commit and ledger entry must still be persisted.
	e.fake.LikeFn = func(context.Context, string) error {
		_, err := e.orch.Stop()
		require.NoError(t, err)
		return nil
	}

	require.NoError(t, e.orch.Start(context.Background()))
	e.orch.Wait()
	require.Equal(t, PhaseIdle, e.orch.Status().Phase)

	require.Equal(t, 1, e.fake.CallsTo("Like"))
	require.Equal(t, 1, successfulEntries(t, e, action.Like))

	acct, err := e.store.ActiveAccount(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, acct.DailyStats.Likes)

	// The second target is never visited after the stop.
	require.Equal(t, 1, e.fake.CallsTo("FetchRecentPosts"))
}

func TestStopDuringUnfollowKeepsBookkeeping(t *testing.T) {
	finder := staticFinder{}
	e := newEngine(t, finder, func(s *config.Settings) {
		s.EnabledFeatures = action.Features{Unfollow: true}
	})
	seedFollowing(t, e, "a", testClock.Add(-10*24*time.Hour))
	seedFollowing(t, e, "b", testClock.Add(-9*24*time.Hour))
	e.fake.UnfollowFn = func(context.Context, string) error {
		_, err := e.orch.Stop()
		require.NoError(t, err)
		return nil
	}

	require.NoError(t, e.orch.Start(context.Background()))
	e.orch.Wait()

	require.Equal(t, 1, e.fake.CallsTo("Unfollow"))
	require.Equal(t, 1, successfulEntries(t, e, action.Unfollow))

	acct, err := e.store.ActiveAccount(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, acct.DailyStats.Unfollows)

	// The relationship transition persisted despite the stop.
	active, err := e.store.ActiveRelationship(context.Background(), e.account.ID, "a")
	require.NoError(t, err)
	require.Nil(t, active)
}

func TestLikeQuotaBoundsInteractionPhase(t *testing.T) {
	finder := staticFinder{
		{UserID: "t1", Username: "u1"},
		{UserID: "t2", Username: "u2"},
		{UserID: "t3", Username: "u3"},
	}
	e := newEngine(t, finder, func(s *config.Settings) {
		s.Limits.Likes = 2
		s.EnabledFeatures = action.Features{Like: true}
	})
	e.fake.FetchRecentPostsFn = func(_ context.Context, userID string) ([]platform.Post, error) {
		return []platform.Post{{MediaID: "m_" + userID, Caption: "hello"}}, nil
	}

	runToCompletion(t, e)

	require.Equal(t, 2, e.fake.CallsTo("Like"))
	require.Equal(t, 2, successfulEntries(t, e, action.Like))

	acct, err := e.store.ActiveAccount(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, acct.DailyStats.Likes)

	// The third target is never visited once the only spendable quota is gone.
	require.Equal(t, 2, e.fake.CallsTo("FetchRecentPosts"))
}

func TestMessageDedupWindow(t *testing.T) {
	finder := staticFinder{{UserID: "t1", Username: "u1"}}
	e := newEngine(t, finder, func(s *config.Settings) {
		s.EnabledFeatures = action.Features{Like: true, Message: true}
	})
	e.orch.messageProbability = 1
	e.fake.FetchRecentPostsFn = func(_ context.Context, userID string) ([]platform.Post, error) {
		return []platform.Post{{MediaID: "m1", Caption: "hi"}}, nil
	}

	runToCompletion(t, e)
	require.Equal(t, 1, e.fake.CallsTo("SendMessage"))
	require.Equal(t, 1, successfulEntries(t, e, action.Message))

	// Second run an hour later: the 7-day window suppresses the send.
	runToCompletion(t, e)
	require.Equal(t, 1, e.fake.CallsTo("SendMessage"))
	require.Equal(t, 1, successfulEntries(t, e, action.Message))
}

func TestCommentRequiresALandedLike(t *testing.T) {
	finder := staticFinder{{UserID: "t1", Username: "u1"}}
	newCase := func(t *testing.T, likeLimit int) *engine {
		e := newEngine(t, finder, func(s *config.Settings) {
			s.EnabledFeatures = action.Features{Like: true, Comment: true}
			s.Limits.Likes = likeLimit
		})
		e.orch.commentProbability = 1
		e.fake.FetchRecentPostsFn = func(_ context.Context, userID string) ([]platform.Post, error) {
			return []platform.Post{{MediaID: "m1", Caption: "lovely sunset"}}, nil
		}
		return e
	}

	t.Run("like landed", func(t *testing.T) {
		e := newCase(t, 5)
		runToCompletion(t, e)
		require.Equal(t, 1, e.fake.CallsTo("Like"))
		require.Equal(t, 1, e.fake.CallsTo("Comment"))
	})

	t.Run("like quota exhausted", func(t *testing.T) {
		e := newCase(t, 0)
		runToCompletion(t, e)
		require.Zero(t, e.fake.CallsTo("Like"))
		require.Zero(t, e.fake.CallsTo("Comment"), "no comment without a like")
	})
}

func TestPrivateAccountGetsLimitedPath(t *testing.T) {
	finder := staticFinder{{UserID: "t1", Username: "u1"}}
	e := newEngine(t, finder, nil)
	e.fake.FetchUserInfoFn = func(_ context.Context, userID string) (*platform.UserInfo, error) {
		return &platform.UserInfo{UserID: userID, Username: "u1", IsPrivate: true}, nil
	}
	e.fake.FetchStoriesFn = func(_ context.Context, userID string) ([]platform.Story, error) {
		return []platform.Story{{StoryID: "s1"}}, nil
	}

	runToCompletion(t, e)

	require.Equal(t, 1, e.fake.CallsTo("ViewStory"))
	require.Zero(t, e.fake.CallsTo("FetchRecentPosts"))
	require.Zero(t, e.fake.CallsTo("Like"))
}

func TestTargetFailureDoesNotAbortRun(t *testing.T) {
	finder := staticFinder{
		{UserID: "bad", Username: "bad"},
		{UserID: "good", Username: "good"},
	}
	e := newEngine(t, finder, nil)
	e.fake.FetchUserInfoFn = func(_ context.Context, userID string) (*platform.UserInfo, error) {
		if userID == "bad" {
			return nil, errors.New("profile gone")
		}
		return &platform.UserInfo{UserID: userID, Username: userID}, nil
	}
	e.fake.FetchRecentPostsFn = func(_ context.Context, userID string) ([]platform.Post, error) {
		return []platform.Post{{MediaID: "m_" + userID}}, nil
	}

	runToCompletion(t, e)

	require.Equal(t, 1, e.fake.CallsTo("Like"), "run continues past the failing target")

	acct, err := e.store.ActiveAccount(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, acct.ErrorCount)
	require.Contains(t, acct.LastError, "profile gone")
}

func TestDiscoveryFailureAbortsRun(t *testing.T) {
	e := newEngine(t, errFinder{err: errors.New("feed down")}, nil)

	runToCompletion(t, e)

	acct, err := e.store.ActiveAccount(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, acct.ErrorCount)
	require.Contains(t, acct.LastError, "feed down")
	require.Zero(t, e.fake.CallsTo("FetchUserInfo"))
}

func seedFollowing(t *testing.T, e *engine, userID string, followedAt time.Time) *store.Relationship {
	t.Helper()
	rel := &store.Relationship{
		AccountID:      e.account.ID,
		TargetUserID:   userID,
		TargetUsername: "u_" + userID,
		Status:         store.StatusFollowing,
		FollowedAt:     followedAt,
	}
	require.NoError(t, e.store.CreateRelationship(context.Background(), rel))
	return rel
}

func TestUnfollowPassScopedOverride(t *testing.T) {
	e := newEngine(t, staticFinder{}, func(s *config.Settings) {
		s.EnabledFeatures = action.Features{Unfollow: true}
		s.Limits.Unfollows = 1
	})
	for _, id := range []string{"a", "b", "c"} {
		seedFollowing(t, e, id, testClock.Add(-10*24*time.Hour))
	}

	require.NoError(t, e.orch.RunUnfollowPass(context.Background(), 2))

	require.Equal(t, 2, e.fake.CallsTo("Unfollow"))
	require.Equal(t, 1, e.settings.Limits.Unfollows, "shared settings stay untouched")

	acct, err := e.store.ActiveAccount(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, acct.DailyStats.Unfollows)
}

func TestUnfollowPassSkipsFreshAndReciprocated(t *testing.T) {
	e := newEngine(t, staticFinder{}, func(s *config.Settings) {
		s.EnabledFeatures = action.Features{Unfollow: true}
	})
	seedFollowing(t, e, "old", testClock.Add(-10*24*time.Hour))
	seedFollowing(t, e, "fresh", testClock.Add(-1*time.Hour))
	mutual := seedFollowing(t, e, "mutual", testClock.Add(-10*24*time.Hour))
	require.NoError(t, e.store.MarkReciprocated(context.Background(), mutual.ID, testClock))

	require.NoError(t, e.orch.RunUnfollowPass(context.Background(), 0))

	require.Equal(t, 1, e.fake.CallsTo("Unfollow"))
	require.Equal(t, "old", e.fake.Calls[len(e.fake.Calls)-1].Arg)
}

func TestReciprocitySweepMarksFollowBacks(t *testing.T) {
	e := newEngine(t, staticFinder{}, nil)
	seedFollowing(t, e, "friendly", testClock.Add(-2*24*time.Hour))
	seedFollowing(t, e, "silent", testClock.Add(-2*24*time.Hour))

	e.fake.FetchUserInfoFn = func(_ context.Context, userID string) (*platform.UserInfo, error) {
		return &platform.UserInfo{
			UserID:        userID,
			Username:      "u_" + userID,
			FollowsViewer: userID == "friendly",
		}, nil
	}

	require.NoError(t, e.orch.RunReciprocitySweep(context.Background()))

	unchecked, err := e.rels.UncheckedFollowing(context.Background(), e.account.ID, 10)
	require.NoError(t, err)
	require.Len(t, unchecked, 1)
	require.Equal(t, "silent", unchecked[0].TargetUserID)
}

func TestFollowPassSkipsExistingAndFiltered(t *testing.T) {
	finder := staticFinder{
		{UserID: "known", Username: "known"},
		{UserID: "tiny", Username: "tiny"},
		{UserID: "new", Username: "new"},
	}
	e := newEngine(t, finder, func(s *config.Settings) {
		s.EnabledFeatures = action.Features{Follow: true}
	})
	seedFollowing(t, e, "known", testClock.Add(-time.Hour))

	e.fake.FetchUserInfoFn = func(_ context.Context, userID string) (*platform.UserInfo, error) {
		followers := 500
		if userID == "tiny" {
			followers = 5
		}
		return &platform.UserInfo{UserID: userID, Username: userID, FollowerCount: followers, MediaCount: 40}, nil
	}

	runToCompletion(t, e)

	require.Equal(t, 1, e.fake.CallsTo("Follow"))

	rel, err := e.store.ActiveRelationship(context.Background(), e.account.ID, "new")
	require.NoError(t, err)
	require.NotNil(t, rel)
	require.Equal(t, store.StatusFollowing, rel.Status)
}

func TestFollowPassCreatesPendingForPrivate(t *testing.T) {
	finder := staticFinder{{UserID: "shy", Username: "shy"}}
	e := newEngine(t, finder, func(s *config.Settings) {
		s.EnabledFeatures = action.Features{Follow: true}
	})
	e.fake.FetchUserInfoFn = func(_ context.Context, userID string) (*platform.UserInfo, error) {
		return &platform.UserInfo{UserID: userID, Username: userID, FollowerCount: 500, MediaCount: 40, IsPrivate: true}, nil
	}

	runToCompletion(t, e)

	rel, err := e.store.ActiveRelationship(context.Background(), e.account.ID, "shy")
	require.NoError(t, err)
	require.NotNil(t, rel)
	require.Equal(t, store.StatusPending, rel.Status)
}

func TestRefreshTargets(t *testing.T) {
	e := newEngine(t, staticFinder{{UserID: "1"}, {UserID: "2"}}, nil)

	n, err := e.orch.RefreshTargets(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, n)
}

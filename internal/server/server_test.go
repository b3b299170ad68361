package server

import (
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/socialpilot/internal/action"
	"git.home.luguber.info/inful/socialpilot/internal/config"
	"git.home.luguber.info/inful/socialpilot/internal/content"
	"git.home.luguber.info/inful/socialpilot/internal/discovery"
	"git.home.luguber.info/inful/socialpilot/internal/governor"
	"git.home.luguber.info/inful/socialpilot/internal/humanize"
	"git.home.luguber.info/inful/socialpilot/internal/ledger"
	"git.home.luguber.info/inful/socialpilot/internal/orchestrator"
	"git.home.luguber.info/inful/socialpilot/internal/platform"
	"git.home.luguber.info/inful/socialpilot/internal/relationship"
	"git.home.luguber.info/inful/socialpilot/internal/scheduler"
	"git.home.luguber.info/inful/socialpilot/internal/store"
)

var testClock = time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)

type emptyFinder struct{}

func (emptyFinder) FindCandidates(context.Context, int) ([]discovery.Candidate, error) {
	return nil, nil
}

type testEnv struct {
	srv   *Server
	cfg   *config.Config
	store *store.SQLiteStore
	led   *ledger.Ledger
	acct  *store.Account
	sched *scheduler.Scheduler
}

func newTestServer(t *testing.T, mutate func(*config.Config)) *testEnv {
	t.Helper()

	st, err := store.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	acct, err := st.EnsureAccount(context.Background(), "pilot")
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Account.Username = "pilot"
	if mutate != nil {
		mutate(cfg)
	}

	clock := func() time.Time { return testClock }
	led := ledger.New(st, ledger.WithClock(clock))
	rels := relationship.New(st, relationship.WithClock(clock))
	human := humanize.New(
		humanize.WithRand(rand.New(rand.NewSource(1))),
		humanize.WithSleep(func(context.Context, time.Duration) {}),
	)

	orch := orchestrator.New(orchestrator.Deps{
		Store:        st,
		Governor:     governor.New(st, governor.WithClock(clock)),
		Relationship: rels,
		Ledger:       led,
		Humanizer:    human,
		Content:      content.New(content.WithRand(rand.New(rand.NewSource(1)))),
		Finder:       emptyFinder{},
		Client:       &platform.Fake{},
		Settings:     func() *config.Settings { return &cfg.Settings },
		AccountID:    acct.ID,
	}, orchestrator.WithClock(clock))

	sched, err := scheduler.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sched.Stop() })

	srv := New(cfg.Server, Deps{
		Orchestrator: orch,
		Scheduler:    sched,
		Ledger:       led,
		Relationship: rels,
		Store:        st,
		Settings:     func() *config.Settings { return &cfg.Settings },
		AccountID:    acct.ID,
	})

	return &testEnv{srv: srv, cfg: cfg, store: st, led: led, acct: acct, sched: sched}
}

func doJSON(t *testing.T, h http.Handler, method, path, token string) (*httptest.ResponseRecorder, Response) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec, resp
}

func TestHealthz(t *testing.T) {
	env := newTestServer(t, nil)
	rec, resp := doJSON(t, env.srv.Handler(), http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, resp.Success)
}

func TestTokenRequired(t *testing.T) {
	env := newTestServer(t, func(c *config.Config) { c.Server.AuthToken = "s3cret" })

	rec, _ := doJSON(t, env.srv.Handler(), http.MethodGet, "/api/bot/status", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = doJSON(t, env.srv.Handler(), http.MethodGet, "/api/bot/status", "wrong")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, resp := doJSON(t, env.srv.Handler(), http.MethodGet, "/api/bot/status", "s3cret")
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, resp.Success)

	// Health stays open for probes.
	rec, _ = doJSON(t, env.srv.Handler(), http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestStatusIdle(t *testing.T) {
	env := newTestServer(t, nil)
	rec, resp := doJSON(t, env.srv.Handler(), http.MethodGet, "/api/bot/status", "")
	require.Equal(t, http.StatusOK, rec.Code)

	data := resp.Data.(map[string]any)
	require.Equal(t, "idle", data["phase"])
}

func TestStartRejectedInMaintenanceMode(t *testing.T) {
	env := newTestServer(t, func(c *config.Config) { c.Settings.Mode = config.ModeMaintenance })

	rec, resp := doJSON(t, env.srv.Handler(), http.MethodPost, "/api/bot/start", "")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.False(t, resp.Success)
	require.Contains(t, resp.Error, "maintenance")
}

func TestStopWithoutRun(t *testing.T) {
	env := newTestServer(t, nil)
	rec, resp := doJSON(t, env.srv.Handler(), http.MethodPost, "/api/bot/stop", "")
	require.Equal(t, http.StatusConflict, rec.Code)
	require.False(t, resp.Success)
}

func TestRunTaskUnknown(t *testing.T) {
	env := newTestServer(t, nil)
	rec, resp := doJSON(t, env.srv.Handler(), http.MethodPost, "/api/tasks/nope/run", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, resp.Error, "nope")
}

func TestRunTaskAccepted(t *testing.T) {
	env := newTestServer(t, nil)

	fired := make(chan struct{})
	require.NoError(t, env.sched.RegisterTask("demo", "0 3 * * *", func(ctx context.Context) error {
		close(fired)
		return nil
	}))

	rec, resp := doJSON(t, env.srv.Handler(), http.MethodPost, "/api/tasks/demo/run", "")
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.True(t, resp.Success)

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("task never ran")
	}
}

func TestStats(t *testing.T) {
	env := newTestServer(t, nil)
	ctx := context.Background()

	require.NoError(t, env.led.Record(ctx, ledger.Entry{
		AccountID:      env.acct.ID,
		TargetUserID:   "t1",
		TargetUsername: "u1",
		Kind:           action.Like,
		Successful:     true,
	}))
	_, err := env.store.IncrementStat(ctx, env.acct.ID, action.Like)
	require.NoError(t, err)

	rec, resp := doJSON(t, env.srv.Handler(), http.MethodGet, "/api/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, resp.Success)

	data := resp.Data.(map[string]any)
	daily := data["daily"].(map[string]any)
	require.Equal(t, float64(1), daily["likes"])
	require.NotEmpty(t, data["most_engaged"])
}

func TestUnfollowCandidates(t *testing.T) {
	env := newTestServer(t, nil)
	ctx := context.Background()

	require.NoError(t, env.store.CreateRelationship(ctx, &store.Relationship{
		AccountID:      env.acct.ID,
		TargetUserID:   "old",
		TargetUsername: "u_old",
		Status:         store.StatusFollowing,
		FollowedAt:     testClock.Add(-10 * 24 * time.Hour),
	}))
	require.NoError(t, env.store.CreateRelationship(ctx, &store.Relationship{
		AccountID:      env.acct.ID,
		TargetUserID:   "fresh",
		TargetUsername: "u_fresh",
		Status:         store.StatusFollowing,
		FollowedAt:     testClock.Add(-time.Hour),
	}))

	rec, resp := doJSON(t, env.srv.Handler(), http.MethodGet, "/api/relationships/unfollow-candidates", "")
	require.Equal(t, http.StatusOK, rec.Code)

	list := resp.Data.([]any)
	require.Len(t, list, 1)
	require.Equal(t, "old", list[0].(map[string]any)["user_id"])
}

func TestMetricsRouteOnlyWhenConfigured(t *testing.T) {
	env := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	env.srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

// Package orchestrator drives one automation run at a time through its
// phases: refresh the target pool, interact with each target, then follow
// and unfollow maintenance. The run executes sequentially on one goroutine;
// concurrency would defeat the humanized pacing. Stop is cooperative: the
// flag is polled at phase boundaries and before each per-target action, and
// an in-flight platform call always completes.
package orchestrator

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/socialpilot/internal/action"
	"git.home.luguber.info/inful/socialpilot/internal/config"
	"git.home.luguber.info/inful/socialpilot/internal/content"
	"git.home.luguber.info/inful/socialpilot/internal/discovery"
	derrors "git.home.luguber.info/inful/socialpilot/internal/errors"
	"git.home.luguber.info/inful/socialpilot/internal/governor"
	"git.home.luguber.info/inful/socialpilot/internal/humanize"
	"git.home.luguber.info/inful/socialpilot/internal/ledger"
	"git.home.luguber.info/inful/socialpilot/internal/logfields"
	"git.home.luguber.info/inful/socialpilot/internal/metrics"
	"git.home.luguber.info/inful/socialpilot/internal/platform"
	"git.home.luguber.info/inful/socialpilot/internal/relationship"
	"git.home.luguber.info/inful/socialpilot/internal/store"
)

// Phase is the stage an automation run is in.
type Phase string

const (
	PhaseIdle              Phase = "idle"
	PhaseInitializing      Phase = "initializing"
	PhaseUpdatingTargets   Phase = "updating_targets"
	PhaseInteracting       Phase = "interacting"
	PhaseFollowMaintenance Phase = "follow_maintenance"
	PhaseStopping          Phase = "stopping"
)

const (
	// targetPoolSize bounds how many candidates one run pulls from discovery.
	targetPoolSize = 50

	// maxPostsPerTarget caps likes per target in one visit.
	maxPostsPerTarget = 3

	// reciprocityBatch bounds one follow-back sweep.
	reciprocityBatch = 50
)

// Status is a point-in-time view of the run state.
type Status struct {
	Phase     Phase     `json:"phase"`
	RunID     string    `json:"run_id,omitempty"`
	StartedAt time.Time `json:"started_at,omitzero"`
}

// Orchestrator owns the run state machine. All exported methods are safe for
// concurrent use; the run itself is single-threaded.
type Orchestrator struct {
	store    store.Store
	governor *governor.Governor
	rels     *relationship.Service
	ledger   *ledger.Ledger
	human    *humanize.Humanizer
	texts    *content.Generator
	finder   discovery.Finder
	client   platform.Client
	settings func() *config.Settings
	recorder metrics.Recorder

	accountID string
	now       func() time.Time

	commentProbability float64
	messageProbability float64

	mu            sync.Mutex
	phase         Phase
	runID         string
	startedAt     time.Time
	stopRequested bool
	delayCtx      context.Context
	cancel        context.CancelFunc
	done          chan struct{}
}

// Deps bundles the collaborators an Orchestrator needs.
type Deps struct {
	Store        store.Store
	Governor     *governor.Governor
	Relationship *relationship.Service
	Ledger       *ledger.Ledger
	Humanizer    *humanize.Humanizer
	Content      *content.Generator
	Finder       discovery.Finder
	Client       platform.Client

	// Settings returns the current settings revision. Read once per phase.
	Settings func() *config.Settings

	AccountID string
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithClock injects a deterministic clock for tests.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// WithRecorder attaches a metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(o *Orchestrator) { o.recorder = r }
}

// WithProbabilities overrides the comment and message odds. Tests pin these
// to 0 or 1 to make the run deterministic.
func WithProbabilities(comment, message float64) Option {
	return func(o *Orchestrator) {
		o.commentProbability = comment
		o.messageProbability = message
	}
}

// New creates an Orchestrator in the Idle phase.
func New(deps Deps, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:              deps.Store,
		governor:           deps.Governor,
		rels:               deps.Relationship,
		ledger:             deps.Ledger,
		human:              deps.Humanizer,
		texts:              deps.Content,
		finder:             deps.Finder,
		client:             deps.Client,
		settings:           deps.Settings,
		accountID:          deps.AccountID,
		recorder:           metrics.NoopRecorder{},
		now:                time.Now,
		commentProbability: 0.3,
		messageProbability: 0.4,
		phase:              PhaseIdle,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Start begins a run. It rejects with AlreadyRunning while a run is active,
// ModeInactive unless the mode permits acting, and OutsideActiveHours when
// the clock falls outside the schedule window. The workflow runs on its own
// goroutine; Start returns immediately.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.phase != PhaseIdle {
		return derrors.AlreadyRunning(string(o.phase))
	}

	settings := o.settings()
	if settings.Mode != config.ModeActive {
		return derrors.ModeInactive(string(settings.Mode))
	}
	now := o.now()
	if !governor.WithinActiveHours(settings.Schedule, now) {
		return derrors.OutsideActiveHours(now.Hour())
	}

	// The run keeps an uncancelable context so a completed action always gets
	// its quota commit and ledger entry; only the humanized sleeps run on the
	// cancelable delay context that Stop ends.
	runCtx := context.WithoutCancel(ctx)
	delayCtx, cancel := context.WithCancel(runCtx)
	o.phase = PhaseInitializing
	o.runID = uuid.NewString()
	o.startedAt = now
	o.stopRequested = false
	o.delayCtx = delayCtx
	o.cancel = cancel
	o.done = make(chan struct{})

	slog.Info("Starting automation run", logfields.RunID(o.runID), logfields.Mode(string(settings.Mode)))
	go o.run(runCtx, o.runID)
	return nil
}

// Stop requests cooperative cancellation and returns the phase that was
// interrupted. An in-flight platform call completes and its bookkeeping is
// persisted; only delays end early.
func (o *Orchestrator) Stop() (Phase, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.phase == PhaseIdle {
		return PhaseIdle, derrors.NotRunning()
	}
	interrupted := o.phase
	o.stopRequested = true
	if o.cancel != nil {
		o.cancel()
	}
	slog.Info("Stop requested", logfields.RunID(o.runID), logfields.Phase(string(interrupted)))
	return interrupted, nil
}

// Status returns the current phase and run metadata. Pure read.
func (o *Orchestrator) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	return Status{Phase: o.phase, RunID: o.runID, StartedAt: o.startedAt}
}

// Wait blocks until the current run (if any) has returned to Idle.
func (o *Orchestrator) Wait() {
	o.mu.Lock()
	done := o.done
	o.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (o *Orchestrator) setPhase(p Phase) {
	o.mu.Lock()
	o.phase = p
	o.mu.Unlock()
	o.recorder.SetPhase(string(p))
}

func (o *Orchestrator) stopped() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.stopRequested
}

// sleepCtx is the context for humanized sleeps. While a run is active it is
// the run's cancelable delay context, so Stop cuts a sleep short without
// reaching the platform call or the persistence that follows it.
func (o *Orchestrator) sleepCtx(ctx context.Context) context.Context {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.delayCtx != nil {
		return o.delayCtx
	}
	return ctx
}

// run is the workflow body. It always returns the machine to Idle.
func (o *Orchestrator) run(ctx context.Context, runID string) {
	started := o.now()
	outcome := metrics.RunCompleted

	defer func() {
		o.mu.Lock()
		o.phase = PhaseIdle
		o.cancel = nil
		o.delayCtx = nil
		done := o.done
		o.mu.Unlock()

		o.recorder.SetPhase(string(PhaseIdle))
		o.recorder.ObserveRunDuration(o.now().Sub(started))
		o.recorder.IncRunOutcome(outcome)
		slog.Info("Run finished", logfields.RunID(runID), slog.String("outcome", string(outcome)))
		close(done)
	}()

	settings := o.settings()

	o.setPhase(PhaseUpdatingTargets)
	candidates, err := o.finder.FindCandidates(ctx, targetPoolSize)
	if err != nil {
		outcome = metrics.RunAborted
		o.abortRun(ctx, runID, derrors.DiscoveryFailed(err))
		return
	}
	slog.Info("Target pool refreshed", logfields.RunID(runID), logfields.Count(len(candidates)))

	o.setPhase(PhaseInteracting)
	for _, cand := range candidates {
		if o.stopped() {
			break
		}
		exhausted, err := o.interactionQuotasExhausted(ctx, settings)
		if err != nil {
			outcome = metrics.RunAborted
			o.abortRun(ctx, runID, derrors.StoreUnavailable(err))
			return
		}
		if exhausted {
			slog.Info("Interaction quotas exhausted, ending phase", logfields.RunID(runID))
			break
		}
		if err := o.interactWithTarget(ctx, settings, cand); err != nil {
			o.recordTargetFailure(ctx, cand.Username, err)
		}
	}

	o.setPhase(PhaseFollowMaintenance)
	settings = o.settings()
	if !o.stopped() && settings.EnabledFeatures.Unfollow {
		if err := o.unfollowPass(ctx, settings, 0); err != nil {
			slog.Error("Unfollow pass failed", logfields.RunID(runID), logfields.Error(err))
		}
	}
	if !o.stopped() && settings.EnabledFeatures.Follow {
		if err := o.followPass(ctx, settings, candidates); err != nil {
			slog.Error("Follow pass failed", logfields.RunID(runID), logfields.Error(err))
		}
	}

	if o.stopped() {
		outcome = metrics.RunStopped
		o.setPhase(PhaseStopping)
	}
}

// abortRun handles a phase-fatal error: persist it and log. Partial ledger
// and relationship progress stays as-is; append-only history is always valid.
func (o *Orchestrator) abortRun(ctx context.Context, runID string, err error) {
	slog.Error("Run aborted", logfields.RunID(runID), logfields.Error(err))
	if serr := o.store.RecordAccountError(ctx, o.accountID, err.Error()); serr != nil {
		slog.Error("Failed to persist run error", logfields.Error(serr))
	}
}

// recordTargetFailure implements the partial-failure policy: log, persist the
// error marker on the account, move on to the next target.
func (o *Orchestrator) recordTargetFailure(ctx context.Context, target string, err error) {
	slog.Warn("Target interaction failed", logfields.Target(target), logfields.Error(err))
	if serr := o.store.RecordAccountError(ctx, o.accountID, err.Error()); serr != nil {
		slog.Error("Failed to persist target error", logfields.Error(serr))
	}
}

// interactionQuotasExhausted reports whether likes, comments, and messages
// are all at their daily caps. The interaction loop ends early once nothing
// can be spent anymore.
func (o *Orchestrator) interactionQuotasExhausted(ctx context.Context, settings *config.Settings) (bool, error) {
	acct, err := o.store.ActiveAccount(ctx)
	if err != nil {
		return false, err
	}
	for _, kind := range []action.Kind{action.Like, action.Comment, action.Message} {
		if settings.EnabledFeatures.Enabled(kind) && acct.DailyStats.Get(kind) < settings.Limits.Get(kind) {
			return false, nil
		}
	}
	return true, nil
}

// pace applies the humanized inter-action delay.
func (o *Orchestrator) pace(ctx context.Context, settings *config.Settings) {
	h := settings.Humanization
	before := time.Now()
	if h.RandomizeDelay {
		o.human.Delay(o.sleepCtx(ctx), h.MinActionDelay, h.MaxActionDelay)
	} else {
		o.human.Delay(o.sleepCtx(ctx), h.MinActionDelay, h.MinActionDelay)
	}
	o.recorder.ObserveActionDelay(time.Since(before))
}

// interactWithTarget runs the per-target routine: view stories, like up to a
// few recent posts, maybe comment, maybe message. Private accounts that do
// not follow back get the limited path (stories only). Any platform failure
// is returned as a per-target error.
func (o *Orchestrator) interactWithTarget(ctx context.Context, settings *config.Settings, cand discovery.Candidate) error {
	info, err := o.client.FetchUserInfo(ctx, cand.UserID)
	if err != nil {
		return derrors.ActionFailed(err, "fetch_user_info", cand.Username)
	}

	if err := o.viewStories(ctx, settings, info); err != nil {
		return err
	}

	if info.IsPrivate && !info.ViewerFollows {
		slog.Debug("Private account, limited interaction", logfields.Target(info.Username))
		return nil
	}

	posts, err := o.client.FetchRecentPosts(ctx, info.UserID)
	if err != nil {
		return derrors.ActionFailed(err, "fetch_posts", info.Username)
	}

	liked := 0
	for _, post := range posts {
		if o.stopped() || liked >= maxPostsPerTarget {
			break
		}
		dec, err := o.governor.TryConsume(ctx, o.accountID, settings, action.Like)
		if err != nil {
			return derrors.StoreUnavailable(err)
		}
		if !dec.Allowed {
			break
		}
		o.pace(ctx, settings)
		if err := o.client.Like(ctx, post.MediaID); err != nil {
			o.recordAttempt(ctx, info, post.MediaID, action.Like, "", err)
			return derrors.ActionFailed(err, string(action.Like), info.Username)
		}
		o.commitAttempt(ctx, info, post.MediaID, action.Like, "", dec)
		liked++
	}

	if liked > 0 && !o.stopped() && o.human.ShouldDo(o.commentProbability) {
		if err := o.maybeComment(ctx, settings, info, posts[0]); err != nil {
			return err
		}
	}

	if liked > 0 && !o.stopped() && o.human.ShouldDo(o.messageProbability) {
		if err := o.maybeMessage(ctx, settings, info); err != nil {
			return err
		}
	}
	return nil
}

func (o *Orchestrator) viewStories(ctx context.Context, settings *config.Settings, info *platform.UserInfo) error {
	stories, err := o.client.FetchStories(ctx, info.UserID)
	if err != nil {
		return derrors.ActionFailed(err, "fetch_stories", info.Username)
	}
	for _, story := range stories {
		if o.stopped() {
			return nil
		}
		dec, err := o.governor.TryConsume(ctx, o.accountID, settings, action.StoryView)
		if err != nil {
			return derrors.StoreUnavailable(err)
		}
		if !dec.Allowed {
			return nil
		}
		if err := o.client.ViewStory(ctx, story); err != nil {
			o.recordAttempt(ctx, info, story.StoryID, action.StoryView, "", err)
			return derrors.ActionFailed(err, string(action.StoryView), info.Username)
		}
		o.commitAttempt(ctx, info, story.StoryID, action.StoryView, "", dec)
	}
	return nil
}

func (o *Orchestrator) maybeComment(ctx context.Context, settings *config.Settings, info *platform.UserInfo, post platform.Post) error {
	dec, err := o.governor.TryConsume(ctx, o.accountID, settings, action.Comment)
	if err != nil {
		return derrors.StoreUnavailable(err)
	}
	if !dec.Allowed {
		return nil
	}

	text := o.texts.GenerateComment(content.CategorizeCaption(post.Caption))
	if settings.Humanization.SimulateTyping {
		o.human.TypingDelay(o.sleepCtx(ctx), len(text))
	}
	if err := o.client.Comment(ctx, post.MediaID, text); err != nil {
		o.recordAttempt(ctx, info, post.MediaID, action.Comment, text, err)
		return derrors.ActionFailed(err, string(action.Comment), info.Username)
	}
	o.commitAttempt(ctx, info, post.MediaID, action.Comment, text, dec)
	return nil
}

// maybeMessage sends a DM unless one already went out inside the dedup
// window. A suppressed send is recorded as a failed ledger entry so the
// suppression itself is visible in history.
func (o *Orchestrator) maybeMessage(ctx context.Context, settings *config.Settings, info *platform.UserInfo) error {
	dec, err := o.governor.TryConsume(ctx, o.accountID, settings, action.Message)
	if err != nil {
		return derrors.StoreUnavailable(err)
	}
	if !dec.Allowed {
		return nil
	}

	recent, err := o.ledger.HasRecentSuccess(ctx, o.accountID, info.UserID, action.Message, settings.MessageDedupWindow.Std())
	if err != nil {
		return derrors.StoreUnavailable(err)
	}
	if recent {
		slog.Info("Already sent DM recently, skipping", logfields.Target(info.Username))
		o.recordAttempt(ctx, info, "", action.Message, "", derrors.New(
			derrors.CategoryControl, derrors.SeverityInfo, "Already sent DM recently"))
		return nil
	}

	subject, topic := content.SubjectForBio(info.Biography)
	text := o.texts.GenerateMessage(subject, info.Username, topic)
	if settings.Humanization.SimulateTyping {
		o.human.TypingDelay(o.sleepCtx(ctx), len(text))
	}
	if err := o.client.SendMessage(ctx, info.UserID, text); err != nil {
		o.recordAttempt(ctx, info, "", action.Message, text, err)
		return derrors.ActionFailed(err, string(action.Message), info.Username)
	}
	o.commitAttempt(ctx, info, "", action.Message, text, dec)
	return nil
}

// commitAttempt records a successful action: quota commit, ledger entry,
// metrics. Ledger and stats failures are logged, never fatal.
func (o *Orchestrator) commitAttempt(ctx context.Context, info *platform.UserInfo, mediaID string, kind action.Kind, payload string, dec governor.Decision) {
	if _, err := o.governor.Commit(ctx, o.accountID, kind); err != nil {
		slog.Error("Failed to commit quota", logfields.Action(string(kind)), logfields.Error(err))
	}
	o.recorder.IncAction(string(kind), true)
	o.recorder.SetQuotaRemaining(string(kind), dec.Remaining)
	if err := o.ledger.Record(ctx, ledger.Entry{
		AccountID:      o.accountID,
		TargetUserID:   info.UserID,
		TargetUsername: info.Username,
		MediaID:        mediaID,
		Kind:           kind,
		Content:        payload,
		Successful:     true,
	}); err != nil {
		slog.Error("Failed to record ledger entry", logfields.Error(err))
	}
}

// recordAttempt records a failed or suppressed action in the ledger.
func (o *Orchestrator) recordAttempt(ctx context.Context, info *platform.UserInfo, mediaID string, kind action.Kind, payload string, cause error) {
	o.recorder.IncAction(string(kind), false)
	if err := o.ledger.Record(ctx, ledger.Entry{
		AccountID:      o.accountID,
		TargetUserID:   info.UserID,
		TargetUsername: info.Username,
		MediaID:        mediaID,
		Kind:           kind,
		Content:        payload,
		Successful:     false,
		ErrorMessage:   cause.Error(),
	}); err != nil {
		slog.Error("Failed to record ledger entry", logfields.Error(err))
	}
}

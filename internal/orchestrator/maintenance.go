package orchestrator

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/socialpilot/internal/action"
	"git.home.luguber.info/inful/socialpilot/internal/config"
	"git.home.luguber.info/inful/socialpilot/internal/discovery"
	derrors "git.home.luguber.info/inful/socialpilot/internal/errors"
	"git.home.luguber.info/inful/socialpilot/internal/ledger"
	"git.home.luguber.info/inful/socialpilot/internal/logfields"
	"git.home.luguber.info/inful/socialpilot/internal/relationship"
	"git.home.luguber.info/inful/socialpilot/internal/store"
)

// Maintenance operations. These are also callable outside a run (the
// scheduler fires them on their own cron lines); they never touch the run
// state and rely on the governor's atomic counters for safety against a
// concurrent run.

// RunUnfollowPass unfollows aged non-reciprocated targets. A positive
// limitOverride replaces the configured daily unfollow cap for this
// invocation only; shared settings are never mutated.
func (o *Orchestrator) RunUnfollowPass(ctx context.Context, limitOverride int) error {
	return o.unfollowPass(ctx, o.settings(), limitOverride)
}

func (o *Orchestrator) unfollowPass(ctx context.Context, settings *config.Settings, limitOverride int) error {
	limit := settings.Limits.Get(action.Unfollow)
	if limitOverride > 0 {
		limit = limitOverride
	}

	candidates, err := o.rels.SelectUnfollowCandidates(ctx, o.accountID, settings.UnfollowMinAge.Std(), limit)
	if err != nil {
		return derrors.StoreUnavailable(err)
	}
	slog.Info("Unfollow pass", logfields.Count(len(candidates)), logfields.Limit(limit))

	for _, rel := range candidates {
		if o.stopped() {
			return nil
		}
		dec, err := o.governor.TryConsumeLimit(ctx, o.accountID, settings, action.Unfollow, limit)
		if err != nil {
			return derrors.StoreUnavailable(err)
		}
		if !dec.Allowed {
			slog.Debug("Unfollow gate closed", slog.String("reason", dec.Reason))
			return nil
		}

		o.pace(ctx, settings)
		if err := o.client.Unfollow(ctx, rel.TargetUserID); err != nil {
			o.recordTargetFailure(ctx, rel.TargetUsername,
				derrors.ActionFailed(err, string(action.Unfollow), rel.TargetUsername))
			continue
		}
		if err := o.rels.RecordUnfollow(ctx, rel); err != nil {
			slog.Error("Failed to record unfollow", logfields.Target(rel.TargetUsername), logfields.Error(err))
			continue
		}
		if _, err := o.governor.Commit(ctx, o.accountID, action.Unfollow); err != nil {
			slog.Error("Failed to commit unfollow quota", logfields.Error(err))
		}
		o.recorder.IncAction(string(action.Unfollow), true)
		if err := o.ledger.Record(ctx, ledger.Entry{
			AccountID:      o.accountID,
			TargetUserID:   rel.TargetUserID,
			TargetUsername: rel.TargetUsername,
			Kind:           action.Unfollow,
			Successful:     true,
		}); err != nil {
			slog.Error("Failed to record ledger entry", logfields.Error(err))
		}
	}
	return nil
}

// followPass follows new candidates that pass the target criteria, up to the
// remaining daily follow quota. Targets with a live relationship are skipped.
func (o *Orchestrator) followPass(ctx context.Context, settings *config.Settings, candidates []discovery.Candidate) error {
	for _, cand := range candidates {
		if o.stopped() {
			return nil
		}
		existing, err := o.store.ActiveRelationship(ctx, o.accountID, cand.UserID)
		if err != nil {
			return derrors.StoreUnavailable(err)
		}
		if existing != nil {
			continue
		}

		dec, err := o.governor.TryConsume(ctx, o.accountID, settings, action.Follow)
		if err != nil {
			return derrors.StoreUnavailable(err)
		}
		if !dec.Allowed {
			slog.Debug("Follow gate closed", slog.String("reason", dec.Reason))
			return nil
		}

		info, err := o.client.FetchUserInfo(ctx, cand.UserID)
		if err != nil {
			o.recordTargetFailure(ctx, cand.Username,
				derrors.ActionFailed(err, "fetch_user_info", cand.Username))
			continue
		}
		if !discovery.MatchesCriteria(settings.TargetCriteria, info) {
			slog.Debug("Candidate outside target criteria", logfields.Target(info.Username))
			continue
		}

		o.pace(ctx, settings)
		if err := o.client.Follow(ctx, info.UserID); err != nil {
			o.recordAttempt(ctx, info, "", action.Follow, "", err)
			o.recordTargetFailure(ctx, info.Username,
				derrors.ActionFailed(err, string(action.Follow), info.Username))
			continue
		}
		if _, err := o.rels.RecordFollow(ctx, o.accountID, relationship.FollowTarget{
			UserID:          info.UserID,
			Username:        info.Username,
			DiscoveryMethod: cand.SourceTag,
			FollowerCount:   info.FollowerCount,
			Pending:         info.IsPrivate,
		}); err != nil {
			slog.Error("Failed to record follow", logfields.Target(info.Username), logfields.Error(err))
			continue
		}
		o.commitAttempt(ctx, info, "", action.Follow, "", dec)
	}
	return nil
}

// RunReciprocitySweep checks a batch of unresolved followings for follow-backs
// and marks reciprocated ones. Pending requests that were accepted are
// confirmed along the way.
func (o *Orchestrator) RunReciprocitySweep(ctx context.Context) error {
	rels, err := o.rels.UncheckedFollowing(ctx, o.accountID, reciprocityBatch)
	if err != nil {
		return derrors.StoreUnavailable(err)
	}
	slog.Info("Reciprocity sweep", logfields.Count(len(rels)))

	checked, reciprocated := 0, 0
	for _, rel := range rels {
		if o.stopped() {
			break
		}
		info, err := o.client.FetchUserInfo(ctx, rel.TargetUserID)
		if err != nil {
			slog.Warn("Reciprocity check failed", logfields.Target(rel.TargetUsername), logfields.Error(err))
			continue
		}
		checked++
		if rel.Status == store.StatusPending && info.ViewerFollows {
			if err := o.rels.ConfirmFollow(ctx, rel); err != nil {
				slog.Error("Failed to confirm follow", logfields.Target(rel.TargetUsername), logfields.Error(err))
				continue
			}
		}
		if rel.Status == store.StatusFollowing && info.FollowsViewer {
			if err := o.rels.MarkReciprocated(ctx, rel); err != nil {
				slog.Error("Failed to mark reciprocated", logfields.Target(rel.TargetUsername), logfields.Error(err))
				continue
			}
			reciprocated++
		}
		o.human.Delay(o.sleepCtx(ctx), 2, 5)
	}

	slog.Info("Reciprocity sweep done", logfields.Count(checked), slog.Int("reciprocated", reciprocated))
	return nil
}

// RefreshTargets warms the discovery pool outside a run and reports how many
// candidates are currently available.
func (o *Orchestrator) RefreshTargets(ctx context.Context) (int, error) {
	candidates, err := o.finder.FindCandidates(ctx, targetPoolSize)
	if err != nil {
		return 0, derrors.DiscoveryFailed(err)
	}
	slog.Info("Target pool refreshed", logfields.Count(len(candidates)))
	return len(candidates), nil
}

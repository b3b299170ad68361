// Package discovery finds the targets a run interacts with. Finders are
// pluggable; the engine ships with a ledger-backed re-engagement finder and
// a composite that merges several sources while deduplicating targets.
package discovery

import (
	"context"

	"git.home.luguber.info/inful/socialpilot/internal/config"
	derrors "git.home.luguber.info/inful/socialpilot/internal/errors"
	"git.home.luguber.info/inful/socialpilot/internal/ledger"
	"git.home.luguber.info/inful/socialpilot/internal/platform"
)

// Candidate is one discovered target.
type Candidate struct {
	UserID   string
	Username string

	// Score orders candidates within a finder; higher is better. Scores are
	// only comparable inside a single finder.
	Score float64

	// SourceTag names where the candidate came from, e.g. "reengagement" or
	// "seed". Stored on the relationship row for later analysis.
	SourceTag string
}

// Finder produces interaction candidates. Implementations must be safe for
// repeated calls; the orchestrator invokes one at the start of every run.
type Finder interface {
	FindCandidates(ctx context.Context, limit int) ([]Candidate, error)
}

// ReengagementFinder proposes targets the account has successfully engaged
// before, most engaged first. It is the default finder: without an external
// feed, past engagement is the best predictor of a reply.
type ReengagementFinder struct {
	ledger    *ledger.Ledger
	accountID string
}

// NewReengagement creates a finder over the account's interaction history.
func NewReengagement(l *ledger.Ledger, accountID string) *ReengagementFinder {
	return &ReengagementFinder{ledger: l, accountID: accountID}
}

func (f *ReengagementFinder) FindCandidates(ctx context.Context, limit int) ([]Candidate, error) {
	aggs, err := f.ledger.AggregateByTarget(ctx, f.accountID, limit)
	if err != nil {
		return nil, derrors.DiscoveryFailed(err)
	}

	out := make([]Candidate, 0, len(aggs))
	for _, a := range aggs {
		out = append(out, Candidate{
			UserID:    a.TargetUserID,
			Username:  a.TargetUsername,
			Score:     float64(a.Count),
			SourceTag: "reengagement",
		})
	}
	return out, nil
}

// SeedFinder serves a fixed operator-provided target list. Used to bootstrap
// a fresh account whose ledger is still empty.
type SeedFinder struct {
	client    platform.Client
	usernames []string
}

// NewSeed creates a finder over a static username list.
func NewSeed(client platform.Client, usernames []string) *SeedFinder {
	return &SeedFinder{client: client, usernames: usernames}
}

func (f *SeedFinder) FindCandidates(ctx context.Context, limit int) ([]Candidate, error) {
	out := make([]Candidate, 0, min(limit, len(f.usernames)))
	for _, name := range f.usernames {
		if len(out) >= limit {
			break
		}
		info, err := f.client.FetchUserByName(ctx, name)
		if err != nil {
			// A single unresolvable seed should not sink the whole list.
			continue
		}
		out = append(out, Candidate{
			UserID:    info.UserID,
			Username:  info.Username,
			SourceTag: "seed",
		})
	}
	return out, nil
}

// Composite queries finders in order and merges their results, keeping the
// first occurrence of each user. Earlier finders take precedence.
type Composite struct {
	finders []Finder
}

// NewComposite creates a merged finder.
func NewComposite(finders ...Finder) *Composite {
	return &Composite{finders: finders}
}

func (c *Composite) FindCandidates(ctx context.Context, limit int) ([]Candidate, error) {
	seen := make(map[string]struct{})
	var out []Candidate
	for _, f := range c.finders {
		if len(out) >= limit {
			break
		}
		cands, err := f.FindCandidates(ctx, limit-len(out))
		if err != nil {
			return nil, err
		}
		for _, cand := range cands {
			if _, dup := seen[cand.UserID]; dup {
				continue
			}
			seen[cand.UserID] = struct{}{}
			out = append(out, cand)
			if len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

// MatchesCriteria reports whether a profile passes the operator's follow
// filter. A zero MaxFollowers means no upper bound.
func MatchesCriteria(tc config.TargetCriteria, info *platform.UserInfo) bool {
	if info.FollowerCount < tc.MinFollowers {
		return false
	}
	if tc.MaxFollowers > 0 && info.FollowerCount > tc.MaxFollowers {
		return false
	}
	if tc.MinEngagementRate > 0 && info.MediaCount > 0 {
		rate := engagementRate(info)
		if rate < tc.MinEngagementRate {
			return false
		}
	}
	return true
}

// engagementRate approximates audience engagement as followers per post,
// expressed as a percentage of the follower count. Profiles with no posts
// report zero.
func engagementRate(info *platform.UserInfo) float64 {
	if info.FollowerCount == 0 || info.MediaCount == 0 {
		return 0
	}
	// Without per-post like counts at discovery time, posting cadence stands
	// in for engagement: accounts with an unusually thin feed relative to
	// their audience score low.
	return float64(info.MediaCount) / float64(info.FollowerCount) * 100
}

package server

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"git.home.luguber.info/inful/socialpilot/internal/action"
	derrors "git.home.luguber.info/inful/socialpilot/internal/errors"
	"git.home.luguber.info/inful/socialpilot/internal/logfields"
	"git.home.luguber.info/inful/socialpilot/internal/store"
)

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Orchestrator.Start(r.Context()); err != nil {
		switch {
		case derrors.HasCode(err, derrors.CodeAlreadyRunning):
			s.Error(w, http.StatusConflict, err.Error())
		case derrors.HasCode(err, derrors.CodeModeInactive),
			derrors.HasCode(err, derrors.CodeOutsideActiveHours):
			s.Error(w, http.StatusUnprocessableEntity, err.Error())
		default:
			s.Error(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	s.Success(w, http.StatusOK, s.deps.Orchestrator.Status())
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	phase, err := s.deps.Orchestrator.Stop()
	if err != nil {
		if derrors.HasCode(err, derrors.CodeNotRunning) {
			s.Error(w, http.StatusConflict, err.Error())
			return
		}
		s.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.Success(w, http.StatusOK, map[string]string{"interrupted_phase": string(phase)})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	s.Success(w, http.StatusOK, s.deps.Orchestrator.Status())
}

// handleRunTask fires a registered task immediately. The execution itself is
// asynchronous; a long unfollow pass should not hold an HTTP request open.
func (s *Server) handleRunTask(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if !slices.Contains(s.deps.Scheduler.Names(), name) {
		s.Error(w, http.StatusNotFound, "unknown task: "+name)
		return
	}

	// The request context dies with the response; the task keeps running.
	ctx := context.WithoutCancel(r.Context())
	go func() {
		if err := s.deps.Scheduler.TriggerNow(ctx, name); err != nil {
			slog.Error("Manually triggered task failed", logfields.Task(name), logfields.Error(err))
		}
	}()
	s.Success(w, http.StatusAccepted, map[string]string{"task": name})
}

// statsResponse is the GET /api/stats payload.
type statsResponse struct {
	Daily          action.Counters  `json:"daily"`
	Limits         action.Counters  `json:"limits"`
	ByKind         []store.KindStat `json:"by_kind"`
	FollowBackRate float64          `json:"follow_back_rate"`
	MostEngaged    []targetSummary  `json:"most_engaged"`
	ErrorCount     int              `json:"error_count"`
	LastError      string           `json:"last_error,omitempty"`
}

type targetSummary struct {
	UserID   string    `json:"user_id"`
	Username string    `json:"username"`
	Count    int       `json:"count"`
	LastSeen time.Time `json:"last_seen"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	days := queryInt(r, "days", 7)

	acct, err := s.deps.Store.ActiveAccount(ctx)
	if err != nil {
		s.Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	end := time.Now()
	byKind, err := s.deps.Ledger.StatsByKind(ctx, s.deps.AccountID, end.AddDate(0, 0, -days), end)
	if err != nil {
		s.Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	rate, err := s.deps.Relationship.FollowBackRate(ctx, s.deps.AccountID)
	if err != nil {
		s.Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	aggs, err := s.deps.Ledger.AggregateByTarget(ctx, s.deps.AccountID, 10)
	if err != nil {
		s.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	engaged := make([]targetSummary, 0, len(aggs))
	for _, a := range aggs {
		engaged = append(engaged, targetSummary{
			UserID:   a.TargetUserID,
			Username: a.TargetUsername,
			Count:    a.Count,
			LastSeen: a.LastSeen,
		})
	}

	s.Success(w, http.StatusOK, statsResponse{
		Daily:          acct.DailyStats,
		Limits:         s.deps.Settings().Limits,
		ByKind:         byKind,
		FollowBackRate: rate,
		MostEngaged:    engaged,
		ErrorCount:     acct.ErrorCount,
		LastError:      acct.LastError,
	})
}

type unfollowCandidate struct {
	UserID     string    `json:"user_id"`
	Username   string    `json:"username"`
	FollowedAt time.Time `json:"followed_at"`
}

func (s *Server) handleUnfollowCandidates(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	minAge := s.deps.Settings().UnfollowMinAge.Std()

	rels, err := s.deps.Relationship.SelectUnfollowCandidates(r.Context(), s.deps.AccountID, minAge, limit)
	if err != nil {
		s.Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	out := make([]unfollowCandidate, 0, len(rels))
	for _, rel := range rels {
		out = append(out, unfollowCandidate{
			UserID:     rel.TargetUserID,
			Username:   rel.TargetUsername,
			FollowedAt: rel.FollowedAt,
		})
	}
	s.Success(w, http.StatusOK, out)
}

func queryInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

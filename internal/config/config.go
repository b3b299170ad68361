// Package config defines the application configuration: the operator-tunable
// bot settings (mode, feature flags, daily limits, active-hour schedule,
// humanization parameters) plus store, server, and task-schedule wiring.
package config

import (
	"time"

	"git.home.luguber.info/inful/socialpilot/internal/action"
)

// Mode controls whether the bot acts at all and how visibly.
type Mode string

const (
	ModeActive      Mode = "active"
	ModePassive     Mode = "passive"
	ModeMaintenance Mode = "maintenance"
	ModeStealth     Mode = "stealth"
)

// Config represents the application configuration
type Config struct {
	Account  AccountConfig `yaml:"account" validate:"required"`
	Settings Settings      `yaml:"settings"`
	Store    StoreConfig   `yaml:"store"`
	Server   ServerConfig  `yaml:"server"`
	Tasks    TasksConfig   `yaml:"tasks"`
}

// AccountConfig identifies the automated account. Credentials live outside
// this file (session handling belongs to the platform client).
type AccountConfig struct {
	Username string `yaml:"username" validate:"required,min=1"`
}

// Settings is the operator-tunable behavior of the engine. The orchestration
// core reads it at phase start and never mutates it; only the control API
// writes a new revision.
type Settings struct {
	Mode            Mode            `yaml:"mode" validate:"oneof=active passive maintenance stealth"`
	EnabledFeatures action.Features `yaml:"enabled_features"`
	Limits          action.Counters `yaml:"limits"`
	Schedule        Schedule        `yaml:"schedule"`
	Humanization    Humanization    `yaml:"humanization"`
	TargetCriteria  TargetCriteria  `yaml:"target_criteria"`

	// MessageDedupWindow is the minimum gap before the same target may
	// receive another direct message.
	MessageDedupWindow Duration `yaml:"message_dedup_window"`

	// UnfollowMinAge is how long a non-reciprocated follow is kept before it
	// becomes an unfollow candidate.
	UnfollowMinAge Duration `yaml:"unfollow_min_age"`
}

// Schedule defines the daily active-hour window. Hours are half-open:
// the bot acts while StartHour <= hour < EndHour.
type Schedule struct {
	StartHour        int                    `yaml:"start_hour" validate:"min=0,max=23"`
	EndHour          int                    `yaml:"end_hour" validate:"min=0,max=24"`
	ActiveOnWeekends bool                   `yaml:"active_on_weekends"`
	Days             map[string]DayOverride `yaml:"days,omitempty" validate:"dive,keys,oneof=sunday monday tuesday wednesday thursday friday saturday,endkeys"`
}

// DayOverride replaces the default window for one weekday. Active=false
// excludes the day entirely.
type DayOverride struct {
	Active    bool `yaml:"active"`
	StartHour int  `yaml:"start_hour" validate:"min=0,max=23"`
	EndHour   int  `yaml:"end_hour" validate:"min=0,max=24"`
}

// Humanization tunes the randomized pacing between actions.
type Humanization struct {
	MinActionDelay float64 `yaml:"min_action_delay" validate:"min=0"` // seconds
	MaxActionDelay float64 `yaml:"max_action_delay" validate:"min=0"` // seconds
	RandomizeDelay bool    `yaml:"randomize_delay"`
	SimulateTyping bool    `yaml:"simulate_typing"`
}

// TargetCriteria filters follow candidates before any action is taken.
type TargetCriteria struct {
	MinFollowers      int     `yaml:"min_followers" validate:"min=0"`
	MaxFollowers      int     `yaml:"max_followers" validate:"min=0"`
	MinEngagementRate float64 `yaml:"min_engagement_rate" validate:"min=0"` // percent
}

// StoreConfig locates the SQLite database. ":memory:" is valid.
type StoreConfig struct {
	Path string `yaml:"path" validate:"required"`
}

// ServerConfig configures the HTTP control surface.
type ServerConfig struct {
	Addr      string `yaml:"addr"`
	AuthToken string `yaml:"auth_token,omitempty"`
	Metrics   bool   `yaml:"metrics"`
}

// TasksConfig holds the cron expressions for the built-in scheduled tasks.
// Standard five-field cron syntax.
type TasksConfig struct {
	StartBot           string `yaml:"start_bot"`
	StopBot            string `yaml:"stop_bot"`
	ResetDailyStats    string `yaml:"reset_daily_stats"`
	RefreshTrends      string `yaml:"refresh_trends"`
	ProcessReciprocity string `yaml:"process_reciprocity"`
	UnfollowPass       string `yaml:"unfollow_pass"`
}

// Default returns the configuration the engine ships with. Limits sit well
// below typical platform thresholds.
func Default() *Config {
	return &Config{
		Settings: Settings{
			Mode: ModeActive,
			EnabledFeatures: action.Features{
				Like:      true,
				Comment:   true,
				Follow:    false,
				Unfollow:  false,
				Message:   true,
				StoryView: true,
			},
			Limits: action.Counters{
				Likes:      80,
				Comments:   30,
				Follows:    30,
				Unfollows:  30,
				Messages:   15,
				StoryViews: 100,
			},
			Schedule: Schedule{
				StartHour:        9,
				EndHour:          23,
				ActiveOnWeekends: true,
			},
			Humanization: Humanization{
				MinActionDelay: 30,
				MaxActionDelay: 90,
				RandomizeDelay: true,
				SimulateTyping: true,
			},
			TargetCriteria: TargetCriteria{
				MinFollowers:      100,
				MaxFollowers:      10000,
				MinEngagementRate: 1,
			},
			MessageDedupWindow: Duration(7 * 24 * time.Hour),
			UnfollowMinAge:     Duration(3 * 24 * time.Hour),
		},
		Store: StoreConfig{
			Path: "./socialpilot.db",
		},
		Server: ServerConfig{
			Addr:    ":8580",
			Metrics: true,
		},
		Tasks: TasksConfig{
			StartBot:           "0 9 * * *",
			StopBot:            "0 23 * * *",
			ResetDailyStats:    "0 0 * * *",
			RefreshTrends:      "0 */6 * * *",
			ProcessReciprocity: "0 */12 * * *",
			UnfollowPass:       "0 3 * * *",
		},
	}
}

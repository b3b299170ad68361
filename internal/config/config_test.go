package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	derrors "git.home.luguber.info/inful/socialpilot/internal/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "socialpilot.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	require.Equal(t, ModeActive, cfg.Settings.Mode)
	require.Equal(t, 80, cfg.Settings.Limits.Likes)
	require.Equal(t, 15, cfg.Settings.Limits.Messages)
	require.Equal(t, 9, cfg.Settings.Schedule.StartHour)
	require.Equal(t, 23, cfg.Settings.Schedule.EndHour)
	require.Equal(t, 7*24*time.Hour, cfg.Settings.MessageDedupWindow.Std())
	require.Equal(t, 3*24*time.Hour, cfg.Settings.UnfollowMinAge.Std())
	require.Equal(t, ":8580", cfg.Server.Addr)
	require.Equal(t, "0 3 * * *", cfg.Tasks.UnfollowPass)
}

func TestLoadSparseFileKeepsDefaults(t *testing.T) {
	path := writeConfig(t, `
account:
  username: pilot
settings:
  mode: passive
  limits:
    likes: 10
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "pilot", cfg.Account.Username)
	require.Equal(t, ModePassive, cfg.Settings.Mode)
	require.Equal(t, 10, cfg.Settings.Limits.Likes)
	// Untouched values come from Default().
	require.Equal(t, 30, cfg.Settings.Limits.Comments)
	require.Equal(t, 23, cfg.Settings.Schedule.EndHour)
	require.True(t, cfg.Settings.Humanization.RandomizeDelay)
}

func TestLoadExpandsEnvironment(t *testing.T) {
	t.Setenv("SP_TEST_USERNAME", "envpilot")
	path := writeConfig(t, `
account:
  username: "${SP_TEST_USERNAME}"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "envpilot", cfg.Account.Username)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	require.Equal(t, derrors.CategoryConfig, derrors.GetCategory(err))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "missing username",
			mutate:  func(c *Config) { c.Account.Username = "" },
			wantErr: "invalid configuration",
		},
		{
			name:    "unknown mode",
			mutate:  func(c *Config) { c.Settings.Mode = "aggressive" },
			wantErr: "invalid configuration",
		},
		{
			name: "inverted schedule window",
			mutate: func(c *Config) {
				c.Settings.Schedule.StartHour = 22
				c.Settings.Schedule.EndHour = 3
			},
			wantErr: "end_hour must be after start_hour",
		},
		{
			name: "inverted day override",
			mutate: func(c *Config) {
				c.Settings.Schedule.Days = map[string]DayOverride{
					"sunday": {Active: true, StartHour: 14, EndHour: 10},
				}
			},
			wantErr: "day override",
		},
		{
			name: "inactive day override may be empty",
			mutate: func(c *Config) {
				c.Settings.Schedule.Days = map[string]DayOverride{
					"sunday": {Active: false},
				}
			},
		},
		{
			name: "inverted delay range",
			mutate: func(c *Config) {
				c.Settings.Humanization.MinActionDelay = 90
				c.Settings.Humanization.MaxActionDelay = 30
			},
			wantErr: "max_action_delay",
		},
		{
			name: "inverted follower window",
			mutate: func(c *Config) {
				c.Settings.TargetCriteria.MinFollowers = 5000
				c.Settings.TargetCriteria.MaxFollowers = 100
			},
			wantErr: "max_followers",
		},
		{
			name: "unbounded follower ceiling allowed",
			mutate: func(c *Config) {
				c.Settings.TargetCriteria.MinFollowers = 5000
				c.Settings.TargetCriteria.MaxFollowers = 0
			},
		},
		{
			name:    "negative dedup window",
			mutate:  func(c *Config) { c.Settings.MessageDedupWindow = Duration(-time.Hour) },
			wantErr: "must not be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Account.Username = "pilot"
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDurationYAML(t *testing.T) {
	t.Run("string form", func(t *testing.T) {
		var d Duration
		require.NoError(t, yaml.Unmarshal([]byte(`"72h"`), &d))
		require.Equal(t, 72*time.Hour, d.Std())
	})

	t.Run("integer nanoseconds", func(t *testing.T) {
		var d Duration
		require.NoError(t, yaml.Unmarshal([]byte(`1000000000`), &d))
		require.Equal(t, time.Second, d.Std())
	})

	t.Run("invalid string", func(t *testing.T) {
		var d Duration
		require.Error(t, yaml.Unmarshal([]byte(`"three days"`), &d))
	})

	t.Run("round trip", func(t *testing.T) {
		out, err := yaml.Marshal(Duration(90 * time.Minute))
		require.NoError(t, err)
		require.Equal(t, "1h30m0s\n", string(out))
	})
}

func TestInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "socialpilot.yaml")

	require.NoError(t, Init(path, false))

	// The generated example must itself load and validate once the
	// environment placeholder is filled in.
	t.Setenv("SOCIALPILOT_USERNAME", "pilot")
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "pilot", cfg.Account.Username)

	// A second init without force refuses to overwrite.
	err = Init(path, false)
	require.Error(t, err)
	require.Contains(t, err.Error(), "already exists")

	require.NoError(t, Init(path, true))
}

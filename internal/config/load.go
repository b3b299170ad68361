package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	derrors "git.home.luguber.info/inful/socialpilot/internal/errors"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads, expands, defaults, and validates the configuration file.
// Values start from Default(), so a sparse file only overrides what it names.
func Load(configPath string) (*Config, error) {
	// Best effort; a missing .env is not an error.
	_ = godotenv.Load()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, derrors.New(derrors.CategoryConfig, derrors.SeverityFatal,
				"configuration file not found").WithContext("path", configPath)
		}
		return nil, derrors.Wrap(err, derrors.CategoryConfig, derrors.SeverityFatal,
			"failed to read config file")
	}

	// Expand environment variables in the YAML content.
	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, derrors.Wrap(err, derrors.CategoryConfig, derrors.SeverityFatal,
			"failed to unmarshal config")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks structural constraints and the cross-field rules the
// validator tags cannot express.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return derrors.Wrap(err, derrors.CategoryValidation, derrors.SeverityFatal,
			"invalid configuration")
	}

	if c.Settings.Schedule.EndHour <= c.Settings.Schedule.StartHour {
		return derrors.New(derrors.CategoryValidation, derrors.SeverityFatal,
			"schedule end_hour must be after start_hour").
			WithContext("start_hour", c.Settings.Schedule.StartHour).
			WithContext("end_hour", c.Settings.Schedule.EndHour)
	}
	for day, ov := range c.Settings.Schedule.Days {
		if ov.Active && ov.EndHour <= ov.StartHour {
			return derrors.New(derrors.CategoryValidation, derrors.SeverityFatal,
				"day override end_hour must be after start_hour").
				WithContext("day", day)
		}
	}
	if c.Settings.Humanization.MaxActionDelay < c.Settings.Humanization.MinActionDelay {
		return derrors.New(derrors.CategoryValidation, derrors.SeverityFatal,
			"humanization max_action_delay must be >= min_action_delay")
	}
	if tc := c.Settings.TargetCriteria; tc.MaxFollowers > 0 && tc.MaxFollowers < tc.MinFollowers {
		return derrors.New(derrors.CategoryValidation, derrors.SeverityFatal,
			"target_criteria max_followers must be >= min_followers")
	}
	if c.Settings.MessageDedupWindow < 0 || c.Settings.UnfollowMinAge < 0 {
		return derrors.New(derrors.CategoryValidation, derrors.SeverityFatal,
			"dedup window and unfollow age must not be negative")
	}
	return nil
}

// Init creates a new configuration file with example content.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}
	return os.WriteFile(configPath, []byte(exampleConfig), 0o644)
}

const exampleConfig = `# socialpilot configuration
account:
  username: "${SOCIALPILOT_USERNAME}"

settings:
  # active | passive | maintenance | stealth
  mode: active

  enabled_features:
    like: true
    comment: true
    follow: false
    unfollow: false
    message: true
    story_view: true

  limits:
    likes: 80
    comments: 30
    follows: 30
    unfollows: 30
    messages: 15
    story_views: 100

  schedule:
    start_hour: 9
    end_hour: 23
    active_on_weekends: true
    # days:
    #   sunday:
    #     active: false

  humanization:
    min_action_delay: 30
    max_action_delay: 90
    randomize_delay: true
    simulate_typing: true

  target_criteria:
    min_followers: 100
    max_followers: 10000
    min_engagement_rate: 1

  message_dedup_window: 168h
  unfollow_min_age: 72h

store:
  path: ./socialpilot.db

server:
  addr: ":8580"
  # auth_token: "${SOCIALPILOT_API_TOKEN}"
  metrics: true

tasks:
  start_bot: "0 9 * * *"
  stop_bot: "0 23 * * *"
  reset_daily_stats: "0 0 * * *"
  refresh_trends: "0 */6 * * *"
  process_reciprocity: "0 */12 * * *"
  unfollow_pass: "0 3 * * *"
`

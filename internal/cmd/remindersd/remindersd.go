// Package remindersd parses reminders engine flags and launches the runtime.
package remindersd

import (
	"context"
	"flag"
	"time"

	entrypoint "github.com/murmurapp/murmur/internal/platform/cmd"
	"github.com/murmurapp/murmur/internal/services/reminders/app"
)

// Config holds reminders engine configuration.
type Config struct {
	Port               int           `env:"MURMUR_REMINDERS_PORT" envDefault:"8090"`
	DBPath             string        `env:"MURMUR_REMINDERS_DB_PATH" envDefault:"data/reminders.db"`
	UserID             string        `env:"MURMUR_REMINDERS_USER_ID"`
	Locale             string        `env:"MURMUR_REMINDERS_LOCALE" envDefault:"en"`
	RemoteBaseURL      string        `env:"MURMUR_REMINDERS_REMOTE_URL"`
	RemoteAuthToken    string        `env:"MURMUR_REMINDERS_REMOTE_TOKEN"`
	InsightsBaseURL    string        `env:"MURMUR_REMINDERS_INSIGHTS_URL"`
	SchedulingDisabled bool          `env:"MURMUR_REMINDERS_SCHEDULING_DISABLED" envDefault:"false"`
	DriftCheckInterval time.Duration `env:"MURMUR_REMINDERS_DRIFT_CHECK_INTERVAL" envDefault:"10m"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.Port, "port", cfg.Port, "The reminders health gRPC server port")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "The reminders SQLite database path")
	fs.StringVar(&cfg.UserID, "user-id", cfg.UserID, "The local account user id")
	fs.StringVar(&cfg.Locale, "locale", cfg.Locale, "The notification copy locale")
	fs.StringVar(&cfg.RemoteBaseURL, "remote-url", cfg.RemoteBaseURL, "The backend notification API base URL")
	fs.StringVar(&cfg.RemoteAuthToken, "remote-token", cfg.RemoteAuthToken, "The backend API bearer token")
	fs.StringVar(&cfg.InsightsBaseURL, "insights-url", cfg.InsightsBaseURL, "The persona insight feed base URL")
	fs.BoolVar(&cfg.SchedulingDisabled, "scheduling-disabled", cfg.SchedulingDisabled, "Disable device-level trigger scheduling")
	fs.DurationVar(&cfg.DriftCheckInterval, "drift-check-interval", cfg.DriftCheckInterval, "Unread count drift check interval")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the reminders engine runtime.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceReminders, func(context.Context) error {
		return app.Run(ctx, app.RuntimeConfig{
			Port:               cfg.Port,
			DBPath:             cfg.DBPath,
			UserID:             cfg.UserID,
			Locale:             cfg.Locale,
			RemoteBaseURL:      cfg.RemoteBaseURL,
			RemoteAuthToken:    cfg.RemoteAuthToken,
			InsightsBaseURL:    cfg.InsightsBaseURL,
			SchedulingDisabled: cfg.SchedulingDisabled,
			DriftCheckInterval: cfg.DriftCheckInterval,
		})
	})
}

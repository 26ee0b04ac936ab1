package model

import "path/filepath"

// Config holds everything the bot needs at runtime. Secrets come from the
// environment, tunables from data/settings.yaml.
type Config struct {
	BotToken string
	AppID    string
	DataDir  string
	Settings Settings
}

// DatabasePath is the sqlite file under the data directory.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "bot.db")
}

// Settings are the runtime tunables loaded through viper.
type Settings struct {
	TicketRetentionDays  int    `mapstructure:"ticket_retention_days"`
	SweepIntervalMinutes int    `mapstructure:"sweep_interval_minutes"`
	TranscriptDir        string `mapstructure:"transcript_dir"`
	MaxPollOptions       int    `mapstructure:"max_poll_options"`
	TicketCategoryName   string `mapstructure:"ticket_category_name"`
}

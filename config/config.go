package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"moderation-bot/model"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads secrets from the environment and runtime tunables from
// <data dir>/settings.yaml. Missing settings fall back to defaults; a
// missing settings file is fine.
func Load() (*model.Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Info: .env file not found, relying on environment variables")
	}

	token := os.Getenv("BOT_TOKEN")
	if token == "" {
		return nil, errors.New("BOT_TOKEN environment variable not set")
	}
	appID := os.Getenv("APP_ID")
	if appID == "" {
		return nil, errors.New("APP_ID environment variable not set")
	}
	dataDir := os.Getenv("DATA_DIR")
	if dataDir == "" {
		dataDir = "./data"
	}

	settings, err := loadSettings(dataDir)
	if err != nil {
		return nil, err
	}

	return &model.Config{
		BotToken: token,
		AppID:    appID,
		DataDir:  dataDir,
		Settings: settings,
	}, nil
}

func loadSettings(dataDir string) (model.Settings, error) {
	v := viper.New()
	v.SetConfigName("settings")
	v.SetConfigType("yaml")
	v.AddConfigPath(dataDir)

	v.SetDefault("ticket_retention_days", 7)
	v.SetDefault("sweep_interval_minutes", 60)
	v.SetDefault("transcript_dir", filepath.Join(dataDir, "transcripts"))
	v.SetDefault("max_poll_options", 3)
	v.SetDefault("ticket_category_name", "Tickets")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return model.Settings{}, fmt.Errorf("failed to read settings file: %w", err)
		}
		log.Printf("Info: no settings.yaml in %s, using defaults", dataDir)
	}

	var settings model.Settings
	if err := v.Unmarshal(&settings); err != nil {
		return model.Settings{}, fmt.Errorf("failed to decode settings: %w", err)
	}
	return settings, nil
}

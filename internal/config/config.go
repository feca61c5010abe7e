package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the application's configuration.
type Config struct {
	Database struct {
		URL string `yaml:"url"`
	} `yaml:"database"`
	Auth struct {
		JWTSecret   string `yaml:"jwt_secret"`
		TokenTTLMin int64  `yaml:"token_ttl_minutes"`
	} `yaml:"auth"`
	Importer struct {
		// EventURL, when set, delegates pipeline runs to an external
		// worker instead of running them in-process.
		EventURL    string `yaml:"event_url"`
		LimitPerDay int    `yaml:"limit_per_day"`
		// DataDir is where uploaded bundles are staged, one
		// subdirectory per bot, for the worker to read.
		DataDir string `yaml:"data_dir"`
	} `yaml:"importer"`
	Training struct {
		EventURL    string `yaml:"event_url"`
		LimitPerDay int    `yaml:"limit_per_day"`
	} `yaml:"training"`
	Testing struct {
		EventURL    string `yaml:"event_url"`
		LimitPerDay int    `yaml:"limit_per_day"`
	} `yaml:"testing"`
	Agent struct {
		URL   string `yaml:"url"`
		Token string `yaml:"token"`
	} `yaml:"agent"`
	Notifications struct {
		Enabled          bool   `yaml:"enabled"`
		TelegramBotToken string `yaml:"telegram_bot_token"`
		TelegramChatID   int64  `yaml:"telegram_chat_id"`
	} `yaml:"notifications"`
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
}

// LoadConfig reads configuration from the specified YAML file.
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}

	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	if config.Importer.LimitPerDay == 0 {
		config.Importer.LimitPerDay = 5
	}
	if config.Importer.DataDir == "" {
		config.Importer.DataDir = "training_data"
	}
	if config.Training.LimitPerDay == 0 {
		config.Training.LimitPerDay = 5
	}
	if config.Testing.LimitPerDay == 0 {
		config.Testing.LimitPerDay = 5
	}
	if config.Auth.TokenTTLMin == 0 {
		config.Auth.TokenTTLMin = 10080
	}

	return config, nil
}

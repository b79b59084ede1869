// Package core wires configured platform connections to the registry and
// pumps their events through user handlers.
//
// The core package owns:
//
//   - Configuration loading and validation (from YAML files)
//   - Platform registration and the sealed registrar
//   - Connection lifecycle and the inbound event loop
//   - Whitelist-based access control in front of handlers
//
// # Example Configuration
//
//	bots:
//	  onebot:
//	    enabled: true
//	    url: "ws://127.0.0.1:6700"
//	    access_token: "${ONEBOT_TOKEN}"
//	  telegram:
//	    enabled: true
//	    token: "${TELEGRAM_TOKEN}"
//	security:
//	  whitelist_enabled: true
//	  allowed_users:
//	    telegram: ["123456"]
//	logging:
//	  level: "info"
//	  file: "logs/chatbridge.log"
package core

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/keepmind9/chatbridge/pkg/constants"
)

// Config is the complete chatbridge configuration.
type Config struct {
	Bots     map[string]BotConfig `yaml:"bots"`
	Security SecurityConfig       `yaml:"security"`
	Logging  LoggingConfig        `yaml:"logging"`
}

// BotConfig configures one platform connection. Fields apply per platform:
// url and access_token for onebot, token for telegram and discord, app_id
// and secret for qq, name for console.
type BotConfig struct {
	Enabled     bool   `yaml:"enabled"`
	URL         string `yaml:"url"`
	AccessToken string `yaml:"access_token"`
	Token       string `yaml:"token"`
	AppID       string `yaml:"app_id"`
	Secret      string `yaml:"secret"`
	Name        string `yaml:"name"`
}

// SecurityConfig holds the access control settings the engine enforces
// before handlers run.
type SecurityConfig struct {
	WhitelistEnabled bool                `yaml:"whitelist_enabled"`
	AllowedUsers     map[string][]string `yaml:"allowed_users"`
	Admins           map[string][]string `yaml:"admins"`
}

// LoggingConfig configures the global logger.
type LoggingConfig struct {
	Level        string `yaml:"level"`
	File         string `yaml:"file"`
	MaxSize      int    `yaml:"max_size"`
	MaxBackups   int    `yaml:"max_backups"`
	MaxAge       int    `yaml:"max_age"`
	Compress     bool   `yaml:"compress"`
	EnableStdout bool   `yaml:"enable_stdout"`
}

// LoadConfig loads configuration from file and expands environment
// variables.
func LoadConfig(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	expandedData, err := expandEnv(string(data))
	if err != nil {
		return nil, fmt.Errorf("failed to expand environment variables: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal([]byte(expandedData), &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// expandEnv replaces ${VAR_NAME} patterns with environment variable values
func expandEnv(input string) (string, error) {
	var missingVars []string

	result := os.Expand(input, func(key string) string {
		if val := os.Getenv(key); val != "" {
			return val
		}
		missingVars = append(missingVars, key)
		return ""
	})

	if len(missingVars) > 0 {
		return "", fmt.Errorf("missing required environment variables: %s",
			strings.Join(missingVars, ", "))
	}

	return result, nil
}

// validateConfig performs basic validation on the configuration
func validateConfig(config *Config) error {
	if config.Logging.Level == "" {
		config.Logging.Level = constants.DefaultLogLevel
	}
	if config.Logging.MaxSize == 0 {
		config.Logging.MaxSize = constants.DefaultLogMaxSize
	}
	if config.Logging.MaxBackups == 0 {
		config.Logging.MaxBackups = constants.DefaultLogMaxBackups
	}
	if config.Logging.MaxAge == 0 {
		config.Logging.MaxAge = constants.DefaultLogMaxAge
	}

	enabled := 0
	for platform, bot := range config.Bots {
		if !bot.Enabled {
			continue
		}
		enabled++
		switch platform {
		case "onebot":
			if bot.URL == "" {
				return fmt.Errorf("bots.onebot.url is required")
			}
		case "telegram", "discord":
			if bot.Token == "" {
				return fmt.Errorf("bots.%s.token is required", platform)
			}
		case "qq":
			if bot.AppID == "" || bot.Secret == "" {
				return fmt.Errorf("bots.qq.app_id and bots.qq.secret are required")
			}
		case "console":
			// No credentials
		default:
			return fmt.Errorf("unknown bot platform %q", platform)
		}
	}
	if enabled == 0 {
		return fmt.Errorf("at least one bot must be enabled")
	}

	if config.Security.WhitelistEnabled && len(config.Security.AllowedUsers) == 0 {
		return fmt.Errorf("security.allowed_users cannot be empty when whitelist is enabled")
	}

	return nil
}

// GetBotConfig retrieves configuration for an enabled platform bot.
func (c *Config) GetBotConfig(platform string) (BotConfig, error) {
	bot, exists := c.Bots[platform]
	if !exists {
		return BotConfig{}, fmt.Errorf("bot platform %s not found in configuration", platform)
	}
	if !bot.Enabled {
		return BotConfig{}, fmt.Errorf("bot platform %s is disabled", platform)
	}
	return bot, nil
}

// IsUserAuthorized checks if a user is in the whitelist
func (c *Config) IsUserAuthorized(platform, userID string) bool {
	if !c.Security.WhitelistEnabled {
		return true
	}

	userIDs, exists := c.Security.AllowedUsers[platform]
	if !exists {
		return false
	}

	for _, uid := range userIDs {
		if uid == userID {
			return true
		}
	}

	return false
}

// IsAdmin checks if a user is an admin
func (c *Config) IsAdmin(platform, userID string) bool {
	admins, exists := c.Security.Admins[platform]
	if !exists {
		return false
	}

	for _, adminID := range admins {
		if adminID == userID {
			return true
		}
	}

	return false
}

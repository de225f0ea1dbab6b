// Package config provides configuration management for sortd. Settings
// load from environment variables with the SORTD_ prefix; the category
// collection mapping can additionally come from a YAML file that is
// hot-reloaded on change.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all configuration settings for the sortd service.
type Config struct {
	Server      ServerConfig
	Chat        ChatConfig
	LLM         LLMConfig
	TaskStore   TaskStoreConfig
	Security    SecurityConfig
	Ledger      LedgerConfig
	Collections *Collections
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port int    // server port (default: 8477)
	Host string // server host (default: 127.0.0.1)
}

// ChatConfig contains chat platform credentials and routing.
type ChatConfig struct {
	BotToken       string // outbound API token
	SigningSecret  string // inbound webhook signing secret
	InboxChannelID string // the one channel whose messages are captured
	UserID         string // recipient of digest and review DMs
}

// LLMConfig contains classifier model configuration.
type LLMConfig struct {
	AnthropicAPIKey string
	AnthropicModel  string // default: claude-sonnet-4-20250514
}

// TaskStoreConfig contains the external task tracker credentials.
type TaskStoreConfig struct {
	APIToken string
	BaseURL  string // override for tests; empty uses the public API
}

// SecurityConfig contains shared secrets for scheduled triggers.
type SecurityConfig struct {
	CronSecret string // bearer token for /cron/* endpoints
}

// LedgerConfig contains the local correlation index settings.
type LedgerConfig struct {
	IndexPath string // sqlite file for the correlation index (default: ./data/ledger-index.db)
}

// LoadConfig loads configuration from environment variables with sensible
// defaults, including the collection mapping (YAML file when
// SORTD_COLLECTIONS_FILE is set, env vars otherwise).
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: getEnvInt("SORTD_PORT", 8477),
			Host: getEnv("SORTD_HOST", "127.0.0.1"),
		},
		Chat: ChatConfig{
			BotToken:       getEnv("SORTD_CHAT_BOT_TOKEN", ""),
			SigningSecret:  getEnv("SORTD_CHAT_SIGNING_SECRET", ""),
			InboxChannelID: getEnv("SORTD_CHAT_INBOX_CHANNEL", ""),
			UserID:         getEnv("SORTD_CHAT_USER_ID", ""),
		},
		LLM: LLMConfig{
			AnthropicAPIKey: getEnv("SORTD_ANTHROPIC_API_KEY", ""),
			AnthropicModel:  getEnv("SORTD_ANTHROPIC_MODEL", "claude-sonnet-4-20250514"),
		},
		TaskStore: TaskStoreConfig{
			APIToken: getEnv("SORTD_TASKSTORE_TOKEN", ""),
			BaseURL:  getEnv("SORTD_TASKSTORE_URL", ""),
		},
		Security: SecurityConfig{
			CronSecret: getEnv("SORTD_CRON_SECRET", ""),
		},
		Ledger: LedgerConfig{
			IndexPath: getEnv("SORTD_LEDGER_INDEX_PATH", "./data/ledger-index.db"),
		},
	}

	collections, err := loadCollections()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg.Collections = collections

	return cfg, nil
}

// loadCollections builds the collection mapping from the YAML file when
// configured, falling back to per-category env vars.
func loadCollections() (*Collections, error) {
	if path := os.Getenv("SORTD_COLLECTIONS_FILE"); path != "" {
		return LoadCollectionsFile(path)
	}
	return NewCollections(CollectionIDs{
		People:   getEnv("SORTD_LIST_PEOPLE", ""),
		Projects: getEnv("SORTD_LIST_PROJECTS", ""),
		Ideas:    getEnv("SORTD_LIST_IDEAS", ""),
		Admin:    getEnv("SORTD_LIST_ADMIN", ""),
		InboxLog: getEnv("SORTD_LIST_INBOX_LOG", ""),
	}), nil
}

// getEnv retrieves a string environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns a default
// value. A set-but-unparseable value returns the default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

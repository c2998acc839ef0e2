// Package config manages application configuration from config.yaml,
// CARDIOBOT_* environment variables and default values.
package config

import (
	"errors"
	"time"

	"github.com/go-telegram/bot/models"
)

// ErrConfiguration wraps every loading and validation failure.
var ErrConfiguration = errors.New("configuration error")

// Config is the root configuration.
type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Agent     AgentConfig     `mapstructure:"agent"`
	Tools     ToolsConfig     `mapstructure:"tools"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Messages  MessagesConfig  `mapstructure:"messages"`
}

type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

type TelegramConfig struct {
	Token       string `mapstructure:"token"         validate:"required"`
	AdminUserID int64  `mapstructure:"admin_user_id" validate:"gte=0"`

	// BotInfo is filled at runtime from getMe.
	BotInfo *models.User `mapstructure:"-"`
}

// LLMConfig selects the provider and the two model tiers. The router tier
// classifies intent and writes greetings and refusals; the medical tier
// answers health questions with tools.
type LLMConfig struct {
	Provider           string        `mapstructure:"provider"            validate:"oneof=gemini openai"`
	APIKey             string        `mapstructure:"api_key"             validate:"required"`
	BaseURL            string        `mapstructure:"base_url"            validate:"omitempty,url"`
	RouterModel        string        `mapstructure:"router_model"        validate:"required"`
	MedicalModel       string        `mapstructure:"medical_model"       validate:"required"`
	RouterTemperature  float32       `mapstructure:"router_temperature"  validate:"gte=0,lte=2"`
	MedicalTemperature float32       `mapstructure:"medical_temperature" validate:"gte=0,lte=2"`
	MaxRetries         int           `mapstructure:"max_retries"         validate:"gte=0,lte=10"`
	RetryDelay         time.Duration `mapstructure:"retry_delay"         validate:"gte=0"`
	Timeout            time.Duration `mapstructure:"timeout"             validate:"gte=1s,lte=10m"`
}

type AgentConfig struct {
	HistoryLimit      int           `mapstructure:"history_limit"       validate:"gte=0,lte=100"`
	MaxToolIterations int           `mapstructure:"max_tool_iterations" validate:"gte=1,lte=20"`
	TurnTimeout       time.Duration `mapstructure:"turn_timeout"        validate:"gte=1s"`
	HistoryRetention  time.Duration `mapstructure:"history_retention"   validate:"gte=1m"`
}

type ToolsConfig struct {
	SearchDefaultLimit int `mapstructure:"search_default_limit" validate:"gte=1"`
	SearchMaxLimit     int `mapstructure:"search_max_limit"     validate:"gtefield=SearchDefaultLimit"`
	QueryMaxRows       int `mapstructure:"query_max_rows"       validate:"gte=1,lte=1000"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// SchedulerConfig maps task names to their schedule.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks" validate:"dive"`
}

type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule" validate:"required_if=Enabled true"`
}

type MessagesConfig struct {
	Welcome      string `mapstructure:"welcome"       validate:"required"`
	Help         string `mapstructure:"help"          validate:"required"`
	GeneralError string `mapstructure:"general_error" validate:"required"`
	Timeout      string `mapstructure:"timeout"       validate:"required"`
	EmptyMessage string `mapstructure:"empty_message" validate:"required"`
	Unauthorized string `mapstructure:"unauthorized"  validate:"required"`
	ResetConfirm string `mapstructure:"reset_confirm" validate:"required"`
	ResetError   string `mapstructure:"reset_error"   validate:"required"`
	RiskUsage    string `mapstructure:"risk_usage"    validate:"required"`
	RiskInvalid  string `mapstructure:"risk_invalid"  validate:"required"`
}

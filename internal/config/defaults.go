package config

import (
	"time"

	"github.com/spf13/viper"
)

// Default values for optional settings.
const (
	DefaultLogLevel = "info"

	DefaultLLMProvider           = "openai"
	DefaultLLMBaseURL            = "https://api.groq.com/openai/v1"
	DefaultLLMRouterModel        = "llama-3.1-8b-instant"
	DefaultLLMMedicalModel       = "llama-3.3-70b-versatile"
	DefaultLLMRouterTemperature  = 0.1
	DefaultLLMMedicalTemperature = 0.5
	DefaultLLMMaxRetries         = 2
	DefaultLLMRetryDelay         = 2 * time.Second
	DefaultLLMTimeout            = 60 * time.Second

	DefaultAgentHistoryLimit      = 5
	DefaultAgentMaxToolIterations = 5
	DefaultAgentTurnTimeout       = 2 * time.Minute
	DefaultAgentHistoryRetention  = 24 * time.Hour

	DefaultToolsSearchDefaultLimit = 5
	DefaultToolsSearchMaxLimit     = 20
	DefaultToolsQueryMaxRows       = 50

	DefaultDatabasePath = "cardiobot.db"
)

// DefaultMessages are the user-facing texts of the Telegram surface.
var DefaultMessages = MessagesConfig{
	Welcome: "👋 Hi! I'm your heart-health assistant. Ask me about cardiovascular health, " +
		"nutrition or exercise, or use /risk to estimate your cardiovascular risk.",
	Help: "Just send me a message about heart health, food or fitness.\n\n" +
		"/risk age=50 gender=male sbp=130 chol=200 hdl=50 smoker=no diabetic=no treated=no\n" +
		"  estimates your cardiovascular risk (add unit=mmol/L for mmol values, weight= and height= for under-20s)\n" +
		"/reset clears our conversation history\n" +
		"/help shows this message",
	GeneralError: "❌ Something went wrong. Please try again later.",
	Timeout:      "⏱️ That took too long. Please try again.",
	EmptyMessage: "ℹ️ Please send me a text message.",
	Unauthorized: "🚫 You are not allowed to use this command.",
	ResetConfirm: "🔄 Your conversation history has been cleared.",
	ResetError:   "❌ Could not clear your history. Please try again later.",
	RiskUsage: "Usage: /risk age=50 gender=male sbp=130 chol=200 hdl=50 " +
		"[smoker=yes] [diabetic=yes] [treated=yes] [unit=mmol/L] [weight=70 height=175]",
	RiskInvalid: "⚠️ Those measurements don't look right: %s",
}

// DefaultSchedulerTasks registers the built-in maintenance jobs.
var DefaultSchedulerTasks = map[string]TaskConfig{
	"sql_maintenance": {Enabled: true, Schedule: "0 0 4 * * *"},
	"history_cleanup": {Enabled: true, Schedule: "0 0 * * * *"},
}

// setDefaults registers default values for optional configuration keys.
func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", DefaultLogLevel)
	v.SetDefault("logger.json", false)

	v.SetDefault("telegram.admin_user_id", 0)

	v.SetDefault("llm.provider", DefaultLLMProvider)
	v.SetDefault("llm.base_url", DefaultLLMBaseURL)
	v.SetDefault("llm.router_model", DefaultLLMRouterModel)
	v.SetDefault("llm.medical_model", DefaultLLMMedicalModel)
	v.SetDefault("llm.router_temperature", DefaultLLMRouterTemperature)
	v.SetDefault("llm.medical_temperature", DefaultLLMMedicalTemperature)
	v.SetDefault("llm.max_retries", DefaultLLMMaxRetries)
	v.SetDefault("llm.retry_delay", DefaultLLMRetryDelay)
	v.SetDefault("llm.timeout", DefaultLLMTimeout)

	v.SetDefault("agent.history_limit", DefaultAgentHistoryLimit)
	v.SetDefault("agent.max_tool_iterations", DefaultAgentMaxToolIterations)
	v.SetDefault("agent.turn_timeout", DefaultAgentTurnTimeout)
	v.SetDefault("agent.history_retention", DefaultAgentHistoryRetention)

	v.SetDefault("tools.search_default_limit", DefaultToolsSearchDefaultLimit)
	v.SetDefault("tools.search_max_limit", DefaultToolsSearchMaxLimit)
	v.SetDefault("tools.query_max_rows", DefaultToolsQueryMaxRows)

	v.SetDefault("database.path", DefaultDatabasePath)

	for name, task := range DefaultSchedulerTasks {
		v.SetDefault("scheduler.tasks."+name+".enabled", task.Enabled)
		v.SetDefault("scheduler.tasks."+name+".schedule", task.Schedule)
	}

	v.SetDefault("messages.welcome", DefaultMessages.Welcome)
	v.SetDefault("messages.help", DefaultMessages.Help)
	v.SetDefault("messages.general_error", DefaultMessages.GeneralError)
	v.SetDefault("messages.timeout", DefaultMessages.Timeout)
	v.SetDefault("messages.empty_message", DefaultMessages.EmptyMessage)
	v.SetDefault("messages.unauthorized", DefaultMessages.Unauthorized)
	v.SetDefault("messages.reset_confirm", DefaultMessages.ResetConfirm)
	v.SetDefault("messages.reset_error", DefaultMessages.ResetError)
	v.SetDefault("messages.risk_usage", DefaultMessages.RiskUsage)
	v.SetDefault("messages.risk_invalid", DefaultMessages.RiskInvalid)
}

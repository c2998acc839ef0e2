package llm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/edgard/cardiobot/internal/config"
)

// Tier selects which of the two configured models a client uses.
type Tier string

const (
	TierRouter  Tier = "router"
	TierMedical Tier = "medical"
)

// NewClient builds a client for the configured provider and model tier.
func NewClient(ctx context.Context, cfg config.LLMConfig, tier Tier, log *slog.Logger) (Client, error) {
	model, temp := cfg.RouterModel, cfg.RouterTemperature
	if tier == TierMedical {
		model, temp = cfg.MedicalModel, cfg.MedicalTemperature
	}
	log = log.With("tier", string(tier))

	switch cfg.Provider {
	case "gemini":
		return NewGeminiClient(ctx, GeminiConfig{
			APIKey:      cfg.APIKey,
			Model:       model,
			Temperature: temp,
			MaxRetries:  cfg.MaxRetries,
			RetryDelay:  cfg.RetryDelay,
			Timeout:     cfg.Timeout,
		}, log)
	case "openai":
		return NewOpenAIClient(OpenAIConfig{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       model,
			Temperature: temp,
			MaxRetries:  cfg.MaxRetries,
			RetryDelay:  cfg.RetryDelay,
			Timeout:     cfg.Timeout,
		}, log)
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.Provider)
	}
}

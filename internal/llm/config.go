// Package llm provides centralized LLM configuration and client abstractions.
// This package enables easy switching between model tiers and future multi-provider support.
package llm

import "time"

// ModelTier represents the complexity/capability level of a model
type ModelTier string

const (
	// TierLite is for simple tasks: classification, extraction, basic summarization
	TierLite ModelTier = "lite"
	// TierStandard is for moderate reasoning: first-pass structured generation
	TierStandard ModelTier = "standard"
	// TierAdvanced is for complex reasoning: revision attempts and critique
	TierAdvanced ModelTier = "advanced"
)

// Provider represents an LLM provider
type Provider string

// Provider constants define supported LLM providers
const (
	// ProviderGemini is the Google Gemini provider
	ProviderGemini Provider = "gemini"
	// ProviderOpenAI is the OpenAI provider (future)
	ProviderOpenAI Provider = "openai"
	// ProviderAnthropic is the Anthropic/Claude provider (future)
	ProviderAnthropic Provider = "anthropic"
)

// TierPricing holds per-million-token prices used for cost estimation.
type TierPricing struct {
	InputPerMTok  float64
	OutputPerMTok float64
}

// Config holds the model configuration for the application
type Config struct {
	Provider Provider
	Models   map[ModelTier]string
	Pricing  map[ModelTier]TierPricing

	// MaxOutputTokens caps generation output; a response truncated at this
	// cap surfaces as ErrBudgetExceeded.
	MaxOutputTokens int32
	// CallTimeout bounds a single model call. A timed-out call consumes one
	// attempt of the item that issued it and nothing else.
	CallTimeout time.Duration
}

// DefaultConfig returns the default configuration (currently Gemini)
func DefaultConfig() *Config {
	return DefaultGeminiConfig()
}

// DefaultGeminiConfig returns the default Gemini configuration
func DefaultGeminiConfig() *Config {
	return &Config{
		Provider: ProviderGemini,
		Models: map[ModelTier]string{
			TierLite:     "gemini-2.5-flash-lite",
			TierStandard: "gemini-2.5-flash",
			TierAdvanced: "gemini-2.5-pro",
		},
		Pricing: map[ModelTier]TierPricing{
			TierLite:     {InputPerMTok: 0.10, OutputPerMTok: 0.40},
			TierStandard: {InputPerMTok: 0.30, OutputPerMTok: 2.50},
			TierAdvanced: {InputPerMTok: 1.25, OutputPerMTok: 10.00},
		},
		MaxOutputTokens: 16384,
		CallTimeout:     2 * time.Minute,
	}
}

// GetModel returns the model name for a given tier
func (c *Config) GetModel(tier ModelTier) string {
	if model, ok := c.Models[tier]; ok {
		return model
	}
	// Fallback chain: try standard, then lite
	if model, ok := c.Models[TierStandard]; ok {
		return model
	}
	if model, ok := c.Models[TierLite]; ok {
		return model
	}
	return "" // No model configured
}

// EstimateCost converts token counts into an approximate USD cost for a tier.
// Returns 0 when no pricing is configured for the tier.
func (c *Config) EstimateCost(tier ModelTier, promptTokens, outputTokens int32) float64 {
	pricing, ok := c.Pricing[tier]
	if !ok {
		return 0
	}
	return float64(promptTokens)/1e6*pricing.InputPerMTok +
		float64(outputTokens)/1e6*pricing.OutputPerMTok
}

// WithModel returns a new Config with a specific model for a tier
func (c *Config) WithModel(tier ModelTier, model string) *Config {
	newConfig := &Config{
		Provider:        c.Provider,
		Models:          make(map[ModelTier]string),
		Pricing:         c.Pricing,
		MaxOutputTokens: c.MaxOutputTokens,
		CallTimeout:     c.CallTimeout,
	}
	for k, v := range c.Models {
		newConfig.Models[k] = v
	}
	newConfig.Models[tier] = model
	return newConfig
}

package config

import (
	"time"
)

// LLMConfig represents the provider-independent LLM settings
type LLMConfig struct {
	Provider          string
	SystemInstruction string
	MaxBodyChars      int
	AttemptTimeout    time.Duration
}

// RetryConfig represents the retry policy for text service calls
type RetryConfig struct {
	MaxAttempts int
	MinBackoff  time.Duration
	MaxBackoff  time.Duration
}

// RulesConfig represents the deterministic rule engine settings
type RulesConfig struct {
	BlockedSenders     []string
	SurveyPhrases      []string
	SalesPhrases       []string
	AllowlistedDomains []string
}

// GeminiConfig represents the configuration for Google Gemini
type GeminiConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// OpenAIConfig represents the configuration for OpenAI
type OpenAIConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
}

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	Region      string
	ModelID     string
	MaxTokens   int
	Temperature float32
}

// GmailConfig represents the Gmail message store settings
type GmailConfig struct {
	CredentialsFile string
	TokenFile       string
	Query           string
	MaxResults      int64
}

// ServerConfig represents the SMTP gate settings
type ServerConfig struct {
	ListenAddress   string
	BlockSpam       bool
	UpstreamAddress string
	UpstreamPort    int
	SpamHeader      string
	ReasonHeader    string
}

// GetLLM returns the LLM configuration
func (c *Config) GetLLM() LLMConfig {
	return LLMConfig{
		Provider:          c.GetString("llm.provider"),
		SystemInstruction: c.GetString("llm.system_instruction"),
		MaxBodyChars:      c.GetInt("llm.max_body_chars"),
		AttemptTimeout:    c.GetDuration("llm.attempt_timeout"),
	}
}

// GetRetry returns the retry configuration
func (c *Config) GetRetry() RetryConfig {
	return RetryConfig{
		MaxAttempts: c.GetInt("retry.max_attempts"),
		MinBackoff:  c.GetDuration("retry.min_backoff"),
		MaxBackoff:  c.GetDuration("retry.max_backoff"),
	}
}

// GetRules returns the rule engine configuration
func (c *Config) GetRules() RulesConfig {
	return RulesConfig{
		BlockedSenders:     c.GetStringSlice("rules.blocked_senders"),
		SurveyPhrases:      c.GetStringSlice("rules.survey_phrases"),
		SalesPhrases:       c.GetStringSlice("rules.sales_phrases"),
		AllowlistedDomains: c.GetStringSlice("rules.allowlisted_domains"),
	}
}

// GetGemini returns the Gemini configuration
func (c *Config) GetGemini() GeminiConfig {
	return GeminiConfig{
		APIKey:      c.GetString("gemini.api_key"),
		ModelName:   c.GetString("gemini.model_name"),
		MaxTokens:   c.GetInt("gemini.max_tokens"),
		Temperature: float32(c.GetFloat64("gemini.temperature")),
		TopP:        float32(c.GetFloat64("gemini.top_p")),
	}
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	return OpenAIConfig{
		APIKey:      c.GetString("openai.api_key"),
		ModelName:   c.GetString("openai.model_name"),
		MaxTokens:   c.GetInt("openai.max_tokens"),
		Temperature: float32(c.GetFloat64("openai.temperature")),
	}
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	return BedrockConfig{
		Region:      c.GetString("bedrock.region"),
		ModelID:     c.GetString("bedrock.model_id"),
		MaxTokens:   c.GetInt("bedrock.max_tokens"),
		Temperature: float32(c.GetFloat64("bedrock.temperature")),
	}
}

// GetGmail returns the Gmail configuration
func (c *Config) GetGmail() GmailConfig {
	return GmailConfig{
		CredentialsFile: c.GetString("gmail.credentials_file"),
		TokenFile:       c.GetString("gmail.token_file"),
		Query:           c.GetString("gmail.query"),
		MaxResults:      c.GetInt64("gmail.max_results"),
	}
}

// GetServer returns the SMTP gate configuration
func (c *Config) GetServer() ServerConfig {
	return ServerConfig{
		ListenAddress:   c.GetString("server.listen_address"),
		BlockSpam:       c.GetBool("server.block_spam"),
		UpstreamAddress: c.GetString("server.upstream_address"),
		UpstreamPort:    c.GetInt("server.upstream_port"),
		SpamHeader:      c.GetString("server.headers.spam"),
		ReasonHeader:    c.GetString("server.headers.reason"),
	}
}

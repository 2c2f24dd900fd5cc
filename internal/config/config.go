package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	v *viper.Viper
}

// New creates a new configuration instance
func New() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/mailgate/")
	v.AddConfigPath("$HOME/.mailgate")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvPrefix("MAILGATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, using defaults
	}

	return &Config{v: v}, nil
}

// NewFromViper creates a new configuration instance from an existing Viper instance
func NewFromViper(v *viper.Viper) *Config {
	return &Config{v: v}
}

// NewEmptyViper creates a new Viper instance with defaults
func NewEmptyViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// LLM provider defaults
	v.SetDefault("llm.provider", "gemini")
	v.SetDefault("llm.system_instruction", "")
	v.SetDefault("llm.max_body_chars", 2000)
	v.SetDefault("llm.attempt_timeout", "30s")

	// Retry defaults
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.min_backoff", "1s")
	v.SetDefault("retry.max_backoff", "8s")

	// Rule engine defaults
	v.SetDefault("rules.blocked_senders", []string{
		"thegivingblock.com",
		"the giving block",
	})
	v.SetDefault("rules.survey_phrases", []string{
		"rate your experience",
		"how did we do",
		"tell us about your visit",
		"your recent purchase",
		"share your feedback",
		"survey",
	})
	v.SetDefault("rules.sales_phrases", []string{
		"would you be interested",
		"quick call",
		"jump on a call",
		"book time",
		"schedule a call",
		"pick a time",
		"calendly.com",
		"calendar link",
		"case study",
		"pilot program",
		"free consultation",
		"special offer",
		"limited time",
		"intro ",
		" x ", // e.g. "Intro Foo x Bar"
		"we help you",
		"we can book",
		"generate leads",
		"lead gen",
	})
	v.SetDefault("rules.allowlisted_domains", []string{})

	// Gemini defaults
	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model_name", "gemini-2.0-flash")
	v.SetDefault("gemini.max_tokens", 1000)
	v.SetDefault("gemini.temperature", 0.0)
	v.SetDefault("gemini.top_p", 1.0)

	// OpenAI defaults
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.model_name", "gpt-4o-mini")
	v.SetDefault("openai.max_tokens", 1000)
	v.SetDefault("openai.temperature", 0.0)

	// Bedrock defaults
	v.SetDefault("bedrock.region", "us-east-1")
	v.SetDefault("bedrock.model_id", "anthropic.claude-3-haiku-20240307-v1:0")
	v.SetDefault("bedrock.max_tokens", 1000)
	v.SetDefault("bedrock.temperature", 0.0)

	// Gmail defaults
	v.SetDefault("gmail.credentials_file", "credentials.json")
	v.SetDefault("gmail.token_file", "token.json")
	v.SetDefault("gmail.query", "in:inbox newer_than:7d")
	v.SetDefault("gmail.max_results", 10)

	// SMTP gate defaults
	v.SetDefault("server.listen_address", "0.0.0.0:10025")
	v.SetDefault("server.block_spam", false)
	v.SetDefault("server.upstream_address", "127.0.0.1")
	v.SetDefault("server.upstream_port", 10026)
	v.SetDefault("server.headers.spam", "X-Spam-Status")
	v.SetDefault("server.headers.reason", "X-Spam-Reason")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// GetString gets a string value from the configuration
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetInt gets an integer value from the configuration
func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// GetInt64 gets a 64-bit integer value from the configuration
func (c *Config) GetInt64(key string) int64 {
	return c.v.GetInt64(key)
}

// GetFloat64 gets a float64 value from the configuration
func (c *Config) GetFloat64(key string) float64 {
	return c.v.GetFloat64(key)
}

// GetBool gets a boolean value from the configuration
func (c *Config) GetBool(key string) bool {
	return c.v.GetBool(key)
}

// GetStringSlice gets a string slice value from the configuration
func (c *Config) GetStringSlice(key string) []string {
	return c.v.GetStringSlice(key)
}

// GetDuration gets a duration value from the configuration
func (c *Config) GetDuration(key string) time.Duration {
	return c.v.GetDuration(key)
}

// GetViper returns the underlying Viper instance
func (c *Config) GetViper() *viper.Viper {
	return c.v
}

package config

import (
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Application ApplicationConfig `mapstructure:"application"`
	AI          AIConfig          `mapstructure:"ai"`
}

type ApplicationConfig struct {
	Name        string `mapstructure:"name"`
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	LogLevel    string `mapstructure:"log_level"`
	LayoutIndex int    `mapstructure:"layout_index"`
	MaxUploadMB int    `mapstructure:"max_upload_mb"`
}

type AIConfig struct {
	ActiveProvider string                      `mapstructure:"active_provider"`
	Providers      map[string]ProviderSettings `mapstructure:"providers"`
}

// ProviderSettings deliberately carries no API key: the credential arrives
// with each form submission, is used for that single request and is never
// stored or logged.
type ProviderSettings struct {
	Driver      string  `mapstructure:"driver"` // openai, gemini
	Endpoint    string  `mapstructure:"endpoint"`
	Model       string  `mapstructure:"model"`
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
}

// Active resolves the settings of the configured provider. The driver
// defaults to the provider name itself.
func (c *AIConfig) Active() (ProviderSettings, error) {
	settings, ok := c.Providers[c.ActiveProvider]
	if !ok {
		return ProviderSettings{}, fmt.Errorf("ai provider %q is not configured", c.ActiveProvider)
	}
	if settings.Driver == "" {
		settings.Driver = c.ActiveProvider
	}
	return settings, nil
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("Note: .env file not found, using system environment variables")
	}

	viper.SetConfigFile("config.yaml") // Support optional config.yaml
	viper.AutomaticEnv()

	// Environment variable mappings
	mappings := []struct {
		key, env string
	}{
		{"application.host", "HOST"},
		{"application.port", "PORT"},
		{"application.log_level", "LOG_LEVEL"},
		{"application.layout_index", "LAYOUT_INDEX"},
		{"application.max_upload_mb", "MAX_UPLOAD_MB"},
		{"ai.active_provider", "AI_PROVIDER"},

		// AI Providers
		{"ai.providers.openai.endpoint", "OPENAI_ENDPOINT"},
		{"ai.providers.openai.model", "OPENAI_MODEL"},
		{"ai.providers.gemini.model", "GEMINI_MODEL"},
	}

	for _, m := range mappings {
		viper.BindEnv(m.key, m.env)
	}

	// Defaults
	viper.SetDefault("application.name", "DeckDraft")
	viper.SetDefault("application.port", 8080)
	viper.SetDefault("application.log_level", "info")
	viper.SetDefault("application.layout_index", 1)
	viper.SetDefault("application.max_upload_mb", 32)
	viper.SetDefault("ai.active_provider", "openai")
	viper.SetDefault("ai.providers.openai.driver", "openai")
	viper.SetDefault("ai.providers.openai.model", "gpt-4o-mini")
	viper.SetDefault("ai.providers.openai.temperature", 0.5)
	viper.SetDefault("ai.providers.gemini.driver", "gemini")
	viper.SetDefault("ai.providers.gemini.model", "gemini-2.5-flash")
	viper.SetDefault("ai.providers.gemini.temperature", 0.5)

	if err := viper.ReadInConfig(); err != nil {
		// Ignore if config.yaml is missing
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.AI.ActiveProvider == "" {
		cfg.AI.ActiveProvider = "openai"
	}

	return &cfg, nil
}

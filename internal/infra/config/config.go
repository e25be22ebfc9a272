package config

import (
	"log"

	"github.com/kelseyhightower/envconfig"
)

// AppConfig describes the service configuration.
type AppConfig struct {
	AppEnv string `envconfig:"APP_ENV" default:"dev"`
	TZ     string `envconfig:"TZ" default:"America/Sao_Paulo"`
	Port   int    `envconfig:"PORT" default:"8080"`

	WhatsApp struct {
		APIKey             string `envconfig:"D360_API_KEY"`
		BaseURL            string `envconfig:"D360_BASE_URL" default:"https://waba-v2.360dialog.io"`
		VerifyToken        string `envconfig:"VERIFY_TOKEN"`
		TestTo             string `envconfig:"TEST_TO"`
		SendTimeoutSeconds int    `envconfig:"SEND_TIMEOUT_SECONDS" default:"10"`
	} `envconfig:""`

	OpenAI struct {
		APIKey         string `envconfig:"OPENAI_API_KEY"`
		BaseURL        string `envconfig:"OPENAI_BASE_URL"`
		Model          string `envconfig:"OPENAI_MODEL" default:"gpt-4o-mini"`
		TimeoutSeconds int    `envconfig:"LLM_TIMEOUT_SECONDS" default:"20"`
	} `envconfig:""`

	RedisAddr string `envconfig:"REDIS_ADDR"`

	Limits struct {
		HistoryTurns int `envconfig:"HISTORY_TURNS" default:"6"`
	} `envconfig:""`
}

// Load reads the configuration from the environment.
func Load() AppConfig {
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

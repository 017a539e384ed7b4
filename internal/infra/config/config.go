package config

import (
	"log"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// AppConfig описывает конфигурацию сервисов.
type AppConfig struct {
	AppEnv string `envconfig:"APP_ENV" default:"dev"`
	TZ     string `envconfig:"TZ" default:"Europe/Amsterdam"`
	Port   int    `envconfig:"PORT" default:"8080"`

	Gemini struct {
		APIKey     string        `envconfig:"GEMINI_API_KEY"`
		BaseURL    string        `envconfig:"GEMINI_BASE_URL"`
		TextModel  string        `envconfig:"GEMINI_TEXT_MODEL" default:"gemini-2.5-pro"`
		FastModel  string        `envconfig:"GEMINI_FAST_MODEL" default:"gemini-2.5-flash"`
		ImageModel string        `envconfig:"GEMINI_IMAGE_MODEL" default:"imagen-4.0-generate-001"`
		Timeout    time.Duration `envconfig:"GEMINI_TIMEOUT" default:"60s"`
		UseStub    bool          `envconfig:"GEMINI_USE_STUB" default:"false"`
	} `envconfig:""`

	Generation struct {
		ImageCount int `envconfig:"GENERATION_IMAGE_COUNT" default:"4"`
	} `envconfig:""`

	PGDSN string `envconfig:"PG_DSN"`

	RedisAddr string `envconfig:"REDIS_ADDR" default:"localhost:6379"`

	AMQP struct {
		URL string `envconfig:"AMQP_URL"`
	} `envconfig:""`

	Queues struct {
		Publish string `envconfig:"PUBLISH_QUEUE_KEY" default:"publish_jobs"`
	} `envconfig:""`
}

// Load загружает конфиг из окружения.
func Load() AppConfig {
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("не удалось загрузить конфиг: %v", err)
	}
	return cfg
}

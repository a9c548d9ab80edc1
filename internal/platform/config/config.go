package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv       string `env:"APP_ENV" envDefault:"local"`
	PostgresDSN  string `env:"POSTGRES_DSN,required"`
	BotToken     string `env:"BOT_TOKEN,required"`
	TargetChatID int64  `env:"TARGET_CHAT_ID,required"`
	HealthPort   int    `env:"HEALTH_PORT" envDefault:"8080"`

	// Translation
	OpenAIAPIKey     string  `env:"OPENAI_API_KEY"`
	TranslationModel string  `env:"TRANSLATION_MODEL" envDefault:"gpt-4o-mini"`
	TargetLang       string  `env:"TARGET_LANG" envDefault:"ru"`
	TranslateRPS     float64 `env:"TRANSLATE_RPS" envDefault:"1"`

	// Sources
	GridURL           string        `env:"GRID_URL" envDefault:"https://www.ena.am/Info.aspx?id=5&lang=3"`
	WaterURLs         []string      `env:"WATER_URLS" envSeparator:"," envDefault:"https://interactive.vjur.am,https://interactive.vjur.am/?ajax=list-post&page=2"`
	GridPollInterval  time.Duration `env:"GRID_POLL_INTERVAL" envDefault:"15m"`
	WaterPollInterval time.Duration `env:"WATER_POLL_INTERVAL" envDefault:"15m"`
	Timezone          string        `env:"TIMEZONE" envDefault:"Asia/Yerevan"`
	FetchRPS          float64       `env:"FETCH_RPS" envDefault:"1"`
	FetchTimeout      time.Duration `env:"FETCH_TIMEOUT" envDefault:"30s"`

	// Reporting
	LookbackWindow   time.Duration `env:"LOOKBACK_WINDOW" envDefault:"24h"`
	MessageCharLimit int           `env:"MESSAGE_CHAR_LIMIT" envDefault:"4000"`

	// Database pool
	DBMaxConnections    int32         `env:"DB_MAX_CONNECTIONS" envDefault:"4"`
	DBMinConnections    int32         `env:"DB_MIN_CONNECTIONS" envDefault:"0"`
	DBMaxConnIdleTime   time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"30m"`
	DBMaxConnLifetime   time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`
	DBHealthCheckPeriod time.Duration `env:"DB_HEALTH_CHECK_PERIOD" envDefault:"1m"`
}

func Load() (*Config, error) {
	_ = godotenv.Load() //nolint:errcheck // .env file is optional, error is expected when not present

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment config: %w", err)
	}

	return cfg, nil
}

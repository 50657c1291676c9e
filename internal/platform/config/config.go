package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	apperrors "github.com/lueurxax/telegram-post-ranker/internal/core/errors"
)

// Store backends.
const (
	StoreBackendFile     = "file"
	StoreBackendPostgres = "postgres"
)

type Config struct {
	AppEnv        string  `env:"APP_ENV" envDefault:"local"`
	LogLevel      string  `env:"LOG_LEVEL" envDefault:"info"`
	BotToken      string  `env:"BOT_TOKEN,required"`
	AdminIDs      []int64 `env:"ADMIN_IDS" envSeparator:","`
	TGAPIID       int     `env:"TG_API_ID,required"`
	TGAPIHash     string  `env:"TG_API_HASH,required"`
	TGPhone       string  `env:"TG_PHONE"`
	TG2FAPassword string  `env:"TG_2FA_PASSWORD"`
	TGSessionPath string  `env:"TG_SESSION_PATH" envDefault:"./tg.session"`
	RelayChatID   int64   `env:"RELAY_CHAT_ID"`
	HealthPort    int     `env:"HEALTH_PORT" envDefault:"8080"`

	// LLM judge
	LLMAPIKey           string        `env:"LLM_API_KEY"`
	LLMModel            string        `env:"LLM_MODEL" envDefault:"gpt-4o-mini"`
	AnthropicAPIKey     string        `env:"ANTHROPIC_API_KEY"`
	GoogleAPIKey        string        `env:"GOOGLE_API_KEY"`
	LLMCircuitThreshold int           `env:"LLM_CIRCUIT_THRESHOLD" envDefault:"5"`
	LLMCircuitTimeout   time.Duration `env:"LLM_CIRCUIT_TIMEOUT" envDefault:"1m"`
	LLMTemperature      float32       `env:"LLM_TEMPERATURE" envDefault:"0.2"`
	LLMTimeout          time.Duration `env:"LLM_TIMEOUT" envDefault:"60s"`
	RateLimitRPS        int           `env:"RATE_LIMIT_RPS" envDefault:"5"`

	// Ranking
	DefaultCriterion string        `env:"DEFAULT_CRITERION"`
	TopK             int           `env:"TOP_K" envDefault:"10"`
	MaxTopK          int           `env:"MAX_TOP_K" envDefault:"100"`
	FetchBufferMin   int           `env:"FETCH_BUFFER_MIN" envDefault:"200"`
	FetchBufferMax   int           `env:"FETCH_BUFFER_MAX" envDefault:"2000"`
	FetchBufferMult  int           `env:"FETCH_BUFFER_MULT" envDefault:"6"`
	ScoreSpacing     time.Duration `env:"SCORE_SPACING" envDefault:"100ms"`

	// Ad filter
	AdFilterEnabled bool     `env:"AD_FILTER_ENABLED" envDefault:"true"`
	AdThreshold     int      `env:"AD_THRESHOLD" envDefault:"7"`
	AdAllowSenders  []string `env:"AD_ALLOW_SENDERS" envSeparator:","`
	AdDenySenders   []string `env:"AD_DENY_SENDERS" envSeparator:","`

	// Storage
	StoreBackend        string        `env:"STORE_BACKEND" envDefault:"file"`
	DataDir             string        `env:"DATA_DIR" envDefault:"data"`
	PostgresDSN         string        `env:"POSTGRES_DSN"`
	DBMaxConnections    int32         `env:"DB_MAX_CONNECTIONS" envDefault:"10"`
	DBMinConnections    int32         `env:"DB_MIN_CONNECTIONS" envDefault:"1"`
	DBMaxConnIdleTime   time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"5m"`
	DBMaxConnLifetime   time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`
	DBHealthCheckPeriod time.Duration `env:"DB_HEALTH_CHECK_PERIOD" envDefault:"1m"`
}

func Load() (*Config, error) {
	_ = godotenv.Load() //nolint:errcheck // .env file is optional, error is expected when not present

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment config: %w", err)
	}

	applyLegacyAliases(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyLegacyAliases honours the variable names used by older deployments.
func applyLegacyAliases(cfg *Config) {
	if !hasEnv("RELAY_CHAT_ID") {
		setInt64FromEnv("BRIDGE_CHAT_ID", &cfg.RelayChatID)
	}

	if !hasEnv("GOOGLE_API_KEY") {
		setStringFromEnv("GEMINI_API_KEY", &cfg.GoogleAPIKey)
	}

	if !hasEnv("TG_SESSION_PATH") {
		setStringFromEnv("SESSION_NAME", &cfg.TGSessionPath)
	}
}

func (c *Config) validate() error {
	switch c.StoreBackend {
	case StoreBackendFile:
	case StoreBackendPostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("%w: POSTGRES_DSN is required for STORE_BACKEND=postgres", apperrors.ErrInvalidInput)
		}
	default:
		return fmt.Errorf("%w: unknown STORE_BACKEND %q", apperrors.ErrInvalidInput, c.StoreBackend)
	}

	if c.MaxTopK < 1 {
		c.MaxTopK = 1
	}

	if c.TopK < 1 || c.TopK > c.MaxTopK {
		return fmt.Errorf("%w: TOP_K must be within [1, %d]", apperrors.ErrInvalidInput, c.MaxTopK)
	}

	if c.FetchBufferMin > c.FetchBufferMax {
		return fmt.Errorf("%w: FETCH_BUFFER_MIN exceeds FETCH_BUFFER_MAX", apperrors.ErrInvalidInput)
	}

	return nil
}


func hasEnv(key string) bool {
	_, ok := os.LookupEnv(key)
	return ok
}

func setStringFromEnv(key string, target *string) {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		*target = value
	}
}

func setInt64FromEnv(key string, target *int64) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return
	}

	if parsed, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
		*target = parsed
	}
}

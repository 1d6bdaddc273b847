package config

import (
	"fmt"
	"time"

	"github.com/Gobusters/ectoenv"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	AppName    string `env:"APP_NAME" env-default:"shop-migrate"`
	LogLevel   string `env:"LOG_LEVEL" env-default:"info"`
	PrettyLogs bool   `env:"PRETTY_LOGS" env-default:"false"`

	// Operational HTTP surface (health + prometheus). Disabled when port is 0.
	HTTPPort                      int `env:"PORT" env-default:"3010"`
	HttpServerWriteTimeoutSeconds int `env:"HTTP_SERVER_WRITE_TIMEOUT_SECONDS" env-default:"10"`
	HttpServerReadTimeoutSeconds  int `env:"HTTP_SERVER_READ_TIMEOUT_SECONDS" env-default:"10"`

	// Source (legacy EAV store, MySQL)
	SourceDatabaseURL string `env:"SOURCE_DATABASE_URL" validate:"required"`
	SourceDBType      string `env:"SOURCE_DB_TYPE" env-default:"mysql"`

	// Target (PostgreSQL)
	TargetDatabaseURL       string `env:"TARGET_DATABASE_URL" validate:"required"`
	TargetDBType            string `env:"TARGET_DB_TYPE" env-default:"postgres"`
	TargetMaxOpenConns      int    `env:"TARGET_DB_MAX_OPEN_CONNS" env-default:"25"`
	TargetMaxIdleConns      int    `env:"TARGET_DB_MAX_IDLE_CONNS" env-default:"10"`
	MigrationFolderPath     string `env:"DB_MIGRATION_FOLDER_PATH" env-default:"db/pg"`
	MigrationVersion        int    `env:"DB_MIGRATION_VERSION" env-default:"0"`
	MigrationForce          int    `env:"DB_MIGRATION_FORCE" env-default:"0"`
	MigrationAutoRollback   bool   `env:"DB_MIGRATION_AUTO_ROLLBACK" env-default:"true"`
	RunSchemaMigrations     bool   `env:"DB_RUN_SCHEMA_MIGRATIONS" env-default:"true"`
	SourceConnMaxLifetimeMS int    `env:"SOURCE_DB_CONN_MAX_LIFETIME_MS" env-default:"60000"`

	// Step selection. Empty means every step in the canonical order.
	EnabledSteps  []string `env:"STEPS_ENABLED" env-default:""`
	DisabledSteps []string `env:"STEPS_DISABLED" env-default:""`

	// Batch sizing per step family
	DefaultBatchSize      int `env:"BATCH_SIZE" env-default:"50"`
	CategoriesBatchSize   int `env:"CATEGORIES_BATCH_SIZE" env-default:"50"`
	ProductsBatchSize     int `env:"PRODUCTS_BATCH_SIZE" env-default:"25"`
	CustomersBatchSize    int `env:"CUSTOMERS_BATCH_SIZE" env-default:"100"`
	OrdersBatchSize       int `env:"ORDERS_BATCH_SIZE" env-default:"25"`
	TranslationsBatchSize int `env:"TRANSLATIONS_BATCH_SIZE" env-default:"10"`
	DefaultParallelLimit  int `env:"PARALLEL_LIMIT" env-default:"4"`
	ProductsParallelLimit int `env:"PRODUCTS_PARALLEL_LIMIT" env-default:"4"`
	OrdersParallelLimit   int `env:"ORDERS_PARALLEL_LIMIT" env-default:"2"`

	// Batch retry/timeout knobs
	RetryAttempts int `env:"PROCESSING_RETRY_ATTEMPTS" env-default:"3"`
	RetryDelayMS  int `env:"PROCESSING_RETRY_DELAY_MS" env-default:"1000"`
	TimeoutMS     int `env:"PROCESSING_TIMEOUT_MS" env-default:"120000"`

	// Filters
	ProductTypes        []string `env:"FILTER_PRODUCT_TYPES" env-default:"simple"`
	OrderStatuses       []string `env:"FILTER_ORDER_STATUSES" env-default:"complete,a_complete"`
	ExcludedProductSkus []string `env:"FILTER_EXCLUDED_PRODUCT_SKUS" env-default:""`

	// Translation fan-out. Empty means every language present in the target table.
	TranslationLanguages []string `env:"TRANSLATION_LANGUAGES" env-default:""`
	DefaultLanguageCode  string   `env:"DEFAULT_LANGUAGE_CODE" env-default:"en"`

	// Translator capability (Azure Cognitive Translator)
	TranslatorEndpoint string `env:"TRANSLATOR_ENDPOINT" env-default:"https://api.cognitive.microsofttranslator.com"`
	TranslatorKey      string `env:"TRANSLATOR_KEY" env-default:""`
	TranslatorRegion   string `env:"TRANSLATOR_REGION" env-default:""`

	// Domain knobs
	CDNBaseURL        string `env:"CDN_BASE_URL" env-default:""`
	CountriesFilePath string `env:"COUNTRIES_FILE_PATH" env-default:"data/countries.json"`

	// Optional stage lifecycle events
	KafkaBrokers      []string `env:"KAFKA_BROKERS" env-default:""`
	KafkaEventsTopic  string   `env:"KAFKA_EVENTS_TOPIC" env-default:"migration-events"`
	KafkaBatchSize    int      `env:"KAFKA_BATCH_SIZE" env-default:"100"`
	KafkaBatchTimeout int      `env:"KAFKA_BATCH_TIMEOUT_MS" env-default:"100"`
	KafkaRequiredAcks int      `env:"KAFKA_REQUIRED_ACKS" env-default:"1"`
	KafkaCompression  string   `env:"KAFKA_COMPRESSION" env-default:"snappy"`
}

// Load reads .env (when present), binds environment variables and validates
// the result. A validation failure here is a configuration error and fatal.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := ectoenv.BindEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to bind environment: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	cfg.EnabledSteps = dropEmpty(cfg.EnabledSteps)
	cfg.DisabledSteps = dropEmpty(cfg.DisabledSteps)
	cfg.ExcludedProductSkus = dropEmpty(cfg.ExcludedProductSkus)
	cfg.TranslationLanguages = dropEmpty(cfg.TranslationLanguages)
	cfg.KafkaBrokers = dropEmpty(cfg.KafkaBrokers)

	return cfg, nil
}

// dropEmpty removes blank entries that an empty env-default leaves behind.
func dropEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelayMS) * time.Millisecond
}

func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// StepEnabled reports whether a named step should run. The enabled list wins
// when present; otherwise everything not explicitly disabled runs.
func (c *Config) StepEnabled(name string) bool {
	if len(c.EnabledSteps) > 0 {
		for _, s := range c.EnabledSteps {
			if s == name {
				return true
			}
		}
		return false
	}
	for _, s := range c.DisabledSteps {
		if s == name {
			return false
		}
	}
	return true
}

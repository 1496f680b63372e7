package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"food-order-bot/payment"
	"food-order-bot/store/gormstore"

	"github.com/glebarez/sqlite"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const EnvPrefix = "FOODBOT"

type Config struct {
	Port      string `mapstructure:"port" validate:"required,numeric"`
	GinMode   string `mapstructure:"gin_mode" validate:"oneof=debug release test"`
	DBPath    string `mapstructure:"db_path" validate:"required"`
	JWTSecret string `mapstructure:"jwt_secret" validate:"required,min=16"`

	// LedgerDBPath holds the simulated payment processor's wallets, apart from the bot's data
	LedgerDBPath string `mapstructure:"ledger_db_path" validate:"required,nefield=DBPath"`

	LogLevel  string `mapstructure:"log_level" validate:"oneof=trace debug info warn error"`
	LogFormat string `mapstructure:"log_format" validate:"oneof=console json"`

	DeliveryFeeCents int64 `mapstructure:"delivery_fee_cents" validate:"gte=0"`
	CardLimitCents   int64 `mapstructure:"card_limit_cents" validate:"gt=0"`
	HistoryLimit     int   `mapstructure:"history_limit" validate:"gt=0"`

	// OrderTTL cancels a pending order left untouched this long; 0 disables expiry
	OrderTTL time.Duration `mapstructure:"order_ttl" validate:"gte=0"`

	RecommendURL     string        `mapstructure:"recommend_url" validate:"omitempty,url"`
	RecommendTimeout time.Duration `mapstructure:"recommend_timeout" validate:"gt=0"`

	// RedisAddr switches locks and deduplication to redis when set
	RedisAddr string        `mapstructure:"redis_addr"`
	DedupeTTL time.Duration `mapstructure:"dedupe_ttl" validate:"gt=0"`
	LockTTL   time.Duration `mapstructure:"lock_ttl" validate:"gt=0"`

	// KafkaBrokers enables order event publishing to KafkaTopic
	KafkaBrokers []string `mapstructure:"kafka_brokers"`
	KafkaTopic   string   `mapstructure:"kafka_topic" validate:"required_with=KafkaBrokers"`

	RateLimit float64 `mapstructure:"rate_limit" validate:"gt=0"`
	RateBurst int     `mapstructure:"rate_burst" validate:"gt=0"`
}

func setDefaults() {
	viper.SetDefault("port", "8080")
	viper.SetDefault("gin_mode", "debug")
	viper.SetDefault("db_path", "food_order_bot.db")
	viper.SetDefault("ledger_db_path", "food_order_bot_ledger.db")
	viper.SetDefault("jwt_secret", "food_order_bot_dev_secret_2024")
	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_format", "console")
	viper.SetDefault("delivery_fee_cents", 299)
	viper.SetDefault("card_limit_cents", 50000)
	viper.SetDefault("history_limit", 10)
	viper.SetDefault("order_ttl", "2h")
	viper.SetDefault("recommend_url", "")
	viper.SetDefault("recommend_timeout", "2s")
	viper.SetDefault("redis_addr", "")
	viper.SetDefault("dedupe_ttl", "24h")
	viper.SetDefault("lock_ttl", "10s")
	viper.SetDefault("kafka_brokers", []string{})
	viper.SetDefault("kafka_topic", "order-events")
	viper.SetDefault("rate_limit", 2.0)
	viper.SetDefault("rate_burst", 5)
}

// LoadConfig reads cfgFile (when given) and FOODBOT_* environment variables on
// top of the defaults. Flags bound to viper by the caller take precedence.
func LoadConfig(cfgFile string) (*Config, error) {
	setDefaults()
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName("foodbot")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix(EnvPrefix)
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	decoderConfigOption := viper.DecoderConfigOption(func(config *mapstructure.DecoderConfig) {
		config.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			config.DecodeHook,
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	})
	if err := viper.Unmarshal(&cfg, decoderConfigOption); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %w", err)
	}
	cfg.KafkaBrokers = compact(cfg.KafkaBrokers)

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func compact(values []string) []string {
	out := values[:0]
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// SetupLogger configures the global zerolog logger
func SetupLogger(cfg *Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	if cfg.LogFormat == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
		return
	}
	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
}

// InitDB opens the bot database at path and migrates its tables
func InitDB(path string) (*gorm.DB, error) {
	db, err := open(path)
	if err != nil {
		return nil, err
	}
	if err := gormstore.Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	log.Info().Str("path", path).Msg("database connected and migrated")
	return db, nil
}

// InitLedgerDB opens the payment ledger database at path
func InitLedgerDB(path string) (*gorm.DB, error) {
	db, err := open(path)
	if err != nil {
		return nil, err
	}
	if err := payment.MigrateLedger(db); err != nil {
		return nil, fmt.Errorf("failed to migrate ledger: %w", err)
	}
	return db, nil
}

func open(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// sqlite allows a single writer
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

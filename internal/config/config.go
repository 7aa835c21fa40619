package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/danielsotopino/api-transbank/internal/events"
	"github.com/danielsotopino/api-transbank/internal/guard"
	"github.com/danielsotopino/api-transbank/pkg/mq"
	"github.com/danielsotopino/api-transbank/pkg/mysql"
	"github.com/danielsotopino/api-transbank/pkg/oneclick"
	"github.com/danielsotopino/api-transbank/pkg/tracing"
	"github.com/danielsotopino/api-transbank/pkg/vault"
	"github.com/spf13/viper"
)

const envPrefix = "ONECLICK"

type Config struct {
	API       API             `mapstructure:"api"`
	Database  Database        `mapstructure:"database"`
	Gateway   oneclick.Config `mapstructure:"gateway"`
	Vault     vault.Config    `mapstructure:"vault"`
	Deadlines Deadlines       `mapstructure:"deadlines"`
	Limits    Limits          `mapstructure:"limits"`
	RabbitMQ  mq.Config       `mapstructure:"rabbitmq"`
	Redis     guard.Config    `mapstructure:"redis"`
	Kafka     events.Config   `mapstructure:"kafka"`
	Tracing   tracing.Config  `mapstructure:"tracing"`
	Metrics   Metrics         `mapstructure:"metrics"`
}

type API struct {
	Port        string `mapstructure:"port"`
	ServiceName string `mapstructure:"service_name"`
}

type Metrics struct {
	CollectInterval time.Duration `mapstructure:"collect_interval"`
}

type Database struct {
	mysql.Config `mapstructure:",squash"`
	Migrate      bool `mapstructure:"migrate"`
}

// Deadlines bound every gateway call. A breach surfaces as a timeout, never
// as a gateway rejection.
type Deadlines struct {
	Start     time.Duration `mapstructure:"start"`
	Finish    time.Duration `mapstructure:"finish"`
	Delete    time.Duration `mapstructure:"delete"`
	Authorize time.Duration `mapstructure:"authorize"`
	Capture   time.Duration `mapstructure:"capture"`
	Refund    time.Duration `mapstructure:"refund"`
	Status    time.Duration `mapstructure:"status"`
}

type Limits struct {
	MaxAmount           int64         `mapstructure:"max_amount"`
	MinInstallments     int           `mapstructure:"min_installments"`
	MaxInstallments     int           `mapstructure:"max_installments"`
	MaxDetails          int           `mapstructure:"max_details"`
	HistoryDefaultLimit int           `mapstructure:"history_default_limit"`
	HistoryMaxLimit     int           `mapstructure:"history_max_limit"`
	RefundWindow        time.Duration `mapstructure:"refund_window"`
	InscriptionTTL      time.Duration `mapstructure:"inscription_ttl"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.port", ":8080")
	v.SetDefault("api.service_name", "api-transbank")

	// secrets only reach Unmarshal from the environment when the key is known
	for _, key := range []string{
		"database.host", "database.user", "database.password", "database.name",
		"gateway.base_url", "gateway.commerce_code", "gateway.api_key",
		"vault.key", "rabbitmq.url", "redis.addr", "redis.password", "tracing.endpoint",
	} {
		v.SetDefault(key, "")
	}

	v.SetDefault("database.port", "3306")
	v.SetDefault("database.log_level", "warn")
	v.SetDefault("database.migrate", true)

	v.SetDefault("gateway.environment", oneclick.EnvironmentIntegration)
	v.SetDefault("gateway.timeout", 65*time.Second)

	v.SetDefault("deadlines.start", 30*time.Second)
	v.SetDefault("deadlines.finish", 60*time.Second)
	v.SetDefault("deadlines.delete", 30*time.Second)
	v.SetDefault("deadlines.authorize", 30*time.Second)
	v.SetDefault("deadlines.capture", 45*time.Second)
	v.SetDefault("deadlines.refund", 45*time.Second)
	v.SetDefault("deadlines.status", 30*time.Second)

	v.SetDefault("limits.max_amount", 99_999_999)
	v.SetDefault("limits.min_installments", 1)
	v.SetDefault("limits.max_installments", 48)
	v.SetDefault("limits.max_details", 10)
	v.SetDefault("limits.history_default_limit", 50)
	v.SetDefault("limits.history_max_limit", 200)
	v.SetDefault("limits.refund_window", 90*24*time.Hour)
	v.SetDefault("limits.inscription_ttl", 60*time.Minute)

	v.SetDefault("rabbitmq.prefetch", 1)

	v.SetDefault("redis.key_prefix", "oneclick:inflight:")

	v.SetDefault("kafka.topic", "oneclick.transactions")
	v.SetDefault("kafka.batch_timeout", 10*time.Millisecond)
	v.SetDefault("kafka.write_timeout", 5*time.Second)

	v.SetDefault("tracing.service_name", "api-transbank")
	v.SetDefault("tracing.sample_ratio", 1.0)

	v.SetDefault("metrics.collect_interval", 15*time.Second)
}

func Load() (cfg *Config, err error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.AddConfigPath("./config")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err = v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	if err = v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

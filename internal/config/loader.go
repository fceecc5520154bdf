package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"tripboard/internal/constants"
)

func Load(configFile string) (*Config, error) {
	viper.Reset()

	viper.SetConfigType("yaml")
	viper.SetConfigFile(configFile)

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	bindEnvVariables()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	applyDefaults(&cfg)

	if err := ValidateStatic(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

func bindEnvVariables() {
	viper.BindEnv("broker.kafka.brokers", "BROKER_KAFKA_BROKERS")
	viper.BindEnv("broker.kafka.aggregation_topic", "BROKER_KAFKA_AGGREGATION_TOPIC")
	viper.BindEnv("broker.kafka.retry_topic", "BROKER_KAFKA_RETRY_TOPIC")

	viper.BindEnv("database.redis.host", "DATABASE_REDIS_HOST")
	viper.BindEnv("database.redis.port", "DATABASE_REDIS_PORT")
	viper.BindEnv("database.redis.password", "DATABASE_REDIS_PASSWORD")
	viper.BindEnv("database.redis.db", "DATABASE_REDIS_DB")
	viper.BindEnv("database.redis.ttl_seconds", "DATABASE_REDIS_TTL_SECONDS")

	viper.BindEnv("database.mongodb.uri", "DATABASE_MONGODB_URI")
	viper.BindEnv("database.mongodb.database", "DATABASE_MONGODB_DATABASE")

	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("server.read_timeout_seconds", "SERVER_READ_TIMEOUT_SECONDS")
	viper.BindEnv("server.write_timeout_seconds", "SERVER_WRITE_TIMEOUT_SECONDS")

	viper.BindEnv("logging.level", "LOGGING_LEVEL")
	viper.BindEnv("logging.format", "LOGGING_FORMAT")
}

func applyEnvOverrides(cfg *Config) error {
	if brokersEnv := viper.GetString("BROKER_KAFKA_BROKERS"); brokersEnv != "" {
		brokers := strings.Split(brokersEnv, ",")
		for i := range brokers {
			brokers[i] = strings.TrimSpace(brokers[i])
		}
		if len(brokers) > 0 && brokers[0] != "" {
			cfg.Broker.Kafka.Brokers = brokers
		}
	}

	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Database.MongoDB.Database == "" {
		cfg.Database.MongoDB.Database = constants.DefaultMongoDBName
	}

	if cfg.Broker.Kafka.AggregationTopic == "" {
		cfg.Broker.Kafka.AggregationTopic = constants.DefaultAggregationTopic
	}
	if cfg.Broker.Kafka.RetryTopic == "" {
		cfg.Broker.Kafka.RetryTopic = constants.DefaultRetryTopic
	}

	if cfg.Aggregation.DefaultBaggage.CheckedWeight == 0 {
		cfg.Aggregation.DefaultBaggage.CheckedWeight = constants.DefaultCheckedBaggageWeight
	}
	if cfg.Aggregation.DefaultBaggage.CarryOnWeight == 0 {
		cfg.Aggregation.DefaultBaggage.CarryOnWeight = constants.DefaultCabinBaggageWeight
	}
	if cfg.Aggregation.DefaultBaggage.Unit == "" {
		cfg.Aggregation.DefaultBaggage.Unit = constants.DefaultBaggageUnit
	}
}

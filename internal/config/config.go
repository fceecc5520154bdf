package config

import (
	"time"
)

type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Broker      BrokerConfig      `mapstructure:"broker"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	Aggregation AggregationConfig `mapstructure:"aggregation"`
}

type ServerConfig struct {
	Port                int `mapstructure:"port"`
	ReadTimeoutSeconds  int `mapstructure:"read_timeout_seconds"`
	WriteTimeoutSeconds int `mapstructure:"write_timeout_seconds"`
}

type DatabaseConfig struct {
	Redis   RedisConfig   `mapstructure:"redis"`
	MongoDB MongoDBConfig `mapstructure:"mongodb"`
}

type RedisConfig struct {
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	Password   string `mapstructure:"password"`
	DB         int    `mapstructure:"db"`
	TTLSeconds int    `mapstructure:"ttl_seconds"`
}

type MongoDBConfig struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

type BrokerConfig struct {
	Type  string      `mapstructure:"type"`
	Kafka KafkaConfig `mapstructure:"kafka"`
}

type KafkaConfig struct {
	Brokers          []string `mapstructure:"brokers"`
	AggregationTopic string   `mapstructure:"aggregation_topic"`
	RetryTopic       string   `mapstructure:"retry_topic"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type AggregationConfig struct {
	Trip           DependencyConfig     `mapstructure:"trip"`
	Baggage        DependencyConfig     `mapstructure:"baggage"`
	Ticket         DependencyConfig     `mapstructure:"ticket"`
	Customer       DependencyConfig     `mapstructure:"customer"`
	DefaultBaggage DefaultBaggageConfig `mapstructure:"default_baggage"`
}

// DependencyConfig bundles the resilience settings for one backend.
type DependencyConfig struct {
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
	Retry          RetryConfig          `mapstructure:"retry"`
}

type CircuitBreakerConfig struct {
	WindowSize           int           `mapstructure:"window_size"`
	FailureRateThreshold float64       `mapstructure:"failure_rate_threshold"`
	MinimumCalls         int           `mapstructure:"minimum_calls"`
	OpenStateDuration    time.Duration `mapstructure:"open_state_duration"`
	HalfOpenProbes       int           `mapstructure:"half_open_probes"`
}

type RetryConfig struct {
	MaxAttempts     int           `mapstructure:"max_attempts"`
	InitialInterval time.Duration `mapstructure:"initial_interval"`
	MaxInterval     time.Duration `mapstructure:"max_interval"`
	Multiplier      float64       `mapstructure:"multiplier"`
}

type DefaultBaggageConfig struct {
	CheckedWeight int    `mapstructure:"checked_weight"`
	CarryOnWeight int    `mapstructure:"carry_on_weight"`
	Unit          string `mapstructure:"unit"`
}

package config

import (
	"fmt"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

func ValidateStatic(cfg *Config) error {
	var errs []error

	if err := validateServer(cfg.Server); err != nil {
		errs = append(errs, err)
	}

	if err := validateBroker(cfg.Broker); err != nil {
		errs = append(errs, err)
	}

	if err := validateDatabase(cfg.Database); err != nil {
		errs = append(errs, err)
	}

	if err := validateAggregation(cfg.Aggregation); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %v", errs)
	}

	return nil
}

func validateServer(cfg ServerConfig) error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return &ValidationError{
			Field:   "server.port",
			Message: fmt.Sprintf("port must be between 1 and 65535, got %d", cfg.Port),
		}
	}

	return nil
}

func validateBroker(cfg BrokerConfig) error {
	if cfg.Type == "" {
		return nil
	}

	if cfg.Type != "kafka" {
		return &ValidationError{
			Field:   "broker.type",
			Message: fmt.Sprintf("unsupported broker type %q", cfg.Type),
		}
	}

	if len(cfg.Kafka.Brokers) == 0 {
		return &ValidationError{
			Field:   "broker.kafka.brokers",
			Message: "at least one broker address is required",
		}
	}

	return nil
}

func validateDatabase(cfg DatabaseConfig) error {
	if cfg.MongoDB.URI == "" {
		return &ValidationError{
			Field:   "database.mongodb.uri",
			Message: "mongodb uri is required",
		}
	}

	if cfg.Redis.Host == "" {
		return &ValidationError{
			Field:   "database.redis.host",
			Message: "redis host is required",
		}
	}

	return nil
}

func validateAggregation(cfg AggregationConfig) error {
	deps := map[string]DependencyConfig{
		"aggregation.trip":     cfg.Trip,
		"aggregation.baggage":  cfg.Baggage,
		"aggregation.ticket":   cfg.Ticket,
		"aggregation.customer": cfg.Customer,
	}

	for field, dep := range deps {
		if dep.CircuitBreaker.FailureRateThreshold < 0 || dep.CircuitBreaker.FailureRateThreshold > 1 {
			return &ValidationError{
				Field:   field + ".circuit_breaker.failure_rate_threshold",
				Message: "failure rate threshold must be between 0 and 1",
			}
		}
		if dep.Retry.MaxAttempts < 0 {
			return &ValidationError{
				Field:   field + ".retry.max_attempts",
				Message: "max attempts cannot be negative",
			}
		}
	}

	if cfg.DefaultBaggage.CheckedWeight < 0 || cfg.DefaultBaggage.CarryOnWeight < 0 {
		return &ValidationError{
			Field:   "aggregation.default_baggage",
			Message: "default baggage weights cannot be negative",
		}
	}

	return nil
}

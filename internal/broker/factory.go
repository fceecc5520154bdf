package broker

import (
	"fmt"

	"tripboard/internal/config"
	"tripboard/internal/logger"
)

func NewProducer(cfg config.BrokerConfig, log logger.Logger) (Producer, error) {
	switch cfg.Type {
	case "kafka":
		return NewGuardedProducer(NewKafkaProducer(cfg.Kafka, log), log), nil
	case "", "none":
		return NopProducer{}, nil
	default:
		return nil, fmt.Errorf("unknown broker type: %s", cfg.Type)
	}
}

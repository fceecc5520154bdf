package broker

import (
	"context"

	"tripboard/pkg/models"
)

// NopProducer drops events. Used when no broker is configured.
type NopProducer struct{}

func (NopProducer) Publish(ctx context.Context, topic string, evt models.Event) error {
	return nil
}

func (NopProducer) Close() error {
	return nil
}

package broker

import (
	"context"

	"tripboard/pkg/models"
)

// Producer publishes side-channel events. Delivery is best effort; the
// aggregation path never blocks on or fails because of a publish error.
type Producer interface {
	Publish(ctx context.Context, topic string, evt models.Event) error
	Close() error
}

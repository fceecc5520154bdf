package broker

import (
	"context"

	"tripboard/internal/logger"
	"tripboard/pkg/circuitbreaker"
	"tripboard/pkg/models"
)

// GuardedProducer wraps a Producer with a circuit breaker so a dead broker
// degrades to dropped events instead of a publish timeout per request.
type GuardedProducer struct {
	inner  Producer
	cb     *circuitbreaker.Wrapper
	logger logger.Logger
}

func NewGuardedProducer(inner Producer, log logger.Logger) *GuardedProducer {
	return &GuardedProducer{
		inner:  inner,
		cb:     circuitbreaker.NewWrapper(circuitbreaker.DefaultWrapperConfig("event-producer")),
		logger: log,
	}
}

func (p *GuardedProducer) Publish(ctx context.Context, topic string, evt models.Event) error {
	_, err := p.cb.ExecuteWithContext(ctx, func() (interface{}, error) {
		return nil, p.inner.Publish(ctx, topic, evt)
	})
	if err != nil {
		p.logger.WarnwCtx(ctx, "Event publish failed",
			"topic", topic,
			"event_type", evt.Type,
			"error", err,
		)
	}
	return err
}

func (p *GuardedProducer) Close() error {
	return p.inner.Close()
}

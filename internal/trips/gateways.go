package trips

import (
	"context"

	"tripboard/internal/config"
	"tripboard/internal/constants"
	"tripboard/internal/logger"
	"tripboard/internal/trips/gateway"
	"tripboard/pkg/circuitbreaker"
	"tripboard/pkg/retry"
)

// Gateways bundles the per-dependency gateways the aggregator composes.
// Each owns its circuit breaker; the fallback cache is shared.
type Gateways struct {
	Trip         *gateway.Gateway[*Booking]
	Baggage      *gateway.Gateway[*BaggageRecord]
	Ticket       *gateway.Gateway[*Ticket]
	CustomerRefs *gateway.Gateway[[]string]
}

type GatewayDeps struct {
	Trips    TripRepository
	Baggage  BaggageRepository
	Tickets  TicketRepository
	Cache    gateway.FallbackCache
	Observer gateway.RetryObserver
	Logger   logger.Logger
}

func NewGateways(cfg config.AggregationConfig, deps GatewayDeps) *Gateways {
	return &Gateways{
		Trip: gateway.New(gateway.Options[*Booking]{
			Name:    constants.DependencyTrip,
			Breaker: breakerConfig(constants.DependencyTrip, cfg.Trip.CircuitBreaker),
			Retry:   retryPolicy(cfg.Trip.Retry),
			Primary: func(ctx context.Context, key string) (*Booking, error) {
				return deps.Trips.FindByReference(ctx, key)
			},
			Fallback:  &tripFallback{cache: deps.Cache, logger: deps.Logger},
			Cache:     deps.Cache,
			Namespace: constants.CacheNamespaceTrip,
			Observer:  deps.Observer,
			Logger:    deps.Logger,
		}),

		Baggage: gateway.New(gateway.Options[*BaggageRecord]{
			Name:    constants.DependencyBaggage,
			Breaker: breakerConfig(constants.DependencyBaggage, cfg.Baggage.CircuitBreaker),
			Retry:   retryPolicy(cfg.Baggage.Retry),
			Primary: func(ctx context.Context, key string) (*BaggageRecord, error) {
				return deps.Baggage.FindByReference(ctx, key)
			},
			Fallback:  &baggageFallback{defaults: cfg.DefaultBaggage},
			Cache:     deps.Cache,
			Namespace: constants.CacheNamespaceBaggage,
			Observer:  deps.Observer,
			Logger:    deps.Logger,
		}),

		Ticket: gateway.New(gateway.Options[*Ticket]{
			Name:    constants.DependencyTicket,
			Breaker: breakerConfig(constants.DependencyTicket, cfg.Ticket.CircuitBreaker),
			Retry:   retryPolicy(cfg.Ticket.Retry),
			Primary: func(ctx context.Context, key string) (*Ticket, error) {
				reference, number, err := splitTicketKey(key)
				if err != nil {
					return nil, err
				}
				return deps.Tickets.FindByPassenger(ctx, reference, number)
			},
			Fallback:  &ticketFallback{},
			Cache:     deps.Cache,
			Namespace: constants.CacheNamespaceTicket,
			Observer:  deps.Observer,
			Logger:    deps.Logger,
		}),

		CustomerRefs: gateway.New(gateway.Options[[]string]{
			Name:    constants.DependencyCustomer,
			Breaker: breakerConfig(constants.DependencyCustomer, cfg.Customer.CircuitBreaker),
			Retry:   retryPolicy(cfg.Customer.Retry),
			Primary: func(ctx context.Context, key string) ([]string, error) {
				return deps.Trips.FindReferencesByCustomer(ctx, key)
			},
			Fallback:  &customerRefsFallback{cache: deps.Cache, logger: deps.Logger},
			Cache:     deps.Cache,
			Namespace: constants.CacheNamespaceCustomerRefs,
			Observer:  deps.Observer,
			Logger:    deps.Logger,
		}),
	}
}

func breakerConfig(name string, cfg config.CircuitBreakerConfig) circuitbreaker.Config {
	out := circuitbreaker.DefaultConfig(name)
	if cfg.WindowSize > 0 {
		out.WindowSize = cfg.WindowSize
	}
	if cfg.FailureRateThreshold > 0 {
		out.FailureRateThreshold = cfg.FailureRateThreshold
	}
	if cfg.MinimumCalls > 0 {
		out.MinimumCalls = cfg.MinimumCalls
	}
	if cfg.OpenStateDuration > 0 {
		out.OpenStateDuration = cfg.OpenStateDuration
	}
	if cfg.HalfOpenProbes > 0 {
		out.HalfOpenProbes = cfg.HalfOpenProbes
	}
	return out
}

func retryPolicy(cfg config.RetryConfig) retry.Policy {
	out := retry.DefaultPolicy()
	if cfg.MaxAttempts > 0 {
		out.MaxAttempts = cfg.MaxAttempts
	}
	if cfg.InitialInterval > 0 {
		out.InitialInterval = cfg.InitialInterval
	}
	if cfg.MaxInterval > 0 {
		out.MaxInterval = cfg.MaxInterval
	}
	if cfg.Multiplier > 0 {
		out.Multiplier = cfg.Multiplier
	}
	return out
}

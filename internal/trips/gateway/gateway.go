package gateway

import (
	"context"
	"time"

	"tripboard/internal/logger"
	"tripboard/pkg/circuitbreaker"
	"tripboard/pkg/errors"
	"tripboard/pkg/metrics"
	"tripboard/pkg/retry"
)

// Gateway composes a circuit breaker, a retried primary fetch, a
// write-through fallback cache and a terminal fallback strategy into one
// call. Infrastructure failure never crosses it: callers see data
// (possibly degraded) or a business not-found/unavailable outcome.
//
// Resolution order:
//  1. breaker rejection routes straight to the fallback strategy,
//     recording nothing;
//  2. the primary fetch runs under the retry policy, transient errors
//     only;
//  3. success writes through to the cache and records success; a
//     not-found also records success but propagates terminally without
//     touching fallback;
//  4. exhaustion records one failure for the whole retried call and
//     resolves via the fallback strategy.
type Gateway[T any] struct {
	name      string
	breaker   *circuitbreaker.Breaker
	policy    retry.Policy
	primary   func(ctx context.Context, key string) (T, error)
	fallback  FallbackStrategy[T]
	cache     FallbackCache
	namespace string
	observer  RetryObserver
	logger    logger.Logger
}

type Options[T any] struct {
	Name      string
	Breaker   circuitbreaker.Config
	Retry     retry.Policy
	Primary   func(ctx context.Context, key string) (T, error)
	Fallback  FallbackStrategy[T]
	Cache     FallbackCache
	Namespace string
	Observer  RetryObserver
	Logger    logger.Logger
}

func New[T any](opts Options[T]) *Gateway[T] {
	if opts.Breaker.Name == "" {
		opts.Breaker.Name = opts.Name
	}
	return &Gateway[T]{
		name:      opts.Name,
		breaker:   circuitbreaker.New(opts.Breaker),
		policy:    opts.Retry,
		primary:   opts.Primary,
		fallback:  opts.Fallback,
		cache:     opts.Cache,
		namespace: opts.Namespace,
		observer:  opts.Observer,
		logger:    opts.Logger,
	}
}

func (g *Gateway[T]) Name() string {
	return g.name
}

// BreakerSnapshot exposes breaker diagnostics for unavailability errors.
func (g *Gateway[T]) BreakerSnapshot() circuitbreaker.Snapshot {
	return g.breaker.Snapshot()
}

func (g *Gateway[T]) Fetch(ctx context.Context, key string) (T, error) {
	var zero T

	if !g.breaker.Acquire() {
		g.logger.DebugwCtx(ctx, "Circuit breaker rejected call",
			"dependency", g.name,
			"key", key,
		)
		return g.resolveFallback(ctx, key, errors.ErrServiceUnavailable.
			WithMessage("circuit breaker open").
			WithDetail("dependency", g.name))
	}

	start := time.Now()
	var value T
	err := retry.RetryWithCallback(ctx, g.policy, func() error {
		v, err := g.primary(ctx, key)
		if err != nil {
			return err
		}
		value = v
		return nil
	}, func(attempt int, attemptErr error, nextDelay time.Duration) {
		metrics.RetryAttemptsTotal.WithLabelValues(g.name, "scheduled").Inc()
		if g.observer != nil {
			g.observer(ctx, g.name, key, attempt, nextDelay, attemptErr)
		}
	})
	elapsed := time.Since(start)

	if err == nil {
		g.breaker.RecordSuccess(elapsed)
		metrics.DependencyCallDuration.WithLabelValues(g.name, "success").Observe(float64(elapsed.Milliseconds()))
		g.writeThrough(ctx, key, value)
		return value, nil
	}

	if errors.IsNotFound(err) {
		// Legitimate absence of data is not a dependency failure and is
		// never resolved through fallback.
		g.breaker.RecordSuccess(elapsed)
		metrics.DependencyCallDuration.WithLabelValues(g.name, "not_found").Observe(float64(elapsed.Milliseconds()))
		return zero, err
	}

	g.breaker.RecordFailure(elapsed, err)
	metrics.DependencyCallDuration.WithLabelValues(g.name, "error").Observe(float64(elapsed.Milliseconds()))
	metrics.RetryAttemptsTotal.WithLabelValues(g.name, "exhausted").Inc()
	g.logger.WarnwCtx(ctx, "Primary fetch exhausted, resolving fallback",
		"dependency", g.name,
		"key", key,
		"error", err,
	)

	return g.resolveFallback(ctx, key, err)
}

func (g *Gateway[T]) resolveFallback(ctx context.Context, key string, cause error) (T, error) {
	value, err := g.fallback.Resolve(ctx, key, cause)
	if err != nil {
		metrics.FallbacksTotal.WithLabelValues(g.name, "unresolved").Inc()
		return value, err
	}
	metrics.FallbacksTotal.WithLabelValues(g.name, "resolved").Inc()
	return value, nil
}

func (g *Gateway[T]) writeThrough(ctx context.Context, key string, value T) {
	if g.cache == nil {
		return
	}
	if err := g.cache.Put(ctx, g.namespace, key, value); err != nil {
		// Cache write failure must not affect the successful result.
		g.logger.WarnwCtx(ctx, "Fallback cache write-through failed",
			"dependency", g.name,
			"key", key,
			"error", err,
		)
	}
}

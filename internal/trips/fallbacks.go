package trips

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"tripboard/internal/config"
	"tripboard/internal/constants"
	"tripboard/internal/logger"
	"tripboard/internal/trips/gateway"
	"tripboard/pkg/errors"
)

// TicketKey builds the composite lookup key for a per-passenger ticket.
func TicketKey(reference string, passengerNumber int) string {
	return reference + ":" + strconv.Itoa(passengerNumber)
}

func splitTicketKey(key string) (string, int, error) {
	reference, numberStr, ok := strings.Cut(key, ":")
	if !ok {
		return "", 0, fmt.Errorf("malformed ticket key %q", key)
	}
	number, err := strconv.Atoi(numberStr)
	if err != nil {
		return "", 0, fmt.Errorf("malformed ticket key %q: %w", key, err)
	}
	return reference, number, nil
}

// tripFallback serves the last cached booking or fails with an
// unavailability error carrying the underlying cause. Trip is the only
// dependency whose fallback can fail.
type tripFallback struct {
	cache  gateway.FallbackCache
	logger logger.Logger
}

func (f *tripFallback) Resolve(ctx context.Context, key string, cause error) (*Booking, error) {
	var booking Booking
	cachedAt, ok, err := f.cache.Get(ctx, constants.CacheNamespaceTrip, key, &booking)
	if err != nil {
		f.logger.WarnwCtx(ctx, "Fallback cache read failed",
			"dependency", constants.DependencyTrip,
			"key", key,
			"error", err,
		)
		ok = false
	}

	if !ok {
		return nil, errors.ErrServiceUnavailable.
			WithMessage("booking data temporarily unavailable").
			WithCause(cause).
			WithDetail("dependency", constants.DependencyTrip)
	}

	booking.FromCache = true
	booking.CachedAt = &cachedAt
	booking.FallbackNotices = []string{
		"Booking data served from cache, trip backend unavailable",
		"Cache timestamp: " + cachedAt.Format(time.RFC3339),
	}
	return &booking, nil
}

// baggageFallback synthesizes the configured default allowance. It never
// fails: a baggage outage degrades the response, it does not break it.
type baggageFallback struct {
	defaults config.DefaultBaggageConfig
}

func (f *baggageFallback) Resolve(ctx context.Context, key string, cause error) (*BaggageRecord, error) {
	return &BaggageRecord{
		BookingReference: key,
		Allowances: []BaggageAllowance{
			{
				CheckedWeight: f.defaults.CheckedWeight,
				CarryOnWeight: f.defaults.CarryOnWeight,
				Unit:          f.defaults.Unit,
			},
		},
		FromDefault: true,
		FallbackNotices: []string{
			"Using default baggage allowance, baggage service unavailable",
			fmt.Sprintf("Default allowance: %d%s checked / %d%s carry-on",
				f.defaults.CheckedWeight, f.defaults.Unit,
				f.defaults.CarryOnWeight, f.defaults.Unit),
		},
	}, nil
}

// ticketFallback produces a placeholder without a URL. Downstream this is
// indistinguishable from a passenger without a ticket except for the
// notices.
type ticketFallback struct{}

func (f *ticketFallback) Resolve(ctx context.Context, key string, cause error) (*Ticket, error) {
	reference, number, err := splitTicketKey(key)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal)
	}

	return &Ticket{
		BookingReference: reference,
		PassengerNumber:  number,
		FallbackNotices: []string{
			"Ticket service unavailable",
			"Ticket data cannot be retrieved at this time",
		},
	}, nil
}

// customerRefsFallback mirrors the trip shape for the by-customer index
// lookup: cached reference list or unavailable.
type customerRefsFallback struct {
	cache  gateway.FallbackCache
	logger logger.Logger
}

func (f *customerRefsFallback) Resolve(ctx context.Context, key string, cause error) ([]string, error) {
	var references []string
	_, ok, err := f.cache.Get(ctx, constants.CacheNamespaceCustomerRefs, key, &references)
	if err != nil {
		f.logger.WarnwCtx(ctx, "Fallback cache read failed",
			"dependency", constants.DependencyCustomer,
			"key", key,
			"error", err,
		)
		ok = false
	}

	if !ok {
		return nil, errors.ErrServiceUnavailable.
			WithMessage("customer bookings temporarily unavailable").
			WithCause(cause).
			WithDetail("dependency", constants.DependencyCustomer)
	}

	return references, nil
}

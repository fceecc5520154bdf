package trips

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"tripboard/internal/broker"
	"tripboard/internal/logger"
	"tripboard/pkg/errors"
	"tripboard/pkg/logging"
	"tripboard/pkg/metrics"
	"tripboard/pkg/models"
)

type Service interface {
	// Aggregate merges trip, baggage and ticket data for one booking.
	// Errors are limited to business not-found and, when the trip backend
	// and its cache are both cold, unavailability.
	Aggregate(ctx context.Context, reference string) (*AggregationResult, error)

	// AggregateByCustomer aggregates every booking referencing the
	// customer, in parallel. An empty list is a valid result.
	AggregateByCustomer(ctx context.Context, customerID string) ([]*AggregationResult, error)
}

type serviceImpl struct {
	gateways         *Gateways
	producer         broker.Producer
	aggregationTopic string
	logger           logger.Logger
}

func NewService(gateways *Gateways, producer broker.Producer, aggregationTopic string, log logger.Logger) Service {
	return &serviceImpl{
		gateways:         gateways,
		producer:         producer,
		aggregationTopic: aggregationTopic,
		logger:           log,
	}
}

func (s *serviceImpl) Aggregate(ctx context.Context, reference string) (*AggregationResult, error) {
	ctx = logging.WithBookingReference(ctx, reference)
	start := time.Now()

	// Trip first; without it there is nothing to join onto. Baggage and
	// ticket fetches are never issued when it fails.
	booking, err := s.gateways.Trip.Fetch(ctx, reference)
	if err != nil {
		metrics.AggregationRequestsTotal.WithLabelValues("error").Inc()
		return nil, s.withBreakerDiagnostics(err)
	}

	baggage, tickets := s.fanOut(ctx, booking)

	result := s.merge(booking, baggage, tickets)
	result.GeneratedAt = time.Now().UTC()

	s.notify(ctx, result)

	status := string(result.Status)
	metrics.AggregationRequestsTotal.WithLabelValues(status).Inc()
	metrics.AggregationDuration.WithLabelValues(status).Observe(float64(time.Since(start).Milliseconds()))

	s.logger.InfowCtx(ctx, "Aggregation completed",
		"status", result.Status,
		"from_cache", result.FromCache,
		"passengers", len(result.Passengers),
	)

	return result, nil
}

// fanOut issues the baggage fetch and one ticket fetch per passenger
// concurrently and waits for every task to settle. A missing ticket or a
// panicking task settles as absence; it never fails the barrier.
func (s *serviceImpl) fanOut(ctx context.Context, booking *Booking) (*BaggageRecord, []*Ticket) {
	var (
		wg      sync.WaitGroup
		baggage *BaggageRecord
		tickets = make([]*Ticket, len(booking.Passengers))
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer func() {
			if perr := errors.RecoverPanic(recover()); perr != nil {
				s.logger.ErrorwCtx(ctx, "Baggage fetch panicked", "error", perr)
			}
		}()

		record, err := s.gateways.Baggage.Fetch(ctx, booking.Reference)
		if err != nil {
			// Only business not-found reaches here: a booking without a
			// stored baggage record. Not a degradation.
			if !errors.IsNotFound(err) {
				s.logger.ErrorwCtx(ctx, "Unexpected baggage gateway error", "error", err)
			}
			return
		}
		baggage = record
	}()

	for i, passenger := range booking.Passengers {
		wg.Add(1)
		go func(idx, number int) {
			defer wg.Done()
			defer func() {
				if perr := errors.RecoverPanic(recover()); perr != nil {
					s.logger.ErrorwCtx(ctx, "Ticket fetch panicked",
						"passenger_number", number,
						"error", perr,
					)
				}
			}()

			ticket, err := s.gateways.Ticket.Fetch(ctx, TicketKey(booking.Reference, number))
			if err != nil {
				// No ticket for this passenger. Absence, not failure.
				return
			}
			tickets[idx] = ticket
		}(i, passenger.Number)
	}

	wg.Wait()
	return baggage, tickets
}

func (s *serviceImpl) merge(booking *Booking, baggage *BaggageRecord, tickets []*Ticket) *AggregationResult {
	result := &AggregationResult{
		BookingReference:   booking.Reference,
		CabinClass:         booking.CabinClass,
		FromCache:          booking.FromCache,
		CacheTimestamp:     booking.CachedAt,
		PNRFallbackNotices: booking.FallbackNotices,
		Passengers:         make([]PassengerView, 0, len(booking.Passengers)),
		Flights:            make([]FlightView, 0, len(booking.Flights)),
	}

	for i, passenger := range booking.Passengers {
		view := PassengerView{
			Number:   passenger.Number,
			FullName: passenger.FullName(),
		}

		if allowance, ok := baggage.ForPassenger(passenger.Number); ok {
			view.CheckedWeight = allowance.CheckedWeight
			view.CarryOnWeight = allowance.CarryOnWeight
			view.BaggageUnit = allowance.Unit
		}

		var notices []string
		if baggage != nil {
			notices = append(notices, baggage.FallbackNotices...)
		}

		if ticket := tickets[i]; ticket != nil {
			if ticket.URL != "" {
				url := ticket.URL
				view.TicketURL = &url
			}
			notices = append(notices, ticket.FallbackNotices...)
		}
		view.FallbackNotices = notices

		result.Passengers = append(result.Passengers, view)
	}

	for _, flight := range booking.Flights {
		view := FlightView{
			Number:        flight.Number,
			Origin:        flight.Origin,
			Destination:   flight.Destination,
			DepartureTime: flight.DepartureTime,
			ArrivalTime:   flight.ArrivalTime,
		}
		if booking.FromCache {
			view.FallbackNotices = []string{"Flight details served from cache and may be outdated"}
		}
		result.Flights = append(result.Flights, view)
	}

	// Ticket fallback stays passenger-local: only trip and baggage
	// provenance flip the overall status.
	if booking.FromCache || (baggage != nil && baggage.FromDefault) {
		result.Status = StatusDegraded
	} else {
		result.Status = StatusSuccess
	}

	return result
}

// notify publishes the completion event. Best effort: the result is
// already final and a publish failure must not surface to the caller.
func (s *serviceImpl) notify(ctx context.Context, result *AggregationResult) {
	evt := models.NewEvent(models.EventTypeAggregationCompleted, models.AggregationCompleted{
		BookingReference: result.BookingReference,
		Status:           string(result.Status),
		FromCache:        result.FromCache,
		CompletedAt:      result.GeneratedAt,
	})

	if err := s.producer.Publish(ctx, s.aggregationTopic, evt); err != nil {
		s.logger.WarnwCtx(ctx, "Aggregation event publish failed", "error", err)
	}
}

func (s *serviceImpl) AggregateByCustomer(ctx context.Context, customerID string) ([]*AggregationResult, error) {
	references, err := s.gateways.CustomerRefs.Fetch(ctx, customerID)
	if err != nil {
		return nil, err
	}

	results := make([]*AggregationResult, len(references))
	g, gCtx := errgroup.WithContext(ctx)

	for i, reference := range references {
		g.Go(func() error {
			result, err := s.Aggregate(gCtx, reference)
			if err != nil {
				// One cold booking must not sink the rest of the list.
				s.logger.WarnwCtx(gCtx, "Skipping failed aggregation unit",
					"booking_reference", reference,
					"error", err,
				)
				return nil
			}
			results[i] = result
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]*AggregationResult, 0, len(results))
	for _, result := range results {
		if result != nil {
			out = append(out, result)
		}
	}
	return out, nil
}

func (s *serviceImpl) withBreakerDiagnostics(err error) error {
	if appErr, ok := errors.As(err); ok && errors.IsUnavailable(err) {
		return appErr.WithDetail("circuit_breaker", s.gateways.Trip.BreakerSnapshot())
	}
	return err
}
